package calculator

import (
	"fmt"
	"sort"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/money"
)

// MaxWeight bounds split weights so total*weight stays inside int64.
const MaxWeight = 1000

// Weight assigns a relative part of an expense to a user.
type Weight struct {
	UserID string
	Weight int64
}

// SplitEqually divides total between users. Leftover minor units go to the
// first users in the list, one each.
func SplitEqually(total money.Amount, userIDs []string) ([]models.Share, error) {
	weights := make([]Weight, len(userIDs))
	for i, id := range userIDs {
		weights[i] = Weight{UserID: id, Weight: 1}
	}
	shares, err := SplitByWeight(total, weights)
	if err != nil {
		return nil, err
	}
	for i := range shares {
		shares[i].Weight = 0
	}
	return shares, nil
}

// SplitByWeight divides total proportionally to the weights using the largest
// remainder method, so the shares always add up to total exactly.
//
// Algorithm: share_i = floor(total × w_i / Σw); the minor units lost to
// flooring are handed out one at a time to the largest remainders, ties going
// to the earlier entry.
func SplitByWeight(total money.Amount, weights []Weight) ([]models.Share, error) {
	if total <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", models.ErrValidation)
	}
	if len(weights) == 0 {
		return nil, fmt.Errorf("%w: must have at least one participant", models.ErrValidation)
	}

	var sum int64
	seen := make(map[string]bool, len(weights))
	for _, w := range weights {
		if w.UserID == "" {
			return nil, fmt.Errorf("%w: participant user id required", models.ErrValidation)
		}
		if seen[w.UserID] {
			return nil, fmt.Errorf("%w: participant %s listed twice", models.ErrValidation, w.UserID)
		}
		seen[w.UserID] = true
		if w.Weight <= 0 || w.Weight > MaxWeight {
			return nil, fmt.Errorf("%w: weight for %s must be between 1 and %d", models.ErrValidation, w.UserID, MaxWeight)
		}
		sum += w.Weight
	}

	shares := make([]models.Share, len(weights))
	remainders := make([]int64, len(weights))
	var assigned money.Amount
	for i, w := range weights {
		scaled := int64(total) * w.Weight
		shares[i] = models.Share{UserID: w.UserID, Amount: money.Amount(scaled / sum), Weight: w.Weight}
		remainders[i] = scaled % sum
		assigned += shares[i].Amount
	}

	order := make([]int, len(weights))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]] > remainders[order[b]]
	})
	for k := 0; assigned < total; k++ {
		shares[order[k%len(order)]].Amount++
		assigned++
	}

	return shares, nil
}

// ValidateShares checks explicitly entered shares against the expense total.
func ValidateShares(total money.Amount, shares []models.Share) error {
	if total <= 0 {
		return fmt.Errorf("%w: amount must be positive", models.ErrValidation)
	}
	if len(shares) == 0 {
		return fmt.Errorf("%w: must have at least one participant", models.ErrValidation)
	}
	seen := make(map[string]bool, len(shares))
	var sum money.Amount
	for _, s := range shares {
		if s.UserID == "" {
			return fmt.Errorf("%w: participant user id required", models.ErrValidation)
		}
		if seen[s.UserID] {
			return fmt.Errorf("%w: participant %s listed twice", models.ErrValidation, s.UserID)
		}
		seen[s.UserID] = true
		if s.Amount < 0 {
			return fmt.Errorf("%w: share for %s is negative", models.ErrValidation, s.UserID)
		}
		sum += s.Amount
	}
	if sum != total {
		return fmt.Errorf("%w: shares add up to %s, expense is %s", models.ErrValidation, sum, total)
	}
	return nil
}

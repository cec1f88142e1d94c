package calculator

import (
	"fmt"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/money"
)

// NetBalances reduces a group's ledger to one signed balance per member.
//
// Algorithm:
// - For each entry: payer is credited the entry total, each participant is
//   debited their share (a payer who is also a participant nets the difference)
// - Output follows the group's member order; members at zero are kept
//
// A nil group is ErrNotFound. A group without members or without entries
// yields an empty result. Entries that name a non-member, or carry a negative
// share, are ErrInvariantViolation: the ledger is corrupt and nothing is
// guessed.
func NetBalances(group *models.Group, entries []models.ExpenseShare) ([]models.NetBalance, error) {
	if group == nil {
		return nil, fmt.Errorf("%w: group", models.ErrNotFound)
	}
	if len(group.Members) == 0 || len(entries) == 0 {
		return []models.NetBalance{}, nil
	}

	index := make(map[string]int, len(group.Members))
	for i, m := range group.Members {
		index[m.UserID] = i
	}
	nets := make([]money.Amount, len(group.Members))

	for _, entry := range entries {
		payer, ok := index[entry.PayerID]
		if !ok {
			return nil, fmt.Errorf("%w: entry %s paid by non-member %q", models.ErrInvariantViolation, entry.ID, entry.PayerID)
		}
		for _, p := range entry.Participants {
			i, ok := index[p.UserID]
			if !ok {
				return nil, fmt.Errorf("%w: entry %s shared with non-member %q", models.ErrInvariantViolation, entry.ID, p.UserID)
			}
			if p.ShareAmount < 0 {
				return nil, fmt.Errorf("%w: entry %s has negative share for %q", models.ErrInvariantViolation, entry.ID, p.UserID)
			}
			nets[payer] += p.ShareAmount
			nets[i] -= p.ShareAmount
		}
	}

	balances := make([]models.NetBalance, len(group.Members))
	for i, m := range group.Members {
		balances[i] = models.NetBalance{User: m, Net: nets[i]}
	}
	return balances, nil
}

// Total returns the sum of all nets. It is zero for a consistent ledger.
func Total(balances []models.NetBalance) money.Amount {
	var total money.Amount
	for _, b := range balances {
		total += b.Net
	}
	return total
}

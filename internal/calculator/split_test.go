package calculator

import (
	"errors"
	"testing"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/money"
)

func TestSplitByWeight(t *testing.T) {
	tests := []struct {
		name         string
		total        money.Amount
		weights      []Weight
		wantErr      bool
		validateFunc func(t *testing.T, shares []models.Share)
	}{
		{
			name:    "even three-way split",
			total:   30000,
			weights: []Weight{{"alice", 1}, {"bob", 1}, {"charlie", 1}},
			validateFunc: func(t *testing.T, shares []models.Share) {
				for _, s := range shares {
					if s.Amount != 10000 {
						t.Errorf("%s share = %d, want 10000", s.UserID, s.Amount)
					}
				}
			},
		},
		{
			name:    "leftover paise go to largest remainders",
			total:   1000,
			weights: []Weight{{"alice", 1}, {"bob", 1}, {"charlie", 1}},
			validateFunc: func(t *testing.T, shares []models.Share) {
				// 1000 / 3 = 333 r 1, first entry wins the tie
				want := []money.Amount{334, 333, 333}
				for i, s := range shares {
					if s.Amount != want[i] {
						t.Errorf("%s share = %d, want %d", s.UserID, s.Amount, want[i])
					}
				}
			},
		},
		{
			name:    "weighted 2:1",
			total:   1000,
			weights: []Weight{{"alice", 2}, {"bob", 1}},
			validateFunc: func(t *testing.T, shares []models.Share) {
				// alice: 2000/3 = 666 r 2, bob: 1000/3 = 333 r 1
				if shares[0].Amount != 667 || shares[1].Amount != 333 {
					t.Errorf("shares = %d/%d, want 667/333", shares[0].Amount, shares[1].Amount)
				}
				if shares[0].Weight != 2 {
					t.Errorf("weight not kept: %d", shares[0].Weight)
				}
			},
		},
		{
			name:    "zero amount should error",
			total:   0,
			weights: []Weight{{"alice", 1}},
			wantErr: true,
		},
		{
			name:    "no participants should error",
			total:   100,
			wantErr: true,
		},
		{
			name:    "duplicate participant should error",
			total:   100,
			weights: []Weight{{"alice", 1}, {"alice", 2}},
			wantErr: true,
		},
		{
			name:    "weight out of range should error",
			total:   100,
			weights: []Weight{{"alice", MaxWeight + 1}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, err := SplitByWeight(tt.total, tt.weights)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SplitByWeight() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, models.ErrValidation) {
					t.Errorf("expected ErrValidation, got %v", err)
				}
				return
			}
			var sum money.Amount
			for _, s := range shares {
				sum += s.Amount
			}
			if sum != tt.total {
				t.Errorf("shares sum to %d, want %d", sum, tt.total)
			}
			if tt.validateFunc != nil {
				tt.validateFunc(t, shares)
			}
		})
	}
}

func TestSplitEqually(t *testing.T) {
	shares, err := SplitEqually(10001, []string{"a", "b"})
	if err != nil {
		t.Fatalf("SplitEqually: %v", err)
	}
	if shares[0].Amount != 5001 || shares[1].Amount != 5000 {
		t.Errorf("shares = %+v", shares)
	}
	if shares[0].Weight != 0 {
		t.Errorf("equal split should not record weights, got %d", shares[0].Weight)
	}
}

func TestValidateShares(t *testing.T) {
	ok := []models.Share{{UserID: "a", Amount: 700}, {UserID: "b", Amount: 300}}
	if err := ValidateShares(1000, ok); err != nil {
		t.Errorf("valid shares rejected: %v", err)
	}

	bad := map[string][]models.Share{
		"sum mismatch": {{UserID: "a", Amount: 700}, {UserID: "b", Amount: 200}},
		"negative":     {{UserID: "a", Amount: 1100}, {UserID: "b", Amount: -100}},
		"duplicate":    {{UserID: "a", Amount: 500}, {UserID: "a", Amount: 500}},
		"empty id":     {{UserID: "", Amount: 1000}},
		"no shares":    nil,
	}
	for name, shares := range bad {
		if err := ValidateShares(1000, shares); !errors.Is(err, models.ErrValidation) {
			t.Errorf("%s: expected ErrValidation, got %v", name, err)
		}
	}
}

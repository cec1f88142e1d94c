package calculator

import (
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"testing"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/money"
)

func balancesOf(pairs ...any) []models.NetBalance {
	var out []models.NetBalance
	for i := 0; i < len(pairs); i += 2 {
		id := pairs[i].(string)
		out = append(out, models.NetBalance{
			User: models.Member{UserID: id, Name: id},
			Net:  money.Amount(pairs[i+1].(int)),
		})
	}
	return out
}

type transfer struct {
	from, to string
	amount   money.Amount
}

func transfers(settlements []models.Settlement) []transfer {
	out := make([]transfer, len(settlements))
	for i, s := range settlements {
		out[i] = transfer{s.From.UserID, s.To.UserID, s.Amount}
	}
	return out
}

func TestPlan(t *testing.T) {
	tests := []struct {
		name     string
		planner  Planner
		balances []models.NetBalance
		want     []transfer
		wantErr  error
	}{
		{
			name:     "one creditor two debtors",
			planner:  DefaultPlanner,
			balances: balancesOf("A", 20000, "B", -10000, "C", -10000),
			want:     []transfer{{"B", "A", 10000}, {"C", "A", 10000}},
		},
		{
			name:     "chain collapses to a single transfer",
			planner:  DefaultPlanner,
			balances: balancesOf("A", -5000, "B", 0, "C", 5000),
			want:     []transfer{{"A", "C", 5000}},
		},
		{
			name:     "largest debtor is matched first",
			planner:  DefaultPlanner,
			balances: balancesOf("A", -1000, "B", -4000, "C", 3000, "D", 2000),
			// B(4000)->C(3000) 3000; then A and B both owe 1000, A listed first
			want: []transfer{{"B", "C", 3000}, {"A", "D", 1000}, {"B", "D", 1000}},
		},
		{
			name:     "tie broken by input order",
			planner:  DefaultPlanner,
			balances: balancesOf("z", 100, "y", 100, "x", -200),
			want:     []transfer{{"x", "z", 100}, {"x", "y", 100}},
		},
		{
			name:     "tie broken by user id",
			planner:  Planner{TieBreak: TieBreakUserID},
			balances: balancesOf("z", 100, "y", 100, "x", -200),
			want:     []transfer{{"x", "y", 100}, {"x", "z", 100}},
		},
		{
			name:     "all zero needs nothing",
			planner:  DefaultPlanner,
			balances: balancesOf("A", 0, "B", 0),
			want:     []transfer{},
		},
		{
			name:     "empty input",
			planner:  DefaultPlanner,
			balances: nil,
			want:     []transfer{},
		},
		{
			name:     "non-zero sum is refused",
			planner:  DefaultPlanner,
			balances: balancesOf("A", 100, "B", -99),
			wantErr:  models.ErrInvariantViolation,
		},
		{
			name:     "residual within tolerance is left unsettled",
			planner:  Planner{Tolerance: 1},
			balances: balancesOf("A", 100, "B", -99),
			want:     []transfer{{"B", "A", 99}},
		},
		{
			name:     "tolerance is not a licence for larger drift",
			planner:  Planner{Tolerance: 1},
			balances: balancesOf("A", 100, "B", -98),
			wantErr:  models.ErrInvariantViolation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.planner.Plan(tt.balances)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Plan() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Plan() unexpected error: %v", err)
			}
			if got == nil {
				t.Fatal("expected non-nil slice")
			}
			if !reflect.DeepEqual(transfers(got), tt.want) {
				t.Errorf("Plan() = %+v, want %+v", transfers(got), tt.want)
			}
		})
	}
}

func TestParseTieBreak(t *testing.T) {
	for in, want := range map[string]TieBreak{"": TieBreakInputOrder, "input": TieBreakInputOrder, "user_id": TieBreakUserID} {
		got, err := ParseTieBreak(in)
		if err != nil || got != want {
			t.Errorf("ParseTieBreak(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseTieBreak("random"); err == nil {
		t.Error("expected error for unknown tie break")
	}
}

func TestApply_UnknownMember(t *testing.T) {
	_, err := Apply(balancesOf("A", 0), []models.Settlement{{
		From:   models.Member{UserID: "A"},
		To:     models.Member{UserID: "Q"},
		Amount: 1,
	}})
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// randomLedger builds a group of n members with random expenses split by
// random weights.
func randomLedger(rng *rand.Rand, n, expenses int) (*models.Group, []models.ExpenseShare) {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("u%02d", i)
	}
	group := testGroup(ids...)

	var entries []models.ExpenseShare
	for e := 0; e < expenses; e++ {
		payer := ids[rng.Intn(n)]
		var weights []Weight
		for _, id := range ids {
			if rng.Intn(3) > 0 {
				weights = append(weights, Weight{UserID: id, Weight: int64(1 + rng.Intn(5))})
			}
		}
		if len(weights) == 0 {
			weights = append(weights, Weight{UserID: payer, Weight: 1})
		}
		shares, err := SplitByWeight(money.Amount(1+rng.Int63n(500000)), weights)
		if err != nil {
			panic(err)
		}
		exp := models.Expense{ID: fmt.Sprintf("e%d", e), GroupID: group.ID, PayerID: payer, Shares: shares}
		entries = append(entries, exp.Entry())

		if rng.Intn(4) == 0 {
			from, to := ids[rng.Intn(n)], ids[rng.Intn(n)]
			if from != to {
				p := models.Payment{ID: fmt.Sprintf("p%d", e), GroupID: group.ID, FromUserID: from, ToUserID: to, Amount: money.Amount(1 + rng.Int63n(10000))}
				entries = append(entries, p.Entry())
			}
		}
	}
	return group, entries
}

func TestSettlementProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for iter := 0; iter < 300; iter++ {
		group, entries := randomLedger(rng, 2+rng.Intn(9), 1+rng.Intn(15))

		balances, err := NetBalances(group, entries)
		if err != nil {
			t.Fatalf("iter %d: NetBalances: %v", iter, err)
		}
		if total := Total(balances); total != 0 {
			t.Fatalf("iter %d: balances sum to %d", iter, total)
		}

		settlements, err := DefaultPlanner.Plan(balances)
		if err != nil {
			t.Fatalf("iter %d: Plan: %v", iter, err)
		}

		nonZero := 0
		for _, b := range balances {
			if b.Net != 0 {
				nonZero++
			}
		}
		if nonZero > 0 && len(settlements) > nonZero-1 {
			t.Errorf("iter %d: %d settlements for %d non-zero members", iter, len(settlements), nonZero)
		}
		for _, s := range settlements {
			if s.Amount <= 0 {
				t.Errorf("iter %d: non-positive settlement %+v", iter, s)
			}
			if s.From.UserID == s.To.UserID {
				t.Errorf("iter %d: self transfer %+v", iter, s)
			}
		}

		settled, err := Apply(balances, settlements)
		if err != nil {
			t.Fatalf("iter %d: Apply: %v", iter, err)
		}
		for _, b := range settled {
			if b.Net != 0 {
				t.Errorf("iter %d: %s left at %d after settling", iter, b.User.UserID, b.Net)
			}
		}

		again, _ := NetBalances(group, entries)
		againPlan, _ := DefaultPlanner.Plan(again)
		if !reflect.DeepEqual(balances, again) || !reflect.DeepEqual(settlements, againPlan) {
			t.Errorf("iter %d: recomputation differs", iter)
		}
		if len(nets(balances)) != len(group.Members) {
			t.Errorf("iter %d: expected one balance per member", iter)
		}
	}
}

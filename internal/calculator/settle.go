package calculator

import (
	"fmt"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/money"
)

// TieBreak decides which party wins when two creditors (or two debtors) have
// the same remaining balance.
type TieBreak string

const (
	// TieBreakInputOrder prefers the party listed first in the input.
	TieBreakInputOrder TieBreak = "input"
	// TieBreakUserID prefers the lexicographically smaller user ID.
	TieBreakUserID TieBreak = "user_id"
)

// ParseTieBreak validates a configured tie-break name. Empty means input order.
func ParseTieBreak(s string) (TieBreak, error) {
	switch TieBreak(s) {
	case "", TieBreakInputOrder:
		return TieBreakInputOrder, nil
	case TieBreakUserID:
		return TieBreakUserID, nil
	}
	return "", fmt.Errorf("unknown tie break %q (want %q or %q)", s, TieBreakInputOrder, TieBreakUserID)
}

// Planner turns net balances into suggested transfers.
type Planner struct {
	TieBreak TieBreak

	// Tolerance is how far, in minor units, the balances may sum away from
	// zero before planning is refused. Any residual within tolerance is left
	// unsettled.
	Tolerance money.Amount
}

// DefaultPlanner breaks ties by input order and requires an exact zero sum.
var DefaultPlanner = Planner{TieBreak: TieBreakInputOrder}

type party struct {
	member    models.Member
	remaining money.Amount // always positive
	order     int
}

// Plan suggests transfers that bring every balance to zero.
//
// Algorithm (greedy): repeatedly match the creditor with the largest remaining
// credit against the debtor with the largest remaining debt and move
// min(credit, debt) from debtor to creditor. Each step clears at least one
// party, so n non-zero parties need at most n-1 transfers. This is not always
// the minimum possible count, but it is deterministic.
func (p Planner) Plan(balances []models.NetBalance) ([]models.Settlement, error) {
	if total := Total(balances); total.Abs() > p.Tolerance {
		return nil, fmt.Errorf("%w: balances sum to %s, not zero", models.ErrInvariantViolation, total)
	}

	var creditors, debtors []*party
	for i, b := range balances {
		switch {
		case b.Net > 0:
			creditors = append(creditors, &party{member: b.User, remaining: b.Net, order: i})
		case b.Net < 0:
			debtors = append(debtors, &party{member: b.User, remaining: -b.Net, order: i})
		}
	}

	settlements := []models.Settlement{}
	for len(creditors) > 0 && len(debtors) > 0 {
		ci := p.largest(creditors)
		di := p.largest(debtors)
		creditor, debtor := creditors[ci], debtors[di]

		amount := min(creditor.remaining, debtor.remaining)
		settlements = append(settlements, models.Settlement{
			From:   debtor.member,
			To:     creditor.member,
			Amount: amount,
		})

		creditor.remaining -= amount
		debtor.remaining -= amount
		if creditor.remaining == 0 {
			creditors = remove(creditors, ci)
		}
		if debtor.remaining == 0 {
			debtors = remove(debtors, di)
		}
	}

	return settlements, nil
}

// largest returns the index of the party with the biggest remaining balance.
func (p Planner) largest(parties []*party) int {
	best := 0
	for i := 1; i < len(parties); i++ {
		if p.before(parties[i], parties[best]) {
			best = i
		}
	}
	return best
}

func (p Planner) before(a, b *party) bool {
	if a.remaining != b.remaining {
		return a.remaining > b.remaining
	}
	if p.TieBreak == TieBreakUserID && a.member.UserID != b.member.UserID {
		return a.member.UserID < b.member.UserID
	}
	return a.order < b.order
}

// remove deletes index i while keeping input order.
func remove(parties []*party, i int) []*party {
	return append(parties[:i], parties[i+1:]...)
}

// Apply replays settlements onto a copy of balances: the payer's net rises and
// the receiver's falls by the transferred amount. Settling a correct plan
// leaves every net at zero.
func Apply(balances []models.NetBalance, settlements []models.Settlement) ([]models.NetBalance, error) {
	out := make([]models.NetBalance, len(balances))
	copy(out, balances)

	index := make(map[string]int, len(out))
	for i, b := range out {
		index[b.User.UserID] = i
	}
	for _, s := range settlements {
		from, ok := index[s.From.UserID]
		if !ok {
			return nil, fmt.Errorf("%w: settlement from unknown member %q", models.ErrNotFound, s.From.UserID)
		}
		to, ok := index[s.To.UserID]
		if !ok {
			return nil, fmt.Errorf("%w: settlement to unknown member %q", models.ErrNotFound, s.To.UserID)
		}
		out[from].Net += s.Amount
		out[to].Net -= s.Amount
	}
	return out, nil
}

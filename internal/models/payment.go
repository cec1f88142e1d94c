package models

import "github.com/mmynk/settleup/internal/money"

// Payment is a recorded settlement: money handed from one member to another
// to clear debt.
type Payment struct {
	// ID is the unique identifier for the payment (UUID format).
	ID string

	// GroupID is the group this payment belongs to.
	GroupID string

	// FromUserID is the member who paid (debtor settling up).
	FromUserID string

	// ToUserID is the member who received payment (creditor being paid).
	ToUserID string

	// Amount is the payment amount.
	Amount money.Amount

	// Note is an optional description for the payment.
	Note string

	// SettledAt is the Unix timestamp when the payment was recorded.
	SettledAt int64

	// CreatedBy is the user ID who recorded this payment.
	CreatedBy string
}

// Entry converts the payment to a ledger entry: the sender is credited the
// full amount and the receiver carries it as their share.
func (p *Payment) Entry() ExpenseShare {
	return ExpenseShare{
		ID:      p.ID,
		GroupID: p.GroupID,
		Kind:    EntryPayment,
		PayerID: p.FromUserID,
		Participants: []Participant{
			{UserID: p.ToUserID, ShareAmount: p.Amount},
		},
	}
}

package models

import "github.com/mmynk/settleup/internal/money"

// Expense is a purchase paid by one member and shared by several.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	GroupID string

	// PayerID is the member who paid the full Amount.
	PayerID string

	// Amount is the total paid. Always equals the sum of Shares.
	Amount money.Amount

	Description string
	Category    string

	// SpentAt is the Unix timestamp of the purchase itself.
	SpentAt int64

	// Shares lists what each participant owes. The payer may appear here too.
	Shares []Share

	// CreatedBy is the user ID who logged the expense.
	CreatedBy string

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64
}

// Share is one participant's part of an expense.
type Share struct {
	UserID string
	Amount money.Amount

	// Weight is the split weight the share was derived from, or 0 when the
	// amount was entered directly.
	Weight int64
}

// Entry converts the expense to a ledger entry.
func (e *Expense) Entry() ExpenseShare {
	parts := make([]Participant, len(e.Shares))
	for i, s := range e.Shares {
		parts[i] = Participant{UserID: s.UserID, ShareAmount: s.Amount}
	}
	return ExpenseShare{
		ID:           e.ID,
		GroupID:      e.GroupID,
		Kind:         EntryExpense,
		PayerID:      e.PayerID,
		Participants: parts,
	}
}

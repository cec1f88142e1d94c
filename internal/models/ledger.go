package models

import "github.com/mmynk/settleup/internal/money"

// EntryKind tells where a ledger entry came from.
type EntryKind string

const (
	EntryExpense EntryKind = "expense"
	EntryPayment EntryKind = "payment"
)

// ExpenseShare is one ledger entry: who paid and how the amount splits.
type ExpenseShare struct {
	ID           string
	GroupID      string
	Kind         EntryKind
	PayerID      string
	Participants []Participant
}

// Participant is a user's share of a ledger entry.
type Participant struct {
	UserID      string
	ShareAmount money.Amount
}

// Total is the amount credited to the payer.
func (e ExpenseShare) Total() money.Amount {
	var total money.Amount
	for _, p := range e.Participants {
		total += p.ShareAmount
	}
	return total
}

// Ledger is a consistent snapshot of a group and its entries, read in a single
// storage transaction.
type Ledger struct {
	Group   *Group
	Entries []ExpenseShare
}

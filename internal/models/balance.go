package models

import "github.com/mmynk/settleup/internal/money"

// NetBalance is a member's position after netting the whole ledger.
// Positive: the group owes the member. Negative: the member owes the group.
type NetBalance struct {
	User Member
	Net  money.Amount
}

// Settlement is one suggested transfer that reduces outstanding group debt.
type Settlement struct {
	From   Member
	To     Member
	Amount money.Amount
}

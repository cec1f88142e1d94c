// Package api defines the JSON messages exchanged over the REST and Connect
// endpoints. Amounts are money.Amount values, serialized as plain numbers in
// major currency units.
package api

import (
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/money"
)

// List wraps collection responses.
type List[T any] struct {
	Items []T `json:"items"`
}

// NewList never returns a nil Items slice, so empty collections encode as [].
func NewList[T any](items []T) List[T] {
	if items == nil {
		items = []T{}
	}
	return List[T]{Items: items}
}

type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt int64  `json:"createdAt"`
}

type Member struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

type Group struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	CreatedBy   string   `json:"createdBy"`
	Members     []Member `json:"members"`
	CreatedAt   int64    `json:"createdAt"`
}

type Share struct {
	UserID string       `json:"userId"`
	Amount money.Amount `json:"amount"`
	Weight int64        `json:"weight,omitempty"`
}

type Expense struct {
	ID          string       `json:"id"`
	GroupID     string       `json:"groupId"`
	PayerID     string       `json:"payerId"`
	Amount      money.Amount `json:"amount"`
	Description string       `json:"description"`
	Category    string       `json:"category,omitempty"`
	SpentAt     int64        `json:"spentAt"`
	Shares      []Share      `json:"shares"`
	CreatedBy   string       `json:"createdBy"`
	CreatedAt   int64        `json:"createdAt"`
}

type Payment struct {
	ID         string       `json:"id"`
	GroupID    string       `json:"groupId"`
	FromUserID string       `json:"fromUserId"`
	ToUserID   string       `json:"toUserId"`
	Amount     money.Amount `json:"amount"`
	Note       string       `json:"note,omitempty"`
	SettledAt  int64        `json:"settledAt"`
	CreatedBy  string       `json:"createdBy"`
}

type NetBalance struct {
	User Member       `json:"user"`
	Net  money.Amount `json:"net"`
}

type Settlement struct {
	From   Member       `json:"from"`
	To     Member       `json:"to"`
	Amount money.Amount `json:"amount"`
}

// Balances is the payload of GET /api/groups/{id}/balances.
type Balances struct {
	Net         []NetBalance `json:"net"`
	Suggestions []Settlement `json:"suggestions"`
}

// Requests

type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type MeRequest struct{}

type MeResponse struct {
	User User `json:"user"`
}

type CreateGroupRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Members     []Member `json:"members"`
}

type ListGroupsRequest struct{}

// GroupRequest addresses a single group in RPC calls; REST takes the ID from
// the path.
type GroupRequest struct {
	GroupID string `json:"groupId"`
}

// AddMemberRequest names a member either by userId (with name and email) or
// by the email of a registered user.
type AddMemberRequest struct {
	GroupID string `json:"groupId,omitempty"`
	UserID  string `json:"userId"`
	Name    string `json:"name"`
	Email   string `json:"email"`
}

type RemoveMemberRequest struct {
	GroupID string `json:"groupId"`
	UserID  string `json:"userId"`
}

type RemoveMemberResponse struct{}

// SplitWeight assigns a relative weight to one participant.
type SplitWeight struct {
	UserID string `json:"userId"`
	Weight int64  `json:"weight"`
}

// ShareAmount assigns an exact amount to one participant.
type ShareAmount struct {
	UserID string       `json:"userId"`
	Amount money.Amount `json:"amount"`
}

// LogExpenseRequest accepts either explicit Shares or weighted Splits; with
// neither, the amount is split equally across all members. PayerID defaults
// to the caller.
type LogExpenseRequest struct {
	GroupID     string        `json:"groupId,omitempty"`
	PayerID     string        `json:"payerId"`
	Amount      money.Amount  `json:"amount"`
	Description string        `json:"description"`
	Category    string        `json:"category"`
	SpentAt     int64         `json:"spentAt"`
	Shares      []ShareAmount `json:"shares"`
	Splits      []SplitWeight `json:"splits"`
}

// RecordPaymentRequest records money handed from one member to another.
// FromUserID defaults to the caller.
type RecordPaymentRequest struct {
	GroupID    string       `json:"groupId,omitempty"`
	FromUserID string       `json:"fromUserId"`
	ToUserID   string       `json:"toUserId"`
	Amount     money.Amount `json:"amount"`
	Note       string       `json:"note"`
	SettledAt  int64        `json:"settledAt"`
}

type Health struct {
	OK bool `json:"ok"`
}

// Error is the body of every non-2xx REST response.
type Error struct {
	Error string `json:"error"`
}

// Conversions from domain models.

func FromUser(u *models.User) User {
	return User{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt}
}

func FromMember(m models.Member) Member {
	return Member{UserID: m.UserID, Name: m.Name, Email: m.Email}
}

func FromMembers(ms []models.Member) []Member {
	out := make([]Member, len(ms))
	for i, m := range ms {
		out[i] = FromMember(m)
	}
	return out
}

func FromGroup(g *models.Group) Group {
	return Group{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		CreatedBy:   g.CreatedBy,
		Members:     FromMembers(g.Members),
		CreatedAt:   g.CreatedAt,
	}
}

func FromGroups(gs []*models.Group) []Group {
	out := make([]Group, len(gs))
	for i, g := range gs {
		out[i] = FromGroup(g)
	}
	return out
}

func FromExpense(e *models.Expense) Expense {
	shares := make([]Share, len(e.Shares))
	for i, s := range e.Shares {
		shares[i] = Share{UserID: s.UserID, Amount: s.Amount, Weight: s.Weight}
	}
	return Expense{
		ID:          e.ID,
		GroupID:     e.GroupID,
		PayerID:     e.PayerID,
		Amount:      e.Amount,
		Description: e.Description,
		Category:    e.Category,
		SpentAt:     e.SpentAt,
		Shares:      shares,
		CreatedBy:   e.CreatedBy,
		CreatedAt:   e.CreatedAt,
	}
}

func FromExpenses(es []*models.Expense) []Expense {
	out := make([]Expense, len(es))
	for i, e := range es {
		out[i] = FromExpense(e)
	}
	return out
}

func FromPayment(p *models.Payment) Payment {
	return Payment{
		ID:         p.ID,
		GroupID:    p.GroupID,
		FromUserID: p.FromUserID,
		ToUserID:   p.ToUserID,
		Amount:     p.Amount,
		Note:       p.Note,
		SettledAt:  p.SettledAt,
		CreatedBy:  p.CreatedBy,
	}
}

func FromPayments(ps []*models.Payment) []Payment {
	out := make([]Payment, len(ps))
	for i, p := range ps {
		out[i] = FromPayment(p)
	}
	return out
}

// FromBalances converts computed balances and suggestions. Both slices are
// always non-nil in the result.
func FromBalances(net []models.NetBalance, suggestions []models.Settlement) Balances {
	out := Balances{
		Net:         make([]NetBalance, len(net)),
		Suggestions: make([]Settlement, len(suggestions)),
	}
	for i, b := range net {
		out.Net[i] = NetBalance{User: FromMember(b.User), Net: b.Net}
	}
	for i, s := range suggestions {
		out.Suggestions[i] = Settlement{From: FromMember(s.From), To: FromMember(s.To), Amount: s.Amount}
	}
	return out
}

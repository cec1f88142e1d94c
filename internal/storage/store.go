// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/mmynk/settleup/internal/models"
)

// LedgerReader is the read side the balance computation depends on.
// Reads must reflect every committed write; implementations do not cache.
type LedgerReader interface {
	// GetGroup retrieves a group with its members in join order.
	// Returns an error wrapping models.ErrNotFound if the group does not exist.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListExpenseShares returns every ledger entry of the group (expenses and
	// recorded payments) in recording order.
	ListExpenseShares(ctx context.Context, groupID string) ([]models.ExpenseShare, error)

	// ReadLedger returns the group and its entries read in one transaction,
	// so both halves describe the same moment.
	ReadLedger(ctx context.Context, groupID string) (*models.Ledger, error)
}

// GroupStore persists groups and their member lists.
type GroupStore interface {
	// CreateGroup persists a new group and its initial members.
	// The group.ID and CreatedAt fields are populated by the store when empty.
	CreateGroup(ctx context.Context, group *models.Group) error

	// ListGroupsForUser returns groups the user created or belongs to,
	// newest first.
	ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error)

	// AddGroupMember appends a member. Returns models.ErrConflict if the user
	// is already a member and models.ErrNotFound if the group does not exist.
	AddGroupMember(ctx context.Context, groupID string, member models.Member) error

	// RemoveGroupMember deletes a member. Returns models.ErrConflict if the
	// member appears in any ledger entry, models.ErrNotFound if not a member.
	RemoveGroupMember(ctx context.Context, groupID, userID string) error
}

// LedgerStore persists ledger writes.
type LedgerStore interface {
	// CreateExpense persists an expense with its shares.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// ListExpenses returns the group's expenses, newest first.
	ListExpenses(ctx context.Context, groupID string) ([]*models.Expense, error)

	// CreatePayment persists a recorded settlement payment.
	CreatePayment(ctx context.Context, payment *models.Payment) error

	// ListPayments returns the group's payments, newest first.
	ListPayments(ctx context.Context, groupID string) ([]*models.Payment, error)
}

// UserStore persists registered accounts.
type UserStore interface {
	// CreateUser inserts a user. Returns models.ErrConflict if the email is taken.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail returns models.ErrNotFound when no account uses the email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID returns models.ErrNotFound when the account does not exist.
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// Store defines every storage operation the service layer needs.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the service layer.
type Store interface {
	LedgerReader
	GroupStore
	LedgerStore
	UserStore

	// Close releases any resources held by the store.
	Close() error
}

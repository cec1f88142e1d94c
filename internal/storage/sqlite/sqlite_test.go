package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/money"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newGroup(t *testing.T, store *SQLiteStore, ids ...string) *models.Group {
	t.Helper()
	g := &models.Group{Name: "Trip", CreatedBy: "alice"}
	for _, id := range ids {
		g.Members = append(g.Members, models.Member{UserID: id, Name: id, Email: id + "@example.com"})
	}
	require.NoError(t, store.CreateGroup(context.Background(), g))
	return g
}

func TestSQLiteStore_Groups(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateGroup generates ID and keeps member order", func(t *testing.T) {
		g := newGroup(t, store, "carol", "alice", "bob")
		assert.NotEmpty(t, g.ID)
		assert.NotZero(t, g.CreatedAt)

		got, err := store.GetGroup(ctx, g.ID)
		require.NoError(t, err)
		assert.Equal(t, "Trip", got.Name)
		require.Len(t, got.Members, 3)
		assert.Equal(t, []string{"carol", "alice", "bob"},
			[]string{got.Members[0].UserID, got.Members[1].UserID, got.Members[2].UserID})
	})

	t.Run("GetGroup on missing ID returns ErrNotFound", func(t *testing.T) {
		_, err := store.GetGroup(ctx, "missing")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("AddGroupMember appends and rejects duplicates", func(t *testing.T) {
		g := newGroup(t, store, "alice")
		require.NoError(t, store.AddGroupMember(ctx, g.ID, models.Member{UserID: "dave", Name: "Dave"}))

		err := store.AddGroupMember(ctx, g.ID, models.Member{UserID: "dave", Name: "Dave"})
		assert.ErrorIs(t, err, models.ErrConflict)

		err = store.AddGroupMember(ctx, "missing", models.Member{UserID: "dave"})
		assert.ErrorIs(t, err, models.ErrNotFound)

		got, err := store.GetGroup(ctx, g.ID)
		require.NoError(t, err)
		require.Len(t, got.Members, 2)
		assert.Equal(t, "dave", got.Members[1].UserID)
	})

	t.Run("RemoveGroupMember is blocked by ledger entries", func(t *testing.T) {
		g := newGroup(t, store, "alice", "bob", "erin")
		require.NoError(t, store.CreateExpense(ctx, &models.Expense{
			GroupID: g.ID, PayerID: "alice", Amount: 1000, Description: "Taxi",
			Shares: []models.Share{{UserID: "alice", Amount: 500}, {UserID: "bob", Amount: 500}},
		}))

		assert.ErrorIs(t, store.RemoveGroupMember(ctx, g.ID, "bob"), models.ErrConflict)
		assert.ErrorIs(t, store.RemoveGroupMember(ctx, g.ID, "nobody"), models.ErrNotFound)
		require.NoError(t, store.RemoveGroupMember(ctx, g.ID, "erin"))

		got, err := store.GetGroup(ctx, g.ID)
		require.NoError(t, err)
		assert.False(t, got.HasMember("erin"))
	})

	t.Run("ListGroupsForUser includes created and joined groups", func(t *testing.T) {
		own := &models.Group{Name: "Mine", CreatedBy: "zed"}
		require.NoError(t, store.CreateGroup(ctx, own))
		joined := newGroup(t, store, "zed")
		newGroup(t, store, "someone-else")

		groups, err := store.ListGroupsForUser(ctx, "zed")
		require.NoError(t, err)
		ids := make([]string, len(groups))
		for i, g := range groups {
			ids[i] = g.ID
		}
		assert.ElementsMatch(t, []string{own.ID, joined.ID}, ids)
	})
}

func TestSQLiteStore_Ledger(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	g := newGroup(t, store, "alice", "bob", "carol")

	expense := &models.Expense{
		GroupID:     g.ID,
		PayerID:     "alice",
		Amount:      30000,
		Description: "Dinner",
		Category:    "food",
		CreatedBy:   "alice",
		CreatedAt:   100,
		Shares: []models.Share{
			{UserID: "alice", Amount: 10000, Weight: 1},
			{UserID: "bob", Amount: 10000, Weight: 1},
			{UserID: "carol", Amount: 10000, Weight: 1},
		},
	}
	require.NoError(t, store.CreateExpense(ctx, expense))
	assert.NotEmpty(t, expense.ID)
	assert.Equal(t, int64(100), expense.SpentAt)

	payment := &models.Payment{
		GroupID: g.ID, FromUserID: "bob", ToUserID: "alice",
		Amount: 10000, Note: "cash", SettledAt: 200, CreatedBy: "bob",
	}
	require.NoError(t, store.CreatePayment(ctx, payment))

	later := &models.Expense{
		GroupID: g.ID, PayerID: "carol", Amount: 500, Description: "Coffee", CreatedAt: 300,
		Shares: []models.Share{{UserID: "alice", Amount: 500}},
	}
	require.NoError(t, store.CreateExpense(ctx, later))

	t.Run("ListExpenses is newest first with shares", func(t *testing.T) {
		expenses, err := store.ListExpenses(ctx, g.ID)
		require.NoError(t, err)
		require.Len(t, expenses, 2)
		assert.Equal(t, later.ID, expenses[0].ID)
		assert.Equal(t, expense.Shares, expenses[1].Shares)
		assert.Equal(t, money.Amount(30000), expenses[1].Amount)
	})

	t.Run("ListPayments", func(t *testing.T) {
		payments, err := store.ListPayments(ctx, g.ID)
		require.NoError(t, err)
		require.Len(t, payments, 1)
		assert.Equal(t, *payment, *payments[0])
	})

	t.Run("ListExpenseShares merges entries in recording order", func(t *testing.T) {
		entries, err := store.ListExpenseShares(ctx, g.ID)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, []string{expense.ID, payment.ID, later.ID},
			[]string{entries[0].ID, entries[1].ID, entries[2].ID})
		assert.Equal(t, models.EntryPayment, entries[1].Kind)
		assert.Equal(t, "bob", entries[1].PayerID)
		assert.Equal(t, money.Amount(10000), entries[1].Total())
	})

	t.Run("ReadLedger returns group and entries together", func(t *testing.T) {
		ledger, err := store.ReadLedger(ctx, g.ID)
		require.NoError(t, err)
		assert.Equal(t, g.ID, ledger.Group.ID)
		assert.Len(t, ledger.Group.Members, 3)
		assert.Len(t, ledger.Entries, 3)
	})

	t.Run("ReadLedger on an empty group has no entries", func(t *testing.T) {
		empty := newGroup(t, store)
		ledger, err := store.ReadLedger(ctx, empty.ID)
		require.NoError(t, err)
		assert.Empty(t, ledger.Group.Members)
		assert.Empty(t, ledger.Entries)
	})

	t.Run("ReadLedger on missing group", func(t *testing.T) {
		_, err := store.ReadLedger(ctx, "missing")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("duplicate share is a validation error", func(t *testing.T) {
		err := store.CreateExpense(ctx, &models.Expense{
			GroupID: g.ID, PayerID: "alice", Amount: 200, Description: "Dup",
			Shares: []models.Share{{UserID: "bob", Amount: 100}, {UserID: "bob", Amount: 100}},
		})
		assert.ErrorIs(t, err, models.ErrValidation)
	})

	t.Run("entries naming a non-member conflict", func(t *testing.T) {
		err := store.CreateExpense(ctx, &models.Expense{
			GroupID: g.ID, PayerID: "alice", Amount: 200, Description: "Stray share",
			Shares: []models.Share{{UserID: "alice", Amount: 100}, {UserID: "mallory", Amount: 100}},
		})
		assert.ErrorIs(t, err, models.ErrConflict)

		err = store.CreateExpense(ctx, &models.Expense{
			GroupID: g.ID, PayerID: "mallory", Amount: 200, Description: "Stray payer",
			Shares: []models.Share{{UserID: "alice", Amount: 200}},
		})
		assert.ErrorIs(t, err, models.ErrConflict)

		err = store.CreatePayment(ctx, &models.Payment{
			GroupID: g.ID, FromUserID: "alice", ToUserID: "mallory", Amount: 100, CreatedBy: "alice",
		})
		assert.ErrorIs(t, err, models.ErrConflict)

		expenses, err := store.ListExpenses(ctx, g.ID)
		require.NoError(t, err)
		assert.Len(t, expenses, 2)
	})

	t.Run("member with entries cannot be deleted underneath them", func(t *testing.T) {
		_, err := store.db.ExecContext(ctx,
			`DELETE FROM group_members WHERE group_id = ? AND user_id = ?`, g.ID, "carol")
		assert.True(t, isForeignKeyViolation(err), "got %v", err)
	})
}

func TestSQLiteStore_Users(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := models.NewUser(" Alice@Example.com ", "Alice", "hash")
	require.NoError(t, store.CreateUser(ctx, user))

	got, err := store.GetUserByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "alice@example.com", got.Email)

	got, err = store.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)

	_, err = store.GetUserByID(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)

	dup := models.NewUser("alice@example.com", "Other", "hash")
	assert.ErrorIs(t, store.CreateUser(ctx, dup), models.ErrConflict)
}

package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/money"
	"github.com/mmynk/settleup/internal/storage"
)

// CreateExpense inserts an expense and its shares in one transaction.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}
	if expense.SpentAt == 0 {
		expense.SpentAt = expense.CreatedAt
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO expenses (id, group_id, payer_id, amount_minor, description, category, spent_at, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, expense.ID, expense.GroupID, expense.PayerID, int64(expense.Amount),
		expense.Description, expense.Category, expense.SpentAt, expense.CreatedBy, expense.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("expense %s: %w", expense.ID, models.ErrConflict)
	}
	if isForeignKeyViolation(err) {
		return fmt.Errorf("payer %s is not a member of group %s: %w", expense.PayerID, expense.GroupID, models.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for i, share := range expense.Shares {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO expense_shares (expense_id, group_id, user_id, amount_minor, weight, position)
			VALUES (?, ?, ?, ?, ?, ?)
		`, expense.ID, expense.GroupID, share.UserID, int64(share.Amount), share.Weight, i)
		if isUniqueViolation(err) {
			return fmt.Errorf("duplicate share for %s: %w", share.UserID, models.ErrValidation)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("participant %s is not a member of group %s: %w", share.UserID, expense.GroupID, models.ErrConflict)
		}
		if err != nil {
			return fmt.Errorf("failed to insert share: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListExpenses returns the group's expenses, newest first.
func (s *SQLiteStore) ListExpenses(ctx context.Context, groupID string) ([]*models.Expense, error) {
	return listExpenses(ctx, s.db, groupID, "DESC")
}

func listExpenses(ctx context.Context, q querier, groupID, order string) ([]*models.Expense, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, group_id, payer_id, amount_minor, description, category, spent_at, created_by, created_at
		FROM expenses
		WHERE group_id = ?
		ORDER BY created_at `+order+`, id `+order, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}

	expenses := []*models.Expense{}
	byID := make(map[string]*models.Expense)
	for rows.Next() {
		e := &models.Expense{}
		var amount int64
		if err := rows.Scan(&e.ID, &e.GroupID, &e.PayerID, &amount, &e.Description,
			&e.Category, &e.SpentAt, &e.CreatedBy, &e.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		e.Amount = money.Amount(amount)
		expenses = append(expenses, e)
		byID[e.ID] = e
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expenses: %w", err)
	}
	if len(expenses) == 0 {
		return expenses, nil
	}

	shareRows, err := q.QueryContext(ctx, `
		SELECT es.expense_id, es.user_id, es.amount_minor, es.weight
		FROM expense_shares es
		JOIN expenses e ON e.id = es.expense_id
		WHERE e.group_id = ?
		ORDER BY es.expense_id, es.position
	`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query shares: %w", err)
	}
	defer shareRows.Close()

	for shareRows.Next() {
		var (
			expenseID string
			share     models.Share
			amount    int64
		)
		if err := shareRows.Scan(&expenseID, &share.UserID, &amount, &share.Weight); err != nil {
			return nil, fmt.Errorf("failed to scan share: %w", err)
		}
		share.Amount = money.Amount(amount)
		if e, ok := byID[expenseID]; ok {
			e.Shares = append(e.Shares, share)
		}
	}
	if err := shareRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shares: %w", err)
	}
	return expenses, nil
}

// CreatePayment inserts a recorded settlement payment.
func (s *SQLiteStore) CreatePayment(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	if payment.SettledAt == 0 {
		payment.SettledAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payments (id, group_id, from_user_id, to_user_id, amount_minor, note, settled_at, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, payment.ID, payment.GroupID, payment.FromUserID, payment.ToUserID,
		int64(payment.Amount), payment.Note, payment.SettledAt, payment.CreatedBy)
	if isUniqueViolation(err) {
		return fmt.Errorf("payment %s: %w", payment.ID, models.ErrConflict)
	}
	if isForeignKeyViolation(err) {
		return fmt.Errorf("payment parties must be members of group %s: %w", payment.GroupID, models.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

// ListPayments returns the group's payments, newest first.
func (s *SQLiteStore) ListPayments(ctx context.Context, groupID string) ([]*models.Payment, error) {
	return listPayments(ctx, s.db, groupID, "DESC")
}

func listPayments(ctx context.Context, q querier, groupID, order string) ([]*models.Payment, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, group_id, from_user_id, to_user_id, amount_minor, note, settled_at, created_by
		FROM payments
		WHERE group_id = ?
		ORDER BY settled_at `+order+`, id `+order, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	payments := []*models.Payment{}
	for rows.Next() {
		p := &models.Payment{}
		var amount int64
		if err := rows.Scan(&p.ID, &p.GroupID, &p.FromUserID, &p.ToUserID, &amount,
			&p.Note, &p.SettledAt, &p.CreatedBy); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		p.Amount = money.Amount(amount)
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payments: %w", err)
	}
	return payments, nil
}

// ListExpenseShares returns the group's expenses and payments as ledger
// entries in recording order.
func (s *SQLiteStore) ListExpenseShares(ctx context.Context, groupID string) ([]models.ExpenseShare, error) {
	return listEntries(ctx, s.db, groupID)
}

func listEntries(ctx context.Context, q querier, groupID string) ([]models.ExpenseShare, error) {
	expenses, err := listExpenses(ctx, q, groupID, "ASC")
	if err != nil {
		return nil, err
	}
	payments, err := listPayments(ctx, q, groupID, "ASC")
	if err != nil {
		return nil, err
	}
	return storage.MergeEntries(expenses, payments), nil
}

// ReadLedger reads the group and its entries inside one transaction.
func (s *SQLiteStore) ReadLedger(ctx context.Context, groupID string) (*models.Ledger, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	group, err := getGroup(ctx, tx, groupID)
	if err != nil {
		return nil, err
	}
	entries, err := listEntries(ctx, tx, groupID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &models.Ledger{Group: group, Entries: entries}, nil
}

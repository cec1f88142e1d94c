package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/money"
	"github.com/mmynk/settleup/internal/storage"
)

func (s *Store) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}
	if expense.SpentAt == 0 {
		expense.SpentAt = expense.CreatedAt
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO expenses (id, group_id, payer_id, amount_minor, description, category, spent_at, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, expense.ID, expense.GroupID, expense.PayerID, int64(expense.Amount),
		expense.Description, expense.Category, expense.SpentAt, expense.CreatedBy, expense.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("expense %s: %w", expense.ID, models.ErrConflict)
	}
	if isForeignKeyViolation(err) {
		return fmt.Errorf("payer %s is not a member of group %s: %w", expense.PayerID, expense.GroupID, models.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}

	batch := &pgx.Batch{}
	for i, share := range expense.Shares {
		batch.Queue(`
			INSERT INTO expense_shares (expense_id, group_id, user_id, amount_minor, weight, position)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, expense.ID, expense.GroupID, share.UserID, int64(share.Amount), share.Weight, i)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("duplicate share: %w", models.ErrValidation)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("participant is not a member of group %s: %w", expense.GroupID, models.ErrConflict)
		}
		return fmt.Errorf("insert shares: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit expense: %w", err)
	}
	return nil
}

func (s *Store) ListExpenses(ctx context.Context, groupID string) ([]*models.Expense, error) {
	return listExpenses(ctx, s.pool, groupID, "DESC")
}

func listExpenses(ctx context.Context, q querier, groupID, order string) ([]*models.Expense, error) {
	rows, err := q.Query(ctx, `
		SELECT id, group_id, payer_id, amount_minor, description, category, spent_at, created_by, created_at
		FROM expenses
		WHERE group_id = $1
		ORDER BY created_at `+order+`, id `+order, groupID)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	expenses, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Expense, error) {
		e := &models.Expense{}
		var amount int64
		err := row.Scan(&e.ID, &e.GroupID, &e.PayerID, &amount, &e.Description,
			&e.Category, &e.SpentAt, &e.CreatedBy, &e.CreatedAt)
		e.Amount = money.Amount(amount)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan expenses: %w", err)
	}
	if len(expenses) == 0 {
		return expenses, nil
	}

	byID := make(map[string]*models.Expense, len(expenses))
	for _, e := range expenses {
		byID[e.ID] = e
	}

	shareRows, err := q.Query(ctx, `
		SELECT es.expense_id, es.user_id, es.amount_minor, es.weight
		FROM expense_shares es
		JOIN expenses e ON e.id = es.expense_id
		WHERE e.group_id = $1
		ORDER BY es.expense_id, es.position
	`, groupID)
	if err != nil {
		return nil, fmt.Errorf("query shares: %w", err)
	}
	defer shareRows.Close()

	for shareRows.Next() {
		var (
			expenseID string
			share     models.Share
			amount    int64
		)
		if err := shareRows.Scan(&expenseID, &share.UserID, &amount, &share.Weight); err != nil {
			return nil, fmt.Errorf("scan share: %w", err)
		}
		share.Amount = money.Amount(amount)
		if e, ok := byID[expenseID]; ok {
			e.Shares = append(e.Shares, share)
		}
	}
	if err := shareRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shares: %w", err)
	}
	return expenses, nil
}

func (s *Store) CreatePayment(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	if payment.SettledAt == 0 {
		payment.SettledAt = time.Now().Unix()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO payments (id, group_id, from_user_id, to_user_id, amount_minor, note, settled_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, payment.ID, payment.GroupID, payment.FromUserID, payment.ToUserID,
		int64(payment.Amount), payment.Note, payment.SettledAt, payment.CreatedBy)
	if isUniqueViolation(err) {
		return fmt.Errorf("payment %s: %w", payment.ID, models.ErrConflict)
	}
	if isForeignKeyViolation(err) {
		return fmt.Errorf("payment parties must be members of group %s: %w", payment.GroupID, models.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (s *Store) ListPayments(ctx context.Context, groupID string) ([]*models.Payment, error) {
	return listPayments(ctx, s.pool, groupID, "DESC")
}

func listPayments(ctx context.Context, q querier, groupID, order string) ([]*models.Payment, error) {
	rows, err := q.Query(ctx, `
		SELECT id, group_id, from_user_id, to_user_id, amount_minor, note, settled_at, created_by
		FROM payments
		WHERE group_id = $1
		ORDER BY settled_at `+order+`, id `+order, groupID)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	payments, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Payment, error) {
		p := &models.Payment{}
		var amount int64
		err := row.Scan(&p.ID, &p.GroupID, &p.FromUserID, &p.ToUserID, &amount,
			&p.Note, &p.SettledAt, &p.CreatedBy)
		p.Amount = money.Amount(amount)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan payments: %w", err)
	}
	return payments, nil
}

func (s *Store) ListExpenseShares(ctx context.Context, groupID string) ([]models.ExpenseShare, error) {
	return listEntries(ctx, s.pool, groupID)
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

// ReadLedger reads the group and its entries from one repeatable-read
// snapshot.
func (s *Store) ReadLedger(ctx context.Context, groupID string) (*models.Ledger, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	group, err := getGroup(ctx, tx, groupID)
	if err != nil {
		return nil, err
	}
	entries, err := listEntries(ctx, tx, groupID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit ledger read: %w", err)
	}
	return &models.Ledger{Group: group, Entries: entries}, nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmynk/settleup/internal/models"
)

func (s *Store) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO groups (id, name, description, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, group.ID, group.Name, group.Description, group.CreatedBy, group.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("group %s: %w", group.ID, models.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert group: %w", err)
	}

	batch := &pgx.Batch{}
	for i, m := range group.Members {
		batch.Queue(`
			INSERT INTO group_members (group_id, user_id, name, email, position, joined_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, group.ID, m.UserID, m.Name, m.Email, i, group.CreatedAt)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("duplicate member: %w", models.ErrConflict)
		}
		return fmt.Errorf("insert members: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit group: %w", err)
	}
	return nil
}

func (s *Store) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	return getGroup(ctx, s.pool, groupID)
}

func getGroup(ctx context.Context, q querier, groupID string) (*models.Group, error) {
	group := &models.Group{}
	err := q.QueryRow(ctx, `
		SELECT id, name, description, created_by, created_at
		FROM groups WHERE id = $1
	`, groupID).Scan(&group.ID, &group.Name, &group.Description, &group.CreatedBy, &group.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("group %s: %w", groupID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}

	rows, err := q.Query(ctx, `
		SELECT user_id, name, email
		FROM group_members
		WHERE group_id = $1
		ORDER BY position
	`, groupID)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	members, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Member, error) {
		var m models.Member
		err := row.Scan(&m.UserID, &m.Name, &m.Email)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan members: %w", err)
	}
	group.Members = members
	return group, nil
}

func (s *Store) ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id
		FROM groups
		WHERE created_by = $1
		   OR id IN (SELECT group_id FROM group_members WHERE user_id = $1)
		ORDER BY created_at DESC, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan group ids: %w", err)
	}

	groups := make([]*models.Group, 0, len(ids))
	for _, id := range ids {
		g, err := s.GetGroup(ctx, id)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, nil
}

func (s *Store) AddGroupMember(ctx context.Context, groupID string, member models.Member) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock the group row so concurrent adds get distinct positions.
	var next int
	err = tx.QueryRow(ctx, `
		SELECT COALESCE((SELECT MAX(position) + 1 FROM group_members WHERE group_id = g.id), 0)
		FROM groups g
		WHERE g.id = $1
		FOR UPDATE
	`, groupID).Scan(&next)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("group %s: %w", groupID, models.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("read member position: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO group_members (group_id, user_id, name, email, position, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, groupID, member.UserID, member.Name, member.Email, next, time.Now().Unix())
	if isUniqueViolation(err) {
		return fmt.Errorf("user %s is already a member: %w", member.UserID, models.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert member: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit member: %w", err)
	}
	return nil
}

func (s *Store) RemoveGroupMember(ctx context.Context, groupID, userID string) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var referenced bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM expenses WHERE group_id = $1 AND payer_id = $2)
		    OR EXISTS (
		        SELECT 1 FROM expense_shares
		        WHERE group_id = $1 AND user_id = $2)
		    OR EXISTS (
		        SELECT 1 FROM payments
		        WHERE group_id = $1 AND (from_user_id = $2 OR to_user_id = $2))
	`, groupID, userID).Scan(&referenced)
	if err != nil {
		return fmt.Errorf("check member entries: %w", err)
	}
	if referenced {
		return fmt.Errorf("member %s has ledger entries: %w", userID, models.ErrConflict)
	}

	tag, err := tx.Exec(ctx,
		`DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`, groupID, userID)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("member %s has ledger entries: %w", userID, models.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("member %s of group %s: %w", userID, groupID, models.ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit member removal: %w", err)
	}
	return nil
}

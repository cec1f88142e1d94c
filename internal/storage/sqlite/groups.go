package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/settleup/internal/models"
)

// CreateGroup inserts a new group with its members.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO groups (id, name, description, created_by, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, group.ID, group.Name, group.Description, group.CreatedBy, group.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("group %s: %w", group.ID, models.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}

	for i, m := range group.Members {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO group_members (group_id, user_id, name, email, position, joined_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, group.ID, m.UserID, m.Name, m.Email, i, group.CreatedAt)
		if isUniqueViolation(err) {
			return fmt.Errorf("duplicate member %s: %w", m.UserID, models.ErrConflict)
		}
		if err != nil {
			return fmt.Errorf("failed to insert member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetGroup retrieves a group by ID with its members in join order.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	return getGroup(ctx, s.db, groupID)
}

func getGroup(ctx context.Context, q querier, groupID string) (*models.Group, error) {
	group := &models.Group{}
	err := q.QueryRowContext(ctx, `
		SELECT id, name, description, created_by, created_at
		FROM groups
		WHERE id = ?
	`, groupID).Scan(&group.ID, &group.Name, &group.Description, &group.CreatedBy, &group.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("group %s: %w", groupID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	members, err := listMembers(ctx, q, groupID)
	if err != nil {
		return nil, err
	}
	group.Members = members
	return group, nil
}

func listMembers(ctx context.Context, q querier, groupID string) ([]models.Member, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT user_id, name, email
		FROM group_members
		WHERE group_id = ?
		ORDER BY position
	`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	members := []models.Member{}
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.UserID, &m.Name, &m.Email); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating members: %w", err)
	}
	return members, nil
}

// ListGroupsForUser returns groups the user created or belongs to, newest first.
func (s *SQLiteStore) ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id
		FROM groups
		WHERE created_by = ?
		   OR id IN (SELECT group_id FROM group_members WHERE user_id = ?)
		ORDER BY created_at DESC, id
	`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan group id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating groups: %w", err)
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

// AddGroupMember appends a member at the end of the group's member list.
func (s *SQLiteStore) AddGroupMember(ctx context.Context, groupID string, member models.Member) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var next int
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE((SELECT MAX(position) + 1 FROM group_members WHERE group_id = g.id), 0)
		FROM groups g
		WHERE g.id = ?
	`, groupID).Scan(&next)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("group %s: %w", groupID, models.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to read member position: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO group_members (group_id, user_id, name, email, position, joined_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, groupID, member.UserID, member.Name, member.Email, next, time.Now().Unix())
	if isUniqueViolation(err) {
		return fmt.Errorf("user %s is already a member: %w", member.UserID, models.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to insert member: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RemoveGroupMember deletes a member that has no ledger entries.
func (s *SQLiteStore) RemoveGroupMember(ctx context.Context, groupID, userID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var referenced bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM expenses WHERE group_id = ?1 AND payer_id = ?2)
		    OR EXISTS (
		        SELECT 1 FROM expense_shares
		        WHERE group_id = ?1 AND user_id = ?2)
		    OR EXISTS (
		        SELECT 1 FROM payments
		        WHERE group_id = ?1 AND (from_user_id = ?2 OR to_user_id = ?2))
	`, groupID, userID).Scan(&referenced)
	if err != nil {
		return fmt.Errorf("failed to check member entries: %w", err)
	}
	if referenced {
		return fmt.Errorf("member %s has ledger entries: %w", userID, models.ErrConflict)
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id = ? AND user_id = ?`, groupID, userID)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("member %s has ledger entries: %w", userID, models.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("member %s of group %s: %w", userID, groupID, models.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

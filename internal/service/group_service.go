// Package service holds the transport-independent operations behind the REST
// and Connect endpoints. Every method takes the caller's auth.Session
// explicitly and returns errors wrapping the models sentinels.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/events"
	"github.com/mmynk/settleup/internal/metrics"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
	"github.com/mmynk/settleup/pkg/api"
)

// GroupService manages groups, their members and their ledgers.
type GroupService struct {
	store   storage.Store
	planner calculator.Planner
	events  events.Publisher
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewGroupService creates a new GroupService. A nil publisher discards
// events and a nil metrics set records nothing.
func NewGroupService(store storage.Store, planner calculator.Planner, publisher events.Publisher, m *metrics.Metrics, logger *slog.Logger) *GroupService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GroupService{
		store:   store,
		planner: planner,
		events:  publisher,
		metrics: m,
		logger:  logger,
	}
}

// validateGroupID rejects IDs that are not UUIDs before they reach storage.
func validateGroupID(groupID string) error {
	if _, err := uuid.Parse(groupID); err != nil {
		return fmt.Errorf("malformed group id %q: %w", groupID, models.ErrValidation)
	}
	return nil
}

// readableGroup loads a group the caller may access.
func (s *GroupService) readableGroup(ctx context.Context, sess auth.Session, groupID string) (*models.Group, error) {
	if err := validateGroupID(groupID); err != nil {
		return nil, err
	}
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.CanRead(sess.UserID) {
		return nil, fmt.Errorf("not a member of group %s: %w", groupID, models.ErrForbidden)
	}
	return group, nil
}

// resolveMember turns a member request into a Member. A bare email must
// belong to a registered user; otherwise userId and name are required.
func (s *GroupService) resolveMember(ctx context.Context, in api.Member) (models.Member, error) {
	in.UserID = strings.TrimSpace(in.UserID)
	in.Name = strings.TrimSpace(in.Name)
	in.Email = models.NormalizeEmail(in.Email)

	if in.UserID == "" {
		if in.Email == "" {
			return models.Member{}, fmt.Errorf("member needs a userId or an email: %w", models.ErrValidation)
		}
		user, err := s.store.GetUserByEmail(ctx, in.Email)
		if errors.Is(err, models.ErrNotFound) {
			return models.Member{}, fmt.Errorf("no registered user with email %s: %w", in.Email, models.ErrNotFound)
		}
		if err != nil {
			return models.Member{}, err
		}
		return user.AsMember(), nil
	}
	if in.Name == "" {
		return models.Member{}, fmt.Errorf("member %s needs a name: %w", in.UserID, models.ErrValidation)
	}
	return models.Member{UserID: in.UserID, Name: in.Name, Email: in.Email}, nil
}

// creatorMember is the caller as a member, falling back to the session when
// the account is gone.
func (s *GroupService) creatorMember(ctx context.Context, sess auth.Session) (models.Member, error) {
	user, err := s.store.GetUserByID(ctx, sess.UserID)
	if errors.Is(err, models.ErrNotFound) {
		return models.Member{UserID: sess.UserID, Name: sess.Email, Email: sess.Email}, nil
	}
	if err != nil {
		return models.Member{}, err
	}
	return user.AsMember(), nil
}

func (s *GroupService) publish(ctx context.Context, e events.Event) {
	err := s.events.Publish(ctx, e)
	s.metrics.ObserveEvent(e.Type, err)
	if err != nil {
		s.logger.Warn("Failed to publish ledger event",
			"type", e.Type,
			"group_id", e.GroupID,
			"error", err,
		)
	}
}

// CreateGroup creates a group. The caller is always its first member.
func (s *GroupService) CreateGroup(ctx context.Context, sess auth.Session, req api.CreateGroupRequest) (*models.Group, error) {
	s.logger.Info("CreateGroup request received",
		"name", req.Name,
		"members_count", len(req.Members),
		"user_id", sess.UserID,
	)

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("group name is required: %w", models.ErrValidation)
	}

	creator, err := s.creatorMember(ctx, sess)
	if err != nil {
		return nil, err
	}

	group := &models.Group{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		CreatedBy:   sess.UserID,
		Members:     []models.Member{creator},
	}
	for _, in := range req.Members {
		m, err := s.resolveMember(ctx, in)
		if err != nil {
			return nil, err
		}
		if m.UserID == creator.UserID {
			continue
		}
		if group.HasMember(m.UserID) {
			return nil, fmt.Errorf("member %s listed twice: %w", m.UserID, models.ErrValidation)
		}
		group.Members = append(group.Members, m)
	}

	// Save to storage (generates ID and CreatedAt)
	if err := s.store.CreateGroup(ctx, group); err != nil {
		s.logger.Error("CreateGroup failed", "error", err)
		return nil, err
	}

	s.logger.Info("Group created", "group_id", group.ID, "members_count", len(group.Members))
	return group, nil
}

// ListGroups returns the groups the caller created or belongs to.
func (s *GroupService) ListGroups(ctx context.Context, sess auth.Session) ([]*models.Group, error) {
	s.logger.Info("ListGroups request received", "user_id", sess.UserID)

	groups, err := s.store.ListGroupsForUser(ctx, sess.UserID)
	if err != nil {
		s.logger.Error("ListGroups failed", "error", err)
		return nil, err
	}

	s.logger.Info("ListGroups successful", "count", len(groups))
	return groups, nil
}

// GetGroup retrieves a group by ID.
func (s *GroupService) GetGroup(ctx context.Context, sess auth.Session, groupID string) (*models.Group, error) {
	s.logger.Info("GetGroup request received", "group_id", groupID)

	group, err := s.readableGroup(ctx, sess, groupID)
	if err != nil {
		s.logger.Warn("GetGroup failed", "group_id", groupID, "error", err)
		return nil, err
	}

	s.logger.Info("GetGroup successful", "group_id", group.ID, "name", group.Name)
	return group, nil
}

// ListMembers returns the members in join order.
func (s *GroupService) ListMembers(ctx context.Context, sess auth.Session, groupID string) ([]models.Member, error) {
	group, err := s.readableGroup(ctx, sess, groupID)
	if err != nil {
		return nil, err
	}
	return group.Members, nil
}

// AddMember appends a member to the group.
func (s *GroupService) AddMember(ctx context.Context, sess auth.Session, groupID string, req api.AddMemberRequest) (models.Member, error) {
	s.logger.Info("AddMember request received",
		"group_id", groupID,
		"member_user_id", req.UserID,
		"member_email", req.Email,
	)

	if _, err := s.readableGroup(ctx, sess, groupID); err != nil {
		return models.Member{}, err
	}
	member, err := s.resolveMember(ctx, api.Member{UserID: req.UserID, Name: req.Name, Email: req.Email})
	if err != nil {
		return models.Member{}, err
	}
	if err := s.store.AddGroupMember(ctx, groupID, member); err != nil {
		s.logger.Warn("AddMember failed", "group_id", groupID, "error", err)
		return models.Member{}, err
	}

	s.publish(ctx, events.New(events.MemberAdded, groupID, member.UserID, sess.UserID))
	s.logger.Info("Member added", "group_id", groupID, "member_user_id", member.UserID)
	return member, nil
}

// RemoveMember deletes a member that has no ledger entries.
func (s *GroupService) RemoveMember(ctx context.Context, sess auth.Session, groupID, userID string) error {
	s.logger.Info("RemoveMember request received", "group_id", groupID, "member_user_id", userID)

	if _, err := s.readableGroup(ctx, sess, groupID); err != nil {
		return err
	}
	if err := s.store.RemoveGroupMember(ctx, groupID, userID); err != nil {
		s.logger.Warn("RemoveMember failed", "group_id", groupID, "error", err)
		return err
	}

	s.publish(ctx, events.New(events.MemberRemoved, groupID, userID, sess.UserID))
	s.logger.Info("Member removed", "group_id", groupID, "member_user_id", userID)
	return nil
}

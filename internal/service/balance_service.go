package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/models"
)

// Balances is the computed state of a group ledger.
type Balances struct {
	Group       *models.Group
	Net         []models.NetBalance
	Suggestions []models.Settlement
}

// GetBalances computes net balances and settlement suggestions for a group
// the caller can read. Nothing is cached; every call reads a fresh snapshot.
func (s *GroupService) GetBalances(ctx context.Context, sess auth.Session, groupID string) (*Balances, error) {
	s.logger.Info("GetBalances request received", "group_id", groupID, "user_id", sess.UserID)

	if err := validateGroupID(groupID); err != nil {
		return nil, err
	}
	ledger, err := s.store.ReadLedger(ctx, groupID)
	if err != nil {
		s.logger.Warn("GetBalances failed", "group_id", groupID, "error", err)
		return nil, err
	}
	if !ledger.Group.CanRead(sess.UserID) {
		return nil, fmt.Errorf("not a member of group %s: %w", groupID, models.ErrForbidden)
	}
	return s.compute(ledger)
}

// ComputeBalances computes balances without an access check. It backs the
// operator CLI, which has no session.
func (s *GroupService) ComputeBalances(ctx context.Context, groupID string) (*Balances, error) {
	if err := validateGroupID(groupID); err != nil {
		return nil, err
	}
	ledger, err := s.store.ReadLedger(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return s.compute(ledger)
}

func (s *GroupService) compute(ledger *models.Ledger) (*Balances, error) {
	net, err := calculator.NetBalances(ledger.Group, ledger.Entries)
	if err != nil {
		return nil, s.balanceFailed(ledger, err)
	}
	suggestions, err := s.planner.Plan(net)
	if err != nil {
		return nil, s.balanceFailed(ledger, err)
	}

	s.metrics.ObserveBalances(len(suggestions))
	s.logger.Info("GetBalances successful",
		"group_id", ledger.Group.ID,
		"members", len(net),
		"suggestions", len(suggestions),
	)
	return &Balances{Group: ledger.Group, Net: net, Suggestions: suggestions}, nil
}

// balanceFailed counts the failure. Invariant violations mean the stored
// ledger is corrupt and are logged at error level.
func (s *GroupService) balanceFailed(ledger *models.Ledger, err error) error {
	invariant := errors.Is(err, models.ErrInvariantViolation)
	s.metrics.ObserveBalanceError(invariant)
	if invariant {
		s.logger.Error("Ledger invariant violated",
			"group_id", ledger.Group.ID,
			"entries", len(ledger.Entries),
			"error", err,
		)
	}
	return err
}

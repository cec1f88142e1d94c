package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/events"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/pkg/api"
)

// buildShares derives the per-member shares of an expense from explicit
// amounts, weights, or an equal split over every member.
func buildShares(group *models.Group, req api.LogExpenseRequest) ([]models.Share, error) {
	var (
		shares []models.Share
		err    error
	)
	switch {
	case len(req.Shares) > 0 && len(req.Splits) > 0:
		return nil, fmt.Errorf("give either shares or splits, not both: %w", models.ErrValidation)
	case len(req.Shares) > 0:
		shares = make([]models.Share, len(req.Shares))
		for i, in := range req.Shares {
			shares[i] = models.Share{UserID: in.UserID, Amount: in.Amount}
		}
		err = calculator.ValidateShares(req.Amount, shares)
	case len(req.Splits) > 0:
		weights := make([]calculator.Weight, len(req.Splits))
		for i, in := range req.Splits {
			weights[i] = calculator.Weight{UserID: in.UserID, Weight: in.Weight}
		}
		shares, err = calculator.SplitByWeight(req.Amount, weights)
	default:
		ids := make([]string, len(group.Members))
		for i, m := range group.Members {
			ids[i] = m.UserID
		}
		shares, err = calculator.SplitEqually(req.Amount, ids)
	}
	if err != nil {
		return nil, err
	}

	for _, share := range shares {
		if !group.HasMember(share.UserID) {
			return nil, fmt.Errorf("participant %s is not a member: %w", share.UserID, models.ErrValidation)
		}
	}
	return shares, nil
}

// LogExpense records an expense against the group ledger.
func (s *GroupService) LogExpense(ctx context.Context, sess auth.Session, groupID string, req api.LogExpenseRequest) (*models.Expense, error) {
	s.logger.Info("LogExpense request received",
		"group_id", groupID,
		"amount", req.Amount,
		"shares_count", len(req.Shares),
		"splits_count", len(req.Splits),
	)

	group, err := s.readableGroup(ctx, sess, groupID)
	if err != nil {
		return nil, err
	}

	payerID := strings.TrimSpace(req.PayerID)
	if payerID == "" {
		payerID = sess.UserID
	}
	if !group.HasMember(payerID) {
		return nil, fmt.Errorf("payer %s is not a member: %w", payerID, models.ErrValidation)
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("amount must be positive: %w", models.ErrValidation)
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, fmt.Errorf("description is required: %w", models.ErrValidation)
	}

	shares, err := buildShares(group, req)
	if err != nil {
		return nil, err
	}

	expense := &models.Expense{
		GroupID:     groupID,
		PayerID:     payerID,
		Amount:      req.Amount,
		Description: description,
		Category:    strings.TrimSpace(req.Category),
		SpentAt:     req.SpentAt,
		Shares:      shares,
		CreatedBy:   sess.UserID,
	}
	if err := s.store.CreateExpense(ctx, expense); err != nil {
		s.logger.Error("LogExpense failed", "group_id", groupID, "error", err)
		return nil, err
	}

	e := events.New(events.ExpenseLogged, groupID, expense.ID, sess.UserID)
	e.Amount = expense.Amount
	s.publish(ctx, e)

	s.logger.Info("Expense logged", "group_id", groupID, "expense_id", expense.ID, "amount", expense.Amount)
	return expense, nil
}

// ListExpenses returns the group's expenses, newest first.
func (s *GroupService) ListExpenses(ctx context.Context, sess auth.Session, groupID string) ([]*models.Expense, error) {
	if _, err := s.readableGroup(ctx, sess, groupID); err != nil {
		return nil, err
	}
	return s.store.ListExpenses(ctx, groupID)
}

// RecordPayment records a settlement payment between two members.
func (s *GroupService) RecordPayment(ctx context.Context, sess auth.Session, groupID string, req api.RecordPaymentRequest) (*models.Payment, error) {
	s.logger.Info("RecordPayment request received",
		"group_id", groupID,
		"from_user_id", req.FromUserID,
		"to_user_id", req.ToUserID,
		"amount", req.Amount,
	)

	group, err := s.readableGroup(ctx, sess, groupID)
	if err != nil {
		return nil, err
	}

	from := strings.TrimSpace(req.FromUserID)
	if from == "" {
		from = sess.UserID
	}
	to := strings.TrimSpace(req.ToUserID)
	switch {
	case to == "":
		return nil, fmt.Errorf("toUserId is required: %w", models.ErrValidation)
	case from == to:
		return nil, fmt.Errorf("a member cannot pay themselves: %w", models.ErrValidation)
	case !group.HasMember(from) || !group.HasMember(to):
		return nil, fmt.Errorf("both users must be members of the group: %w", models.ErrValidation)
	case req.Amount <= 0:
		return nil, fmt.Errorf("amount must be positive: %w", models.ErrValidation)
	}

	payment := &models.Payment{
		GroupID:    groupID,
		FromUserID: from,
		ToUserID:   to,
		Amount:     req.Amount,
		Note:       strings.TrimSpace(req.Note),
		SettledAt:  req.SettledAt,
		CreatedBy:  sess.UserID,
	}
	if err := s.store.CreatePayment(ctx, payment); err != nil {
		s.logger.Error("RecordPayment failed", "group_id", groupID, "error", err)
		return nil, err
	}

	e := events.New(events.PaymentRecorded, groupID, payment.ID, sess.UserID)
	e.Amount = payment.Amount
	s.publish(ctx, e)

	s.logger.Info("Payment recorded", "group_id", groupID, "payment_id", payment.ID)
	return payment, nil
}

// ListPayments returns the group's recorded payments, newest first.
func (s *GroupService) ListPayments(ctx context.Context, sess auth.Session, groupID string) ([]*models.Payment, error) {
	if _, err := s.readableGroup(ctx, sess, groupID); err != nil {
		return nil, err
	}
	return s.store.ListPayments(ctx, groupID)
}

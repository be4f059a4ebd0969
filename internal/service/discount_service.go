package service

import (
	"context"
	"fmt"
	"math"

	"batterella/internal/discount"
	"batterella/internal/model"
	"batterella/internal/realtime"

	"github.com/rs/zerolog"
)

// discountService implements DiscountService.
type discountService struct {
	*base
	logger zerolog.Logger
}

func newDiscountService(b *base, logger zerolog.Logger) DiscountService {
	return &discountService{
		base:   b,
		logger: logger.With().Str("service", "discount").Logger(),
	}
}

// ListPending returns pending approvals enriched with order and customer details.
func (s *discountService) ListPending(ctx context.Context) ([]model.PendingApprovalView, error) {
	approvals, err := s.store.ListPendingApprovals(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list pending approvals")
		return nil, fmt.Errorf("failed to list pending approvals: %w", err)
	}

	views := make([]model.PendingApprovalView, 0, len(approvals))
	for _, approval := range approvals {
		view := model.PendingApprovalView{PendingApproval: approval}

		order, err := s.store.GetOrder(ctx, approval.OrderID)
		if err != nil {
			return nil, fmt.Errorf("failed to get order %s: %w", approval.OrderID, err)
		}
		if order != nil {
			view.Order = order.Summary()
		}

		customer, err := s.store.GetCustomer(ctx, approval.Phone)
		if err != nil {
			return nil, fmt.Errorf("failed to get customer: %w", err)
		}
		view.Customer = customer.Summary()

		views = append(views, view)
	}

	return views, nil
}

// Approve applies a discount to a queued order identified by ID or order token.
func (s *discountService) Approve(ctx context.Context, identifier string, percent *float64) (*model.DiscountResult, error) {
	if identifier == "" {
		return nil, model.NewValidationError("Order ID or token is required")
	}
	p, err := s.percentOrDefault(percent)
	if err != nil {
		return nil, err
	}

	return s.apply(ctx, identifier, p, false)
}

// Apply applies a discount to any order whose customer qualifies.
func (s *discountService) Apply(ctx context.Context, orderID string, percent *float64) (*model.DiscountResult, error) {
	if orderID == "" {
		return nil, model.NewValidationError("Order ID is required")
	}
	p, err := s.percentOrDefault(percent)
	if err != nil {
		return nil, err
	}

	return s.apply(ctx, orderID, p, true)
}

func (s *discountService) apply(ctx context.Context, identifier string, percent float64, checkEligibility bool) (*model.DiscountResult, error) {
	order, breakdown, err := s.applyLocked(ctx, identifier, percent, checkEligibility)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", order.ID).
		Float64("percent", percent).
		Float64("original", breakdown.Original).
		Float64("discounted", breakdown.Discounted).
		Msg("discount applied")

	s.publish(ctx, s.logger, realtime.NewDiscountAppliedEvent(order))

	return &model.DiscountResult{
		Success:          true,
		Message:          breakdown.Message(),
		Order:            order,
		Savings:          breakdown.Amount,
		OriginalAmount:   breakdown.Original,
		DiscountedAmount: breakdown.Discounted,
		DiscountPercent:  breakdown.Percent,
	}, nil
}

func (s *discountService) applyLocked(ctx context.Context, identifier string, percent float64, checkEligibility bool) (*model.Order, discount.Breakdown, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, err := s.findOrder(ctx, identifier)
	if err != nil {
		return nil, discount.Breakdown{}, err
	}

	if order.DiscountApplied > 0 {
		s.logger.Warn().Str("order_id", order.ID).Msg("discount already applied")
		return nil, discount.Breakdown{}, model.ErrDiscountAlreadyApplied
	}

	if checkEligibility {
		history, err := s.store.ListOrders(ctx, model.OrderFilter{Phone: order.Phone})
		if err != nil {
			return nil, discount.Breakdown{}, fmt.Errorf("failed to load order history: %w", err)
		}
		if !discount.IsEligible(order, history) {
			return nil, discount.Breakdown{}, model.ErrNotRepeatCustomer
		}
	}

	b, err := discount.Apply(order.TotalAmount, percent)
	if err != nil {
		return nil, discount.Breakdown{}, err
	}

	order.OriginalAmount = b.Original
	order.DiscountApplied = b.Percent
	order.TotalAmount = b.Discounted

	status := order.Status
	if !status.IsTerminal() {
		status = model.StatusConfirmed
	}
	order.AppendStatus(status, s.opts.Now(), b.Note(), "admin")

	if err := s.store.UpdateOrder(ctx, order); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID).Msg("failed to store discounted order")
		return nil, discount.Breakdown{}, fmt.Errorf("failed to apply discount: %w", err)
	}

	if err := s.store.RemovePendingApproval(ctx, order.ID); err != nil {
		return nil, discount.Breakdown{}, fmt.Errorf("failed to remove pending approval: %w", err)
	}

	customer, err := s.store.GetCustomer(ctx, order.Phone)
	if err != nil {
		return nil, discount.Breakdown{}, fmt.Errorf("failed to get customer: %w", err)
	}
	if customer != nil {
		customer.TotalSpent -= b.Amount
		customer.LoyaltyPoints += int(math.Floor(b.Amount))
		if err := s.store.SaveCustomer(ctx, customer); err != nil {
			return nil, discount.Breakdown{}, fmt.Errorf("failed to update customer: %w", err)
		}
	}

	return order, b, nil
}

// Reject declines a queued discount and confirms the order.
func (s *discountService) Reject(ctx context.Context, identifier string) (*model.DiscountRejection, error) {
	if identifier == "" {
		return nil, model.NewValidationError("Order ID or token is required")
	}

	order, err := s.reject(ctx, identifier)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("order_id", order.ID).Msg("discount rejected")
	s.publish(ctx, s.logger, realtime.NewDiscountRejectedEvent(order))

	return &model.DiscountRejection{
		Success: true,
		Message: "Discount request rejected and order confirmed",
		Order:   order,
	}, nil
}

func (s *discountService) reject(ctx context.Context, identifier string) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, err := s.findOrder(ctx, identifier)
	if err != nil {
		return nil, err
	}

	if err := s.store.RemovePendingApproval(ctx, order.ID); err != nil {
		return nil, fmt.Errorf("failed to remove pending approval: %w", err)
	}

	if order.Status.IsTerminal() || order.Status == model.StatusConfirmed {
		return order, nil
	}

	order.AppendStatus(model.StatusConfirmed, s.opts.Now(), "Discount rejected, order confirmed", "admin")
	if err := s.store.UpdateOrder(ctx, order); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID).Msg("failed to confirm order")
		return nil, fmt.Errorf("failed to reject discount: %w", err)
	}

	return order, nil
}

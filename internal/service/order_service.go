package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"batterella/internal/discount"
	"batterella/internal/model"
	"batterella/internal/realtime"

	"github.com/rs/zerolog"
)

// orderService implements OrderService.
type orderService struct {
	*base
	logger zerolog.Logger
}

func newOrderService(b *base, logger zerolog.Logger) OrderService {
	return &orderService{
		base:   b,
		logger: logger.With().Str("service", "order").Logger(),
	}
}

// CreateOrder validates and stores a new order, flagging repeat customers.
func (s *orderService) CreateOrder(ctx context.Context, req *model.OrderRequest) (*model.Order, error) {
	if err := s.validateOrderRequest(req); err != nil {
		return nil, err
	}

	order, customer, err := s.createOrder(ctx, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", order.ID).
		Str("tracking_code", order.TrackingCode).
		Bool("repeat_customer", order.IsRepeatCustomer).
		Float64("total", order.TotalAmount).
		Msg("order created")

	s.publish(ctx, s.logger, realtime.NewNewOrderEvent(order))
	if order.IsRepeatCustomer {
		s.publish(ctx, s.logger, realtime.NewDiscountApprovalNeededEvent(order, customer))
	}

	return order, nil
}

func (s *orderService) createOrder(ctx context.Context, req *model.OrderRequest) (*model.Order, *model.Customer, error) {
	id, err := model.NewOrderID()
	if err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	trackingCode, err := s.uniqueTrackingCode(ctx)
	if err != nil {
		return nil, nil, err
	}

	history, err := s.store.ListOrders(ctx, model.OrderFilter{Phone: req.Phone})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load order history")
		return nil, nil, fmt.Errorf("failed to create order: %w", err)
	}
	repeat := discount.IsRepeatCustomer(history, req.Phone, "")

	customer, err := s.store.GetCustomer(ctx, req.Phone)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load customer")
		return nil, nil, fmt.Errorf("failed to create order: %w", err)
	}
	if customer == nil {
		customer = &model.Customer{
			Phone:         req.Phone,
			CustomerToken: model.NewCustomerToken(),
		}
	}

	now := s.opts.Now()
	items := make([]model.CartItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = item
		if items[i].ID == "" {
			items[i].ID = fmt.Sprintf("item_%d", i+1)
		}
	}
	total := discount.OrderTotal(items)

	order := &model.Order{
		ID:               id,
		OrderToken:       model.NewOrderToken(),
		CustomerToken:    customer.CustomerToken,
		Type:             req.Type,
		Source:           req.Source,
		Priority:         req.Priority,
		Items:            items,
		Phone:            req.Phone,
		Timestamp:        now,
		TotalAmount:      total,
		OriginalAmount:   total,
		EstimatedTime:    req.Type.EstimatedMinutes(),
		TrackingCode:     trackingCode,
		IsRepeatCustomer: repeat,
		Metadata:         req.Metadata,
	}
	if order.Type == model.OrderTypeDelivery {
		order.Location = req.Location
	}

	status := model.StatusConfirmed
	if repeat {
		status = model.StatusPending
	}
	order.AppendStatus(status, now, "Order created via "+string(order.Source), "system")

	if err := s.store.CreateOrder(ctx, order); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID).Msg("failed to store order")
		return nil, nil, fmt.Errorf("failed to create order: %w", err)
	}

	customer.RecordOrder(total, now)
	if repeat {
		customer.DiscountEligible = true
	}
	if err := s.store.SaveCustomer(ctx, customer); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID).Msg("failed to update customer")
		return nil, nil, fmt.Errorf("failed to update customer: %w", err)
	}

	if repeat {
		approval, err := discount.NewPendingApproval(order, s.opts.DefaultDiscountPercent, now)
		if err != nil {
			return nil, nil, err
		}
		if err := s.store.AddPendingApproval(ctx, approval); err != nil {
			s.logger.Error().Err(err).Str("order_id", order.ID).Msg("failed to queue discount approval")
			return nil, nil, fmt.Errorf("failed to queue discount approval: %w", err)
		}
	}

	return order, customer, nil
}

// uniqueTrackingCode draws tracking codes until one resolves to no stored order.
// Callers must hold s.mu.
func (s *orderService) uniqueTrackingCode(ctx context.Context) (string, error) {
	for attempt := 1; attempt <= maxTrackingCodeAttempts; attempt++ {
		code, err := s.opts.TrackingCode()
		if err != nil {
			return "", err
		}

		existing, err := s.store.FindOrder(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check tracking code: %w", err)
		}
		if existing == nil {
			return code, nil
		}

		s.logger.Warn().
			Int("attempt", attempt).
			Msg("tracking code collision, drawing another")
	}
	return "", fmt.Errorf("failed to allocate a unique tracking code after %d attempts", maxTrackingCodeAttempts)
}

// validateOrderRequest validates the request and fills in defaults.
func (s *orderService) validateOrderRequest(req *model.OrderRequest) error {
	if req == nil {
		return model.NewValidationError("Order request is required")
	}

	if len(req.Items) == 0 {
		return model.NewValidationError("Items are required")
	}

	if strings.TrimSpace(req.Phone) == "" {
		return model.NewValidationError("Phone is required")
	}

	if req.Type == "" {
		req.Type = model.OrderTypeDelivery
	}
	if !req.Type.Valid() {
		return model.NewValidationError(fmt.Sprintf("Invalid order type: %s", req.Type))
	}

	if req.Type == model.OrderTypeDelivery && strings.TrimSpace(req.Location) == "" {
		return model.NewValidationError("Location is required for delivery orders")
	}

	if req.Source == "" {
		req.Source = model.SourceOnline
	}
	if !req.Source.Valid() {
		return model.NewValidationError(fmt.Sprintf("Invalid order source: %s", req.Source))
	}

	if req.Priority == "" {
		req.Priority = model.PriorityNormal
	}
	if !req.Priority.Valid() {
		return model.NewValidationError(fmt.Sprintf("Invalid order priority: %s", req.Priority))
	}

	for i, item := range req.Items {
		if item.Product == "" && item.CustomName == "" {
			return model.NewValidationError(fmt.Sprintf("item %d: product is required", i))
		}

		if item.Quantity <= 0 {
			s.logger.Warn().
				Int("item_index", i).
				Str("product", item.Product).
				Int("quantity", item.Quantity).
				Msg("invalid quantity")
			return model.ErrInvalidQuantity
		}
	}

	return nil
}

// GetOrder retrieves an order by ID, order token or tracking code.
func (s *orderService) GetOrder(ctx context.Context, identifier string) (*model.OrderDetails, error) {
	order, err := s.findOrder(ctx, identifier)
	if err != nil {
		return nil, err
	}

	customer, err := s.store.GetCustomer(ctx, order.Phone)
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	return &model.OrderDetails{Order: order, Customer: customer.Summary()}, nil
}

// ListOrders returns filtered orders with the pending discount queue.
func (s *orderService) ListOrders(ctx context.Context, filter model.OrderFilter) (*model.OrderList, error) {
	orders, err := s.store.ListOrders(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	approvals, err := s.store.ListPendingApprovals(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list pending approvals")
		return nil, fmt.Errorf("failed to list pending approvals: %w", err)
	}

	return &model.OrderList{Orders: orders, PendingDiscounts: approvals}, nil
}

// ListUpdates returns orders created after since.
func (s *orderService) ListUpdates(ctx context.Context, since time.Time) (*model.OrderUpdates, error) {
	from := since.Add(time.Nanosecond)
	orders, err := s.store.ListOrders(ctx, model.OrderFilter{DateFrom: &from})
	if err != nil {
		return nil, fmt.Errorf("failed to list order updates: %w", err)
	}

	return &model.OrderUpdates{Orders: orders, Timestamp: s.opts.Now()}, nil
}

// UpdateOrder applies a partial update and records any status change.
func (s *orderService) UpdateOrder(ctx context.Context, identifier string, req *model.OrderUpdateRequest) (*model.Order, error) {
	if req == nil {
		return nil, model.NewValidationError("Update request is required")
	}

	var status model.Status
	if req.Status != nil {
		parsed, err := model.ParseStatus(*req.Status)
		if err != nil {
			s.logger.Warn().Str("status", *req.Status).Msg("rejected unknown status")
			return nil, err
		}
		status = parsed
	}

	if req.EstimatedTime != nil && *req.EstimatedTime < 0 {
		return nil, model.NewValidationError("Estimated time cannot be negative")
	}

	order, err := s.updateOrder(ctx, identifier, status, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", order.ID).
		Str("status", string(order.Status)).
		Msg("order updated")

	s.publish(ctx, s.logger, realtime.NewOrderUpdatedEvent(order, realtime.OrderChanges{
		Status:        req.Status,
		EstimatedTime: req.EstimatedTime,
		DriverPhone:   req.DriverPhone,
		Note:          req.Note,
	}))

	return order, nil
}

func (s *orderService) updateOrder(ctx context.Context, identifier string, status model.Status, req *model.OrderUpdateRequest) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, err := s.findOrder(ctx, identifier)
	if err != nil {
		return nil, err
	}

	if status != "" {
		note := req.Note
		if note == "" {
			note = "Status updated to " + string(status)
		}
		updatedBy := req.UpdatedBy
		if updatedBy == "" {
			updatedBy = "admin"
		}
		order.AppendStatus(status, s.opts.Now(), note, updatedBy)
	}
	if req.EstimatedTime != nil {
		order.EstimatedTime = *req.EstimatedTime
	}
	if req.DriverPhone != nil {
		order.DriverPhone = *req.DriverPhone
	}

	if err := s.store.UpdateOrder(ctx, order); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID).Msg("failed to update order")
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	return order, nil
}

// CancelOrder cancels an order that has not been delivered.
func (s *orderService) CancelOrder(ctx context.Context, identifier string) (*model.Order, error) {
	order, err := s.cancelOrder(ctx, identifier)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("order_id", order.ID).Msg("order cancelled")
	s.publish(ctx, s.logger, realtime.NewOrderCancelledEvent(order))

	return order, nil
}

func (s *orderService) cancelOrder(ctx context.Context, identifier string) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, err := s.findOrder(ctx, identifier)
	if err != nil {
		return nil, err
	}

	switch order.Status {
	case model.StatusDelivered:
		return nil, model.ErrCannotCancelDelivered
	case model.StatusCancelled:
		return nil, model.ErrOrderAlreadyCancelled
	}

	order.AppendStatus(model.StatusCancelled, s.opts.Now(), "Order cancelled", "admin")

	if err := s.store.UpdateOrder(ctx, order); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID).Msg("failed to cancel order")
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}

	if err := s.store.RemovePendingApproval(ctx, order.ID); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID).Msg("failed to remove pending approval")
		return nil, fmt.Errorf("failed to remove pending approval: %w", err)
	}

	return order, nil
}

// TrackOrder finds an order by the last six characters of its ID and the phone number.
func (s *orderService) TrackOrder(ctx context.Context, req *model.TrackRequest) (*model.Order, error) {
	if req == nil || strings.TrimSpace(req.OrderID) == "" || strings.TrimSpace(req.Phone) == "" {
		return nil, model.NewValidationError("Order ID and phone number are required")
	}

	code := strings.TrimSpace(req.OrderID)
	orders, err := s.store.ListOrders(ctx, model.OrderFilter{Phone: req.Phone})
	if err != nil {
		return nil, fmt.Errorf("failed to track order: %w", err)
	}

	for i := range orders {
		if orders[i].MatchesTrackCode(code, req.Phone) {
			return &orders[i], nil
		}
	}

	s.logger.Debug().Str("code", code).Msg("no order matches tracking request")
	return nil, model.ErrOrderNotFound
}

// GetTracking returns the tracking view of an order.
func (s *orderService) GetTracking(ctx context.Context, identifier string) (*model.TrackingInfo, error) {
	if identifier == "" {
		return nil, model.NewValidationError("Order identifier is required (id, token, or tracking code)")
	}

	order, err := s.findOrder(ctx, identifier)
	if err != nil {
		return nil, err
	}

	customer, err := s.store.GetCustomer(ctx, order.Phone)
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	progress := model.TrackingProgress{
		CurrentStatus: order.Status,
		StatusCount:   len(order.StatusHistory),
		Progress:      order.Status.Progress(),
	}
	if n := len(order.StatusHistory); n > 0 {
		last := order.StatusHistory[n-1].Timestamp
		progress.LastUpdated = &last
	}
	if order.EstimatedTime > 0 {
		eta := order.Timestamp.Add(time.Duration(order.EstimatedTime) * time.Minute)
		progress.EstimatedCompletion = &eta
	}

	return &model.TrackingInfo{
		Order:    order,
		Customer: customer.Summary(),
		Tracking: progress,
	}, nil
}

// UpdateTracking applies a status update from the tracking endpoint.
func (s *orderService) UpdateTracking(ctx context.Context, req *model.TrackingUpdateRequest) (*model.Order, error) {
	if req == nil || req.Identifier == "" || req.Status == "" {
		return nil, model.NewValidationError("Order identifier and status are required")
	}

	updatedBy := req.UpdatedBy
	if updatedBy == "" {
		updatedBy = "system"
	}

	return s.UpdateOrder(ctx, req.Identifier, &model.OrderUpdateRequest{
		Status:        &req.Status,
		EstimatedTime: req.EstimatedTime,
		DriverPhone:   req.DriverPhone,
		Note:          req.Note,
		UpdatedBy:     updatedBy,
	})
}

// GetCustomer retrieves a customer by phone.
func (s *orderService) GetCustomer(ctx context.Context, phone string) (*model.Customer, error) {
	if phone == "" {
		return nil, model.NewValidationError("Phone is required")
	}

	customer, err := s.store.GetCustomer(ctx, phone)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to get customer")
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return customer, nil
}

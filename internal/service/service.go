package service

import (
	"context"
	"sync"
	"time"

	"batterella/internal/discount"
	"batterella/internal/model"
	"batterella/internal/realtime"
	"batterella/internal/repository"

	"github.com/rs/zerolog"
)

// OrderService defines operations for order management.
type OrderService interface {
	// CreateOrder validates and stores a new order, flagging repeat customers.
	CreateOrder(ctx context.Context, req *model.OrderRequest) (*model.Order, error)

	// GetOrder retrieves an order by ID, order token or tracking code.
	GetOrder(ctx context.Context, identifier string) (*model.OrderDetails, error)

	// ListOrders returns filtered orders with the pending discount queue.
	ListOrders(ctx context.Context, filter model.OrderFilter) (*model.OrderList, error)

	// ListUpdates returns orders created after since.
	ListUpdates(ctx context.Context, since time.Time) (*model.OrderUpdates, error)

	// UpdateOrder applies a partial update and records any status change.
	UpdateOrder(ctx context.Context, identifier string, req *model.OrderUpdateRequest) (*model.Order, error)

	// CancelOrder cancels an order that has not been delivered.
	CancelOrder(ctx context.Context, identifier string) (*model.Order, error)

	// TrackOrder finds an order by the last six characters of its ID and the phone number.
	TrackOrder(ctx context.Context, req *model.TrackRequest) (*model.Order, error)

	// GetTracking returns the tracking view of an order.
	GetTracking(ctx context.Context, identifier string) (*model.TrackingInfo, error)

	// UpdateTracking applies a status update from the tracking endpoint.
	UpdateTracking(ctx context.Context, req *model.TrackingUpdateRequest) (*model.Order, error)

	// GetCustomer retrieves a customer by phone. Returns nil when unknown.
	GetCustomer(ctx context.Context, phone string) (*model.Customer, error)
}

// DiscountService defines operations for repeat-customer discounts.
type DiscountService interface {
	// ListPending returns pending approvals enriched with order and customer details.
	ListPending(ctx context.Context) ([]model.PendingApprovalView, error)

	// Approve applies a discount to a queued order identified by ID or order token.
	Approve(ctx context.Context, identifier string, percent *float64) (*model.DiscountResult, error)

	// Apply applies a discount to any order whose customer qualifies.
	Apply(ctx context.Context, orderID string, percent *float64) (*model.DiscountResult, error)

	// Reject declines a queued discount and confirms the order.
	Reject(ctx context.Context, identifier string) (*model.DiscountRejection, error)
}

// AdminService defines the back-office reporting and maintenance operations.
type AdminService interface {
	// Stats summarises order volume, revenue and today's activity.
	Stats(ctx context.Context) (*model.DashboardStats, error)

	// StorageStats reports record counts per collection.
	StorageStats(ctx context.Context) (model.StorageStats, error)

	// ExportOrders returns every order, newest first.
	ExportOrders(ctx context.Context) ([]model.Order, error)

	// Reset deletes all data.
	Reset(ctx context.Context) error
}

// Options tunes service behaviour.
type Options struct {
	// DefaultDiscountPercent applies when a discount request carries no percent.
	DefaultDiscountPercent float64

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	// TrackingCode generates tracking codes. Defaults to model.NewTrackingCode.
	TrackingCode func() (string, error)
}

const maxTrackingCodeAttempts = 5

// Services bundles the services sharing one store.
type Services struct {
	Orders    OrderService
	Discounts DiscountService
	Admin     AdminService
}

// New wires the services over store. Mutations from every service are
// serialised so read-check-write sequences cannot interleave.
func New(store repository.Store, publisher realtime.Publisher, opts Options, logger zerolog.Logger) *Services {
	if opts.DefaultDiscountPercent <= 0 {
		opts.DefaultDiscountPercent = discount.DefaultPercent
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.TrackingCode == nil {
		opts.TrackingCode = model.NewTrackingCode
	}

	b := &base{
		store:     store,
		publisher: publisher,
		opts:      opts,
		mu:        &sync.Mutex{},
	}

	return &Services{
		Orders:    newOrderService(b, logger),
		Discounts: newDiscountService(b, logger),
		Admin:     newAdminService(b, logger),
	}
}

// base holds the dependencies shared by every service.
type base struct {
	store     repository.Store
	publisher realtime.Publisher
	opts      Options
	mu        *sync.Mutex
}

// publish delivers e, logging rather than returning failures so a broken push
// channel never fails the request that produced the event.
func (b *base) publish(ctx context.Context, logger zerolog.Logger, e realtime.Event) {
	if b.publisher == nil {
		return
	}
	if err := b.publisher.Publish(ctx, e); err != nil {
		logger.Warn().Err(err).Str("event", e.EventType()).Msg("failed to publish event")
	}
}

// findOrder resolves identifier or returns model.ErrOrderNotFound.
func (b *base) findOrder(ctx context.Context, identifier string) (*model.Order, error) {
	order, err := b.store.FindOrder(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}
	return order, nil
}

// percentOrDefault validates the requested percent, falling back to the configured default.
func (b *base) percentOrDefault(percent *float64) (float64, error) {
	p := b.opts.DefaultDiscountPercent
	if percent != nil {
		p = *percent
	}
	if err := discount.ValidatePercent(p); err != nil {
		return 0, err
	}
	return p, nil
}

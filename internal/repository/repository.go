package repository

import (
	"context"
	"slices"
	"strings"

	"batterella/internal/model"
)

// OrderStore defines the data access operations for orders.
type OrderStore interface {
	// CreateOrder persists a new order.
	CreateOrder(ctx context.Context, order *model.Order) error

	// GetOrder retrieves an order by its ID. Returns nil, nil when not found.
	GetOrder(ctx context.Context, id string) (*model.Order, error)

	// FindOrder resolves an identifier by trying the order ID, the order token
	// and the tracking code in that order. Returns nil, nil when nothing matches.
	FindOrder(ctx context.Context, identifier string) (*model.Order, error)

	// UpdateOrder replaces a stored order. Returns model.ErrOrderNotFound when missing.
	UpdateOrder(ctx context.Context, order *model.Order) error

	// ListOrders returns orders matching filter, newest first.
	ListOrders(ctx context.Context, filter model.OrderFilter) ([]model.Order, error)
}

// CustomerStore defines the data access operations for customers.
type CustomerStore interface {
	// GetCustomer retrieves a customer by phone. Returns nil, nil when not found.
	GetCustomer(ctx context.Context, phone string) (*model.Customer, error)

	// SaveCustomer inserts or replaces a customer keyed by phone.
	SaveCustomer(ctx context.Context, customer *model.Customer) error

	// ListCustomers returns every customer.
	ListCustomers(ctx context.Context) ([]model.Customer, error)
}

// ApprovalStore defines the data access operations for pending discount approvals.
type ApprovalStore interface {
	// ListPendingApprovals returns approvals in the order they were queued.
	ListPendingApprovals(ctx context.Context) ([]model.PendingApproval, error)

	// AddPendingApproval queues an approval, replacing any existing one for the same order.
	AddPendingApproval(ctx context.Context, approval model.PendingApproval) error

	// RemovePendingApproval drops the approval for orderID. Missing approvals are ignored.
	RemovePendingApproval(ctx context.Context, orderID string) error
}

// Store is the complete persistence contract used by the services.
type Store interface {
	OrderStore
	CustomerStore
	ApprovalStore

	// Stats reports the number of records in each collection.
	Stats(ctx context.Context) (model.StorageStats, error)

	// Reset removes every order, customer and pending approval.
	Reset(ctx context.Context) error
}

// findOrder applies the identifier resolution order shared by the in-process stores.
func findOrder(orders []model.Order, identifier string) *model.Order {
	if identifier == "" {
		return nil
	}
	for i := range orders {
		if orders[i].ID == identifier {
			return &orders[i]
		}
	}
	for i := range orders {
		if orders[i].OrderToken == identifier {
			return &orders[i]
		}
	}
	code := strings.ToUpper(identifier)
	for i := range orders {
		if orders[i].TrackingCode == code {
			return &orders[i]
		}
	}
	return nil
}

// filterOrders returns deep copies of the matching orders, newest first.
func filterOrders(orders []model.Order, filter model.OrderFilter) []model.Order {
	result := make([]model.Order, 0, len(orders))
	for i := range orders {
		if filter.Matches(&orders[i]) {
			result = append(result, *orders[i].Clone())
		}
	}
	sortNewestFirst(result)
	return result
}

func sortNewestFirst(orders []model.Order) {
	slices.SortStableFunc(orders, func(a, b model.Order) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})
}

func removeApproval(approvals []model.PendingApproval, orderID string) []model.PendingApproval {
	return slices.DeleteFunc(approvals, func(a model.PendingApproval) bool {
		return a.OrderID == orderID
	})
}

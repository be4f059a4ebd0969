package repository

import (
	"context"
	"sync"

	"batterella/internal/model"

	"github.com/rs/zerolog"
)

// memoryStore implements Store in process memory.
type memoryStore struct {
	mu        sync.RWMutex
	orders    []model.Order
	customers map[string]model.Customer
	approvals []model.PendingApproval
	logger    zerolog.Logger
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(logger zerolog.Logger) Store {
	return &memoryStore{
		customers: make(map[string]model.Customer),
		logger:    logger.With().Str("repository", "memory").Logger(),
	}
}

// CreateOrder persists a new order.
func (s *memoryStore) CreateOrder(ctx context.Context, order *model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders = append(s.orders, *order.Clone())

	s.logger.Debug().Str("order_id", order.ID).Msg("order stored")
	return nil
}

// GetOrder retrieves an order by its ID.
func (s *memoryStore) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.orders {
		if s.orders[i].ID == id {
			return s.orders[i].Clone(), nil
		}
	}
	return nil, nil
}

// FindOrder resolves an order by ID, order token or tracking code.
func (s *memoryStore) FindOrder(ctx context.Context, identifier string) (*model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return findOrder(s.orders, identifier).Clone(), nil
}

// UpdateOrder replaces a stored order.
func (s *memoryStore) UpdateOrder(ctx context.Context, order *model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.orders {
		if s.orders[i].ID == order.ID {
			s.orders[i] = *order.Clone()
			return nil
		}
	}
	return model.ErrOrderNotFound
}

// ListOrders returns orders matching filter, newest first.
func (s *memoryStore) ListOrders(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return filterOrders(s.orders, filter), nil
}

// GetCustomer retrieves a customer by phone.
func (s *memoryStore) GetCustomer(ctx context.Context, phone string) (*model.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.customers[phone]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// SaveCustomer inserts or replaces a customer.
func (s *memoryStore) SaveCustomer(ctx context.Context, customer *model.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.customers[customer.Phone] = *customer
	return nil
}

// ListCustomers returns every customer.
func (s *memoryStore) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customers := make([]model.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		customers = append(customers, c)
	}
	return customers, nil
}

// ListPendingApprovals returns approvals in the order they were queued.
func (s *memoryStore) ListPendingApprovals(ctx context.Context) ([]model.PendingApproval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]model.PendingApproval{}, s.approvals...), nil
}

// AddPendingApproval queues an approval.
func (s *memoryStore) AddPendingApproval(ctx context.Context, approval model.PendingApproval) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.approvals = append(removeApproval(s.approvals, approval.OrderID), approval)
	return nil
}

// RemovePendingApproval drops the approval for orderID.
func (s *memoryStore) RemovePendingApproval(ctx context.Context, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.approvals = removeApproval(s.approvals, orderID)
	return nil
}

// Stats reports collection sizes.
func (s *memoryStore) Stats(ctx context.Context) (model.StorageStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return model.StorageStats{
		Orders:           len(s.orders),
		Customers:        len(s.customers),
		PendingApprovals: len(s.approvals),
	}, nil
}

// Reset removes all data.
func (s *memoryStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders = nil
	s.customers = make(map[string]model.Customer)
	s.approvals = nil

	s.logger.Warn().Msg("all data cleared")
	return nil
}

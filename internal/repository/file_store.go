package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"batterella/internal/model"

	"github.com/rs/zerolog"
)

// File names inside the data directory.
const (
	OrdersFile    = "orders.json"
	CustomersFile = "customers.json"
	ApprovalsFile = "pending-approvals.json"
)

// cached holds the last decoded contents of one collection file.
type cached[T any] struct {
	items    []T
	loadedAt time.Time
	valid    bool
}

// fileStore implements Store as JSON array files rewritten wholesale on every write.
type fileStore struct {
	mu        sync.Mutex
	dir       string
	ttl       time.Duration
	now       func() time.Time
	orders    cached[model.Order]
	customers cached[model.Customer]
	approvals cached[model.PendingApproval]
	logger    zerolog.Logger
}

// NewFileStore creates a store persisting to dir. Reads are served from a cache
// for ttl; every write refreshes the cache.
func NewFileStore(dir string, ttl time.Duration, logger zerolog.Logger) (Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	logger = logger.With().Str("repository", "file").Logger()
	logger.Info().Str("dir", dir).Dur("cache_ttl", ttl).Msg("file store initialised")

	return &fileStore{
		dir:    dir,
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}, nil
}

// load returns the collection, reading it from disk when the cache is stale.
func load[T any](s *fileStore, c *cached[T], name string) ([]T, error) {
	if c.valid && s.now().Sub(c.loadedAt) < s.ttl {
		return c.items, nil
	}

	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		c.items, c.loadedAt, c.valid = nil, s.now(), true
		return nil, nil
	}
	if err != nil {
		s.logger.Error().Err(err).Str("file", name).Msg("failed to read data file")
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	var items []T
	if len(data) > 0 {
		if err := json.Unmarshal(data, &items); err != nil {
			s.logger.Error().Err(err).Str("file", name).Msg("failed to decode data file")
			return nil, fmt.Errorf("failed to decode %s: %w", name, err)
		}
	}

	c.items, c.loadedAt, c.valid = items, s.now(), true
	return items, nil
}

// store writes the collection to a temporary file and renames it into place.
func store[T any](s *fileStore, c *cached[T], name string, items []T) error {
	if items == nil {
		items = []T{}
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		s.logger.Error().Err(err).Str("file", name).Msg("failed to replace data file")
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}

	c.items, c.loadedAt, c.valid = items, s.now(), true
	return nil
}

// CreateOrder persists a new order.
func (s *fileStore) CreateOrder(ctx context.Context, order *model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders, err := load(s, &s.orders, OrdersFile)
	if err != nil {
		return err
	}

	next := append(cloneOrders(orders), *order.Clone())
	if err := store(s, &s.orders, OrdersFile, next); err != nil {
		return err
	}

	s.logger.Debug().Str("order_id", order.ID).Msg("order stored")
	return nil
}

// GetOrder retrieves an order by its ID.
func (s *fileStore) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders, err := load(s, &s.orders, OrdersFile)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if orders[i].ID == id {
			return orders[i].Clone(), nil
		}
	}
	return nil, nil
}

// FindOrder resolves an order by ID, order token or tracking code.
func (s *fileStore) FindOrder(ctx context.Context, identifier string) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders, err := load(s, &s.orders, OrdersFile)
	if err != nil {
		return nil, err
	}
	return findOrder(orders, identifier).Clone(), nil
}

// UpdateOrder replaces a stored order.
func (s *fileStore) UpdateOrder(ctx context.Context, order *model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders, err := load(s, &s.orders, OrdersFile)
	if err != nil {
		return err
	}

	next := cloneOrders(orders)
	for i := range next {
		if next[i].ID == order.ID {
			next[i] = *order.Clone()
			return store(s, &s.orders, OrdersFile, next)
		}
	}
	return model.ErrOrderNotFound
}

// ListOrders returns orders matching filter, newest first.
func (s *fileStore) ListOrders(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders, err := load(s, &s.orders, OrdersFile)
	if err != nil {
		return nil, err
	}
	return filterOrders(orders, filter), nil
}

// GetCustomer retrieves a customer by phone.
func (s *fileStore) GetCustomer(ctx context.Context, phone string) (*model.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	customers, err := load(s, &s.customers, CustomersFile)
	if err != nil {
		return nil, err
	}
	for _, c := range customers {
		if c.Phone == phone {
			return &c, nil
		}
	}
	return nil, nil
}

// SaveCustomer inserts or replaces a customer.
func (s *fileStore) SaveCustomer(ctx context.Context, customer *model.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	customers, err := load(s, &s.customers, CustomersFile)
	if err != nil {
		return err
	}

	next := append([]model.Customer{}, customers...)
	for i := range next {
		if next[i].Phone == customer.Phone {
			next[i] = *customer
			return store(s, &s.customers, CustomersFile, next)
		}
	}
	return store(s, &s.customers, CustomersFile, append(next, *customer))
}

// ListCustomers returns every customer.
func (s *fileStore) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	customers, err := load(s, &s.customers, CustomersFile)
	if err != nil {
		return nil, err
	}
	return append([]model.Customer{}, customers...), nil
}

// ListPendingApprovals returns approvals in the order they were queued.
func (s *fileStore) ListPendingApprovals(ctx context.Context) ([]model.PendingApproval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	approvals, err := load(s, &s.approvals, ApprovalsFile)
	if err != nil {
		return nil, err
	}
	return append([]model.PendingApproval{}, approvals...), nil
}

// AddPendingApproval queues an approval.
func (s *fileStore) AddPendingApproval(ctx context.Context, approval model.PendingApproval) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	approvals, err := load(s, &s.approvals, ApprovalsFile)
	if err != nil {
		return err
	}

	next := removeApproval(append([]model.PendingApproval{}, approvals...), approval.OrderID)
	return store(s, &s.approvals, ApprovalsFile, append(next, approval))
}

// RemovePendingApproval drops the approval for orderID.
func (s *fileStore) RemovePendingApproval(ctx context.Context, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	approvals, err := load(s, &s.approvals, ApprovalsFile)
	if err != nil {
		return err
	}

	next := removeApproval(append([]model.PendingApproval{}, approvals...), orderID)
	if len(next) == len(approvals) {
		return nil
	}
	return store(s, &s.approvals, ApprovalsFile, next)
}

// Stats reports collection sizes.
func (s *fileStore) Stats(ctx context.Context) (model.StorageStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders, err := load(s, &s.orders, OrdersFile)
	if err != nil {
		return model.StorageStats{}, err
	}
	customers, err := load(s, &s.customers, CustomersFile)
	if err != nil {
		return model.StorageStats{}, err
	}
	approvals, err := load(s, &s.approvals, ApprovalsFile)
	if err != nil {
		return model.StorageStats{}, err
	}

	return model.StorageStats{
		Orders:           len(orders),
		Customers:        len(customers),
		PendingApprovals: len(approvals),
	}, nil
}

// Reset truncates every collection file.
func (s *fileStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := store(s, &s.orders, OrdersFile, nil); err != nil {
		return err
	}
	if err := store(s, &s.customers, CustomersFile, nil); err != nil {
		return err
	}
	if err := store(s, &s.approvals, ApprovalsFile, nil); err != nil {
		return err
	}

	s.logger.Warn().Str("dir", s.dir).Msg("all data cleared")
	return nil
}

func cloneOrders(orders []model.Order) []model.Order {
	out := make([]model.Order, len(orders))
	for i := range orders {
		out[i] = *orders[i].Clone()
	}
	return out
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"batterella/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const orderColumns = `id, order_token, customer_token, type, source, priority, items, phone,
	location, created_at, status, total_amount, original_amount, discount_applied,
	estimated_time, driver_phone, tracking_code, is_repeat_customer, status_history, metadata`

// postgresStore implements Store using PostgreSQL.
type postgresStore struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgresStore creates a new PostgreSQL-backed store. The schema must already exist.
func NewPostgresStore(pool *pgxpool.Pool, logger zerolog.Logger) Store {
	return &postgresStore{
		pool:   pool,
		logger: logger.With().Str("repository", "postgres").Logger(),
	}
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID,
		&o.OrderToken,
		&o.CustomerToken,
		&o.Type,
		&o.Source,
		&o.Priority,
		&o.Items,
		&o.Phone,
		&o.Location,
		&o.Timestamp,
		&o.Status,
		&o.TotalAmount,
		&o.OriginalAmount,
		&o.DiscountApplied,
		&o.EstimatedTime,
		&o.DriverPhone,
		&o.TrackingCode,
		&o.IsRepeatCustomer,
		&o.StatusHistory,
		&o.Metadata,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// CreateOrder inserts a new order.
func (r *postgresStore) CreateOrder(ctx context.Context, order *model.Order) error {
	query := `INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`

	_, err := r.pool.Exec(ctx, query,
		order.ID,
		order.OrderToken,
		order.CustomerToken,
		order.Type,
		order.Source,
		order.Priority,
		order.Items,
		order.Phone,
		order.Location,
		order.Timestamp,
		order.Status,
		order.TotalAmount,
		order.OriginalAmount,
		order.DiscountApplied,
		order.EstimatedTime,
		order.DriverPhone,
		order.TrackingCode,
		order.IsRepeatCustomer,
		order.StatusHistory,
		order.Metadata,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", order.ID).Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().Str("order_id", order.ID).Msg("order created")
	return nil
}

// GetOrder retrieves an order by its ID.
func (r *postgresStore) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}
	return order, nil
}

// FindOrder resolves an order by ID, order token or tracking code.
func (r *postgresStore) FindOrder(ctx context.Context, identifier string) (*model.Order, error) {
	if identifier == "" {
		return nil, nil
	}

	query := `SELECT ` + orderColumns + ` FROM orders
		WHERE id = $1 OR order_token = $1 OR tracking_code = $2
		ORDER BY (id = $1) DESC, (order_token = $1) DESC, created_at DESC
		LIMIT 1`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, identifier, strings.ToUpper(identifier)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("identifier", identifier).Msg("failed to find order")
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	return order, nil
}

// UpdateOrder replaces the mutable columns of a stored order.
func (r *postgresStore) UpdateOrder(ctx context.Context, order *model.Order) error {
	query := `
		UPDATE orders SET
			customer_token = $2, priority = $3, items = $4, location = $5, status = $6,
			total_amount = $7, original_amount = $8, discount_applied = $9, estimated_time = $10,
			driver_phone = $11, is_repeat_customer = $12, status_history = $13, metadata = $14
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		order.ID,
		order.CustomerToken,
		order.Priority,
		order.Items,
		order.Location,
		order.Status,
		order.TotalAmount,
		order.OriginalAmount,
		order.DiscountApplied,
		order.EstimatedTime,
		order.DriverPhone,
		order.IsRepeatCustomer,
		order.StatusHistory,
		order.Metadata,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", order.ID).Msg("failed to update order")
		return fmt.Errorf("failed to update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}
	return nil
}

// ListOrders returns orders matching filter, newest first.
func (r *postgresStore) ListOrders(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if filter.Type != "" {
		add("type = $%d", filter.Type)
	}
	if filter.Source != "" {
		add("source = $%d", filter.Source)
	}
	if filter.Phone != "" {
		add("strpos(phone, $%d) > 0", filter.Phone)
	}
	if filter.DateFrom != nil {
		add("created_at >= $%d", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		add("created_at <= $%d", *filter.DateTo)
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query orders")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

const customerColumns = `phone, customer_token, order_count, total_spent, first_order_date,
	last_order_date, loyalty_points, discount_eligible`

func scanCustomer(row pgx.Row) (*model.Customer, error) {
	var c model.Customer
	err := row.Scan(
		&c.Phone,
		&c.CustomerToken,
		&c.OrderCount,
		&c.TotalSpent,
		&c.FirstOrderDate,
		&c.LastOrderDate,
		&c.LoyaltyPoints,
		&c.DiscountEligible,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetCustomer retrieves a customer by phone.
func (r *postgresStore) GetCustomer(ctx context.Context, phone string) (*model.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE phone = $1`

	customer, err := scanCustomer(r.pool.QueryRow(ctx, query, phone))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to query customer")
		return nil, fmt.Errorf("failed to query customer: %w", err)
	}
	return customer, nil
}

// SaveCustomer upserts a customer keyed by phone.
func (r *postgresStore) SaveCustomer(ctx context.Context, customer *model.Customer) error {
	query := `
		INSERT INTO customers (` + customerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (phone) DO UPDATE SET
			customer_token = EXCLUDED.customer_token,
			order_count = EXCLUDED.order_count,
			total_spent = EXCLUDED.total_spent,
			first_order_date = EXCLUDED.first_order_date,
			last_order_date = EXCLUDED.last_order_date,
			loyalty_points = EXCLUDED.loyalty_points,
			discount_eligible = EXCLUDED.discount_eligible
	`

	_, err := r.pool.Exec(ctx, query,
		customer.Phone,
		customer.CustomerToken,
		customer.OrderCount,
		customer.TotalSpent,
		customer.FirstOrderDate,
		customer.LastOrderDate,
		customer.LoyaltyPoints,
		customer.DiscountEligible,
	)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to save customer")
		return fmt.Errorf("failed to save customer: %w", err)
	}
	return nil
}

// ListCustomers returns every customer.
func (r *postgresStore) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+customerColumns+` FROM customers ORDER BY first_order_date`)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query customers")
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	customers := []model.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating customers: %w", err)
	}
	return customers, nil
}

// ListPendingApprovals returns approvals in the order they were queued.
func (r *postgresStore) ListPendingApprovals(ctx context.Context) ([]model.PendingApproval, error) {
	query := `
		SELECT phone, order_id, order_token, customer_token, created_at,
			original_amount, discount_amount, discounted_amount
		FROM pending_approvals
		ORDER BY created_at, order_id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query pending approvals")
		return nil, fmt.Errorf("failed to query pending approvals: %w", err)
	}
	defer rows.Close()

	approvals := []model.PendingApproval{}
	for rows.Next() {
		var a model.PendingApproval
		err := rows.Scan(
			&a.Phone,
			&a.OrderID,
			&a.OrderToken,
			&a.CustomerToken,
			&a.Timestamp,
			&a.OriginalAmount,
			&a.DiscountAmount,
			&a.DiscountedAmount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending approval: %w", err)
		}
		approvals = append(approvals, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pending approvals: %w", err)
	}
	return approvals, nil
}

// AddPendingApproval queues an approval, replacing any existing one for the order.
func (r *postgresStore) AddPendingApproval(ctx context.Context, a model.PendingApproval) error {
	query := `
		INSERT INTO pending_approvals (phone, order_id, order_token, customer_token, created_at,
			original_amount, discount_amount, discounted_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (order_id) DO UPDATE SET
			phone = EXCLUDED.phone,
			order_token = EXCLUDED.order_token,
			customer_token = EXCLUDED.customer_token,
			created_at = EXCLUDED.created_at,
			original_amount = EXCLUDED.original_amount,
			discount_amount = EXCLUDED.discount_amount,
			discounted_amount = EXCLUDED.discounted_amount
	`

	_, err := r.pool.Exec(ctx, query,
		a.Phone,
		a.OrderID,
		a.OrderToken,
		a.CustomerToken,
		a.Timestamp,
		a.OriginalAmount,
		a.DiscountAmount,
		a.DiscountedAmount,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", a.OrderID).Msg("failed to add pending approval")
		return fmt.Errorf("failed to add pending approval: %w", err)
	}
	return nil
}

// RemovePendingApproval drops the approval for orderID.
func (r *postgresStore) RemovePendingApproval(ctx context.Context, orderID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM pending_approvals WHERE order_id = $1`, orderID); err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID).Msg("failed to remove pending approval")
		return fmt.Errorf("failed to remove pending approval: %w", err)
	}
	return nil
}

// Stats reports collection sizes.
func (r *postgresStore) Stats(ctx context.Context) (model.StorageStats, error) {
	var stats model.StorageStats
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM orders),
			(SELECT COUNT(*) FROM customers),
			(SELECT COUNT(*) FROM pending_approvals)
	`).Scan(&stats.Orders, &stats.Customers, &stats.PendingApprovals)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query storage stats")
		return model.StorageStats{}, fmt.Errorf("failed to query storage stats: %w", err)
	}
	return stats, nil
}

// Reset truncates every table.
func (r *postgresStore) Reset(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, `TRUNCATE orders, customers, pending_approvals`); err != nil {
		r.logger.Error().Err(err).Msg("failed to reset data")
		return fmt.Errorf("failed to reset data: %w", err)
	}
	r.logger.Warn().Msg("all data cleared")
	return nil
}

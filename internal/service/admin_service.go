package service

import (
	"context"
	"fmt"
	"sort"

	"batterella/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// adminService implements AdminService.
type adminService struct {
	*base
	logger zerolog.Logger
}

func newAdminService(b *base, logger zerolog.Logger) AdminService {
	return &adminService{
		base:   b,
		logger: logger.With().Str("service", "admin").Logger(),
	}
}

// Stats summarises order volume, revenue and today's activity. Days are UTC.
func (s *adminService) Stats(ctx context.Context) (*model.DashboardStats, error) {
	orders, err := s.store.ListOrders(ctx, model.OrderFilter{})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load orders for stats")
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}

	today := s.opts.Now().UTC().Format("2006-01-02")

	var (
		stats        model.OrderStats
		revenue      decimal.Decimal
		todayRevenue decimal.Decimal
	)
	byStatus := make(map[model.Status]int, len(model.Statuses))
	byHour := make(map[string]int)

	for i := range orders {
		o := &orders[i]
		amount := decimal.NewFromFloat(o.TotalAmount)

		stats.Total++
		revenue = revenue.Add(amount)
		byStatus[o.Status]++

		switch o.Status {
		case model.StatusPending:
			stats.Pending++
		case model.StatusPreparing:
			stats.Preparing++
		case model.StatusReady:
			stats.Ready++
		case model.StatusDelivered:
			stats.Delivered++
		}

		ts := o.Timestamp.UTC()
		if ts.Format("2006-01-02") == today {
			stats.Today++
			todayRevenue = todayRevenue.Add(amount)
			byHour[ts.Format("15")+":00"]++
		}
	}

	stats.Revenue = revenue.InexactFloat64()
	stats.TodayRevenue = todayRevenue.InexactFloat64()

	result := &model.DashboardStats{
		Stats:    stats,
		ByStatus: make([]model.StatusCount, 0, len(model.Statuses)),
		ByHour:   make([]model.HourCount, 0, len(byHour)),
	}
	for _, status := range model.Statuses {
		result.ByStatus = append(result.ByStatus, model.StatusCount{Status: status, Count: byStatus[status]})
	}
	for hour, count := range byHour {
		result.ByHour = append(result.ByHour, model.HourCount{Hour: hour, Count: count})
	}
	sort.Slice(result.ByHour, func(i, j int) bool {
		return result.ByHour[i].Hour < result.ByHour[j].Hour
	})

	return result, nil
}

// StorageStats reports record counts per collection.
func (s *adminService) StorageStats(ctx context.Context) (model.StorageStats, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return model.StorageStats{}, fmt.Errorf("failed to get storage stats: %w", err)
	}
	return stats, nil
}

// ExportOrders returns every order, newest first.
func (s *adminService) ExportOrders(ctx context.Context) ([]model.Order, error) {
	orders, err := s.store.ListOrders(ctx, model.OrderFilter{})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load orders for export")
		return nil, fmt.Errorf("failed to export orders: %w", err)
	}
	return orders, nil
}

// Reset deletes all data.
func (s *adminService) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Reset(ctx); err != nil {
		s.logger.Error().Err(err).Msg("failed to reset storage")
		return fmt.Errorf("failed to reset storage: %w", err)
	}

	s.logger.Warn().Msg("all data reset")
	return nil
}

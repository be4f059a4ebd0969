package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"batterella/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

// testOrder builds a stored order; n offsets the timestamp so ordering is deterministic.
func testOrder(n int, phone string, status model.Status) *model.Order {
	return &model.Order{
		ID:            fmt.Sprintf("0190000-%04d-abc%03d", n, n),
		OrderToken:    fmt.Sprintf("ORD_%04d", n),
		CustomerToken: "CUST_" + phone,
		Type:          model.OrderTypeDelivery,
		Source:        model.SourceOnline,
		Priority:      model.PriorityNormal,
		Items: []model.CartItem{
			{ID: "item-1", Product: "classic", ProductPrice: 10, Quantity: 2,
				Toppings: []model.Topping{{Name: "cheese", Price: 1}}},
		},
		Phone:          phone,
		Location:       "12 High St",
		Timestamp:      baseTime.Add(time.Duration(n) * time.Minute),
		Status:         status,
		TotalAmount:    22,
		OriginalAmount: 22,
		EstimatedTime:  45,
		TrackingCode:   fmt.Sprintf("TRK%03d", n),
		StatusHistory: []model.StatusEntry{
			{Status: status, Timestamp: baseTime, Note: "Order created via online", UpdatedBy: "system"},
		},
		Metadata: model.Metadata{IP: "10.0.0.1", UserAgent: "test"},
	}
}

// runStoreContract exercises the behaviour every Store backend must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("GetOrder returns nil for unknown id", func(t *testing.T) {
		s := newStore(t)
		order, err := s.GetOrder(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, order)
	})

	t.Run("CreateOrder then GetOrder round trips", func(t *testing.T) {
		s := newStore(t)
		in := testOrder(1, "555-0100", model.StatusConfirmed)
		require.NoError(t, s.CreateOrder(ctx, in))

		out, err := s.GetOrder(ctx, in.ID)
		require.NoError(t, err)
		require.NotNil(t, out)
		assert.Equal(t, in.ID, out.ID)
		assert.Equal(t, in.Items, out.Items)
		assert.Equal(t, in.StatusHistory[0].Note, out.StatusHistory[0].Note)
		assert.True(t, in.Timestamp.Equal(out.Timestamp))
		assert.Equal(t, in.Metadata, out.Metadata)
		assert.Equal(t, 22.0, out.TotalAmount)
	})

	t.Run("returned orders are copies", func(t *testing.T) {
		s := newStore(t)
		in := testOrder(1, "555-0100", model.StatusConfirmed)
		require.NoError(t, s.CreateOrder(ctx, in))

		out, err := s.GetOrder(ctx, in.ID)
		require.NoError(t, err)
		out.Status = model.StatusCancelled
		out.Items[0].Quantity = 99

		again, err := s.GetOrder(ctx, in.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusConfirmed, again.Status)
		assert.Equal(t, 2, again.Items[0].Quantity)
	})

	t.Run("FindOrder resolves id, token and tracking code", func(t *testing.T) {
		s := newStore(t)
		in := testOrder(7, "555-0100", model.StatusPending)
		require.NoError(t, s.CreateOrder(ctx, in))

		for _, identifier := range []string{in.ID, in.OrderToken, in.TrackingCode, "trk007"} {
			out, err := s.FindOrder(ctx, identifier)
			require.NoError(t, err, identifier)
			require.NotNil(t, out, identifier)
			assert.Equal(t, in.ID, out.ID)
		}

		out, err := s.FindOrder(ctx, "nothing")
		require.NoError(t, err)
		assert.Nil(t, out)
	})

	t.Run("UpdateOrder replaces the stored order", func(t *testing.T) {
		s := newStore(t)
		in := testOrder(1, "555-0100", model.StatusConfirmed)
		require.NoError(t, s.CreateOrder(ctx, in))

		in.AppendStatus(model.StatusPreparing, baseTime.Add(time.Hour), "kitchen", "admin")
		in.DriverPhone = "555-0999"
		require.NoError(t, s.UpdateOrder(ctx, in))

		out, err := s.GetOrder(ctx, in.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusPreparing, out.Status)
		assert.Equal(t, "555-0999", out.DriverPhone)
		assert.Len(t, out.StatusHistory, 2)
	})

	t.Run("UpdateOrder on unknown order", func(t *testing.T) {
		s := newStore(t)
		err := s.UpdateOrder(ctx, testOrder(1, "555-0100", model.StatusConfirmed))
		assert.ErrorIs(t, err, model.ErrOrderNotFound)
	})

	t.Run("ListOrders filters and sorts newest first", func(t *testing.T) {
		s := newStore(t)
		a := testOrder(1, "555-0100", model.StatusDelivered)
		b := testOrder(2, "555-0200", model.StatusPending)
		c := testOrder(3, "555-0100", model.StatusPending)
		c.Type = model.OrderTypeWalkIn
		c.Source = model.SourceWalkIn
		for _, o := range []*model.Order{a, b, c} {
			require.NoError(t, s.CreateOrder(ctx, o))
		}

		all, err := s.ListOrders(ctx, model.OrderFilter{})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []string{c.ID, b.ID, a.ID}, []string{all[0].ID, all[1].ID, all[2].ID})

		pending, err := s.ListOrders(ctx, model.OrderFilter{Status: model.StatusPending})
		require.NoError(t, err)
		assert.Len(t, pending, 2)

		walkIn, err := s.ListOrders(ctx, model.OrderFilter{Type: model.OrderTypeWalkIn, Source: model.SourceWalkIn})
		require.NoError(t, err)
		require.Len(t, walkIn, 1)
		assert.Equal(t, c.ID, walkIn[0].ID)

		byPhone, err := s.ListOrders(ctx, model.OrderFilter{Phone: "0100"})
		require.NoError(t, err)
		assert.Len(t, byPhone, 2)

		from := baseTime.Add(90 * time.Second)
		to := baseTime.Add(150 * time.Second)
		ranged, err := s.ListOrders(ctx, model.OrderFilter{DateFrom: &from, DateTo: &to})
		require.NoError(t, err)
		require.Len(t, ranged, 1)
		assert.Equal(t, b.ID, ranged[0].ID)
	})

	t.Run("customers are upserted by phone", func(t *testing.T) {
		s := newStore(t)

		missing, err := s.GetCustomer(ctx, "555-0100")
		require.NoError(t, err)
		assert.Nil(t, missing)

		c := &model.Customer{Phone: "555-0100", CustomerToken: "CUST_1"}
		c.RecordOrder(22.5, baseTime)
		require.NoError(t, s.SaveCustomer(ctx, c))

		c.RecordOrder(10, baseTime.Add(time.Hour))
		c.DiscountEligible = true
		require.NoError(t, s.SaveCustomer(ctx, c))

		out, err := s.GetCustomer(ctx, "555-0100")
		require.NoError(t, err)
		require.NotNil(t, out)
		assert.Equal(t, 2, out.OrderCount)
		assert.Equal(t, 32.5, out.TotalSpent)
		assert.Equal(t, 32, out.LoyaltyPoints)
		assert.True(t, out.DiscountEligible)
		assert.True(t, out.FirstOrderDate.Equal(baseTime))

		all, err := s.ListCustomers(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("pending approvals are queued and removed", func(t *testing.T) {
		s := newStore(t)

		first := model.PendingApproval{Phone: "555-0100", OrderID: "o1", Timestamp: baseTime, OriginalAmount: 100, DiscountAmount: 10, DiscountedAmount: 90}
		second := model.PendingApproval{Phone: "555-0200", OrderID: "o2", Timestamp: baseTime.Add(time.Minute), OriginalAmount: 50, DiscountAmount: 5, DiscountedAmount: 45}
		require.NoError(t, s.AddPendingApproval(ctx, first))
		require.NoError(t, s.AddPendingApproval(ctx, second))

		// Re-adding replaces rather than duplicates.
		require.NoError(t, s.AddPendingApproval(ctx, first))

		approvals, err := s.ListPendingApprovals(ctx)
		require.NoError(t, err)
		assert.Len(t, approvals, 2)

		require.NoError(t, s.RemovePendingApproval(ctx, "o1"))
		require.NoError(t, s.RemovePendingApproval(ctx, "unknown"))

		approvals, err = s.ListPendingApprovals(ctx)
		require.NoError(t, err)
		require.Len(t, approvals, 1)
		assert.Equal(t, "o2", approvals[0].OrderID)
		assert.Equal(t, 45.0, approvals[0].DiscountedAmount)
	})

	t.Run("Stats and Reset", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.CreateOrder(ctx, testOrder(1, "555-0100", model.StatusPending)))
		require.NoError(t, s.CreateOrder(ctx, testOrder(2, "555-0100", model.StatusPending)))
		require.NoError(t, s.SaveCustomer(ctx, &model.Customer{Phone: "555-0100", CustomerToken: "CUST_1", FirstOrderDate: baseTime, LastOrderDate: baseTime}))
		require.NoError(t, s.AddPendingApproval(ctx, model.PendingApproval{Phone: "555-0100", OrderID: "x", Timestamp: baseTime}))

		stats, err := s.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, model.StorageStats{Orders: 2, Customers: 1, PendingApprovals: 1}, stats)

		require.NoError(t, s.Reset(ctx))

		stats, err = s.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, model.StorageStats{}, stats)

		orders, err := s.ListOrders(ctx, model.OrderFilter{})
		require.NoError(t, err)
		assert.Empty(t, orders)
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		return NewMemoryStore(zerolog.Nop())
	})
}

func TestFileStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		s, err := NewFileStore(t.TempDir(), 30*time.Second, zerolog.Nop())
		require.NoError(t, err)
		return s
	})
}

package service

import (
	"context"
	"testing"

	"batterella/internal/model"
	"batterella/internal/realtime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createRepeatOrder places a delivered order for phone followed by a repeat order.
func createRepeatOrder(t *testing.T, svc *Services, phone string, price float64) *model.Order {
	t.Helper()
	ctx := context.Background()

	first, err := svc.Orders.CreateOrder(ctx, deliveryRequest(phone, 50))
	require.NoError(t, err)
	markStatus(t, svc, first.ID, model.StatusDelivered)

	repeat, err := svc.Orders.CreateOrder(ctx, deliveryRequest(phone, price))
	require.NoError(t, err)
	require.True(t, repeat.IsRepeatCustomer)
	return repeat
}

func TestDiscountService_ListPending(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestServices(t)

	repeat := createRepeatOrder(t, svc, "555-0100", 80)

	views, err := svc.Discounts.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)

	view := views[0]
	assert.Equal(t, repeat.ID, view.OrderID)
	assert.Equal(t, 80.0, view.OriginalAmount)
	assert.Equal(t, 8.0, view.DiscountAmount)
	assert.Equal(t, 72.0, view.DiscountedAmount)
	require.NotNil(t, view.Order)
	assert.Equal(t, repeat.TrackingCode, view.Order.TrackingCode)
	assert.Equal(t, 1, view.Order.ItemCount)
	require.NotNil(t, view.Customer)
	assert.Equal(t, 2, view.Customer.OrderCount)
	assert.True(t, view.Customer.DiscountEligible)
}

func TestDiscountService_Approve(t *testing.T) {
	ctx := context.Background()
	invalid := 150.0
	zero := 0.0
	quarter := 25.0

	tests := []struct {
		name         string
		byToken      bool
		percent      *float64
		wantErr      error
		wantPercent  float64
		wantTotal    float64
		wantOriginal float64
	}{
		{name: "default percent", wantPercent: 10, wantTotal: 72, wantOriginal: 80},
		{name: "explicit percent by token", byToken: true, percent: &quarter, wantPercent: 25, wantTotal: 60, wantOriginal: 80},
		{name: "percent above 100", percent: &invalid, wantErr: model.ErrInvalidPercent},
		{name: "zero percent", percent: &zero, wantErr: model.ErrInvalidPercent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, _ := newTestServices(t)
			repeat := createRepeatOrder(t, svc, "555-0100", 80)

			identifier := repeat.ID
			if tt.byToken {
				identifier = repeat.OrderToken
			}

			result, err := svc.Discounts.Approve(ctx, identifier, tt.percent)

			stored, getErr := store.GetOrder(ctx, repeat.ID)
			require.NoError(t, getErr)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, result)
				assert.Zero(t, stored.DiscountApplied)
				assert.Equal(t, model.StatusPending, stored.Status)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantPercent, result.DiscountPercent)
			assert.Equal(t, tt.wantTotal, result.DiscountedAmount)
			assert.Equal(t, tt.wantOriginal, result.OriginalAmount)
			assert.Equal(t, tt.wantTotal, stored.TotalAmount)
			assert.Equal(t, tt.wantOriginal, stored.OriginalAmount)
			assert.Equal(t, model.StatusConfirmed, stored.Status)
		})
	}
}

func TestDiscountService_Approve_KeepsTerminalStatus(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestServices(t)
	repeat := createRepeatOrder(t, svc, "555-0100", 80)
	markStatus(t, svc, repeat.ID, model.StatusDelivered)

	result, err := svc.Discounts.Approve(ctx, repeat.ID, nil)

	require.NoError(t, err)
	assert.Equal(t, model.StatusDelivered, result.Order.Status)
}

func TestDiscountService_Approve_UnknownOrder(t *testing.T) {
	svc, _, _ := newTestServices(t)

	_, err := svc.Discounts.Approve(context.Background(), "missing", nil)
	assert.ErrorIs(t, err, model.ErrOrderNotFound)

	_, err = svc.Discounts.Approve(context.Background(), "", nil)
	assert.ErrorIs(t, err, model.NewValidationError(""))
}

func TestDiscountService_Apply(t *testing.T) {
	ctx := context.Background()

	t.Run("first time customer is not eligible", func(t *testing.T) {
		svc, store, _ := newTestServices(t)
		order, err := svc.Orders.CreateOrder(ctx, deliveryRequest("555-0100", 40))
		require.NoError(t, err)

		_, err = svc.Discounts.Apply(ctx, order.ID, nil)
		assert.ErrorIs(t, err, model.ErrNotRepeatCustomer)

		stored, err := store.GetOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, 40.0, stored.TotalAmount)
	})

	t.Run("customer becomes eligible after another delivery", func(t *testing.T) {
		svc, _, _ := newTestServices(t)
		open, err := svc.Orders.CreateOrder(ctx, deliveryRequest("555-0100", 40))
		require.NoError(t, err)
		other, err := svc.Orders.CreateOrder(ctx, walkInRequest("555-0100", 10))
		require.NoError(t, err)
		markStatus(t, svc, other.ID, model.StatusDelivered)

		result, err := svc.Discounts.Apply(ctx, open.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, 36.0, result.Order.TotalAmount)
		assert.Equal(t, 4.0, result.Savings)
	})

	t.Run("already discounted is checked first", func(t *testing.T) {
		svc, _, _ := newTestServices(t)
		repeat := createRepeatOrder(t, svc, "555-0100", 80)
		_, err := svc.Discounts.Approve(ctx, repeat.ID, nil)
		require.NoError(t, err)

		_, err = svc.Discounts.Apply(ctx, repeat.ID, nil)
		assert.ErrorIs(t, err, model.ErrDiscountAlreadyApplied)
	})
}

func TestDiscountService_Reject(t *testing.T) {
	ctx := context.Background()
	svc, store, publisher := newTestServices(t)
	repeat := createRepeatOrder(t, svc, "555-0100", 80)

	rejection, err := svc.Discounts.Reject(ctx, repeat.OrderToken)

	require.NoError(t, err)
	assert.True(t, rejection.Success)
	assert.Equal(t, "Discount request rejected and order confirmed", rejection.Message)
	assert.Equal(t, model.StatusConfirmed, rejection.Order.Status)
	assert.Equal(t, 80.0, rejection.Order.TotalAmount)
	assert.Zero(t, rejection.Order.DiscountApplied)

	pending, err := store.ListPendingApprovals(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	types := publisher.eventTypes()
	assert.Equal(t, realtime.TypeDiscountRejected, types[len(types)-1])

	again, err := svc.Discounts.Reject(ctx, repeat.ID)
	require.NoError(t, err)
	assert.Len(t, again.Order.StatusHistory, len(rejection.Order.StatusHistory), "confirmed orders are not re-confirmed")
}

func TestDiscountService_Reject_LeavesCancelledOrder(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestServices(t)
	repeat := createRepeatOrder(t, svc, "555-0100", 80)
	markStatus(t, svc, repeat.ID, model.StatusCancelled)

	rejection, err := svc.Discounts.Reject(ctx, repeat.ID)

	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, rejection.Order.Status)
}

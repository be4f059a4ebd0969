package discount

import (
	"testing"
	"time"

	"batterella/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderTotal(t *testing.T) {
	tests := []struct {
		name     string
		items    []model.CartItem
		expected float64
	}{
		{
			name:     "empty cart",
			items:    nil,
			expected: 0,
		},
		{
			name: "single item without toppings",
			items: []model.CartItem{
				{Product: "classic", ProductPrice: 8.5, Quantity: 2},
			},
			expected: 17,
		},
		{
			name: "toppings are added per unit",
			items: []model.CartItem{
				{
					Product:      "loaded",
					ProductPrice: 10,
					Quantity:     3,
					Toppings: []model.Topping{
						{Name: "cheese", Price: 1.5},
						{Name: "bacon", Price: 2},
					},
				},
				{Product: "side", ProductPrice: 4, Quantity: 1},
			},
			expected: 44.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, OrderTotal(tt.items), 1e-9)
		})
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		name        string
		amount      float64
		percent     float64
		wantOff     float64
		wantTotal   float64
		expectError error
	}{
		{name: "ten percent", amount: 200, percent: 10, wantOff: 20, wantTotal: 180},
		{name: "full discount", amount: 50, percent: 100, wantOff: 50, wantTotal: 0},
		{name: "fractional result is not rounded", amount: 33.33, percent: 15, wantOff: 4.9995, wantTotal: 28.3305},
		{name: "zero percent", amount: 100, percent: 0, expectError: model.ErrInvalidPercent},
		{name: "negative percent", amount: 100, percent: -5, expectError: model.ErrInvalidPercent},
		{name: "over one hundred", amount: 100, percent: 100.5, expectError: model.ErrInvalidPercent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Apply(tt.amount, tt.percent)

			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.amount, b.Original)
			assert.InDelta(t, tt.wantOff, b.Amount, 1e-9)
			assert.InDelta(t, tt.wantTotal, b.Discounted, 1e-9)
			assert.InDelta(t, b.Original*(1-tt.percent/100), b.Discounted, 1e-9)
		})
	}
}

func TestBreakdown_Messages(t *testing.T) {
	b, err := Apply(200, 10)
	require.NoError(t, err)

	assert.Equal(t, "10% discount applied (20.00 off)", b.Note())
	assert.Equal(t, "10% discount applied and order confirmed", b.Message())

	b, err = Apply(80, 12.5)
	require.NoError(t, err)
	assert.Equal(t, "12.5% discount applied (10.00 off)", b.Note())
}

func TestNewPendingApproval(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	order := &model.Order{
		ID:            "order-2",
		OrderToken:    "ORD_A",
		CustomerToken: "CUST_A",
		Phone:         "555-0100",
		TotalAmount:   200,
	}

	approval, err := NewPendingApproval(order, DefaultPercent, at)

	require.NoError(t, err)
	assert.Equal(t, "555-0100", approval.Phone)
	assert.Equal(t, "order-2", approval.OrderID)
	assert.Equal(t, "ORD_A", approval.OrderToken)
	assert.Equal(t, "CUST_A", approval.CustomerToken)
	assert.Equal(t, at, approval.Timestamp)
	assert.Equal(t, 200.0, approval.OriginalAmount)
	assert.InDelta(t, 20, approval.DiscountAmount, 1e-9)
	assert.InDelta(t, 180, approval.DiscountedAmount, 1e-9)

	_, err = NewPendingApproval(order, 0, at)
	assert.ErrorIs(t, err, model.ErrInvalidPercent)
}

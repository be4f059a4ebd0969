package discount

import (
	"fmt"
	"time"

	"batterella/internal/model"

	"github.com/shopspring/decimal"
)

// DefaultPercent is the discount offered to repeat customers when none is configured.
const DefaultPercent = 10.0

var hundred = decimal.NewFromInt(100)

// ValidatePercent rejects percentages outside (0, 100].
func ValidatePercent(percent float64) error {
	if percent <= 0 || percent > 100 {
		return model.ErrInvalidPercent
	}
	return nil
}

// ItemTotal returns (productPrice + sum of topping prices) * quantity for one line.
func ItemTotal(item model.CartItem) decimal.Decimal {
	unit := decimal.NewFromFloat(item.ProductPrice)
	for _, topping := range item.Toppings {
		unit = unit.Add(decimal.NewFromFloat(topping.Price))
	}
	return unit.Mul(decimal.NewFromInt(int64(item.Quantity)))
}

// OrderTotal sums every line of the cart.
func OrderTotal(items []model.CartItem) float64 {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(ItemTotal(item))
	}
	return total.InexactFloat64()
}

// Breakdown is the outcome of applying a percentage to an amount.
type Breakdown struct {
	Percent    float64
	Original   float64
	Amount     float64
	Discounted float64
}

// Apply computes amount * percent / 100 and the remaining total. No rounding is applied.
func Apply(amount, percent float64) (Breakdown, error) {
	if err := ValidatePercent(percent); err != nil {
		return Breakdown{}, err
	}

	original := decimal.NewFromFloat(amount)
	off := original.Mul(decimal.NewFromFloat(percent)).Div(hundred)

	return Breakdown{
		Percent:    percent,
		Original:   amount,
		Amount:     off.InexactFloat64(),
		Discounted: original.Sub(off).InexactFloat64(),
	}, nil
}

// Note is the status history note recorded when a discount is applied.
func (b Breakdown) Note() string {
	return fmt.Sprintf("%g%% discount applied (%.2f off)", b.Percent, b.Amount)
}

// Message is the confirmation returned to the admin console.
func (b Breakdown) Message() string {
	return fmt.Sprintf("%g%% discount applied and order confirmed", b.Percent)
}

// NewPendingApproval builds the approval preview for an order at the given percent.
func NewPendingApproval(order *model.Order, percent float64, at time.Time) (model.PendingApproval, error) {
	b, err := Apply(order.TotalAmount, percent)
	if err != nil {
		return model.PendingApproval{}, err
	}

	return model.PendingApproval{
		Phone:            order.Phone,
		OrderID:          order.ID,
		OrderToken:       order.OrderToken,
		CustomerToken:    order.CustomerToken,
		Timestamp:        at,
		OriginalAmount:   b.Original,
		DiscountAmount:   b.Amount,
		DiscountedAmount: b.Discounted,
	}, nil
}

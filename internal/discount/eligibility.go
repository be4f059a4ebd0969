// Package discount decides which orders qualify for a repeat-customer discount
// and computes the discounted amounts.
package discount

import "batterella/internal/model"

// IsRepeatCustomer reports whether phone has at least one delivered order other
// than excludeID. Delivery and walk-in orders count alike.
func IsRepeatCustomer(orders []model.Order, phone, excludeID string) bool {
	for i := range orders {
		o := &orders[i]
		if o.ID == excludeID {
			continue
		}
		if o.Phone == phone && o.Status == model.StatusDelivered {
			return true
		}
	}
	return false
}

// IsEligible reports whether a discount may be applied to order directly.
// Orders flagged at creation qualify, as do orders whose customer has since
// had another order delivered.
func IsEligible(order *model.Order, orders []model.Order) bool {
	if order.IsRepeatCustomer {
		return true
	}
	return IsRepeatCustomer(orders, order.Phone, order.ID)
}

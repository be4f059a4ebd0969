package model

import "time"

// OrderRequest represents the request payload for creating an order.
type OrderRequest struct {
	Type     OrderType  `json:"type"`
	Items    []CartItem `json:"items"`
	Phone    string     `json:"phone"`
	Location string     `json:"location,omitempty"`
	Source   Source     `json:"source,omitempty"`
	Priority Priority   `json:"priority,omitempty"`
	Metadata Metadata   `json:"-"`
}

// OrderCreatedResponse is returned from order creation.
type OrderCreatedResponse struct {
	*Order
	Message string `json:"message"`
}

// OrderDetails is an order together with its customer's summary.
type OrderDetails struct {
	*Order
	Customer *CustomerSummary `json:"customer"`
}

// OrderList is the admin listing payload.
type OrderList struct {
	Orders           []Order           `json:"orders"`
	PendingDiscounts []PendingApproval `json:"pendingDiscounts"`
}

// OrderUpdates is the polling payload for clients without a push channel.
type OrderUpdates struct {
	Orders    []Order   `json:"orders"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderUpdateRequest carries the mutable fields of an order. Nil fields are left untouched.
type OrderUpdateRequest struct {
	Status        *string `json:"status,omitempty"`
	EstimatedTime *int    `json:"estimatedTime,omitempty"`
	DriverPhone   *string `json:"driverPhone,omitempty"`
	Note          string  `json:"note,omitempty"`
	UpdatedBy     string  `json:"updatedBy,omitempty"`
}

// TrackRequest looks an order up by the last six characters of its ID and phone.
type TrackRequest struct {
	OrderID string `json:"orderId"`
	Phone   string `json:"phone"`
}

// TrackingUpdateRequest is the internal status update payload of the tracking endpoint.
type TrackingUpdateRequest struct {
	Identifier    string  `json:"identifier"`
	Status        string  `json:"status"`
	Note          string  `json:"note,omitempty"`
	UpdatedBy     string  `json:"updatedBy,omitempty"`
	EstimatedTime *int    `json:"estimatedTime,omitempty"`
	DriverPhone   *string `json:"driverPhone,omitempty"`
}

// TrackingInfo is the customer-facing tracking view of an order.
type TrackingInfo struct {
	Order    *Order           `json:"order"`
	Customer *CustomerSummary `json:"customer"`
	Tracking TrackingProgress `json:"tracking"`
}

// TrackingProgress summarises how far along an order is.
type TrackingProgress struct {
	CurrentStatus       Status     `json:"currentStatus"`
	StatusCount         int        `json:"statusCount"`
	LastUpdated         *time.Time `json:"lastUpdated,omitempty"`
	EstimatedCompletion *time.Time `json:"estimatedCompletion"`
	Progress            int        `json:"progress"`
}

// Discount actions accepted by the approval endpoint.
const (
	DiscountActionApprove = "approve"
	DiscountActionReject  = "reject"
)

// DiscountActionRequest approves or rejects a pending discount.
type DiscountActionRequest struct {
	OrderID         string   `json:"orderId,omitempty"`
	OrderToken      string   `json:"orderToken,omitempty"`
	Action          string   `json:"action"`
	DiscountPercent *float64 `json:"discountPercent,omitempty"`
}

// Identifier returns the order ID, falling back to the order token.
func (r *DiscountActionRequest) Identifier() string {
	if r.OrderID != "" {
		return r.OrderID
	}
	return r.OrderToken
}

// ApplyDiscountRequest applies a discount to an eligible order.
type ApplyDiscountRequest struct {
	OrderID         string   `json:"orderId"`
	DiscountPercent *float64 `json:"discountPercent,omitempty"`
}

// DiscountResult is returned after a discount has been applied.
type DiscountResult struct {
	Success          bool    `json:"success"`
	Message          string  `json:"message"`
	Order            *Order  `json:"order"`
	Savings          float64 `json:"savings"`
	OriginalAmount   float64 `json:"originalAmount"`
	DiscountedAmount float64 `json:"discountedAmount"`
	DiscountPercent  float64 `json:"discountPercent"`
}

// DiscountRejection is returned after a discount request has been declined.
type DiscountRejection struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Order   *Order `json:"order"`
}

// TrackingUpdateResult is returned from the tracking status update endpoint.
type TrackingUpdateResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Order   *Order `json:"order"`
}

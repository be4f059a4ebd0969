package realtime

import (
	"encoding/json"
	"fmt"
	"time"

	"batterella/internal/model"
)

// Event types pushed to subscribers.
const (
	TypeConnection             = "connection"
	TypeInitialData            = "initial_data"
	TypePing                   = "ping"
	TypeNewOrder               = "new_order"
	TypeOrderUpdated           = "order_updated"
	TypeOrderCancelled         = "order_cancelled"
	TypeDiscountApprovalNeeded = "discount_approval_needed"
	TypeDiscountApplied        = "discount_applied"
	TypeDiscountRejected       = "discount_rejected"
)

// Event is a message delivered to every subscriber. Implementations encode to a
// flat JSON object carrying a "type" field.
type Event interface {
	EventType() string
}

// Encode marshals an event into the JSON payload carried by one SSE frame.
func Encode(e Event) ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s event: %w", e.EventType(), err)
	}
	return payload, nil
}

// Frame wraps a JSON payload in SSE framing.
func Frame(payload []byte) []byte {
	frame := make([]byte, 0, len(payload)+8)
	frame = append(frame, "data: "...)
	frame = append(frame, payload...)
	return append(frame, '\n', '\n')
}

// ConnectionEvent acknowledges a new subscription.
type ConnectionEvent struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

func (e ConnectionEvent) EventType() string { return e.Type }

// NewConnectionEvent builds the subscription acknowledgement.
func NewConnectionEvent(at time.Time) ConnectionEvent {
	return ConnectionEvent{
		Type:      TypeConnection,
		Message:   "Connected to real-time updates",
		Timestamp: at.UnixMilli(),
	}
}

// InitialDataEvent carries the current state to a fresh subscriber.
type InitialDataEvent struct {
	Type             string                      `json:"type"`
	Orders           []model.Order               `json:"orders"`
	PendingApprovals []model.PendingApprovalView `json:"pendingApprovals"`
}

func (e InitialDataEvent) EventType() string { return e.Type }

// NewInitialDataEvent builds the snapshot sent after the acknowledgement.
func NewInitialDataEvent(orders []model.Order, approvals []model.PendingApprovalView) InitialDataEvent {
	if orders == nil {
		orders = []model.Order{}
	}
	if approvals == nil {
		approvals = []model.PendingApprovalView{}
	}
	return InitialDataEvent{Type: TypeInitialData, Orders: orders, PendingApprovals: approvals}
}

// PingEvent keeps idle connections open.
type PingEvent struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
}

func (e PingEvent) EventType() string { return e.Type }

// NewPingEvent builds a keep-alive event.
func NewPingEvent(at time.Time) PingEvent {
	return PingEvent{Type: TypePing, Timestamp: at.UnixMilli()}
}

// NewOrderEvent announces a newly placed order.
type NewOrderEvent struct {
	Type             string       `json:"type"`
	Order            *model.Order `json:"order"`
	IsRepeatCustomer bool         `json:"isRepeatCustomer"`
}

func (e NewOrderEvent) EventType() string { return e.Type }

// NewNewOrderEvent builds a new_order event.
func NewNewOrderEvent(order *model.Order) NewOrderEvent {
	return NewOrderEvent{Type: TypeNewOrder, Order: order, IsRepeatCustomer: order.IsRepeatCustomer}
}

// DiscountApprovalNeededEvent asks the admin console to decide on a repeat-customer discount.
type DiscountApprovalNeededEvent struct {
	Type     string                 `json:"type"`
	OrderID  string                 `json:"orderId"`
	Phone    string                 `json:"phone"`
	Customer *model.CustomerSummary `json:"customer"`
	Order    *model.OrderSummary    `json:"order"`
}

func (e DiscountApprovalNeededEvent) EventType() string { return e.Type }

// NewDiscountApprovalNeededEvent builds a discount_approval_needed event.
func NewDiscountApprovalNeededEvent(order *model.Order, customer *model.Customer) DiscountApprovalNeededEvent {
	return DiscountApprovalNeededEvent{
		Type:     TypeDiscountApprovalNeeded,
		OrderID:  order.ID,
		Phone:    order.Phone,
		Customer: customer.Summary(),
		Order:    order.Summary(),
	}
}

// OrderChanges lists the fields an update touched.
type OrderChanges struct {
	Status        *string `json:"status,omitempty"`
	EstimatedTime *int    `json:"estimatedTime,omitempty"`
	DriverPhone   *string `json:"driverPhone,omitempty"`
	Note          string  `json:"note,omitempty"`
}

// OrderUpdatedEvent announces an admin or tracking update.
type OrderUpdatedEvent struct {
	Type    string       `json:"type"`
	Order   *model.Order `json:"order"`
	Changes OrderChanges `json:"changes"`
}

func (e OrderUpdatedEvent) EventType() string { return e.Type }

// NewOrderUpdatedEvent builds an order_updated event.
func NewOrderUpdatedEvent(order *model.Order, changes OrderChanges) OrderUpdatedEvent {
	return OrderUpdatedEvent{Type: TypeOrderUpdated, Order: order, Changes: changes}
}

// OrderCancelledEvent announces a cancellation.
type OrderCancelledEvent struct {
	Type  string       `json:"type"`
	Order *model.Order `json:"order"`
}

func (e OrderCancelledEvent) EventType() string { return e.Type }

// NewOrderCancelledEvent builds an order_cancelled event.
func NewOrderCancelledEvent(order *model.Order) OrderCancelledEvent {
	return OrderCancelledEvent{Type: TypeOrderCancelled, Order: order}
}

// DiscountAppliedEvent announces an approved discount.
type DiscountAppliedEvent struct {
	Type            string       `json:"type"`
	OrderID         string       `json:"orderId"`
	TrackingCode    string       `json:"trackingCode"`
	DiscountPercent float64      `json:"discountPercent"`
	OriginalAmount  float64      `json:"originalAmount"`
	NewAmount       float64      `json:"newAmount"`
	Order           *model.Order `json:"order"`
}

func (e DiscountAppliedEvent) EventType() string { return e.Type }

// NewDiscountAppliedEvent builds a discount_applied event from the discounted order.
func NewDiscountAppliedEvent(order *model.Order) DiscountAppliedEvent {
	return DiscountAppliedEvent{
		Type:            TypeDiscountApplied,
		OrderID:         order.ID,
		TrackingCode:    order.TrackingCode,
		DiscountPercent: order.DiscountApplied,
		OriginalAmount:  order.OriginalAmount,
		NewAmount:       order.TotalAmount,
		Order:           order,
	}
}

// DiscountRejectedEvent announces a declined discount.
type DiscountRejectedEvent struct {
	Type       string       `json:"type"`
	OrderID    string       `json:"orderId"`
	OrderToken string       `json:"orderToken,omitempty"`
	Order      *model.Order `json:"order"`
}

func (e DiscountRejectedEvent) EventType() string { return e.Type }

// NewDiscountRejectedEvent builds a discount_rejected event.
func NewDiscountRejectedEvent(order *model.Order) DiscountRejectedEvent {
	return DiscountRejectedEvent{
		Type:       TypeDiscountRejected,
		OrderID:    order.ID,
		OrderToken: order.OrderToken,
		Order:      order,
	}
}

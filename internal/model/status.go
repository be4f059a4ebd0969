package model

// Status is the lifecycle state of an order.
type Status string

// Order statuses. Delivered and cancelled are terminal.
const (
	StatusPending        Status = "pending"
	StatusConfirmed      Status = "confirmed"
	StatusPreparing      Status = "preparing"
	StatusReady          Status = "ready"
	StatusOutForDelivery Status = "out-for-delivery"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
)

// Statuses lists every known status in lifecycle order.
var Statuses = []Status{
	StatusPending,
	StatusConfirmed,
	StatusPreparing,
	StatusReady,
	StatusOutForDelivery,
	StatusDelivered,
	StatusCancelled,
}

var statusProgress = map[Status]int{
	StatusPending:        10,
	StatusConfirmed:      25,
	StatusPreparing:      50,
	StatusReady:          75,
	StatusOutForDelivery: 90,
	StatusDelivered:      100,
	StatusCancelled:      0,
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	_, ok := statusProgress[s]
	return ok
}

// IsTerminal reports whether no further lifecycle progress is expected.
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Progress returns the customer-facing completion percentage for the status.
func (s Status) Progress() int {
	return statusProgress[s]
}

// ParseStatus converts raw input into a Status, rejecting unknown values.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", ErrInvalidStatus
	}
	return s, nil
}

// OrderType distinguishes delivery orders from counter orders.
type OrderType string

const (
	OrderTypeDelivery OrderType = "delivery"
	OrderTypeWalkIn   OrderType = "walk-in"
)

// Valid reports whether t is a known order type.
func (t OrderType) Valid() bool {
	return t == OrderTypeDelivery || t == OrderTypeWalkIn
}

// EstimatedMinutes is the default preparation estimate for the order type.
func (t OrderType) EstimatedMinutes() int {
	if t == OrderTypeDelivery {
		return 45
	}
	return 25
}

// Source records the channel an order was placed through.
type Source string

const (
	SourceOnline   Source = "online"
	SourceWalkIn   Source = "walk-in"
	SourceDelivery Source = "delivery"
)

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	return s == SourceOnline || s == SourceWalkIn || s == SourceDelivery
}

// Priority is the kitchen priority of an order.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	return p == PriorityNormal || p == PriorityHigh || p == PriorityUrgent
}

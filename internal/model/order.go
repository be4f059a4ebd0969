package model

import (
	"strings"
	"time"
)

// Order represents a customer order.
type Order struct {
	ID               string        `json:"id"`
	OrderToken       string        `json:"orderToken"`
	CustomerToken    string        `json:"customerToken,omitempty"`
	Type             OrderType     `json:"type"`
	Source           Source        `json:"source"`
	Priority         Priority      `json:"priority"`
	Items            []CartItem    `json:"items"`
	Phone            string        `json:"phone"`
	Location         string        `json:"location,omitempty"`
	Timestamp        time.Time     `json:"timestamp"`
	Status           Status        `json:"status"`
	TotalAmount      float64       `json:"totalAmount"`
	OriginalAmount   float64       `json:"originalAmount"`
	DiscountApplied  float64       `json:"discountApplied"`
	EstimatedTime    int           `json:"estimatedTime,omitempty"`
	DriverPhone      string        `json:"driverPhone,omitempty"`
	TrackingCode     string        `json:"trackingCode"`
	IsRepeatCustomer bool          `json:"isRepeatCustomer"`
	StatusHistory    []StatusEntry `json:"statusHistory"`
	Metadata         Metadata      `json:"metadata"`
}

// CartItem is a single line of an order.
type CartItem struct {
	ID           string    `json:"id,omitempty"`
	Product      string    `json:"product"`
	ProductPrice float64   `json:"productPrice"`
	Quantity     int       `json:"quantity"`
	Toppings     []Topping `json:"toppings,omitempty"`
	CustomName   string    `json:"customName,omitempty"`
}

// Topping is a priced add-on attached to a cart item.
type Topping struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// DisplayName returns the custom name when set, the product reference otherwise.
func (i CartItem) DisplayName() string {
	if i.CustomName != "" {
		return i.CustomName
	}
	return i.Product
}

// StatusEntry is one append-only record of the order's status history.
type StatusEntry struct {
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note,omitempty"`
	UpdatedBy string    `json:"updatedBy,omitempty"`
}

// Metadata captures where the order was placed from.
type Metadata struct {
	DeviceID  string `json:"deviceId,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
}

// ItemCount returns the total quantity across all lines.
func (o *Order) ItemCount() int {
	count := 0
	for _, item := range o.Items {
		count += item.Quantity
	}
	return count
}

// AppendStatus records a status change and makes it current.
func (o *Order) AppendStatus(status Status, at time.Time, note, updatedBy string) {
	if updatedBy == "" {
		updatedBy = "system"
	}
	o.StatusHistory = append(o.StatusHistory, StatusEntry{
		Status:    status,
		Timestamp: at,
		Note:      note,
		UpdatedBy: updatedBy,
	})
	o.Status = status
}

// MatchesTrackCode reports whether code equals the last six characters of the
// order ID (case-insensitive) and phone matches exactly.
func (o *Order) MatchesTrackCode(code, phone string) bool {
	if len(o.ID) < 6 || o.Phone != phone {
		return false
	}
	return strings.EqualFold(o.ID[len(o.ID)-6:], code)
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	if o.Items != nil {
		c.Items = make([]CartItem, len(o.Items))
		for i, item := range o.Items {
			c.Items[i] = item
			if item.Toppings != nil {
				c.Items[i].Toppings = append([]Topping(nil), item.Toppings...)
			}
		}
	}
	if o.StatusHistory != nil {
		c.StatusHistory = append([]StatusEntry(nil), o.StatusHistory...)
	}
	return &c
}

// OrderSummary is the compact order view embedded in approval listings and events.
type OrderSummary struct {
	ID           string    `json:"id"`
	OrderToken   string    `json:"orderToken,omitempty"`
	TrackingCode string    `json:"trackingCode,omitempty"`
	Type         OrderType `json:"type"`
	Source       Source    `json:"source,omitempty"`
	TotalAmount  float64   `json:"totalAmount"`
	ItemCount    int       `json:"itemCount"`
}

// Summary builds the compact view of the order.
func (o *Order) Summary() *OrderSummary {
	return &OrderSummary{
		ID:           o.ID,
		OrderToken:   o.OrderToken,
		TrackingCode: o.TrackingCode,
		Type:         o.Type,
		Source:       o.Source,
		TotalAmount:  o.TotalAmount,
		ItemCount:    o.ItemCount(),
	}
}

// OrderFilter narrows order listings. Zero values match everything.
type OrderFilter struct {
	Status   Status
	Type     OrderType
	Source   Source
	Phone    string // substring match
	DateFrom *time.Time
	DateTo   *time.Time
}

// Matches reports whether the order satisfies every populated field of the filter.
func (f OrderFilter) Matches(o *Order) bool {
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.Type != "" && o.Type != f.Type {
		return false
	}
	if f.Source != "" && o.Source != f.Source {
		return false
	}
	if f.Phone != "" && !strings.Contains(o.Phone, f.Phone) {
		return false
	}
	if f.DateFrom != nil && o.Timestamp.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && o.Timestamp.After(*f.DateTo) {
		return false
	}
	return true
}

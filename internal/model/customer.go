package model

import (
	"math"
	"time"
)

// Customer aggregates every order placed from one phone number.
type Customer struct {
	Phone            string    `json:"phone"`
	CustomerToken    string    `json:"customerToken"`
	OrderCount       int       `json:"orderCount"`
	TotalSpent       float64   `json:"totalSpent"`
	FirstOrderDate   time.Time `json:"firstOrderDate"`
	LastOrderDate    time.Time `json:"lastOrderDate"`
	LoyaltyPoints    int       `json:"loyaltyPoints"`
	DiscountEligible bool      `json:"discountEligible"`
}

// RecordOrder folds a newly placed order into the running totals.
func (c *Customer) RecordOrder(amount float64, at time.Time) {
	if c.OrderCount == 0 {
		c.FirstOrderDate = at
	}
	c.OrderCount++
	c.TotalSpent += amount
	c.LastOrderDate = at
	c.LoyaltyPoints += int(math.Floor(amount))
}

// CustomerSummary is the customer view attached to order lookups and approvals.
type CustomerSummary struct {
	OrderCount       int        `json:"orderCount"`
	TotalSpent       float64    `json:"totalSpent"`
	FirstOrderDate   time.Time  `json:"firstOrderDate"`
	LastOrderDate    *time.Time `json:"lastOrderDate,omitempty"`
	LoyaltyPoints    int        `json:"loyaltyPoints"`
	DiscountEligible bool       `json:"discountEligible"`
}

// Summary builds the customer view; nil customers produce nil.
func (c *Customer) Summary() *CustomerSummary {
	if c == nil {
		return nil
	}
	last := c.LastOrderDate
	return &CustomerSummary{
		OrderCount:       c.OrderCount,
		TotalSpent:       c.TotalSpent,
		FirstOrderDate:   c.FirstOrderDate,
		LastOrderDate:    &last,
		LoyaltyPoints:    c.LoyaltyPoints,
		DiscountEligible: c.DiscountEligible,
	}
}

// PendingApproval is a queued admin decision for a repeat customer's order.
type PendingApproval struct {
	Phone            string    `json:"phone"`
	OrderID          string    `json:"orderId"`
	OrderToken       string    `json:"orderToken,omitempty"`
	CustomerToken    string    `json:"customerToken,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
	OriginalAmount   float64   `json:"originalAmount"`
	DiscountAmount   float64   `json:"discountAmount"`
	DiscountedAmount float64   `json:"discountedAmount"`
}

// PendingApprovalView is a pending approval enriched with order and customer details.
type PendingApprovalView struct {
	PendingApproval
	Order    *OrderSummary    `json:"order"`
	Customer *CustomerSummary `json:"customer"`
}

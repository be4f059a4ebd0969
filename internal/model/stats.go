package model

// OrderStats summarises order volume and revenue.
type OrderStats struct {
	Total        int     `json:"total"`
	Today        int     `json:"today"`
	Pending      int     `json:"pending"`
	Preparing    int     `json:"preparing"`
	Ready        int     `json:"ready"`
	Delivered    int     `json:"delivered"`
	Revenue      float64 `json:"revenue"`
	TodayRevenue float64 `json:"todayRevenue"`
}

// StatusCount is the number of orders currently in a status.
type StatusCount struct {
	Status Status `json:"status"`
	Count  int    `json:"count"`
}

// HourCount is the number of today's orders placed within an hour of the day.
type HourCount struct {
	Hour  string `json:"hour"`
	Count int    `json:"count"`
}

// DashboardStats is the admin statistics payload.
type DashboardStats struct {
	Stats    OrderStats    `json:"stats"`
	ByStatus []StatusCount `json:"byStatus"`
	ByHour   []HourCount   `json:"byHour"`
}

// StorageStats reports how many records each collection holds.
type StorageStats struct {
	Orders           int `json:"orders"`
	Customers        int `json:"customers"`
	PendingApprovals int `json:"pendingApprovals"`
}

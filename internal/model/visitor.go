package model

import (
	"time"

	"github.com/google/uuid"
)

// Visitor is an append-only traffic log record.
type Visitor struct {
	ID        uuid.UUID `json:"id" db:"id"`
	VisitedAt time.Time `json:"visitedAt" db:"visited_at"`
}

// VisitorCounts aggregates traffic over the trailing day and month.
type VisitorCounts struct {
	Daily   int `json:"daily"`
	Monthly int `json:"monthly"`
}

// SalesStats summarises paid orders for the analytics dashboard.
type SalesStats struct {
	TotalSales  float64     `json:"totalSales"`
	TotalOrders int         `json:"totalOrders"`
	TopProduct  *TopProduct `json:"topProduct,omitempty"`
}

// TopProduct is the best selling product within a stats window.
type TopProduct struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	SalesCount int       `json:"salesCount"`
}

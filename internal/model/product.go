package model

import (
	"time"

	"github.com/google/uuid"
)

// Product represents an item in the storefront catalogue. A product is either
// a standard physical item or, when Event is non-nil, an event whose stock
// acts as seat capacity.
type Product struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	Title           string     `json:"title" db:"title"`
	Slug            string     `json:"slug" db:"slug"`
	Description     string     `json:"description" db:"description"`
	Price           float64    `json:"price" db:"price"`
	DiscountedPrice *float64   `json:"discountedPrice,omitempty" db:"discounted_price"`
	Cost            *float64   `json:"-" db:"cost"`
	Stock           int        `json:"stock" db:"stock"`
	SalesCount      int        `json:"salesCount" db:"sales_count"`
	Trending        bool       `json:"trending" db:"trending"`
	Event           *EventInfo `json:"event,omitempty"`
	CreatedAt       time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time  `json:"updatedAt" db:"updated_at"`
}

// EventInfo holds the event-specific fields attached to event products.
type EventInfo struct {
	Start    time.Time  `json:"start" db:"event_start"`
	End      *time.Time `json:"end,omitempty" db:"event_end"`
	Location string     `json:"location" db:"event_location"`
}

// EffectivePrice returns the discounted price when one is set, otherwise the
// regular price. Cart line items snapshot this value at add time.
func (p *Product) EffectivePrice() float64 {
	if p.DiscountedPrice != nil {
		return *p.DiscountedPrice
	}
	return p.Price
}

// Active reports whether the product can currently be sold.
func (p *Product) Active() bool {
	return p.Stock > 0
}

// IsEvent reports whether the product carries event data and therefore yields
// tickets on payment.
func (p *Product) IsEvent() bool {
	return p.Event != nil
}

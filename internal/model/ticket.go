package model

import (
	"time"

	"github.com/google/uuid"
)

// EventTicket is a single-use admission ticket. One ticket exists per unit of
// quantity on an event line item, created only when the owning order
// transitions to PAID. The code is random and unique; the used flag moves
// from false to true exactly once and never back.
type EventTicket struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	OrderItemID uuid.UUID  `json:"-" db:"order_item_id"`
	Code        uuid.UUID  `json:"code" db:"code"`
	Used        bool       `json:"used" db:"used"`
	UsedAt      *time.Time `json:"usedAt,omitempty" db:"used_at"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
}

// IssuedTicket joins a ticket with the title of the event it admits to.
type IssuedTicket struct {
	EventTicket
	EventTitle string `json:"eventTitle"`
}

// CheckInResult is the outcome of scanning a ticket at entry. For an already
// used ticket Valid is false and UsedAt reports the original check-in time.
type CheckInResult struct {
	Valid  bool      `json:"valid"`
	Event  string    `json:"event"`
	Code   uuid.UUID `json:"ticket"`
	UsedAt time.Time `json:"usedAt"`
}

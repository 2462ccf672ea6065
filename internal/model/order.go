package model

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus enumerates the order lifecycle states.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPaid      OrderStatus = "paid"
	StatusShipped   OrderStatus = "shipped"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
	StatusRefunded  OrderStatus = "refunded"
	StatusFailed    OrderStatus = "failed"
)

// allowedTransitions is the order state machine. A missing entry means the
// transition is illegal and must be rejected with InvalidTransitionError.
// failed is recoverable: the gateway can send a failure notification and
// later confirm the same payment, so a completed notification still pays a
// failed order.
var allowedTransitions = map[OrderStatus][]OrderStatus{
	StatusPending: {StatusPaid, StatusCancelled, StatusFailed},
	StatusPaid:    {StatusShipped, StatusCancelled, StatusRefunded},
	StatusShipped: {StatusCompleted},
	StatusFailed:  {StatusPaid, StatusCancelled},
}

// CanTransition reports whether an order may move from its current status to
// the target status.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	for _, t := range allowedTransitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

// Valid reports whether the value is one of the enumerated statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusShipped, StatusCompleted,
		StatusCancelled, StatusRefunded, StatusFailed:
		return true
	}
	return false
}

// ShippingAddress is the structured delivery contact captured at checkout.
type ShippingAddress struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Street    string `json:"street,omitempty"`
	City      string `json:"city,omitempty"`
	Country   string `json:"country,omitempty"`
}

// Order represents a customer order. An order in PENDING status is the
// mutable working cart; at most one pending order exists per user and per
// guest session (partial unique indexes in the store).
type Order struct {
	ID              uuid.UUID        `json:"id" db:"id"`
	UserID          *uuid.UUID       `json:"userId,omitempty" db:"user_id"`
	SessionKey      *string          `json:"-" db:"session_key"`
	Status          OrderStatus      `json:"status" db:"status"`
	Total           float64          `json:"total" db:"total"`
	ShippingAddress *ShippingAddress `json:"shippingAddress,omitempty"`
	PhoneNumber     *string          `json:"phoneNumber,omitempty" db:"phone_number"`
	CreatedAt       time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time        `json:"updatedAt" db:"updated_at"`
}

// OrderItem is a line item owned by exactly one order. ProductID is a weak
// reference: deleting the product nulls it while quantity and the price
// snapshot survive.
type OrderItem struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	OrderID   uuid.UUID  `json:"-" db:"order_id"`
	ProductID *uuid.UUID `json:"productId,omitempty" db:"product_id"`
	Quantity  int        `json:"quantity" db:"quantity"`
	UnitPrice float64    `json:"unitPrice" db:"unit_price"`
}

// Subtotal returns unit price times quantity for this line.
func (i *OrderItem) Subtotal() float64 {
	return i.UnitPrice * float64(i.Quantity)
}

// CartTotal sums the line subtotals. Order.Total is recomputed from this
// after every cart mutation, never taken as client input.
func CartTotal(items []OrderItem) float64 {
	var total float64
	for i := range items {
		total += items[i].Subtotal()
	}
	return total
}

// Cart bundles a pending order with its line items for the storefront API.
type Cart struct {
	Order *Order      `json:"order"`
	Items []OrderItem `json:"items"`
}

// Actor is the identity context of a request: an optional authenticated user
// plus the guest session key. It is threaded explicitly into every cart
// operation.
type Actor struct {
	UserID     *uuid.UUID
	SessionKey string
}

// Authenticated reports whether the actor carries a user identity.
func (a Actor) Authenticated() bool {
	return a.UserID != nil
}

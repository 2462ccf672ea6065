package model

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON        = "INVALID_JSON"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeProductNotFound    = "PRODUCT_NOT_FOUND"
	ErrCodeOrderNotFound      = "ORDER_NOT_FOUND"
	ErrCodeItemNotFound       = "ITEM_NOT_FOUND"
	ErrCodeTicketNotFound     = "TICKET_NOT_FOUND"
	ErrCodeCartNotFound       = "CART_NOT_FOUND"
	ErrCodeEmptyCart          = "EMPTY_CART"
	ErrCodeInvalidQuantity    = "INVALID_QUANTITY"
	ErrCodeInsufficientStock  = "INSUFFICIENT_STOCK"
	ErrCodeInvalidTransition  = "INVALID_TRANSITION"
	ErrCodeUnauthorised       = "UNAUTHORIZED"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodePaymentUnavailable = "PAYMENT_UNAVAILABLE"
)

// DomainError is a business error carried across the service boundary.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrProductNotFound = NewDomainError(ErrCodeProductNotFound, "Product not found")
	ErrOrderNotFound   = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrItemNotFound    = NewDomainError(ErrCodeItemNotFound, "Item not in cart")
	ErrTicketNotFound  = NewDomainError(ErrCodeTicketNotFound, "Invalid ticket")
	ErrCartNotFound    = NewDomainError(ErrCodeCartNotFound, "No cart for this session")
	ErrEmptyCart       = NewDomainError(ErrCodeEmptyCart, "Your cart is empty")
	ErrInvalidQuantity = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be greater than zero")
)

// StockShortfall reports one product whose stock cannot cover the ordered
// quantity at payment time.
type StockShortfall struct {
	ProductID uuid.UUID `json:"productId"`
	Title     string    `json:"title"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
}

// InsufficientStockError aborts a payment transition. It lists every short
// product in the order so the buyer sees the complete picture in one round
// trip; no stock mutation is visible afterwards.
type InsufficientStockError struct {
	Shortfalls []StockShortfall
}

func (e *InsufficientStockError) Error() string {
	titles := make([]string, len(e.Shortfalls))
	for i, s := range e.Shortfalls {
		titles[i] = s.Title
	}
	return fmt.Sprintf("not enough stock for %s", strings.Join(titles, ", "))
}

// InvalidTransitionError rejects an illegal order status change.
type InvalidTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}

package service

import (
	"context"
	"time"

	"comics-store/internal/model"

	"github.com/google/uuid"
)

// ProductService defines operations for catalogue reads.
type ProductService interface {
	// GetAll retrieves products with pagination.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
}

// CheckoutRequest carries the buyer's contact details into checkout.
type CheckoutRequest struct {
	ShippingAddress model.ShippingAddress `json:"shippingAddress"`
	PhoneNumber     *string               `json:"phoneNumber,omitempty"`
}

// CheckoutResult is returned from checkout: the hosted-payment redirect and
// the order awaiting confirmation.
type CheckoutResult struct {
	PaymentURL string    `json:"payment_url"`
	OrderID    uuid.UUID `json:"order_id"`
}

// CartService owns the pending-order lifecycle: resolution, merging, line
// item mutation and checkout. All mutations serialize per order via row
// locks and finish with an explicit total recompute.
type CartService interface {
	// ResolveCart returns the actor's cart, merging a guest cart into the
	// user's cart after login. For anonymous actors with no cart it returns
	// (nil, nil) unless createIfMissing is set.
	ResolveCart(ctx context.Context, actor model.Actor, createIfMissing bool) (*model.Cart, error)

	// AddItem adds quantity of a product, snapshotting the effective price on
	// a new line. An existing line only has its quantity incremented.
	AddItem(ctx context.Context, actor model.Actor, productID uuid.UUID, quantity int) (*model.Cart, error)

	// RemoveItem deletes a line item from the actor's cart.
	RemoveItem(ctx context.Context, actor model.Actor, itemID uuid.UUID) (*model.Cart, error)

	// IncreaseItem raises a product's line quantity by one, creating the line
	// if absent.
	IncreaseItem(ctx context.Context, actor model.Actor, productID uuid.UUID) (*model.Cart, error)

	// DecreaseItem lowers a product's line quantity by one; at zero the line
	// is deleted.
	DecreaseItem(ctx context.Context, actor model.Actor, productID uuid.UUID) (*model.Cart, error)

	// Checkout persists contact details and initiates hosted payment. The
	// order status is never advanced here; only the notification handler
	// confirms payment.
	Checkout(ctx context.Context, actor model.Actor, req *CheckoutRequest) (*CheckoutResult, error)
}

// OrderService owns order status transitions and their side effects.
type OrderService interface {
	// Get retrieves an order with its line items.
	Get(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderItem, error)

	// MarkPaid performs the payment transition atomically: fresh stock check,
	// stock decrement, sales count increment, ticket issuance, status update.
	// Invoking it on an already paid order is a no-op.
	MarkPaid(ctx context.Context, id uuid.UUID) error

	// MarkFailed records a failed payment notification.
	MarkFailed(ctx context.Context, id uuid.UUID) error

	// Cancel, Refund, Ship and Complete are guarded by the state machine.
	Cancel(ctx context.Context, id uuid.UUID) error
	Refund(ctx context.Context, id uuid.UUID) error
	Ship(ctx context.Context, id uuid.UUID) error
	Complete(ctx context.Context, id uuid.UUID) error

	// HandleNotification processes an asynchronous payment notification. Any
	// type other than "completed" marks the order failed; "completed" runs
	// MarkPaid and triggers ticket delivery.
	HandleNotification(ctx context.Context, orderID uuid.UUID, notificationType string) error
}

// TicketService verifies tickets at entry and hands deliveries to the mailer.
type TicketService interface {
	// CheckIn marks an unused ticket used. A second scan reports valid=false
	// with the original check-in time.
	CheckIn(ctx context.Context, code uuid.UUID) (*model.CheckInResult, error)

	// ListByOrder retrieves the tickets issued for an order.
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]model.IssuedTicket, error)

	TicketDeliverer
}

// TicketDeliverer dispatches issued tickets to the order's contact email.
// Fire-and-forget: failures are logged and never affect order state.
type TicketDeliverer interface {
	DeliverForOrder(ctx context.Context, order *model.Order) error
}

// AnalyticsService summarises sales and traffic for the dashboard.
type AnalyticsService interface {
	// Stats reports totals over paid orders since the cutoff (nil = all time).
	Stats(ctx context.Context, since *time.Time) (*model.SalesStats, error)

	// StatusSummary counts orders per status since the cutoff.
	StatusSummary(ctx context.Context, since *time.Time) (map[model.OrderStatus]int, error)

	// Visitors reports trailing-day and trailing-month traffic.
	Visitors(ctx context.Context) (*model.VisitorCounts, error)
}

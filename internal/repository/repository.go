package repository

import (
	"context"
	"time"

	"comics-store/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProductRepository defines the interface for catalogue data access.
type ProductRepository interface {
	// GetAll retrieves products with pagination support.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by its ID. Returns (nil, nil) when
	// the product does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs. A non-nil tx makes
	// the read part of that transaction.
	GetByIDs(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) ([]model.Product, error)

	// DecrementStock atomically decrements stock and increments sales_count
	// by qty, guarded by stock >= qty. Returns false when the guard fails,
	// leaving the row untouched. Must run inside the payment transaction so
	// the stock read is fresh.
	DecrementStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, qty int) (bool, error)

	// Upsert inserts or updates a product by slug. Used by the seed importer.
	Upsert(ctx context.Context, p *model.Product) error
}

// OrderRepository defines the interface for order and line-item data access.
// Methods taking a pgx.Tx participate in the caller's transaction; pending
// lookups additionally lock the order row (FOR UPDATE) when given a tx so
// concurrent mutations of the same cart serialize.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// Create inserts a new order.
	Create(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// GetByID retrieves an order by its ID. Returns (nil, nil) when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// LockByID retrieves an order by ID with a row lock inside tx.
	LockByID(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error)

	// GetPendingByUser retrieves the user's single pending order, if any.
	GetPendingByUser(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*model.Order, error)

	// GetPendingBySession retrieves the session's single pending order, if any.
	GetPendingBySession(ctx context.Context, tx pgx.Tx, sessionKey string) (*model.Order, error)

	// ListItems retrieves the line items of an order.
	ListItems(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) ([]model.OrderItem, error)

	// GetItem retrieves one line item scoped to an order. (nil, nil) if absent.
	GetItem(ctx context.Context, tx pgx.Tx, orderID, itemID uuid.UUID) (*model.OrderItem, error)

	// FindItemByProduct retrieves the order's line item for a product, if any.
	FindItemByProduct(ctx context.Context, tx pgx.Tx, orderID, productID uuid.UUID) (*model.OrderItem, error)

	// InsertItem inserts a new line item.
	InsertItem(ctx context.Context, tx pgx.Tx, item *model.OrderItem) error

	// UpdateItemQuantity sets a line item's quantity. The unit price snapshot
	// is never touched.
	UpdateItemQuantity(ctx context.Context, tx pgx.Tx, itemID uuid.UUID, quantity int) error

	// DeleteItem removes a line item.
	DeleteItem(ctx context.Context, tx pgx.Tx, itemID uuid.UUID) error

	// ReparentItem moves a line item to another order (guest cart merge).
	ReparentItem(ctx context.Context, tx pgx.Tx, itemID, orderID uuid.UUID) error

	// Delete removes an order and, by cascade, its items.
	Delete(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) error

	// UpdateTotal persists a recomputed order total.
	UpdateTotal(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, total float64) error

	// UpdateStatus persists an order status transition.
	UpdateStatus(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, status model.OrderStatus) error

	// UpdateActor refreshes the owning user and session key on an order.
	UpdateActor(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, userID *uuid.UUID, sessionKey string) error

	// SetCheckoutDetails persists shipping address, phone and user before
	// payment initiation.
	SetCheckoutDetails(ctx context.Context, orderID uuid.UUID, addr *model.ShippingAddress, phone *string, userID *uuid.UUID) error
}

// TicketRepository defines the interface for event ticket data access.
type TicketRepository interface {
	// CreateBatch inserts tickets within the payment transaction. The unique
	// constraint on code makes collisions fail the whole transaction.
	CreateBatch(ctx context.Context, tx pgx.Tx, tickets []model.EventTicket) error

	// GetByCode retrieves a ticket and its event title. (nil, nil) if absent.
	GetByCode(ctx context.Context, code uuid.UUID) (*model.IssuedTicket, error)

	// MarkUsed flips used=false to used=true with used_at=at in a single
	// conditional update. Returns false when the ticket was already used, in
	// which case used_at is left untouched.
	MarkUsed(ctx context.Context, code uuid.UUID, at time.Time) (bool, error)

	// ListByOrder retrieves every ticket issued for an order.
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]model.IssuedTicket, error)
}

// UserRepository resolves minimal account data. Identity management itself
// lives outside this service.
type UserRepository interface {
	// GetEmail returns the account email for a user, or "" when unknown.
	GetEmail(ctx context.Context, userID uuid.UUID) (string, error)
}

// VisitorRepository records and counts storefront traffic.
type VisitorRepository interface {
	Insert(ctx context.Context, visitedAt time.Time) error
	CountSince(ctx context.Context, since time.Time) (int, error)
}

// AnalyticsRepository aggregates sales figures over paid orders.
type AnalyticsRepository interface {
	// SalesStats returns totals and the top product since the cutoff. A nil
	// cutoff means all time.
	SalesStats(ctx context.Context, since *time.Time) (*model.SalesStats, error)

	// StatusSummary counts orders per status since the cutoff.
	StatusSummary(ctx context.Context, since *time.Time) (map[model.OrderStatus]int, error)
}

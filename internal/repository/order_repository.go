package repository

import (
	"context"
	"fmt"

	"comics-store/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

const orderColumns = `
	id, user_id, session_key, status, total, shipping_address, phone_number,
	created_at, updated_at
`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID, &o.UserID, &o.SessionKey, &o.Status, &o.Total,
		&o.ShippingAddress, &o.PhoneNumber, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Create inserts a new order.
func (r *orderRepository) Create(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (id, user_id, session_key, status, total, shipping_address, phone_number, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	`

	_, err := pick(r.pool, tx).Exec(ctx, query,
		order.ID, order.UserID, order.SessionKey, order.Status,
		order.Total, order.ShippingAddress, order.PhoneNumber,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Msg("order created successfully")

	return nil
}

// GetByID retrieves an order by its ID.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE id = $1`, orderColumns)

	order, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	return order, nil
}

// LockByID retrieves an order by ID with a row lock inside tx. Concurrent
// transactions touching the same order queue behind this lock.
func (r *orderRepository) LockByID(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE id = $1 FOR UPDATE`, orderColumns)

	order, err := scanOrder(tx.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to lock order")
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}

	return order, nil
}

func (r *orderRepository) getPending(ctx context.Context, tx pgx.Tx, where string, arg any) (*model.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE %s AND status = $2`, orderColumns, where)
	if tx != nil {
		query += " FOR UPDATE"
	}

	order, err := scanOrder(pick(r.pool, tx).QueryRow(ctx, query, arg, model.StatusPending))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to query pending order")
		return nil, fmt.Errorf("failed to query pending order: %w", err)
	}

	return order, nil
}

// GetPendingByUser retrieves the user's single pending order, if any.
func (r *orderRepository) GetPendingByUser(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*model.Order, error) {
	return r.getPending(ctx, tx, "user_id = $1", userID)
}

// GetPendingBySession retrieves the session's single pending order, if any.
func (r *orderRepository) GetPendingBySession(ctx context.Context, tx pgx.Tx, sessionKey string) (*model.Order, error) {
	return r.getPending(ctx, tx, "session_key = $1", sessionKey)
}

// ListItems retrieves the line items of an order.
func (r *orderRepository) ListItems(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) ([]model.OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, quantity, unit_price
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`

	rows, err := pick(r.pool, tx).Query(ctx, query, orderID)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", orderID.String()).
			Msg("failed to query order items")
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var item model.OrderItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.UnitPrice)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return items, nil
}

func (r *orderRepository) getItem(ctx context.Context, tx pgx.Tx, where string, args ...any) (*model.OrderItem, error) {
	query := fmt.Sprintf(`
		SELECT id, order_id, product_id, quantity, unit_price
		FROM order_items
		WHERE %s
	`, where)

	var item model.OrderItem
	err := pick(r.pool, tx).QueryRow(ctx, query, args...).
		Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.UnitPrice)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to query order item")
		return nil, fmt.Errorf("failed to query order item: %w", err)
	}

	return &item, nil
}

// GetItem retrieves one line item scoped to an order.
func (r *orderRepository) GetItem(ctx context.Context, tx pgx.Tx, orderID, itemID uuid.UUID) (*model.OrderItem, error) {
	return r.getItem(ctx, tx, "order_id = $1 AND id = $2", orderID, itemID)
}

// FindItemByProduct retrieves the order's line item for a product, if any.
func (r *orderRepository) FindItemByProduct(ctx context.Context, tx pgx.Tx, orderID, productID uuid.UUID) (*model.OrderItem, error) {
	return r.getItem(ctx, tx, "order_id = $1 AND product_id = $2", orderID, productID)
}

// InsertItem inserts a new line item.
func (r *orderRepository) InsertItem(ctx context.Context, tx pgx.Tx, item *model.OrderItem) error {
	query := `
		INSERT INTO order_items (id, order_id, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := pick(r.pool, tx).Exec(ctx, query,
		item.ID, item.OrderID, item.ProductID, item.Quantity, item.UnitPrice)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", item.OrderID.String()).
			Msg("failed to insert order item")
		return fmt.Errorf("failed to insert order item: %w", err)
	}

	return nil
}

// UpdateItemQuantity sets a line item's quantity.
func (r *orderRepository) UpdateItemQuantity(ctx context.Context, tx pgx.Tx, itemID uuid.UUID, quantity int) error {
	query := `UPDATE order_items SET quantity = $2 WHERE id = $1`

	_, err := pick(r.pool, tx).Exec(ctx, query, itemID, quantity)
	if err != nil {
		r.logger.Error().Err(err).Str("item_id", itemID.String()).Msg("failed to update item quantity")
		return fmt.Errorf("failed to update item quantity: %w", err)
	}

	return nil
}

// DeleteItem removes a line item.
func (r *orderRepository) DeleteItem(ctx context.Context, tx pgx.Tx, itemID uuid.UUID) error {
	query := `DELETE FROM order_items WHERE id = $1`

	_, err := pick(r.pool, tx).Exec(ctx, query, itemID)
	if err != nil {
		r.logger.Error().Err(err).Str("item_id", itemID.String()).Msg("failed to delete order item")
		return fmt.Errorf("failed to delete order item: %w", err)
	}

	return nil
}

// ReparentItem moves a line item to another order.
func (r *orderRepository) ReparentItem(ctx context.Context, tx pgx.Tx, itemID, orderID uuid.UUID) error {
	query := `UPDATE order_items SET order_id = $2 WHERE id = $1`

	_, err := pick(r.pool, tx).Exec(ctx, query, itemID, orderID)
	if err != nil {
		r.logger.Error().Err(err).Str("item_id", itemID.String()).Msg("failed to reparent order item")
		return fmt.Errorf("failed to reparent order item: %w", err)
	}

	return nil
}

// Delete removes an order; its items go with it via cascade.
func (r *orderRepository) Delete(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) error {
	query := `DELETE FROM orders WHERE id = $1`

	_, err := pick(r.pool, tx).Exec(ctx, query, orderID)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to delete order")
		return fmt.Errorf("failed to delete order: %w", err)
	}

	return nil
}

// UpdateTotal persists a recomputed order total.
func (r *orderRepository) UpdateTotal(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, total float64) error {
	query := `UPDATE orders SET total = $2, updated_at = NOW() WHERE id = $1`

	_, err := pick(r.pool, tx).Exec(ctx, query, orderID, total)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to update order total")
		return fmt.Errorf("failed to update order total: %w", err)
	}

	return nil
}

// UpdateStatus persists an order status transition.
func (r *orderRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, status model.OrderStatus) error {
	query := `UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`

	_, err := pick(r.pool, tx).Exec(ctx, query, orderID, status)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", orderID.String()).
			Str("status", string(status)).
			Msg("failed to update order status")
		return fmt.Errorf("failed to update order status: %w", err)
	}

	return nil
}

// UpdateActor refreshes the owning user and session key on an order.
func (r *orderRepository) UpdateActor(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, userID *uuid.UUID, sessionKey string) error {
	query := `UPDATE orders SET user_id = $2, session_key = $3, updated_at = NOW() WHERE id = $1`

	_, err := pick(r.pool, tx).Exec(ctx, query, orderID, userID, sessionKey)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to update order actor")
		return fmt.Errorf("failed to update order actor: %w", err)
	}

	return nil
}

// SetCheckoutDetails persists shipping address, phone and user before payment
// initiation.
func (r *orderRepository) SetCheckoutDetails(ctx context.Context, orderID uuid.UUID, addr *model.ShippingAddress, phone *string, userID *uuid.UUID) error {
	query := `
		UPDATE orders
		SET shipping_address = $2,
		    phone_number = COALESCE($3, phone_number),
		    user_id = COALESCE($4, user_id),
		    updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.pool.Exec(ctx, query, orderID, addr, phone, userID)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to set checkout details")
		return fmt.Errorf("failed to set checkout details: %w", err)
	}

	return nil
}

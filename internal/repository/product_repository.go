package repository

import (
	"context"
	"fmt"
	"time"

	"comics-store/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

const productColumns = `
	id, title, slug, description, price, discounted_price, cost, stock,
	sales_count, trending, event_start, event_end, event_location,
	created_at, updated_at
`

func scanProduct(row pgx.Row) (*model.Product, error) {
	var (
		p             model.Product
		eventStart    *time.Time
		eventEnd      *time.Time
		eventLocation *string
	)

	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Description, &p.Price, &p.DiscountedPrice,
		&p.Cost, &p.Stock, &p.SalesCount, &p.Trending,
		&eventStart, &eventEnd, &eventLocation,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	// event_start set iff the product is an event
	if eventStart != nil {
		p.Event = &model.EventInfo{Start: *eventStart, End: eventEnd}
		if eventLocation != nil {
			p.Event.Location = *eventLocation
		}
	}

	return &p, nil
}

// GetAll retrieves products with pagination support.
func (r *productRepository) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		ORDER BY title
		LIMIT $1 OFFSET $2
	`, productColumns)

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to query products")
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// GetByID retrieves a single product by its ID.
func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		WHERE id = $1
	`, productColumns)

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("product_id", id.String()).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return p, nil
}

// GetByIDs retrieves multiple products by their IDs.
func (r *productRepository) GetByIDs(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		WHERE id = ANY($1)
		ORDER BY title
	`, productColumns)

	rows, err := pick(r.pool, tx).Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to query products by IDs")
		return nil, fmt.Errorf("failed to query products by IDs: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// DecrementStock decrements stock and increments sales_count by qty in one
// conditional update. The stock >= qty guard re-reads stock inside the
// caller's transaction, so a stale value from earlier in the request can
// never oversell the last unit.
func (r *productRepository) DecrementStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, qty int) (bool, error) {
	query := `
		UPDATE products
		SET stock = stock - $2,
		    sales_count = sales_count + $2,
		    updated_at = NOW()
		WHERE id = $1 AND stock >= $2
	`

	tag, err := tx.Exec(ctx, query, id, qty)
	if err != nil {
		r.logger.Error().Err(err).
			Str("product_id", id.String()).
			Int("quantity", qty).
			Msg("failed to decrement stock")
		return false, fmt.Errorf("failed to decrement stock: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// Upsert inserts or updates a product by slug.
func (r *productRepository) Upsert(ctx context.Context, p *model.Product) error {
	query := `
		INSERT INTO products (
			id, title, slug, description, price, discounted_price, cost, stock,
			sales_count, trending, event_start, event_end, event_location,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
		ON CONFLICT (slug) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			discounted_price = EXCLUDED.discounted_price,
			cost = EXCLUDED.cost,
			stock = EXCLUDED.stock,
			trending = EXCLUDED.trending,
			event_start = EXCLUDED.event_start,
			event_end = EXCLUDED.event_end,
			event_location = EXCLUDED.event_location,
			updated_at = NOW()
	`

	var (
		eventStart    *time.Time
		eventEnd      *time.Time
		eventLocation *string
	)
	if p.Event != nil {
		eventStart = &p.Event.Start
		eventEnd = p.Event.End
		eventLocation = &p.Event.Location
	}

	_, err := r.pool.Exec(ctx, query,
		p.ID, p.Title, p.Slug, p.Description, p.Price, p.DiscountedPrice,
		p.Cost, p.Stock, p.SalesCount, p.Trending,
		eventStart, eventEnd, eventLocation,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("slug", p.Slug).Msg("failed to upsert product")
		return fmt.Errorf("failed to upsert product: %w", err)
	}

	return nil
}

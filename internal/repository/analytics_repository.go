package repository

import (
	"context"
	"fmt"
	"time"

	"comics-store/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// analyticsRepository implements the AnalyticsRepository interface using PostgreSQL.
type analyticsRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewAnalyticsRepository creates a new PostgreSQL-backed analytics repository.
func NewAnalyticsRepository(pool *pgxpool.Pool, logger zerolog.Logger) AnalyticsRepository {
	return &analyticsRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "analytics").Logger(),
	}
}

// SalesStats returns totals and the top product over paid orders since the
// cutoff. A nil cutoff means all time.
func (r *analyticsRepository) SalesStats(ctx context.Context, since *time.Time) (*model.SalesStats, error) {
	cutoff := time.Time{}
	if since != nil {
		cutoff = *since
	}

	totalsQuery := `
		SELECT COALESCE(SUM(total), 0), COUNT(*)
		FROM orders
		WHERE status = $1 AND created_at >= $2
	`

	var stats model.SalesStats
	err := r.pool.QueryRow(ctx, totalsQuery, model.StatusPaid, cutoff).
		Scan(&stats.TotalSales, &stats.TotalOrders)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query sales totals")
		return nil, fmt.Errorf("failed to query sales totals: %w", err)
	}

	topQuery := `
		SELECT i.product_id, p.title, SUM(i.quantity) AS sold
		FROM order_items i
		JOIN orders o ON o.id = i.order_id
		JOIN products p ON p.id = i.product_id
		WHERE o.status = $1 AND o.created_at >= $2
		GROUP BY i.product_id, p.title
		ORDER BY sold DESC
		LIMIT 1
	`

	var top model.TopProduct
	err = r.pool.QueryRow(ctx, topQuery, model.StatusPaid, cutoff).
		Scan(&top.ID, &top.Title, &top.SalesCount)
	if err != nil {
		if err != pgx.ErrNoRows {
			r.logger.Error().Err(err).Msg("failed to query top product")
			return nil, fmt.Errorf("failed to query top product: %w", err)
		}
	} else {
		stats.TopProduct = &top
	}

	return &stats, nil
}

// StatusSummary counts orders per status since the cutoff.
func (r *analyticsRepository) StatusSummary(ctx context.Context, since *time.Time) (map[model.OrderStatus]int, error) {
	cutoff := time.Time{}
	if since != nil {
		cutoff = *since
	}

	query := `
		SELECT status, COUNT(*)
		FROM orders
		WHERE created_at >= $1
		GROUP BY status
	`

	rows, err := r.pool.Query(ctx, query, cutoff)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query status summary")
		return nil, fmt.Errorf("failed to query status summary: %w", err)
	}
	defer rows.Close()

	summary := make(map[model.OrderStatus]int)
	for rows.Next() {
		var (
			status model.OrderStatus
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan status summary row")
			return nil, fmt.Errorf("failed to scan status summary: %w", err)
		}
		summary[status] = count
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating status summary rows")
		return nil, fmt.Errorf("error iterating status summary: %w", err)
	}

	return summary, nil
}

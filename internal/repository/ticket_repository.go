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

// ticketRepository implements the TicketRepository interface using PostgreSQL.
type ticketRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewTicketRepository creates a new PostgreSQL-backed ticket repository.
func NewTicketRepository(pool *pgxpool.Pool, logger zerolog.Logger) TicketRepository {
	return &ticketRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "ticket").Logger(),
	}
}

// CreateBatch inserts tickets within the payment transaction. The unique
// index on code rejects a colliding code and fails the whole transaction
// instead of silently overwriting.
func (r *ticketRepository) CreateBatch(ctx context.Context, tx pgx.Tx, tickets []model.EventTicket) error {
	if len(tickets) == 0 {
		return nil
	}

	query := `
		INSERT INTO event_tickets (id, order_item_id, code, used, used_at, created_at)
		VALUES ($1, $2, $3, false, NULL, NOW())
	`

	batch := &pgx.Batch{}
	for _, t := range tickets {
		batch.Queue(query, t.ID, t.OrderItemID, t.Code)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(tickets); i++ {
		_, err := results.Exec()
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("order_item_id", tickets[i].OrderItemID.String()).
				Msg("failed to create event ticket")
			return fmt.Errorf("failed to create event ticket: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(tickets)).
		Msg("event tickets created successfully")

	return nil
}

const ticketSelect = `
	SELECT t.id, t.order_item_id, t.code, t.used, t.used_at, t.created_at,
	       COALESCE(p.title, '')
	FROM event_tickets t
	JOIN order_items i ON i.id = t.order_item_id
	LEFT JOIN products p ON p.id = i.product_id
`

// GetByCode retrieves a ticket and its event title.
func (r *ticketRepository) GetByCode(ctx context.Context, code uuid.UUID) (*model.IssuedTicket, error) {
	query := ticketSelect + ` WHERE t.code = $1`

	var t model.IssuedTicket
	err := r.pool.QueryRow(ctx, query, code).Scan(
		&t.ID, &t.OrderItemID, &t.Code, &t.Used, &t.UsedAt, &t.CreatedAt,
		&t.EventTitle,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("code", code.String()).Msg("ticket not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("code", code.String()).Msg("failed to query ticket")
		return nil, fmt.Errorf("failed to query ticket: %w", err)
	}

	return &t, nil
}

// MarkUsed flips used=false to used=true in a single conditional update so
// exactly one of two racing scans wins.
func (r *ticketRepository) MarkUsed(ctx context.Context, code uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE event_tickets
		SET used = true, used_at = $2
		WHERE code = $1 AND used = false
	`

	tag, err := r.pool.Exec(ctx, query, code, at)
	if err != nil {
		r.logger.Error().Err(err).Str("code", code.String()).Msg("failed to mark ticket used")
		return false, fmt.Errorf("failed to mark ticket used: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// ListByOrder retrieves every ticket issued for an order.
func (r *ticketRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]model.IssuedTicket, error) {
	query := ticketSelect + ` WHERE i.order_id = $1 ORDER BY t.created_at, t.id`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to query order tickets")
		return nil, fmt.Errorf("failed to query order tickets: %w", err)
	}
	defer rows.Close()

	var tickets []model.IssuedTicket
	for rows.Next() {
		var t model.IssuedTicket
		err := rows.Scan(
			&t.ID, &t.OrderItemID, &t.Code, &t.Used, &t.UsedAt, &t.CreatedAt,
			&t.EventTitle,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan ticket row")
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, t)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating ticket rows")
		return nil, fmt.Errorf("error iterating tickets: %w", err)
	}

	return tickets, nil
}

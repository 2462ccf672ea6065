package service

import (
	"context"
	"fmt"
	"strings"

	"comics-store/internal/model"
	"comics-store/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	ticketRepo  repository.TicketRepository
	delivery    TicketDeliverer
	logger      zerolog.Logger
}

// NewOrderService creates a new order service. delivery may be nil when
// ticket delivery is not wired (tests, maintenance commands).
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	ticketRepo repository.TicketRepository,
	delivery TicketDeliverer,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		ticketRepo:  ticketRepo,
		delivery:    delivery,
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

// Get retrieves an order with its line items.
func (s *orderService) Get(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderItem, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if order == nil {
		return nil, nil, model.ErrOrderNotFound
	}

	items, err := s.orderRepo.ListItems(ctx, nil, id)
	if err != nil {
		return nil, nil, err
	}

	return order, items, nil
}

// MarkPaid performs the payment transition as one atomic unit: lock the
// order, re-check stock with conditional decrements, issue tickets, set the
// status. Already-paid orders are a no-op, so a duplicate notification can
// never double-decrement stock or duplicate tickets.
func (s *orderService) MarkPaid(ctx context.Context, id uuid.UUID) error {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	order, err := s.orderRepo.LockByID(ctx, tx, id)
	if err != nil {
		return err
	}
	if order == nil {
		err = model.ErrOrderNotFound
		return err
	}

	if order.Status == model.StatusPaid {
		s.logger.Debug().Str("order_id", id.String()).Msg("order already paid, nothing to do")
		return tx.Commit(ctx)
	}

	if !order.Status.CanTransition(model.StatusPaid) {
		err = &model.InvalidTransitionError{From: order.Status, To: model.StatusPaid}
		return err
	}

	items, err := s.orderRepo.ListItems(ctx, tx, id)
	if err != nil {
		return err
	}

	productIDs := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if item.ProductID != nil {
			productIDs = append(productIDs, *item.ProductID)
		}
	}

	products, err := s.productRepo.GetByIDs(ctx, tx, productIDs)
	if err != nil {
		return err
	}
	byID := make(map[uuid.UUID]*model.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	// Every item is attempted so the buyer sees all shortfalls at once; any
	// shortfall rolls back every decrement made in this transaction.
	var (
		shortfalls []model.StockShortfall
		tickets    []model.EventTicket
	)
	for _, item := range items {
		if item.ProductID == nil {
			continue
		}
		product, ok := byID[*item.ProductID]
		if !ok {
			continue
		}

		decremented, decErr := s.productRepo.DecrementStock(ctx, tx, product.ID, item.Quantity)
		if decErr != nil {
			err = decErr
			return err
		}
		if !decremented {
			shortfalls = append(shortfalls, model.StockShortfall{
				ProductID: product.ID,
				Title:     product.Title,
				Requested: item.Quantity,
				Available: product.Stock,
			})
			continue
		}

		if product.IsEvent() {
			for n := 0; n < item.Quantity; n++ {
				tickets = append(tickets, model.EventTicket{
					ID:          uuid.New(),
					OrderItemID: item.ID,
					Code:        uuid.New(),
				})
			}
		}
	}

	if len(shortfalls) > 0 {
		err = &model.InsufficientStockError{Shortfalls: shortfalls}
		s.logger.Warn().
			Str("order_id", id.String()).
			Int("shortfalls", len(shortfalls)).
			Msg("payment transition aborted on insufficient stock")
		return err
	}

	if err = s.ticketRepo.CreateBatch(ctx, tx, tickets); err != nil {
		return err
	}

	if err = s.orderRepo.UpdateStatus(ctx, tx, id, model.StatusPaid); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit payment transition: %w", err)
	}

	s.logger.Info().
		Str("order_id", id.String()).
		Int("items", len(items)).
		Int("tickets_issued", len(tickets)).
		Msg("order marked paid")

	return nil
}

// MarkFailed records a failed payment notification.
func (s *orderService) MarkFailed(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, model.StatusFailed)
}

// Cancel cancels an order.
func (s *orderService) Cancel(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, model.StatusCancelled)
}

// Refund refunds a paid order.
func (s *orderService) Refund(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, model.StatusRefunded)
}

// Ship marks a paid order shipped.
func (s *orderService) Ship(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, model.StatusShipped)
}

// Complete marks a shipped order completed.
func (s *orderService) Complete(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, model.StatusCompleted)
}

// transition moves an order to a new status under the state machine's guard.
// Re-applying the current status is a no-op so provider retries stay quiet.
func (s *orderService) transition(ctx context.Context, id uuid.UUID, to model.OrderStatus) error {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	order, err := s.orderRepo.LockByID(ctx, tx, id)
	if err != nil {
		return err
	}
	if order == nil {
		err = model.ErrOrderNotFound
		return err
	}

	if order.Status == to {
		return tx.Commit(ctx)
	}

	if !order.Status.CanTransition(to) {
		err = &model.InvalidTransitionError{From: order.Status, To: to}
		return err
	}

	if err = s.orderRepo.UpdateStatus(ctx, tx, id, to); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit status transition: %w", err)
	}

	s.logger.Info().
		Str("order_id", id.String()).
		Str("from", string(order.Status)).
		Str("to", string(to)).
		Msg("order status changed")

	return nil
}

// HandleNotification processes an asynchronous payment notification. The
// synchronous checkout path never advances order state; this is the only
// place a payment is confirmed.
func (s *orderService) HandleNotification(ctx context.Context, orderID uuid.UUID, notificationType string) error {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return model.ErrOrderNotFound
	}

	if !strings.EqualFold(notificationType, "completed") {
		s.logger.Info().
			Str("order_id", orderID.String()).
			Str("notification_type", notificationType).
			Msg("payment not completed, marking order failed")
		if failErr := s.MarkFailed(ctx, orderID); failErr != nil {
			// still acknowledged; the order keeps its current status
			s.logger.Warn().Err(failErr).Str("order_id", orderID.String()).Msg("could not mark order failed")
		}
		return nil
	}

	if err := s.MarkPaid(ctx, orderID); err != nil {
		return err
	}

	if s.delivery != nil {
		paid, err := s.orderRepo.GetByID(ctx, orderID)
		if err != nil || paid == nil {
			s.logger.Warn().Err(err).Str("order_id", orderID.String()).Msg("could not reload order for ticket delivery")
			return nil
		}
		if err := s.delivery.DeliverForOrder(ctx, paid); err != nil {
			// delivery never rolls back a confirmed payment
			s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("ticket delivery failed")
		}
	}

	return nil
}

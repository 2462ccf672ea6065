package service

import (
	"context"
	"errors"
	"fmt"

	"comics-store/internal/model"
	"comics-store/internal/payment"
	"comics-store/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// cartService implements CartService.
type cartService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	gateway     payment.Gateway
	logger      zerolog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	gateway payment.Gateway,
	logger zerolog.Logger,
) CartService {
	return &cartService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		gateway:     gateway,
		logger:      logger.With().Str("service", "cart").Logger(),
	}
}

// ResolveCart returns the actor's cart, merging a guest cart into the user's
// cart after login.
func (s *cartService) ResolveCart(ctx context.Context, actor model.Actor, createIfMissing bool) (*model.Cart, error) {
	var (
		order *model.Order
		err   error
	)
	err = s.inCartTx(ctx, func(tx pgx.Tx) error {
		order, err = s.resolveOrder(ctx, tx, actor, createIfMissing)
		return err
	})
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, nil
	}

	items, err := s.orderRepo.ListItems(ctx, nil, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart items: %w", err)
	}

	return &model.Cart{Order: order, Items: items}, nil
}

// AddItem adds quantity of a product at the current effective price, or
// increments the quantity of an existing line without touching its price
// snapshot.
func (s *cartService) AddItem(ctx context.Context, actor model.Actor, productID uuid.UUID, quantity int) (*model.Cart, error) {
	if quantity <= 0 {
		return nil, model.ErrInvalidQuantity
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}

	return s.mutate(ctx, actor, func(tx pgx.Tx, order *model.Order) error {
		return s.addQuantity(ctx, tx, order, product, quantity)
	})
}

// RemoveItem deletes a line item from the actor's cart.
func (s *cartService) RemoveItem(ctx context.Context, actor model.Actor, itemID uuid.UUID) (*model.Cart, error) {
	return s.mutate(ctx, actor, func(tx pgx.Tx, order *model.Order) error {
		item, err := s.orderRepo.GetItem(ctx, tx, order.ID, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return model.ErrItemNotFound
		}
		return s.orderRepo.DeleteItem(ctx, tx, item.ID)
	})
}

// IncreaseItem raises a product's line quantity by one, creating the line at
// the current effective price if absent.
func (s *cartService) IncreaseItem(ctx context.Context, actor model.Actor, productID uuid.UUID) (*model.Cart, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}

	return s.mutate(ctx, actor, func(tx pgx.Tx, order *model.Order) error {
		return s.addQuantity(ctx, tx, order, product, 1)
	})
}

// DecreaseItem lowers a product's line quantity by one; at zero the line is
// deleted.
func (s *cartService) DecreaseItem(ctx context.Context, actor model.Actor, productID uuid.UUID) (*model.Cart, error) {
	return s.mutate(ctx, actor, func(tx pgx.Tx, order *model.Order) error {
		item, err := s.orderRepo.FindItemByProduct(ctx, tx, order.ID, productID)
		if err != nil {
			return err
		}
		if item == nil {
			return model.ErrItemNotFound
		}
		if item.Quantity <= 1 {
			return s.orderRepo.DeleteItem(ctx, tx, item.ID)
		}
		return s.orderRepo.UpdateItemQuantity(ctx, tx, item.ID, item.Quantity-1)
	})
}

// Checkout persists the buyer's contact details and initiates the hosted
// payment. The gateway call happens outside the cart transaction so the
// network round trip never holds row locks, and the order stays PENDING
// until the asynchronous notification confirms payment.
func (s *cartService) Checkout(ctx context.Context, actor model.Actor, req *CheckoutRequest) (*CheckoutResult, error) {
	if req == nil {
		return nil, model.NewDomainError(model.ErrCodeValidation, "Checkout request is required")
	}
	// authenticated buyers fall back to their account email at delivery time
	if req.ShippingAddress.Email == "" && !actor.Authenticated() {
		return nil, model.NewDomainError(model.ErrCodeValidation, "Shipping email is required")
	}

	cart, err := s.ResolveCart(ctx, actor, true)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, model.ErrEmptyCart
	}

	addr := req.ShippingAddress
	if err := s.orderRepo.SetCheckoutDetails(ctx, cart.Order.ID, &addr, req.PhoneNumber, actor.UserID); err != nil {
		return nil, fmt.Errorf("failed to persist checkout details: %w", err)
	}
	cart.Order.ShippingAddress = &addr
	if req.PhoneNumber != nil {
		cart.Order.PhoneNumber = req.PhoneNumber
	}

	phone := ""
	if cart.Order.PhoneNumber != nil {
		phone = *cart.Order.PhoneNumber
	}

	redirectURL, err := s.gateway.InitiatePayment(ctx, cart.Order, addr.Email, phone)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", cart.Order.ID.String()).
			Msg("payment initiation failed")
		return nil, err
	}

	s.logger.Info().
		Str("order_id", cart.Order.ID.String()).
		Float64("total", cart.Order.Total).
		Msg("checkout initiated")

	return &CheckoutResult{PaymentURL: redirectURL, OrderID: cart.Order.ID}, nil
}

// addQuantity merges quantity into an existing line or inserts a new one at
// the product's current effective price. Existing lines keep their snapshot.
func (s *cartService) addQuantity(ctx context.Context, tx pgx.Tx, order *model.Order, product *model.Product, quantity int) error {
	existing, err := s.orderRepo.FindItemByProduct(ctx, tx, order.ID, product.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return s.orderRepo.UpdateItemQuantity(ctx, tx, existing.ID, existing.Quantity+quantity)
	}

	productID := product.ID
	item := &model.OrderItem{
		ID:        uuid.New(),
		OrderID:   order.ID,
		ProductID: &productID,
		Quantity:  quantity,
		UnitPrice: product.EffectivePrice(),
	}
	return s.orderRepo.InsertItem(ctx, tx, item)
}

// mutate runs a cart mutation inside one transaction: resolve (locking the
// order row), apply, then recompute the total as the final explicit step.
func (s *cartService) mutate(ctx context.Context, actor model.Actor, fn func(tx pgx.Tx, order *model.Order) error) (*model.Cart, error) {
	var cart *model.Cart

	err := s.inCartTx(ctx, func(tx pgx.Tx) error {
		order, err := s.resolveOrder(ctx, tx, actor, true)
		if err != nil {
			return err
		}

		if err := fn(tx, order); err != nil {
			return err
		}

		items, err := s.orderRepo.ListItems(ctx, tx, order.ID)
		if err != nil {
			return err
		}

		total := model.CartTotal(items)
		if err := s.orderRepo.UpdateTotal(ctx, tx, order.ID, total); err != nil {
			return err
		}
		order.Total = total

		cart = &model.Cart{Order: order, Items: items}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return cart, nil
}

// resolveOrder finds or creates the actor's pending order inside tx. Pending
// lookups take row locks, so concurrent requests for the same cart serialize
// here.
func (s *cartService) resolveOrder(ctx context.Context, tx pgx.Tx, actor model.Actor, createIfMissing bool) (*model.Order, error) {
	if actor.SessionKey == "" {
		return nil, model.NewDomainError(model.ErrCodeValidation, "Session key is required")
	}

	if !actor.Authenticated() {
		order, err := s.orderRepo.GetPendingBySession(ctx, tx, actor.SessionKey)
		if err != nil {
			return nil, err
		}
		if order != nil || !createIfMissing {
			return order, nil
		}

		sessionKey := actor.SessionKey
		order = &model.Order{
			ID:         uuid.New(),
			SessionKey: &sessionKey,
			Status:     model.StatusPending,
		}
		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return nil, err
		}
		s.logger.Debug().
			Str("order_id", order.ID.String()).
			Msg("guest cart created")
		return order, nil
	}

	userCart, err := s.orderRepo.GetPendingByUser(ctx, tx, *actor.UserID)
	if err != nil {
		return nil, err
	}
	sessionCart, err := s.orderRepo.GetPendingBySession(ctx, tx, actor.SessionKey)
	if err != nil {
		return nil, err
	}

	switch {
	case userCart != nil && sessionCart != nil && userCart.ID != sessionCart.ID:
		if err := s.mergeCarts(ctx, tx, userCart, sessionCart); err != nil {
			return nil, err
		}
	case userCart == nil && sessionCart != nil:
		// login with only a guest cart: the user adopts it
		userCart = sessionCart
	case userCart == nil:
		sessionKey := actor.SessionKey
		userCart = &model.Order{
			ID:         uuid.New(),
			UserID:     actor.UserID,
			SessionKey: &sessionKey,
			Status:     model.StatusPending,
		}
		if err := s.orderRepo.Create(ctx, tx, userCart); err != nil {
			return nil, err
		}
		s.logger.Debug().
			Str("order_id", userCart.ID.String()).
			Str("user_id", actor.UserID.String()).
			Msg("user cart created")
	}

	// always refresh identity on the surviving cart
	if err := s.orderRepo.UpdateActor(ctx, tx, userCart.ID, actor.UserID, actor.SessionKey); err != nil {
		return nil, err
	}
	userCart.UserID = actor.UserID
	sessionKey := actor.SessionKey
	userCart.SessionKey = &sessionKey

	return userCart, nil
}

// mergeCarts folds the guest cart into the user cart item by item, so each
// pre-existing line keeps its own unit price snapshot, then deletes the
// emptied guest cart and recomputes the user cart total.
func (s *cartService) mergeCarts(ctx context.Context, tx pgx.Tx, userCart, sessionCart *model.Order) error {
	sessionItems, err := s.orderRepo.ListItems(ctx, tx, sessionCart.ID)
	if err != nil {
		return err
	}

	for _, item := range sessionItems {
		var existing *model.OrderItem
		if item.ProductID != nil {
			existing, err = s.orderRepo.FindItemByProduct(ctx, tx, userCart.ID, *item.ProductID)
			if err != nil {
				return err
			}
		}

		if existing != nil {
			if err := s.orderRepo.UpdateItemQuantity(ctx, tx, existing.ID, existing.Quantity+item.Quantity); err != nil {
				return err
			}
			if err := s.orderRepo.DeleteItem(ctx, tx, item.ID); err != nil {
				return err
			}
		} else {
			if err := s.orderRepo.ReparentItem(ctx, tx, item.ID, userCart.ID); err != nil {
				return err
			}
		}
	}

	if err := s.orderRepo.Delete(ctx, tx, sessionCart.ID); err != nil {
		return err
	}

	merged, err := s.orderRepo.ListItems(ctx, tx, userCart.ID)
	if err != nil {
		return err
	}
	total := model.CartTotal(merged)
	if err := s.orderRepo.UpdateTotal(ctx, tx, userCart.ID, total); err != nil {
		return err
	}
	userCart.Total = total

	s.logger.Info().
		Str("user_cart", userCart.ID.String()).
		Str("session_cart", sessionCart.ID.String()).
		Int("merged_items", len(sessionItems)).
		Msg("guest cart merged into user cart")

	return nil
}

// inCartTx runs fn inside a transaction, retrying once when the pending
// order insert loses a race against a concurrent first mutation of the same
// cart. The retried lookup finds the winner's row.
func (s *cartService) inCartTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	err := s.inTx(ctx, fn)
	if isPendingCartConflict(err) {
		s.logger.Debug().Msg("pending cart insert lost a race, retrying")
		err = s.inTx(ctx, fn)
	}
	return err
}

// isPendingCartConflict reports whether err is a unique violation on one of
// the partial indexes enforcing a single pending order per user or session.
func isPendingCartConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}
	return pgErr.ConstraintName == "idx_orders_pending_user" ||
		pgErr.ConstraintName == "idx_orders_pending_session"
}

// inTx runs fn inside a transaction, rolling back on error.
func (s *cartService) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

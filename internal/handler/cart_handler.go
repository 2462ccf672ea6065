package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"comics-store/internal/middleware"
	"comics-store/internal/model"
	"comics-store/internal/service"
)

// CartHandler handles cart HTTP requests. The acting cart identity comes
// from the session cookie plus the optional authenticated user id, both
// resolved by middleware.
type CartHandler struct {
	service service.CartService
	logger  zerolog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(service service.CartService, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		service: service,
		logger:  logger.With().Str("handler", "cart").Logger(),
	}
}

func actorFromRequest(r *http.Request) model.Actor {
	return model.Actor{
		UserID:     middleware.UserID(r.Context()),
		SessionKey: middleware.SessionKey(r.Context()),
	}
}

// Get handles GET /api/cart requests.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	cart, err := h.service.ResolveCart(r.Context(), actorFromRequest(r), false)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if cart == nil {
		// No pending order yet: an empty cart, not an error.
		writeJSON(w, http.StatusOK, model.Cart{Items: []model.OrderItem{}})
		return
	}

	writeJSON(w, http.StatusOK, cart)
}

type addItemRequest struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

// AddItem handles POST /api/cart/items requests.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	cart, err := h.service.AddItem(r.Context(), actorFromRequest(r), req.ProductID, req.Quantity)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, cart)
}

type removeItemRequest struct {
	ItemID uuid.UUID `json:"itemId"`
}

// RemoveItem handles POST /api/cart/remove requests.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req removeItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	cart, err := h.service.RemoveItem(r.Context(), actorFromRequest(r), req.ItemID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, cart)
}

type quantityStepRequest struct {
	ProductID uuid.UUID `json:"productId"`
}

// IncreaseItem handles POST /api/cart/increase requests.
func (h *CartHandler) IncreaseItem(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, h.service.IncreaseItem)
}

// DecreaseItem handles POST /api/cart/decrease requests.
func (h *CartHandler) DecreaseItem(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, h.service.DecreaseItem)
}

func (h *CartHandler) step(w http.ResponseWriter, r *http.Request, fn func(context.Context, model.Actor, uuid.UUID) (*model.Cart, error)) {
	if r.Method != http.MethodPost {
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req quantityStepRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	cart, err := fn(r.Context(), actorFromRequest(r), req.ProductID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, cart)
}

// Checkout handles POST /api/cart/checkout requests.
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req service.CheckoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	result, err := h.service.Checkout(r.Context(), actorFromRequest(r), &req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

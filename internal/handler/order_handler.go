package handler

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"comics-store/internal/service"
)

// OrderHandler handles the admin order surface: lookups and explicit state
// transitions.
type OrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// ServeHTTP dispatches /api/orders/{id} and /api/orders/{id}/{action}.
func (h *OrderHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/orders"), "/")
	if rest == "" {
		writeMessage(w, http.StatusBadRequest, "order ID is required")
		return
	}

	parts := strings.SplitN(rest, "/", 2)
	id, err := uuid.Parse(parts[0])
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	if len(parts) == 1 {
		h.get(w, r, id)
		return
	}

	h.transition(w, r, id, parts[1])
}

func (h *OrderHandler) get(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if r.Method != http.MethodGet {
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	order, items, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"order": order,
		"items": items,
	})
}

func (h *OrderHandler) transition(w http.ResponseWriter, r *http.Request, id uuid.UUID, action string) {
	if r.Method != http.MethodPost {
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var err error
	switch action {
	case "pay":
		err = h.service.MarkPaid(r.Context(), id)
	case "cancel":
		err = h.service.Cancel(r.Context(), id)
	case "refund":
		err = h.service.Refund(r.Context(), id)
	case "ship":
		err = h.service.Ship(r.Context(), id)
	case "complete":
		err = h.service.Complete(r.Context(), id)
	default:
		writeMessage(w, http.StatusNotFound, "unknown order action")
		return
	}

	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	order, items, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"order": order,
		"items": items,
	})
}

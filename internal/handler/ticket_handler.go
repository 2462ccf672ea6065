package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"comics-store/internal/service"
)

// TicketHandler handles ticket verification at the event gate.
type TicketHandler struct {
	service service.TicketService
	logger  zerolog.Logger
}

// NewTicketHandler creates a new ticket handler.
func NewTicketHandler(service service.TicketService, logger zerolog.Logger) *TicketHandler {
	return &TicketHandler{
		service: service,
		logger:  logger.With().Str("handler", "ticket").Logger(),
	}
}

// Verify handles GET and POST /api/tickets/verify/{code} requests. GET is
// what a scanner issues when it opens the QR link. The first scan of a code
// succeeds; every later scan reports the original check-in time.
func (h *TicketHandler) Verify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	// Expecting path: /api/tickets/verify/{code}
	codeStr := r.URL.Path[len("/api/tickets/verify/"):]
	code, err := uuid.Parse(codeStr)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid ticket code")
		return
	}

	result, err := h.service.CheckIn(r.Context(), code)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

package handler

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"comics-store/internal/service"
)

// AnalyticsHandler handles the admin dashboard read endpoints.
type AnalyticsHandler struct {
	service service.AnalyticsService
	logger  zerolog.Logger
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(service service.AnalyticsService, logger zerolog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		service: service,
		logger:  logger.With().Str("handler", "analytics").Logger(),
	}
}

// sinceParam parses the optional ?since=RFC3339 cutoff.
func sinceParam(r *http.Request) (*time.Time, error) {
	raw := r.URL.Query().Get("since")
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Sales handles GET /api/analytics/sales requests.
func (h *AnalyticsHandler) Sales(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	since, err := sinceParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid since parameter, expected RFC3339")
		return
	}

	stats, err := h.service.Stats(r.Context(), since)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// Orders handles GET /api/analytics/orders requests, counting orders per
// status.
func (h *AnalyticsHandler) Orders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	since, err := sinceParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid since parameter, expected RFC3339")
		return
	}

	summary, err := h.service.StatusSummary(r.Context(), since)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// Visitors handles GET /api/analytics/visitors requests.
func (h *AnalyticsHandler) Visitors(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	counts, err := h.service.Visitors(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, counts)
}

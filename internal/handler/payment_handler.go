package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"comics-store/internal/model"
	"comics-store/internal/service"
)

// PaymentHandler handles the gateway notification callback and the buyer's
// payment status poll.
type PaymentHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(service service.OrderService, logger zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		logger:  logger.With().Str("handler", "payment").Logger(),
	}
}

type ipnPayload struct {
	OrderTrackingID        string `json:"OrderTrackingId"`
	OrderMerchantReference string `json:"OrderMerchantReference"`
	OrderNotificationType  string `json:"OrderNotificationType"`
}

// Notification handles the gateway IPN on /api/payments/ipn. The gateway
// retries on non-2xx responses, so every outcome other than a malformed or
// unknown reference is acknowledged with 200.
func (h *PaymentHandler) Notification(w http.ResponseWriter, r *http.Request) {
	var payload ipnPayload

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		payload.OrderTrackingID = q.Get("OrderTrackingId")
		if payload.OrderTrackingID == "" {
			payload.OrderTrackingID = q.Get("orderTrackingId")
		}
		payload.OrderMerchantReference = q.Get("OrderMerchantReference")
		payload.OrderNotificationType = q.Get("OrderNotificationType")
	case http.MethodPost:
		if err := decodeJSON(r, &payload); err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid notification body")
			return
		}
	default:
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if payload.OrderTrackingID == "" && payload.OrderMerchantReference == "" {
		writeMessage(w, http.StatusBadRequest, "order reference is required")
		return
	}

	// The tracking id carries the order; older callers send only the
	// merchant reference, so fall back to it.
	orderID, err := uuid.Parse(payload.OrderTrackingID)
	if err != nil {
		orderID, err = uuid.Parse(payload.OrderMerchantReference)
	}
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid order reference")
		return
	}

	err = h.service.HandleNotification(r.Context(), orderID, payload.OrderNotificationType)
	if err != nil {
		if errors.Is(err, model.ErrOrderNotFound) {
			writeMessage(w, http.StatusNotFound, "unknown order")
			return
		}
		// The gateway gets an ack either way; the failure is ours to retry.
		h.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("notification processing failed")
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"orderNotificationType":  payload.OrderNotificationType,
		"orderTrackingId":        payload.OrderTrackingID,
		"orderMerchantReference": payload.OrderMerchantReference,
		"status":                 200,
	})
}

// Status handles GET /api/payments/{id}/status requests so the storefront
// can poll after the hosted-payment redirect.
func (h *PaymentHandler) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	// Expecting path: /api/payments/{id}/status
	rest := strings.TrimPrefix(r.URL.Path, "/api/payments/")
	idStr := strings.TrimSuffix(rest, "/status")
	id, err := uuid.Parse(idStr)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	order, _, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"orderId": order.ID,
		"status":  order.Status,
		"total":   order.Total,
	})
}

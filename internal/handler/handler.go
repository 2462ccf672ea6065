package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"comics-store/internal/model"
	"comics-store/internal/payment"
)

// statusByCode maps domain error codes to HTTP status codes.
var statusByCode = map[string]int{
	model.ErrCodeValidation:         http.StatusBadRequest,
	model.ErrCodeInvalidJSON:        http.StatusBadRequest,
	model.ErrCodeInvalidQuantity:    http.StatusBadRequest,
	model.ErrCodeEmptyCart:          http.StatusBadRequest,
	model.ErrCodeProductNotFound:    http.StatusNotFound,
	model.ErrCodeOrderNotFound:      http.StatusNotFound,
	model.ErrCodeItemNotFound:       http.StatusNotFound,
	model.ErrCodeTicketNotFound:     http.StatusNotFound,
	model.ErrCodeCartNotFound:       http.StatusNotFound,
	model.ErrCodeInsufficientStock:  http.StatusConflict,
	model.ErrCodeInvalidTransition:  http.StatusConflict,
	model.ErrCodeUnauthorised:       http.StatusUnauthorized,
	model.ErrCodePaymentUnavailable: http.StatusInternalServerError,
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError maps a service error onto the HTTP surface. Gateway and
// configuration failures are reported as a generic payment error so
// credentials and upstream detail never leak to clients.
func writeError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	var domainErr *model.DomainError
	if errors.As(err, &domainErr) {
		status, ok := statusByCode[domainErr.Code]
		if !ok {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, model.ErrorResponse{Error: domainErr.Message, Code: domainErr.Code})
		return
	}

	var stockErr *model.InsufficientStockError
	if errors.As(err, &stockErr) {
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"error":      stockErr.Error(),
			"code":       model.ErrCodeInsufficientStock,
			"shortfalls": stockErr.Shortfalls,
		})
		return
	}

	var transitionErr *model.InvalidTransitionError
	if errors.As(err, &transitionErr) {
		writeJSON(w, http.StatusConflict, model.ErrorResponse{
			Error: transitionErr.Error(),
			Code:  model.ErrCodeInvalidTransition,
		})
		return
	}

	var configErr *payment.ConfigurationError
	var gatewayErr *payment.GatewayError
	if errors.As(err, &configErr) || errors.As(err, &gatewayErr) {
		logger.Error().Err(err).Msg("payment gateway failure")
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{
			Error: "payment service unavailable",
			Code:  model.ErrCodePaymentUnavailable,
		})
		return
	}

	logger.Error().Err(err).Msg("unhandled error")
	writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{
		Error: "internal server error",
		Code:  model.ErrCodeInternalError,
	})
}

// writeMessage writes a bare error message without a domain code.
func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, model.ErrorResponse{Error: message})
}

// decodeJSON decodes a request body, rejecting unknown payload shapes with a
// uniform validation error.
func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &model.DomainError{Code: model.ErrCodeInvalidJSON, Message: "invalid JSON body"}
	}
	return nil
}

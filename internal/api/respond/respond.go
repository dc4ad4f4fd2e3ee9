package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/unionlens/contract-assistant/internal/model"
)

// ErrorResponse represents a standard error response. Reason carries the
// access-denial code and Resource the exhausted quota, when applicable.
type ErrorResponse struct {
	Error    string `json:"error"`
	Code     int    `json:"code"`
	Message  string `json:"message,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Resource string `json:"resource,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// WriteError writes a standardized error response
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Code:    statusCode,
		Message: message,
	}
	WriteJSON(w, statusCode, response)
}

// WriteBadRequest writes a 400 Bad Request response
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message)
}

// WriteNotFound writes a 404 Not Found response
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message)
}

// WriteInternalError writes a 500 Internal Server Error response
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message)
}

// WriteDomainError maps service-layer errors onto HTTP statuses:
//
//	AccessDeniedError  -> 402 for payment problems, 403 otherwise (reason set)
//	QuotaExceededError -> 429 (resource set)
//	GenerationError    -> 502
//	ErrNotFound        -> 404
//	ErrValidation      -> 400
//	ErrConflict        -> 409
//	anything else      -> 500
func WriteDomainError(w http.ResponseWriter, err error) {
	var denied *model.AccessDeniedError
	if errors.As(err, &denied) {
		code := http.StatusForbidden
		if denied.Reason == model.DenyPaymentPastDue {
			code = http.StatusPaymentRequired
		}
		WriteJSON(w, code, ErrorResponse{
			Error:   http.StatusText(code),
			Code:    code,
			Message: denied.Error(),
			Reason:  string(denied.Reason),
		})
		return
	}

	var quota *model.QuotaExceededError
	if errors.As(err, &quota) {
		WriteJSON(w, http.StatusTooManyRequests, ErrorResponse{
			Error:    http.StatusText(http.StatusTooManyRequests),
			Code:     http.StatusTooManyRequests,
			Message:  quota.Error(),
			Resource: quota.Resource,
		})
		return
	}

	var gen *model.GenerationError
	switch {
	case errors.As(err, &gen):
		WriteError(w, http.StatusBadGateway, "answer generation failed")
	case errors.Is(err, model.ErrNotFound):
		WriteNotFound(w, err.Error())
	case errors.Is(err, model.ErrValidation):
		WriteBadRequest(w, err.Error())
	case errors.Is(err, model.ErrConflict):
		WriteError(w, http.StatusConflict, err.Error())
	default:
		WriteInternalError(w, "internal error")
	}
}

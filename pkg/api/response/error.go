package response

import (
	"errors"
	"net/http"

	"github.com/continuum/continuum/pkg/memory"
)

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

// Common error codes
const (
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeUnknownTier      = "UNKNOWN_TIER"
	ErrCodeValidationFailed = "VALIDATION_FAILED"
	ErrCodeInternalServer   = "INTERNAL_SERVER_ERROR"
)

// HTTPStatusFromError maps engine errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	switch {
	case errors.Is(err, memory.ErrUnknownTier), errors.Is(err, memory.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, memory.ErrDimensionMismatch),
		errors.Is(err, memory.ErrInvalidTierConfig),
		errors.Is(err, memory.ErrUnknownStrategy),
		errors.Is(err, memory.ErrUnknownBackend):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ErrorCodeFromError returns an error code for the given engine error.
func ErrorCodeFromError(err error) string {
	switch {
	case errors.Is(err, memory.ErrUnknownTier):
		return ErrCodeUnknownTier
	case errors.Is(err, memory.ErrNotFound):
		return ErrCodeNotFound
	case errors.Is(err, memory.ErrDimensionMismatch),
		errors.Is(err, memory.ErrInvalidTierConfig),
		errors.Is(err, memory.ErrUnknownStrategy),
		errors.Is(err, memory.ErrUnknownBackend):
		return ErrCodeValidationFailed
	default:
		return ErrCodeInternalServer
	}
}

// HandleError maps an engine error to a response and writes it.
func HandleError(w http.ResponseWriter, err error, requestID string) {
	Error(w, HTTPStatusFromError(err), ErrorCodeFromError(err), err.Error(), requestID)
}

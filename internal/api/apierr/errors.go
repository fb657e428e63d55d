package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/tkserver/internal/services/restart"
	"github.com/mcoot/tkserver/internal/services/whitelist"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeInvalidInterval = "INVALID_INTERVAL"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeNotFound        = "NOT_FOUND"
	CodePersistence     = "PERSISTENCE_FAILED"
	CodeInternalError   = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	case errors.Is(err, restart.ErrInvalidInterval):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidInterval, "Invalid restart interval"}}
	case errors.Is(err, whitelist.ErrPersistence):
		return &httpError{http.StatusInternalServerError, APIError{CodePersistence, "Whitelist could not be persisted"}}
	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(message string) error {
	return &httpError{http.StatusNotFound, APIError{CodeNotFound, message}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}

// Package api holds the JSON response conventions shared by HTTP handlers.
package api

import (
	"net/http"
	"strconv"
	"time"
)

// Error codes shared across services.
const (
	CodeValidation  = "VALIDATION"
	CodeInvalidJSON = "INVALID_JSON"
	CodeNotFound    = "NOT_FOUND"
	CodeConflict    = "INTEGRITY"
	CodeForbidden   = "FORBIDDEN"
	CodeUnavailable = "STORAGE_UNAVAILABLE"
	CodeInternal    = "INTERNAL"
)

type ErrorResponse struct {
	Error APIError `json:"error"`
}

type APIError struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	Retryable bool           `json:"retryable,omitempty"`
}

func WriteError(w http.ResponseWriter, status int, code, message, requestID string, details map[string]any) {
	writeError(w, status, APIError{Code: code, Message: message, Details: details, RequestID: requestID})
}

func writeError(w http.ResponseWriter, status int, e APIError) {
	WriteJSON(w, status, ErrorResponse{Error: e})
}

func BadRequest(w http.ResponseWriter, code, message, requestID string, details map[string]any) {
	WriteError(w, http.StatusBadRequest, code, message, requestID, details)
}

func Unauthorized(w http.ResponseWriter, code, message, requestID string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	WriteError(w, http.StatusUnauthorized, code, message, requestID, nil)
}

func Forbidden(w http.ResponseWriter, code, message, requestID string) {
	WriteError(w, http.StatusForbidden, code, message, requestID, nil)
}

func NotFound(w http.ResponseWriter, code, message, requestID string) {
	WriteError(w, http.StatusNotFound, code, message, requestID, nil)
}

func Conflict(w http.ResponseWriter, code, message, requestID string, details map[string]any) {
	WriteError(w, http.StatusConflict, code, message, requestID, details)
}

// Unavailable reports a transient failure the caller may retry after retryAfter.
func Unavailable(w http.ResponseWriter, code, message, requestID string, retryAfter time.Duration) {
	if secs := int(retryAfter.Round(time.Second) / time.Second); secs > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}
	writeError(w, http.StatusServiceUnavailable, APIError{Code: code, Message: message, RequestID: requestID, Retryable: true})
}

func Internal(w http.ResponseWriter, requestID string) {
	WriteError(w, http.StatusInternalServerError, CodeInternal, "Internal server error", requestID, nil)
}

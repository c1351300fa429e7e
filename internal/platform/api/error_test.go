package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, rr *httptest.ResponseRecorder) APIError {
	t.Helper()
	var env ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	return env.Error
}

func TestBadRequest_Envelope(t *testing.T) {
	rr := httptest.NewRecorder()
	BadRequest(rr, CodeValidation, "content: must not be empty", "rid-1", map[string]any{"field": "content"})

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "application/json; charset=utf-8", rr.Header().Get("Content-Type"))
	e := decode(t, rr)
	assert.Equal(t, CodeValidation, e.Code)
	assert.Equal(t, "rid-1", e.RequestID)
	assert.Equal(t, "content", e.Details["field"])
	assert.False(t, e.Retryable)
}

func TestUnavailable_RetryAfter(t *testing.T) {
	rr := httptest.NewRecorder()
	Unavailable(rr, CodeUnavailable, "try later", "", 1500*time.Millisecond)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "2", rr.Header().Get("Retry-After"))
	assert.True(t, decode(t, rr).Retryable)
}

func TestUnavailable_NoHeaderForZero(t *testing.T) {
	rr := httptest.NewRecorder()
	Unavailable(rr, CodeUnavailable, "try later", "", 0)
	assert.Empty(t, rr.Header().Get("Retry-After"))
}

func TestUnauthorized_Challenge(t *testing.T) {
	rr := httptest.NewRecorder()
	Unauthorized(rr, "UNAUTHORIZED", "authentication required", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Header().Get("WWW-Authenticate"), "Bearer")
}

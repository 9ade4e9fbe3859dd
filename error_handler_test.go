package jwtmiddleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rosterhq/go-jwt-middleware/core"
)

func TestNewErrorResponse(t *testing.T) {
	now := time.Date(2026, 10, 18, 9, 30, 0, 0, time.FixedZone("CEST", 2*60*60))
	claimsErr := core.NewValidationError(core.ErrorCodeInvalidClaims, "Token audience mismatch", nil)
	claimsErr.DebugInfo = map[string]any{"expected_audience": "roster-test", "actual_audience": "other"}

	tests := []struct {
		name         string
		err          error
		includeDebug bool
		wantStatus   int
		want         ErrorResponse
	}{
		{
			name:       "missing token",
			err:        core.NewValidationError(core.ErrorCodeMissingToken, "No bearer token provided", core.ErrJWTMissing),
			wantStatus: http.StatusUnauthorized,
			want: ErrorResponse{
				Error:      "Authentication required",
				ErrorCode:  core.ErrorCodeMissingToken,
				Message:    "No bearer token provided",
				Details:    "jwt missing",
				Timestamp:  "2026-10-18T07:30:00Z",
				Suggestion: "Send the Firebase ID token as 'Authorization: Bearer <token>'.",
			},
		},
		{
			name:       "keys unavailable",
			err:        core.NewValidationError(core.ErrorCodeKeysUnavailable, "Unable to fetch Google signing keys", errors.New("request returned status 502, expected 2xx")),
			wantStatus: http.StatusServiceUnavailable,
			want: ErrorResponse{
				Error:      "Authentication temporarily unavailable",
				ErrorCode:  core.ErrorCodeKeysUnavailable,
				Message:    "Unable to fetch Google signing keys",
				Details:    "request returned status 502, expected 2xx",
				Timestamp:  "2026-10-18T07:30:00Z",
				Suggestion: "Retry the request shortly.",
			},
		},
		{
			name:       "debug info hidden by default",
			err:        claimsErr,
			wantStatus: http.StatusUnauthorized,
			want: ErrorResponse{
				Error:      "Invalid token claims",
				ErrorCode:  core.ErrorCodeInvalidClaims,
				Message:    "Token audience mismatch",
				Details:    "Token audience mismatch",
				Timestamp:  "2026-10-18T07:30:00Z",
				Suggestion: "Make sure the token was issued for this Firebase project.",
			},
		},
		{
			name:         "debug info when enabled",
			err:          claimsErr,
			includeDebug: true,
			wantStatus:   http.StatusUnauthorized,
			want: ErrorResponse{
				Error:      "Invalid token claims",
				ErrorCode:  core.ErrorCodeInvalidClaims,
				Message:    "Token audience mismatch",
				Details:    "Token audience mismatch",
				Timestamp:  "2026-10-18T07:30:00Z",
				DebugInfo:  map[string]any{"expected_audience": "roster-test", "actual_audience": "other"},
				Suggestion: "Make sure the token was issued for this Firebase project.",
			},
		},
		{
			name:       "unclassified error hides its cause",
			err:        errors.New("dial tcp 10.0.0.7:6379: connection refused"),
			wantStatus: http.StatusInternalServerError,
			want: ErrorResponse{
				Error:     "Internal server error",
				ErrorCode: core.ErrorCodeInternal,
				Message:   "Unexpected error during authentication",
				Details:   "Unexpected error during authentication",
				Timestamp: "2026-10-18T07:30:00Z",
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, got := NewErrorResponse(tc.err, tc.includeDebug, now)
			assert.Equal(t, tc.wantStatus, status)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("response mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWWWAuthenticate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "missing token",
			err:  core.NewValidationError(core.ErrorCodeMissingToken, "No bearer token provided", nil),
			want: "Bearer",
		},
		{
			name: "invalid signature",
			err:  core.NewValidationError(core.ErrorCodeInvalidSignature, "Token has expired", nil),
			want: `Bearer error="invalid_token", error_description="Token has expired"`,
		},
		{
			name: "invalid claims",
			err:  core.NewValidationError(core.ErrorCodeInvalidClaims, "Token issuer mismatch", nil),
			want: `Bearer error="invalid_token", error_description="Token issuer mismatch"`,
		},
		{
			name: "keys unavailable has no challenge",
			err:  core.NewValidationError(core.ErrorCodeKeysUnavailable, "Unable to fetch Google signing keys", nil),
		},
		{
			name: "internal error has no challenge",
			err:  errors.New("boom"),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, WWWAuthenticate(tc.err))
		})
	}
}

func TestDefaultErrorHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	err := core.NewValidationError(core.ErrorCodeInvalidSignature, "Token signature verification failed", errors.New("key not found"))
	DefaultErrorHandler(rec, req, err)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, `Bearer error="invalid_token", error_description="Token signature verification failed"`, rec.Header().Get("WWW-Authenticate"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	for _, field := range []string{"error", "error_code", "message", "details", "timestamp", "suggestion"} {
		assert.Contains(t, body, field)
	}
	assert.NotContains(t, body, "debug_info")
	assert.Equal(t, "key not found", body["details"])

	_, parseErr := time.Parse(time.RFC3339, body["timestamp"].(string))
	assert.NoError(t, parseErr)
}

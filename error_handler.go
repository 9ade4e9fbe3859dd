package jwtmiddleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rosterhq/go-jwt-middleware/core"
)

// Re-exported sentinels so handlers can use errors.Is without importing core.
var (
	// ErrJWTMissing matches MISSING_TOKEN rejections.
	ErrJWTMissing = core.ErrJWTMissing

	// ErrJWTInvalid matches INVALID_TOKEN_SIGNATURE and INVALID_TOKEN_CLAIMS rejections.
	ErrJWTInvalid = core.ErrJWTInvalid

	// ErrKeysUnavailable matches GOOGLE_KEYS_UNAVAILABLE rejections.
	ErrKeysUnavailable = core.ErrKeysUnavailable
)

// ErrorHandler is called when a request is rejected. err is always a
// *core.ValidationError when called by JWTMiddleware. The handler must write
// the complete response: the middleware does not call the next handler.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// ErrorResponse is the JSON body of a rejection.
type ErrorResponse struct {
	Error      string         `json:"error"`
	ErrorCode  string         `json:"error_code"`
	Message    string         `json:"message"`
	Details    string         `json:"details"`
	Timestamp  string         `json:"timestamp"`
	DebugInfo  map[string]any `json:"debug_info,omitempty"`
	Suggestion string         `json:"suggestion,omitempty"`
}

// NewErrorResponse builds the body and status for err. Errors that are not a
// *core.ValidationError are reported as INTERNAL_ERROR. debug_info is only
// filled when includeDebug is set.
func NewErrorResponse(err error, includeDebug bool, now time.Time) (int, ErrorResponse) {
	validationErr := core.Classify(err)
	if validationErr == nil {
		validationErr = core.NewValidationError(core.ErrorCodeInternal, "Unexpected error during authentication", nil)
	}

	resp := ErrorResponse{
		Error:      validationErr.Title(),
		ErrorCode:  validationErr.Code,
		Message:    validationErr.Message,
		Details:    details(validationErr),
		Timestamp:  now.UTC().Format(time.RFC3339),
		Suggestion: validationErr.Hint(),
	}
	if includeDebug && len(validationErr.DebugInfo) > 0 {
		resp.DebugInfo = validationErr.DebugInfo
	}

	return validationErr.StatusCode(), resp
}

// details is the cause text. Internal causes are not echoed to clients.
func details(err *core.ValidationError) string {
	if err.Code == core.ErrorCodeInternal || err.Details == nil {
		return err.Message
	}
	return err.Details.Error()
}

// WWWAuthenticate returns the RFC 6750 challenge for a rejection, or "" when
// the status is not 401.
func WWWAuthenticate(err error) string {
	validationErr := core.Classify(err)
	if validationErr == nil || validationErr.StatusCode() != http.StatusUnauthorized {
		return ""
	}
	if validationErr.Code == core.ErrorCodeMissingToken {
		// No error attributes when the request carried no credentials.
		return "Bearer"
	}
	return fmt.Sprintf(`Bearer error="invalid_token", error_description=%q`, validationErr.Message)
}

// NewErrorHandler returns the default ErrorHandler, writing an ErrorResponse
// as JSON with the status of the rejection.
func NewErrorHandler(includeDebug bool) ErrorHandler {
	return func(w http.ResponseWriter, _ *http.Request, err error) {
		status, body := NewErrorResponse(err, includeDebug, time.Now())

		if challenge := WWWAuthenticate(err); challenge != "" {
			w.Header().Set("WWW-Authenticate", challenge)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}

// DefaultErrorHandler is the default error handler implementation for the
// JWTMiddleware. It omits debug_info.
var DefaultErrorHandler = NewErrorHandler(false)

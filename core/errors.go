package core

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for token authentication.
var (
	// ErrJWTMissing is returned when no bearer token could be extracted.
	ErrJWTMissing = errors.New("jwt missing")

	// ErrJWTInvalid is returned when the JWT is invalid.
	// This is typically wrapped with more specific validation errors.
	ErrJWTInvalid = errors.New("jwt invalid")

	// ErrKeysUnavailable is returned when no signing keys could be obtained.
	ErrKeysUnavailable = errors.New("signing keys unavailable")

	// ErrClaimsNotFound is returned when claims cannot be retrieved from context.
	ErrClaimsNotFound = errors.New("claims not found in context")
)

// Error codes emitted in the error_code field of rejection responses.
const (
	ErrorCodeMissingToken     = "MISSING_TOKEN"
	ErrorCodeKeysUnavailable  = "GOOGLE_KEYS_UNAVAILABLE"
	ErrorCodeInvalidSignature = "INVALID_TOKEN_SIGNATURE"
	ErrorCodeInvalidClaims    = "INVALID_TOKEN_CLAIMS"
	ErrorCodeInternal         = "INTERNAL_ERROR"
)

// NotSet is substituted for absent claim values in debug information.
const NotSet = "not_set"

type codeInfo struct {
	status     int
	title      string
	suggestion string
}

var codeTable = map[string]codeInfo{
	ErrorCodeMissingToken: {
		status:     http.StatusUnauthorized,
		title:      "Authentication required",
		suggestion: "Send the Firebase ID token as 'Authorization: Bearer <token>'.",
	},
	ErrorCodeKeysUnavailable: {
		status:     http.StatusServiceUnavailable,
		title:      "Authentication temporarily unavailable",
		suggestion: "Retry the request shortly.",
	},
	ErrorCodeInvalidSignature: {
		status:     http.StatusUnauthorized,
		title:      "Invalid token",
		suggestion: "Sign in again to obtain a fresh ID token.",
	},
	ErrorCodeInvalidClaims: {
		status:     http.StatusUnauthorized,
		title:      "Invalid token claims",
		suggestion: "Make sure the token was issued for this Firebase project.",
	},
	ErrorCodeInternal: {
		status: http.StatusInternalServerError,
		title:  "Internal server error",
	},
}

// ValidationError is the rejection half of an authentication outcome. It
// carries a machine-readable code, a human message, the underlying cause and
// optional diagnostics.
type ValidationError struct {
	// Code is one of the ErrorCode* constants.
	Code string

	// Message is a human-readable error message.
	Message string

	// Details contains the underlying error.
	Details error

	// DebugInfo holds diagnostic values such as expected and actual claims.
	DebugInfo map[string]any

	// Suggestion overrides the default remediation hint for the code.
	Suggestion string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Details != nil {
		return e.Message + ": " + e.Details.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ValidationError) Unwrap() error {
	return e.Details
}

// Is maps the error code onto the package sentinels.
func (e *ValidationError) Is(target error) bool {
	switch target {
	case ErrJWTMissing:
		return e.Code == ErrorCodeMissingToken
	case ErrJWTInvalid:
		return e.Code == ErrorCodeInvalidSignature || e.Code == ErrorCodeInvalidClaims
	case ErrKeysUnavailable:
		return e.Code == ErrorCodeKeysUnavailable
	}
	return false
}

// StatusCode returns the HTTP status associated with the error code.
func (e *ValidationError) StatusCode() int {
	if info, ok := codeTable[e.Code]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

// Title returns the short human title used in the "error" response field.
func (e *ValidationError) Title() string {
	if info, ok := codeTable[e.Code]; ok {
		return info.title
	}
	return codeTable[ErrorCodeInternal].title
}

// Hint returns the explicit suggestion or the default one for the code.
func (e *ValidationError) Hint() string {
	if e.Suggestion != "" {
		return e.Suggestion
	}
	return codeTable[e.Code].suggestion
}

// NewValidationError creates a new ValidationError with the given code and message.
func NewValidationError(code, message string, details error) *ValidationError {
	return &ValidationError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// Classify converts any error into a ValidationError. Errors that are not
// already classified become INTERNAL_ERROR.
func Classify(err error) *ValidationError {
	if err == nil {
		return nil
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr
	}

	switch {
	case errors.Is(err, ErrJWTMissing):
		return NewValidationError(ErrorCodeMissingToken, "No bearer token provided", nil)
	case errors.Is(err, ErrKeysUnavailable):
		return NewValidationError(ErrorCodeKeysUnavailable, "Unable to fetch signing keys", err)
	}

	return NewValidationError(ErrorCodeInternal, "Unexpected error during authentication", err)
}

// internalError wraps a recovered panic value.
func internalError(v any) *ValidationError {
	return NewValidationError(ErrorCodeInternal, "Unexpected error during authentication", fmt.Errorf("panic: %v", v))
}

package grpc

import (
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rosterhq/go-jwt-middleware/core"
)

// ErrorDomain is the ErrorInfo domain attached to rejection statuses.
const ErrorDomain = "securetoken.google.com"

// ErrorHandler converts a rejection into the error returned to the client.
type ErrorHandler func(error) error

// DefaultErrorHandler maps rejection codes to gRPC status codes and attaches
// the error code as an ErrorInfo reason:
//
//   - MISSING_TOKEN, INVALID_TOKEN_SIGNATURE, INVALID_TOKEN_CLAIMS: Unauthenticated
//   - GOOGLE_KEYS_UNAVAILABLE: Unavailable
//   - anything else: Internal
func DefaultErrorHandler(err error) error {
	if err == nil {
		return nil
	}

	validationErr := core.Classify(err)

	code := codes.Internal
	switch validationErr.Code {
	case core.ErrorCodeMissingToken, core.ErrorCodeInvalidSignature, core.ErrorCodeInvalidClaims:
		code = codes.Unauthenticated
	case core.ErrorCodeKeysUnavailable:
		code = codes.Unavailable
	}

	st := status.New(code, validationErr.Message)
	detailed, detailErr := st.WithDetails(&errdetails.ErrorInfo{
		Reason: validationErr.Code,
		Domain: ErrorDomain,
	})
	if detailErr != nil {
		return st.Err()
	}
	return detailed.Err()
}

// ErrorCode returns the rejection code carried by a status error produced by
// DefaultErrorHandler, or "" when there is none.
func ErrorCode(err error) string {
	st, ok := status.FromError(err)
	if !ok {
		return ""
	}
	for _, detail := range st.Details() {
		if info, ok := detail.(*errdetails.ErrorInfo); ok && info.GetDomain() == ErrorDomain {
			return info.GetReason()
		}
	}
	return ""
}

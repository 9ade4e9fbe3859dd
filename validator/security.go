package validator

import (
	"errors"
	"strings"
)

var (
	// ErrExcessiveTokenDots is returned when a token contains too many dots
	// to be any JOSE compact serialization.
	ErrExcessiveTokenDots = errors.New("token contains excessive dots")

	// ErrTokenTooLarge is returned for tokens above maxTokenBytes.
	ErrTokenTooLarge = errors.New("token exceeds maximum size")
)

const (
	// maxTokenDots covers JWS compact (2 dots) and JWE compact (4 dots).
	maxTokenDots = 5

	// Firebase ID tokens are around 1KB even with custom claims.
	maxTokenBytes = 16 * 1024
)

// validateTokenFormat rejects inputs that no key set could ever verify, so
// they are refused before any key lookup or forced refresh.
func validateTokenFormat(tokenString string) error {
	if len(tokenString) == 0 {
		return errors.New("token is empty")
	}

	if len(tokenString) > maxTokenBytes {
		return ErrTokenTooLarge
	}

	if strings.Count(tokenString, ".") > maxTokenDots {
		return ErrExcessiveTokenDots
	}

	return nil
}

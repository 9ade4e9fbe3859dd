package core

import "context"

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey int

const (
	identityKey contextKey = iota
)

// Identity is the verified caller exposed to request handlers.
type Identity struct {
	// SubjectID is the token's sub claim (the Firebase UID).
	SubjectID string

	// Email is the token's email claim, nil when the token carries none.
	Email *string

	// Claims is the full decoded claim set.
	Claims map[string]any

	// Validated is the validator's typed result, e.g. *validator.ValidatedClaims.
	Validated any
}

// EmailOrEmpty returns the email claim or an empty string.
func (i *Identity) EmailOrEmpty() string {
	if i == nil || i.Email == nil {
		return ""
	}
	return *i.Email
}

// SetIdentity stores the identity in the context.
// This is a helper function for adapters to call after validation.
func SetIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// GetIdentity retrieves the verified identity from the context.
func GetIdentity(ctx context.Context) (*Identity, error) {
	identity, ok := ctx.Value(identityKey).(*Identity)
	if !ok || identity == nil {
		return nil, ErrClaimsNotFound
	}
	return identity, nil
}

// HasIdentity checks if an identity exists in the context without retrieving it.
func HasIdentity(ctx context.Context) bool {
	identity, ok := ctx.Value(identityKey).(*Identity)
	return ok && identity != nil
}

// GetClaims retrieves the validator's typed claims from the context.
//
// Example usage:
//
//	claims, err := core.GetClaims[*validator.ValidatedClaims](ctx)
//	if err != nil {
//	    return err
//	}
func GetClaims[T any](ctx context.Context) (T, error) {
	var zero T

	identity, err := GetIdentity(ctx)
	if err != nil {
		return zero, err
	}

	claims, ok := identity.Validated.(T)
	if !ok {
		return zero, NewValidationError(
			ErrorCodeInternal,
			"claims type assertion failed",
			nil,
		)
	}

	return claims, nil
}

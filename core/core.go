// Package core provides framework-agnostic JWT validation logic that can be used
// across different transport layers (HTTP, gRPC, etc.).
//
// The Core type encapsulates the validation logic and can be wrapped by transport-specific
// adapters to provide JWT middleware functionality for various frameworks.
package core

import (
	"context"
	"time"
)

// Validator defines the interface for JWT validation.
// Implementations should validate tokens, returning the validated claims.
type Validator interface {
	ValidateToken(ctx context.Context, token string) (any, error)
}

// IdentityClaims is implemented by validated claim types that know how to
// project themselves onto an Identity.
type IdentityClaims interface {
	Identity() *Identity
}

// Logger defines an optional logging interface for the core middleware.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Core is the framework-agnostic JWT validation engine.
// It contains the core logic for token validation without any dependency
// on specific transport protocols (HTTP, gRPC, etc.).
type Core struct {
	validator           Validator
	credentialsOptional bool
	logger              Logger
}

// Outcome is the result of authenticating a single request. Exactly one of
// Identity and Rejection is set, except for an anonymous request accepted
// because credentials are optional, where both are nil.
type Outcome struct {
	Identity  *Identity
	Rejection *ValidationError
}

// Authenticated reports whether the request carried a valid token.
func (o Outcome) Authenticated() bool {
	return o.Rejection == nil && o.Identity != nil
}

// Anonymous reports whether the request was let through without a token.
func (o Outcome) Anonymous() bool {
	return o.Rejection == nil && o.Identity == nil
}

// Authenticate validates a bearer token and returns the caller's identity.
//
//   - If token is empty and credentialsOptional is true, returns (nil, nil)
//   - If token is empty and credentialsOptional is false, returns MISSING_TOKEN
//   - Otherwise, validates the token using the configured validator
//
// Every returned error is a *ValidationError.
func (c *Core) Authenticate(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		if c.credentialsOptional {
			if c.logger != nil {
				c.logger.Debug("No token provided, but credentials are optional")
			}
			return nil, nil
		}

		if c.logger != nil {
			c.logger.Warn("No token provided and credentials are required")
		}

		return nil, NewValidationError(ErrorCodeMissingToken, "No bearer token provided", ErrJWTMissing)
	}

	start := time.Now()
	claims, err := c.validate(ctx, token)
	duration := time.Since(start)

	if err != nil {
		rejection := Classify(err)
		if c.logger != nil {
			c.logger.Error("Token validation failed",
				"error", err,
				"error_code", rejection.Code,
				"duration", duration)
		}
		return nil, rejection
	}

	identity := identityFrom(claims)
	if c.logger != nil {
		c.logger.Debug("Token validated successfully",
			"subject", identity.SubjectID,
			"duration", duration)
	}

	return identity, nil
}

// Evaluate runs Authenticate and folds the result into an Outcome.
func (c *Core) Evaluate(ctx context.Context, token string) Outcome {
	identity, err := c.Authenticate(ctx, token)
	if err != nil {
		return Outcome{Rejection: Classify(err)}
	}
	return Outcome{Identity: identity}
}

// validate calls the validator, converting a panic into INTERNAL_ERROR.
func (c *Core) validate(ctx context.Context, token string) (claims any, err error) {
	defer func() {
		if r := recover(); r != nil {
			claims = nil
			err = internalError(r)
		}
	}()

	claims, err = c.validator.ValidateToken(ctx, token)
	if err == nil && claims == nil {
		err = NewValidationError(ErrorCodeInternal, "Validator returned no claims", nil)
	}
	return claims, err
}

func identityFrom(claims any) *Identity {
	switch v := claims.(type) {
	case IdentityClaims:
		identity := v.Identity()
		if identity == nil {
			return &Identity{Validated: claims}
		}
		if identity.Validated == nil {
			identity.Validated = claims
		}
		return identity
	case map[string]any:
		identity := &Identity{Claims: v, Validated: claims}
		identity.SubjectID, _ = v["sub"].(string)
		if email, ok := v["email"].(string); ok {
			identity.Email = &email
		}
		return identity
	default:
		return &Identity{Validated: claims}
	}
}

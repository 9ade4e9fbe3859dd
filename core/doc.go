/*
Package core provides framework-agnostic bearer-token authentication that can
be used across different transport layers (HTTP, gRPC, etc.).

The Core type turns a raw token string into either a verified Identity or a
classified rejection. It has no dependency on any transport protocol, so the
HTTP middleware, the Gin and Echo adapters and the gRPC interceptors all share
the same decision logic.

# Architecture

	┌─────────────────────────────────────────────┐
	│         Transport Adapters                  │
	│  (net/http, Gin, Echo, gRPC)                │
	└────────────────┬────────────────────────────┘
	                 │ token string
	                 ▼
	┌─────────────────────────────────────────────┐
	│          Core Engine (THIS PACKAGE)         │
	│  • Missing-token handling                   │
	│  • Error classification                     │
	│  • Identity projection                      │
	└────────────────┬────────────────────────────┘
	                 │
	                 ▼
	┌─────────────────────────────────────────────┐
	│          Validator                          │
	│  (signature against cached keys, claims)    │
	└─────────────────────────────────────────────┘

# Basic Usage

	c, err := core.New(
	    core.WithValidator(val),
	    core.WithLogger(logger),
	)
	if err != nil {
	    log.Fatal(err)
	}

	outcome := c.Evaluate(ctx, token)
	if !outcome.Authenticated() {
	    // outcome.Rejection.Code is one of the ErrorCode* constants
	}

# Error Codes

Every rejection is a *ValidationError whose Code maps to a fixed status:

	MISSING_TOKEN            401
	GOOGLE_KEYS_UNAVAILABLE  503
	INVALID_TOKEN_SIGNATURE  401
	INVALID_TOKEN_CLAIMS     401
	INTERNAL_ERROR           500

Classify converts arbitrary errors into this taxonomy. Errors it does not
recognize, including recovered validator panics, become INTERNAL_ERROR.

# Context Helpers

	ctx = core.SetIdentity(ctx, identity)

	identity, err := core.GetIdentity(ctx)
	claims, err := core.GetClaims[*validator.ValidatedClaims](ctx)
*/
package core

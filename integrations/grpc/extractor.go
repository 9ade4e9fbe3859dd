package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/metadata"

	jwtmiddleware "github.com/rosterhq/go-jwt-middleware"
)

// TokenExtractor extracts JWT tokens from gRPC metadata.
type TokenExtractor func(ctx context.Context) (string, error)

// ErrMultipleAuthHeaders indicates multiple authorization metadata entries were provided.
var ErrMultipleAuthHeaders = errors.New("multiple authorization metadata entries are not allowed")

// MetadataTokenExtractor extracts the token from the "authorization" metadata
// key with the same rule as the HTTP extractor: exactly "Bearer <token>",
// anything else is absent. "x-forwarded-authorization" is consulted only when
// "authorization" is missing.
//
// gRPC normalizes incoming metadata keys to lowercase.
func MetadataTokenExtractor(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", nil // No metadata, no token (not an error)
	}

	for _, key := range []string{"authorization", "x-forwarded-authorization"} {
		values := md.Get(key)
		switch {
		case len(values) == 0:
			continue
		case len(values) > 1:
			return "", ErrMultipleAuthHeaders
		}
		return jwtmiddleware.ParseBearer(values[0]), nil
	}
	return "", nil
}

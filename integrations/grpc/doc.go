// Package grpc provides gRPC server interceptors for Firebase ID token
// authentication.
//
// Tokens are read from the "authorization" metadata key in the same
// "Bearer <token>" form the HTTP middleware accepts. On success the caller's
// *core.Identity is stored in the handler context.
//
// # Basic Usage
//
//	interceptor, err := jwtgrpc.New(
//	    jwtgrpc.WithValidator(v),
//	    jwtgrpc.WithExcludedMethods("/grpc.health.v1.Health/Check"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	server := grpc.NewServer(
//	    grpc.UnaryInterceptor(interceptor.UnaryServerInterceptor()),
//	    grpc.StreamInterceptor(interceptor.StreamServerInterceptor()),
//	)
//
// # Errors
//
// DefaultErrorHandler returns codes.Unauthenticated for missing or invalid
// tokens, codes.Unavailable when signing keys cannot be obtained and
// codes.Internal otherwise. The rejection code travels as the reason of a
// google.rpc.ErrorInfo detail; ErrorCode reads it back.
package grpc

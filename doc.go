/*
Package jwtmiddleware authenticates HTTP requests carrying Firebase ID tokens.

The middleware extracts a bearer token, verifies it against Google's published
signing keys and, on success, stores the caller's identity in the request
context. Rejected requests are answered with a JSON error body and the chain
stops.

# Packages

  - jwtmiddleware: net/http and gin middleware, extractors, error responses,
    logging, metrics and tracing adapters
  - core: framework-agnostic authentication, outcomes and error codes
  - validator: signature, time and claim verification (jwx v2)
  - jwks: the signing key cache with file, memory and Redis stores
  - framework/echo, integrations/grpc: other transports

# Basic Usage

	cache, err := jwks.NewCache(
	    jwks.WithStore(jwks.NewFileStore("")),
	)
	if err != nil {
	    log.Fatal(err)
	}

	v, err := validator.New(
	    validator.WithKeySource(cache),
	    validator.WithProjectID("roster-prod"),
	)
	if err != nil {
	    log.Fatal(err)
	}

	middleware, err := jwtmiddleware.New(
	    jwtmiddleware.WithValidator(v),
	)
	if err != nil {
	    log.Fatal(err)
	}

	http.Handle("/v1/me", middleware.CheckJWT(handler))

# Reading the Identity

	func handler(w http.ResponseWriter, r *http.Request) {
	    identity, err := jwtmiddleware.GetIdentity(r.Context())
	    if err != nil {
	        http.Error(w, "no identity", http.StatusInternalServerError)
	        return
	    }
	    fmt.Fprintln(w, identity.SubjectID, identity.EmailOrEmpty())
	}

The typed claims are available too:

	claims, err := jwtmiddleware.GetClaims[*validator.ValidatedClaims](r.Context())

# Token Extraction

AuthHeaderTokenExtractor accepts exactly "Bearer <token>" in the
Authorization header. When that header is empty it consults
X-Forwarded-Authorization, then X-Original-Authorization. Any other shape is
treated as no token, which is rejected with MISSING_TOKEN unless
WithCredentialsOptional(true) is set.

# Error Responses

Rejections are written as:

	{
	  "error": "Invalid token claims",
	  "error_code": "INVALID_TOKEN_CLAIMS",
	  "message": "Token audience mismatch",
	  "details": "Token audience mismatch",
	  "timestamp": "2026-10-18T07:30:00Z",
	  "suggestion": "Make sure the token was issued for this Firebase project."
	}

with status 401 (MISSING_TOKEN, INVALID_TOKEN_SIGNATURE, INVALID_TOKEN_CLAIMS),
503 (GOOGLE_KEYS_UNAVAILABLE) or 500 (INTERNAL_ERROR). 401 responses carry a
WWW-Authenticate challenge. WithDebugInfo(true) adds a debug_info object with
expected and actual claim values.

# Observability

	middleware, err := jwtmiddleware.New(
	    jwtmiddleware.WithValidator(v),
	    jwtmiddleware.WithLogger(jwtmiddleware.NewLogrusLogger(logrus.StandardLogger())),
	    jwtmiddleware.WithMetrics(jwtmiddleware.NewPrometheusMetrics(prometheus.DefaultRegisterer)),
	    jwtmiddleware.WithTracer(jwtmiddleware.NewOpenTelemetryTracer(otel.Tracer("roster"))),
	)
*/
package jwtmiddleware

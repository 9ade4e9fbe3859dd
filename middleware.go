package jwtmiddleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rosterhq/go-jwt-middleware/core"
)

// JWTMiddleware authenticates HTTP requests carrying a Firebase ID token.
type JWTMiddleware struct {
	core                *core.Core
	errorHandler        ErrorHandler
	tokenExtractor      TokenExtractor
	validateOnOptions   bool
	exclusionURLHandler ExclusionURLHandler
	logger              Logger
	metrics             Metrics
	tracer              Tracer

	// Temporary fields used during construction
	validator           TokenValidator
	credentialsOptional bool
	debugInfo           bool
}

// Logger defines an optional logging interface compatible with log/slog.
// This is the same interface used by core for consistent logging across the stack.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// ExclusionURLHandler is a function that takes in a http.Request and returns
// true if the request should be excluded from JWT validation.
type ExclusionURLHandler func(r *http.Request) bool

// Metric names emitted by the middleware.
const (
	MetricRequestsTotal  = "roster_auth_requests_total"
	MetricVerifyDuration = "roster_auth_verify_duration_seconds"
)

// Outcome labels for MetricRequestsTotal and the auth.outcome span attribute.
const (
	outcomeAuthenticated = "authenticated"
	outcomeAnonymous     = "anonymous"
	outcomeRejected      = "rejected"
)

// New constructs a new JWTMiddleware instance with the supplied options.
// All parameters are passed via options (pure options pattern).
//
// Example:
//
//	middleware, err := jwtmiddleware.New(
//	    jwtmiddleware.WithValidator(v),
//	    jwtmiddleware.WithLogger(jwtmiddleware.NewLogrusLogger(logrus.StandardLogger())),
//	)
//	if err != nil {
//	    log.Fatalf("failed to create middleware: %v", err)
//	}
func New(opts ...Option) (*JWTMiddleware, error) {
	m := &JWTMiddleware{
		validateOnOptions:   true,
		credentialsOptional: false,
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("invalid middleware configuration: %w", err)
	}

	m.applyDefaults()

	if err := m.createCore(); err != nil {
		return nil, fmt.Errorf("failed to create core: %w", err)
	}

	return m, nil
}

// validate ensures all required fields are set
func (m *JWTMiddleware) validate() error {
	if m.validator == nil {
		return ErrValidatorNil
	}
	return nil
}

// createCore creates the core.Core instance with the configured options
func (m *JWTMiddleware) createCore() error {
	coreOpts := []core.Option{
		core.WithValidator(&validatorAdapter{validator: m.validator}),
		core.WithCredentialsOptional(m.credentialsOptional),
	}
	if m.logger != nil {
		coreOpts = append(coreOpts, core.WithLogger(m.logger))
	}

	coreInstance, err := core.New(coreOpts...)
	if err != nil {
		return err
	}
	m.core = coreInstance
	return nil
}

// applyDefaults sets secure default values for optional fields
func (m *JWTMiddleware) applyDefaults() {
	if m.errorHandler == nil {
		m.errorHandler = NewErrorHandler(m.debugInfo)
	}
	if m.tokenExtractor == nil {
		m.tokenExtractor = AuthHeaderTokenExtractor
	}
	if m.metrics == nil {
		m.metrics = &NoopMetrics{}
	}
	if m.tracer == nil {
		m.tracer = &NoopTracer{}
	}
}

// GetIdentity returns the verified caller stored by CheckJWT.
func GetIdentity(ctx context.Context) (*core.Identity, error) {
	return core.GetIdentity(ctx)
}

// GetClaims retrieves the validator's typed claims from the context.
//
// Example:
//
//	claims, err := jwtmiddleware.GetClaims[*validator.ValidatedClaims](r.Context())
//	if err != nil {
//	    http.Error(w, "failed to get claims", http.StatusInternalServerError)
//	    return
//	}
//	fmt.Println(claims.Subject)
func GetClaims[T any](ctx context.Context) (T, error) {
	return core.GetClaims[T](ctx)
}

// MustGetClaims retrieves claims from the context or panics.
// Use only when you are certain claims exist (e.g., after middleware has run).
func MustGetClaims[T any](ctx context.Context) T {
	claims, err := core.GetClaims[T](ctx)
	if err != nil {
		panic(err)
	}
	return claims
}

// HasIdentity checks if a verified identity exists in the context.
func HasIdentity(ctx context.Context) bool {
	return core.HasIdentity(ctx)
}

// Authenticate runs extraction and validation for r without writing a
// response. Frameworks that own their response writing use it.
func (m *JWTMiddleware) Authenticate(r *http.Request) core.Outcome {
	ctx, span := m.tracer.Start(r.Context(), "jwtmiddleware.CheckJWT")
	defer span.End()

	start := time.Now()

	token, err := m.tokenExtractor(r)
	if err != nil {
		if m.logger != nil {
			m.logger.Warn("failed to extract token from request",
				"error", err,
				"method", r.Method,
				"path", r.URL.Path)
		}
		// A carrier that could not be read holds no usable token.
		token = ""
	}

	outcome := m.core.Evaluate(ctx, token)
	m.observe(span, outcome, time.Since(start))
	return outcome
}

func (m *JWTMiddleware) observe(span Span, outcome core.Outcome, elapsed time.Duration) {
	result, code := outcomeAuthenticated, ""
	switch {
	case outcome.Rejection != nil:
		result, code = outcomeRejected, outcome.Rejection.Code
	case outcome.Anonymous():
		result = outcomeAnonymous
	}

	span.SetAttribute("auth.outcome", result)
	if code != "" {
		span.SetAttribute("auth.error_code", code)
		span.RecordError(outcome.Rejection)
	}

	m.metrics.IncCounter(MetricRequestsTotal, map[string]string{"outcome": result, "code": code})
	m.metrics.ObserveHistogram(MetricVerifyDuration, elapsed.Seconds(), map[string]string{"outcome": result})
}

// skip reports whether r bypasses authentication entirely.
func (m *JWTMiddleware) skip(r *http.Request) bool {
	if m.exclusionURLHandler != nil && m.exclusionURLHandler(r) {
		if m.logger != nil {
			m.logger.Debug("skipping JWT validation for excluded URL",
				"method", r.Method,
				"path", r.URL.Path)
		}
		return true
	}
	if !m.validateOnOptions && r.Method == http.MethodOptions {
		if m.logger != nil {
			m.logger.Debug("skipping JWT validation for OPTIONS request")
		}
		return true
	}
	return false
}

// CheckJWT is the main JWTMiddleware function which performs the main logic. It
// is passed a http.Handler which will be called if the JWT passes validation.
// A rejected request is answered by the error handler and next is not called.
func (m *JWTMiddleware) CheckJWT(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.skip(r) {
			next.ServeHTTP(w, r)
			return
		}

		outcome := m.Authenticate(r)
		if outcome.Rejection != nil {
			if m.logger != nil {
				m.logger.Warn("JWT validation failed",
					"error_code", outcome.Rejection.Code,
					"method", r.Method,
					"path", r.URL.Path)
			}
			m.errorHandler(w, r, outcome.Rejection)
			return
		}

		if outcome.Anonymous() {
			if m.logger != nil {
				m.logger.Debug("no credentials provided, continuing without identity (credentials optional)")
			}
			next.ServeHTTP(w, r)
			return
		}

		r = r.Clone(core.SetIdentity(r.Context(), outcome.Identity))
		next.ServeHTTP(w, r)
	})
}

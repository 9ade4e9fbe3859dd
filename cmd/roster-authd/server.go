package main

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"

	jwtmiddleware "github.com/rosterhq/go-jwt-middleware"
	"github.com/rosterhq/go-jwt-middleware/config"
	"github.com/rosterhq/go-jwt-middleware/jwks"
	"github.com/rosterhq/go-jwt-middleware/validator"
)

const requestIDHeader = "X-Request-ID"

type app struct {
	cfg        *config.Config
	logger     jwtmiddleware.Logger
	registry   *prometheus.Registry
	cache      *jwks.Cache
	middleware *jwtmiddleware.JWTMiddleware
}

// newApp wires the key cache, validator and middleware around store. One
// Prometheus registry collects both cache and middleware metrics.
func newApp(cfg *config.Config, logger jwtmiddleware.Logger, store jwks.Store) (*app, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := jwtmiddleware.NewPrometheusMetrics(registry)

	fetcher, err := jwks.NewHTTPFetcher(
		jwks.WithJWKSURL(cfg.JWKSURL),
		jwks.WithFetchTimeout(cfg.FetchTimeout),
	)
	if err != nil {
		return nil, err
	}

	cache, err := jwks.NewCache(
		jwks.WithStore(store),
		jwks.WithFetcher(fetcher),
		jwks.WithMaxAge(cfg.CacheMaxAge),
		jwks.WithLogger(logger),
		jwks.WithMetrics(metrics),
	)
	if err != nil {
		return nil, err
	}

	validatorOpts := []validator.Option{
		validator.WithKeySource(cache),
		validator.WithProjectID(cfg.ProjectID),
		validator.WithAllowedClockSkew(cfg.ClockSkew),
		validator.WithLogger(logger),
	}
	if cfg.Issuer != "" {
		validatorOpts = append(validatorOpts, validator.WithIssuer(cfg.Issuer))
	}
	v, err := validator.New(validatorOpts...)
	if err != nil {
		return nil, err
	}

	m, err := jwtmiddleware.New(
		jwtmiddleware.WithValidator(v),
		jwtmiddleware.WithLogger(logger),
		jwtmiddleware.WithMetrics(metrics),
		jwtmiddleware.WithTracer(jwtmiddleware.NewOpenTelemetryTracer(otel.Tracer("roster-authd"))),
		jwtmiddleware.WithDebugInfo(cfg.DebugErrors),
	)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:        cfg,
		logger:     logger,
		registry:   registry,
		cache:      cache,
		middleware: m,
	}, nil
}

func (a *app) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	if origins := a.cfg.Origins(); len(origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", requestIDHeader},
			ExposedHeaders: []string{requestIDHeader, "WWW-Authenticate"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Use(a.middleware.CheckJWT)
		r.Get("/me", a.me)
	})

	return r
}

type meResponse struct {
	SubjectID string         `json:"subject_id"`
	Email     *string        `json:"email,omitempty"`
	Claims    map[string]any `json:"claims"`
}

func (a *app) me(w http.ResponseWriter, r *http.Request) {
	identity, err := jwtmiddleware.GetIdentity(r.Context())
	if err != nil {
		a.logger.Error("identity missing behind CheckJWT", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(meResponse{
		SubjectID: identity.SubjectID,
		Email:     identity.Email,
		Claims:    identity.Claims,
	})
}

// requestID echoes a caller supplied UUID request id or assigns a new one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
			r.Header.Set(requestIDHeader, id)
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

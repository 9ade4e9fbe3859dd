// Command roster-authd serves the Firebase token middleware behind a small
// HTTP API: /v1/me echoes the verified caller, /healthz and /metrics support
// operations.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	jwtmiddleware "github.com/rosterhq/go-jwt-middleware"
	"github.com/rosterhq/go-jwt-middleware/config"
	"github.com/rosterhq/go-jwt-middleware/jwks"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, flush, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("failed to set up logging: %v", err)
	}
	defer flush()

	store, closeStore, err := newStore(cfg)
	if err != nil {
		logger.Error("failed to set up the key store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	a, err := newApp(cfg, logger, store)
	if err != nil {
		logger.Error("failed to set up the middleware", "error", err)
		os.Exit(1)
	}

	// A cold start without network still serves once keys become reachable.
	warmCtx, cancel := context.WithTimeout(context.Background(), cfg.FetchTimeout)
	if _, err := a.cache.Get(warmCtx, false); err != nil {
		logger.Warn("signing key warm-up failed", "error", err)
	}
	cancel()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           a.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("roster-authd listening", "addr", cfg.HTTPAddr, "project_id", cfg.ProjectID)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	logger.Info("roster-authd stopped")
}

// newLogger builds the configured backend. The returned func flushes it.
func newLogger(cfg *config.Config) (jwtmiddleware.Logger, func(), error) {
	if cfg.LogBackend == "zap" {
		level, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, nil, err
		}
		zcfg := zap.NewProductionConfig()
		zcfg.Level = zap.NewAtomicLevelAt(level)
		z, err := zcfg.Build()
		if err != nil {
			return nil, nil, err
		}
		return jwtmiddleware.NewZapLogger(z), func() { _ = z.Sync() }, nil
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetLevel(level)
	return jwtmiddleware.NewLogrusLogger(l), func() {}, nil
}

// newStore returns the Redis store when REDIS_ADDR is set and the file store
// otherwise.
func newStore(cfg *config.Config) (jwks.Store, func(), error) {
	if cfg.RedisAddr == "" {
		return jwks.NewFileStore(cfg.CacheFile), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	store, err := jwks.NewRedisStore(client, cfg.RedisKey)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return store, func() { _ = client.Close() }, nil
}

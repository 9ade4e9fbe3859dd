package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var variables = []string{
	"FIREBASE_PROJECT_ID", "FIREBASE_ISSUER", "FIREBASE_JWKS_URL",
	"JWKS_CACHE_FILE", "JWKS_CACHE_MAX_AGE", "JWKS_FETCH_TIMEOUT", "JWT_CLOCK_SKEW",
	"REDIS_ADDR", "REDIS_KEY", "HTTP_ADDR", "SHUTDOWN_TIMEOUT", "CORS_ALLOWED_ORIGINS",
	"LOG_LEVEL", "LOG_BACKEND", "DEBUG_ERRORS",
}

// clearEnv blanks every variable Load reads so the host environment cannot
// leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range variables {
		t.Setenv(v, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("FIREBASE_PROJECT_ID", "roster-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "roster-test", cfg.ProjectID)
	assert.Equal(t, "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com", cfg.JWKSURL)
	assert.Equal(t, 6*time.Hour, cfg.CacheMaxAge)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
	assert.Zero(t, cfg.ClockSkew)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "roster:jwks", cfg.RedisKey)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "logrus", cfg.LogBackend)
	assert.False(t, cfg.DebugErrors)
	assert.Empty(t, cfg.Origins())
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("FIREBASE_PROJECT_ID", "roster-prod")
	t.Setenv("JWKS_CACHE_MAX_AGE", "1h")
	t.Setenv("JWT_CLOCK_SKEW", "30s")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.roster.test, https://admin.roster.test,")
	t.Setenv("LOG_BACKEND", "zap")
	t.Setenv("DEBUG_ERRORS", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, time.Hour, cfg.CacheMaxAge)
	assert.Equal(t, 30*time.Second, cfg.ClockSkew)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, []string{"https://app.roster.test", "https://admin.roster.test"}, cfg.Origins())
	assert.Equal(t, "zap", cfg.LogBackend)
	assert.True(t, cfg.DebugErrors)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "project id missing",
			env:     map[string]string{},
			wantErr: "decode environment",
		},
		{
			name:    "unknown log backend",
			env:     map[string]string{"FIREBASE_PROJECT_ID": "p", "LOG_BACKEND": "zerolog"},
			wantErr: "invalid configuration",
		},
		{
			name:    "negative skew",
			env:     map[string]string{"FIREBASE_PROJECT_ID": "p", "JWT_CLOCK_SKEW": "-1s"},
			wantErr: "invalid configuration",
		},
		{
			name:    "bad jwks url",
			env:     map[string]string{"FIREBASE_PROJECT_ID": "p", "FIREBASE_JWKS_URL": "not a url"},
			wantErr: "invalid configuration",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	// godotenv does not override variables that exist, even empty ones.
	require.NoError(t, os.Unsetenv("FIREBASE_PROJECT_ID"))
	require.NoError(t, os.Unsetenv("HTTP_ADDR"))
	t.Cleanup(func() {
		os.Unsetenv("FIREBASE_PROJECT_ID")
		os.Unsetenv("HTTP_ADDR")
	})

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("FIREBASE_PROJECT_ID=from-file\nHTTP_ADDR=:9090\n"), 0o600))

	cfg, err := Load(path, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.ProjectID)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
}

package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwtmiddleware "github.com/rosterhq/go-jwt-middleware"
	"github.com/rosterhq/go-jwt-middleware/config"
	"github.com/rosterhq/go-jwt-middleware/internal/testkeys"
	"github.com/rosterhq/go-jwt-middleware/jwks"
)

type fixture struct {
	key    *testkeys.Key
	jwks   *testkeys.JWKSServer
	server *httptest.Server
}

func newFixture(t *testing.T, origins string) *fixture {
	t.Helper()

	key := testkeys.NewKey(t, "k1")
	published := testkeys.NewJWKSServer(t, key)

	cfg := &config.Config{
		ProjectID:          testkeys.ProjectID,
		JWKSURL:            published.URL,
		CacheMaxAge:        jwks.DefaultMaxAge,
		FetchTimeout:       time.Second,
		CORSAllowedOrigins: origins,
	}

	l, _ := logrustest.NewNullLogger()
	l.SetLevel(logrus.DebugLevel)

	a, err := newApp(cfg, jwtmiddleware.NewLogrusLogger(l), jwks.NewMemoryStore())
	require.NoError(t, err)

	server := httptest.NewServer(a.routes())
	t.Cleanup(server.Close)

	return &fixture{key: key, jwks: published, server: server}
}

func (f *fixture) get(t *testing.T, path, authorization string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, f.server.URL+path, nil)
	require.NoError(t, err)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestMe(t *testing.T) {
	f := newFixture(t, "")
	token := f.key.Sign(t, testkeys.Firebase("uid-42", time.Now()))

	resp := f.get(t, "/v1/me", "Bearer "+token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body meResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "uid-42", body.SubjectID)
	require.NotNil(t, body.Email)
	assert.Equal(t, "uid-42@roster.test", *body.Email)
	assert.Equal(t, "uid-42", body.Claims["sub"])
	assert.Equal(t, 1, f.jwks.Requests())
}

func TestMe_Rejections(t *testing.T) {
	f := newFixture(t, "")

	t.Run("missing token", func(t *testing.T) {
		resp := f.get(t, "/v1/me", "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))

		var body jwtmiddleware.ErrorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "MISSING_TOKEN", body.ErrorCode)
	})

	t.Run("wrong project", func(t *testing.T) {
		token := f.key.Sign(t, testkeys.Firebase("uid-42", time.Now()).Audience([]string{"other-project"}))

		resp := f.get(t, "/v1/me", "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		var body jwtmiddleware.ErrorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "INVALID_TOKEN_CLAIMS", body.ErrorCode)
		assert.Nil(t, body.DebugInfo)
	})
}

func TestMe_KeysUnavailable(t *testing.T) {
	f := newFixture(t, "")
	f.jwks.Fail(http.StatusInternalServerError)
	token := f.key.Sign(t, testkeys.Firebase("uid-42", time.Now()))

	resp := f.get(t, "/v1/me", "Bearer "+token)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var body jwtmiddleware.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "GOOGLE_KEYS_UNAVAILABLE", body.ErrorCode)
}

func TestHealthz(t *testing.T) {
	f := newFixture(t, "")

	resp := f.get(t, "/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, f.jwks.Requests())
}

func TestMetrics(t *testing.T) {
	f := newFixture(t, "")
	token := f.key.Sign(t, testkeys.Firebase("uid-42", time.Now()))
	f.get(t, "/v1/me", "Bearer "+token)
	f.get(t, "/v1/me", "")

	resp := f.get(t, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(raw)
	assert.Contains(t, text, jwtmiddleware.MetricRequestsTotal)
	assert.Contains(t, text, jwtmiddleware.MetricVerifyDuration)
	assert.Contains(t, text, jwks.MetricFetchTotal)
}

func TestRequestID(t *testing.T) {
	f := newFixture(t, "")

	t.Run("assigned", func(t *testing.T) {
		resp := f.get(t, "/healthz", "")
		_, err := uuid.Parse(resp.Header.Get(requestIDHeader))
		assert.NoError(t, err)
	})

	t.Run("echoed", func(t *testing.T) {
		id := uuid.NewString()
		req, err := http.NewRequest(http.MethodGet, f.server.URL+"/healthz", nil)
		require.NoError(t, err)
		req.Header.Set(requestIDHeader, id)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, id, resp.Header.Get(requestIDHeader))
	})
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t, "https://app.roster.test")

	req, err := http.NewRequest(http.MethodOptions, f.server.URL+"/v1/me", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.roster.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "https://app.roster.test", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, 0, f.jwks.Requests())
}

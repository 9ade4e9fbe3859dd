package jwtmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rosterhq/go-jwt-middleware/core"
)

func newGinEngine(t *testing.T, g *GinJWTMiddleware) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(g.CheckJWTGin())
	handler := func(c *gin.Context) {
		identity, ok := GinIdentity(c)
		if !ok {
			c.JSON(http.StatusOK, gin.H{"anonymous": true})
			return
		}
		fromRequest, err := GetIdentity(c.Request.Context())
		require.NoError(t, err)
		assert.Same(t, identity, fromRequest)
		c.JSON(http.StatusOK, gin.H{"subject_id": identity.SubjectID})
	}
	engine.GET("/v1/me", handler)
	engine.OPTIONS("/v1/me", handler)
	return engine
}

func Test_GinCheckJWT(t *testing.T) {
	valid := staticValidator{claims: map[string]any{"sub": "uid-1"}}

	tests := []struct {
		name          string
		options       []Option
		method        string
		authorization string
		wantStatus    int
		wantBody      string
		wantCode      string
	}{
		{
			name:          "authenticated",
			options:       []Option{WithValidator(valid)},
			method:        http.MethodGet,
			authorization: "Bearer t",
			wantStatus:    http.StatusOK,
			wantBody:      `{"subject_id":"uid-1"}`,
		},
		{
			name:          "wrong scheme",
			options:       []Option{WithValidator(valid)},
			method:        http.MethodGet,
			authorization: "Basic abc123",
			wantStatus:    http.StatusUnauthorized,
			wantCode:      core.ErrorCodeMissingToken,
		},
		{
			name:       "credentials optional",
			options:    []Option{WithValidator(valid), WithCredentialsOptional(true)},
			method:     http.MethodGet,
			wantStatus: http.StatusOK,
			wantBody:   `{"anonymous":true}`,
		},
		{
			name:       "OPTIONS skipped",
			options:    []Option{WithValidator(valid), WithValidateOnOptions(false)},
			method:     http.MethodOptions,
			wantStatus: http.StatusOK,
			wantBody:   `{"anonymous":true}`,
		},
		{
			name:          "keys unavailable",
			options:       []Option{WithValidator(staticValidator{err: core.NewValidationError(core.ErrorCodeKeysUnavailable, "Unable to fetch Google signing keys", nil)})},
			method:        http.MethodGet,
			authorization: "Bearer t",
			wantStatus:    http.StatusServiceUnavailable,
			wantCode:      core.ErrorCodeKeysUnavailable,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m, err := New(tc.options...)
			require.NoError(t, err)
			engine := newGinEngine(t, NewGin(m))

			req := httptest.NewRequest(tc.method, "/v1/me", nil)
			if tc.authorization != "" {
				req.Header.Set("Authorization", tc.authorization)
			}
			rec := httptest.NewRecorder()
			engine.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			if tc.wantBody != "" {
				assert.JSONEq(t, tc.wantBody, rec.Body.String())
			}
			if tc.wantCode != "" {
				assert.Equal(t, tc.wantCode, decodeError(t, rec).ErrorCode)
			}
		})
	}
}

func Test_GinCustomErrorHandler(t *testing.T) {
	m, err := New(WithValidator(staticValidator{}))
	require.NoError(t, err)

	var got error
	g := NewGin(m, WithGinErrorHandler(func(c *gin.Context, err error) {
		got = err
		c.AbortWithStatus(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	newGinEngine(t, g).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/me", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.ErrorIs(t, got, ErrJWTMissing)
}

func Test_GinErrorHandlerDebugInfo(t *testing.T) {
	claimsErr := core.NewValidationError(core.ErrorCodeInvalidClaims, "Token issuer mismatch", nil)
	claimsErr.DebugInfo = map[string]any{"actual_issuer": "https://accounts.google.com"}

	m, err := New(WithValidator(staticValidator{err: claimsErr}), WithDebugInfo(true))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("Authorization", "Bearer t")
	rec := httptest.NewRecorder()
	newGinEngine(t, NewGin(m)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, `Bearer error="invalid_token", error_description="Token issuer mismatch"`, rec.Header().Get("WWW-Authenticate"))
	assert.Equal(t, "https://accounts.google.com", decodeError(t, rec).DebugInfo["actual_issuer"])
}

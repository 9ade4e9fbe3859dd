package jwtechohandler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwtmiddleware "github.com/rosterhq/go-jwt-middleware"
	"github.com/rosterhq/go-jwt-middleware/core"
)

type staticValidator struct {
	claims any
	err    error
}

func (s staticValidator) ValidateToken(context.Context, string) (any, error) {
	return s.claims, s.err
}

func newServer(t *testing.T, v jwtmiddleware.TokenValidator, opts ...Option) *echo.Echo {
	t.Helper()

	m, err := jwtmiddleware.New(jwtmiddleware.WithValidator(v))
	require.NoError(t, err)

	e := echo.New()
	e.Use(NewEchoMiddleware(m, opts...))
	e.GET("/v1/me", func(c echo.Context) error {
		identity, ok := GetIdentity(c, DefaultIdentityKey)
		if !ok {
			return c.JSON(http.StatusOK, map[string]any{"anonymous": true})
		}
		fromRequest, err := core.GetIdentity(c.Request().Context())
		require.NoError(t, err)
		assert.Same(t, identity, fromRequest)
		return c.JSON(http.StatusOK, map[string]any{"subject_id": identity.SubjectID})
	})
	return e
}

func TestNewEchoMiddleware(t *testing.T) {
	valid := staticValidator{claims: map[string]any{"sub": "uid-1"}}

	tests := []struct {
		name          string
		validator     jwtmiddleware.TokenValidator
		authorization string
		wantStatus    int
		wantBody      string
		wantCode      string
	}{
		{
			name:          "authenticated",
			validator:     valid,
			authorization: "Bearer t",
			wantStatus:    http.StatusOK,
			wantBody:      `{"subject_id":"uid-1"}`,
		},
		{
			name:          "wrong scheme",
			validator:     valid,
			authorization: "Basic abc123",
			wantStatus:    http.StatusUnauthorized,
			wantCode:      core.ErrorCodeMissingToken,
		},
		{
			name:          "invalid claims",
			validator:     staticValidator{err: core.NewValidationError(core.ErrorCodeInvalidClaims, "Token audience mismatch", nil)},
			authorization: "Bearer t",
			wantStatus:    http.StatusUnauthorized,
			wantCode:      core.ErrorCodeInvalidClaims,
		},
		{
			name:          "keys unavailable",
			validator:     staticValidator{err: core.NewValidationError(core.ErrorCodeKeysUnavailable, "Unable to fetch Google signing keys", nil)},
			authorization: "Bearer t",
			wantStatus:    http.StatusServiceUnavailable,
			wantCode:      core.ErrorCodeKeysUnavailable,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := newServer(t, tc.validator)

			req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
			if tc.authorization != "" {
				req.Header.Set("Authorization", tc.authorization)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			if tc.wantBody != "" {
				assert.JSONEq(t, tc.wantBody, rec.Body.String())
			}
			if tc.wantCode != "" {
				var body jwtmiddleware.ErrorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, tc.wantCode, body.ErrorCode)
			}
		})
	}
}

func TestNewEchoMiddleware_CustomErrorHandler(t *testing.T) {
	var got error
	e := newServer(t, staticValidator{}, WithErrorHandler(func(c echo.Context, err error) error {
		got = err
		return c.NoContent(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/me", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.ErrorIs(t, got, jwtmiddleware.ErrJWTMissing)
}

func TestGetIdentity_CustomKey(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	_, ok := GetIdentity(c, "caller")
	assert.False(t, ok)

	c.Set("caller", &core.Identity{SubjectID: "uid-2"})
	identity, ok := GetIdentity(c, "caller")
	require.True(t, ok)
	assert.Equal(t, "uid-2", identity.SubjectID)
}

// Package jwtechohandler runs the JWT middleware inside an echo server.
package jwtechohandler

import (
	"time"

	"github.com/labstack/echo/v4"

	jwtmiddleware "github.com/rosterhq/go-jwt-middleware"
	"github.com/rosterhq/go-jwt-middleware/core"
)

// DefaultIdentityKey is the echo.Context key holding the *core.Identity.
var DefaultIdentityKey = "identity"

// echoMiddlewareConfig holds all configuration for the middleware
type echoMiddlewareConfig struct {
	errorHandler func(echo.Context, error) error
	contextKey   string
	debugInfo    bool
}

// NewEchoMiddleware wraps m as an echo.MiddlewareFunc. On success the
// identity is stored in the request context and under the configured key.
func NewEchoMiddleware(m *jwtmiddleware.JWTMiddleware, opts ...Option) echo.MiddlewareFunc {
	config := &echoMiddlewareConfig{
		contextKey: DefaultIdentityKey,
	}
	for _, opt := range opts {
		opt(config)
	}
	if config.errorHandler == nil {
		config.errorHandler = newErrorHandler(config.debugInfo)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			outcome := m.Authenticate(c.Request())
			if outcome.Rejection != nil {
				return config.errorHandler(c, outcome.Rejection)
			}

			if outcome.Authenticated() {
				r := c.Request()
				c.SetRequest(r.Clone(core.SetIdentity(r.Context(), outcome.Identity)))
				c.Set(config.contextKey, outcome.Identity)
			}
			return next(c)
		}
	}
}

// newErrorHandler writes the same JSON body as the net/http middleware.
func newErrorHandler(includeDebug bool) func(echo.Context, error) error {
	return func(c echo.Context, err error) error {
		status, body := jwtmiddleware.NewErrorResponse(err, includeDebug, time.Now())
		if challenge := jwtmiddleware.WWWAuthenticate(err); challenge != "" {
			c.Response().Header().Set("WWW-Authenticate", challenge)
		}
		c.Response().Header().Set("Cache-Control", "no-store")
		return c.JSON(status, body)
	}
}

// GetIdentity extracts the verified identity from the Echo context.
func GetIdentity(c echo.Context, contextKey string) (*core.Identity, bool) {
	identity, ok := c.Get(contextKey).(*core.Identity)
	return identity, ok && identity != nil
}

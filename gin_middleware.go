package jwtmiddleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rosterhq/go-jwt-middleware/core"
)

// GinErrorHandler answers a rejected gin request. It must abort the context.
type GinErrorHandler func(c *gin.Context, err error)

// GinJWTMiddleware runs a JWTMiddleware as a gin.HandlerFunc.
type GinJWTMiddleware struct {
	middleware   *JWTMiddleware
	errorHandler GinErrorHandler
}

// GinOption configures a GinJWTMiddleware.
type GinOption func(*GinJWTMiddleware)

// WithGinErrorHandler replaces DefaultGinErrorHandler.
func WithGinErrorHandler(h GinErrorHandler) GinOption {
	return func(g *GinJWTMiddleware) {
		if h != nil {
			g.errorHandler = h
		}
	}
}

// NewGin wraps m for gin. The default gin error handler honours
// m's debug info setting.
func NewGin(m *JWTMiddleware, opts ...GinOption) *GinJWTMiddleware {
	g := &GinJWTMiddleware{
		middleware:   m,
		errorHandler: NewGinErrorHandler(m.debugInfo),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CheckJWTGin is the gin form of CheckJWT. On success the identity is stored
// both in the request context and under the gin key IdentityKey.
func (g *GinJWTMiddleware) CheckJWTGin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if g.middleware.skip(c.Request) {
			c.Next()
			return
		}

		outcome := g.middleware.Authenticate(c.Request)
		if outcome.Rejection != nil {
			g.errorHandler(c, outcome.Rejection)
			return
		}

		if outcome.Authenticated() {
			c.Request = c.Request.Clone(core.SetIdentity(c.Request.Context(), outcome.Identity))
			c.Set(IdentityKey, outcome.Identity)
		}
		c.Next()
	}
}

// IdentityKey is the gin.Context key holding the *core.Identity.
const IdentityKey = "roster.identity"

// NewGinErrorHandler returns a GinErrorHandler writing the same body as the
// net/http handler.
func NewGinErrorHandler(includeDebug bool) GinErrorHandler {
	return func(c *gin.Context, err error) {
		status, body := NewErrorResponse(err, includeDebug, time.Now())
		if challenge := WWWAuthenticate(err); challenge != "" {
			c.Header("WWW-Authenticate", challenge)
		}
		c.Header("Cache-Control", "no-store")
		c.AbortWithStatusJSON(status, body)
	}
}

// DefaultGinErrorHandler writes a rejection without debug_info.
var DefaultGinErrorHandler = NewGinErrorHandler(false)

// GinIdentity returns the identity stored by CheckJWTGin.
func GinIdentity(c *gin.Context) (*core.Identity, bool) {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return nil, false
	}
	identity, ok := v.(*core.Identity)
	return identity, ok && identity != nil
}

package validator

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/rosterhq/go-jwt-middleware/core"
)

// ValidatedClaims is the struct that will be inserted into the context for
// the user. CustomClaims will be nil unless WithCustomClaims is passed to New.
type ValidatedClaims struct {
	Subject        string
	Email          *string
	EmailVerified  bool
	Audience       []string
	Issuer         string
	IssuedAt       time.Time
	Expiry         time.Time
	AuthTime       time.Time
	SignInProvider string

	// Claims is the complete payload, registered and private claims alike.
	Claims map[string]any

	CustomClaims CustomClaims
}

// CustomClaims defines any custom data / claims wanted.
// The Validator will call the Validate function which
// is where custom validation logic can be defined.
type CustomClaims interface {
	Validate(context.Context) error
}

// Identity implements core.IdentityClaims.
func (c *ValidatedClaims) Identity() *core.Identity {
	return &core.Identity{
		SubjectID: c.Subject,
		Email:     c.Email,
		Claims:    c.Claims,
		Validated: c,
	}
}

// newValidatedClaims copies a verified token into ValidatedClaims. Missing
// claims are left at their zero values.
func newValidatedClaims(ctx context.Context, token jwt.Token) (*ValidatedClaims, error) {
	all, err := token.AsMap(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not read token claims: %w", err)
	}

	claims := &ValidatedClaims{
		Subject:  token.Subject(),
		Audience: token.Audience(),
		Issuer:   token.Issuer(),
		IssuedAt: token.IssuedAt(),
		Expiry:   token.Expiration(),
		Claims:   all,
	}

	private := token.PrivateClaims()

	if email, ok := private["email"].(string); ok {
		claims.Email = &email
	}
	if verified, ok := private["email_verified"].(bool); ok {
		claims.EmailVerified = verified
	}
	if seconds, ok := numericClaim(private["auth_time"]); ok {
		claims.AuthTime = time.Unix(seconds, 0)
	}
	if firebase, ok := private["firebase"].(map[string]any); ok {
		claims.SignInProvider, _ = firebase["sign_in_provider"].(string)
	}

	return claims, nil
}

// decodeCustomClaims unmarshals the token payload into custom.
func decodeCustomClaims(token jwt.Token, custom CustomClaims) error {
	payload, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("could not encode token claims: %w", err)
	}
	if err := json.Unmarshal(payload, custom); err != nil {
		return fmt.Errorf("could not decode custom claims: %w", err)
	}
	return nil
}

// numericClaim reads a JSON number claim as whole seconds.
func numericClaim(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			f, ferr := n.Float64()
			if ferr != nil {
				return 0, false
			}
			return int64(f), true
		}
		return i, true
	}
	return 0, false
}

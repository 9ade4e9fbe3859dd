package validator

import (
	"context"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"

	"github.com/rosterhq/go-jwt-middleware/core"
)

// Signature algorithms accepted for Firebase ID tokens and compatible
// issuers. Symmetric algorithms are not offered: keys come from a public JWK
// set.
const (
	EdDSA = SignatureAlgorithm("EdDSA")
	RS256 = SignatureAlgorithm("RS256") // RSASSA-PKCS-v1.5 using SHA-256
	RS384 = SignatureAlgorithm("RS384") // RSASSA-PKCS-v1.5 using SHA-384
	RS512 = SignatureAlgorithm("RS512") // RSASSA-PKCS-v1.5 using SHA-512
	ES256 = SignatureAlgorithm("ES256") // ECDSA using P-256 and SHA-256
	ES384 = SignatureAlgorithm("ES384") // ECDSA using P-384 and SHA-384
	ES512 = SignatureAlgorithm("ES512") // ECDSA using P-521 and SHA-512
	PS256 = SignatureAlgorithm("PS256") // RSASSA-PSS using SHA256 and MGF1-SHA256
	PS384 = SignatureAlgorithm("PS384") // RSASSA-PSS using SHA384 and MGF1-SHA384
	PS512 = SignatureAlgorithm("PS512") // RSASSA-PSS using SHA512 and MGF1-SHA512
)

// SignatureAlgorithm is a signature algorithm.
type SignatureAlgorithm string

var allowedSigningAlgorithms = map[SignatureAlgorithm]jwa.SignatureAlgorithm{
	EdDSA: jwa.EdDSA,
	RS256: jwa.RS256,
	RS384: jwa.RS384,
	RS512: jwa.RS512,
	ES256: jwa.ES256,
	ES384: jwa.ES384,
	ES512: jwa.ES512,
	PS256: jwa.PS256,
	PS384: jwa.PS384,
	PS512: jwa.PS512,
}

// Logger defines an optional logging interface compatible with log/slog.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Validator verifies Firebase ID tokens: signature against the key source,
// then time claims, then project claims.
type Validator struct {
	keys         KeySource
	projectID    string
	issuer       string
	algorithms   []SignatureAlgorithm
	skew         time.Duration
	now          func() time.Time
	customClaims func() CustomClaims
	logger       Logger

	verifier *Verifier
	claims   *ClaimValidator
}

// ValidateToken validates the passed in token. On success it returns a
// *ValidatedClaims; every error is a *core.ValidationError.
func (v *Validator) ValidateToken(ctx context.Context, tokenString string) (any, error) {
	token, err := v.verifier.Verify(ctx, tokenString)
	if err != nil {
		return nil, err
	}

	validated, err := newValidatedClaims(ctx, token)
	if err != nil {
		return nil, core.NewValidationError(core.ErrorCodeInvalidClaims, "Token claims could not be decoded", err)
	}

	if err := v.claims.Validate(validated); err != nil {
		if v.logger != nil {
			v.logger.Debug("token claims rejected", "error", err)
		}
		return nil, err
	}

	if v.customClaims != nil {
		custom := v.customClaims()
		if custom != nil {
			if err := decodeCustomClaims(token, custom); err != nil {
				return nil, core.NewValidationError(core.ErrorCodeInvalidClaims, "Token custom claims could not be decoded", err)
			}
			if err := custom.Validate(ctx); err != nil {
				return nil, core.NewValidationError(core.ErrorCodeInvalidClaims, "Token custom claims not validated", err)
			}
			validated.CustomClaims = custom
		}
	}

	return validated, nil
}

// ExpectedIssuer returns the issuer tokens must carry.
func (v *Validator) ExpectedIssuer() string {
	return v.issuer
}

package validator

import (
	"strings"
	"time"

	"github.com/rosterhq/go-jwt-middleware/core"
)

// FirebaseIssuerBase is prefixed to a project id to form its token issuer.
const FirebaseIssuerBase = "https://securetoken.google.com/"

// maxSubjectLength is the longest uid Firebase issues.
const maxSubjectLength = 128

// ClaimValidator checks verified claims against the Firebase project.
type ClaimValidator struct {
	projectID string
	issuer    string
	skew      time.Duration
	now       func() time.Time
}

// NewClaimValidator returns a ClaimValidator for projectID. The expected
// issuer is derived from the project id.
func NewClaimValidator(projectID string) *ClaimValidator {
	return &ClaimValidator{
		projectID: projectID,
		issuer:    FirebaseIssuerBase + projectID,
		now:       time.Now,
	}
}

// ExpectedIssuer returns the issuer string tokens must carry.
func (c *ClaimValidator) ExpectedIssuer() string {
	return c.issuer
}

// Validate returns an INVALID_TOKEN_CLAIMS *core.ValidationError when the
// audience or issuer differ from the project's, when the subject is empty or
// too long, or when auth_time lies in the future.
func (c *ClaimValidator) Validate(claims *ValidatedClaims) error {
	audienceOK := len(claims.Audience) == 1 && claims.Audience[0] == c.projectID
	issuerOK := claims.Issuer == c.issuer

	if !audienceOK || !issuerOK {
		message := "Token audience mismatch"
		if audienceOK {
			message = "Token issuer mismatch"
		}
		err := core.NewValidationError(core.ErrorCodeInvalidClaims, message, nil)
		err.DebugInfo = map[string]any{
			"expected_audience": c.projectID,
			"actual_audience":   orNotSet(strings.Join(claims.Audience, ",")),
			"expected_issuer":   c.issuer,
			"actual_issuer":     orNotSet(claims.Issuer),
		}
		return err
	}

	if claims.Subject == "" {
		return core.NewValidationError(core.ErrorCodeInvalidClaims, "Token subject is missing", nil)
	}
	if len(claims.Subject) > maxSubjectLength {
		return core.NewValidationError(core.ErrorCodeInvalidClaims, "Token subject is too long", nil)
	}

	if !claims.AuthTime.IsZero() && claims.AuthTime.After(c.now().Add(c.skew)) {
		err := core.NewValidationError(core.ErrorCodeInvalidClaims, "Token auth_time is in the future", nil)
		err.DebugInfo = map[string]any{"auth_time": claims.AuthTime.UTC().Format(time.RFC3339)}
		return err
	}

	return nil
}

func orNotSet(v string) string {
	if v == "" {
		return core.NotSet
	}
	return v
}

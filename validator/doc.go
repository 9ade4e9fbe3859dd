/*
Package validator verifies Firebase ID tokens using the lestrrat-go/jwx v2
library.

A token is accepted when, in order:

  - its shape passes cheap pre-checks (size and segment count)
  - its header names an allowed asymmetric algorithm (RS256 by default)
  - its signature verifies against the key whose kid matches the header
  - exp, iat and nbf hold against the clock, with optional skew
  - aud is exactly the project id and iss is
    https://securetoken.google.com/<project id>
  - sub is present and auth_time is not in the future

Keys come from a KeySource, normally a *jwks.Cache. Verification first uses
whatever the cache considers current. If that fails for any reason other than
the time claims, the keys are refreshed once and verification is retried.

# Basic Usage

	cache, err := jwks.NewCache(jwks.WithStore(jwks.NewFileStore("")))
	if err != nil {
	    log.Fatal(err)
	}

	v, err := validator.New(
	    validator.WithKeySource(cache),
	    validator.WithProjectID("roster-prod"),
	    validator.WithAllowedClockSkew(30*time.Second),
	)
	if err != nil {
	    log.Fatal(err)
	}

	claims, err := v.ValidateToken(ctx, tokenString)

# Errors

Every error returned by ValidateToken is a *core.ValidationError carrying one
of the core.ErrorCode* constants:

  - GOOGLE_KEYS_UNAVAILABLE when no keys could be obtained, even stale ones
  - INVALID_TOKEN_SIGNATURE for malformed, badly signed or expired tokens
  - INVALID_TOKEN_CLAIMS for audience, issuer, subject or custom claim failures

# Custom Claims

	type RosterClaims struct {
	    Role string `json:"role"`
	}

	func (c *RosterClaims) Validate(ctx context.Context) error {
	    if c.Role == "" {
	        return errors.New("role is required")
	    }
	    return nil
	}

	v, err := validator.New(
	    validator.WithKeySource(cache),
	    validator.WithProjectID("roster-prod"),
	    validator.WithCustomClaims(func() validator.CustomClaims {
	        return &RosterClaims{}
	    }),
	)
*/
package validator

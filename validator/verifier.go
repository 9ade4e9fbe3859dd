package validator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/rosterhq/go-jwt-middleware/core"
)

// KeySource supplies the key set tokens are verified against.
// *jwks.Cache implements it.
type KeySource interface {
	Get(ctx context.Context, forceRefresh bool) (jwk.Set, error)
}

// ErrUnexpectedAlgorithm is returned when the token header names an
// algorithm outside the allowed set.
var ErrUnexpectedAlgorithm = errors.New("unexpected signing algorithm")

// verificationState names the steps of a single verification for logging.
type verificationState string

const (
	stateUnverified           verificationState = "unverified"
	stateVerifiedAgainstCache verificationState = "verified_against_cache"
	stateVerifiedAgainstFresh verificationState = "verified_against_fresh_keys"
	stateVerified             verificationState = "verified"
	stateRejected             verificationState = "rejected"
)

// attempts lists the forceRefresh flag of each verification attempt: the
// cached set first, then at most one forced refresh.
var attempts = [...]bool{false, true}

// Verifier checks a token's signature against a KeySource and its time
// claims against a clock.
type Verifier struct {
	keys       KeySource
	algorithms map[jwa.SignatureAlgorithm]bool
	skew       time.Duration
	now        func() time.Time
	logger     Logger
}

// Verify returns the parsed token once its signature and time claims hold.
// Every error is a *core.ValidationError:
//
//   - GOOGLE_KEYS_UNAVAILABLE when the final attempt could not obtain keys
//   - INVALID_TOKEN_SIGNATURE for every other failure
func (v *Verifier) Verify(ctx context.Context, tokenString string) (jwt.Token, error) {
	if err := validateTokenFormat(tokenString); err != nil {
		v.transition(stateRejected, "error", err)
		return nil, core.NewValidationError(core.ErrorCodeInvalidSignature, "Token is malformed", err)
	}

	v.transition(stateUnverified)

	var (
		lastErr    error
		keysFailed bool
	)
	for attempt, forceRefresh := range attempts {
		state := stateVerifiedAgainstCache
		if forceRefresh {
			state = stateVerifiedAgainstFresh
		}

		set, err := v.keys.Get(ctx, forceRefresh)
		if err != nil {
			lastErr, keysFailed = err, true
			v.transition(state, "attempt", attempt+1, "outcome", "keys_unavailable", "error", err)
			continue
		}

		token, err := v.verifySignature(tokenString, set)
		if err != nil {
			lastErr, keysFailed = err, false
			v.transition(state, "attempt", attempt+1, "outcome", "failed", "error", err)
			continue
		}

		v.transition(state, "attempt", attempt+1, "outcome", "ok")
		if err := v.checkTimes(token); err != nil {
			v.transition(stateRejected, "error", err)
			return nil, err
		}
		v.transition(stateVerified)
		return token, nil
	}

	v.transition(stateRejected, "error", lastErr)
	if keysFailed {
		return nil, core.NewValidationError(core.ErrorCodeKeysUnavailable, "Unable to fetch Google signing keys", lastErr)
	}
	return nil, core.NewValidationError(core.ErrorCodeInvalidSignature, "Token signature verification failed", lastErr)
}

// verifySignature checks the header algorithm, then the signature against
// the key in set whose kid matches the header.
func (v *Verifier) verifySignature(tokenString string, set jwk.Set) (jwt.Token, error) {
	msg, err := jws.Parse([]byte(tokenString))
	if err != nil {
		return nil, fmt.Errorf("could not parse the token: %w", err)
	}

	signatures := msg.Signatures()
	if len(signatures) != 1 {
		return nil, fmt.Errorf("expected exactly one signature, found %d", len(signatures))
	}

	alg := signatures[0].ProtectedHeaders().Algorithm()
	if !v.algorithms[alg] {
		return nil, fmt.Errorf("%w: %q", ErrUnexpectedAlgorithm, alg)
	}

	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKeySet(set, jws.WithInferAlgorithmFromKey(true), jws.WithRequireKid(true)),
		jwt.WithValidate(false),
	)
	if err != nil {
		return nil, fmt.Errorf("could not verify the token: %w", err)
	}
	return token, nil
}

// checkTimes validates exp, iat and nbf. A key refresh cannot change the
// result, so failures here are final.
func (v *Verifier) checkTimes(token jwt.Token) error {
	err := jwt.Validate(
		token,
		jwt.WithClock(jwt.ClockFunc(v.now)),
		jwt.WithAcceptableSkew(v.skew),
		jwt.WithRequiredClaim(jwt.ExpirationKey),
		jwt.WithRequiredClaim(jwt.IssuedAtKey),
	)
	if err == nil {
		return nil
	}

	message := "Token time claims are invalid"
	switch {
	case errors.Is(err, jwt.ErrTokenExpired()):
		message = "Token has expired"
	case errors.Is(err, jwt.ErrTokenNotYetValid()):
		message = "Token is not valid yet"
	case errors.Is(err, jwt.ErrInvalidIssuedAt()):
		message = "Token was issued in the future"
	}

	return core.NewValidationError(core.ErrorCodeInvalidSignature, message, err)
}

func (v *Verifier) transition(state verificationState, args ...any) {
	if v.logger != nil {
		v.logger.Debug("token verification "+string(state), args...)
	}
}

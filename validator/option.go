package validator

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
)

// Sentinel errors for validator configuration.
var (
	ErrKeySourceRequired    = errors.New("key source is required (use WithKeySource)")
	ErrProjectIDRequired    = errors.New("project id is required (use WithProjectID)")
	ErrUnsupportedAlgorithm = errors.New("unsupported signature algorithm")
)

// Option is how options for the Validator are set up.
// Options return errors to enable validation during construction.
type Option func(*Validator) error

// New sets up a new Validator.
//
// Required options:
//   - WithKeySource: where signing keys come from, usually a *jwks.Cache
//   - WithProjectID: the Firebase project tokens must be issued for
//
// Example:
//
//	v, err := validator.New(
//	    validator.WithKeySource(cache),
//	    validator.WithProjectID("roster-prod"),
//	    validator.WithAllowedClockSkew(30 * time.Second),
//	)
func New(opts ...Option) (*Validator, error) {
	v := &Validator{
		algorithms: []SignatureAlgorithm{RS256},
		now:        time.Now,
	}

	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if v.keys == nil {
		return nil, ErrKeySourceRequired
	}
	if v.projectID == "" {
		return nil, ErrProjectIDRequired
	}

	v.claims = NewClaimValidator(v.projectID)
	if v.issuer != "" {
		v.claims.issuer = v.issuer
	}
	v.claims.skew = v.skew
	v.claims.now = v.now
	v.issuer = v.claims.issuer

	algorithms := make(map[jwa.SignatureAlgorithm]bool, len(v.algorithms))
	for _, alg := range v.algorithms {
		algorithms[allowedSigningAlgorithms[alg]] = true
	}

	v.verifier = &Verifier{
		keys:       v.keys,
		algorithms: algorithms,
		skew:       v.skew,
		now:        v.now,
		logger:     v.logger,
	}

	return v, nil
}

// WithKeySource sets the source of verification keys.
// This is a required option.
func WithKeySource(keys KeySource) Option {
	return func(v *Validator) error {
		if keys == nil {
			return errors.New("key source cannot be nil")
		}
		v.keys = keys
		return nil
	}
}

// WithProjectID sets the Firebase project id. Tokens must carry it as their
// only audience, and their issuer must be https://securetoken.google.com/
// followed by it. This is a required option.
func WithProjectID(projectID string) Option {
	return func(v *Validator) error {
		if projectID == "" {
			return errors.New("project id cannot be empty")
		}
		v.projectID = projectID
		return nil
	}
}

// WithIssuer overrides the issuer derived from the project id, for
// identity providers that publish a different fixed issuer.
func WithIssuer(issuerURL string) Option {
	return func(v *Validator) error {
		if issuerURL == "" {
			return errors.New("issuer cannot be empty")
		}
		if _, err := url.Parse(issuerURL); err != nil {
			return fmt.Errorf("invalid issuer URL: %w", err)
		}
		v.issuer = issuerURL
		return nil
	}
}

// WithAlgorithms replaces the accepted signature algorithms.
// Defaults to RS256 only, which is what Firebase signs with.
func WithAlgorithms(algorithms ...SignatureAlgorithm) Option {
	return func(v *Validator) error {
		if len(algorithms) == 0 {
			return errors.New("at least one algorithm is required")
		}
		for _, alg := range algorithms {
			if _, ok := allowedSigningAlgorithms[alg]; !ok {
				return fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, alg)
			}
		}
		v.algorithms = algorithms
		return nil
	}
}

// WithAllowedClockSkew sets the allowed clock skew for time-based claims.
//
// This allows for some tolerance when validating exp, nbf, iat and
// auth_time to account for clock differences between systems. If not set,
// the default is 0 (no clock skew allowed).
func WithAllowedClockSkew(skew time.Duration) Option {
	return func(v *Validator) error {
		if skew < 0 {
			return errors.New("clock skew cannot be negative")
		}
		v.skew = skew
		return nil
	}
}

// WithClock overrides time.Now. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		v.now = now
		return nil
	}
}

// WithCustomClaims sets a function that returns a CustomClaims object
// for unmarshalling and validation.
//
// The function is called for each token validation to create a new instance
// of custom claims. The Validate method on the custom claims will be called
// after the project claims have been checked.
func WithCustomClaims(f func() CustomClaims) Option {
	return func(v *Validator) error {
		if f == nil {
			return errors.New("custom claims function cannot be nil")
		}
		v.customClaims = f
		return nil
	}
}

// WithLogger sets a logger for verification state transitions.
func WithLogger(logger Logger) Option {
	return func(v *Validator) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		v.logger = logger
		return nil
	}
}

package jwks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"

	"github.com/rosterhq/go-jwt-middleware/internal/oidc"
)

const (
	// DefaultJWKSURL serves the public keys Firebase signs ID tokens with.
	DefaultJWKSURL = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"

	// FirebaseIssuerBase is prefixed to a project id to form its token issuer.
	FirebaseIssuerBase = "https://securetoken.google.com/"

	// DefaultFetchTimeout bounds a single JWK endpoint request.
	DefaultFetchTimeout = 5 * time.Second

	// 1MB is generous for a JWK set (typically <10KB).
	maxResponseBytes = 1 << 20
)

var (
	// ErrEmptyKeySet is returned when the endpoint answers with a set that
	// holds no keys.
	ErrEmptyKeySet = errors.New("key set contains no keys")

	// ErrResponseTooLarge is returned when the endpoint's body exceeds 1MB.
	ErrResponseTooLarge = errors.New("key set response exceeds size limit")
)

// Fetcher retrieves the current key set from its source.
type Fetcher interface {
	// Fetch returns the raw payload and its parsed form. A payload that does
	// not parse, or parses to an empty set, is an error.
	Fetch(ctx context.Context) ([]byte, jwk.Set, error)
}

// HTTPFetcher fetches a JWK set over HTTP. The endpoint is either configured
// directly or discovered once from a Firebase project's OIDC metadata.
type HTTPFetcher struct {
	jwksURL   string
	issuerURL *url.URL
	client    *http.Client

	resolveMu   sync.Mutex
	resolvedURL string
}

// NewHTTPFetcher returns an HTTPFetcher for DefaultJWKSURL unless options
// say otherwise.
//
// Example:
//
//	fetcher, err := jwks.NewHTTPFetcher(
//	    jwks.WithDiscovery("roster-prod"),
//	    jwks.WithFetchTimeout(3 * time.Second),
//	)
func NewHTTPFetcher(opts ...FetcherOption) (*HTTPFetcher, error) {
	f := &HTTPFetcher{
		jwksURL: DefaultJWKSURL,
		client:  &http.Client{Timeout: DefaultFetchTimeout},
	}

	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if f.jwksURL == "" && f.issuerURL == nil {
		return nil, errors.New("either a JWKS URL or an issuer for discovery is required")
	}

	return f, nil
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context) ([]byte, jwk.Set, error) {
	endpoint, err := f.endpoint(ctx)
	if err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil, fmt.Errorf("request returned status %d, expected 2xx", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(raw) > maxResponseBytes {
		return nil, nil, ErrResponseTooLarge
	}

	set, err := ParseKeySet(raw)
	if err != nil {
		return nil, nil, err
	}

	return raw, set, nil
}

// endpoint returns the configured JWK URL or resolves it through discovery.
// A successful discovery is remembered; failures are retried on the next call.
func (f *HTTPFetcher) endpoint(ctx context.Context) (string, error) {
	if f.jwksURL != "" {
		return f.jwksURL, nil
	}

	f.resolveMu.Lock()
	defer f.resolveMu.Unlock()

	if f.resolvedURL != "" {
		return f.resolvedURL, nil
	}

	doc, err := oidc.Discover(ctx, f.client, f.issuerURL)
	if err != nil {
		return "", err
	}

	f.resolvedURL = doc.JWKSURI
	return f.resolvedURL, nil
}

// ParseKeySet parses a JWK set payload. Payloads holding no keys are rejected
// with ErrEmptyKeySet.
func ParseKeySet(raw []byte) (jwk.Set, error) {
	set, err := jwk.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWKS: %w", err)
	}
	if set.Len() == 0 {
		return nil, ErrEmptyKeySet
	}
	return set, nil
}

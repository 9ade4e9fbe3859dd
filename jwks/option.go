package jwks

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ============================================================================
// Cache Options
// ============================================================================

// CacheOption is how options for the Cache are set up.
type CacheOption func(*Cache) error

// WithStore sets where fetched key sets are persisted.
// If not specified, a FileStore at DefaultCacheFile() is used.
func WithStore(store Store) CacheOption {
	return func(c *Cache) error {
		if store == nil {
			return fmt.Errorf("store cannot be nil")
		}
		c.store = store
		return nil
	}
}

// WithFetcher sets the source of fresh key sets.
// If not specified, an HTTPFetcher for DefaultJWKSURL is used.
func WithFetcher(fetcher Fetcher) CacheOption {
	return func(c *Cache) error {
		if fetcher == nil {
			return fmt.Errorf("fetcher cannot be nil")
		}
		c.fetcher = fetcher
		return nil
	}
}

// WithMaxAge sets how long a stored key set is served without contacting the
// endpoint. Defaults to 6 hours.
func WithMaxAge(maxAge time.Duration) CacheOption {
	return func(c *Cache) error {
		if maxAge <= 0 {
			return fmt.Errorf("max age must be positive")
		}
		c.maxAge = maxAge
		return nil
	}
}

// WithClock overrides time.Now. Intended for tests.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) error {
		if now == nil {
			return fmt.Errorf("clock cannot be nil")
		}
		c.now = now
		return nil
	}
}

// WithLogger sets the logger used for fallback warnings and refresh events.
func WithLogger(logger Logger) CacheOption {
	return func(c *Cache) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		c.logger = logger
		return nil
	}
}

// WithMetrics sets the sink for cache hit, fetch and fallback counters.
func WithMetrics(metrics Metrics) CacheOption {
	return func(c *Cache) error {
		if metrics == nil {
			return fmt.Errorf("metrics cannot be nil")
		}
		c.metrics = metrics
		return nil
	}
}

// ============================================================================
// HTTPFetcher Options
// ============================================================================

// FetcherOption is how options for the HTTPFetcher are set up.
type FetcherOption func(*HTTPFetcher) error

// WithJWKSURL sets the JWK endpoint to fetch from.
func WithJWKSURL(rawURL string) FetcherOption {
	return func(f *HTTPFetcher) error {
		u, err := url.Parse(rawURL)
		if err != nil {
			return fmt.Errorf("invalid JWKS URL: %w", err)
		}
		if u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("JWKS URL must be absolute: %q", rawURL)
		}
		f.jwksURL = rawURL
		return nil
	}
}

// WithDiscovery makes the fetcher resolve its endpoint from the Firebase
// project's discovery document instead of using a fixed URL.
func WithDiscovery(projectID string) FetcherOption {
	return func(f *HTTPFetcher) error {
		if projectID == "" {
			return fmt.Errorf("project id cannot be empty")
		}
		issuerURL, err := url.Parse(FirebaseIssuerBase + projectID)
		if err != nil {
			return fmt.Errorf("invalid project id %q: %w", projectID, err)
		}
		return WithDiscoveryIssuer(issuerURL)(f)
	}
}

// WithDiscoveryIssuer is WithDiscovery for an arbitrary issuer URL.
func WithDiscoveryIssuer(issuerURL *url.URL) FetcherOption {
	return func(f *HTTPFetcher) error {
		if issuerURL == nil {
			return fmt.Errorf("issuer URL cannot be nil")
		}
		f.issuerURL = issuerURL
		f.jwksURL = ""
		return nil
	}
}

// WithHTTPClient sets the HTTP client used for discovery and key requests.
// If not specified, a client with DefaultFetchTimeout is used.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *HTTPFetcher) error {
		if c == nil {
			return fmt.Errorf("HTTP client cannot be nil")
		}
		f.client = c
		return nil
	}
}

// WithFetchTimeout sets the timeout of the default HTTP client.
func WithFetchTimeout(timeout time.Duration) FetcherOption {
	return func(f *HTTPFetcher) error {
		if timeout <= 0 {
			return fmt.Errorf("fetch timeout must be positive")
		}
		client := *f.client
		client.Timeout = timeout
		f.client = &client
		return nil
	}
}

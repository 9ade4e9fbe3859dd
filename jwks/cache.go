package jwks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"golang.org/x/sync/singleflight"
)

// DefaultMaxAge is how long a stored key set is used without refreshing.
const DefaultMaxAge = 6 * time.Hour

// ErrKeysUnavailable is returned by Cache.Get when the endpoint cannot be
// reached and nothing usable is stored.
var ErrKeysUnavailable = errors.New("signing keys unavailable")

// Logger defines an optional logging interface compatible with log/slog.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Metrics receives cache counters. It is satisfied by the middleware's
// Metrics implementations.
type Metrics interface {
	IncCounter(name string, tags map[string]string)
}

// MetricFetchTotal counts key lookups by result.
const MetricFetchTotal = "roster_auth_jwks_fetch_total"

// Fetch results reported under MetricFetchTotal.
const (
	ResultCacheHit    = "cache_hit"
	ResultFetched     = "fetched"
	ResultFetchFailed = "fetch_failed"
	ResultStale       = "stale_fallback"
)

// Cache serves the signing key set under a freshness policy:
//
//   - a stored set younger than the max age is returned without a request
//   - otherwise, or when a refresh is forced, the set is fetched and stored
//   - if the fetch fails, a stored set of any age is returned instead
//   - if nothing is stored either, ErrKeysUnavailable is returned
//
// Concurrent refreshes share a single request.
type Cache struct {
	store   Store
	fetcher Fetcher
	maxAge  time.Duration
	now     func() time.Time
	logger  Logger
	metrics Metrics

	group singleflight.Group

	// decoded is the parsed form of the most recently seen snapshot.
	mu      sync.RWMutex
	decoded *decodedSet
}

type decodedSet struct {
	fetchedAt time.Time
	set       jwk.Set
}

// NewCache builds a Cache. Without options it persists to DefaultCacheFile()
// and fetches from DefaultJWKSURL.
//
// Example:
//
//	cache, err := jwks.NewCache(
//	    jwks.WithStore(jwks.NewFileStore("/var/cache/roster/jwks.json")),
//	    jwks.WithLogger(logger),
//	)
func NewCache(opts ...CacheOption) (*Cache, error) {
	c := &Cache{
		maxAge: DefaultMaxAge,
		now:    time.Now,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if c.store == nil {
		c.store = NewFileStore("")
	}
	if c.fetcher == nil {
		fetcher, err := NewHTTPFetcher()
		if err != nil {
			return nil, err
		}
		c.fetcher = fetcher
	}

	return c, nil
}

// Get returns the signing key set. forceRefresh skips the freshness check and
// goes to the endpoint, still falling back to the stored set on failure.
func (c *Cache) Get(ctx context.Context, forceRefresh bool) (jwk.Set, error) {
	if !forceRefresh {
		set, ok := c.fresh(ctx)
		if ok {
			c.count(ResultCacheHit)
			return set, nil
		}
	}

	// The shared refresh outlives any single caller's cancellation; the
	// fetcher's own timeout bounds it.
	result, err, _ := c.group.Do("refresh", func() (any, error) {
		return c.refresh(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}
	return result.(jwk.Set), nil
}

// fresh returns the stored set when it is younger than maxAge.
func (c *Cache) fresh(ctx context.Context) (jwk.Set, bool) {
	fetchedAt, ok, err := c.store.FetchedAt(ctx)
	if err != nil {
		c.warn("reading key cache failed", "error", err)
		return nil, false
	}
	if !ok || c.now().Sub(fetchedAt) >= c.maxAge {
		return nil, false
	}

	if set, ok := c.remembered(fetchedAt); ok {
		return set, true
	}

	snapshot, err := c.store.Load(ctx)
	if err != nil {
		c.warn("reading key cache failed", "error", err)
		return nil, false
	}
	if snapshot == nil || c.now().Sub(snapshot.FetchedAt) >= c.maxAge {
		return nil, false
	}

	set, err := c.decode(snapshot)
	if err != nil {
		c.warn("stored key set is unusable, refreshing", "error", err)
		return nil, false
	}
	return set, true
}

// refresh fetches a new set and persists it, falling back to the stored set.
func (c *Cache) refresh(ctx context.Context) (jwk.Set, error) {
	if c.logger != nil {
		c.logger.Debug("fetching signing keys")
	}

	raw, set, fetchErr := c.fetcher.Fetch(ctx)
	if fetchErr == nil {
		c.count(ResultFetched)

		snapshot := &Snapshot{Raw: raw, FetchedAt: c.now()}
		if err := c.store.Save(ctx, snapshot); err != nil {
			if c.logger != nil {
				c.logger.Error("persisting signing keys failed", "error", err)
			}
		}
		c.remember(snapshot.FetchedAt, set)
		return set, nil
	}

	c.count(ResultFetchFailed)

	if set, age, ok := c.stale(ctx); ok {
		c.count(ResultStale)
		c.warn("fetching signing keys failed, using stale cached keys",
			"error", fetchErr,
			"age", age)
		return set, nil
	}

	if c.logger != nil {
		c.logger.Error("fetching signing keys failed and no cached keys exist", "error", fetchErr)
	}
	return nil, fmt.Errorf("%w: %w", ErrKeysUnavailable, fetchErr)
}

// stale returns the stored set regardless of age. When the store holds
// nothing usable, the last set decoded in this process is used.
func (c *Cache) stale(ctx context.Context) (jwk.Set, time.Duration, bool) {
	snapshot, err := c.store.Load(ctx)
	if err != nil {
		c.warn("reading key cache failed", "error", err)
	}
	if err == nil && snapshot != nil {
		if set, err := c.decode(snapshot); err == nil {
			return set, snapshot.Age(c.now()), true
		}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.decoded != nil {
		return c.decoded.set, c.now().Sub(c.decoded.fetchedAt), true
	}
	return nil, 0, false
}

func (c *Cache) decode(snapshot *Snapshot) (jwk.Set, error) {
	if set, ok := c.remembered(snapshot.FetchedAt); ok {
		return set, nil
	}

	set, err := ParseKeySet(snapshot.Raw)
	if err != nil {
		return nil, err
	}
	c.remember(snapshot.FetchedAt, set)
	return set, nil
}

func (c *Cache) remembered(fetchedAt time.Time) (jwk.Set, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.decoded == nil || !c.decoded.fetchedAt.Equal(fetchedAt) {
		return nil, false
	}
	return c.decoded.set, true
}

func (c *Cache) remember(fetchedAt time.Time, set jwk.Set) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.decoded = &decodedSet{fetchedAt: fetchedAt, set: set}
}

func (c *Cache) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}

func (c *Cache) count(result string) {
	if c.metrics != nil {
		c.metrics.IncCounter(MetricFetchTotal, map[string]string{"result": result})
	}
}

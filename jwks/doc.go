/*
Package jwks keeps the Firebase signing keys available for token verification.

The Cache serves a JWK set under a freshness policy backed by a Store:

  - a stored set younger than the max age (6 hours by default) is returned
    without contacting the endpoint
  - otherwise the set is fetched, stored and returned
  - when the fetch fails, the stored set is returned regardless of age and a
    warning is logged
  - when the fetch fails and nothing is stored, ErrKeysUnavailable is returned

Callers that found no matching key in a served set can ask for a forced
refresh, which skips the freshness check. Concurrent refreshes are collapsed
into a single request.

# Stores

FileStore keeps one file (by default firebase-jwks-cache.json under the
system temp directory) whose modification time is the fetch time. Writes go
through a temporary file and a rename, so readers never see partial content.

RedisStore shares one snapshot between instances. MemoryStore keeps it in
process.

# Usage

	fetcher, err := jwks.NewHTTPFetcher(jwks.WithFetchTimeout(3 * time.Second))
	if err != nil {
	    log.Fatal(err)
	}

	cache, err := jwks.NewCache(
	    jwks.WithFetcher(fetcher),
	    jwks.WithStore(jwks.NewFileStore("/var/cache/roster/jwks.json")),
	    jwks.WithLogger(logger),
	)
	if err != nil {
	    log.Fatal(err)
	}

	set, err := cache.Get(ctx, false)
	if errors.Is(err, jwks.ErrKeysUnavailable) {
	    // endpoint unreachable and nothing cached
	}

When no JWK URL is known, WithDiscovery resolves it once from the project's
https://securetoken.google.com/{project}/.well-known/openid-configuration
document.
*/
package jwks

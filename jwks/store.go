package jwks

import (
	"context"
	"time"
)

// Snapshot is one persisted copy of the JWK endpoint's response.
type Snapshot struct {
	// Raw is the response body exactly as fetched.
	Raw []byte

	// FetchedAt is when Raw was fetched. Freshness is measured from it.
	FetchedAt time.Time
}

// Age returns how old the snapshot is at now.
func (s *Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.FetchedAt)
}

// Store holds at most one Snapshot. Implementations must be safe for
// concurrent use, and a Save must be observed by readers either completely or
// not at all.
type Store interface {
	// Load returns the stored snapshot, or (nil, nil) when nothing is stored.
	Load(ctx context.Context) (*Snapshot, error)

	// Save replaces the stored snapshot. It never merges with what was there.
	Save(ctx context.Context, snapshot *Snapshot) error

	// FetchedAt reports when the stored snapshot was fetched without reading
	// its payload where the backend allows. ok is false when nothing is stored.
	FetchedAt(ctx context.Context) (fetchedAt time.Time, ok bool, err error)
}

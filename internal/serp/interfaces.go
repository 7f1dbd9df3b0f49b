package serp

import (
	"context"
	"time"
)

// Provider retrieves a live snapshot for one pair. Implementations include
// the headless-browser scraper, the static HTTP scraper, and the paid
// results API; a provider chain is itself a Provider.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, pair WorkPair) (Snapshot, error)
}

// CacheStore holds previously computed snapshots keyed by snapshot key.
// Get must enforce TTL itself: an expired entry is reported as a miss even
// if it is still physically present. Implementations must be safe for
// concurrent use.
type CacheStore interface {
	Get(ctx context.Context, key string) (Snapshot, bool, error)
	Set(ctx context.Context, key string, snapshot Snapshot) error
}

// BlobStore writes raw artifacts (captured page markup) and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// Publisher pushes snapshot-completed events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Hasher computes digests for archive paths.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing TTL behavior).
type Clock interface {
	Now() time.Time
}

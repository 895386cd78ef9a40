package ports

import (
	"context"
	"time"
)

// Cache stores rendered artifacts keyed by a digest of their inputs.
type Cache interface {
	// Get returns the cached bytes.
	// Returns domain.ErrCacheMiss if the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key. A zero ttl uses the adapter default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

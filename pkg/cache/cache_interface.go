package cache

import (
	"context"
	"time"
)

// Cache defines the contract for the cache layer. The payment core uses
// it for order-status polling responses and for the callback replay
// guard; both degrade gracefully when the cache is down.
type Cache interface {
	// Get fetches a key and unmarshals it into dest.
	// found=false means cache miss and dest is untouched.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Set stores a value with a TTL.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// SetNX stores a value only if the key does not exist yet.
	// Returns true when the key was set by this call.
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)

	// Delete removes keys.
	Delete(ctx context.Context, keys ...string) error

	// Ping checks the connection.
	Ping(ctx context.Context) error
}

// Package cache provides the TTL cache fronting external lookups.
//
// Failure semantics are deliberately lossy: a storage failure on read is a
// miss and a storage failure on write is logged and swallowed. Callers
// degrade to recomputation, never to an error.
package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Store is a key-value cache with per-entry expiry.
//
// Get never returns an expired value: implementations must treat an entry at
// or past its expiry as absent and remove it before reporting the miss.
// Put is a wholesale upsert keyed by the literal key string.
type Store interface {
	Get(ctx context.Context, key string) (json.RawMessage, bool)
	Put(ctx context.Context, key string, value json.RawMessage, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

// Key builds a cache key from a lookup kind and its input.
// The key must be deterministic in both so distinct requests never collide.
func Key(kind, input string) string {
	return kind + ":" + input
}

// Package cache stores encoded diagram pages between conversions.
//
// A conversion with a fixed id seed is a pure function of its table and
// geometry config, so its encoded pages can be reused. The container document
// itself is not cached because its modification timestamp changes per
// request.
//
// Backends:
//   - [NullCache]: stores nothing (caching disabled, or random ids)
//   - [FileCache]: one JSON file per entry under a directory (CLI)
//   - [RedisCache]: shared cache for server deployments
//
// Keys are built by a [Keyer] so that callers never assemble key strings by
// hand:
//
//	keyer := cache.NewDefaultKeyer()
//	key := keyer.DocumentKey(cache.Hash(tableJSON), cache.Hash(configJSON), cache.DocumentKeyOpts{Seed: "1"})
//	data, hit, err := c.Get(ctx, key)
package cache

import (
	"context"
	"time"
)

// DefaultTTL is how long cached pages are kept.
const DefaultTTL = 7 * 24 * time.Hour

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	// Get returns the value for key. A miss is reported as hit == false
	// with a nil error.
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)

	// Set stores data under key. A ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

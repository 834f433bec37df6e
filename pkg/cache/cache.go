// Package cache stores encoded preview renders so that a catalog refresh does
// not have to re-run the Lanczos downscale for assets that did not change.
//
// Three backends implement [Cache]:
//   - [NullCache]: caching disabled
//   - [FileCache]: expiry-prefixed files under the XDG cache directory (CLI default)
//   - [RedisCache]: shared cache for a team working off the same asset tree
//
// Keys are produced by a [Keyer] from the content hash of the source file and
// the preview dimensions, so a renamed file still hits its old entry.
package cache

import (
	"context"
	"time"
)

// TTLPreview is how long a preview entry lives. Previews are derived purely
// from content, so they only expire to bound disk usage.
const TTLPreview = 30 * 24 * time.Hour

// Cache is a byte-oriented key/value store with per-entry TTL.
type Cache interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer generates cache keys.
type Keyer interface {
	// PreviewKey identifies the preview of a file with the given content hash
	// rendered at w×h.
	PreviewKey(contentHash string, w, h int) string
}

// DefaultKeyer builds unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default key scheme.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// PreviewKey returns "preview:<hash>".
func (DefaultKeyer) PreviewKey(contentHash string, w, h int) string {
	return hashKey("preview", contentHash, w, h)
}

// NullCache never stores anything. It backs --no-cache.
type NullCache struct{}

// NewNullCache creates a null cache.
func NewNullCache() Cache {
	return NullCache{}
}

// Get always misses.
func (NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

// Set discards data.
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

// Delete does nothing.
func (NullCache) Delete(context.Context, string) error { return nil }

// Close does nothing.
func (NullCache) Close() error { return nil }

var _ Cache = NullCache{}

// Package cache stores rendered artifacts so identical workspaces are not
// pushed through Graphviz or the rasteriser twice.
//
// # Backends
//
//   - [NullCache]: never stores anything (caching disabled)
//   - [FileCache]: one JSON file per entry, for the CLI
//   - [RedisCache]: shared entries for `snaplink serve` instances
//
// # Keys
//
// A [Keyer] derives keys from the hash of the export source (the DOT text
// of a workspace) and the render options, so any change to the workspace
// or options yields a new key:
//
//	keyer := cache.NewDefaultKeyer()
//	key := keyer.ArtifactKey(cache.Hash([]byte(dot)), cache.ArtifactKeyOpts{Format: "svg"})
//	data, hit, err := c.Get(ctx, key)
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values with an optional TTL.
type Cache interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	Delete(ctx context.Context, key string) error
	Close() error
}

// ArtifactKeyOpts are the render options that change an artifact's bytes.
type ArtifactKeyOpts struct {
	Format   string  `json:"format"`
	Detailed bool    `json:"detailed,omitempty"`
	Scale    float64 `json:"scale,omitempty"`
}

// Keyer derives cache keys.
type Keyer interface {
	ArtifactKey(sourceHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer produces "artifact:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ArtifactKey hashes the source hash together with the options.
func (DefaultKeyer) ArtifactKey(sourceHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", sourceHash, opts)
}

// Package cache stores frame reports and rendered artifacts between runs.
//
// Three backends implement [Cache]:
//
//   - [FileCache]: one JSON entry per key under a local directory (CLI default)
//   - [RedisCache]: a shared Redis instance for the HTTP server
//   - [NullCache]: never stores anything, for --no-cache and tests
//
// Keys are produced by a [Keyer] so that every component agrees on the
// layout of the key space. Content is addressed by [Hash].
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the stored value and whether it was found. A miss is not
	// an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer generates cache keys.
type Keyer interface {
	// ReportKey addresses the frame report of a scene built with opts.
	ReportKey(sceneHash string, opts ReportKeyOpts) string

	// ArtifactKey addresses a rendered graph of a report.
	ArtifactKey(reportHash string, opts ArtifactKeyOpts) string
}

// ReportKeyOpts are the frame options that change a report.
type ReportKeyOpts struct {
	DevicePixelRatio float32 `json:"dpr"`
	DisableTileCache bool    `json:"no_tile_cache"`
}

// ArtifactKeyOpts are the render options that change an artifact.
type ArtifactKeyOpts struct {
	Format    string `json:"format"`
	ShowRects bool   `json:"show_rects"`
	Pruned    bool   `json:"pruned"`
}

// DefaultKeyer produces unscoped keys of the form "kind:sha256".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ReportKey implements Keyer.
func (DefaultKeyer) ReportKey(sceneHash string, opts ReportKeyOpts) string {
	return hashKey("report", sceneHash, opts)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(reportHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", reportHash, opts)
}

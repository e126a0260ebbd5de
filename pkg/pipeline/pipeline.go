// Package pipeline runs scenes through the frame builder and the renderers
// with caching.
//
// This package is shared by the CLI and the HTTP server so that both key,
// cache and log frames the same way.
//
// # Architecture
//
// The pipeline has two stages:
//
//  1. Build: run one frame over a scene, producing a [builder.Report]
//  2. Render: draw the report in one or more formats (dot, svg, png, pdf)
//
// Reports are cached by scene content hash and frame options; artifacts are
// cached by the hash of their DOT source and render options.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, s, pipeline.Options{Formats: []string{"svg"}})
//	if err != nil {
//	    return err
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/picgraph/pkg/builder"
	"github.com/matzehuels/picgraph/pkg/errors"
	"github.com/matzehuels/picgraph/pkg/render"
	"github.com/matzehuels/picgraph/pkg/render/nodelink"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultDevicePixelRatio is used when Options leaves it unset.
	DefaultDevicePixelRatio = float32(1)

	// DefaultFormat is rendered when no format is requested.
	DefaultFormat = render.FormatSVG

	// DefaultTTL is how long reports and artifacts stay cached.
	DefaultTTL = 24 * time.Hour
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	render.FormatDOT: true,
	render.FormatSVG: true,
	render.FormatPNG: true,
	render.FormatPDF: true,
}

// =============================================================================
// Options
// =============================================================================

// Options configures one pipeline run.
type Options struct {
	// Frame options.
	DevicePixelRatio float32
	DisableTileCache bool
	DebugSurfaces    bool

	// Render options. No formats means build only.
	Formats []string
	Render  nodelink.Options

	// Refresh bypasses cached reports and artifacts.
	Refresh bool

	// TTL for cache writes. Defaults to DefaultTTL.
	TTL time.Duration
}

// ValidateAndSetDefaults fills unset fields and checks formats.
func (o *Options) ValidateAndSetDefaults() error {
	if o.DevicePixelRatio == 0 {
		o.DevicePixelRatio = DefaultDevicePixelRatio
	}
	if o.DevicePixelRatio < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "device pixel ratio must be positive, got %g", o.DevicePixelRatio)
	}
	if o.TTL == 0 {
		o.TTL = DefaultTTL
	}
	formats := make([]string, len(o.Formats))
	for i, f := range o.Formats {
		formats[i] = strings.ToLower(strings.TrimSpace(f))
	}
	o.Formats = formats
	return ValidateFormats(o.Formats)
}

// BuilderOptions converts the frame options for builder.New.
func (o Options) BuilderOptions() builder.Options {
	return builder.Options{
		DevicePixelRatio: o.DevicePixelRatio,
		DisableTileCache: o.DisableTileCache,
		DebugSurfaces:    o.DebugSurfaces,
	}
}

// ValidateFormat checks a single output format.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format %q (want one of %s)", format, strings.Join(render.Formats, ", "))
	}
	return nil
}

// ValidateFormats checks every format in the list.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ParseFormats splits a comma-separated format list. Empty means DefaultFormat.
func ParseFormats(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{DefaultFormat}
	}
	var formats []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			formats = append(formats, strings.ToLower(f))
		}
	}
	return formats
}

// =============================================================================
// Results
// =============================================================================

// Result is the outcome of Execute.
type Result struct {
	Report    *builder.Report
	SceneHash string
	Artifacts map[string][]byte
	Stats     Stats
	CacheInfo CacheInfo
}

// Stats records stage timings.
type Stats struct {
	BuildTime  time.Duration
	RenderTime time.Duration
}

// CacheInfo records which stages were served from cache.
type CacheInfo struct {
	ReportHit bool
	RenderHit bool
}

func (c CacheInfo) String() string {
	return fmt.Sprintf("report=%t render=%t", c.ReportHit, c.RenderHit)
}

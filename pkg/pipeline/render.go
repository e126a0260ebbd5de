package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/picgraph/pkg/builder"
	"github.com/matzehuels/picgraph/pkg/cache"
	"github.com/matzehuels/picgraph/pkg/render"
	"github.com/matzehuels/picgraph/pkg/render/nodelink"
)

// RenderWithCacheInfo draws the report in every requested format and reports
// whether all artifacts came from cache. Artifacts are keyed by the hash of
// the generated DOT source, so two reports that draw the same graph share
// cache entries.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, report *builder.Report, opts Options) (map[string][]byte, bool, error) {
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, false, err
	}

	dot := nodelink.ToDOT(report, opts.Render)
	dotHash := cache.Hash([]byte(dot))
	keyOf := func(format string) string {
		return r.Keyer.ArtifactKey(dotHash, cache.ArtifactKeyOpts{
			Format:    format,
			ShowRects: opts.Render.ShowRects,
			Pruned:    opts.Render.Pruned,
		})
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	if !opts.Refresh {
		for _, format := range opts.Formats {
			data, hit, err := r.Cache.Get(ctx, keyOf(format))
			if err != nil || !hit {
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			return artifacts, true, nil
		}
	}

	rendered, err := RenderDOT(ctx, dot, opts.Formats)
	if err != nil {
		return nil, false, err
	}
	for format, data := range rendered {
		if err := r.Cache.Set(ctx, keyOf(format), data, opts.TTL); err != nil {
			r.Logger.Warn("cache write failed", "format", format, "err", err)
		}
	}
	return rendered, false, nil
}

// Render is RenderWithCacheInfo without the cache hit flag.
func (r *Runner) Render(ctx context.Context, report *builder.Report, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	artifacts, _, err := r.RenderWithCacheInfo(ctx, report, opts)
	return artifacts, err
}

// RenderDOT renders DOT source in each format. SVG is produced at most once
// and shared by the PNG and PDF conversions.
func RenderDOT(ctx context.Context, dot string, formats []string) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(formats))
	var svg []byte

	for _, format := range formats {
		if format != render.FormatDOT && svg == nil {
			var err error
			if svg, err = nodelink.RenderSVG(ctx, dot); err != nil {
				return nil, fmt.Errorf("render svg: %w", err)
			}
		}

		var (
			data []byte
			err  error
		)
		switch format {
		case render.FormatDOT:
			data = []byte(dot)
		case render.FormatSVG:
			data = svg
		case render.FormatPNG:
			data, err = render.ToPNG(ctx, svg, 2.0)
		case render.FormatPDF:
			data, err = render.ToPDF(ctx, svg)
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

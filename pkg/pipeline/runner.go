package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/picgraph/pkg/builder"
	"github.com/matzehuels/picgraph/pkg/cache"
	"github.com/matzehuels/picgraph/pkg/scene"
)

// Runner executes the pipeline with caching.
//
// The Runner holds no per-run state: every build gets a fresh
// [builder.Builder], so one Runner may serve concurrent callers.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// means cache.DefaultKeyer and a nil logger means log.Default().
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// SceneHash returns the content hash of a scene, used as its cache identity.
func SceneHash(s *scene.Scene) (string, error) {
	data, err := s.Marshal(scene.FormatJSON)
	if err != nil {
		return "", fmt.Errorf("hash scene: %w", err)
	}
	return cache.Hash(data), nil
}

// Execute builds a frame for s and renders every requested format.
func (r *Runner) Execute(ctx context.Context, s *scene.Scene, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{Artifacts: make(map[string][]byte)}

	sceneHash, err := SceneHash(s)
	if err != nil {
		return nil, err
	}
	result.SceneHash = sceneHash

	start := time.Now()
	report, hit, err := r.BuildWithCacheInfo(ctx, s, sceneHash, opts)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	result.Report = report
	result.Stats.BuildTime = time.Since(start)
	result.CacheInfo.ReportHit = hit

	r.Logger.Info("built frame",
		"scene", s.Name,
		"passes", report.Stats.Passes,
		"surfaces", report.Stats.Surfaces,
		"cached", hit,
		"duration", result.Stats.BuildTime)

	if len(opts.Formats) == 0 {
		return result, nil
	}

	start = time.Now()
	artifacts, hit, err := r.RenderWithCacheInfo(ctx, report, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(start)
	result.CacheInfo.RenderHit = hit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", hit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// BuildWithCacheInfo returns the report for s, from cache when possible, and
// whether it was a cache hit.
func (r *Runner) BuildWithCacheInfo(ctx context.Context, s *scene.Scene, sceneHash string, opts Options) (*builder.Report, bool, error) {
	key := r.Keyer.ReportKey(sceneHash, cache.ReportKeyOpts{
		DevicePixelRatio: opts.DevicePixelRatio,
		DisableTileCache: opts.DisableTileCache,
	})

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if report, err := builder.ReadReport(bytes.NewReader(data)); err == nil {
				return report, true, nil
			}
		} else if err != nil {
			r.Logger.Warn("cache read failed", "key", key, "err", err)
		}
	}

	bopts := opts.BuilderOptions()
	bopts.Logger = r.Logger
	report, err := builder.New(bopts).Build(ctx, s)
	if err != nil {
		return nil, false, err
	}

	if data, err := marshalReport(report); err == nil {
		if err := r.Cache.Set(ctx, key, data, opts.TTL); err != nil {
			r.Logger.Warn("cache write failed", "key", key, "err", err)
		}
	}
	return report, false, nil
}

// Build is BuildWithCacheInfo without the cache hit flag.
func (r *Runner) Build(ctx context.Context, s *scene.Scene, opts Options) (*builder.Report, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	sceneHash, err := SceneHash(s)
	if err != nil {
		return nil, err
	}
	report, _, err := r.BuildWithCacheInfo(ctx, s, sceneHash, opts)
	return report, err
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func marshalReport(report *builder.Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := report.WriteJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

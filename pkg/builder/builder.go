// Package builder runs the per-frame picture pipeline over a scene.
//
// A [Builder] is created once and reused for every frame. Each call to
// [Builder.Build] runs the three scheduling phases in their fixed order:
//
//  1. Register the scene roots and build update passes
//  2. Assign surfaces, root first
//  3. Propagate bounding rects, leaves first
//
// and returns a [Report] describing the result. The builder keeps the
// picture graph, the surface table and the tile-cache map between frames;
// tile caches not claimed by any picture during a frame are evicted.
//
// # Usage
//
//	b := builder.New(builder.Options{DevicePixelRatio: 2, Logger: logger})
//	report, err := b.Build(ctx, s)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(report.Passes)
package builder

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/picgraph/pkg/frame"
	"github.com/matzehuels/picgraph/pkg/observability"
	"github.com/matzehuels/picgraph/pkg/picture"
	"github.com/matzehuels/picgraph/pkg/scene"
)

// Options configures a Builder.
type Options struct {
	// DevicePixelRatio scales the root surface. Defaults to 1.
	DevicePixelRatio float32

	// DisableTileCache turns tile-cache pictures into plain offscreen surfaces.
	DisableTileCache bool

	// DebugSurfaces logs every surface at debug level after each frame.
	DebugSurfaces bool

	// Logger receives phase timings. Defaults to log.Default().
	Logger *log.Logger
}

func (o Options) flags() frame.Flags {
	var f frame.Flags
	if o.DisableTileCache {
		f |= frame.FlagDisableTileCache
	}
	if o.DebugSurfaces {
		f |= frame.FlagDebugSurfaces
	}
	return f
}

// Builder owns the state that persists across frames.
// It is not safe for concurrent use.
type Builder struct {
	opts       Options
	logger     *log.Logger
	graph      *picture.Graph
	surfaces   []frame.Surface
	tileCaches map[frame.SliceID]*frame.TileCache
	stores     *frame.DataStores
	frames     int
}

// New creates a Builder.
func New(opts Options) *Builder {
	if opts.DevicePixelRatio <= 0 {
		opts.DevicePixelRatio = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Builder{
		opts:       opts,
		logger:     logger,
		graph:      picture.New(),
		tileCaches: make(map[frame.SliceID]*frame.TileCache),
		stores:     frame.NewDataStores(),
	}
}

// Graph exposes the picture graph of the last frame.
func (b *Builder) Graph() *picture.Graph { return b.graph }

// TileCaches returns the tile caches retained after the last frame.
func (b *Builder) TileCaches() map[frame.SliceID]*frame.TileCache { return b.tileCaches }

// Build runs one frame over s.
//
// The only error Build returns is the context's, checked between phases; a
// cancelled frame leaves the builder ready for the next one.
func (b *Builder) Build(ctx context.Context, s *scene.Scene) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fc := frame.NewContext(s.Viewport, b.opts.DevicePixelRatio, b.opts.flags())
	frameID := fc.FrameID.String()
	pics := s.Arena()
	b.frames++

	logger := b.logger.With("frame", b.frames, "scene", s.Name)
	observability.Frame().OnFrameStart(ctx, frameID, len(pics))

	var stats Stats

	start := time.Now()
	b.graph.Reset()
	for _, root := range s.Roots() {
		b.graph.AddRoot(root)
	}
	b.graph.BuildUpdatePasses(pics, fc)
	stats.BuildTime = time.Since(start)
	observability.Frame().OnPassesBuilt(ctx, frameID, b.graph.PassCount(), b.graph.ScheduledCount(), stats.BuildTime)
	logger.Debug("built update passes",
		"passes", b.graph.PassCount(),
		"scheduled", b.graph.ScheduledCount(),
		"duration", stats.BuildTime)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start = time.Now()
	b.surfaces = append(b.surfaces[:0], frame.NewRootSurface(fc))
	for _, tc := range b.tileCaches {
		tc.Surface = unclaimed
	}
	b.graph.AssignSurfaces(pics, &b.surfaces, b.tileCaches, fc)
	evicted := b.evictTileCaches()
	stats.AssignTime = time.Since(start)
	observability.Frame().OnSurfacesAssigned(ctx, frameID, len(b.surfaces), stats.AssignTime)
	logger.Debug("assigned surfaces",
		"surfaces", len(b.surfaces),
		"tile_caches", len(b.tileCaches),
		"evicted", evicted,
		"duration", stats.AssignTime)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start = time.Now()
	b.stores.Clear()
	b.graph.PropagateBoundingRects(pics, b.surfaces, fc, b.stores, s.Primitives())
	stats.PropagateTime = time.Since(start)
	observability.Frame().OnBoundsPropagated(ctx, frameID, b.stores.Propagations, stats.PropagateTime)
	logger.Debug("propagated bounding rects",
		"propagations", b.stores.Propagations,
		"duration", stats.PropagateTime)

	if fc.Flags.Has(frame.FlagDebugSurfaces) {
		for i := range b.surfaces {
			logger.Debug("surface", "index", i, "owner", b.surfaces[i].Owner,
				"parent", b.surfaces[i].Parent, "rect", b.surfaces[i].Rect)
		}
	}

	report := b.report(fc, s, stats)
	logger.Info("frame built",
		"pictures", report.Stats.Pictures,
		"scheduled", report.Stats.Scheduled,
		"passes", report.Stats.Passes,
		"surfaces", report.Stats.Surfaces)
	return report, nil
}

// unclaimed marks a retained tile cache that no picture has used yet this frame.
const unclaimed frame.SurfaceIndex = -1

func (b *Builder) evictTileCaches() int {
	n := 0
	for slice, tc := range b.tileCaches {
		if tc.Surface == unclaimed {
			delete(b.tileCaches, slice)
			n++
		}
	}
	return n
}

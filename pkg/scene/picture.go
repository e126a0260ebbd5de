package scene

import (
	"fmt"
	"strings"

	"github.com/matzehuels/picgraph/pkg/errors"
	"github.com/matzehuels/picgraph/pkg/frame"
	"github.com/matzehuels/picgraph/pkg/geom"
	"github.com/matzehuels/picgraph/pkg/picture"
)

// CompositeMode describes how a picture is composited into its parent, and
// therefore whether it needs a surface of its own.
type CompositeMode int

const (
	// CompositeNone draws directly into the parent's surface.
	CompositeNone CompositeMode = iota
	// CompositeFilter applies a filter chain, which needs an offscreen surface.
	CompositeFilter
	// CompositeBlend uses a mix-blend mode against the backdrop.
	CompositeBlend
	// CompositeOpacity applies group opacity.
	CompositeOpacity
	// CompositeTileCache caches the picture content in tiles for one slice.
	CompositeTileCache
)

var compositeNames = [...]string{
	CompositeNone:      "none",
	CompositeFilter:    "filter",
	CompositeBlend:     "blend",
	CompositeOpacity:   "opacity",
	CompositeTileCache: "tile_cache",
}

func (m CompositeMode) String() string {
	if m < 0 || int(m) >= len(compositeNames) {
		return fmt.Sprintf("CompositeMode(%d)", int(m))
	}
	return compositeNames[m]
}

// NeedsSurface reports whether the mode establishes an offscreen surface.
func (m CompositeMode) NeedsSurface() bool { return m != CompositeNone }

// ParseCompositeMode parses a mode name. The empty string means none.
func ParseCompositeMode(s string) (CompositeMode, error) {
	if s == "" {
		return CompositeNone, nil
	}
	for i, name := range compositeNames {
		if strings.EqualFold(s, name) {
			return CompositeMode(i), nil
		}
	}
	return 0, errors.New(errors.ErrCodeInvalidPicture, "unknown composite mode %q", s)
}

// Picture is one picture record in a [Scene]. It implements
// [picture.Picture] so the scene can be scheduled directly.
type Picture struct {
	Index     frame.PictureIndex
	Name      string
	Composite CompositeMode
	Opacity   float32
	Hidden    bool

	// LocalRect is the picture's own content extent before Offset is applied.
	LocalRect geom.Rect
	// OffsetX and OffsetY translate the picture's own content and primitives.
	// Child pictures carry their own offsets.
	OffsetX, OffsetY float32

	// Slice selects the tile cache used when Composite is CompositeTileCache.
	Slice frame.SliceID

	children []frame.PictureIndex
	prims    []int
}

var _ picture.Picture = (*Picture)(nil)

// Children returns the child pictures in declaration order.
func (p *Picture) Children() []frame.PictureIndex { return p.children }

// Primitives returns indices into the owning scene's primitive list.
func (p *Picture) Primitives() []int { return p.prims }

// PreUpdate reports whether the picture has anything to draw this frame.
// Hidden pictures, fully transparent opacity groups, and leaves with no
// content are dropped.
func (p *Picture) PreUpdate(*frame.Context) bool {
	switch {
	case p.Hidden:
		return false
	case p.Composite == CompositeOpacity && p.Opacity <= 0:
		return false
	case p.LocalRect.IsEmpty() && len(p.children) == 0 && len(p.prims) == 0:
		return false
	}
	return true
}

// AssignSurface returns parentSurface for pictures that draw inline. Any other
// composite mode appends a new offscreen surface parented to parentSurface.
// Tile-cache pictures additionally claim the tile cache of their slice,
// creating it on first use, unless tile caching is disabled for the frame.
func (p *Picture) AssignSurface(
	fc *frame.Context,
	tileCaches map[frame.SliceID]*frame.TileCache,
	parentSurface frame.SurfaceIndex,
	surfaces *[]frame.Surface,
) frame.SurfaceIndex {
	if !p.Composite.NeedsSurface() {
		return parentSurface
	}

	scale := fc.DevicePixelRatio
	if int(parentSurface) < len(*surfaces) {
		scale = (*surfaces)[parentSurface].DevicePixelScale
	}
	*surfaces = append(*surfaces, frame.Surface{
		Parent:           parentSurface,
		Owner:            p.Index,
		Rect:             geom.EmptyRect(),
		ClippedRect:      geom.EmptyRect(),
		DevicePixelScale: scale,
	})
	idx := frame.SurfaceIndex(len(*surfaces) - 1)

	if p.Composite == CompositeTileCache && !fc.Flags.Has(frame.FlagDisableTileCache) && tileCaches != nil {
		tc, ok := tileCaches[p.Slice]
		if !ok {
			tc = &frame.TileCache{Slice: p.Slice}
			tileCaches[p.Slice] = tc
		}
		tc.Surface = idx
		tc.Owner = p.Index
		tc.Frames++
	}
	return idx
}

// PropagateBoundingRect unions the picture's content into its surface. A
// picture that owns its surface then grows the parent surface by the
// surface's accumulated bounds, which already include every descendant.
func (p *Picture) PropagateBoundingRect(
	surface, parentSurface frame.SurfaceIndex,
	surfaces []frame.Surface,
	fc *frame.Context,
	stores *frame.DataStores,
	prims []frame.PrimitiveInstance,
) {
	local := p.LocalRect
	for _, i := range p.prims {
		local = local.Union(prims[i].VisibleRect())
	}
	local = local.Translate(p.OffsetX, p.OffsetY)
	stores.SetLocalRect(p.Index, local)
	stores.Propagations++

	own := &surfaces[surface]
	own.Rect = own.Rect.Union(local)
	own.ClippedRect = own.Rect.Intersect(fc.Viewport)

	if surface != parentSurface {
		parent := &surfaces[parentSurface]
		parent.Rect = parent.Rect.Union(own.Rect)
		parent.ClippedRect = parent.Rect.Intersect(fc.Viewport)
	}
}

// Package frame defines the per-frame collaborators of the picture graph:
// the read-only frame context, the surface table, tile caches, and the
// primitive data the bounds walk reads.
//
// Everything here is owned by the frame builder. The scheduler in
// [github.com/matzehuels/picgraph/pkg/picture] only threads these values
// through to each picture.
package frame

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/matzehuels/picgraph/pkg/geom"
)

// PictureIndex is a dense, stable handle into the picture arena.
type PictureIndex int

// SurfaceIndex is a handle into the surface table of a frame.
type SurfaceIndex int

// RootSurfaceIndex is the top-level render target. Pictures without a parent
// surface draw into it.
const RootSurfaceIndex SurfaceIndex = 0

// SliceID identifies a picture cache slice. Tile caches are keyed by slice so
// they survive across frames.
type SliceID int

// Flags toggle optional frame-building behavior.
type Flags uint32

const (
	// FlagDisableTileCache makes tile-cache pictures fall back to plain
	// offscreen surfaces.
	FlagDisableTileCache Flags = 1 << iota
	// FlagDebugSurfaces asks the frame builder to log every surface.
	FlagDebugSurfaces
)

// Has reports whether all bits of f are set.
func (fl Flags) Has(f Flags) bool { return fl&f == f }

// Context is the read-only frame-building configuration.
type Context struct {
	FrameID          uuid.UUID
	DevicePixelRatio float32
	Viewport         geom.Rect
	Flags            Flags
}

// NewContext creates a frame context with a fresh frame ID.
// A non-positive ratio is treated as 1.
func NewContext(viewport geom.Rect, dpr float32, flags Flags) *Context {
	if dpr <= 0 {
		dpr = 1
	}
	return &Context{
		FrameID:          uuid.New(),
		DevicePixelRatio: dpr,
		Viewport:         viewport,
		Flags:            flags,
	}
}

// Surface is one render target in the frame: the root target or an
// offscreen surface established by a picture.
type Surface struct {
	Parent           SurfaceIndex
	Owner            PictureIndex // -1 for the root surface
	Rect             geom.Rect    // accumulated unclipped bounds, layout space
	ClippedRect      geom.Rect    // Rect clipped to the viewport
	DevicePixelScale float32
}

// IsRoot reports whether the surface is the top-level target.
func (s *Surface) IsRoot() bool { return s.Owner < 0 }

func (s *Surface) String() string {
	return fmt.Sprintf("surface(owner=%d parent=%d rect=%s)", s.Owner, s.Parent, s.Rect)
}

// NewRootSurface returns the surface that backs [RootSurfaceIndex].
func NewRootSurface(fc *Context) Surface {
	return Surface{
		Parent:           RootSurfaceIndex,
		Owner:            -1,
		Rect:             geom.EmptyRect(),
		ClippedRect:      geom.EmptyRect(),
		DevicePixelScale: fc.DevicePixelRatio,
	}
}

// TileCache is a picture cache for one slice. Instances live in a map owned by
// the frame builder and are reused from frame to frame.
type TileCache struct {
	Slice   SliceID
	Surface SurfaceIndex
	Owner   PictureIndex
	Frames  int // number of frames this cache has been attached to
}

// PrimitiveInstance is a drawable primitive placed inside a picture.
type PrimitiveInstance struct {
	Picture PictureIndex
	Rect    geom.Rect
	Clip    geom.Rect // empty means unclipped
}

// VisibleRect returns the primitive rect intersected with its clip.
func (p PrimitiveInstance) VisibleRect() geom.Rect {
	if p.Clip.IsEmpty() {
		return p.Rect
	}
	return p.Rect.Intersect(p.Clip)
}

// DataStores holds per-picture data the bounds walk reads and the counters it
// updates. The zero value is ready to use.
type DataStores struct {
	localRects map[PictureIndex]geom.Rect

	// Propagations counts bounding-rect propagations performed this frame.
	Propagations int
}

// NewDataStores creates empty data stores.
func NewDataStores() *DataStores {
	return &DataStores{localRects: make(map[PictureIndex]geom.Rect)}
}

// SetLocalRect records the computed local rect of a picture.
func (d *DataStores) SetLocalRect(pic PictureIndex, r geom.Rect) {
	if d.localRects == nil {
		d.localRects = make(map[PictureIndex]geom.Rect)
	}
	d.localRects[pic] = r
}

// LocalRect returns the local rect recorded for a picture, or an empty rect.
func (d *DataStores) LocalRect(pic PictureIndex) geom.Rect {
	if r, ok := d.localRects[pic]; ok {
		return r
	}
	return geom.EmptyRect()
}

// Clear drops all per-frame data while keeping the allocated storage.
func (d *DataStores) Clear() {
	clear(d.localRects)
	d.Propagations = 0
}

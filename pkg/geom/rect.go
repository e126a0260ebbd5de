// Package geom provides the small amount of 2D geometry needed to track
// picture and surface extents during frame building.
package geom

import (
	"fmt"
	"math"
)

// Rect is an axis-aligned rectangle in layout or device space.
// A rectangle whose min exceeds its max on either axis is empty.
type Rect struct {
	MinX float32 `json:"min_x" toml:"min_x"`
	MinY float32 `json:"min_y" toml:"min_y"`
	MaxX float32 `json:"max_x" toml:"max_x"`
	MaxY float32 `json:"max_y" toml:"max_y"`
}

// EmptyRect returns an empty rectangle (inverted bounds for union operations).
func EmptyRect() Rect {
	return Rect{
		MinX: math.MaxFloat32,
		MinY: math.MaxFloat32,
		MaxX: -math.MaxFloat32,
		MaxY: -math.MaxFloat32,
	}
}

// XYWH builds a rectangle from an origin and a size.
func XYWH(x, y, w, h float32) Rect {
	return Rect{MinX: x, MinY: y, MaxX: x + w, MaxY: y + h}
}

// IsEmpty returns true if the rectangle has no area.
func (r Rect) IsEmpty() bool {
	return r.MinX >= r.MaxX || r.MinY >= r.MaxY
}

// Union returns the smallest rectangle containing both r and other.
// Empty operands are ignored.
func (r Rect) Union(other Rect) Rect {
	if other.IsEmpty() {
		return r
	}
	if r.IsEmpty() {
		return other
	}
	return Rect{
		MinX: min(r.MinX, other.MinX),
		MinY: min(r.MinY, other.MinY),
		MaxX: max(r.MaxX, other.MaxX),
		MaxY: max(r.MaxY, other.MaxY),
	}
}

// Intersect returns the overlap of r and other, or an empty rectangle.
func (r Rect) Intersect(other Rect) Rect {
	out := Rect{
		MinX: max(r.MinX, other.MinX),
		MinY: max(r.MinY, other.MinY),
		MaxX: min(r.MaxX, other.MaxX),
		MaxY: min(r.MaxY, other.MaxY),
	}
	if out.IsEmpty() {
		return EmptyRect()
	}
	return out
}

// Translate offsets the rectangle. Empty rectangles stay empty.
func (r Rect) Translate(dx, dy float32) Rect {
	if r.IsEmpty() {
		return r
	}
	return Rect{MinX: r.MinX + dx, MinY: r.MinY + dy, MaxX: r.MaxX + dx, MaxY: r.MaxY + dy}
}

// Scale multiplies all coordinates by s. Empty rectangles stay empty.
func (r Rect) Scale(s float32) Rect {
	if r.IsEmpty() {
		return r
	}
	return Rect{MinX: r.MinX * s, MinY: r.MinY * s, MaxX: r.MaxX * s, MaxY: r.MaxY * s}
}

// Width returns the width of the rectangle.
func (r Rect) Width() float32 {
	if r.IsEmpty() {
		return 0
	}
	return r.MaxX - r.MinX
}

// Height returns the height of the rectangle.
func (r Rect) Height() float32 {
	if r.IsEmpty() {
		return 0
	}
	return r.MaxY - r.MinY
}

// String formats the rectangle as "(x,y wxh)", or "empty".
func (r Rect) String() string {
	if r.IsEmpty() {
		return "empty"
	}
	return fmt.Sprintf("(%g,%g %gx%g)", r.MinX, r.MinY, r.Width(), r.Height())
}

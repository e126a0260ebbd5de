package scene

import (
	"fmt"

	"github.com/matzehuels/picgraph/pkg/frame"
	"github.com/matzehuels/picgraph/pkg/geom"
)

// Synthetic scene shapes.
const (
	ShapeChain   = "chain"
	ShapeTree    = "tree"
	ShapeDiamond = "diamond"
)

// Synthetic builds a generated scene of the given shape. For chains depth is
// the number of pictures; for trees it is the number of levels.
func Synthetic(shape string, depth, fanout int) (*Scene, error) {
	switch shape {
	case ShapeChain:
		return Chain(depth), nil
	case ShapeTree:
		return Tree(depth, fanout), nil
	case ShapeDiamond:
		return Diamond(), nil
	}
	return nil, fmt.Errorf("unknown shape %q (want %s, %s or %s)", shape, ShapeChain, ShapeTree, ShapeDiamond)
}

// Chain builds n pictures where picture i has picture i+1 as its only child.
// Every eighth picture is a filter so the chain nests offscreen surfaces.
func Chain(n int) *Scene {
	s := New(fmt.Sprintf("chain-%d", n), DefaultViewport)
	var prev frame.PictureIndex
	for i := 0; i < n; i++ {
		p := &Picture{
			Name:      fmt.Sprintf("p%d", i),
			Opacity:   1,
			LocalRect: geom.XYWH(float32(i%100), float32(i%100), 10, 10),
		}
		if i%8 == 7 {
			p.Composite = CompositeFilter
		}
		idx, _ := s.Add(p)
		if i > 0 {
			_ = s.AddChild(prev, idx)
		}
		prev = idx
	}
	if n > 0 {
		_ = s.AddRoot(0)
	}
	return s
}

// Tree builds a complete tree with the given number of levels and fanout.
// The first child of every inner picture is a tile cache on its own slice.
func Tree(levels, fanout int) *Scene {
	s := New(fmt.Sprintf("tree-%dx%d", levels, fanout), DefaultViewport)
	if levels <= 0 {
		return s
	}
	fanout = max(fanout, 1)

	root, _ := s.Add(&Picture{Name: "n0", Opacity: 1, LocalRect: DefaultViewport})
	_ = s.AddRoot(root)

	level := []frame.PictureIndex{root}
	for depth := 1; depth < levels; depth++ {
		var next []frame.PictureIndex
		for _, parent := range level {
			for c := 0; c < fanout; c++ {
				p := &Picture{
					Name:      fmt.Sprintf("n%d", s.Len()),
					Opacity:   1,
					LocalRect: geom.XYWH(float32(c*20), float32(depth*20), 16, 16),
				}
				if c == 0 && depth < levels-1 {
					p.Composite = CompositeTileCache
					p.Slice = frame.SliceID(s.Len())
				}
				idx, _ := s.Add(p)
				_ = s.AddChild(parent, idx)
				next = append(next, idx)
			}
		}
		level = next
	}
	return s
}

// Diamond builds root → {a, b} → c, where b is a blend so c is reachable
// through two different surfaces.
func Diamond() *Scene {
	s := New("diamond", DefaultViewport)
	root, _ := s.Add(&Picture{Name: "root", Opacity: 1, LocalRect: geom.XYWH(0, 0, 100, 100)})
	a, _ := s.Add(&Picture{Name: "a", Opacity: 1, LocalRect: geom.XYWH(0, 0, 50, 50)})
	b, _ := s.Add(&Picture{Name: "b", Opacity: 1, Composite: CompositeBlend, LocalRect: geom.XYWH(50, 0, 50, 50)})
	c, _ := s.Add(&Picture{Name: "c", Opacity: 1, LocalRect: geom.XYWH(25, 60, 50, 50)})
	_ = s.AddChild(root, a)
	_ = s.AddChild(root, b)
	_ = s.AddChild(a, c)
	_ = s.AddChild(b, c)
	_ = s.AddRoot(root)
	return s
}

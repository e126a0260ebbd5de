package picture

import (
	"fmt"

	"github.com/matzehuels/picgraph/pkg/frame"
)

// Picture is the view of a picture record the scheduler needs. Records are
// owned by the primitive store; the scheduler only calls into them.
type Picture interface {
	// Children returns the child pictures drawn by this picture.
	Children() []frame.PictureIndex

	// PreUpdate reports whether the picture takes part in this frame.
	// Returning false prunes the picture and everything only reachable
	// through it.
	PreUpdate(fc *frame.Context) bool

	// AssignSurface picks the surface the picture's content renders into.
	// It either returns parentSurface or registers a new surface in the table.
	AssignSurface(
		fc *frame.Context,
		tileCaches map[frame.SliceID]*frame.TileCache,
		parentSurface frame.SurfaceIndex,
		surfaces *[]frame.Surface,
	) frame.SurfaceIndex

	// PropagateBoundingRect folds the picture's extent into its surface and,
	// when it owns a separate surface, into the parent surface.
	PropagateBoundingRect(
		surface, parentSurface frame.SurfaceIndex,
		surfaces []frame.Surface,
		fc *frame.Context,
		stores *frame.DataStores,
		prims []frame.PrimitiveInstance,
	)
}

// Info is the scheduling state of one picture for the current frame.
type Info struct {
	updatePass   int
	scheduled    bool
	parent       frame.PictureIndex
	hasParent    bool
	SurfaceIndex frame.SurfaceIndex
}

func newInfo() Info {
	return Info{SurfaceIndex: frame.RootSurfaceIndex}
}

// Pass returns the update pass of the picture and whether it was scheduled.
func (i Info) Pass() (int, bool) { return i.updatePass, i.scheduled }

// Parent returns the picture that last reached this one during traversal.
func (i Info) Parent() (frame.PictureIndex, bool) { return i.parent, i.hasParent }

// Graph is the picture dependency graph of a frame. The zero value is ready to
// use; New is provided for symmetry with other constructors.
type Graph struct {
	roots  []frame.PictureIndex
	info   []Info
	passes [][]frame.PictureIndex
	stack  []visit
}

// visit is one pending step of the pass assignment traversal.
type visit struct {
	pic       frame.PictureIndex
	parent    frame.PictureIndex
	hasParent bool
	pass      int
}

// New creates an empty picture graph.
func New() *Graph {
	return &Graph{}
}

// AddRoot registers a picture without a parent for the next call to
// [Graph.BuildUpdatePasses].
func (g *Graph) AddRoot(pic frame.PictureIndex) {
	g.roots = append(g.roots, pic)
}

// Roots returns the roots registered for the next build.
// The returned slice must not be modified.
func (g *Graph) Roots() []frame.PictureIndex { return g.roots }

// Reset drops pending roots and all scheduling results while keeping the
// allocated buffers.
func (g *Graph) Reset() {
	g.roots = g.roots[:0]
	g.info = g.info[:0]
	for i := range g.passes {
		g.passes[i] = g.passes[i][:0]
	}
	g.passes = g.passes[:0]
}

// BuildUpdatePasses assigns every picture reachable from the registered roots
// to an update pass and groups pictures by pass.
//
// A picture is placed at one plus the pass of the picture that reached it,
// and is pushed deeper whenever a longer path reaches it, so every scheduled
// picture ends up after all of its parents. The first time a picture is
// reached, [Picture.PreUpdate] decides whether it takes part in the frame.
//
// The registered roots are consumed: after the call the root list is empty
// and the next frame must register its roots again.
//
// BuildUpdatePasses panics if a root or child index is outside pics, or if
// the child graph contains a cycle.
func (g *Graph) BuildUpdatePasses(pics []Picture, fc *frame.Context) {
	g.info = g.info[:0]
	for range pics {
		g.info = append(g.info, newInfo())
	}

	maxPass := -1
	for _, root := range g.roots {
		if p := g.assignPasses(pics, fc, root); p > maxPass {
			maxPass = p
		}
	}
	g.roots = g.roots[:0]

	g.resetPasses(maxPass + 1)
	for i := range g.info {
		if pass, ok := g.info[i].Pass(); ok {
			g.passes[pass] = append(g.passes[pass], frame.PictureIndex(i))
		}
	}
}

// assignPasses runs the depth-first pass assignment from one root and returns
// the deepest pass assigned, or -1 if nothing was scheduled.
func (g *Graph) assignPasses(pics []Picture, fc *frame.Context, root frame.PictureIndex) int {
	maxPass := -1
	g.stack = append(g.stack[:0], visit{pic: root})

	for len(g.stack) > 0 {
		v := g.stack[len(g.stack)-1]
		g.stack = g.stack[:len(g.stack)-1]

		info := &g.info[v.pic]
		info.parent, info.hasParent = v.parent, v.hasParent

		if pass, ok := info.Pass(); ok {
			if pass > v.pass {
				continue
			}
		} else if !pics[v.pic].PreUpdate(fc) {
			continue
		}

		// A DAG never needs more passes than it has pictures.
		if v.pass >= len(pics) {
			panic(fmt.Sprintf("picture: cycle through picture %d", v.pic))
		}

		info.updatePass, info.scheduled = v.pass, true
		maxPass = max(maxPass, v.pass)

		// Push in reverse so children are visited in declaration order.
		children := pics[v.pic].Children()
		for i := len(children) - 1; i >= 0; i-- {
			g.stack = append(g.stack, visit{
				pic:       children[i],
				parent:    v.pic,
				hasParent: true,
				pass:      v.pass + 1,
			})
		}
	}
	return maxPass
}

// resetPasses sizes the pass list to n empty buckets, reusing old buckets.
func (g *Graph) resetPasses(n int) {
	g.passes = g.passes[:0]
	for i := 0; i < n; i++ {
		if i < cap(g.passes) {
			g.passes = g.passes[:i+1]
			g.passes[i] = g.passes[i][:0]
		} else {
			g.passes = append(g.passes, nil)
		}
	}
}

// AssignSurfaces resolves the surface of every scheduled picture, walking
// passes from the roots down. Each picture receives the already resolved
// surface of its parent, or [frame.RootSurfaceIndex] if it has none.
func (g *Graph) AssignSurfaces(
	pics []Picture,
	surfaces *[]frame.Surface,
	tileCaches map[frame.SliceID]*frame.TileCache,
	fc *frame.Context,
) {
	for _, pass := range g.passes {
		for _, pic := range pass {
			parentSurface := g.parentSurface(pic)
			g.info[pic].SurfaceIndex = pics[pic].AssignSurface(fc, tileCaches, parentSurface, surfaces)
		}
	}
}

// PropagateBoundingRects grows surface bounds from the leaves up, walking
// passes in reverse so that every child has contributed before its parent.
func (g *Graph) PropagateBoundingRects(
	pics []Picture,
	surfaces []frame.Surface,
	fc *frame.Context,
	stores *frame.DataStores,
	prims []frame.PrimitiveInstance,
) {
	for i := len(g.passes) - 1; i >= 0; i-- {
		for _, pic := range g.passes[i] {
			parentSurface := g.parentSurface(pic)
			pics[pic].PropagateBoundingRect(g.info[pic].SurfaceIndex, parentSurface, surfaces, fc, stores, prims)
		}
	}
}

func (g *Graph) parentSurface(pic frame.PictureIndex) frame.SurfaceIndex {
	if parent, ok := g.info[pic].Parent(); ok {
		return g.info[parent].SurfaceIndex
	}
	return frame.RootSurfaceIndex
}

// Info returns the scheduling state of a picture for the last build.
// It panics if pic is out of range.
func (g *Graph) Info(pic frame.PictureIndex) Info { return g.info[pic] }

// Len returns the number of pictures covered by the last build.
func (g *Graph) Len() int { return len(g.info) }

// UpdatePasses returns the pictures of each pass. Order within a pass is
// ascending picture index. The returned slices must not be modified.
func (g *Graph) UpdatePasses() [][]frame.PictureIndex { return g.passes }

// PassCount returns the number of update passes of the last build.
func (g *Graph) PassCount() int { return len(g.passes) }

// ScheduledCount returns how many pictures were scheduled in the last build.
func (g *Graph) ScheduledCount() int {
	n := 0
	for _, pass := range g.passes {
		n += len(pass)
	}
	return n
}

// Package scene provides a concrete picture arena that can be scheduled by
// [github.com/matzehuels/picgraph/pkg/picture].
//
// # Overview
//
// A [Scene] owns a flat list of [Picture] records and the primitives they
// draw. Pictures refer to their children by [frame.PictureIndex], never by
// pointer, so the whole scene is one arena with a stable index space.
//
// Scenes are built programmatically:
//
//	s := scene.New("demo", geom.XYWH(0, 0, 800, 600))
//	root, _ := s.Add(&scene.Picture{Name: "root", LocalRect: geom.XYWH(0, 0, 800, 600)})
//	blur, _ := s.Add(&scene.Picture{Name: "blur", Composite: scene.CompositeFilter})
//	s.AddChild(root, blur)
//	s.AddRoot(root)
//
// or loaded from TOML or JSON files with [Load] and [Decode]. The file format
// is described by [File].
//
// # Validation
//
// The scheduler panics on malformed graphs, so [Scene.Validate] checks child
// indices and rejects cycles before a scene is handed to a frame builder. It
// also rejects scenes with more than [MaxPaths] root-to-picture paths.
// Loading a file always validates.
package scene

import (
	"github.com/matzehuels/picgraph/pkg/errors"
	"github.com/matzehuels/picgraph/pkg/frame"
	"github.com/matzehuels/picgraph/pkg/geom"
	"github.com/matzehuels/picgraph/pkg/picture"
)

// Scene is a picture arena plus its primitives and root list.
// The zero value is not usable; call New.
type Scene struct {
	Name     string
	Viewport geom.Rect

	pics   []*Picture
	arena  []picture.Picture
	prims  []frame.PrimitiveInstance
	roots  []frame.PictureIndex
	byName map[string]frame.PictureIndex
}

// New creates an empty scene.
func New(name string, viewport geom.Rect) *Scene {
	return &Scene{
		Name:     name,
		Viewport: viewport,
		byName:   make(map[string]frame.PictureIndex),
	}
}

// Add appends a picture and returns its index. The picture's Index field is
// overwritten. Names must be valid and unique within the scene.
func (s *Scene) Add(p *Picture) (frame.PictureIndex, error) {
	if err := errors.ValidatePictureName(p.Name); err != nil {
		return 0, err
	}
	if _, exists := s.byName[p.Name]; exists {
		return 0, errors.New(errors.ErrCodeDuplicatePicture, "duplicate picture %q", p.Name)
	}
	idx := frame.PictureIndex(len(s.pics))
	p.Index = idx
	s.pics = append(s.pics, p)
	s.arena = append(s.arena, p)
	s.byName[p.Name] = idx
	return idx, nil
}

// AddChild appends child to parent's child list.
func (s *Scene) AddChild(parent, child frame.PictureIndex) error {
	if !s.valid(parent) {
		return errors.New(errors.ErrCodeUnknownPicture, "unknown parent picture %d", parent)
	}
	if !s.valid(child) {
		return errors.New(errors.ErrCodeUnknownPicture, "unknown child picture %d", child)
	}
	p := s.pics[parent]
	p.children = append(p.children, child)
	return nil
}

// AddPrimitive places a primitive in pic and returns its index in the
// primitive list. An empty clip means unclipped.
func (s *Scene) AddPrimitive(pic frame.PictureIndex, rect, clip geom.Rect) (int, error) {
	if !s.valid(pic) {
		return 0, errors.New(errors.ErrCodeUnknownPicture, "unknown picture %d", pic)
	}
	s.prims = append(s.prims, frame.PrimitiveInstance{Picture: pic, Rect: rect, Clip: clip})
	i := len(s.prims) - 1
	s.pics[pic].prims = append(s.pics[pic].prims, i)
	return i, nil
}

// AddRoot marks pic as a root of the scene.
func (s *Scene) AddRoot(pic frame.PictureIndex) error {
	if !s.valid(pic) {
		return errors.New(errors.ErrCodeUnknownPicture, "unknown root picture %d", pic)
	}
	s.roots = append(s.roots, pic)
	return nil
}

// Roots returns the scene roots. When none were added explicitly, every
// picture that is nobody's child is a root, in index order.
func (s *Scene) Roots() []frame.PictureIndex {
	if len(s.roots) > 0 {
		return s.roots
	}
	referenced := make([]bool, len(s.pics))
	for _, p := range s.pics {
		for _, c := range p.children {
			if s.valid(c) {
				referenced[c] = true
			}
		}
	}
	var roots []frame.PictureIndex
	for i, ref := range referenced {
		if !ref {
			roots = append(roots, frame.PictureIndex(i))
		}
	}
	return roots
}

// Len returns the number of pictures.
func (s *Scene) Len() int { return len(s.pics) }

// Picture returns the picture at idx. It panics if idx is out of range.
func (s *Scene) Picture(idx frame.PictureIndex) *Picture { return s.pics[idx] }

// Pictures returns all pictures in index order.
func (s *Scene) Pictures() []*Picture { return s.pics }

// Arena returns the pictures as the slice the scheduler consumes. It shares
// records with Pictures.
func (s *Scene) Arena() []picture.Picture { return s.arena }

// Primitives returns the primitive list.
func (s *Scene) Primitives() []frame.PrimitiveInstance { return s.prims }

// Lookup returns the index of the named picture.
func (s *Scene) Lookup(name string) (frame.PictureIndex, bool) {
	idx, ok := s.byName[name]
	return idx, ok
}

// EdgeCount returns the number of parent → child references.
func (s *Scene) EdgeCount() int {
	n := 0
	for _, p := range s.pics {
		n += len(p.children)
	}
	return n
}

func (s *Scene) valid(idx frame.PictureIndex) bool {
	return idx >= 0 && int(idx) < len(s.pics)
}

// Validate checks that every reference points into the arena and that the
// child graph is acyclic.
//
// Returns an error with code UNKNOWN_PICTURE for dangling references,
// SCENE_CYCLE when a cycle is found and SCENE_TOO_COMPLEX when the scene has
// more than [MaxPaths] root-to-picture paths.
func (s *Scene) Validate() error {
	for _, p := range s.pics {
		for _, c := range p.children {
			if !s.valid(c) {
				return errors.New(errors.ErrCodeUnknownPicture, "picture %q has unknown child %d", p.Name, c)
			}
		}
	}
	for _, r := range s.roots {
		if !s.valid(r) {
			return errors.New(errors.ErrCodeUnknownPicture, "unknown root picture %d", r)
		}
	}
	order, err := s.detectCycles()
	if err != nil {
		return err
	}
	return s.checkPaths(order)
}

// detectCycles runs an iterative white/gray/black depth-first search and
// returns the pictures in post-order, children before parents.
func (s *Scene) detectCycles() ([]frame.PictureIndex, error) {
	const (
		white = iota
		gray
		black
	)

	type frameState struct {
		pic  frame.PictureIndex
		next int
	}

	color := make([]uint8, len(s.pics))
	order := make([]frame.PictureIndex, 0, len(s.pics))
	var stack []frameState

	for start := range s.pics {
		if color[start] != white {
			continue
		}
		color[start] = gray
		stack = append(stack[:0], frameState{pic: frame.PictureIndex(start)})

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			children := s.pics[top.pic].children
			if top.next == len(children) {
				color[top.pic] = black
				order = append(order, top.pic)
				stack = stack[:len(stack)-1]
				continue
			}
			child := children[top.next]
			top.next++

			switch color[child] {
			case white:
				color[child] = gray
				stack = append(stack, frameState{pic: child})
			case gray:
				return nil, errors.New(errors.ErrCodeSceneCycle, "cycle through picture %q", s.pics[child].Name)
			}
		}
	}
	return order, nil
}

// MaxPaths bounds the number of root-to-picture paths a scene may have. The
// pass builder revisits a shared subtree once per path that reaches it, so
// this is also a bound on scheduling work.
const MaxPaths = 1 << 20

// checkPaths counts root-to-picture paths over a post-order of the scene,
// saturating at MaxPaths+1.
func (s *Scene) checkPaths(postOrder []frame.PictureIndex) error {
	const limit = MaxPaths + 1

	paths := make([]uint64, len(s.pics))
	for _, r := range s.Roots() {
		paths[r] = min(paths[r]+1, limit)
	}

	var total uint64
	for i := len(postOrder) - 1; i >= 0; i-- {
		pic := postOrder[i]
		n := paths[pic]
		if n == 0 {
			continue
		}
		if total += n; total > MaxPaths {
			return errors.New(errors.ErrCodeSceneTooComplex,
				"scene has more than %d root-to-picture paths (reached %q)", MaxPaths, s.pics[pic].Name)
		}
		for _, c := range s.pics[pic].children {
			paths[c] = min(paths[c]+n, limit)
		}
	}
	return nil
}

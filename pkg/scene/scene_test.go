package scene

import (
	"fmt"
	"testing"

	"github.com/matzehuels/picgraph/pkg/errors"
	"github.com/matzehuels/picgraph/pkg/frame"
	"github.com/matzehuels/picgraph/pkg/geom"
)

func mustAdd(t *testing.T, s *Scene, p *Picture) frame.PictureIndex {
	t.Helper()
	idx, err := s.Add(p)
	if err != nil {
		t.Fatalf("Add(%q): %v", p.Name, err)
	}
	return idx
}

func TestAdd(t *testing.T) {
	s := New("t", DefaultViewport)
	a := mustAdd(t, s, &Picture{Name: "a"})
	b := mustAdd(t, s, &Picture{Name: "b"})

	if a != 0 || b != 1 {
		t.Errorf("indices = %d, %d, want 0, 1", a, b)
	}
	if s.Picture(b).Index != b {
		t.Errorf("Picture(b).Index = %d, want %d", s.Picture(b).Index, b)
	}
	if got, ok := s.Lookup("b"); !ok || got != b {
		t.Errorf("Lookup(b) = %d, %v", got, ok)
	}
	if len(s.Arena()) != 2 {
		t.Errorf("len(Arena()) = %d, want 2", len(s.Arena()))
	}
}

func TestAddErrors(t *testing.T) {
	s := New("t", DefaultViewport)
	mustAdd(t, s, &Picture{Name: "a"})

	if _, err := s.Add(&Picture{Name: "a"}); !errors.Is(err, errors.ErrCodeDuplicatePicture) {
		t.Errorf("duplicate Add() error = %v", err)
	}
	if _, err := s.Add(&Picture{Name: "bad name"}); !errors.Is(err, errors.ErrCodeInvalidPicture) {
		t.Errorf("invalid name Add() error = %v", err)
	}
	if err := s.AddChild(0, 7); !errors.Is(err, errors.ErrCodeUnknownPicture) {
		t.Errorf("AddChild() unknown child error = %v", err)
	}
	if err := s.AddRoot(-1); !errors.Is(err, errors.ErrCodeUnknownPicture) {
		t.Errorf("AddRoot(-1) error = %v", err)
	}
	if _, err := s.AddPrimitive(3, geom.XYWH(0, 0, 1, 1), geom.EmptyRect()); !errors.Is(err, errors.ErrCodeUnknownPicture) {
		t.Errorf("AddPrimitive() unknown picture error = %v", err)
	}
}

func TestRootsInferred(t *testing.T) {
	s := New("t", DefaultViewport)
	a := mustAdd(t, s, &Picture{Name: "a"})
	b := mustAdd(t, s, &Picture{Name: "b"})
	c := mustAdd(t, s, &Picture{Name: "c"})
	_ = s.AddChild(a, b)

	roots := s.Roots()
	if len(roots) != 2 || roots[0] != a || roots[1] != c {
		t.Errorf("Roots() = %v, want [%d %d]", roots, a, c)
	}

	_ = s.AddRoot(b)
	if roots := s.Roots(); len(roots) != 1 || roots[0] != b {
		t.Errorf("explicit Roots() = %v, want [%d]", roots, b)
	}
}

func TestValidateCycle(t *testing.T) {
	s := New("t", DefaultViewport)
	a := mustAdd(t, s, &Picture{Name: "a"})
	b := mustAdd(t, s, &Picture{Name: "b"})
	c := mustAdd(t, s, &Picture{Name: "c"})
	_ = s.AddChild(a, b)
	_ = s.AddChild(b, c)

	if err := s.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}

	_ = s.AddChild(c, b)
	if err := s.Validate(); !errors.Is(err, errors.ErrCodeSceneCycle) {
		t.Errorf("Validate() = %v, want %s", err, errors.ErrCodeSceneCycle)
	}
}

func TestValidateDiamondIsNotACycle(t *testing.T) {
	if err := Diamond().Validate(); err != nil {
		t.Errorf("Diamond().Validate() = %v", err)
	}
}

func TestValidateDeepChain(t *testing.T) {
	if err := Chain(50_000).Validate(); err != nil {
		t.Errorf("Chain().Validate() = %v", err)
	}
}

// ladder builds layers of two pictures where both pictures of a layer have
// both pictures of the next layer as children. A ladder of n layers has
// 2^(n+1) - 1 root-to-picture paths.
func ladder(t *testing.T, layers int) *Scene {
	t.Helper()
	s := New("ladder", DefaultViewport)
	root := mustAdd(t, s, &Picture{Name: "root", Opacity: 1})
	prev := []frame.PictureIndex{root}
	for i := 0; i < layers; i++ {
		a := mustAdd(t, s, &Picture{Name: fmt.Sprintf("a%d", i), Opacity: 1})
		b := mustAdd(t, s, &Picture{Name: fmt.Sprintf("b%d", i), Opacity: 1})
		for _, p := range prev {
			_ = s.AddChild(p, a)
			_ = s.AddChild(p, b)
		}
		prev = []frame.PictureIndex{a, b}
	}
	return s
}

func TestValidatePathLimit(t *testing.T) {
	tests := []struct {
		layers int
		ok     bool
	}{
		{1, true},
		{10, true},
		{19, true}, // 2^20 - 1 paths
		{20, false},
		{40, false},
		{2000, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.layers), func(t *testing.T) {
			err := ladder(t, tt.layers).Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !tt.ok && !errors.Is(err, errors.ErrCodeSceneTooComplex) {
				t.Errorf("Validate() = %v, want %s", err, errors.ErrCodeSceneTooComplex)
			}
		})
	}
}

func TestPreUpdate(t *testing.T) {
	fc := frame.NewContext(DefaultViewport, 1, 0)
	tests := []struct {
		name string
		pic  *Picture
		want bool
	}{
		{"visible", &Picture{LocalRect: geom.XYWH(0, 0, 1, 1)}, true},
		{"hidden", &Picture{Hidden: true, LocalRect: geom.XYWH(0, 0, 1, 1)}, false},
		{"transparent group", &Picture{Composite: CompositeOpacity, LocalRect: geom.XYWH(0, 0, 1, 1)}, false},
		{"translucent group", &Picture{Composite: CompositeOpacity, Opacity: 0.5, LocalRect: geom.XYWH(0, 0, 1, 1)}, true},
		{"empty leaf", &Picture{LocalRect: geom.EmptyRect()}, false},
		{"empty container", &Picture{LocalRect: geom.EmptyRect(), children: []frame.PictureIndex{1}}, true},
		{"prims only", &Picture{LocalRect: geom.EmptyRect(), prims: []int{0}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pic.PreUpdate(fc); got != tt.want {
				t.Errorf("PreUpdate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAssignSurfaceInline(t *testing.T) {
	fc := frame.NewContext(DefaultViewport, 2, 0)
	surfaces := []frame.Surface{frame.NewRootSurface(fc)}
	p := &Picture{Index: 3}

	if got := p.AssignSurface(fc, nil, 0, &surfaces); got != 0 {
		t.Errorf("AssignSurface() = %d, want 0", got)
	}
	if len(surfaces) != 1 {
		t.Errorf("inline picture created a surface")
	}
}

func TestAssignSurfaceOffscreen(t *testing.T) {
	fc := frame.NewContext(DefaultViewport, 2, 0)
	surfaces := []frame.Surface{frame.NewRootSurface(fc)}
	p := &Picture{Index: 3, Composite: CompositeFilter}

	got := p.AssignSurface(fc, nil, 0, &surfaces)
	if got != 1 {
		t.Fatalf("AssignSurface() = %d, want 1", got)
	}
	s := surfaces[1]
	if s.Parent != 0 || s.Owner != 3 || s.DevicePixelScale != 2 {
		t.Errorf("surface = %+v", s)
	}
	if s.IsRoot() || !surfaces[0].IsRoot() {
		t.Error("IsRoot() mismatch")
	}
}

func TestAssignSurfaceTileCache(t *testing.T) {
	fc := frame.NewContext(DefaultViewport, 1, 0)
	caches := map[frame.SliceID]*frame.TileCache{}
	p := &Picture{Index: 1, Composite: CompositeTileCache, Slice: 4}

	for range 2 {
		surfaces := []frame.Surface{frame.NewRootSurface(fc)}
		idx := p.AssignSurface(fc, caches, 0, &surfaces)
		if caches[4] == nil || caches[4].Surface != idx {
			t.Fatalf("tile cache not attached to surface %d: %+v", idx, caches[4])
		}
	}
	if len(caches) != 1 || caches[4].Frames != 2 || caches[4].Owner != 1 {
		t.Errorf("tile caches = %+v", caches[4])
	}

	fc.Flags = frame.FlagDisableTileCache
	delete(caches, 4)
	surfaces := []frame.Surface{frame.NewRootSurface(fc)}
	if idx := p.AssignSurface(fc, caches, 0, &surfaces); idx != 1 {
		t.Errorf("disabled tile cache AssignSurface() = %d, want 1", idx)
	}
	if len(caches) != 0 {
		t.Error("tile cache created while disabled")
	}
}

func TestPropagateBoundingRect(t *testing.T) {
	fc := frame.NewContext(geom.XYWH(0, 0, 100, 100), 1, 0)
	stores := frame.NewDataStores()
	prims := []frame.PrimitiveInstance{
		{Rect: geom.XYWH(0, 0, 500, 10), Clip: geom.XYWH(0, 0, 20, 20)},
	}
	surfaces := []frame.Surface{frame.NewRootSurface(fc), frame.NewRootSurface(fc)}
	surfaces[1].Owner = 0

	p := &Picture{Index: 0, LocalRect: geom.XYWH(0, 0, 10, 30), OffsetX: 90, prims: []int{0}}
	p.PropagateBoundingRect(1, 0, surfaces, fc, stores, prims)

	want := geom.XYWH(90, 0, 20, 30)
	if surfaces[1].Rect != want {
		t.Errorf("own rect = %v, want %v", surfaces[1].Rect, want)
	}
	if surfaces[0].Rect != want {
		t.Errorf("parent rect = %v, want %v", surfaces[0].Rect, want)
	}
	if clipped := geom.XYWH(90, 0, 10, 30); surfaces[0].ClippedRect != clipped {
		t.Errorf("parent clipped rect = %v, want %v", surfaces[0].ClippedRect, clipped)
	}
	if stores.LocalRect(0) != want || stores.Propagations != 1 {
		t.Errorf("stores = %v, %d", stores.LocalRect(0), stores.Propagations)
	}
}

func TestCompositeMode(t *testing.T) {
	for _, name := range []string{"none", "filter", "blend", "opacity", "tile_cache"} {
		m, err := ParseCompositeMode(name)
		if err != nil {
			t.Fatalf("ParseCompositeMode(%q): %v", name, err)
		}
		if m.String() != name {
			t.Errorf("String() = %q, want %q", m.String(), name)
		}
	}
	if m, _ := ParseCompositeMode(""); m != CompositeNone {
		t.Errorf("empty mode = %v", m)
	}
	if _, err := ParseCompositeMode("sepia"); err == nil {
		t.Error("unknown mode should fail")
	}
	if CompositeNone.NeedsSurface() || !CompositeBlend.NeedsSurface() {
		t.Error("NeedsSurface() mismatch")
	}
}

func TestSynthetic(t *testing.T) {
	tests := []struct {
		shape         string
		depth, fanout int
		wantPictures  int
	}{
		{ShapeChain, 10, 0, 10},
		{ShapeTree, 3, 2, 7},
		{ShapeTree, 1, 5, 1},
		{ShapeDiamond, 0, 0, 4},
	}
	for _, tt := range tests {
		s, err := Synthetic(tt.shape, tt.depth, tt.fanout)
		if err != nil {
			t.Fatalf("Synthetic(%s): %v", tt.shape, err)
		}
		if s.Len() != tt.wantPictures {
			t.Errorf("Synthetic(%s, %d, %d).Len() = %d, want %d", tt.shape, tt.depth, tt.fanout, s.Len(), tt.wantPictures)
		}
		if err := s.Validate(); err != nil {
			t.Errorf("Synthetic(%s).Validate() = %v", tt.shape, err)
		}
	}
	if _, err := Synthetic("ring", 3, 1); err == nil {
		t.Error("unknown shape should fail")
	}
}

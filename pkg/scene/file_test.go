package scene

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/picgraph/pkg/errors"
	"github.com/matzehuels/picgraph/pkg/geom"
)

const demoTOML = `
name = "demo"
viewport = [0.0, 0.0, 640.0, 480.0]
roots = ["root"]

[[picture]]
name = "root"
rect = [0.0, 0.0, 640.0, 480.0]
children = ["blur", "cache"]

[[picture]]
name = "blur"
composite = "filter"
offset = [5.0, 5.0]
rect = [10.0, 10.0, 100.0, 100.0]

[[picture]]
name = "cache"
composite = "tile_cache"
slice = 2
children = ["hidden"]

  [[picture.prim]]
  rect = [0.0, 0.0, 50.0, 50.0]
  clip = [0.0, 0.0, 25.0, 25.0]

[[picture]]
name = "hidden"
hidden = true
rect = [0.0, 0.0, 1.0, 1.0]
`

const demoJSON = `{
  "name": "demo",
  "pictures": [
    {"name": "root", "rect": [0, 0, 100, 100], "children": ["a", "b"]},
    {"name": "a", "composite": "opacity", "opacity": 0.5, "rect": [0, 0, 10, 10]},
    {"name": "b", "rect": [20, 20, 10, 10]}
  ]
}`

func TestDecodeTOML(t *testing.T) {
	s, err := Decode(strings.NewReader(demoTOML), FormatTOML)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	if s.Name != "demo" || s.Viewport != geom.XYWH(0, 0, 640, 480) {
		t.Errorf("scene = %q %v", s.Name, s.Viewport)
	}
	if s.Len() != 4 || s.EdgeCount() != 3 {
		t.Errorf("Len()=%d EdgeCount()=%d, want 4, 3", s.Len(), s.EdgeCount())
	}

	blur := s.Picture(1)
	if blur.Composite != CompositeFilter || blur.OffsetX != 5 || blur.Opacity != 1 {
		t.Errorf("blur = %+v", blur)
	}
	cache := s.Picture(2)
	if cache.Composite != CompositeTileCache || cache.Slice != 2 || len(cache.Primitives()) != 1 {
		t.Errorf("cache = %+v", cache)
	}
	if prim := s.Primitives()[0]; prim.VisibleRect() != geom.XYWH(0, 0, 25, 25) {
		t.Errorf("prim visible rect = %v", prim.VisibleRect())
	}
	if !s.Picture(3).Hidden {
		t.Error("hidden flag not decoded")
	}
}

func TestDecodeJSON(t *testing.T) {
	s, err := Decode(strings.NewReader(demoJSON), FormatJSON)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if s.Viewport != DefaultViewport {
		t.Errorf("Viewport = %v, want default", s.Viewport)
	}
	if a := s.Picture(1); a.Composite != CompositeOpacity || a.Opacity != 0.5 {
		t.Errorf("a = %+v", a)
	}
	if roots := s.Roots(); len(roots) != 1 || roots[0] != 0 {
		t.Errorf("Roots() = %v, want [0]", roots)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		json string
		code errors.Code
	}{
		{"syntax", `{"pictures": [`, errors.ErrCodeInvalidScene},
		{"unknown child", `{"pictures": [{"name": "a", "children": ["b"]}]}`, errors.ErrCodeUnknownPicture},
		{"unknown root", `{"roots": ["x"], "pictures": [{"name": "a"}]}`, errors.ErrCodeUnknownPicture},
		{"duplicate", `{"pictures": [{"name": "a"}, {"name": "a"}]}`, errors.ErrCodeDuplicatePicture},
		{"cycle", `{"pictures": [{"name": "a", "children": ["b"]}, {"name": "b", "children": ["a"]}]}`, errors.ErrCodeSceneCycle},
		{"bad rect", `{"pictures": [{"name": "a", "rect": [1, 2, 3]}]}`, errors.ErrCodeInvalidPicture},
		{"bad offset", `{"pictures": [{"name": "a", "offset": [1]}]}`, errors.ErrCodeInvalidPicture},
		{"bad mode", `{"pictures": [{"name": "a", "composite": "sepia"}]}`, errors.ErrCodeInvalidPicture},
		{"bad viewport", `{"viewport": [0, 0, -1, 1], "pictures": []}`, errors.ErrCodeInvalidScene},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.json), FormatJSON)
			if !errors.Is(err, tt.code) {
				t.Errorf("Decode() error = %v, want code %s", err, tt.code)
			}
		})
	}

	if _, err := Decode(strings.NewReader(""), "yaml"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("unknown format error = %v", err)
	}
}

func TestRoundTrip(t *testing.T) {
	orig, err := Decode(strings.NewReader(demoTOML), FormatTOML)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	for _, format := range []string{FormatTOML, FormatJSON} {
		data, err := orig.Marshal(format)
		if err != nil {
			t.Fatalf("Marshal(%s): %v", format, err)
		}
		got, err := Decode(strings.NewReader(string(data)), format)
		if err != nil {
			t.Fatalf("Decode(%s) of marshaled scene: %v\n%s", format, err, data)
		}
		if got.Len() != orig.Len() || got.EdgeCount() != orig.EdgeCount() || len(got.Primitives()) != len(orig.Primitives()) {
			t.Errorf("%s round trip changed shape", format)
		}
		for i, p := range orig.Pictures() {
			q := got.Pictures()[i]
			if p.Name != q.Name || p.Composite != q.Composite || p.LocalRect != q.LocalRect || p.Hidden != q.Hidden {
				t.Errorf("%s round trip: picture %d = %+v, want %+v", format, i, q, p)
			}
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "layers.toml")
	if err := os.WriteFile(path, []byte(strings.Replace(demoTOML, `name = "demo"`, "", 1)), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if s.Name != "layers" {
		t.Errorf("Name = %q, want name derived from file", s.Name)
	}

	if _, err := Load(filepath.Join(dir, "missing.json")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Load(missing) error = %v", err)
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]string{
		"a.toml":      FormatTOML,
		"A.TOML":      FormatTOML,
		"a.json":      FormatJSON,
		"scene":       FormatJSON,
		"dir.toml/xx": FormatJSON,
	}
	for path, want := range tests {
		if got := FormatFromPath(path); got != want {
			t.Errorf("FormatFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}

package scene

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/picgraph/pkg/errors"
	"github.com/matzehuels/picgraph/pkg/frame"
	"github.com/matzehuels/picgraph/pkg/geom"
)

// Scene file formats.
const (
	FormatTOML = "toml"
	FormatJSON = "json"
)

// File is the on-disk representation of a scene.
//
// Rectangles are written as [x, y, width, height]. A TOML scene looks like:
//
//	name = "demo"
//	viewport = [0, 0, 800, 600]
//	roots = ["root"]
//
//	[[picture]]
//	name = "root"
//	rect = [0, 0, 800, 600]
//	children = ["blur"]
//
//	[[picture]]
//	name = "blur"
//	composite = "filter"
//	rect = [10, 10, 100, 100]
type File struct {
	Name     string        `json:"name" toml:"name"`
	Viewport []float32     `json:"viewport,omitempty" toml:"viewport,omitempty"`
	Roots    []string      `json:"roots,omitempty" toml:"roots,omitempty"`
	Pictures []PictureFile `json:"pictures" toml:"picture"`
}

// PictureFile is one picture entry of a [File].
type PictureFile struct {
	Name      string          `json:"name" toml:"name"`
	Composite string          `json:"composite,omitempty" toml:"composite,omitempty"`
	Opacity   *float32        `json:"opacity,omitempty" toml:"opacity,omitempty"`
	Hidden    bool            `json:"hidden,omitempty" toml:"hidden,omitempty"`
	Rect      []float32       `json:"rect,omitempty" toml:"rect,omitempty"`
	Offset    []float32       `json:"offset,omitempty" toml:"offset,omitempty"`
	Slice     int             `json:"slice,omitempty" toml:"slice,omitempty"`
	Children  []string        `json:"children,omitempty" toml:"children,omitempty"`
	Prims     []PrimitiveFile `json:"prims,omitempty" toml:"prim,omitempty"`
}

// PrimitiveFile is one primitive entry of a [PictureFile].
type PrimitiveFile struct {
	Rect []float32 `json:"rect" toml:"rect"`
	Clip []float32 `json:"clip,omitempty" toml:"clip,omitempty"`
}

// DefaultViewport is used when a scene file does not declare one.
var DefaultViewport = geom.XYWH(0, 0, 800, 600)

// Load reads a scene file, choosing the format from the file extension
// (.toml, otherwise JSON).
func Load(path string) (*Scene, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	s, err := Decode(f, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

// FormatFromPath returns FormatTOML for .toml files and FormatJSON otherwise.
func FormatFromPath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatJSON
}

// Decode reads a scene in the given format and builds a validated Scene.
func Decode(r io.Reader, format string) (*Scene, error) {
	var file File
	switch format {
	case FormatTOML:
		if _, err := toml.NewDecoder(r).Decode(&file); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidScene, err, "decode toml")
		}
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&file); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidScene, err, "decode json")
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown scene format %q", format)
	}
	return FromFile(file)
}

// FromFile builds a validated Scene from its file representation.
func FromFile(file File) (*Scene, error) {
	viewport := DefaultViewport
	if file.Viewport != nil {
		r, err := parseRect(file.Viewport)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidScene, err, "viewport")
		}
		viewport = r
	}

	s := New(file.Name, viewport)
	for _, pf := range file.Pictures {
		p, err := pf.picture()
		if err != nil {
			return nil, err
		}
		if _, err := s.Add(p); err != nil {
			return nil, err
		}
	}

	for i, pf := range file.Pictures {
		parent := frame.PictureIndex(i)
		for _, name := range pf.Children {
			child, ok := s.Lookup(name)
			if !ok {
				return nil, errors.New(errors.ErrCodeUnknownPicture, "picture %q references unknown child %q", pf.Name, name)
			}
			if err := s.AddChild(parent, child); err != nil {
				return nil, err
			}
		}
		for j, prim := range pf.Prims {
			rect, err := parseRect(prim.Rect)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidPicture, err, "picture %q prim %d rect", pf.Name, j)
			}
			clip := geom.EmptyRect()
			if prim.Clip != nil {
				if clip, err = parseRect(prim.Clip); err != nil {
					return nil, errors.Wrap(errors.ErrCodeInvalidPicture, err, "picture %q prim %d clip", pf.Name, j)
				}
			}
			if _, err := s.AddPrimitive(parent, rect, clip); err != nil {
				return nil, err
			}
		}
	}

	for _, name := range file.Roots {
		idx, ok := s.Lookup(name)
		if !ok {
			return nil, errors.New(errors.ErrCodeUnknownPicture, "unknown root %q", name)
		}
		if err := s.AddRoot(idx); err != nil {
			return nil, err
		}
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (pf PictureFile) picture() (*Picture, error) {
	mode, err := ParseCompositeMode(pf.Composite)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPicture, err, "picture %q", pf.Name)
	}
	p := &Picture{
		Name:      pf.Name,
		Composite: mode,
		Opacity:   1,
		Hidden:    pf.Hidden,
		LocalRect: geom.EmptyRect(),
		Slice:     frame.SliceID(pf.Slice),
	}
	if pf.Opacity != nil {
		p.Opacity = *pf.Opacity
	}
	if pf.Rect != nil {
		if p.LocalRect, err = parseRect(pf.Rect); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPicture, err, "picture %q rect", pf.Name)
		}
	}
	switch len(pf.Offset) {
	case 0:
	case 2:
		p.OffsetX, p.OffsetY = pf.Offset[0], pf.Offset[1]
	default:
		return nil, errors.New(errors.ErrCodeInvalidPicture, "picture %q offset must have 2 values, got %d", pf.Name, len(pf.Offset))
	}
	return p, nil
}

func parseRect(v []float32) (geom.Rect, error) {
	if len(v) != 4 {
		return geom.Rect{}, fmt.Errorf("rect must have 4 values [x, y, w, h], got %d", len(v))
	}
	if v[2] < 0 || v[3] < 0 {
		return geom.Rect{}, fmt.Errorf("rect size must not be negative")
	}
	return geom.XYWH(v[0], v[1], v[2], v[3]), nil
}

func rectValues(r geom.Rect) []float32 {
	if r.IsEmpty() {
		return nil
	}
	return []float32{r.MinX, r.MinY, r.Width(), r.Height()}
}

// ToFile converts the scene back into its file representation.
func (s *Scene) ToFile() File {
	file := File{
		Name:     s.Name,
		Viewport: rectValues(s.Viewport),
	}
	for _, r := range s.roots {
		file.Roots = append(file.Roots, s.pics[r].Name)
	}
	for _, p := range s.pics {
		pf := PictureFile{
			Name:   p.Name,
			Hidden: p.Hidden,
			Rect:   rectValues(p.LocalRect),
			Slice:  int(p.Slice),
		}
		if p.Composite != CompositeNone {
			pf.Composite = p.Composite.String()
		}
		if p.Opacity != 1 {
			opacity := p.Opacity
			pf.Opacity = &opacity
		}
		if p.OffsetX != 0 || p.OffsetY != 0 {
			pf.Offset = []float32{p.OffsetX, p.OffsetY}
		}
		for _, c := range p.children {
			pf.Children = append(pf.Children, s.pics[c].Name)
		}
		for _, i := range p.prims {
			prim := s.prims[i]
			rect := rectValues(prim.Rect)
			if rect == nil {
				rect = []float32{0, 0, 0, 0}
			}
			pf.Prims = append(pf.Prims, PrimitiveFile{Rect: rect, Clip: rectValues(prim.Clip)})
		}
		file.Pictures = append(file.Pictures, pf)
	}
	return file
}

// Encode writes the scene in the given format.
func (s *Scene) Encode(w io.Writer, format string) error {
	file := s.ToFile()
	switch format {
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(file); err != nil {
			return fmt.Errorf("encode toml: %w", err)
		}
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(file); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "unknown scene format %q", format)
	}
	return nil
}

// Marshal encodes the scene into memory.
func (s *Scene) Marshal(format string) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.Encode(&buf, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

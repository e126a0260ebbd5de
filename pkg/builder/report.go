package builder

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/matzehuels/picgraph/pkg/frame"
	"github.com/matzehuels/picgraph/pkg/geom"
	"github.com/matzehuels/picgraph/pkg/scene"
)

// Report is the serializable outcome of one frame.
type Report struct {
	FrameID    string            `json:"frame_id"`
	Frame      int               `json:"frame"`
	Scene      string            `json:"scene"`
	Viewport   geom.Rect         `json:"viewport"`
	Passes     [][]string        `json:"passes"`
	Pictures   []PictureReport   `json:"pictures"`
	Surfaces   []SurfaceReport   `json:"surfaces"`
	TileCaches []TileCacheReport `json:"tile_caches,omitempty"`
	Stats      Stats             `json:"stats"`
}

// PictureReport describes the scheduling outcome of one picture.
type PictureReport struct {
	Name      string    `json:"name"`
	Composite string    `json:"composite"`
	Scheduled bool      `json:"scheduled"`
	Pass      int       `json:"pass"` // -1 when not scheduled
	Parent    string    `json:"parent,omitempty"`
	Children  []string  `json:"children,omitempty"`
	Surface   int       `json:"surface"`
	LocalRect geom.Rect `json:"local_rect"`
}

// SurfaceReport describes one surface of the frame.
type SurfaceReport struct {
	Index       int       `json:"index"`
	Owner       string    `json:"owner,omitempty"` // empty for the root surface
	Parent      int       `json:"parent"`
	Rect        geom.Rect `json:"rect"`
	ClippedRect geom.Rect `json:"clipped_rect"`
	Scale       float32   `json:"scale"`
}

// TileCacheReport describes a retained tile cache.
type TileCacheReport struct {
	Slice   int    `json:"slice"`
	Surface int    `json:"surface"`
	Owner   string `json:"owner"`
	Frames  int    `json:"frames"`
}

// Stats summarizes a frame.
type Stats struct {
	Pictures      int           `json:"pictures"`
	Scheduled     int           `json:"scheduled"`
	Pruned        int           `json:"pruned"`
	Passes        int           `json:"passes"`
	Surfaces      int           `json:"surfaces"`
	Propagations  int           `json:"propagations"`
	BuildTime     time.Duration `json:"build_ns"`
	AssignTime    time.Duration `json:"assign_ns"`
	PropagateTime time.Duration `json:"propagate_ns"`
}

// Total returns the time spent in all three phases.
func (s Stats) Total() time.Duration {
	return s.BuildTime + s.AssignTime + s.PropagateTime
}

func (b *Builder) report(fc *frame.Context, s *scene.Scene, stats Stats) *Report {
	pics := s.Pictures()
	name := func(i frame.PictureIndex) string { return pics[i].Name }

	r := &Report{
		FrameID:  fc.FrameID.String(),
		Frame:    b.frames,
		Scene:    s.Name,
		Viewport: fc.Viewport,
	}

	for _, pass := range b.graph.UpdatePasses() {
		names := make([]string, len(pass))
		for i, pic := range pass {
			names[i] = name(pic)
		}
		r.Passes = append(r.Passes, names)
	}

	for i, p := range pics {
		info := b.graph.Info(frame.PictureIndex(i))
		pr := PictureReport{
			Name:      p.Name,
			Composite: p.Composite.String(),
			Pass:      -1,
			Surface:   int(info.SurfaceIndex),
			LocalRect: b.stores.LocalRect(frame.PictureIndex(i)),
		}
		if pass, ok := info.Pass(); ok {
			pr.Scheduled, pr.Pass = true, pass
		}
		if parent, ok := info.Parent(); ok {
			pr.Parent = name(parent)
		}
		for _, c := range p.Children() {
			pr.Children = append(pr.Children, name(c))
		}
		r.Pictures = append(r.Pictures, pr)
	}

	for i, sf := range b.surfaces {
		sr := SurfaceReport{
			Index:       i,
			Parent:      int(sf.Parent),
			Rect:        sf.Rect,
			ClippedRect: sf.ClippedRect,
			Scale:       sf.DevicePixelScale,
		}
		if !sf.IsRoot() {
			sr.Owner = name(sf.Owner)
		}
		r.Surfaces = append(r.Surfaces, sr)
	}

	for slice, tc := range b.tileCaches {
		r.TileCaches = append(r.TileCaches, TileCacheReport{
			Slice:   int(slice),
			Surface: int(tc.Surface),
			Owner:   name(tc.Owner),
			Frames:  tc.Frames,
		})
	}
	slices.SortFunc(r.TileCaches, func(a, b TileCacheReport) int { return a.Slice - b.Slice })

	stats.Pictures = len(pics)
	stats.Scheduled = b.graph.ScheduledCount()
	stats.Pruned = stats.Pictures - stats.Scheduled
	stats.Passes = b.graph.PassCount()
	stats.Surfaces = len(b.surfaces)
	stats.Propagations = b.stores.Propagations
	r.Stats = stats
	return r
}

// PassOf returns the pass of the named picture, or -1.
func (r *Report) PassOf(name string) int {
	for _, p := range r.Pictures {
		if p.Name == name {
			return p.Pass
		}
	}
	return -1
}

// Picture returns the report of the named picture.
func (r *Report) Picture(name string) (PictureReport, bool) {
	for _, p := range r.Pictures {
		if p.Name == name {
			return p, true
		}
	}
	return PictureReport{}, false
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// ReadReport decodes a report written by WriteJSON.
func ReadReport(r io.Reader) (*Report, error) {
	var rep Report
	if err := json.NewDecoder(r).Decode(&rep); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &rep, nil
}

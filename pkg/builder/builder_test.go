package builder

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/picgraph/pkg/geom"
	"github.com/matzehuels/picgraph/pkg/observability"
	"github.com/matzehuels/picgraph/pkg/scene"
)

func quiet() *log.Logger { return log.New(io.Discard) }

func TestBuildDiamond(t *testing.T) {
	b := New(Options{Logger: quiet()})
	r, err := b.Build(context.Background(), scene.Diamond())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	wantPass := map[string]int{"root": 0, "a": 1, "b": 1, "c": 2}
	for name, want := range wantPass {
		if got := r.PassOf(name); got != want {
			t.Errorf("pass(%s) = %d, want %d", name, got, want)
		}
	}
	if r.Stats.Passes != 3 || r.Stats.Scheduled != 4 || r.Stats.Pruned != 0 {
		t.Errorf("stats = %+v", r.Stats)
	}

	// c is reached last through b, so it draws into b's surface.
	c, _ := r.Picture("c")
	if c.Parent != "b" || c.Surface != 1 {
		t.Errorf("c = %+v, want parent b on surface 1", c)
	}

	if len(r.Surfaces) != 2 {
		t.Fatalf("surfaces = %d, want 2", len(r.Surfaces))
	}
	blend := r.Surfaces[1]
	if blend.Owner != "b" || blend.Parent != 0 {
		t.Errorf("surface 1 = %+v", blend)
	}
	if want := geom.XYWH(25, 0, 75, 110); blend.Rect != want {
		t.Errorf("surface 1 rect = %v, want %v", blend.Rect, want)
	}
	if want := geom.XYWH(0, 0, 100, 110); r.Surfaces[0].Rect != want {
		t.Errorf("root surface rect = %v, want %v", r.Surfaces[0].Rect, want)
	}
	if r.Stats.Propagations != 4 {
		t.Errorf("propagations = %d, want 4", r.Stats.Propagations)
	}
}

func TestBuildPrunesHidden(t *testing.T) {
	s := scene.Diamond()
	idx, _ := s.Lookup("b")
	s.Picture(idx).Hidden = true

	r, err := New(Options{Logger: quiet()}).Build(context.Background(), s)
	if err != nil {
		t.Fatal(err)
	}
	if got := r.PassOf("b"); got != -1 {
		t.Errorf("hidden b scheduled in pass %d", got)
	}
	if got := r.PassOf("c"); got != 2 {
		t.Errorf("c still reachable through a: pass %d, want 2", got)
	}
	if r.Stats.Pruned != 1 || len(r.Surfaces) != 1 {
		t.Errorf("pruned %d, surfaces %d", r.Stats.Pruned, len(r.Surfaces))
	}
}

func TestBuildDevicePixelRatio(t *testing.T) {
	r, err := New(Options{DevicePixelRatio: 2, Logger: quiet()}).Build(context.Background(), scene.Diamond())
	if err != nil {
		t.Fatal(err)
	}
	for _, sf := range r.Surfaces {
		if sf.Scale != 2 {
			t.Errorf("surface %d scale = %v, want 2", sf.Index, sf.Scale)
		}
	}
}

func TestTileCachesPersistAcrossFrames(t *testing.T) {
	ctx := context.Background()
	b := New(Options{Logger: quiet()})
	tree := scene.Tree(3, 2)

	for frame := 1; frame <= 3; frame++ {
		r, err := b.Build(ctx, tree)
		if err != nil {
			t.Fatal(err)
		}
		if len(r.TileCaches) != 1 {
			t.Fatalf("frame %d: tile caches = %d, want 1", frame, len(r.TileCaches))
		}
		if tc := r.TileCaches[0]; tc.Frames != frame || tc.Owner != "n1" {
			t.Errorf("frame %d: tile cache = %+v", frame, tc)
		}
	}

	// A scene without tile-cache pictures evicts the retained cache.
	if _, err := b.Build(ctx, scene.Diamond()); err != nil {
		t.Fatal(err)
	}
	if n := len(b.TileCaches()); n != 0 {
		t.Errorf("unclaimed tile caches retained: %d", n)
	}
}

func TestDisableTileCache(t *testing.T) {
	r, err := New(Options{DisableTileCache: true, Logger: quiet()}).Build(context.Background(), scene.Tree(3, 2))
	if err != nil {
		t.Fatal(err)
	}
	if len(r.TileCaches) != 0 {
		t.Errorf("tile caches = %d, want 0", len(r.TileCaches))
	}
	// The tile-cache picture still gets an offscreen surface.
	if len(r.Surfaces) != 2 {
		t.Errorf("surfaces = %d, want 2", len(r.Surfaces))
	}
}

func TestBuildReusesBuilder(t *testing.T) {
	ctx := context.Background()
	b := New(Options{Logger: quiet()})
	first, err := b.Build(ctx, scene.Chain(20))
	if err != nil {
		t.Fatal(err)
	}
	second, err := b.Build(ctx, scene.Diamond())
	if err != nil {
		t.Fatal(err)
	}
	if first.Stats.Passes != 20 || second.Stats.Passes != 3 {
		t.Errorf("passes = %d then %d, want 20 then 3", first.Stats.Passes, second.Stats.Passes)
	}
	if second.Frame != 2 {
		t.Errorf("frame counter = %d, want 2", second.Frame)
	}
	if first.FrameID == second.FrameID {
		t.Error("frame ids should differ")
	}
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(Options{Logger: quiet()}).Build(ctx, scene.Diamond())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

type recordingHooks struct {
	observability.NoopFrameHooks
	events []string
}

func (h *recordingHooks) OnFrameStart(context.Context, string, int) {
	h.events = append(h.events, "start")
}

func (h *recordingHooks) OnPassesBuilt(_ context.Context, _ string, passes, scheduled int, _ time.Duration) {
	h.events = append(h.events, "passes")
}

func (h *recordingHooks) OnSurfacesAssigned(context.Context, string, int, time.Duration) {
	h.events = append(h.events, "surfaces")
}

func (h *recordingHooks) OnBoundsPropagated(context.Context, string, int, time.Duration) {
	h.events = append(h.events, "bounds")
}

func TestBuildEmitsHooks(t *testing.T) {
	defer observability.Reset()
	hooks := &recordingHooks{}
	observability.SetFrameHooks(hooks)

	if _, err := New(Options{Logger: quiet()}).Build(context.Background(), scene.Diamond()); err != nil {
		t.Fatal(err)
	}
	want := []string{"start", "passes", "surfaces", "bounds"}
	if len(hooks.events) != len(want) {
		t.Fatalf("events = %v, want %v", hooks.events, want)
	}
	for i := range want {
		if hooks.events[i] != want[i] {
			t.Errorf("events = %v, want %v", hooks.events, want)
			break
		}
	}
}

func TestBuildLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf)
	logger.SetLevel(log.DebugLevel)

	if _, err := New(Options{Logger: logger, DebugSurfaces: true}).Build(context.Background(), scene.Diamond()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"built update passes", "assigned surfaces", "propagated bounding rects", "frame built", "surface"} {
		if !bytes.Contains([]byte(out), []byte(want)) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestReportJSON(t *testing.T) {
	r, err := New(Options{Logger: quiet()}).Build(context.Background(), scene.Diamond())
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := r.WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	back, err := ReadReport(&buf)
	if err != nil {
		t.Fatalf("ReadReport: %v", err)
	}
	if back.FrameID != r.FrameID || len(back.Passes) != len(r.Passes) {
		t.Errorf("decoded report differs: %+v", back)
	}
	if back.Surfaces[1].Rect != r.Surfaces[1].Rect {
		t.Errorf("surface rect = %v, want %v", back.Surfaces[1].Rect, r.Surfaces[1].Rect)
	}
}

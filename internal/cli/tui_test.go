package cli

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/picgraph/pkg/builder"
	"github.com/matzehuels/picgraph/pkg/scene"
)

func diamondReport(t *testing.T) *builder.Report {
	t.Helper()
	r, err := builder.New(builder.Options{}).Build(context.Background(), scene.Diamond())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return r
}

func press(m tea.Model, key string) tea.Model {
	var msg tea.KeyMsg
	switch key {
	case "up":
		msg = tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	m, _ = m.Update(msg)
	return m
}

func TestPassModelNavigation(t *testing.T) {
	var m tea.Model = NewPassModel(diamondReport(t))

	m = press(m, "up")
	if got := m.(PassModel).Cursor; got != 0 {
		t.Errorf("cursor after up at top = %d", got)
	}
	m = press(m, "down")
	m = press(m, "j")
	if got := m.(PassModel).Cursor; got != 2 {
		t.Errorf("cursor = %d, want 2", got)
	}
	m = press(m, "j")
	if got := m.(PassModel).Cursor; got != 2 {
		t.Errorf("cursor past last pass = %d, want 2", got)
	}
	m = press(m, "g")
	if got := m.(PassModel).Cursor; got != 0 {
		t.Errorf("cursor after g = %d", got)
	}
	m = press(m, "G")
	if got := m.(PassModel).Cursor; got != 2 {
		t.Errorf("cursor after G = %d", got)
	}
	m = press(m, "k")
	if got := m.(PassModel).Cursor; got != 1 {
		t.Errorf("cursor after k = %d", got)
	}
}

func TestPassModelScrolls(t *testing.T) {
	r, err := builder.New(builder.Options{}).Build(context.Background(), scene.Chain(20))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	m := NewPassModel(r)
	m.Height = 5

	var model tea.Model = m
	for i := 0; i < 7; i++ {
		model = press(model, "down")
	}
	pm := model.(PassModel)
	if pm.Cursor != 7 || pm.Offset != 3 {
		t.Errorf("cursor/offset = %d/%d, want 7/3", pm.Cursor, pm.Offset)
	}
}

func TestPassModelView(t *testing.T) {
	var m tea.Model = NewPassModel(diamondReport(t))
	m = press(m, "G")

	view := m.View()
	for _, want := range []string{"Frame diamond", "pass 2", "c", "[3/3]"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}

	m = press(m, "s")
	if !m.(PassModel).ShowSurfaces {
		t.Fatal("s did not toggle surfaces")
	}
	if view := m.View(); !strings.Contains(view, "(root)") {
		t.Errorf("surface view missing root surface:\n%s", view)
	}
}

func TestPassModelEmpty(t *testing.T) {
	m := NewPassModel(&builder.Report{Scene: "empty"})
	if view := m.View(); !strings.Contains(view, "Nothing scheduled") {
		t.Errorf("view = %q", view)
	}
}

func TestPassModelQuit(t *testing.T) {
	_, cmd := NewPassModel(diamondReport(t)).Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

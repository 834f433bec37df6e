package cli

import (
	"context"
	"image/color"
	"io"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/traitstack/pkg/catalog"
	"github.com/matzehuels/traitstack/pkg/config"
	"github.com/matzehuels/traitstack/pkg/pipeline"
)

func pickRunner(t *testing.T) *pipeline.Runner {
	t.Helper()
	cfg := config.Default()
	cfg.Width, cfg.Height = 8, 8
	cfg.Layers = []string{"eyes", "hairs", "toys"}
	cfg.Overlay = ""
	cfg.Seed = 3

	src := catalog.NewMemSource()
	for _, name := range []string{"e1.png", "e2.png", "e3.png"} {
		if err := src.Put("eyes", name, solid(8, 8, color.NRGBA{G: 200, A: 255})); err != nil {
			t.Fatal(err)
		}
	}
	if err := src.Put("hairs", "h1.png", solid(8, 8, color.NRGBA{B: 200, A: 255})); err != nil {
		t.Fatal(err)
	}
	cat := catalog.New(src, catalog.WithLayers(cfg.Layers), catalog.WithPreviewSize(4, 4))
	r := pipeline.NewRunner(cat, cfg, log.New(io.Discard))
	if _, err := r.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	return r
}

func press(t *testing.T, m PickModel, keys ...string) PickModel {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "left":
			msg = tea.KeyMsg{Type: tea.KeyLeft}
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(PickModel)
	}
	return m
}

func TestPickCyclesAndPins(t *testing.T) {
	r := pickRunner(t)
	m := NewPickModel(context.Background(), r, filepath.Join(t.TempDir(), "p.png"))
	start := m.Layers[0].Current

	m = press(t, m, "right")
	if !m.Layers[0].Overridden {
		t.Fatal("right should pin the eyes layer")
	}
	if m.Layers[0].Current == start {
		t.Errorf("right kept %s, want the next trait", start)
	}
	m = press(t, m, "left")
	if m.Layers[0].Current != start {
		t.Errorf("left should return to %s, got %s", start, m.Layers[0].Current)
	}

	m = press(t, m, "r", "r")
	if m.Layers[0].Current != start {
		t.Error("redraw should keep a pinned layer")
	}
	m = press(t, m, "x")
	if m.Layers[0].Overridden {
		t.Error("x should unpin the layer")
	}
}

func TestPickUnpinAll(t *testing.T) {
	m := NewPickModel(context.Background(), pickRunner(t), "unused.png")
	m = press(t, m, "right", "down", "right")
	if !m.Layers[0].Overridden || !m.Layers[1].Overridden {
		t.Fatal("eyes and hairs should be pinned")
	}
	m = press(t, m, "X")
	for _, l := range m.Layers {
		if l.Overridden {
			t.Errorf("%s still pinned after X", l.Name)
		}
	}
	if m.Status != "unpinned 2 layers" {
		t.Errorf("status = %q", m.Status)
	}
}

func TestPickEmptyLayer(t *testing.T) {
	m := NewPickModel(context.Background(), pickRunner(t), "unused.png")
	m = press(t, m, "down", "down", "down", "right")
	if m.Cursor != 2 {
		t.Fatalf("cursor = %d, want clamped to 2", m.Cursor)
	}
	if !strings.Contains(m.Status, "no traits") {
		t.Errorf("status = %q", m.Status)
	}
	if !strings.Contains(m.View(), "toys") {
		t.Error("view should list the empty layer")
	}
}

func TestPickExport(t *testing.T) {
	out := filepath.Join(t.TempDir(), "p.png")
	m := NewPickModel(context.Background(), pickRunner(t), out)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Error("enter should quit after exporting")
	}
	if got := next.(PickModel).Exported; got != out {
		t.Errorf("exported = %q, want %q", got, out)
	}
}

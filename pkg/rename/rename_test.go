package rename

import (
	"context"
	"image"
	"testing"

	"github.com/matzehuels/traitstack/pkg/catalog"
	"github.com/matzehuels/traitstack/pkg/errors"
	"github.com/matzehuels/traitstack/pkg/selection"
)

func TestMapChain(t *testing.T) {
	m := NewMap()
	m.Record("eyes", "a.png", "b.png")
	m.Record("eyes", "b.png", "c.png")

	tests := []struct {
		layer, name, want string
	}{
		{"eyes", "a.png", "c.png"},
		{"eyes", "untouched.png", "untouched.png"},
		{"hairs", "a.png", "a.png"},
	}
	for _, tt := range tests {
		if got := m.Resolve(tt.layer, tt.name); got != tt.want {
			t.Errorf("Resolve(%s, %s) = %s, want %s", tt.layer, tt.name, got, tt.want)
		}
	}
	if got := m.Original("eyes", "c.png"); got != "a.png" {
		t.Errorf("Original = %s, want a.png", got)
	}
	if m.Len() != 1 {
		t.Errorf("Len = %d, want 1", m.Len())
	}

	m.Record("eyes", "c.png", "a.png")
	if m.Len() != 0 || m.Resolve("eyes", "a.png") != "a.png" {
		t.Error("renaming back to the original should drop the entry")
	}

	m.Record("eyes", "a.png", "z.png")
	m.Reset()
	if m.Resolve("eyes", "a.png") != "a.png" {
		t.Error("Reset should forget renames")
	}
}

func setup(t *testing.T) (*catalog.Catalog, *Synchronizer) {
	t.Helper()
	src := catalog.NewMemSource()
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	for _, name := range []string{"a.png", "x.png"} {
		if err := src.Put("eyes", name, img); err != nil {
			t.Fatal(err)
		}
	}
	cat := catalog.New(src, catalog.WithLayers([]string{"eyes"}), catalog.WithPreviewSize(1, 1))
	if _, err := cat.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	return cat, NewSynchronizer(cat, nil, nil)
}

func TestRenameThenExportUsesNewName(t *testing.T) {
	cat, sync := setup(t)
	a := cat.Find("eyes", "a.png")

	state := selection.NewState()
	if err := state.Set("eyes", a); err != nil {
		t.Fatal(err)
	}

	if _, err := sync.Rename(context.Background(), "eyes", "a.png", "b.png"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if got := sync.ExportName(a); got != "b.png" {
		t.Errorf("ExportName = %s, want b.png", got)
	}
	if c := state.Choice("eyes"); c.Asset != a || c.Asset.Name() != "b.png" {
		t.Error("override should still point at the renamed asset")
	}

	if _, err := sync.Rename(context.Background(), "eyes", "b.png", "c"); err != nil {
		t.Fatal(err)
	}
	if got := sync.ExportName(a); got != "c.png" {
		t.Errorf("after second rename ExportName = %s, want c.png", got)
	}
	if got := sync.Map().Resolve("eyes", "a.png"); got != "c.png" {
		t.Errorf("chain resolves to %s, want c.png", got)
	}
}

func TestRenameConflictHasNoSideEffects(t *testing.T) {
	cat, sync := setup(t)
	a := cat.Find("eyes", "a.png")

	_, err := sync.Rename(context.Background(), "eyes", "a.png", "x.png")
	if !errors.Is(err, errors.ErrCodeNameConflict) {
		t.Fatalf("err = %v, want NAME_CONFLICT", err)
	}
	if a.Name() != "a.png" {
		t.Errorf("asset renamed to %s despite conflict", a.Name())
	}
	if sync.Map().Len() != 0 {
		t.Error("conflict should not be recorded")
	}
}

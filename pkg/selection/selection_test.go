package selection

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/traitstack/pkg/catalog"
	"github.com/matzehuels/traitstack/pkg/errors"
)

func loadCatalog(t *testing.T, files map[string][]string) (*catalog.Catalog, *catalog.MemSource) {
	t.Helper()
	src := catalog.NewMemSource()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{G: 255, A: 255})
	layers := make([]string, 0, len(files))
	for layer, names := range files {
		layers = append(layers, layer)
		for _, name := range names {
			if err := src.Put(layer, name, img); err != nil {
				t.Fatal(err)
			}
		}
	}
	cat := catalog.New(src, catalog.WithLayers(layers), catalog.WithPreviewSize(1, 1))
	if _, err := cat.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	return cat, src
}

func TestStickyOverrideAcrossCalls(t *testing.T) {
	cat, _ := loadCatalog(t, map[string][]string{
		"eyes":  {"e1.png", "e2.png"},
		"hairs": {"h1.png", "h2.png"},
	})
	state := NewState()
	if err := state.Set("eyes", cat.Find("eyes", "e1.png")); err != nil {
		t.Fatal(err)
	}

	stack := []string{"eyes", "hairs"}
	varied := 0
	for seed := uint64(1); seed <= 20; seed++ {
		r := NewResolver(seed)
		seenHairs := map[string]bool{}
		for i := 0; i < 10; i++ {
			res := r.Resolve(stack, cat, state)
			if got := res.Asset("eyes").Name(); got != "e1.png" {
				t.Fatalf("seed %d call %d: eyes = %s, want e1.png", seed, i, got)
			}
			if !res.Overridden("eyes") || res.Overridden("hairs") {
				t.Fatalf("seed %d call %d: unexpected override flags", seed, i)
			}
			seenHairs[res.Asset("hairs").Name()] = true
		}
		if len(seenHairs) == 2 {
			varied++
		}
	}
	// Ten draws miss one of two assets with probability 2/1024 per seed.
	if varied < 18 {
		t.Errorf("hairs varied in only %d of 20 ten-call runs", varied)
	}
}

func TestResolveEmptyLayer(t *testing.T) {
	cat, _ := loadCatalog(t, map[string][]string{"eyes": {"e1.png"}})
	res := NewResolver(1).Resolve([]string{"background", "eyes", "toys"}, cat, nil)

	if diff := cmp.Diff([]string{"background", "toys"}, res.Empty); diff != "" {
		t.Errorf("Empty mismatch (-want +got):\n%s", diff)
	}
	if res.Asset("toys") != nil {
		t.Error("empty layer should resolve to nil")
	}
	if got := len(res.Resolved()); got != 1 {
		t.Errorf("Resolved() has %d assets, want 1", got)
	}
}

func TestResolveDeterministicWithSeed(t *testing.T) {
	cat, _ := loadCatalog(t, map[string][]string{"hairs": {"a.png", "b.png", "c.png", "d.png"}})
	a, b := NewResolver(42), NewResolver(42)
	for i := 0; i < 20; i++ {
		x := a.Resolve([]string{"hairs"}, cat, nil).Asset("hairs")
		y := b.Resolve([]string{"hairs"}, cat, nil).Asset("hairs")
		if x != y {
			t.Fatalf("draw %d differs: %s vs %s", i, x, y)
		}
	}
}

func TestStateSet(t *testing.T) {
	e1 := catalog.NewAsset("eyes", "e1.png", image.NewNRGBA(image.Rect(0, 0, 1, 1)), nil)
	e2 := catalog.NewAsset("eyes", "e2.png", image.NewNRGBA(image.Rect(0, 0, 1, 1)), nil)

	s := NewState()
	if err := s.Set("eyes", e1); err != nil {
		t.Fatal(err)
	}
	if err := s.Set("eyes", e2); err != nil {
		t.Fatal(err)
	}
	if c := s.Choice("eyes"); !c.IsOverride() || c.Asset != e2 {
		t.Errorf("Choice = %+v, want override e2", c)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1 override per layer", s.Len())
	}

	if err := s.Set("hairs", e1); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("cross-layer override: err = %v, want INVALID_INPUT", err)
	}
	if err := s.Set("eyes", nil); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("nil override: err = %v, want INVALID_INPUT", err)
	}

	if !s.Clear("eyes") || s.Clear("eyes") {
		t.Error("Clear should report removal exactly once")
	}
	if c := s.Choice("eyes"); c.Kind != Random {
		t.Errorf("cleared layer Kind = %v, want random", c.Kind)
	}
}

func TestReconcile(t *testing.T) {
	cat, src := loadCatalog(t, map[string][]string{
		"eyes":  {"e1.png", "e2.png"},
		"hairs": {"h1.png"},
	})
	state := NewState()
	_ = state.Set("eyes", cat.Find("eyes", "e2.png"))
	_ = state.Set("hairs", cat.Find("hairs", "h1.png"))

	src.Remove("hairs", "h1.png")
	if _, err := cat.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	warnings := state.Reconcile(cat)
	if got := warnings.Count(errors.ErrCodeStaleSelection); got != 1 {
		t.Fatalf("stale warnings = %d, want 1", got)
	}
	if c := state.Choice("hairs"); c.IsOverride() {
		t.Error("stale hairs override should be dropped")
	}
	c := state.Choice("eyes")
	if !c.IsOverride() || c.Asset != cat.Find("eyes", "e2.png") {
		t.Error("eyes override should be rebound to the reloaded e2.png")
	}
}

func TestResolutionReplace(t *testing.T) {
	e1 := catalog.NewAsset("eyes", "e1.png", image.NewNRGBA(image.Rect(0, 0, 1, 1)), nil)
	res := NewResolution([]string{"background", "eyes"}, nil)
	if diff := cmp.Diff([]string{"background", "eyes"}, res.Empty); diff != "" {
		t.Fatalf("Empty mismatch (-want +got):\n%s", diff)
	}

	res.Replace("eyes", e1, true)
	if res.Asset("eyes") != e1 || !res.Overridden("eyes") {
		t.Error("Replace did not install the override")
	}
	if diff := cmp.Diff([]string{"background"}, res.Empty); diff != "" {
		t.Errorf("Empty after replace (-want +got):\n%s", diff)
	}

	res.Replace("eyes", nil, false)
	if res.Asset("eyes") != nil {
		t.Error("Replace with nil should empty the layer")
	}
	res.Replace("unknown", e1, false)
	if res.Asset("unknown") != nil {
		t.Error("Replace must ignore layers outside the stack")
	}
}

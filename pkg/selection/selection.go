// Package selection decides which asset of each layer takes part in a
// composition.
//
// Every layer is in one of two states, modelled by [Choice]: Random, where a
// fresh uniform draw happens on every resolution, or Override, where a sticky
// manual pick pins the layer to one asset until it is cleared or replaced.
// [State] holds the overrides, [Resolver] turns a State into a [Resolution].
//
//	state := selection.NewState()
//	state.Set("eyes", cat.Find("eyes", "e1.png"))
//	res := selection.NewResolver(seed).Resolve(catalog.DefaultLayers, cat, state)
package selection

import (
	"math/rand/v2"
	"slices"

	"github.com/matzehuels/traitstack/pkg/catalog"
	"github.com/matzehuels/traitstack/pkg/errors"
)

// Kind tags a Choice.
type Kind int

const (
	// Random draws a new asset on every resolution.
	Random Kind = iota
	// Override pins the layer to one asset.
	Override
)

func (k Kind) String() string {
	if k == Override {
		return "override"
	}
	return "random"
}

// Choice is the selection mode of one layer.
type Choice struct {
	Kind  Kind
	Asset *catalog.Asset // set only for Override
}

// IsOverride reports whether the layer is pinned.
func (c Choice) IsOverride() bool { return c.Kind == Override && c.Asset != nil }

// Assets is what the resolver needs from a catalog.
type Assets interface {
	Assets(layer string) []*catalog.Asset
}

// Index is what reconciliation needs from a catalog.
type Index interface {
	Find(layer, name string) *catalog.Asset
	Contains(a *catalog.Asset) bool
}

// =============================================================================
// State
// =============================================================================

// State maps layers to sticky overrides. Layers without an entry are Random.
// The zero value is not usable; call NewState.
type State struct {
	overrides map[string]*catalog.Asset
}

// NewState returns a state with every layer Random.
func NewState() *State {
	return &State{overrides: make(map[string]*catalog.Asset)}
}

// Set pins layer to a, replacing any earlier override of that layer.
func (s *State) Set(layer string, a *catalog.Asset) error {
	if a == nil {
		return errors.New(errors.ErrCodeInvalidInput, "override for %s needs an asset", layer)
	}
	if a.Layer() != layer {
		return errors.New(errors.ErrCodeInvalidInput, "asset %s does not belong to layer %s", a, layer)
	}
	s.overrides[layer] = a
	return nil
}

// Clear returns layer to Random. It reports whether an override was removed.
func (s *State) Clear(layer string) bool {
	_, ok := s.overrides[layer]
	delete(s.overrides, layer)
	return ok
}

// ClearAll returns every layer to Random.
func (s *State) ClearAll() {
	clear(s.overrides)
}

// Choice returns the selection mode of layer.
func (s *State) Choice(layer string) Choice {
	if a, ok := s.overrides[layer]; ok {
		return Choice{Kind: Override, Asset: a}
	}
	return Choice{Kind: Random}
}

// Overrides returns a copy of the pinned layers.
func (s *State) Overrides() map[string]*catalog.Asset {
	out := make(map[string]*catalog.Asset, len(s.overrides))
	for k, v := range s.overrides {
		out[k] = v
	}
	return out
}

// Len returns the number of overridden layers.
func (s *State) Len() int { return len(s.overrides) }

// Reconcile rebinds overrides after the catalog was reloaded. An override
// still present in the catalog is kept. One whose asset was replaced by a
// reload is rebound to the asset carrying the same current filename. An
// override with no such asset is dropped and reported as STALE_SELECTION.
func (s *State) Reconcile(idx Index) errors.Warnings {
	var warnings errors.Warnings
	layers := make([]string, 0, len(s.overrides))
	for layer := range s.overrides {
		layers = append(layers, layer)
	}
	slices.Sort(layers)

	for _, layer := range layers {
		a := s.overrides[layer]
		if idx.Contains(a) {
			continue
		}
		if fresh := idx.Find(layer, a.Name()); fresh != nil {
			s.overrides[layer] = fresh
			continue
		}
		delete(s.overrides, layer)
		warnings.Add(errors.New(errors.ErrCodeStaleSelection,
			"%s override %s no longer exists, reverting to random", layer, a.Name()))
	}
	return warnings
}

// =============================================================================
// Resolution
// =============================================================================

// Resolution is the outcome of resolving every layer of a stack once.
type Resolution struct {
	// Layers is the stack the resolution was computed for, back to front.
	Layers []string
	// Empty lists the layers that had no asset (EMPTY_LAYER), in stack order.
	Empty []string

	assets     map[string]*catalog.Asset
	overridden map[string]bool
}

// Asset returns the resolved asset of layer, or nil.
func (r *Resolution) Asset(layer string) *catalog.Asset {
	if r == nil {
		return nil
	}
	return r.assets[layer]
}

// Overridden reports whether layer came from a sticky override.
func (r *Resolution) Overridden(layer string) bool {
	return r != nil && r.overridden[layer]
}

// Resolved returns the non-empty layers in stack order with their assets.
func (r *Resolution) Resolved() []*catalog.Asset {
	if r == nil {
		return nil
	}
	out := make([]*catalog.Asset, 0, len(r.assets))
	for _, layer := range r.Layers {
		if a := r.assets[layer]; a != nil {
			out = append(out, a)
		}
	}
	return out
}

// Replace swaps the asset of one layer, e.g. after an override was set
// between two compositions. A nil asset empties the layer.
func (r *Resolution) Replace(layer string, a *catalog.Asset, overridden bool) {
	if !slices.Contains(r.Layers, layer) {
		return
	}
	if a == nil {
		delete(r.assets, layer)
		delete(r.overridden, layer)
	} else {
		r.assets[layer] = a
		r.overridden[layer] = overridden
	}
	r.Empty = r.Empty[:0]
	for _, l := range r.Layers {
		if r.assets[l] == nil {
			r.Empty = append(r.Empty, l)
		}
	}
}

// NewResolution builds a resolution from explicit picks. Layers missing from
// picks are Empty.
func NewResolution(stack []string, picks map[string]*catalog.Asset) *Resolution {
	r := &Resolution{
		Layers:     slices.Clone(stack),
		assets:     make(map[string]*catalog.Asset, len(picks)),
		overridden: make(map[string]bool),
	}
	for _, layer := range stack {
		if a := picks[layer]; a != nil {
			r.assets[layer] = a
		} else {
			r.Empty = append(r.Empty, layer)
		}
	}
	return r
}

// =============================================================================
// Resolver
// =============================================================================

// Resolver draws random picks from a private generator.
type Resolver struct {
	rng *rand.Rand
}

// NewResolver returns a resolver seeded with seed.
func NewResolver(seed uint64) *Resolver {
	return NewResolverWithRand(rand.New(rand.NewPCG(seed, seed^0xdeadbeef)))
}

// NewResolverWithRand uses rng for draws. A nil rng is seeded randomly.
func NewResolverWithRand(rng *rand.Rand) *Resolver {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Resolver{rng: rng}
}

// Resolve picks one asset per layer of stack: the override when state has
// one, else a uniform draw from the layer's assets, else nothing.
func (r *Resolver) Resolve(stack []string, cat Assets, state *State) *Resolution {
	res := &Resolution{
		Layers:     slices.Clone(stack),
		assets:     make(map[string]*catalog.Asset, len(stack)),
		overridden: make(map[string]bool),
	}
	for _, layer := range stack {
		if state != nil {
			if c := state.Choice(layer); c.IsOverride() {
				res.assets[layer] = c.Asset
				res.overridden[layer] = true
				continue
			}
		}
		if a := r.Draw(cat.Assets(layer)); a != nil {
			res.assets[layer] = a
			continue
		}
		res.Empty = append(res.Empty, layer)
	}
	return res
}

// Draw returns a uniformly chosen asset, or nil for an empty list.
func (r *Resolver) Draw(assets []*catalog.Asset) *catalog.Asset {
	if len(assets) == 0 {
		return nil
	}
	return assets[r.rng.IntN(len(assets))]
}

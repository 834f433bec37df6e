package pipeline

import (
	"context"
	"image"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/traitstack/pkg/catalog"
	"github.com/matzehuels/traitstack/pkg/compose"
	"github.com/matzehuels/traitstack/pkg/config"
	"github.com/matzehuels/traitstack/pkg/errors"
	"github.com/matzehuels/traitstack/pkg/observability"
	"github.com/matzehuels/traitstack/pkg/rename"
	"github.com/matzehuels/traitstack/pkg/selection"
)

// Runner is the engine context.
type Runner struct {
	mu sync.Mutex

	cfg      *config.Config
	catalog  *catalog.Catalog
	state    *selection.State
	resolver *selection.Resolver
	renames  *rename.Synchronizer
	seeds    *rand.Rand
	logger   *log.Logger

	current   *selection.Resolution
	noiseSeed uint64
}

// NewRunner creates a runner over cat. A nil cfg uses config.Default(), a
// nil logger uses log.Default(). A zero cfg.Seed seeds randomly.
func NewRunner(cat *catalog.Catalog, cfg *config.Config, logger *log.Logger) *Runner {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = log.Default()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Runner{
		cfg:      cfg,
		catalog:  cat,
		state:    selection.NewState(),
		resolver: selection.NewResolver(seed),
		renames:  rename.NewSynchronizer(cat, nil, logger),
		seeds:    rand.New(rand.NewPCG(seed, seed^0xdeadbeef)),
		logger:   logger,
	}
}

// Config returns the configuration the runner was built with.
func (r *Runner) Config() *config.Config { return r.cfg }

// Catalog returns the catalog. Callers must not mutate it directly.
func (r *Runner) Catalog() *catalog.Catalog { return r.catalog }

// =============================================================================
// Catalog refresh
// =============================================================================

// Refresh reloads the catalog, forgets recorded renames, reconciles overrides
// and draws a new resolution. Layers without traits are reported as
// EMPTY_LAYER warnings. Overrides whose file vanished are dropped and reported
// as STALE_SELECTION warnings.
func (r *Runner) Refresh(ctx context.Context) (*RefreshReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	load, err := r.catalog.Load(ctx)
	if err != nil {
		return nil, err
	}
	r.renames.Map().Reset()

	report := &RefreshReport{
		Assets:   load.Assets,
		Hidden:   load.Hidden,
		Cached:   load.Cached,
		Warnings: load.Warnings,
	}
	for _, layer := range r.cfg.Layers {
		if len(r.catalog.Assets(layer)) == 0 {
			report.Warnings.Add(errors.New(errors.ErrCodeEmptyLayer, "layer %s has no traits", layer))
		}
	}
	for _, w := range r.state.Reconcile(r.catalog) {
		report.Warnings.Add(w)
		r.logger.Warn("selection reset", "err", w)
	}
	r.randomize()
	return report, nil
}

// =============================================================================
// Selection
// =============================================================================

// Randomize draws a new resolution and noise seed.
func (r *Runner) Randomize() *selection.Resolution {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.randomize()
}

func (r *Runner) randomize() *selection.Resolution {
	r.current = r.resolver.Resolve(r.cfg.Layers, r.catalog, r.state)
	r.noiseSeed = r.seeds.Uint64()
	if len(r.current.Empty) > 0 {
		r.logger.Debug("layers without assets", "layers", r.current.Empty)
	}
	return r.current
}

func (r *Runner) resolution() *selection.Resolution {
	if r.current == nil {
		r.randomize()
	}
	return r.current
}

// Current returns the current resolution, drawing one if needed.
func (r *Runner) Current() *selection.Resolution {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolution()
}

// SetOverride pins layer to the asset currently called name and draws a new
// resolution for the other layers.
func (r *Runner) SetOverride(layer, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.setOverride(layer, name); err != nil {
		return err
	}
	r.randomize()
	return nil
}

func (r *Runner) setOverride(layer, name string) error {
	a := r.catalog.Find(layer, name)
	if a == nil {
		return errors.New(errors.ErrCodeNotFound, "%s has no asset named %s", layer, name)
	}
	return r.state.Set(layer, a)
}

// ClearOverride returns layer to random selection. It reports whether an
// override was removed.
func (r *Runner) ClearOverride(layer string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.state.Clear(layer) {
		return false
	}
	if r.current != nil {
		r.current.Replace(layer, r.resolver.Draw(r.catalog.Assets(layer)), false)
	}
	return true
}

// ClearOverrides returns every layer to random selection and draws a new
// resolution. It reports how many overrides were removed.
func (r *Runner) ClearOverrides() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.state.Len()
	r.state.ClearAll()
	r.randomize()
	return n
}

// Overrides returns the pinned layers and their current filenames.
func (r *Runner) Overrides() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string, r.state.Len())
	for layer, a := range r.state.Overrides() {
		out[layer] = a.Name()
	}
	return out
}

// =============================================================================
// Renames
// =============================================================================

// Rename renames an asset through the synchronizer and draws a new
// resolution. On NAME_CONFLICT nothing changes.
func (r *Runner) Rename(ctx context.Context, layer, oldName, newName string) (*catalog.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, err := r.renames.Rename(ctx, layer, oldName, newName)
	if err != nil {
		return nil, err
	}
	r.randomize()
	return a, nil
}

// ExportName returns the name a is written under.
func (r *Runner) ExportName(a *catalog.Asset) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.renames.ExportName(a)
}

// ApplyAll applies a batch of edits and draws one new resolution at the end.
// Within each edit the override is set before the rename, so Select names the
// file as it was before this call. A failing edit is reported and skipped.
func (r *Runner) ApplyAll(ctx context.Context, edits []LayerEdit) *ApplyReport {
	r.mu.Lock()
	defer r.mu.Unlock()

	report := &ApplyReport{}
	for _, e := range edits {
		target := e.Select
		if target != "" {
			if err := r.setOverride(e.Layer, target); err != nil {
				report.Failed.Add(asError(err))
				continue
			}
			report.Selected++
		}
		if e.RenameTo == "" {
			continue
		}
		if target == "" {
			if c := r.state.Choice(e.Layer); c.IsOverride() {
				target = c.Asset.Name()
			}
		}
		if target == "" {
			report.Failed.Add(errors.New(errors.ErrCodeInvalidInput, "%s: rename needs a selected asset", e.Layer))
			continue
		}
		if _, err := r.renames.Rename(ctx, e.Layer, target, e.RenameTo); err != nil {
			report.Failed.Add(asError(err))
			continue
		}
		report.Renamed++
	}
	r.randomize()
	r.logger.Info("applied edits", "selected", report.Selected, "renamed", report.Renamed, "failed", len(report.Failed))
	return report
}

func asError(err error) *errors.Error {
	var e *errors.Error
	if errors.As(err, &e) {
		return e
	}
	return errors.Wrap(errors.ErrCodeInternal, err, "apply")
}

// =============================================================================
// Composition
// =============================================================================

// Preview paints the current resolution at preview size.
func (r *Runner) Preview(ctx context.Context) *Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frame(ctx, true, nil)
}

// Composite paints the current resolution at full size.
func (r *Runner) Composite(ctx context.Context) *Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frame(ctx, false, nil)
}

// WorkspaceComposite paints the current resolution at full size without the
// background and overlay layers, ready to be added to a collage.
func (r *Runner) WorkspaceComposite(ctx context.Context) *Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frame(ctx, false, r.cfg.CollageExclude())
}

func (r *Runner) frame(ctx context.Context, preview bool, exclude []string) *Frame {
	res := r.resolution()
	size := r.cfg.CanvasSize()
	if preview {
		size = r.cfg.PreviewSize()
	}
	opts := r.cfg.ComposeOptions(preview, r.noiseSeed)
	opts.Exclude = exclude

	start := time.Now()
	observability.Compose().OnComposeStart(ctx, len(res.Resolved()), preview)
	img := compose.Compose(res, size, opts)
	observability.Compose().OnComposeComplete(ctx, preview, time.Since(start), nil)

	picks := make(map[string]string, len(res.Layers))
	for _, a := range res.Resolved() {
		if !slices.Contains(exclude, a.Layer()) {
			picks[a.Layer()] = a.Name()
		}
	}
	return &Frame{Image: img, Seed: r.noiseSeed, Picks: picks}
}

// Layers describes every layer of the stack in order.
func (r *Runner) Layers() []LayerInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := r.resolution()
	opts := r.cfg.ComposeOptions(false, 0)

	out := make([]LayerInfo, 0, len(r.cfg.Layers))
	for _, layer := range r.cfg.Layers {
		n := opts.NoiseFor(layer)
		info := LayerInfo{
			Name:       layer,
			Assets:     r.catalog.Names(layer),
			Overridden: res.Overridden(layer),
			Overlay:    layer == r.cfg.Overlay,
			Noise:      n.Enabled,
			Intensity:  n.Intensity,
		}
		if a := res.Asset(layer); a != nil {
			info.Current = a.Name()
		}
		out = append(out, info)
	}
	return out
}

// CanvasSize returns the full-resolution canvas size.
func (r *Runner) CanvasSize() image.Point { return r.cfg.CanvasSize() }

// Package catalog holds every trait asset available for composition.
//
// # Overview
//
// A [Catalog] maps each layer of the fixed compositing stack to an ordered
// list of [Asset] values. Each asset carries its full-resolution decode and a
// reduced preview decode. The catalog is the single source of truth for what
// exists: the selection resolver draws from it, the compositor reads pixels
// from the assets it returns.
//
// # Loading
//
// [Catalog.Load] scans every configured layer through a [Source], asks the
// visibility [gate.Gate] about each file, decodes the survivors on a bounded
// pool of goroutines and swaps the new contents in with a single assignment
// once every worker has finished. Files that fail to decode are reported as
// DECODE_FAILURE warnings in the [LoadReport] and left out.
//
//	cat := catalog.New(catalog.NewDirSource("static"),
//	    catalog.WithLayers(catalog.DefaultLayers),
//	    catalog.WithPreviewSize(316, 350),
//	)
//	report, err := cat.Load(ctx)
//
// # Identity
//
// Assets are referenced by pointer. [Catalog.Rename] changes an asset's
// filename in place, so selections holding the pointer stay valid. A reload
// creates new Asset values; callers holding old pointers must reconcile by
// name (see selection.State.Reconcile).
package catalog

import (
	"context"
	"fmt"
	"image"
	"io"
	"runtime"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/traitstack/pkg/cache"
	"github.com/matzehuels/traitstack/pkg/errors"
	"github.com/matzehuels/traitstack/pkg/gate"
	tsio "github.com/matzehuels/traitstack/pkg/io"
	"github.com/matzehuels/traitstack/pkg/observability"
)

// =============================================================================
// Defaults
// =============================================================================

// DefaultLayers is the stack order of the portrait, back to front.
var DefaultLayers = []string{
	"background",
	"accessories2", // behind bodies, in front of background
	"bodies",
	"eyes",
	"mouth",
	"shirts",
	"hairs",
	"toys",
	"accessories",
	"health", // overlay
}

const (
	// DefaultOverlay is the translucent terminal layer.
	DefaultOverlay = "health"

	// DefaultBackground is the layer left out of collage instances.
	DefaultBackground = "background"

	// DefaultWidth and DefaultHeight are the full-resolution canvas size.
	DefaultWidth  = 790
	DefaultHeight = 875

	// DefaultPreviewScale sizes the interactive preview relative to the canvas.
	DefaultPreviewScale = 0.4
)

// PreviewSize scales a canvas size, truncating like the preview canvas does.
func PreviewSize(w, h int, scale float64) image.Point {
	return image.Pt(max(1, int(float64(w)*scale)), max(1, int(float64(h)*scale)))
}

// =============================================================================
// Asset
// =============================================================================

// Asset is one selectable trait image.
type Asset struct {
	layer    string
	original string
	name     string
	hash     string

	// Full is the full-resolution decode.
	Full *image.NRGBA
	// Preview is the reduced-resolution decode.
	Preview *image.NRGBA
}

// NewAsset builds an asset outside of Load. A nil preview reuses full.
func NewAsset(layer, name string, full, preview *image.NRGBA) *Asset {
	if preview == nil {
		preview = full
	}
	return &Asset{layer: layer, original: name, name: name, Full: full, Preview: preview}
}

// Layer returns the layer the asset belongs to.
func (a *Asset) Layer() string { return a.layer }

// Name returns the current filename.
func (a *Asset) Name() string { return a.name }

// Original returns the filename the asset was loaded under.
func (a *Asset) Original() string { return a.original }

// Hash returns the SHA-256 of the encoded file, or "" for assets built with
// NewAsset.
func (a *Asset) Hash() string { return a.hash }

// Image returns the preview or the full-resolution decode.
func (a *Asset) Image(preview bool) *image.NRGBA {
	if preview && a.Preview != nil {
		return a.Preview
	}
	return a.Full
}

func (a *Asset) String() string { return a.layer + "/" + a.name }

// =============================================================================
// Catalog
// =============================================================================

// Catalog owns the per-layer asset lists. It is not safe for concurrent
// mutation; the pipeline serialises access.
type Catalog struct {
	source  Source
	layers  []string
	preview image.Point
	gate    gate.Gate
	cache   cache.Cache
	keyer   cache.Keyer
	workers int
	logger  *log.Logger

	assets map[string][]*Asset
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithLayers sets the layers to scan. Order is kept for Layers().
func WithLayers(layers []string) Option {
	return func(c *Catalog) { c.layers = slices.Clone(layers) }
}

// WithPreviewSize sets the preview decode size.
func WithPreviewSize(w, h int) Option {
	return func(c *Catalog) { c.preview = image.Pt(w, h) }
}

// WithGate sets the visibility gate.
func WithGate(g gate.Gate) Option {
	return func(c *Catalog) { c.gate = g }
}

// WithCache caches preview renders. A nil keyer uses the default scheme.
func WithCache(store cache.Cache, keyer cache.Keyer) Option {
	return func(c *Catalog) {
		c.cache = store
		c.keyer = keyer
	}
}

// WithWorkers bounds parallel decoding.
func WithWorkers(n int) Option {
	return func(c *Catalog) { c.workers = n }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Catalog) { c.logger = l }
}

// New creates an empty catalog over src. Call Load to populate it.
func New(src Source, opts ...Option) *Catalog {
	c := &Catalog{
		source: src,
		layers: slices.Clone(DefaultLayers),
		assets: make(map[string][]*Asset),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.preview == (image.Point{}) {
		c.preview = PreviewSize(DefaultWidth, DefaultHeight, DefaultPreviewScale)
	}
	if c.gate == nil {
		c.gate = gate.AllVisible{}
	}
	if c.cache == nil {
		c.cache = cache.NewNullCache()
	}
	if c.keyer == nil {
		c.keyer = cache.NewDefaultKeyer()
	}
	if c.workers <= 0 {
		c.workers = runtime.GOMAXPROCS(0)
	}
	if c.logger == nil {
		c.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return c
}

// Source returns the underlying source.
func (c *Catalog) Source() Source { return c.source }

// Layers returns the configured layer names in stack order.
func (c *Catalog) Layers() []string { return slices.Clone(c.layers) }

// PreviewBounds returns the preview decode size.
func (c *Catalog) PreviewBounds() image.Point { return c.preview }

// Assets returns the assets of layer in filename order. The slice is a copy;
// the assets are shared.
func (c *Catalog) Assets(layer string) []*Asset {
	return slices.Clone(c.assets[layer])
}

// Names returns the current filenames of layer.
func (c *Catalog) Names(layer string) []string {
	names := make([]string, 0, len(c.assets[layer]))
	for _, a := range c.assets[layer] {
		names = append(names, a.name)
	}
	return names
}

// Find returns the asset called name in layer, or nil.
func (c *Catalog) Find(layer, name string) *Asset {
	for _, a := range c.assets[layer] {
		if a.name == name {
			return a
		}
	}
	return nil
}

// Len returns the total number of assets.
func (c *Catalog) Len() int {
	n := 0
	for _, list := range c.assets {
		n += len(list)
	}
	return n
}

// Contains reports whether a is currently part of the catalog.
func (c *Catalog) Contains(a *Asset) bool {
	return a != nil && slices.Contains(c.assets[a.layer], a)
}

// =============================================================================
// Load
// =============================================================================

// LoadReport summarises a Load call.
type LoadReport struct {
	Layers   int
	Assets   int
	Hidden   int
	Cached   int
	Duration time.Duration
	Warnings errors.Warnings
}

type job struct {
	layer string
	name  string
}

type decoded struct {
	asset  *Asset
	cached bool
	warn   *errors.Error
}

// Load rebuilds the catalog from the source. On error the previous contents
// are kept; on success they are replaced all at once.
func (c *Catalog) Load(ctx context.Context) (*LoadReport, error) {
	start := time.Now()
	observability.Catalog().OnLoadStart(ctx, len(c.layers))

	report, err := c.load(ctx)
	if report != nil {
		report.Duration = time.Since(start)
	}
	assets := 0
	if err == nil {
		assets = report.Assets
	}
	observability.Catalog().OnLoadComplete(ctx, assets, time.Since(start), err)
	return report, err
}

func (c *Catalog) load(ctx context.Context) (*LoadReport, error) {
	report := &LoadReport{Layers: len(c.layers)}

	var jobs []job
	for _, layer := range c.layers {
		if err := errors.ValidateLayerName(layer); err != nil {
			return nil, err
		}
		names, err := c.source.List(ctx, layer)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", layer, err)
		}
		for _, name := range names {
			if !c.gate.IsVisible(ctx, layer, name) {
				report.Hidden++
				c.logger.Debug("hidden trait skipped", "layer", layer, "name", name)
				continue
			}
			jobs = append(jobs, job{layer: layer, name: name})
		}
	}

	results := make([]decoded, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = c.decode(gctx, j)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	next := make(map[string][]*Asset, len(c.layers))
	for _, r := range results {
		if r.warn != nil {
			report.Warnings.Add(r.warn)
			c.logger.Warn("trait excluded", "err", r.warn)
			continue
		}
		next[r.asset.layer] = append(next[r.asset.layer], r.asset)
		report.Assets++
		if r.cached {
			report.Cached++
		}
	}
	for layer, list := range next {
		sortByName(list)
		next[layer] = list
	}
	for _, layer := range c.layers {
		if len(next[layer]) == 0 {
			c.logger.Debug("layer has no assets", "layer", layer)
		}
	}

	c.assets = next
	c.logger.Info("loaded catalog", "layers", report.Layers, "assets", report.Assets, "hidden", report.Hidden, "warnings", len(report.Warnings))
	return report, nil
}

func (c *Catalog) decode(ctx context.Context, j job) decoded {
	data, err := c.source.Read(ctx, j.layer, j.name)
	if err != nil {
		return decoded{warn: errors.Wrap(errors.ErrCodeDecodeFailure, err, "read %s/%s", j.layer, j.name)}
	}
	full, err := tsio.Decode(data)
	if err != nil {
		return decoded{warn: errors.Wrap(errors.ErrCodeDecodeFailure, err, "%s/%s", j.layer, j.name)}
	}

	hash := cache.Hash(data)
	preview, cached := c.previewFor(ctx, hash, full)
	return decoded{
		asset: &Asset{
			layer:    j.layer,
			original: j.name,
			name:     j.name,
			hash:     hash,
			Full:     full,
			Preview:  preview,
		},
		cached: cached,
	}
}

// previewFor returns the preview of full, consulting the cache first.
func (c *Catalog) previewFor(ctx context.Context, hash string, full *image.NRGBA) (*image.NRGBA, bool) {
	key := c.keyer.PreviewKey(hash, c.preview.X, c.preview.Y)
	if data, hit, err := c.cache.Get(ctx, key); err == nil && hit {
		if img, err := tsio.Decode(data); err == nil && img.Bounds().Size() == c.preview {
			observability.Cache().OnCacheHit(ctx, "preview")
			return img, true
		}
	}
	observability.Cache().OnCacheMiss(ctx, "preview")

	preview := imaging.Resize(full, c.preview.X, c.preview.Y, imaging.Lanczos)
	if data, err := tsio.EncodePNG(preview); err == nil {
		if err := c.cache.Set(ctx, key, data, cache.TTLPreview); err == nil {
			observability.Cache().OnCacheSet(ctx, "preview", len(data))
		}
	}
	return preview, false
}

// =============================================================================
// Rename
// =============================================================================

// Rename gives the asset called oldName in layer the filename newName.
//
// A ".png" suffix is appended to newName when missing. Rename fails with
// NAME_CONFLICT if the name is already taken in the layer, with NOT_FOUND if
// oldName is unknown, and with INVALID_NAME for unsafe names. No state changes
// on failure. On success the file is renamed on the source, the asset's
// filename is updated in place and the layer index is re-sorted.
func (c *Catalog) Rename(ctx context.Context, layer, oldName, newName string) (*Asset, error) {
	if err := errors.ValidateAssetName(newName); err != nil {
		return nil, err
	}
	newName = tsio.EnsurePNG(newName)

	asset := c.Find(layer, oldName)
	if asset == nil {
		return nil, errors.New(errors.ErrCodeNotFound, "%s has no asset named %s", layer, oldName)
	}
	if newName == oldName {
		return asset, nil
	}
	if c.Find(layer, newName) != nil {
		return nil, errors.New(errors.ErrCodeNameConflict, "file %q already exists in %s", newName, layer)
	}
	if taken, err := c.source.Exists(ctx, layer, newName); err != nil {
		return nil, fmt.Errorf("check %s/%s: %w", layer, newName, err)
	} else if taken {
		return nil, errors.New(errors.ErrCodeNameConflict, "file %q already exists in %s", newName, layer)
	}

	if err := c.source.Rename(ctx, layer, oldName, newName); err != nil {
		return nil, fmt.Errorf("rename %s/%s: %w", layer, oldName, err)
	}
	asset.name = newName
	sortByName(c.assets[layer])

	c.logger.Info("renamed trait", "layer", layer, "from", oldName, "to", newName)
	return asset, nil
}

func sortByName(list []*Asset) {
	slices.SortFunc(list, func(a, b *Asset) int {
		switch {
		case a.name < b.name:
			return -1
		case a.name > b.name:
			return 1
		}
		return 0
	})
}

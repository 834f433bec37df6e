// Package compose flattens a resolved layer stack into one image.
//
// Layers are painted back to front with source-over blending onto a fresh
// transparent canvas. Before painting, each layer may be perturbed by the
// noise filter according to its [NoiseConfig]. The overlay layer, when
// present, is painted last at a fixed reduced opacity; its own alpha channel
// still applies, so fully transparent overlay pixels leave the canvas alone.
//
// The same algorithm runs at preview and at full resolution. Only the source
// image (Asset.Preview vs Asset.Full) and the canvas size change:
//
//	preview := compose.Compose(res, image.Pt(316, 350), compose.Options{Preview: true})
//	full := compose.Compose(res, image.Pt(790, 875), compose.Options{})
package compose

import (
	"hash/fnv"
	"image"
	"image/color"
	"math"
	"math/rand/v2"
	"slices"

	"golang.org/x/image/draw"

	"github.com/matzehuels/traitstack/pkg/catalog"
	"github.com/matzehuels/traitstack/pkg/noise"
	"github.com/matzehuels/traitstack/pkg/selection"
)

// DefaultOverlayOpacity is the opacity the overlay layer is painted at.
const DefaultOverlayOpacity = 0.3

// NoiseConfig controls the perturbation of one layer.
type NoiseConfig struct {
	Enabled   bool    `toml:"enabled" json:"enabled"`
	Intensity float64 `toml:"intensity" json:"intensity"`
}

// DefaultNoise is enabled at the default intensity.
func DefaultNoise() NoiseConfig {
	return NoiseConfig{Enabled: true, Intensity: noise.DefaultIntensity}
}

// Active reports whether the layer would actually change.
func (n NoiseConfig) Active() bool {
	return n.Enabled && noise.Clamp(n.Intensity) > 0
}

// Options configures one composition.
type Options struct {
	// Preview paints Asset.Preview instead of Asset.Full.
	Preview bool

	// Overlay names the terminal translucent layer. Empty means none.
	Overlay string

	// OverlayOpacity is applied uniformly to the overlay. Zero means
	// DefaultOverlayOpacity; use a negative value to hide the overlay.
	OverlayOpacity float64

	// Exclude lists layers to leave out, e.g. the background of a collage
	// instance.
	Exclude []string

	// Noise holds per-layer settings. Layers without an entry use
	// NoiseDefault.
	Noise        map[string]NoiseConfig
	NoiseDefault NoiseConfig

	// Seed drives the noise generator. Each layer gets its own stream.
	Seed uint64
}

// NoiseFor returns the noise settings used for layer.
func (o Options) NoiseFor(layer string) NoiseConfig {
	if cfg, ok := o.Noise[layer]; ok {
		return cfg
	}
	return o.NoiseDefault
}

func (o Options) opacity() float64 {
	switch {
	case o.OverlayOpacity == 0:
		return DefaultOverlayOpacity
	case o.OverlayOpacity < 0:
		return 0
	case o.OverlayOpacity > 1:
		return 1
	}
	return o.OverlayOpacity
}

// Compose paints every resolved layer of res onto a transparent canvas of the
// given size. Empty layers contribute nothing.
func Compose(res *selection.Resolution, size image.Point, opts Options) *image.NRGBA {
	canvas := image.NewNRGBA(image.Rect(0, 0, size.X, size.Y))
	if res == nil {
		return canvas
	}

	var overlay *catalog.Asset
	for _, layer := range res.Layers {
		if slices.Contains(opts.Exclude, layer) {
			continue
		}
		a := res.Asset(layer)
		if a == nil {
			continue
		}
		if layer == opts.Overlay {
			overlay = a
			continue
		}
		src := prepare(a, size, opts)
		draw.Draw(canvas, canvas.Bounds(), src, src.Bounds().Min, draw.Over)
	}

	if overlay != nil {
		if alpha := opts.opacity(); alpha > 0 {
			src := prepare(overlay, size, opts)
			mask := image.NewUniform(color.Alpha{A: uint8(math.Round(alpha * 255))})
			draw.DrawMask(canvas, canvas.Bounds(), src, src.Bounds().Min, mask, image.Point{}, draw.Over)
		}
	}
	return canvas
}

// Layer returns one layer as it would be painted: resampled to size and with
// noise applied. It is what a per-layer export writes.
func Layer(a *catalog.Asset, size image.Point, opts Options) *image.NRGBA {
	return prepare(a, size, opts)
}

func prepare(a *catalog.Asset, size image.Point, opts Options) *image.NRGBA {
	img := a.Image(opts.Preview)
	if img.Bounds().Size() != size {
		img = Resample(img, size.X, size.Y)
	}
	if cfg := opts.NoiseFor(a.Layer()); cfg.Active() {
		img = noise.Apply(img, cfg.Intensity, layerRand(opts.Seed, a.Layer()))
	}
	return img
}

func layerRand(seed uint64, layer string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(layer))
	return rand.New(rand.NewPCG(seed, h.Sum64()))
}

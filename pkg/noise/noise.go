// Package noise perturbs the colour channels of a raster with uniform random
// offsets.
//
// The perturbation is the grain effect applied to each trait layer before
// compositing. Every pixel's red, green and blue channels are offset by an
// independent draw from (-intensity*255/2, +intensity*255/2), rounded to the
// nearest integer and clamped to [0, 255]. Alpha is never touched, so the
// silhouette of a layer survives any amount of noise.
//
//	rng := rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
//	grainy := noise.Apply(img, 0.4, rng)
package noise

import (
	"image"
	"image/draw"
	"math"
	"math/rand/v2"
)

const (
	// MinIntensity is the lowest accepted intensity (identity).
	MinIntensity = 0.0

	// MaxIntensity is the highest accepted intensity.
	MaxIntensity = 0.5

	// DefaultIntensity matches the slider default of the trait panel.
	DefaultIntensity = 0.4
)

// Clamp bounds intensity to [MinIntensity, MaxIntensity]. NaN maps to zero.
func Clamp(intensity float64) float64 {
	if math.IsNaN(intensity) {
		return MinIntensity
	}
	return max(MinIntensity, min(intensity, MaxIntensity))
}

// Apply returns a perturbed copy of img. The input is never modified.
//
// Out-of-range intensities are clamped rather than rejected. A zero intensity
// returns a byte-identical NRGBA copy of img. If rng is nil a randomly seeded
// generator is used.
func Apply(img image.Image, intensity float64, rng *rand.Rand) *image.NRGBA {
	out := toNRGBA(img)
	intensity = Clamp(intensity)
	if intensity == 0 {
		return out
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	// Offsets are drawn from (-spread, +spread).
	spread := intensity * 255 / 2
	b := out.Bounds()
	for y := 0; y < b.Dy(); y++ {
		row := out.Pix[y*out.Stride : y*out.Stride+b.Dx()*4]
		for x := 0; x < len(row); x += 4 {
			row[x+0] = perturb(row[x+0], spread, rng)
			row[x+1] = perturb(row[x+1], spread, rng)
			row[x+2] = perturb(row[x+2], spread, rng)
		}
	}
	return out
}

func perturb(v uint8, spread float64, rng *rand.Rand) uint8 {
	offset := math.Round((rng.Float64()*2 - 1) * spread)
	return uint8(max(0, min(255, float64(v)+offset)))
}

// toNRGBA copies img into a fresh NRGBA whose bounds start at the origin.
func toNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if src, ok := img.(*image.NRGBA); ok {
		for y := 0; y < b.Dy(); y++ {
			so := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(out.Pix[y*out.Stride:y*out.Stride+b.Dx()*4], src.Pix[so:so+b.Dx()*4])
		}
		return out
	}
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

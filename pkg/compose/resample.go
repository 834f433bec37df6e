package compose

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// Resample returns img resized to w×h with a Lanczos filter. The input is
// never modified; a same-size request returns a copy.
func Resample(img image.Image, w, h int) *image.NRGBA {
	w, h = max(1, w), max(1, h)
	if img.Bounds().Dx() == w && img.Bounds().Dy() == h {
		return imaging.Clone(img)
	}
	return imaging.Resize(img, w, h, imaging.Lanczos)
}

// Scaled returns the size of a w×h image drawn at scale, rounded to whole
// pixels and never smaller than 1×1.
func Scaled(size image.Point, scale float64) image.Point {
	return image.Pt(
		max(1, int(math.Round(float64(size.X)*scale))),
		max(1, int(math.Round(float64(size.Y)*scale))),
	)
}

// PadOptions controls Pad.
type PadOptions struct {
	// Stretch resizes the image to fill the canvas, as done for
	// backgrounds.
	Stretch bool
	// ShiftX moves the image right after centring.
	ShiftX int
}

// Pad places img on a transparent canvas of the given size. Without Stretch
// the image keeps its size, is centred horizontally, aligned to the bottom
// edge and shifted by ShiftX. Parts falling outside the canvas are cut.
func Pad(img image.Image, size image.Point, opts PadOptions) *image.NRGBA {
	if opts.Stretch {
		return imaging.Resize(img, size.X, size.Y, imaging.Lanczos)
	}
	b := img.Bounds()
	x := (size.X-b.Dx())/2 + opts.ShiftX
	y := size.Y - b.Dy()
	canvas := imaging.New(size.X, size.Y, color.NRGBA{})
	return imaging.Overlay(canvas, img, image.Pt(x, y), 1.0)
}

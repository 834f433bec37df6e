package placement_test

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/matzehuels/traitstack/pkg/placement"
)

func filled(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func Example() {
	ws := placement.New()
	if _, err := ws.AddInstance(filled(10, 10, color.NRGBA{A: 255})); err != nil {
		fmt.Println(err)
	}

	_ = ws.SetBackground(filled(100, 50, color.NRGBA{G: 255, A: 255}))
	in, _ := ws.AddInstance(filled(10, 10, color.NRGBA{R: 255, A: 255}))
	fmt.Println(in.Center(), in.Bounds())

	hit := ws.HitTest(placement.Pt(52, 27))
	fmt.Println(hit == in, ws.HitTest(placement.Pt(5, 5)) == nil)

	img, _ := ws.Render()
	fmt.Println(img.Bounds().Size(), img.NRGBAAt(50, 25), img.NRGBAAt(5, 5))
	// Output:
	// NO_BACKGROUND: adding to the collage needs a background image; set one first
	// {50 25} {45 20 10 10}
	// true true
	// (100,50) {255 0 0 255} {0 255 0 255}
}

package compose_test

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/matzehuels/traitstack/pkg/catalog"
	"github.com/matzehuels/traitstack/pkg/compose"
	"github.com/matzehuels/traitstack/pkg/selection"
)

func square(c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func Example() {
	picks := map[string]*catalog.Asset{
		"background": catalog.NewAsset("background", "red.png", square(color.NRGBA{R: 255, A: 255}), nil),
		"hat":        catalog.NewAsset("hat", "blue.png", square(color.NRGBA{B: 255, A: 255}), nil),
	}
	res := selection.NewResolution([]string{"background", "hat"}, picks)

	// Later layers paint over earlier ones.
	img := compose.Compose(res, image.Pt(4, 4), compose.Options{})
	fmt.Println(img.Bounds().Size(), img.NRGBAAt(1, 1))

	// Excluded layers are skipped entirely.
	img = compose.Compose(res, image.Pt(8, 8), compose.Options{Exclude: []string{"hat"}})
	fmt.Println(img.Bounds().Size(), img.NRGBAAt(5, 5))
	// Output:
	// (4,4) {0 0 255 255}
	// (8,8) {255 0 0 255}
}

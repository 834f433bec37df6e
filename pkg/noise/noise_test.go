package noise

import (
	"bytes"
	"image"
	"image/color"
	"math/rand/v2"
	"testing"
)

func testImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// Include the extremes so clamping is exercised.
			v := uint8((x*37 + y*11) % 256)
			if x == 0 {
				v = 0
			}
			if x == w-1 {
				v = 255
			}
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: 255 - v, B: v / 2, A: uint8(y * 40 % 256)})
		}
	}
	return img
}

func TestApplyZeroIsIdentity(t *testing.T) {
	src := testImage(16, 8)
	out := Apply(src, 0, rand.New(rand.NewPCG(1, 2)))
	if !bytes.Equal(out.Pix, src.Pix) {
		t.Fatal("Apply with intensity 0 should be byte-identical to the input")
	}
	if &out.Pix[0] == &src.Pix[0] {
		t.Fatal("Apply should return a new image, not the input buffer")
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	src := testImage(16, 8)
	before := append([]byte(nil), src.Pix...)
	_ = Apply(src, 0.5, rand.New(rand.NewPCG(3, 4)))
	if !bytes.Equal(before, src.Pix) {
		t.Fatal("Apply mutated its input")
	}
}

func TestApplyBounds(t *testing.T) {
	src := testImage(32, 16)
	for _, intensity := range []float64{0.01, 0.1, 0.25, 0.4, 0.5} {
		rng := rand.New(rand.NewPCG(7, uint64(intensity*1000)))
		out := Apply(src, intensity, rng)
		limit := int(intensity*255/2 + 0.5)
		for i := 0; i < len(src.Pix); i++ {
			got, orig := int(out.Pix[i]), int(src.Pix[i])
			if i%4 == 3 {
				if got != orig {
					t.Fatalf("intensity %v: alpha changed at %d: %d -> %d", intensity, i, orig, got)
				}
				continue
			}
			if d := got - orig; d > limit || d < -limit {
				t.Fatalf("intensity %v: offset %d exceeds %d", intensity, d, limit)
			}
		}
	}
}

func TestApplyChannelsIndependent(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for i := range img.Pix {
		img.Pix[i] = 128
	}
	out := Apply(img, 0.5, rand.New(rand.NewPCG(11, 12)))

	differ := 0
	for i := 0; i < len(out.Pix); i += 4 {
		if out.Pix[i] != out.Pix[i+1] || out.Pix[i+1] != out.Pix[i+2] {
			differ++
		}
	}
	if differ == 0 {
		t.Error("expected independent offsets per channel, every pixel stayed gray")
	}
}

func TestApplyDeterministicWithSeed(t *testing.T) {
	src := testImage(8, 8)
	a := Apply(src, 0.3, rand.New(rand.NewPCG(42, 42^0xdeadbeef)))
	b := Apply(src, 0.3, rand.New(rand.NewPCG(42, 42^0xdeadbeef)))
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Error("same seed should give the same perturbation")
	}
}

func TestApplySubImage(t *testing.T) {
	src := testImage(16, 16)
	sub := src.SubImage(image.Rect(4, 4, 12, 10)).(*image.NRGBA)
	out := Apply(sub, 0, nil)
	if out.Bounds() != image.Rect(0, 0, 8, 6) {
		t.Fatalf("bounds = %v, want origin-based 8x6", out.Bounds())
	}
	if out.NRGBAAt(0, 0) != src.NRGBAAt(4, 4) {
		t.Errorf("pixel (0,0) = %v, want %v", out.NRGBAAt(0, 0), src.NRGBAAt(4, 4))
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-1, 0},
		{0, 0},
		{0.25, 0.25},
		{0.5, 0.5},
		{3, 0.5},
	}
	for _, tt := range tests {
		if got := Clamp(tt.in); got != tt.want {
			t.Errorf("Clamp(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

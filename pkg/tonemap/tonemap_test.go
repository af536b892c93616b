package tonemap

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/abworrall/exposure-fusion/pkg/emath"
	"github.com/abworrall/exposure-fusion/pkg/estack"
	"github.com/abworrall/exposure-fusion/pkg/fusion"
)

// A colourful scene spanning about eight stops.
func scene(w, h int) *emath.FloatImage {
	img := emath.NewFloatImage(w, h, 3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := math.Exp2(-6 + 8*float64(x)/float64(w-1))
			px := img.Pixel(x, y)
			px[0], px[1], px[2] = v, v*float64(y+1)/float64(h), v*0.3
		}
	}
	return img
}

func TestExpand(t *testing.T) {
	got, err := Expand("all")
	if err != nil || !cmp.Equal(got, Names) {
		t.Errorf("Expand(all) = %v, %v", got, err)
	}

	got, err = Expand("durand")
	if err != nil || !cmp.Equal(got, []string{"durand"}) {
		t.Errorf("Expand(durand) = %v, %v", got, err)
	}

	if _, err := Expand("fattal"); err == nil {
		t.Errorf("unknown tonemapper accepted")
	}
	if _, err := Setup("fattal", scene(4, 4), fusion.NewConfig()); err == nil {
		t.Errorf("unknown tonemapper set up")
	}
}

func TestPerform(t *testing.T) {
	img := scene(24, 12)

	for _, name := range []string{"fusion", "linear"} {
		t.Run(name, func(t *testing.T) {
			out, err := Perform(name, img, fusion.NewConfig())
			if err != nil {
				t.Fatalf("Perform: %v", err)
			}
			if out.Bounds() != img.Bounds() {
				t.Errorf("output bounds %v, wanted %v", out.Bounds(), img.Bounds())
			}
		})
	}
}

func TestFusionTMOBrightens(t *testing.T) {
	img := scene(24, 12)

	op := NewFusionTMO(img, fusion.NewConfig())
	out := op.Perform()
	if op.Err != nil {
		t.Fatalf("Perform: %v", op.Err)
	}

	// The dark end of the scene should come up well above its linear value
	r, _, _, _ := out.At(0, 6).RGBA()
	if linear := img.Get(0, 6, 0) * 0xFFFF; float64(r) <= linear {
		t.Errorf("dark pixel came out %d, no brighter than linear %f", r, linear)
	}
}

func TestFusionTMOError(t *testing.T) {
	op := NewFusionTMO(emath.NewFloatImage(4, 4, 3), fusion.NewConfig())
	out := op.Perform()

	if !errors.Is(op.Err, estack.ErrEmptyImage) {
		t.Errorf("black input gave err %v", op.Err)
	}
	if out == nil || out.Bounds().Dx() != 4 {
		t.Errorf("failed Perform should still return an image, got %v", out)
	}
}

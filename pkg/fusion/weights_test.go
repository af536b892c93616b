package fusion

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/abworrall/exposure-fusion/pkg/emath"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func imageFromPixels(w, h int, px ...[]float64) *emath.FloatImage {
	img := emath.NewFloatImage(w, h, len(px[0]))
	for i, p := range px {
		copy(img.Pixel(i%w, i/w), p)
	}
	return img
}

func TestWeightTerms(t *testing.T) {
	expScale := 1.0 / (2 * DefaultSigma * DefaultSigma)

	if got := exposednessOf([]float64{0.5, 0.5, 0.5}, expScale); got != 1.0 {
		t.Errorf("exposedness of mid-grey = %f, wanted 1", got)
	}
	if got, want := exposednessOf([]float64{0.2}, expScale), math.Exp(-0.09*12.5); math.Abs(got-want) > 1e-12 {
		t.Errorf("exposedness of 0.2 = %f, wanted %f", got, want)
	}

	if got := saturationOf([]float64{0.4, 0.4, 0.4}); got != 0 {
		t.Errorf("saturation of grey = %f, wanted 0", got)
	}
	if got, want := saturationOf([]float64{0, 0.5, 1}), math.Sqrt(1.0/6.0); math.Abs(got-want) > 1e-12 {
		t.Errorf("saturation = %f, wanted %f", got, want)
	}
	if got := saturationOf([]float64{0.7}); got != 0 {
		t.Errorf("saturation of single channel = %f, wanted 0", got)
	}

	// A single bright pixel in the middle of a dark 3x3
	lum := emath.NewFloatImage(3, 3, 1)
	lum.Set(1, 1, 0, 1.0)
	wantContrast := []float64{
		0, 1, 0,
		1, 4, 1,
		0, 1, 0,
	}
	gotContrast := []float64{}
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			gotContrast = append(gotContrast, contrastAt(lum, x, y))
		}
	}
	if diff := cmp.Diff(wantContrast, gotContrast, approx); diff != "" {
		t.Errorf("contrast mismatch (-want +got):\n%s", diff)
	}
}

func TestWeightFilterExponents(t *testing.T) {
	img := imageFromPixels(2, 1, []float64{0.5, 0.5, 0.5}, []float64{0, 0.5, 1})
	lum := emath.Luminance(img, nil, 1)

	// Edges replicate, so both pixels see the same single neighbour
	dLum := 0.5 - (0.7152*0.5 + 0.0722)

	tests := []struct {
		name string
		w    Weights
		want []float64
	}{
		{"default", DefaultWeights(), []float64{0, dLum * math.Exp(-6.25) * math.Sqrt(1.0/6.0)}},
		{"contrast only", Weights{Contrast: 1}, []float64{dLum, dLum}},
		{"all off", Weights{}, []float64{1, 1}},
		{"saturation only", Weights{Saturation: 1}, []float64{0, math.Sqrt(1.0 / 6.0)}},
		{"exposedness squared", Weights{Exposedness: 2}, []float64{1, math.Exp(-2 * 2 * 0.25 * 12.5)}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			wf := NewWeightFilter(tc.w)
			got, err := wf.Process(lum, img, nil)
			if err != nil {
				t.Fatalf("Process: %v", err)
			}
			if diff := cmp.Diff(tc.want, got.Pix, approx); diff != "" {
				t.Errorf("weights mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWeightFilterUpdate(t *testing.T) {
	img := imageFromPixels(1, 1, []float64{0.2, 0.2, 0.2})
	lum := emath.Luminance(img, nil, 1)

	wf := NewWeightFilter(Weights{Exposedness: 1})
	before, _ := wf.Process(lum, img, nil)
	saved := before.Copy()

	wf.Update(0, 0, 0)
	if got := wf.Weights(); got != (Weights{}) {
		t.Errorf("Weights() after Update = %s", got)
	}
	after, _ := wf.Process(lum, img, nil)

	if diff := cmp.Diff(saved.Pix, before.Pix); diff != "" {
		t.Errorf("Update changed an earlier map (-want +got):\n%s", diff)
	}
	if after.Pix[0] != 1.0 {
		t.Errorf("all exponents zero gave weight %f, wanted 1", after.Pix[0])
	}
}

func TestWeightFilterGeometry(t *testing.T) {
	img := emath.NewFloatImage(4, 4, 3)
	wf := NewWeightFilter(DefaultWeights())

	if _, err := wf.Process(emath.NewFloatImage(4, 4, 3), img, nil); !errors.Is(err, ErrGeometryMismatch) {
		t.Errorf("3 channel luminance: got err %v", err)
	}
	if _, err := wf.Process(emath.NewFloatImage(3, 4, 1), img, nil); !errors.Is(err, ErrGeometryMismatch) {
		t.Errorf("wrong sized luminance: got err %v", err)
	}
}

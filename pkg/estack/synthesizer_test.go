package estack

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/abworrall/exposure-fusion/pkg/emath"
)

func uniform(w, h, c int, v float64) *emath.FloatImage {
	img := emath.NewFloatImage(w, h, c)
	img.Fill(v)
	return img
}

// A horizontal ramp in log space, from 2^lo to 2^hi.
func logRamp(w, h int, lo, hi float64) *emath.FloatImage {
	img := emath.NewFloatImage(w, h, 3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			stops := lo + (hi-lo)*float64(x)/float64(w-1)
			v := math.Exp2(stops)
			img.Set(x, y, 0, v)
			img.Set(x, y, 1, v)
			img.Set(x, y, 2, v)
		}
	}
	return img
}

func mean(img *emath.FloatImage) float64 {
	sum := 0.0
	for _, v := range img.Pix {
		sum += v
	}
	return sum / float64(len(img.Pix))
}

func TestExposureValuesUniform(t *testing.T) {
	s := NewSynthesizer()
	got, err := s.ExposureValues(uniform(4, 4, 3, 0.25))
	if err != nil {
		t.Fatalf("ExposureValues: %v", err)
	}

	// 0.25 is two stops below 1.0, so one stop up puts it on mid-grey
	want := []float64{1, 2}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("fstops mismatch (-want +got):\n%s", diff)
	}
}

func TestExposureValuesSmallImages(t *testing.T) {
	tests := []struct {
		name string
		img  *emath.FloatImage
		want []float64
	}{
		{"1x1", uniform(1, 1, 3, 0.25), []float64{1, 2}},
		{"7x7", uniform(7, 7, 1, 0.25), []float64{1, 2}},
		{"2x1 ramp", logRamp(2, 1, -4, -2), []float64{1, 2, 3}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NewSynthesizer().ExposureValues(tc.img)
			if err != nil {
				t.Fatalf("ExposureValues: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("fstops mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExposureValuesRange(t *testing.T) {
	s := NewSynthesizer()
	got, err := s.ExposureValues(logRamp(64, 4, -8, 2))
	if err != nil {
		t.Fatalf("ExposureValues: %v", err)
	}

	if len(got) < 4 {
		t.Fatalf("ten stops of range gave only %d exposures: %v", len(got), got)
	}
	for i := 1; i < len(got); i++ {
		if got[i] <= got[i-1] {
			t.Errorf("fstops not ascending: %v", got)
		}
	}
}

func TestExposureValuesMaxExposures(t *testing.T) {
	s := NewSynthesizer()
	s.MaxExposures = 3
	got, err := s.ExposureValues(logRamp(64, 4, -20, 10))
	if err != nil {
		t.Fatalf("ExposureValues: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("got %d exposures, wanted 3: %v", len(got), got)
	}
}

func TestSpread(t *testing.T) {
	got := spread([]float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, 4)
	want := []float64{0, 3, 6, 9}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("spread mismatch (-want +got):\n%s", diff)
	}
}

func TestEmptyImage(t *testing.T) {
	s := NewSynthesizer()
	tests := []struct {
		name string
		img  *emath.FloatImage
	}{
		{"nil", nil},
		{"zero size", emath.NewFloatImage(0, 0, 3)},
		{"black", uniform(3, 3, 3, 0)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := s.Synthesize(tc.img); !errors.Is(err, ErrEmptyImage) {
				t.Errorf("got err %v, wanted ErrEmptyImage", err)
			}
		})
	}
}

func TestSynthesizeOrdering(t *testing.T) {
	s := NewSynthesizer()
	img := logRamp(32, 4, -6, 1)
	stack, err := s.Synthesize(img)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if len(stack) < 2 {
		t.Fatalf("got %d exposures, wanted at least 2", len(stack))
	}

	for i, e := range stack {
		if !e.SameGeometry(img) {
			t.Errorf("exposure %d is %s, wanted %s", i, e, img)
		}
		if e.Min() < 0 || e.Max() > 1 {
			t.Errorf("exposure %d has values outside [0,1]: [%f,%f]", i, e.Min(), e.Max())
		}
		if i > 0 && mean(e) < mean(stack[i-1]) {
			t.Errorf("exposure %d (mean %f) darker than exposure %d (mean %f)", i, mean(e), i-1, mean(stack[i-1]))
		}
	}
}

func TestExposeGamma(t *testing.T) {
	opt := cmpopts.EquateApprox(0, 1e-9)

	s := NewSynthesizer()
	s.Gamma = 1.0
	got := s.Expose(uniform(2, 2, 3, 0.25), 1, nil)
	if diff := cmp.Diff(uniform(2, 2, 3, 0.5).Pix, got.Pix, opt); diff != "" {
		t.Errorf("gamma 1 exposure mismatch (-want +got):\n%s", diff)
	}

	s.Gamma = 2.0
	got = s.Expose(uniform(2, 2, 1, 0.25), 0, got)
	if diff := cmp.Diff(uniform(2, 2, 1, 0.5).Pix, got.Pix, opt); diff != "" {
		t.Errorf("gamma 2 exposure mismatch (-want +got):\n%s", diff)
	}

	// Clipped highlights stay at 1
	s.Gamma = 0
	got = s.Expose(uniform(2, 2, 3, 0.25), 4, nil)
	if diff := cmp.Diff(uniform(2, 2, 3, 1.0).Pix, got.Pix, cmpopts.EquateApprox(0, 1e-6)); diff != "" {
		t.Errorf("sRGB clipped exposure mismatch (-want +got):\n%s", diff)
	}
}

package emath

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func imageFromPixels(w, h int, px ...[]float64) *FloatImage {
	img := NewFloatImage(w, h, len(px[0]))
	for i, p := range px {
		copy(img.Pixel(i%w, i/w), p)
	}
	return img
}

func TestLuminance(t *testing.T) {
	tests := []struct {
		name string
		img  *FloatImage
		want []float64
	}{
		{"rgb", imageFromPixels(3, 1, []float64{1, 0, 0}, []float64{0, 1, 0}, []float64{0, 0, 1}), []float64{0.2126, 0.7152, 0.0722}},
		{"grey", imageFromPixels(2, 1, []float64{0.3}, []float64{0.9}), []float64{0.3, 0.9}},
		{"two channel", imageFromPixels(1, 1, []float64{0.2, 0.4}), []float64{0.3}},
		{"rgba", imageFromPixels(1, 1, []float64{1, 1, 1, 0}), []float64{1}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Luminance(tc.img, nil, 1)
			if got.Channels != 1 || !got.SameSize(tc.img) {
				t.Fatalf("got %s for %s", got, tc.img)
			}
			if diff := cmp.Diff(tc.want, got.Pix, approx); diff != "" {
				t.Errorf("luminance mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLuminanceReusesBuffer(t *testing.T) {
	img := NewFloatImage(4, 4, 3)
	buf := NewFloatImage(4, 4, 1)
	if got := Luminance(img, buf, 0); got != buf {
		t.Errorf("matching buffer was not reused")
	}
	if got := Luminance(img, NewFloatImage(2, 2, 1), 0); !got.SameSize(img) {
		t.Errorf("undersized buffer was not replaced, got %s", got)
	}
}

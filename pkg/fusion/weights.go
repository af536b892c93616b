package fusion

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/abworrall/exposure-fusion/pkg/emath"
)

// A WeightFilter turns an image (plus its luminance) into a single channel
// map of how "good" each pixel is, combining three measures:
//
//   - contrast: magnitude of the Laplacian of the luminance
//   - well-exposedness: how close each channel is to mid-grey, via a Gaussian
//   - saturation: std-dev across the channels of the pixel
//
// Each measure is raised to its exponent from Weights, and the three are
// multiplied together.
type WeightFilter struct {
	mu      sync.Mutex
	weights Weights
	Sigma   float64
	Workers int
}

func NewWeightFilter(w Weights) *WeightFilter {
	return &WeightFilter{weights: w, Sigma: DefaultSigma}
}

// Update swaps in new exponents for subsequent calls to Process.
func (wf *WeightFilter) Update(wC, wE, wS float64) {
	wf.mu.Lock()
	defer wf.mu.Unlock()
	wf.weights = Weights{Contrast: wC, Exposedness: wE, Saturation: wS}
}

func (wf *WeightFilter) Weights() Weights {
	wf.mu.Lock()
	defer wf.mu.Unlock()
	return wf.weights
}

// Process computes the weight map for img into out, and returns it.
func (wf *WeightFilter) Process(lum, img, out *emath.FloatImage) (*emath.FloatImage, error) {
	if lum.Channels != 1 || !lum.SameSize(img) {
		return out, fmt.Errorf("weights for %s from luminance %s: %w", img, lum, ErrGeometryMismatch)
	}

	w := wf.Weights()
	sigma := wf.Sigma
	if sigma <= 0 {
		sigma = DefaultSigma
	}
	expScale := 1.0 / (2.0 * sigma * sigma) // 12.5 for the default sigma

	out = emath.EnsureGeometry(out, img.Width, img.Height, 1)

	emath.ParallelRows(img.Height, wf.Workers, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < img.Width; x++ {
				px := img.Pixel(x, y)

				pCon := math.Pow(contrastAt(lum, x, y), w.Contrast)
				pExp := math.Pow(exposednessOf(px, expScale), w.Exposedness)
				pSat := math.Pow(saturationOf(px), w.Saturation)

				out.Set(x, y, 0, pCon*pExp*pSat)
			}
		}
	})

	return out, nil
}

// contrastAt is the absolute response of a 4-neighbour Laplacian, with the
// edge pixels replicated.
func contrastAt(lum *emath.FloatImage, x, y int) float64 {
	l := lum.Get(x, y, 0)
	sum := lum.GetClamped(x-1, y, 0) + lum.GetClamped(x+1, y, 0)
	sum += lum.GetClamped(x, y-1, 0) + lum.GetClamped(x, y+1, 0)
	return math.Abs(sum - 4.0*l)
}

func exposednessOf(px []float64, expScale float64) float64 {
	e := 1.0
	for _, v := range px {
		d := v - 0.5
		e *= math.Exp(-d * d * expScale)
	}
	return e
}

func saturationOf(px []float64) float64 {
	if len(px) < 2 {
		return 0
	}
	_, std := stat.PopMeanStdDev(px, nil)
	return std
}

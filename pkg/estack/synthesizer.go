// Package estack builds virtual exposure stacks: a set of LDR images, one
// per f-stop, sampled out of a single HDR image. This is what lets exposure
// fusion act as a tone mapper for images that were never bracketed.
package estack

import (
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/codahale/hdrhistogram"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/abworrall/exposure-fusion/pkg/emath"
)

var ErrEmptyImage = errors.New("image has no positive luminance")

const (
	// Log2 luminance is recorded in hundredths of a stop, offset so the
	// histogram only ever sees positive values.
	stopsPerUnit = 100
	stopOffset   = 64

	DefaultLowPercentile  = 1.0
	DefaultHighPercentile = 99.0
	DefaultMaxExposures   = 16
)

// A Synthesizer picks a range of f-stops that spans the bulk of an HDR
// image's luminance, and renders one clamped, gamma encoded exposure per
// stop.
type Synthesizer struct {
	Verbosity int
	Workers   int

	LowPercentile  float64 // the darkest luminance worth exposing for, as a percentile
	HighPercentile float64 // the brightest
	Step           int     // stops between exposures
	MaxExposures   int

	// Gamma, if set, encodes exposures with a plain 1/Gamma power; otherwise
	// the sRGB transfer function is used.
	Gamma float64
}

func NewSynthesizer() *Synthesizer {
	return &Synthesizer{
		LowPercentile:  DefaultLowPercentile,
		HighPercentile: DefaultHighPercentile,
		Step:           1,
		MaxExposures:   DefaultMaxExposures,
	}
}

func (s *Synthesizer) String() string {
	enc := "sRGB"
	if s.Gamma > 0 {
		enc = fmt.Sprintf("gamma %.2f", s.Gamma)
	}
	return fmt.Sprintf("Synthesizer[p%.0f-p%.0f, step %d, %s]", s.LowPercentile, s.HighPercentile, s.Step, enc)
}

// ExposureValues returns the f-stops to render, darkest first. Exposure
// f scales the image by 2^f. There are always at least two.
func (s *Synthesizer) ExposureValues(img *emath.FloatImage) ([]float64, error) {
	if img == nil || len(img.Pix) == 0 {
		return nil, ErrEmptyImage
	}

	lum := emath.Luminance(img, nil, s.Workers)

	h := hdrhistogram.New(1, 2*stopOffset*stopsPerUnit, 5)
	for _, l := range lum.Pix {
		if l <= 0 || math.IsInf(l, 0) || math.IsNaN(l) {
			continue
		}
		stops := math.Max(-stopOffset+0.01, math.Min(stopOffset-0.01, math.Log2(l)))
		if err := h.RecordValue(int64(math.Round((stops + stopOffset) * stopsPerUnit))); err != nil {
			return nil, fmt.Errorf("luminance histogram: %v", err)
		}
	}
	if h.TotalCount() == 0 {
		return nil, ErrEmptyImage
	}

	toStops := func(v int64) float64 { return float64(v)/stopsPerUnit - stopOffset }
	// On small images a low quantile can round down to an empty bucket below
	// the data, so keep both ends inside what was recorded.
	lo := toStops(max(h.ValueAtQuantile(s.LowPercentile), h.Min()))
	hi := toStops(min(h.ValueAtQuantile(s.HighPercentile), h.Max()))

	// An exposure of f puts luminance 2^p at 2^(p+f); we want each end of the
	// range to land on mid-grey, 2^-1.
	fMin := math.Floor(-1 - hi)
	fMax := math.Ceil(-1 - lo)

	step := s.Step
	if step < 1 {
		step = 1
	}
	if fMax < fMin+float64(step) {
		fMax = fMin + float64(step)
	}

	fstops := []float64{}
	for f := fMin; f <= fMax; f += float64(step) {
		fstops = append(fstops, f)
	}
	if s.MaxExposures >= 2 && len(fstops) > s.MaxExposures {
		fstops = spread(fstops, s.MaxExposures)
	}

	if s.Verbosity > 0 {
		log.Printf("%s: luminance p%.0f=%.2f, p%.0f=%.2f stops; exposures %v",
			s, s.LowPercentile, lo, s.HighPercentile, hi, fstops)
	}

	return fstops, nil
}

// spread picks n values from vals, evenly, keeping both ends.
func spread(vals []float64, n int) []float64 {
	ret := make([]float64, n)
	for i := range ret {
		ret[i] = vals[i*(len(vals)-1)/(n-1)]
	}
	return ret
}

// Synthesize implements fusion.Synthesizer, returning exposures ordered
// darkest to brightest.
func (s *Synthesizer) Synthesize(img *emath.FloatImage) ([]*emath.FloatImage, error) {
	fstops, err := s.ExposureValues(img)
	if err != nil {
		return nil, err
	}

	stack := make([]*emath.FloatImage, len(fstops))
	for i, f := range fstops {
		stack[i] = s.Expose(img, f, nil)
	}

	return stack, nil
}

// Expose renders img as if shot f stops brighter: scaled by 2^f, clamped to
// [0,1], and encoded. The result goes into out, reallocated if needed.
func (s *Synthesizer) Expose(img *emath.FloatImage, f float64, out *emath.FloatImage) *emath.FloatImage {
	out = emath.EnsureGeometry(out, img.Width, img.Height, img.Channels)
	scale := math.Exp2(f)
	nc := img.Channels

	emath.ParallelRows(img.Height, s.Workers, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			src, dst := img.Row(y), out.Row(y)
			for i := 0; i < len(src); i += nc {
				s.encodePixel(src[i:i+nc], dst[i:i+nc], scale)
			}
		}
	})

	return out
}

func (s *Synthesizer) encodePixel(src, dst []float64, scale float64) {
	for c := range src {
		dst[c] = emath.Clamp01(src[c] * scale)
	}

	if s.Gamma > 0 {
		inv := 1.0 / s.Gamma
		for c := range dst {
			dst[c] = math.Pow(dst[c], inv)
		}
		return
	}

	c := 0
	for ; c+3 <= len(dst); c += 3 {
		col := colorful.LinearRgb(dst[c], dst[c+1], dst[c+2])
		dst[c], dst[c+1], dst[c+2] = col.R, col.G, col.B
	}
	for ; c < len(dst); c++ {
		dst[c] = colorful.LinearRgb(dst[c], 0, 0).R
	}
}

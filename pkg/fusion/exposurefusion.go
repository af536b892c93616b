// Package fusion implements exposure fusion (Mertens, Kautz & Van Reeth):
// blending a stack of differently exposed images into one well exposed image
// by weighting every pixel on its contrast, saturation and well-exposedness,
// and doing the blend across a Laplacian pyramid so the seams don't show.
package fusion

import (
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/abworrall/exposure-fusion/pkg/emath"
	"github.com/abworrall/exposure-fusion/pkg/estack"
	"github.com/abworrall/exposure-fusion/pkg/pyramid"
)

var (
	ErrGeometryMismatch = errors.New("geometry mismatch")
	ErrNoSynthesizer    = errors.New("single image given, but no stack synthesizer")
)

// An Operator is anything that can tone map a stack of images down to one.
type Operator interface {
	Process(stack []*emath.FloatImage, out *emath.FloatImage) (*emath.FloatImage, error)
}

// A Synthesizer makes a virtual exposure stack out of a single (HDR) image.
type Synthesizer interface {
	Synthesize(img *emath.FloatImage) ([]*emath.FloatImage, error)
}

// SynthesizerFunc lets a plain func act as a Synthesizer.
type SynthesizerFunc func(img *emath.FloatImage) ([]*emath.FloatImage, error)

func (f SynthesizerFunc) Synthesize(img *emath.FloatImage) ([]*emath.FloatImage, error) { return f(img) }

// The pyramids used for a blend. They depend on the geometry of the stack,
// so they're swapped out wholesale when that changes.
type pyramids struct {
	weight *pyramid.Pyramid // gaussian, 1 channel
	image  *pyramid.Pyramid // laplacian
	out    *pyramid.Pyramid // laplacian, the accumulator
}

func newPyramids(width, height, channels, limitLevel int) *pyramids {
	return &pyramids{
		weight: pyramid.New(width, height, 1, false, limitLevel),
		image:  pyramid.New(width, height, channels, true, limitLevel),
		out:    pyramid.New(width, height, channels, true, limitLevel),
	}
}

func (p *pyramids) fits(width, height, channels, limitLevel int) bool {
	return p != nil && p.image.Fits(width, height, channels, limitLevel)
}

// ExposureFusion is the exposure fusion tone mapping operator. It keeps
// scratch buffers between calls, so it is not safe for concurrent use; make
// one per goroutine.
type ExposureFusion struct {
	Config
	Synthesizer Synthesizer

	// OnNormalizedWeights, if set, is called with each stack image's weight
	// map after normalization. The map is scratch space, copy it to keep it.
	OnNormalizedWeights func(i int, w *emath.FloatImage)

	weights *WeightFilter

	lum  *emath.FloatImage // luminance of the current image
	raw  *emath.FloatImage // weight map of the current image
	acc  *emath.FloatImage // sum of all the weight maps
	pyrs *pyramids
}

// An Option tweaks an ExposureFusion at construction time.
type Option func(*ExposureFusion)

func WithConfig(c Config) Option { return func(ef *ExposureFusion) { ef.Config = c } }

func WithSynthesizer(s Synthesizer) Option {
	return func(ef *ExposureFusion) { ef.Synthesizer = s }
}

func WithLimitLevel(n int) Option { return func(ef *ExposureFusion) { ef.LimitLevel = n } }

// New returns an ExposureFusion using the given weight exponents. The
// Weights field of any config passed via WithConfig is overridden by w.
// Unless WithSynthesizer says otherwise, single images are expanded into a
// stack by an estack.Synthesizer with its default settings.
func New(w Weights, opts ...Option) *ExposureFusion {
	ef := &ExposureFusion{Config: NewConfig()}
	for _, opt := range opts {
		opt(ef)
	}
	ef.Weights = w
	ef.weights = NewWeightFilter(w)

	if ef.Synthesizer == nil {
		synth := estack.NewSynthesizer()
		synth.Verbosity, synth.Workers = ef.Verbosity, ef.Workers
		ef.Synthesizer = synth
	}
	return ef
}

func NewDefault(opts ...Option) *ExposureFusion { return New(DefaultWeights(), opts...) }

// Update sets new weight exponents for subsequent fusions.
func (ef *ExposureFusion) Update(wC, wE, wS float64) {
	ef.Weights = Weights{Contrast: wC, Exposedness: wE, Saturation: wS}
	ef.weights.Update(wC, wE, wS)
}

// Fuse tone maps a single image: a virtual exposure stack is synthesized
// from it, and then fused.
func (ef *ExposureFusion) Fuse(img, out *emath.FloatImage) (*emath.FloatImage, error) {
	if ef.Synthesizer == nil {
		return out, ErrNoSynthesizer
	}

	stack, err := ef.Synthesizer.Synthesize(img)
	if err != nil {
		return out, fmt.Errorf("synthesize exposures from %s: %w", img, err)
	}
	if ef.Verbosity > 0 {
		log.Printf("ExposureFusion: synthesized %d exposures from %s", len(stack), img)
	}

	return ef.FuseStack(stack, out)
}

// Process implements Operator. A single image is treated as per Fuse, more
// than one as per FuseStack.
func (ef *ExposureFusion) Process(stack []*emath.FloatImage, out *emath.FloatImage) (*emath.FloatImage, error) {
	if len(stack) == 1 {
		return ef.Fuse(stack[0], out)
	}
	return ef.FuseStack(stack, out)
}

// FuseStack fuses the exposures in stack. The result is written into out
// (reallocated if it has the wrong geometry), and normalized so that its
// brightest value is 1.0. Stacks of fewer than two images are left alone:
// out is returned as-is. If the images don't all share the same geometry,
// out is returned untouched along with ErrGeometryMismatch.
func (ef *ExposureFusion) FuseStack(stack []*emath.FloatImage, out *emath.FloatImage) (*emath.FloatImage, error) {
	blended, err := ef.blend(stack, out)
	if err != nil || blended == nil {
		return out, err
	}

	if maxVal := blended.Max(); maxVal > 0 {
		blended.Apply(func(v float64) float64 { return v / maxVal })
	}
	return blended, nil
}

// Blend is FuseStack without the final normalization; values are clamped
// at zero, but not scaled. A stack of fewer than two images returns out as-is.
func (ef *ExposureFusion) Blend(stack []*emath.FloatImage, out *emath.FloatImage) (*emath.FloatImage, error) {
	blended, err := ef.blend(stack, out)
	if err != nil || blended == nil {
		return out, err
	}
	return blended, nil
}

// blend returns nil, nil for a degenerate stack.
func (ef *ExposureFusion) blend(stack []*emath.FloatImage, out *emath.FloatImage) (*emath.FloatImage, error) {
	n := len(stack)
	if n < 2 {
		if ef.Verbosity > 0 {
			log.Printf("ExposureFusion: %d image(s) in stack, nothing to fuse", n)
		}
		return nil, nil
	}
	if err := checkStack(stack); err != nil {
		return nil, err
	}

	width, height, channels := stack[0].Width, stack[0].Height, stack[0].Channels
	ef.weights.Sigma = ef.Sigma
	ef.weights.Workers = ef.Workers
	ef.weights.Update(ef.Weights.Contrast, ef.Weights.Exposedness, ef.Weights.Saturation)

	// Pass 1: sum the raw weights over the stack
	ef.acc = emath.EnsureGeometry(ef.acc, width, height, 1)
	ef.acc.Fill(0)

	for j, img := range stack {
		if ef.Verbosity > 1 {
			log.Printf("ExposureFusion: weighing image %d", j)
		}
		if err := ef.rawWeights(img); err != nil {
			return nil, err
		}
		ef.acc.Add(ef.raw)
	}

	// No weight anywhere in the stack; stops a 0/0 in the normalization.
	ef.acc.Apply(ifNonPositiveGetOne)

	if ef.Verbosity > 0 {
		log.Printf("ExposureFusion: blending %d images of %dx%dx%d (%s, limitlevel %d)",
			n, width, height, channels, ef.weights.Weights(), ef.LimitLevel)
	}

	if !ef.pyrs.fits(width, height, channels, ef.LimitLevel) {
		ef.pyrs = newPyramids(width, height, channels, ef.LimitLevel)
	}
	pW, pI, pOut := ef.pyrs.weight, ef.pyrs.image, ef.pyrs.out
	pOut.SetValue(0.0)

	// Pass 2: normalize the weights, and accumulate the weighted image pyramids
	for j, img := range stack {
		if err := ef.rawWeights(img); err != nil {
			return nil, err
		}
		ef.raw.Div(ef.acc)

		if ef.OnNormalizedWeights != nil {
			ef.OnNormalizedWeights(j, ef.raw)
		}
		if ef.DumpWeights {
			name := fmt.Sprintf("weights-%02d.png", j)
			if err := ef.raw.DumpPNG(fmt.Sprintf("weights %d", j), name); err != nil {
				log.Printf("ExposureFusion: dumping %s: %v", name, err)
			}
		}

		if err := pW.Update(ef.raw); err != nil {
			return nil, err
		}
		if err := pI.Update(img); err != nil {
			return nil, err
		}
		if err := pI.Mul(pW); err != nil {
			return nil, err
		}
		if err := pOut.Add(pI); err != nil {
			return nil, err
		}
	}

	out = pOut.Reconstruct(out)
	out.Apply(setNegToZero)

	return out, nil
}

func (ef *ExposureFusion) rawWeights(img *emath.FloatImage) error {
	ef.lum = emath.Luminance(img, ef.lum, ef.Workers)
	raw, err := ef.weights.Process(ef.lum, img, ef.raw)
	ef.raw = raw
	return err
}

func checkStack(stack []*emath.FloatImage) error {
	first := stack[0]
	if first == nil {
		return fmt.Errorf("stack image 0 is nil: %w", ErrGeometryMismatch)
	}
	for i, img := range stack[1:] {
		if img == nil || !img.SameGeometry(first) {
			return fmt.Errorf("stack image %d (%v) doesn't match image 0 (%s): %w", i+1, img, first, ErrGeometryMismatch)
		}
	}
	return nil
}

func ifNonPositiveGetOne(x float64) float64 {
	if x > 0 {
		return x
	}
	return 1.0
}

func setNegToZero(x float64) float64 { return math.Max(x, 0) }

// Execute fuses a single image with the default weights and synthesizer.
func Execute(img, out *emath.FloatImage) (*emath.FloatImage, error) {
	return NewDefault().Fuse(img, out)
}

// ExecuteStack fuses a stack with the default weights.
func ExecuteStack(stack []*emath.FloatImage, out *emath.FloatImage) (*emath.FloatImage, error) {
	return NewDefault().FuseStack(stack, out)
}

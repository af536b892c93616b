// Package pyramid implements Gaussian and Laplacian image pyramids, with the
// handful of operations needed to blend images across scales: build from an
// image, multiply and add level by level, fill, and collapse back down to a
// single image.
package pyramid

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/abworrall/exposure-fusion/pkg/emath"
)

var ErrGeometryMismatch = errors.New("pyramid geometry mismatch")

// A Pyramid is an ordered set of levels; level 0 is at full resolution, and
// each level after that is half the size (rounded up) of the one before.
//
// A Gaussian pyramid holds successively blurred+halved copies of the
// source. A Laplacian pyramid holds, at every level but the last, the
// difference between that Gaussian level and the upsampled Gaussian level
// above it; the last (coarsest) level holds the Gaussian level itself.
type Pyramid struct {
	Width      int
	Height     int
	Channels   int
	LimitLevel int

	laplacian bool
	levels    []*emath.FloatImage
	sampler   emath.Sampler
	scratch   *emath.FloatImage // upsampled level, reused
	next      *emath.FloatImage // Gaussian level k+1 while building a Laplacian pyramid
}

// MaxLevels is the depth of a full dyadic decomposition, i.e. the number of
// levels until the smaller side is down to a single pixel.
func MaxLevels(width, height int) int {
	m := width
	if height < m {
		m = height
	}
	if m < 1 {
		return 0
	}
	return bits.Len(uint(m)) // floor(log2(m)) + 1
}

// NumLevels is how many levels a pyramid over an image of this size will
// have: limitLevel is the number of the coarsest levels to drop from the
// full decomposition. There is always at least one level.
func NumLevels(width, height, limitLevel int) int {
	n := MaxLevels(width, height) - limitLevel
	if n < 1 {
		n = 1
	}
	return n
}

// New allocates a pyramid for images of the given geometry.
func New(width, height, channels int, laplacian bool, limitLevel int) *Pyramid {
	p := &Pyramid{
		Width:      width,
		Height:     height,
		Channels:   channels,
		LimitLevel: limitLevel,
		laplacian:  laplacian,
	}

	n := NumLevels(width, height, limitLevel)
	p.levels = make([]*emath.FloatImage, n)
	w, h := width, height
	for k := 0; k < n; k++ {
		p.levels[k] = emath.NewFloatImage(w, h, channels)
		w, h = emath.HalfSize(w, h)
	}

	return p
}

func (p *Pyramid) String() string {
	kind := "gaussian"
	if p.laplacian {
		kind = "laplacian"
	}
	return fmt.Sprintf("Pyramid[%s %dx%dx%d, %d levels]", kind, p.Width, p.Height, p.Channels, len(p.levels))
}

func (p *Pyramid) Laplacian() bool               { return p.laplacian }
func (p *Pyramid) NumLevels() int                { return len(p.levels) }
func (p *Pyramid) Level(k int) *emath.FloatImage { return p.levels[k] }
func (p *Pyramid) Levels() []*emath.FloatImage   { return p.levels }

// Fits reports whether the pyramid was built for this geometry and depth.
func (p *Pyramid) Fits(width, height, channels, limitLevel int) bool {
	return p != nil && p.Width == width && p.Height == height && p.Channels == channels && p.LimitLevel == limitLevel
}

// Update repopulates every level from img, which must match the pyramid's geometry.
func (p *Pyramid) Update(img *emath.FloatImage) error {
	if img.Width != p.Width || img.Height != p.Height || img.Channels != p.Channels {
		return fmt.Errorf("%s: update from %s: %w", p, img, ErrGeometryMismatch)
	}

	n := len(p.levels)
	copy(p.levels[0].Pix, img.Pix)

	if !p.laplacian {
		for k := 1; k < n; k++ {
			p.levels[k] = p.sampler.Down(p.levels[k-1], p.levels[k])
		}
		return nil
	}

	// Walk up the Gaussian levels, leaving each level holding its residual
	// against the upsampled level above. levels[k] holds G(k) on entry.
	for k := 0; k < n-1; k++ {
		p.next = p.sampler.Down(p.levels[k], p.next)
		cur := p.levels[k]
		p.scratch = p.sampler.Up(p.next, p.scratch, cur.Width, cur.Height)
		cur.Sub(p.scratch)
		copy(p.levels[k+1].Pix, p.next.Pix)
	}

	return nil
}

func (p *Pyramid) checkCompatible(other *Pyramid, op string) error {
	if len(p.levels) != len(other.levels) {
		return fmt.Errorf("%s: %s %s: %w", p, op, other, ErrGeometryMismatch)
	}
	for k := range p.levels {
		if !p.levels[k].SameSize(other.levels[k]) {
			return fmt.Errorf("%s: %s %s (level %d): %w", p, op, other, k, ErrGeometryMismatch)
		}
	}
	return nil
}

// Mul multiplies every level by the corresponding level of other. If other
// has a single channel it weights every channel of p (this is how a weight
// pyramid is applied to an image pyramid); otherwise channel counts must match.
func (p *Pyramid) Mul(other *Pyramid) error {
	if err := p.checkCompatible(other, "mul"); err != nil {
		return err
	}
	if other.Channels != 1 && other.Channels != p.Channels {
		return fmt.Errorf("%s: mul %s: %w", p, other, ErrGeometryMismatch)
	}

	for k, lvl := range p.levels {
		if other.Channels == 1 {
			lvl.MulChannels(other.levels[k])
		} else {
			lvl.Mul(other.levels[k])
		}
	}
	return nil
}

// Add accumulates other into p, level by level.
func (p *Pyramid) Add(other *Pyramid) error {
	if err := p.checkCompatible(other, "add"); err != nil {
		return err
	}
	if other.Channels != p.Channels {
		return fmt.Errorf("%s: add %s: %w", p, other, ErrGeometryMismatch)
	}

	for k, lvl := range p.levels {
		lvl.Add(other.levels[k])
	}
	return nil
}

// SetValue fills every level with v.
func (p *Pyramid) SetValue(v float64) {
	for _, lvl := range p.levels {
		lvl.Fill(v)
	}
}

// Reconstruct collapses the pyramid into a single full resolution image,
// written into out (reallocated if it has the wrong geometry). For a
// Laplacian pyramid this inverts Update; for a Gaussian pyramid it is just
// a copy of level 0.
func (p *Pyramid) Reconstruct(out *emath.FloatImage) *emath.FloatImage {
	n := len(p.levels)
	if !p.laplacian || n == 1 {
		return p.levels[0].CopyInto(out)
	}

	// Accumulate in `next`, starting from the coarsest level.
	acc := p.levels[n-1].CopyInto(p.next)
	for k := n - 2; k >= 0; k-- {
		lvl := p.levels[k]
		p.scratch = p.sampler.Up(acc, p.scratch, lvl.Width, lvl.Height)
		p.scratch.Add(lvl)

		if k == 0 {
			out = p.scratch.CopyInto(out)
		} else {
			acc = p.scratch.CopyInto(acc)
		}
	}
	p.next = acc

	return out
}

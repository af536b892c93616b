package emath

import (
	"fmt"
	"image"
	"image/color"

	"github.com/mdouchement/hdr/hdrcolor"
	"gonum.org/v1/gonum/floats"
)

// A FloatImage is a grid of float pixels, each pixel holding `Channels`
// interleaved values. Single channel images are used for luminance and
// weight maps; colour images normally have 3 channels in [0,1].
type FloatImage struct {
	Width    int
	Height   int
	Channels int
	Pix      []float64 // row-major, len == Width*Height*Channels
}

func NewFloatImage(w, h, c int) *FloatImage {
	return &FloatImage{
		Width:    w,
		Height:   h,
		Channels: c,
		Pix:      make([]float64, w*h*c),
	}
}

// EnsureGeometry returns img if it already has the requested geometry,
// otherwise a freshly allocated (zeroed) image. Callers must always use the
// returned value.
func EnsureGeometry(img *FloatImage, w, h, c int) *FloatImage {
	if img != nil && img.Width == w && img.Height == h && img.Channels == c && len(img.Pix) == w*h*c {
		return img
	}
	return NewFloatImage(w, h, c)
}

func (fi *FloatImage) NewFromThis() *FloatImage { return NewFloatImage(fi.Width, fi.Height, fi.Channels) }

func (fi *FloatImage) Copy() *FloatImage {
	out := fi.NewFromThis()
	copy(out.Pix, fi.Pix)
	return out
}

// CopyInto copies fi into dst, reallocating dst if needed.
func (fi *FloatImage) CopyInto(dst *FloatImage) *FloatImage {
	dst = EnsureGeometry(dst, fi.Width, fi.Height, fi.Channels)
	copy(dst.Pix, fi.Pix)
	return dst
}

func (fi *FloatImage) offset(x, y int) int { return (y*fi.Width + x) * fi.Channels }

func (fi *FloatImage) Get(x, y, c int) float64     { return fi.Pix[fi.offset(x, y)+c] }
func (fi *FloatImage) Set(x, y, c int, v float64)  { fi.Pix[fi.offset(x, y)+c] = v }
func (fi *FloatImage) SameSize(o *FloatImage) bool { return fi.Width == o.Width && fi.Height == o.Height }

// Pixel returns a view onto the channels of the pixel at (x,y).
func (fi *FloatImage) Pixel(x, y int) []float64 {
	o := fi.offset(x, y)
	return fi.Pix[o : o+fi.Channels]
}

// Row returns a view onto all the values in row y.
func (fi *FloatImage) Row(y int) []float64 {
	o := fi.offset(0, y)
	return fi.Pix[o : o+fi.Width*fi.Channels]
}

// GetClamped is Get with coordinates clamped to the image edge.
func (fi *FloatImage) GetClamped(x, y, c int) float64 {
	return fi.Get(clamp(x, 0, fi.Width-1), clamp(y, 0, fi.Height-1), c)
}

func (fi *FloatImage) SameGeometry(other *FloatImage) bool {
	return fi.SameSize(other) && fi.Channels == other.Channels
}

func (fi *FloatImage) String() string {
	return fmt.Sprintf("FloatImage[%dx%dx%d]", fi.Width, fi.Height, fi.Channels)
}

func (fi *FloatImage) mustMatch(other *FloatImage, op string) {
	if !fi.SameGeometry(other) {
		panic(fmt.Sprintf("emath.%s: geometry mismatch %s vs %s", op, fi, other))
	}
}

// Element-wise algebra. These all operate in place on the receiver, and
// panic if the geometries don't match.

func (fi *FloatImage) Add(other *FloatImage) { fi.mustMatch(other, "Add"); floats.Add(fi.Pix, other.Pix) }
func (fi *FloatImage) Sub(other *FloatImage) { fi.mustMatch(other, "Sub"); floats.Sub(fi.Pix, other.Pix) }
func (fi *FloatImage) Mul(other *FloatImage) { fi.mustMatch(other, "Mul"); floats.Mul(fi.Pix, other.Pix) }
func (fi *FloatImage) Div(other *FloatImage) { fi.mustMatch(other, "Div"); floats.Div(fi.Pix, other.Pix) }
func (fi *FloatImage) Scale(k float64)       { floats.Scale(k, fi.Pix) }

// MulChannels multiplies every channel of fi by the single channel map m.
func (fi *FloatImage) MulChannels(m *FloatImage) {
	if m.Channels != 1 || !fi.SameSize(m) {
		panic(fmt.Sprintf("emath.MulChannels: %s can't weight %s", m, fi))
	}
	if fi.Channels == 1 {
		floats.Mul(fi.Pix, m.Pix)
		return
	}
	for i, w := range m.Pix {
		px := fi.Pix[i*fi.Channels : (i+1)*fi.Channels]
		floats.Scale(w, px)
	}
}

func (fi *FloatImage) Fill(v float64) {
	for i := range fi.Pix {
		fi.Pix[i] = v
	}
}

func (fi *FloatImage) Apply(f func(float64) float64) {
	for i, v := range fi.Pix {
		fi.Pix[i] = f(v)
	}
}

// Max returns the largest value across all channels; 0 for an empty image.
func (fi *FloatImage) Max() float64 {
	if len(fi.Pix) == 0 {
		return 0
	}
	return floats.Max(fi.Pix)
}

func (fi *FloatImage) Min() float64 {
	if len(fi.Pix) == 0 {
		return 0
	}
	return floats.Min(fi.Pix)
}

// Implement image.Image and mdouchement/hdr.Image, so a FloatImage can be handed
// directly to rgbe encoding and the hdr/tmo operators.
func (fi *FloatImage) ColorModel() color.Model { return hdrcolor.RGBModel }
func (fi *FloatImage) Bounds() image.Rectangle { return image.Rect(0, 0, fi.Width, fi.Height) }
func (fi *FloatImage) At(x, y int) color.Color { return fi.HDRAt(x, y) }
func (fi *FloatImage) Size() int               { return fi.Width * fi.Height }

func (fi *FloatImage) HDRAt(x, y int) hdrcolor.Color {
	px := fi.Pixel(x, y)
	switch len(px) {
	case 0:
		return hdrcolor.RGB{}
	case 1, 2:
		return hdrcolor.RGB{R: px[0], G: px[0], B: px[0]}
	default:
		return hdrcolor.RGB{R: px[0], G: px[1], B: px[2]}
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package emath

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
)

// DumpPNG saves a viewable copy of the image, stretched to the range of
// values it holds and sRGB encoded, with a title drawn in the corner.
// Handy for looking at weight maps and pyramid levels.
func (fi *FloatImage) DumpPNG(title, filename string) error {
	lo, hi := fi.Min(), fi.Max()
	span := hi - lo
	if span <= 0 {
		span = 1
	}

	img := image.NewRGBA64(fi.Bounds())
	for y := 0; y < fi.Height; y++ {
		for x := 0; x < fi.Width; x++ {
			var rgb [3]float64
			for c := 0; c < 3; c++ {
				ch := c
				if ch >= fi.Channels {
					ch = 0
				}
				rgb[c] = GammaExpand_F64((fi.Get(x, y, ch) - lo) / span)
			}
			img.Set(x, y, color.RGBA64{
				R: uint16(rgb[0] * 0xFFFF),
				G: uint16(rgb[1] * 0xFFFF),
				B: uint16(rgb[2] * 0xFFFF),
				A: 0xFFFF,
			})
		}
	}

	dc := gg.NewContextForImage(img)
	dc.SetRGB(1, 1, 1)
	dc.DrawString(title, 10, 20)
	return dc.SavePNG(filename)
}

package eio

import (
	"image"
	"image/color"

	"github.com/mdouchement/hdr"
	"github.com/nfnt/resize"
	"golang.org/x/image/draw"

	"github.com/abworrall/exposure-fusion/pkg/emath"
)

// ToFloatImage converts any image into a 3 channel FloatImage in [0,1],
// keeping 16 bits of precision. Alpha is dropped.
func ToFloatImage(img image.Image) *emath.FloatImage {
	if hm, ok := img.(hdr.Image); ok {
		return FromHDR(hm)
	}

	b := img.Bounds()
	rgba, ok := img.(*image.RGBA64)
	if !ok {
		rgba = image.NewRGBA64(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
		b = rgba.Bounds()
	}

	fi := emath.NewFloatImage(b.Dx(), b.Dy(), 3)
	for y := 0; y < fi.Height; y++ {
		for x := 0; x < fi.Width; x++ {
			c := rgba.RGBA64At(b.Min.X+x, b.Min.Y+y)
			px := fi.Pixel(x, y)
			px[0] = float64(c.R) / 0xFFFF
			px[1] = float64(c.G) / 0xFFFF
			px[2] = float64(c.B) / 0xFFFF
		}
	}

	return fi
}

// FromHDR copies an HDR image into a 3 channel FloatImage, values unscaled.
func FromHDR(m hdr.Image) *emath.FloatImage {
	b := m.Bounds()
	fi := emath.NewFloatImage(b.Dx(), b.Dy(), 3)
	for y := 0; y < fi.Height; y++ {
		for x := 0; x < fi.Width; x++ {
			r, g, bl, _ := m.HDRAt(b.Min.X+x, b.Min.Y+y).HDRRGBA()
			px := fi.Pixel(x, y)
			px[0], px[1], px[2] = r, g, bl
		}
	}
	return fi
}

// ToRGBA64 quantizes an image to 16 bits per channel, clamping to [0,1].
// One and two channel images come out grey.
func ToRGBA64(fi *emath.FloatImage) *image.RGBA64 {
	img := image.NewRGBA64(fi.Bounds())
	q := func(v float64) uint16 { return uint16(emath.Clamp01(v)*0xFFFF + 0.5) }

	for y := 0; y < fi.Height; y++ {
		for x := 0; x < fi.Width; x++ {
			px := fi.Pixel(x, y)
			var c color.RGBA64
			if len(px) < 3 {
				v := q(px[0])
				c = color.RGBA64{R: v, G: v, B: v, A: 0xFFFF}
			} else {
				c = color.RGBA64{R: q(px[0]), G: q(px[1]), B: q(px[2]), A: 0xFFFF}
			}
			img.SetRGBA64(x, y, c)
		}
	}

	return img
}

// Resize scales img to the given width, keeping the aspect ratio. A width
// of zero (or the current width) returns img as-is.
func Resize(img image.Image, width int) image.Image {
	if width <= 0 || width == img.Bounds().Dx() {
		return img
	}
	return resize.Resize(uint(width), 0, img, resize.Lanczos3)
}

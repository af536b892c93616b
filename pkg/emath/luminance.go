package emath

// Rec.709 / sRGB luma coefficients.
var LumaWeights = [3]float64{0.2126, 0.7152, 0.0722}

// Luminance writes the luminance of img into out (a single channel image of
// the same size, reallocated if needed), and returns it. Images with fewer
// than three channels just average what they have.
func Luminance(img, out *FloatImage, workers int) *FloatImage {
	out = EnsureGeometry(out, img.Width, img.Height, 1)
	nc := img.Channels

	ParallelRows(img.Height, workers, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			src := img.Row(y)
			dst := out.Row(y)
			for x := range dst {
				dst[x] = luma(src[x*nc : (x+1)*nc])
			}
		}
	})

	return out
}

func luma(px []float64) float64 {
	switch len(px) {
	case 0:
		return 0
	case 1:
		return px[0]
	case 2:
		return (px[0] + px[1]) / 2
	default:
		return LumaWeights[0]*px[0] + LumaWeights[1]*px[1] + LumaWeights[2]*px[2]
	}
}

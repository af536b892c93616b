package emath

import "math"

// Some functions that only operate on basic types, that are useful

// GammaExpand_F64 is the sRGB transfer function ("linear RGB to sRGB");
// https://www.sjbrown.co.uk/posts/gamma-correct-rendering/
// f is assumed to be in the range [0,1].
func GammaExpand_F64(f float64) float64 {
	if f <= 0.0031308 {
		return 12.92 * f
	}
	return 1.055*math.Pow(f, 1.0/2.4) - 0.055
}

// Clamp01 limits f to [0,1].
func Clamp01(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}

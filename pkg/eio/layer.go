package eio

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/abworrall/exposure-fusion/pkg/emath"
)

// A Layer holds one image loaded from an input file, with the exposure info
// (if any) that lets us order it within a stack.
type Layer struct {
	LoadFilename string
	ExposureValue
	Image *emath.FloatImage
}

func (l Layer) Filename() string { return filepath.Base(l.LoadFilename) }

func (l Layer) String() string {
	return fmt.Sprintf("%s: %s, %s", l.Filename(), l.Image, l.ExposureValue)
}

// SortLayers puts the brightest exposure first. Layers without exposure
// info go last, in filename order.
func SortLayers(layers []Layer) {
	sort.SliceStable(layers, func(i, j int) bool {
		bi, bj := layers[i].Brightness(), layers[j].Brightness()
		if bi != bj {
			return bi > bj
		}
		return layers[i].LoadFilename < layers[j].LoadFilename
	})
}

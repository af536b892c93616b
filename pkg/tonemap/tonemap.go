// Package tonemap puts exposure fusion alongside the classic global and
// local tone mapping operators from mdouchement/hdr, so an HDR image can be
// rendered by any (or all) of them for comparison.
package tonemap

import (
	"fmt"
	"image"
	"log"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/tmo"

	"github.com/abworrall/exposure-fusion/pkg/eio"
	"github.com/abworrall/exposure-fusion/pkg/emath"
	"github.com/abworrall/exposure-fusion/pkg/fusion"
)

var Names = []string{"fusion", "drago03", "durand", "icam06", "linear", "reinhard05"}

func List() string { return fmt.Sprintf("%v", Names) }

// Expand turns a tonemapper name (or "all") into the list of operators to run.
func Expand(name string) ([]string, error) {
	if name == "all" {
		return Names, nil
	}
	for _, n := range Names {
		if n == name {
			return []string{name}, nil
		}
	}
	return nil, fmt.Errorf("tonemapper %q not recognized, wanted one of %s (or all)", name, List())
}

// Setup returns the named operator, ready to Perform on img.
func Setup(name string, img hdr.Image, cfg fusion.Config) (tmo.ToneMappingOperator, error) {
	switch name {
	case "fusion":
		return NewFusionTMO(img, cfg), nil
	case "drago03":
		return tmo.NewDefaultDrago03(img), nil
	case "durand":
		return tmo.NewDefaultDurand(img), nil
	case "icam06":
		return tmo.NewDefaultICam06(img), nil
	case "linear":
		return tmo.NewLinear(img), nil
	case "reinhard05":
		return tmo.NewDefaultReinhard05(img), nil
	}
	return nil, fmt.Errorf("tonemapper %q not recognized, wanted one of %s", name, List())
}

// Perform tone maps img with the named operator.
func Perform(name string, img hdr.Image, cfg fusion.Config) (image.Image, error) {
	op, err := Setup(name, img, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Verbosity > 0 {
		log.Printf("Tonemapping: %s", name)
	}
	out := op.Perform()

	if f, ok := op.(*FusionTMO); ok && f.Err != nil {
		return out, fmt.Errorf("tonemap %s: %w", name, f.Err)
	}
	return out, nil
}

// FusionTMO adapts exposure fusion to tmo.ToneMappingOperator: a virtual
// exposure stack is synthesized from the HDR input, and fused.
type FusionTMO struct {
	Input  hdr.Image
	Fusion *fusion.ExposureFusion
	Err    error // from the last Perform
}

func NewFusionTMO(img hdr.Image, cfg fusion.Config) *FusionTMO {
	return &FusionTMO{
		Input:  img,
		Fusion: fusion.New(cfg.Weights, fusion.WithConfig(cfg)),
	}
}

// Perform implements tmo.ToneMappingOperator. Failures come back as a black
// image, with the error left in Err.
func (f *FusionTMO) Perform() image.Image {
	in, ok := f.Input.(*emath.FloatImage)
	if !ok {
		in = eio.FromHDR(f.Input)
	}

	out, err := f.Fusion.Fuse(in, nil)
	f.Err = err
	if err != nil || out == nil {
		return eio.ToRGBA64(emath.NewFloatImage(in.Width, in.Height, 3))
	}

	return eio.ToRGBA64(out)
}

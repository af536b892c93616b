package main

import (
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/abworrall/exposure-fusion/pkg/eio"
	"github.com/abworrall/exposure-fusion/pkg/fusion"
	"github.com/abworrall/exposure-fusion/pkg/tonemap"
)

var (
	fVerbosity   int
	fOutput      string
	fWeightC     float64
	fWeightE     float64
	fWeightS     float64
	fLimitLevel  int
	fWorkers     int
	fTonemapper  string
	fWidth       int
	fDumpWeights bool
)

func init() {
	flag.IntVar(&fVerbosity, "v", 0, "how verbose to get")
	flag.StringVar(&fOutput, "o", "fused.png", "output file (.png, .tif or .hdr)")
	flag.Float64Var(&fWeightC, "wc", fusion.DefaultExponent, "exponent for the contrast measure (0 disables it)")
	flag.Float64Var(&fWeightE, "we", fusion.DefaultExponent, "exponent for the well-exposedness measure (0 disables it)")
	flag.Float64Var(&fWeightS, "ws", fusion.DefaultExponent, "exponent for the saturation measure (0 disables it)")
	flag.IntVar(&fLimitLevel, "limitlevel", fusion.DefaultLimitLevel, "how many of the coarsest pyramid levels to leave out")
	flag.IntVar(&fWorkers, "workers", 0, "goroutines for per-pixel work (0 means one per CPU)")
	flag.StringVar(&fTonemapper, "tonemapper", "fusion", "for a single HDR input, how to tonemap it: "+tonemap.List()+" or all")
	flag.IntVar(&fWidth, "width", 0, "resize the output to this width (0 keeps it as-is)")
	flag.BoolVar(&fDumpWeights, "dumpweights", false, "write each normalized weight map out as weights-NN.png")
	flag.Parse()

	log.Printf("exposure-fusion starting\n")
}

// Flags override the yaml config, but only when they were actually set.
func applyFlags(cfg *fusion.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "v":
			cfg.Verbosity = fVerbosity
		case "wc":
			cfg.Weights.Contrast = fWeightC
		case "we":
			cfg.Weights.Exposedness = fWeightE
		case "ws":
			cfg.Weights.Saturation = fWeightS
		case "limitlevel":
			cfg.LimitLevel = fLimitLevel
		case "workers":
			cfg.Workers = fWorkers
		case "dumpweights":
			cfg.DumpWeights = fDumpWeights
		}
	})
}

func main() {
	stack := eio.NewStack()
	if err := stack.LoadFilesAndDirs(flag.Args()...); err != nil {
		log.Fatal(err)
	}

	applyFlags(&stack.Config)
	if err := stack.Config.Validate(); err != nil {
		log.Fatal(err)
	}

	if stack.Verbosity > 0 {
		log.Printf("Final configuration:-\n\n%s\n", stack.Config.AsYaml())
		log.Printf("Loaded:-\n%s", stack)
	}

	switch {
	case stack.HDR != nil && len(stack.Layers) > 0:
		log.Fatal("got both an HDR image and LDR layers; fuse one or the other")

	case stack.HDR != nil:
		if err := tonemapHDR(stack); err != nil {
			log.Fatal(err)
		}

	case len(stack.Layers) >= 2:
		if err := fuseLayers(stack); err != nil {
			log.Fatal(err)
		}

	default:
		log.Fatalf("need at least two exposures, or one HDR image, to fuse (got %d)", len(stack.Layers))
	}
}

func fuseLayers(stack *eio.Stack) error {
	ef := fusion.New(stack.Weights, fusion.WithConfig(stack.Config))

	out, err := ef.FuseStack(stack.Images(), nil)
	if err != nil {
		return fmt.Errorf("fusing %d layers: %w", len(stack.Layers), err)
	}

	log.Printf("Writing %s\n", fOutput)
	return eio.Write(out, fOutput, fWidth)
}

func tonemapHDR(stack *eio.Stack) error {
	names, err := tonemap.Expand(fTonemapper)
	if err != nil {
		return err
	}

	// A plain exposure fusion of the HDR image goes to the requested output,
	// so .hdr/.tif work; everything else is written as a PNG per operator.
	if len(names) == 1 && names[0] == "fusion" {
		ef := fusion.New(stack.Weights, fusion.WithConfig(stack.Config))

		out, err := ef.Fuse(stack.HDR, nil)
		if err != nil {
			return fmt.Errorf("fusing %s: %w", stack.HDRFilename, err)
		}
		log.Printf("Writing %s\n", fOutput)
		return eio.Write(out, fOutput, fWidth)
	}

	for _, name := range names {
		img, err := tonemap.Perform(name, stack.HDR, stack.Config)
		if err != nil {
			return err
		}

		filename := outputFilename(name)
		log.Printf("Writing %s\n", filename)
		if err := eio.WritePNG(eio.Resize(img, fWidth), filename); err != nil {
			return err
		}
	}

	return nil
}

// outputFilename is tmo-<name>.png, in the same dir as the -o file.
func outputFilename(name string) string {
	dir := filepath.Dir(fOutput)
	base := "tmo-" + strings.ToLower(name) + ".png"
	return filepath.Join(dir, base)
}

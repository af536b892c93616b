// Package eio loads exposure stacks (and HDR images) from disk, and writes
// fused results back out.
package eio

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/codec/rgbe"
	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/tiff"

	"github.com/abworrall/exposure-fusion/pkg/emath"
	"github.com/abworrall/exposure-fusion/pkg/fusion"
)

// A Stack is everything loaded from the command line: the LDR layers of a
// bracketed stack, or a single HDR image, plus the config if a yaml file was
// among the inputs.
type Stack struct {
	fusion.Config
	Layers []Layer

	HDR         *emath.FloatImage
	HDRFilename string
}

func NewStack() *Stack {
	return &Stack{Config: fusion.NewConfig()}
}

func (s *Stack) String() string {
	str := "Stack [\n"
	if s.HDR != nil {
		str += fmt.Sprintf("  %s: %s (HDR)\n", filepath.Base(s.HDRFilename), s.HDR)
	}
	for _, l := range s.Layers {
		str += fmt.Sprintf("  %s\n", l)
	}
	return str + "]\n"
}

// Images returns the layers' images, in stack order.
func (s *Stack) Images() []*emath.FloatImage {
	ret := make([]*emath.FloatImage, len(s.Layers))
	for i, l := range s.Layers {
		ret[i] = l.Image
	}
	return ret
}

// LoadFilesAndDirs loads every file named, recursing into directories. Files
// with unknown extensions are ignored. The layers end up sorted, brightest
// first.
func (s *Stack) LoadFilesAndDirs(args ...string) error {
	if err := s.loadFilesAndDirs(args...); err != nil {
		return err
	}
	SortLayers(s.Layers)
	return nil
}

func (s *Stack) loadFilesAndDirs(args ...string) error {
	for _, arg := range args {
		item, err := os.Stat(arg)

		switch {
		case err != nil:
			return fmt.Errorf("load %s: %v", arg, err)

		case item.IsDir():
			contents, err := os.ReadDir(arg)
			if err != nil {
				return fmt.Errorf("readdir %s: %v", arg, err)
			}
			for _, content := range contents {
				if err := s.loadFilesAndDirs(filepath.Join(arg, content.Name())); err != nil {
					return fmt.Errorf("load %s: %w", arg, err)
				}
			}

		default:
			if err := s.loadFile(arg); err != nil {
				return fmt.Errorf("loadfile %s: %w", arg, err)
			}
		}
	}

	return nil
}

func (s *Stack) loadFile(filename string) error {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".tif", ".tiff", ".png", ".jpg", ".jpeg":
		layer, err := s.loadLDR(filename)
		if err != nil {
			return err
		}
		s.Layers = append(s.Layers, layer)

	case ".hdr":
		img, err := LoadHDR(filename)
		if err != nil {
			return err
		}
		if s.HDR != nil {
			return fmt.Errorf("already have an HDR image (%s), can only fuse one", s.HDRFilename)
		}
		s.HDR, s.HDRFilename = img, filename

	case ".yaml":
		cfg, err := LoadConfig(filename)
		if err != nil {
			return err
		}
		s.Config = cfg
		log.Printf("Loaded base configuration from %s\n", filename)

	default:
		if s.Verbosity > 1 {
			log.Printf("ignoring %s\n", filename)
		}
	}

	return nil
}

func LoadConfig(filename string) (fusion.Config, error) {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return fusion.Config{}, fmt.Errorf("config read %s: %v", filename, err)
	}
	return fusion.NewConfigFromYaml(contents)
}

func (s *Stack) loadLDR(filename string) (Layer, error) {
	l := Layer{LoadFilename: filename}

	// EXIF is nice to have, but not all files carry it
	if ev, err := LoadExposureValue(filename); err != nil {
		if s.Verbosity > 0 {
			log.Printf("%s: no exposure info, %v\n", filename, err)
		}
	} else {
		l.ExposureValue = ev
	}

	img, err := LoadImage(filename)
	if err != nil {
		return l, err
	}
	l.Image = ToFloatImage(img)

	if s.Verbosity > 0 {
		log.Printf("loaded %s\n", l)
	}

	return l, nil
}

// LoadImage decodes a TIFF, PNG or JPEG file.
func LoadImage(filename string) (image.Image, error) {
	reader, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open+r img '%s': %v", filename, err)
	}
	defer reader.Close()

	var img image.Image
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".tif", ".tiff":
		img, err = tiff.Decode(reader)
	case ".png":
		img, err = png.Decode(reader)
	case ".jpg", ".jpeg":
		img, err = jpeg.Decode(reader)
	default:
		err = fmt.Errorf("unknown image type")
	}
	if err != nil {
		return nil, fmt.Errorf("decoding '%s': %v", filename, err)
	}

	return img, nil
}

// LoadHDR decodes a Radiance RGBE (.hdr) file.
func LoadHDR(filename string) (*emath.FloatImage, error) {
	reader, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open+r hdr '%s': %v", filename, err)
	}
	defer reader.Close()

	m, err := rgbe.Decode(reader)
	if err != nil {
		return nil, fmt.Errorf("rgbe decoding '%s': %v", filename, err)
	}
	hm, ok := m.(hdr.Image)
	if !ok {
		return nil, fmt.Errorf("rgbe decoding '%s': got a %T, not an HDR image", filename, m)
	}

	return FromHDR(hm), nil
}

// LoadExposureValue reads the ISO, aperture and shutter speed out of a
// file's EXIF data.
func LoadExposureValue(filename string) (ExposureValue, error) {
	ev := ExposureValue{}

	reader, err := os.Open(filename)
	if err != nil {
		return ev, fmt.Errorf("open+r exif '%s': %v", filename, err)
	}
	defer reader.Close()

	ex, err := exif.Decode(reader)
	if err != nil {
		return ev, fmt.Errorf("exif parsing '%s': %v", filename, err)
	}

	if tag, err := ex.Get(exif.ISOSpeedRatings); err != nil {
		return ev, fmt.Errorf("exif ISO '%s': %v", filename, err)
	} else if val, err := tag.Int64(0); err != nil {
		return ev, fmt.Errorf("exif ISO '%s': %v", filename, err)
	} else {
		ev.ISO = val
	}

	if tag, err := ex.Get(exif.FNumber); err != nil {
		return ev, fmt.Errorf("exif FNumber '%s': %v", filename, err)
	} else if num, denom, err := tag.Rat2(0); err != nil {
		return ev, fmt.Errorf("exif FNumber '%s': %v", filename, err)
	} else if ev.ApertureX10, err = apertureX10(num, denom); err != nil {
		return ev, fmt.Errorf("exif '%s': %v", filename, err)
	}

	if tag, err := ex.Get(exif.ExposureTime); err != nil {
		return ev, fmt.Errorf("exif ExposureTime '%s': %v", filename, err)
	} else if num, denom, err := tag.Rat2(0); err != nil {
		return ev, fmt.Errorf("exif ExposureTime '%s': %v", filename, err)
	} else {
		ev.ShutterSpeed = rational{num, denom}
	}

	return ev, nil
}

package eio

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/codec/rgbe"
	"golang.org/x/image/tiff"

	"github.com/abworrall/exposure-fusion/pkg/emath"
)

func WritePNG(img image.Image, filename string) error {
	writer, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("open+w '%s': %v", filename, err)
	}
	defer writer.Close()

	if err := png.Encode(writer, img); err != nil {
		return fmt.Errorf("png encoding '%s': %v", filename, err)
	}
	return writer.Close()
}

func WriteTIFF(img image.Image, filename string) error {
	writer, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("open+w '%s': %v", filename, err)
	}
	defer writer.Close()

	if err := tiff.Encode(writer, img, &tiff.Options{Compression: tiff.Deflate}); err != nil {
		return fmt.Errorf("tiff encoding '%s': %v", filename, err)
	}
	return writer.Close()
}

// WriteHDR outputs a Radiance RGBE image. You can load this into photoshop
// or other HDR tools.
func WriteHDR(img hdr.Image, filename string) error {
	writer, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("open+w '%s': %v", filename, err)
	}
	defer writer.Close()

	if err := rgbe.Encode(writer, img); err != nil {
		return fmt.Errorf("rgbe encoding '%s': %v", filename, err)
	}
	return writer.Close()
}

// Write saves a fused image in the format implied by the filename's
// extension (.png, .tif/.tiff or .hdr), resized to width if that is
// non-zero. HDR output is written at full size and precision.
func Write(fi *emath.FloatImage, filename string, width int) error {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".hdr":
		return WriteHDR(fi, filename)
	case ".tif", ".tiff":
		return WriteTIFF(Resize(ToRGBA64(fi), width), filename)
	case ".png":
		return WritePNG(Resize(ToRGBA64(fi), width), filename)
	}
	return fmt.Errorf("write '%s': unknown output format", filename)
}

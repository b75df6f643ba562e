// Package testutil builds in-memory image fixtures for tests and the e2e
// fixture generator.
package testutil

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
)

// Gradient returns a w×h opaque image whose colour encodes the coordinates.
func Gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / max(w-1, 1)),
				G: uint8(y * 255 / max(h-1, 1)),
				B: 128,
				A: 255,
			})
		}
	}
	return img
}

// Quadrants returns a w×h image split into four solid colours:
// red top-left, green top-right, blue bottom-left, white bottom-right.
func Quadrants(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, QuadrantColor(x < w/2, y < h/2))
		}
	}
	return img
}

// QuadrantColor is the colour Quadrants uses for a quadrant.
func QuadrantColor(left, top bool) color.NRGBA {
	switch {
	case left && top:
		return color.NRGBA{R: 255, A: 255}
	case !left && top:
		return color.NRGBA{G: 255, A: 255}
	case left && !top:
		return color.NRGBA{B: 255, A: 255}
	default:
		return color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	}
}

// PNG encodes img.
func PNG(img image.Image) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// JPEG encodes img at quality 95.
func JPEG(img image.Image) []byte {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// WithOrientation inserts an EXIF APP1 segment carrying only the
// Orientation tag right after the JPEG SOI marker.
func WithOrientation(jpg []byte, code int) []byte {
	var tiff bytes.Buffer
	tiff.WriteString("MM")
	binary.Write(&tiff, binary.BigEndian, uint16(42))
	binary.Write(&tiff, binary.BigEndian, uint32(8))
	binary.Write(&tiff, binary.BigEndian, uint16(1))      // entry count
	binary.Write(&tiff, binary.BigEndian, uint16(0x0112)) // Orientation
	binary.Write(&tiff, binary.BigEndian, uint16(3))      // SHORT
	binary.Write(&tiff, binary.BigEndian, uint32(1))
	binary.Write(&tiff, binary.BigEndian, uint16(code))
	binary.Write(&tiff, binary.BigEndian, uint16(0))
	binary.Write(&tiff, binary.BigEndian, uint32(0)) // no IFD1

	payload := append([]byte("Exif\x00\x00"), tiff.Bytes()...)

	out := make([]byte, 0, len(jpg)+len(payload)+4)
	out = append(out, jpg[:2]...)
	out = append(out, 0xFF, 0xE1)
	out = binary.BigEndian.AppendUint16(out, uint16(len(payload)+2))
	out = append(out, payload...)
	out = append(out, jpg[2:]...)
	return out
}

// WriteFile writes data under dir and returns the path.
func WriteFile(dir, name string, data []byte) string {
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		panic(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		panic(err)
	}
	return path
}

package encoder

import (
	"bytes"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// ImagingEncoder encodes through imaging.Encode, which covers the formats
// Go can write natively.
type ImagingEncoder struct {
	format imaging.Format
	name   string
	ext    string
	// sizeHint pre-grows the output buffer.
	sizeHint int
}

// NewJPEG returns a JPEG encoder.
func NewJPEG() *ImagingEncoder {
	return &ImagingEncoder{format: imaging.JPEG, name: "jpeg", ext: "jpeg", sizeHint: 256 * 1024}
}

// NewPNG returns a PNG encoder. Used as fallback for images with alpha.
func NewPNG() *ImagingEncoder {
	return &ImagingEncoder{format: imaging.PNG, name: "png", ext: "png", sizeHint: 512 * 1024}
}

func (e *ImagingEncoder) Format() string    { return e.name }
func (e *ImagingEncoder) Extension() string { return e.ext }
func (e *ImagingEncoder) Available() bool   { return true }

func (e *ImagingEncoder) Encode(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(e.sizeHint)

	err := imaging.Encode(&buf, img, e.format,
		imaging.JPEGQuality(clampQuality(quality)),
		imaging.PNGCompressionLevel(png.BestCompression),
	)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

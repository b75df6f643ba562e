package encoder

import (
	"image"
)

// Encoder encodes a decoded raster to a specific format.
type Encoder interface {
	// Format returns the output format name (e.g. "jpeg", "webp", "avif", "png").
	Format() string

	// Encode converts the image to bytes at the given quality (1-100).
	Encode(img image.Image, quality int) ([]byte, error)

	// Available returns true if the encoder is ready to use.
	// External encoders (cwebp, avifenc) may not be installed.
	Available() bool

	// Extension returns the file extension without dot.
	Extension() string
}

// DefaultQuality is used when a caller passes a quality outside 1-100.
const DefaultQuality = 82

func clampQuality(q int) int {
	if q <= 0 || q > 100 {
		return DefaultQuality
	}
	return q
}

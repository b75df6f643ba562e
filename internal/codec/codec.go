// Package codec wraps the raster decoders behind a bounds-probe and a
// subsampled full decode.
package codec

import (
	"io"

	"github.com/disintegration/imaging"

	"github.com/AnyUserName/tgimg-decode/internal/buffer"
	"github.com/AnyUserName/tgimg-decode/internal/imagesize"
)

// Bounds is what a header-only read reveals about a source.
type Bounds struct {
	Width  int
	Height int
	MIME   string
}

// Size returns the bounds as an imagesize.Size.
func (b Bounds) Size() imagesize.Size {
	return imagesize.New(b.Width, b.Height)
}

// Options is passed through to the codec unchanged. It is read-only and may
// be shared between concurrent decodes.
type Options struct {
	// Filter resamples the raster when the codec cannot subsample natively.
	// Nil selects imaging.Box.
	Filter *imaging.ResampleFilter
}

// Codec decodes compressed images.
type Codec interface {
	// DecodeBounds reads only the header of r.
	DecodeBounds(r io.Reader) (Bounds, error)
	// DecodeFull decodes r into a raster of floor(native/sampleSize).
	DecodeFull(r io.Reader, sampleSize int, opts Options) (*buffer.Buffer, error)
}

func (o Options) filter() imaging.ResampleFilter {
	if o.Filter == nil {
		return imaging.Box
	}
	return *o.Filter
}

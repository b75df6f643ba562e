// Package buffer holds decoded rasters with single-owner release semantics.
package buffer

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/AnyUserName/tgimg-decode/internal/imagesize"
)

// Buffer is a decoded NRGBA raster. A Buffer has exactly one owner; the
// owner that replaces it must Release it. After Release the pixels are gone
// and Image returns nil.
type Buffer struct {
	img      *image.NRGBA
	released bool
}

// New takes ownership of img, converting it to NRGBA when needed.
func New(img image.Image) *Buffer {
	if img == nil {
		return nil
	}
	nrgba, ok := img.(*image.NRGBA)
	if !ok || nrgba.Rect.Min != (image.Point{}) {
		nrgba = imaging.Clone(img)
	}
	return &Buffer{img: nrgba}
}

// Image returns the raster, or nil once released.
func (b *Buffer) Image() *image.NRGBA {
	if b == nil || b.released {
		return nil
	}
	return b.img
}

// Size returns the raster dimensions, zero once released.
func (b *Buffer) Size() imagesize.Size {
	img := b.Image()
	if img == nil {
		return imagesize.Size{}
	}
	return imagesize.New(img.Rect.Dx(), img.Rect.Dy())
}

// Width is Size().Width.
func (b *Buffer) Width() int { return b.Size().Width }

// Height is Size().Height.
func (b *Buffer) Height() int { return b.Size().Height }

// Release drops the pixel storage. It is safe to call more than once.
func (b *Buffer) Release() {
	if b == nil || b.released {
		return
	}
	b.released = true
	b.img = nil
}

// Released reports whether Release has been called.
func (b *Buffer) Released() bool {
	return b != nil && b.released
}

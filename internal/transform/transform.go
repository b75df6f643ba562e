// Package transform applies exact scale and orientation correction to a
// decoded raster in a single resampling pass.
package transform

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/AnyUserName/tgimg-decode/internal/buffer"
	"github.com/AnyUserName/tgimg-decode/internal/imagesize"
)

var identity = f64.Aff3{1, 0, 0, 0, 1, 0}

// Transformer composes scale, horizontal flip and clockwise rotation, in that
// order, into one affine matrix and renders it once.
type Transformer struct {
	// Interpolator resamples when the transform scales. Pure flips and
	// quarter turns copy pixels exactly and never use it.
	Interpolator draw.Interpolator
}

// New returns a Transformer using bilinear resampling.
func New() *Transformer {
	return &Transformer{Interpolator: draw.BiLinear}
}

// Apply transfers ownership of buf and returns the owned result. When every
// step is identity buf itself is returned and nothing is allocated;
// otherwise a new buffer is returned and buf is released.
func (t *Transformer) Apply(buf *buffer.Buffer, scale imagesize.Scale, flip bool, rotation int) *buffer.Buffer {
	src := buf.Image()
	if src == nil {
		return buf
	}
	rotation = imagesize.NormalizeRotation(rotation)
	if scale.IsIdentity() && !flip && rotation == 0 {
		return buf
	}

	var dst *image.NRGBA
	if scale.IsIdentity() && rotation%90 == 0 {
		dst = orient(src, flip, rotation)
	} else {
		m, size := Matrix(buf.Size(), scale, flip, rotation)
		interp := t.Interpolator
		if interp == nil {
			interp = draw.BiLinear
		}
		// NRGBA keeps straight alpha, so translucent pixels are not
		// premultiplied on the way through.
		dst = image.NewNRGBA(image.Rect(0, 0, size.Width, size.Height))
		interp.Transform(dst, m, src, src.Rect, draw.Src, nil)
	}

	out := buffer.New(dst)
	buf.Release()
	return out
}

// orient flips then rotates src clockwise by copying pixels. imaging's
// Rotate functions turn counter-clockwise.
func orient(src *image.NRGBA, flip bool, rotation int) *image.NRGBA {
	img := src
	if flip {
		img = imaging.FlipH(img)
	}
	switch rotation {
	case 90:
		img = imaging.Rotate270(img)
	case 180:
		img = imaging.Rotate180(img)
	case 270:
		img = imaging.Rotate90(img)
	}
	return img
}

// Matrix returns the source-to-destination transform for scale, then flip,
// then a clockwise rotation, translated so the result starts at the origin,
// together with the destination size.
func Matrix(src imagesize.Size, scale imagesize.Scale, flip bool, rotation int) (f64.Aff3, imagesize.Size) {
	m := identity
	if !scale.IsIdentity() {
		m = mul(f64.Aff3{scale.X, 0, 0, 0, scale.Y, 0}, m)
	}
	if flip {
		m = mul(f64.Aff3{-1, 0, 0, 0, 1, 0}, m)
	}
	if rotation = imagesize.NormalizeRotation(rotation); rotation != 0 {
		m = mul(rotate(rotation), m)
	}

	w, h := float64(src.Width), float64(src.Height)
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range [4][2]float64{{0, 0}, {w, 0}, {0, h}, {w, h}} {
		x, y := apply(m, p[0], p[1])
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	m[2] -= minX
	m[5] -= minY

	size := imagesize.New(
		max(int(math.Round(maxX-minX)), 1),
		max(int(math.Round(maxY-minY)), 1),
	)
	return m, size
}

// rotate returns a clockwise rotation in y-down image space. Quarter turns
// are exact.
func rotate(deg int) f64.Aff3 {
	switch deg {
	case 90:
		return f64.Aff3{0, -1, 0, 1, 0, 0}
	case 180:
		return f64.Aff3{-1, 0, 0, 0, -1, 0}
	case 270:
		return f64.Aff3{0, 1, 0, -1, 0, 0}
	}
	rad := float64(deg) * math.Pi / 180
	sin, cos := math.Sincos(rad)
	return f64.Aff3{cos, -sin, 0, sin, cos, 0}
}

// mul returns a∘b: the transform that applies b first, then a.
func mul(a, b f64.Aff3) f64.Aff3 {
	return f64.Aff3{
		a[0]*b[0] + a[1]*b[3],
		a[0]*b[1] + a[1]*b[4],
		a[0]*b[2] + a[1]*b[5] + a[2],
		a[3]*b[0] + a[4]*b[3],
		a[3]*b[1] + a[4]*b[4],
		a[3]*b[2] + a[4]*b[5] + a[5],
	}
}

func apply(m f64.Aff3, x, y float64) (float64, float64) {
	return m[0]*x + m[1]*y + m[2], m[3]*x + m[4]*y + m[5]
}

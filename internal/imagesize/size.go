// Package imagesize holds image dimensions and the sizing math used to pick a
// decode subsample factor and the exact scale applied after decoding.
package imagesize

import (
	"fmt"
	"math"
)

// Size is an immutable width/height pair in pixels.
type Size struct {
	Width  int
	Height int
}

// New returns a Size with the given dimensions.
func New(width, height int) Size {
	return Size{Width: width, Height: height}
}

// IsZero reports whether either dimension is non-positive.
func (s Size) IsZero() bool {
	return s.Width <= 0 || s.Height <= 0
}

// ScaleDown divides both dimensions by factor, rounding down and never going below 1.
func (s Size) ScaleDown(factor int) Size {
	if factor <= 1 {
		return s
	}
	return Size{Width: max(s.Width/factor, 1), Height: max(s.Height/factor, 1)}
}

// Scale multiplies both dimensions by f, rounding to the nearest pixel.
func (s Size) Scale(f float64) Size {
	return s.ScaleXY(f, f)
}

// ScaleXY multiplies width by sx and height by sy, rounding to the nearest pixel.
func (s Size) ScaleXY(sx, sy float64) Size {
	return Size{
		Width:  max(int(math.Round(float64(s.Width)*sx)), 1),
		Height: max(int(math.Round(float64(s.Height)*sy)), 1),
	}
}

// Rotate returns the size as seen after a clockwise rotation by deg degrees.
// Quarter turns swap the axes.
func (s Size) Rotate(deg int) Size {
	if NormalizeRotation(deg)%180 == 90 {
		return Size{Width: s.Height, Height: s.Width}
	}
	return s
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// NormalizeRotation maps any angle to [0, 360).
func NormalizeRotation(deg int) int {
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	return deg
}

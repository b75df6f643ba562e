package imagesize

import (
	"fmt"
	"math"
)

// scaleEpsilon is the tolerance under which a factor counts as exactly 1.
const scaleEpsilon = 1e-6

// Scale is a per-axis scale factor. Uniform scales have X == Y.
type Scale struct {
	X float64
	Y float64
}

// Identity is the no-op scale.
var Identity = Scale{X: 1, Y: 1}

// Uniform returns a scale with the same factor on both axes.
func Uniform(f float64) Scale {
	return Scale{X: f, Y: f}
}

// IsIdentity reports whether both factors are 1 within floating tolerance.
func (s Scale) IsIdentity() bool {
	return math.Abs(s.X-1) < scaleEpsilon && math.Abs(s.Y-1) < scaleEpsilon
}

// IsUniform reports whether both axes share a factor.
func (s Scale) IsUniform() bool {
	return math.Abs(s.X-s.Y) < scaleEpsilon
}

// Swap exchanges the axes, used to move a scale across a quarter turn.
func (s Scale) Swap() Scale {
	return Scale{X: s.Y, Y: s.X}
}

// Apply scales size by s.
func (s Scale) Apply(size Size) Size {
	return size.ScaleXY(s.X, s.Y)
}

func (s Scale) String() string {
	if s.IsUniform() {
		return fmt.Sprintf("%.5f", s.X)
	}
	return fmt.Sprintf("%.5fx%.5f", s.X, s.Y)
}

// ComputeExactScale returns the factor that brings current onto target.
//
// Crop takes the larger of the per-axis factors and FitInside the smaller,
// so aspect ratio is preserved. With stretched the axes scale independently
// to hit target exactly. Degenerate sizes give Identity.
func ComputeExactScale(current, target Size, fit Fit, stretched bool) Scale {
	if current.IsZero() || target.IsZero() {
		return Identity
	}

	sx := float64(target.Width) / float64(current.Width)
	sy := float64(target.Height) / float64(current.Height)

	if stretched {
		return Scale{X: sx, Y: sy}
	}
	if fit == Crop {
		return Uniform(math.Max(sx, sy))
	}
	return Uniform(math.Min(sx, sy))
}

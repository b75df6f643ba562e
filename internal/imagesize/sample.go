package imagesize

import "math"

// SampleOptions tunes ComputeSampleSize beyond the basic fit rules.
type SampleOptions struct {
	// MaxDimension caps the subsampled raster on both axes. Zero disables the cap.
	MaxDimension int
}

// ComputeSampleSize returns the integer subsample factor for decoding native
// so that the result stays close to target.
//
// Crop binds to the smaller per-axis ratio so the image still covers the box,
// FitInside binds to the larger one so it still fits inside it. With
// powerOfTwo the factor is the largest power of two not above the binding
// ratio. The result is always at least 1.
func ComputeSampleSize(native, target Size, fit Fit, powerOfTwo bool) int {
	return ComputeSampleSizeWith(native, target, fit, powerOfTwo, SampleOptions{})
}

// ComputeSampleSizeWith is ComputeSampleSize with an optional dimension cap.
func ComputeSampleSizeWith(native, target Size, fit Fit, powerOfTwo bool, opts SampleOptions) int {
	if native.IsZero() {
		return 1
	}

	sample := 1
	if !target.IsZero() {
		rw := float64(native.Width) / float64(target.Width)
		rh := float64(native.Height) / float64(target.Height)

		ratio := math.Max(rw, rh)
		if fit == Crop {
			ratio = math.Min(rw, rh)
		}

		if powerOfTwo {
			sample = largestPowerOfTwo(ratio)
		} else {
			sample = max(int(math.Floor(ratio)), 1)
		}
	}

	if opts.MaxDimension > 0 {
		sample = capToDimension(native, sample, powerOfTwo, opts.MaxDimension)
	}
	return sample
}

// largestPowerOfTwo returns the largest power of two <= r, at least 1.
func largestPowerOfTwo(r float64) int {
	p := 1
	for float64(p*2) <= r {
		p *= 2
	}
	return p
}

func capToDimension(native Size, sample int, powerOfTwo bool, limit int) int {
	for native.Width/sample > limit || native.Height/sample > limit {
		if powerOfTwo {
			sample *= 2
		} else {
			sample++
		}
	}
	return sample
}

package imagesize

import (
	"fmt"
	"strings"
)

// Fit describes how a source aspect ratio maps onto a target box.
type Fit int

const (
	// FitInside keeps the whole image inside the target box; one axis may underflow.
	FitInside Fit = iota
	// Crop covers the whole target box; one axis may overflow.
	Crop
)

func (f Fit) String() string {
	switch f {
	case FitInside:
		return "fit"
	case Crop:
		return "crop"
	default:
		return fmt.Sprintf("Fit(%d)", int(f))
	}
}

// ParseFit accepts "fit", "fit-inside", "inside" or "crop".
func ParseFit(s string) (Fit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fit", "fit-inside", "fit_inside", "inside":
		return FitInside, nil
	case "crop":
		return Crop, nil
	}
	return FitInside, fmt.Errorf("unknown fit %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (f Fit) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Fit) UnmarshalText(b []byte) error {
	v, err := ParseFit(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

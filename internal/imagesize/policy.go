package imagesize

import (
	"fmt"
	"strings"
)

// ScalePolicy selects how hard the decoder works to hit the target size.
type ScalePolicy int

const (
	// ScaleNone decodes at native size and skips every scaling step.
	ScaleNone ScalePolicy = iota
	// ScaleApproximate only subsamples during decode.
	ScaleApproximate
	// ScaleExact subsamples, then scales uniformly onto the target.
	ScaleExact
	// ScaleExactStretched subsamples, then scales each axis onto the target.
	ScaleExactStretched
)

var scalePolicyNames = map[ScalePolicy]string{
	ScaleNone:           "none",
	ScaleApproximate:    "approximate",
	ScaleExact:          "exact",
	ScaleExactStretched: "exact-stretched",
}

func (p ScalePolicy) String() string {
	if n, ok := scalePolicyNames[p]; ok {
		return n
	}
	return fmt.Sprintf("ScalePolicy(%d)", int(p))
}

// Exact reports whether the policy scales after decoding.
func (p ScalePolicy) Exact() bool {
	return p == ScaleExact || p == ScaleExactStretched
}

// ParseScalePolicy parses the String form of a ScalePolicy.
func ParseScalePolicy(s string) (ScalePolicy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for p, n := range scalePolicyNames {
		if s == n || s == strings.ReplaceAll(n, "-", "_") {
			return p, nil
		}
	}
	return ScaleNone, fmt.Errorf("unknown scale policy %q", s)
}

func (p ScalePolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *ScalePolicy) UnmarshalText(b []byte) error {
	v, err := ParseScalePolicy(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// SubsamplePolicy restricts the decode subsample factor.
type SubsamplePolicy int

const (
	// SubsampleFree allows any integer factor.
	SubsampleFree SubsamplePolicy = iota
	// SubsamplePowerOfTwo allows only powers of two.
	SubsamplePowerOfTwo
)

func (p SubsamplePolicy) String() string {
	switch p {
	case SubsampleFree:
		return "free"
	case SubsamplePowerOfTwo:
		return "power-of-two"
	}
	return fmt.Sprintf("SubsamplePolicy(%d)", int(p))
}

// ParseSubsamplePolicy accepts "free", "int", "power-of-two" or "pow2".
func ParseSubsamplePolicy(s string) (SubsamplePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "free", "int":
		return SubsampleFree, nil
	case "power-of-two", "power_of_two", "pow2":
		return SubsamplePowerOfTwo, nil
	}
	return SubsampleFree, fmt.Errorf("unknown subsample policy %q", s)
}

func (p SubsamplePolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *SubsamplePolicy) UnmarshalText(b []byte) error {
	v, err := ParseSubsamplePolicy(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

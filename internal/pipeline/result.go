package pipeline

import (
	"errors"

	"github.com/AnyUserName/tgimg-decode/internal/buffer"
	"github.com/AnyUserName/tgimg-decode/internal/imagesize"
	"github.com/AnyUserName/tgimg-decode/internal/orientation"
	"github.com/AnyUserName/tgimg-decode/internal/probe"
)

var (
	// ErrSourceUnavailable wraps I/O failures obtaining or reading a source.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrUnsupportedScheme is returned for URIs with an unreadable scheme.
	ErrUnsupportedScheme = errors.New("unsupported scheme")
	// ErrDecodeFailure classifies a result with no raster. Decode never
	// returns it; see Result.Err.
	ErrDecodeFailure = errors.New("image can't be decoded")
)

// Outcome classifies a completed decode.
type Outcome int

const (
	OutcomeDecoded Outcome = iota
	OutcomeDecodeFailure
	// OutcomeInspected marks a readable source planned by Inspect without
	// decoding pixels.
	OutcomeInspected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDecoded:
		return "decoded"
	case OutcomeInspected:
		return "inspected"
	}
	return "decode-failure"
}

// Result is what a decode produced. Buffer is non-nil exactly when Outcome
// is OutcomeDecoded, and the caller owns it.
type Result struct {
	Buffer      *buffer.Buffer
	Outcome     Outcome
	Probe       probe.Info
	Orientation orientation.Info
	SampleSize  int
	// Scale is the exact scale in displayed (post-rotation) axes.
	Scale imagesize.Scale
}

// Err returns ErrDecodeFailure for failed decodes and nil otherwise.
func (r *Result) Err() error {
	if r.Outcome == OutcomeDecodeFailure {
		return ErrDecodeFailure
	}
	return nil
}

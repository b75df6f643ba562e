// Package probe learns an image's native size and media type from its
// header without decoding pixels.
package probe

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/AnyUserName/tgimg-decode/internal/codec"
	"github.com/AnyUserName/tgimg-decode/internal/imagesize"
	"github.com/AnyUserName/tgimg-decode/internal/logging"
)

// Info is the result of a bounds-only read. A zero Size means the header
// was not recognised.
type Info struct {
	Size imagesize.Size
	MIME string
}

// Valid reports whether the header yielded usable dimensions.
func (i Info) Valid() bool {
	return !i.Size.IsZero()
}

// Prober reads image headers through a codec.
type Prober struct {
	codec codec.Codec
	log   *slog.Logger
}

// New returns a Prober over c. A nil logger discards.
func New(c codec.Codec, log *slog.Logger) *Prober {
	if log == nil {
		log = logging.Discard()
	}
	return &Prober{codec: c, log: log}
}

// Probe reads the header of r and seeks r back to its start so the full
// decode sees the whole stream. An unrecognised header is reported as a
// zero Info, not an error; only a failed rewind is.
func (p *Prober) Probe(r io.ReadSeeker) (Info, error) {
	b, err := p.codec.DecodeBounds(r)
	if _, serr := r.Seek(0, io.SeekStart); serr != nil {
		return Info{}, fmt.Errorf("rewind after probe: %w", serr)
	}
	if err != nil {
		p.log.Debug("no image header", "err", err)
		return Info{}, nil
	}
	return Info{Size: b.Size(), MIME: b.MIME}, nil
}

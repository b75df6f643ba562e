package codec

import (
	"io"
	"log/slog"

	"github.com/AnyUserName/tgimg-decode/internal/buffer"
	"github.com/AnyUserName/tgimg-decode/internal/logging"
)

// StreamDecoder runs a full decode and always closes the stream it is given.
type StreamDecoder struct {
	codec Codec
	log   *slog.Logger
}

// NewStreamDecoder returns a StreamDecoder over c. A nil logger discards.
func NewStreamDecoder(c Codec, log *slog.Logger) *StreamDecoder {
	if log == nil {
		log = logging.Discard()
	}
	return &StreamDecoder{codec: c, log: log}
}

// Decode decodes rc at sampleSize and closes rc on every path. It returns
// nil when the codec produces no raster.
func (d *StreamDecoder) Decode(rc io.ReadCloser, sampleSize int, opts Options) *buffer.Buffer {
	defer rc.Close()

	buf, err := d.codec.DecodeFull(rc, max(sampleSize, 1), opts)
	if err != nil {
		d.log.Debug("codec failed", "sample", sampleSize, "err", err)
		return nil
	}
	return buf
}

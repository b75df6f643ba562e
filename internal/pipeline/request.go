package pipeline

import (
	"net/http"

	"github.com/AnyUserName/tgimg-decode/internal/codec"
	"github.com/AnyUserName/tgimg-decode/internal/imagesize"
)

// Request describes one decode. It is built per call and never mutated by
// the decoder.
type Request struct {
	// URI locates the source: file://, http:// or https://.
	URI string
	// Identifier tags diagnostics; it defaults to URI.
	Identifier string
	Target     imagesize.Size
	Fit        imagesize.Fit
	Scale      imagesize.ScalePolicy
	Subsample  imagesize.SubsamplePolicy
	// Codec is handed to the codec as is.
	Codec codec.Options
	// Headers are sent with remote fetches.
	Headers http.Header
}

func (r Request) id() string {
	if r.Identifier != "" {
		return r.Identifier
	}
	return r.URI
}

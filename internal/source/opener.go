package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

var (
	// ErrUnsupportedScheme is returned for URIs the opener cannot read.
	ErrUnsupportedScheme = errors.New("unsupported URI scheme")
	// ErrUnavailable wraps I/O failures while obtaining a stream.
	ErrUnavailable = errors.New("source unavailable")
)

// DefaultMaxBytes bounds how much of a remote body is buffered.
const DefaultMaxBytes = 64 << 20

// Opener turns URIs into readable streams.
type Opener struct {
	Client   *http.Client
	MaxBytes int64
}

// NewOpener returns an Opener with a 30s HTTP timeout.
func NewOpener() *Opener {
	return &Opener{
		Client:   &http.Client{Timeout: 30 * time.Second},
		MaxBytes: DefaultMaxBytes,
	}
}

// Open returns a stream for uri. The caller owns the returned closer.
// Remote bodies are buffered in memory so the stream can seek.
func (o *Opener) Open(ctx context.Context, uri string, headers http.Header) (io.ReadCloser, error) {
	switch OfURI(uri) {
	case File:
		f, err := os.Open(File.Crop(uri))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return f, nil
	case HTTP, HTTPS:
		return o.fetch(ctx, uri, headers)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, uri)
	}
}

func (o *Opener) fetch(ctx context.Context, uri string, headers http.Header) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrUnavailable, err)
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	client := o.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: GET %s: status %d", ErrUnavailable, uri, resp.StatusCode)
	}

	limit := o.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrUnavailable, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrUnavailable, limit)
	}
	return memStream{bytes.NewReader(data)}, nil
}

// memStream is a buffered remote body; closing it is a no-op.
type memStream struct {
	*bytes.Reader
}

func (memStream) Close() error { return nil }

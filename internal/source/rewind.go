package source

import (
	"bytes"
	"errors"
	"io"
)

// ErrRewound is returned when a Rewindable is rewound a second time.
var ErrRewound = errors.New("stream already rewound")

// ReadSeekCloser is the stream shape the decoder works with.
type ReadSeekCloser interface {
	io.ReadSeeker
	io.Closer
}

// Rewindable records everything read from a forward-only stream until the
// first seek to the start, then replays it ahead of the remaining bytes.
// Only a single rewind to offset 0 is supported.
type Rewindable struct {
	rc       io.ReadCloser
	buf      bytes.Buffer
	r        io.Reader
	rewound  bool
	consumed int64
}

// MakeSeekable returns rc unchanged when it already seeks, otherwise wraps
// it in a Rewindable.
func MakeSeekable(rc io.ReadCloser) ReadSeekCloser {
	if rsc, ok := rc.(ReadSeekCloser); ok {
		return rsc
	}
	if rs, ok := rc.(io.ReadSeeker); ok {
		return struct {
			io.ReadSeeker
			io.Closer
		}{rs, rc}
	}
	return NewRewindable(rc)
}

// NewRewindable wraps rc.
func NewRewindable(rc io.ReadCloser) *Rewindable {
	w := &Rewindable{rc: rc}
	w.r = io.TeeReader(rc, &w.buf)
	return w
}

func (w *Rewindable) Read(p []byte) (int, error) {
	n, err := w.r.Read(p)
	w.consumed += int64(n)
	return n, err
}

// Seek supports only (0, io.SeekStart) once, and (0, io.SeekCurrent) to
// report the position.
func (w *Rewindable) Seek(offset int64, whence int) (int64, error) {
	switch {
	case offset == 0 && whence == io.SeekCurrent:
		return w.consumed, nil
	case offset == 0 && whence == io.SeekStart:
		if w.rewound {
			return 0, ErrRewound
		}
		w.rewound = true
		w.r = io.MultiReader(bytes.NewReader(w.buf.Bytes()), w.rc)
		w.consumed = 0
		return 0, nil
	}
	return 0, errors.New("rewindable: unsupported seek")
}

// Close closes the underlying stream.
func (w *Rewindable) Close() error {
	return w.rc.Close()
}

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnyUserName/tgimg-decode/internal/buffer"
	"github.com/AnyUserName/tgimg-decode/internal/codec"
	"github.com/AnyUserName/tgimg-decode/internal/imagesize"
	"github.com/AnyUserName/tgimg-decode/internal/orientation"
	"github.com/AnyUserName/tgimg-decode/internal/source"
	"github.com/AnyUserName/tgimg-decode/internal/testutil"
)

func fileURI(t *testing.T, name string, data []byte) string {
	t.Helper()
	return source.File.Wrap(testutil.WriteFile(t.TempDir(), name, data))
}

// trackingOpener serves fixed bytes as a forward-only stream and counts closes.
type trackingOpener struct {
	data   []byte
	mu     sync.Mutex
	closes int
}

func (o *trackingOpener) Open(context.Context, string, http.Header) (io.ReadCloser, error) {
	return &countingCloser{Reader: bytes.NewBuffer(o.data), o: o}, nil
}

type countingCloser struct {
	io.Reader
	o *trackingOpener
}

func (c *countingCloser) Close() error {
	c.o.mu.Lock()
	c.o.closes++
	c.o.mu.Unlock()
	return nil
}

type recordedApply struct {
	scale    imagesize.Scale
	flip     bool
	rotation int
}

type recordingTransformer struct {
	calls []recordedApply
}

func (r *recordingTransformer) Apply(buf *buffer.Buffer, scale imagesize.Scale, flip bool, rotation int) *buffer.Buffer {
	r.calls = append(r.calls, recordedApply{scale, flip, rotation})
	return buf
}

type fixedOrientation orientation.Info

func (f fixedOrientation) Resolve(string, string) orientation.Info { return orientation.Info(f) }

type nilStream struct{}

func (nilStream) Decode(rc io.ReadCloser, _ int, _ codec.Options) *buffer.Buffer {
	rc.Close()
	return nil
}

func TestDecode_OrientedJPEGFromFile(t *testing.T) {
	jpg := testutil.WithOrientation(testutil.JPEG(testutil.Quadrants(200, 100)), int(orientation.Rotate90))
	uri := fileURI(t, "rotated.jpg", jpg)

	res, err := New(Config{}, nil).Decode(context.Background(), Request{
		URI:       uri,
		Target:    imagesize.New(50, 50),
		Fit:       imagesize.Crop,
		Scale:     imagesize.ScaleExact,
		Subsample: imagesize.SubsamplePowerOfTwo,
	})
	require.NoError(t, err)
	require.NoError(t, res.Err())
	require.NotNil(t, res.Buffer)

	assert.Equal(t, imagesize.New(200, 100), res.Probe.Size)
	assert.Equal(t, "image/jpeg", res.Probe.MIME)
	assert.Equal(t, orientation.Info{Rotation: 90}, res.Orientation)
	assert.Equal(t, 2, res.SampleSize)
	assert.True(t, res.Scale.IsIdentity())
	assert.Equal(t, imagesize.New(50, 100), res.Buffer.Size())

	// Red was top-left; a clockwise quarter turn puts it top-right.
	c := res.Buffer.Image().NRGBAAt(40, 10)
	assert.Greater(t, int(c.R), 200)
	assert.Less(t, int(c.G), 60)
	assert.Less(t, int(c.B), 60)
}

func TestDecode_ExactFitInsideScale(t *testing.T) {
	uri := fileURI(t, "wide.png", testutil.PNG(testutil.Gradient(1000, 500)))

	res, err := New(Config{}, nil).Decode(context.Background(), Request{
		URI:       uri,
		Target:    imagesize.New(100, 100),
		Fit:       imagesize.FitInside,
		Scale:     imagesize.ScaleExact,
		Subsample: imagesize.SubsamplePowerOfTwo,
	})
	require.NoError(t, err)
	// max(10, 5) = 10 -> 8, 1000x500 -> 125x62, then 0.8 -> 100x50.
	assert.Equal(t, 8, res.SampleSize)
	assert.InDelta(t, 0.8, res.Scale.X, 1e-9)
	assert.Equal(t, imagesize.New(100, 50), res.Buffer.Size())
}

func TestDecode_ApproximateOnlySubsamples(t *testing.T) {
	uri := fileURI(t, "wide.png", testutil.PNG(testutil.Gradient(1000, 500)))

	res, err := New(Config{}, nil).Decode(context.Background(), Request{
		URI:       uri,
		Target:    imagesize.New(100, 100),
		Fit:       imagesize.Crop,
		Scale:     imagesize.ScaleApproximate,
		Subsample: imagesize.SubsamplePowerOfTwo,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, res.SampleSize)
	assert.True(t, res.Scale.IsIdentity())
	assert.Equal(t, imagesize.New(250, 125), res.Buffer.Size())
}

func TestDecode_ScaleNoneSkipsScaling(t *testing.T) {
	uri := fileURI(t, "wide.png", testutil.PNG(testutil.Gradient(300, 200)))
	tr := &recordingTransformer{}

	res, err := New(Config{}, nil, WithTransformer(tr)).Decode(context.Background(), Request{
		URI:    uri,
		Target: imagesize.New(10, 10),
		Fit:    imagesize.Crop,
		Scale:  imagesize.ScaleNone,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.SampleSize)
	assert.Equal(t, imagesize.New(300, 200), res.Buffer.Size())
	require.Len(t, tr.calls, 1)
	assert.True(t, tr.calls[0].scale.IsIdentity())
}

func TestDecode_StretchedScaleIsSwappedForQuarterTurns(t *testing.T) {
	opener := &trackingOpener{data: testutil.PNG(testutil.Gradient(100, 50))}
	tr := &recordingTransformer{}

	res, err := New(Config{}, nil,
		WithOpener(opener),
		WithOrientation(fixedOrientation{Rotation: 90, FlipHorizontal: true}),
		WithTransformer(tr),
	).Decode(context.Background(), Request{
		URI:    "file:///virtual.png",
		Target: imagesize.New(100, 25),
		Fit:    imagesize.Crop,
		Scale:  imagesize.ScaleExactStretched,
	})
	require.NoError(t, err)

	// Displayed size is 50x100; stretching to 100x25 gives X=2, Y=0.25.
	assert.InDelta(t, 2.0, res.Scale.X, 1e-9)
	assert.InDelta(t, 0.25, res.Scale.Y, 1e-9)

	require.Len(t, tr.calls, 1)
	assert.InDelta(t, 0.25, tr.calls[0].scale.X, 1e-9)
	assert.InDelta(t, 2.0, tr.calls[0].scale.Y, 1e-9)
	assert.True(t, tr.calls[0].flip)
	assert.Equal(t, 90, tr.calls[0].rotation)
	assert.Equal(t, 1, opener.closes)
}

func TestDecode_InvalidHeaderIsDecodeFailure(t *testing.T) {
	uri := fileURI(t, "broken.jpg", []byte("this is not an image at all"))
	var logs bytes.Buffer
	log := slog.New(slog.NewTextHandler(&logs, nil))

	res, err := New(Config{}, log).Decode(context.Background(), Request{
		URI:        uri,
		Identifier: "broken-key",
		Target:     imagesize.New(10, 10),
		Scale:      imagesize.ScaleExact,
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeDecodeFailure, res.Outcome)
	assert.Nil(t, res.Buffer)
	assert.True(t, errors.Is(res.Err(), ErrDecodeFailure))
	assert.True(t, res.Probe.Size.IsZero())
	assert.Contains(t, logs.String(), "level=ERROR")
	assert.Contains(t, logs.String(), "id=broken-key")
}

func TestDecode_CodecFailureReleasesStream(t *testing.T) {
	opener := &trackingOpener{data: testutil.PNG(testutil.Gradient(20, 20))}

	res, err := New(Config{}, nil, WithOpener(opener), WithStreamDecoder(nilStream{})).
		Decode(context.Background(), Request{URI: "file:///x.png", Scale: imagesize.ScaleApproximate})
	require.NoError(t, err)
	assert.Equal(t, OutcomeDecodeFailure, res.Outcome)
	assert.Nil(t, res.Buffer)
	assert.Equal(t, 1, opener.closes)
}

func TestDecode_StreamClosedOnceOnSuccess(t *testing.T) {
	opener := &trackingOpener{data: testutil.PNG(testutil.Gradient(20, 20))}

	res, err := New(Config{}, nil, WithOpener(opener)).
		Decode(context.Background(), Request{URI: "file:///x.png", Target: imagesize.New(5, 5), Scale: imagesize.ScaleExact})
	require.NoError(t, err)
	assert.Equal(t, imagesize.New(5, 5), res.Buffer.Size())
	assert.Equal(t, 1, opener.closes)
}

func TestDecode_UnsupportedScheme(t *testing.T) {
	_, err := New(Config{}, nil).Decode(context.Background(), Request{URI: "content://media/1"})
	assert.True(t, errors.Is(err, ErrUnsupportedScheme))
	assert.False(t, errors.Is(err, ErrSourceUnavailable))
}

func TestDecode_MissingFile(t *testing.T) {
	_, err := New(Config{}, nil).Decode(context.Background(), Request{URI: "file:///does/not/exist.jpg"})
	assert.True(t, errors.Is(err, ErrSourceUnavailable))
}

func TestDecode_RemoteSourceIgnoresEXIF(t *testing.T) {
	jpg := testutil.WithOrientation(testutil.JPEG(testutil.Gradient(60, 30)), int(orientation.Rotate90))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(jpg)
	}))
	defer srv.Close()

	res, err := New(Config{}, nil).Decode(context.Background(), Request{URI: srv.URL + "/img.jpg"})
	require.NoError(t, err)
	assert.Equal(t, orientation.Default, res.Orientation)
	assert.Equal(t, imagesize.New(60, 30), res.Buffer.Size())
}

func TestDecode_DiagnosticsFlag(t *testing.T) {
	jpg := testutil.WithOrientation(testutil.JPEG(testutil.Gradient(64, 32)), int(orientation.Transpose))
	uri := fileURI(t, "t.jpg", jpg)
	req := Request{
		URI:        uri,
		Identifier: "req-7",
		Target:     imagesize.New(10, 10),
		Fit:        imagesize.Crop,
		Scale:      imagesize.ScaleExact,
		Subsample:  imagesize.SubsamplePowerOfTwo,
	}

	debug := &slog.HandlerOptions{Level: slog.LevelDebug}

	var on bytes.Buffer
	_, err := New(Config{LogDiagnostics: true}, slog.New(slog.NewTextHandler(&on, debug))).Decode(context.Background(), req)
	require.NoError(t, err)
	out := on.String()
	assert.Equal(t, 4, strings.Count(out, "level=DEBUG"))
	assert.Contains(t, out, "subsample original image")
	assert.Contains(t, out, "scale subsampled image")
	assert.Contains(t, out, "flip image horizontally")
	assert.Contains(t, out, "rotate image")
	assert.Contains(t, out, "rotation=90")
	assert.Equal(t, 4, strings.Count(out, "id=req-7"))

	var off bytes.Buffer
	_, err = New(Config{}, slog.New(slog.NewTextHandler(&off, debug))).Decode(context.Background(), req)
	require.NoError(t, err)
	assert.NotContains(t, off.String(), "subsample original image")

	// Diagnostics stay out of a non-verbose CLI log.
	var info bytes.Buffer
	_, err = New(Config{LogDiagnostics: true}, slog.New(slog.NewTextHandler(&info, nil))).Decode(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, info.String())
}

func TestDecode_Concurrent(t *testing.T) {
	uri := fileURI(t, "shared.png", testutil.PNG(testutil.Gradient(400, 300)))
	d := New(Config{}, nil)

	var wg sync.WaitGroup
	sizes := make([]imagesize.Size, 8)
	for i := range sizes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := d.Decode(context.Background(), Request{
				URI:    uri,
				Target: imagesize.New(40*(i+1), 30*(i+1)),
				Fit:    imagesize.FitInside,
				Scale:  imagesize.ScaleExact,
			})
			if err == nil && res.Buffer != nil {
				sizes[i] = res.Buffer.Size()
			}
		}(i)
	}
	wg.Wait()

	for i, s := range sizes {
		assert.Equal(t, imagesize.New(40*(i+1), 30*(i+1)), s)
	}
}

func TestInspect_ProbesWithoutDecoding(t *testing.T) {
	jpg := testutil.WithOrientation(testutil.JPEG(testutil.Gradient(400, 200)), int(orientation.Rotate270))
	uri := fileURI(t, "inspect.jpg", jpg)

	res, err := New(Config{}, nil, WithStreamDecoder(nilStream{})).Inspect(context.Background(), Request{
		URI:       uri,
		Target:    imagesize.New(50, 50),
		Fit:       imagesize.FitInside,
		Scale:     imagesize.ScaleExact,
		Subsample: imagesize.SubsampleFree,
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeInspected, res.Outcome)
	assert.NoError(t, res.Err())
	assert.Nil(t, res.Buffer)
	assert.Equal(t, imagesize.New(400, 200), res.Probe.Size)
	assert.Equal(t, 270, res.Orientation.Rotation)
	// Displayed 200x400 against 50x50: max(4, 8) = 8.
	assert.Equal(t, 8, res.SampleSize)
}

func TestInspect_InvalidHeader(t *testing.T) {
	uri := fileURI(t, "junk.png", []byte("junk"))
	res, err := New(Config{}, nil).Inspect(context.Background(), Request{URI: uri})
	require.NoError(t, err)
	assert.Equal(t, OutcomeDecodeFailure, res.Outcome)
}

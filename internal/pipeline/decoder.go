package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/AnyUserName/tgimg-decode/internal/buffer"
	"github.com/AnyUserName/tgimg-decode/internal/codec"
	"github.com/AnyUserName/tgimg-decode/internal/imagesize"
	"github.com/AnyUserName/tgimg-decode/internal/logging"
	"github.com/AnyUserName/tgimg-decode/internal/orientation"
	"github.com/AnyUserName/tgimg-decode/internal/probe"
	"github.com/AnyUserName/tgimg-decode/internal/source"
	"github.com/AnyUserName/tgimg-decode/internal/transform"
)

// Opener acquires the byte stream for a URI.
type Opener interface {
	Open(ctx context.Context, uri string, headers http.Header) (io.ReadCloser, error)
}

// Prober reads native size and media type, leaving r at its start.
type Prober interface {
	Probe(r io.ReadSeeker) (probe.Info, error)
}

// OrientationResolver reads the display correction for a source.
type OrientationResolver interface {
	Resolve(uri, mime string) orientation.Info
}

// StreamDecoder decodes a stream at a subsample factor and closes it.
type StreamDecoder interface {
	Decode(rc io.ReadCloser, sampleSize int, opts codec.Options) *buffer.Buffer
}

// Transformer applies scale, flip and rotation, taking ownership of buf.
type Transformer interface {
	Apply(buf *buffer.Buffer, scale imagesize.Scale, flip bool, rotation int) *buffer.Buffer
}

// SampleSizer picks the decode subsample factor.
type SampleSizer func(native, target imagesize.Size, fit imagesize.Fit, powerOfTwo bool) int

// ScaleCalculator picks the exact scale applied after decoding.
type ScaleCalculator func(current, target imagesize.Size, fit imagesize.Fit, stretched bool) imagesize.Scale

// Config holds the decoder's read-only settings.
type Config struct {
	// LogDiagnostics emits subsample, scale, flip and rotate events at debug
	// level.
	LogDiagnostics bool
	// MaxDimension caps the decoded raster on both axes. Zero disables it.
	MaxDimension int
	// Codec backs the default prober and stream decoder. Nil selects
	// codec.Default().
	Codec codec.Codec
}

// Option replaces one stage of the decoder.
type Option func(*Decoder)

func WithOpener(o Opener) Option                   { return func(d *Decoder) { d.opener = o } }
func WithProber(p Prober) Option                   { return func(d *Decoder) { d.prober = p } }
func WithOrientation(r OrientationResolver) Option { return func(d *Decoder) { d.orientation = r } }
func WithStreamDecoder(s StreamDecoder) Option     { return func(d *Decoder) { d.stream = s } }
func WithTransformer(t Transformer) Option         { return func(d *Decoder) { d.transform = t } }
func WithSampleSizer(f SampleSizer) Option         { return func(d *Decoder) { d.sampleSize = f } }
func WithScaleCalculator(f ScaleCalculator) Option {
	return func(d *Decoder) { d.exactScale = f }
}

// Decoder runs the decode pipeline: probe, orientation, subsample, decode,
// exact scale and orientation correction. It holds no per-request state and
// is safe for concurrent use.
type Decoder struct {
	cfg Config
	log *slog.Logger

	opener      Opener
	prober      Prober
	orientation OrientationResolver
	stream      StreamDecoder
	transform   Transformer
	sampleSize  SampleSizer
	exactScale  ScaleCalculator
}

// New builds a Decoder from cfg with the default stages, then applies opts.
// A nil logger discards.
func New(cfg Config, log *slog.Logger, opts ...Option) *Decoder {
	if log == nil {
		log = logging.Discard()
	}
	c := cfg.Codec
	if c == nil {
		c = codec.Default()
	}
	sampleOpts := imagesize.SampleOptions{MaxDimension: cfg.MaxDimension}

	d := &Decoder{
		cfg:         cfg,
		log:         log,
		opener:      source.NewOpener(),
		prober:      probe.New(c, log),
		orientation: orientation.NewResolver(log),
		stream:      codec.NewStreamDecoder(c, log),
		transform:   transform.New(),
		sampleSize: func(native, target imagesize.Size, fit imagesize.Fit, pow2 bool) int {
			return imagesize.ComputeSampleSizeWith(native, target, fit, pow2, sampleOpts)
		},
		exactScale: imagesize.ComputeExactScale,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode decodes req. It returns an error only when the source cannot be
// opened or read (ErrSourceUnavailable) or its scheme is not supported
// (ErrUnsupportedScheme). An undecodable image is a Result with
// OutcomeDecodeFailure and a nil Buffer.
func (d *Decoder) Decode(ctx context.Context, req Request) (*Result, error) {
	stream, err := d.open(ctx, req)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	res, err := d.plan(req, stream)
	if err != nil || res.Outcome == OutcomeDecodeFailure {
		return res, err
	}
	rotation := res.Orientation.Rotation

	if req.Scale != imagesize.ScaleNone {
		native := res.Probe.Size.Rotate(rotation)
		d.event("subsample original image", req,
			"native", native.String(),
			"subsampled", native.ScaleDown(res.SampleSize).String(),
			"sample", res.SampleSize)
	}

	buf := d.stream.Decode(stream, res.SampleSize, req.Codec)
	if buf == nil {
		return d.fail(req, res, "codec returned no image"), nil
	}

	if req.Scale.Exact() {
		current := buf.Size().Rotate(rotation)
		res.Scale = d.exactScale(current, req.Target, req.Fit, req.Scale == imagesize.ScaleExactStretched)
		if !res.Scale.IsIdentity() {
			d.event("scale subsampled image", req,
				"subsampled", current.String(),
				"target", res.Scale.Apply(current).String(),
				"scale", res.Scale.String())
		}
	}

	// The exact scale is measured in displayed axes but applied before the
	// rotation.
	scale := res.Scale
	if rotation%180 == 90 {
		scale = scale.Swap()
	}
	if res.Orientation.FlipHorizontal {
		d.event("flip image horizontally", req)
	}
	if rotation != 0 {
		d.event("rotate image", req, "rotation", rotation)
	}

	res.Buffer = d.transform.Apply(buf, scale, res.Orientation.FlipHorizontal, rotation)
	res.Outcome = OutcomeDecoded
	return res, nil
}

// Inspect runs the probe, orientation and subsample stages of req without
// decoding pixels. The Result never carries a Buffer; its Outcome is
// OutcomeInspected, or OutcomeDecodeFailure when the source has no readable
// header.
func (d *Decoder) Inspect(ctx context.Context, req Request) (*Result, error) {
	stream, err := d.open(ctx, req)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	res, err := d.plan(req, stream)
	if err != nil || res.Outcome == OutcomeDecodeFailure {
		return res, err
	}
	res.Outcome = OutcomeInspected
	return res, nil
}

func (d *Decoder) open(ctx context.Context, req Request) (*onceCloser, error) {
	rc, err := d.opener.Open(ctx, req.URI, req.Headers)
	if err != nil {
		if errors.Is(err, source.ErrUnsupportedScheme) {
			return nil, fmt.Errorf("%w: %w", ErrUnsupportedScheme, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	return &onceCloser{ReadSeekCloser: source.MakeSeekable(rc)}, nil
}

// plan probes the stream, resolves orientation and picks the sample size.
// The stream is left at its start.
func (d *Decoder) plan(req Request, stream io.ReadSeeker) (*Result, error) {
	res := &Result{SampleSize: 1, Scale: imagesize.Identity}

	info, err := d.prober.Probe(stream)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, req.URI, err)
	}
	res.Probe = info
	if !info.Valid() {
		return d.fail(req, res, "no image header"), nil
	}

	res.Orientation = d.orientation.Resolve(req.URI, info.MIME)

	if req.Scale != imagesize.ScaleNone {
		native := info.Size.Rotate(res.Orientation.Rotation)
		res.SampleSize = max(d.sampleSize(native, req.Target, req.Fit, req.Subsample == imagesize.SubsamplePowerOfTwo), 1)
	}
	return res, nil
}

func (d *Decoder) fail(req Request, res *Result, reason string) *Result {
	d.log.Error("image can't be decoded", "id", req.id(), "reason", reason)
	res.Outcome = OutcomeDecodeFailure
	res.Buffer = nil
	return res
}

func (d *Decoder) event(msg string, req Request, args ...any) {
	if !d.cfg.LogDiagnostics {
		return
	}
	d.log.Debug(msg, append([]any{"id", req.id()}, args...)...)
}

// onceCloser lets both the stream decoder and Decode's deferred cleanup
// close the stream while the underlying Close runs once.
type onceCloser struct {
	source.ReadSeekCloser
	once sync.Once
	err  error
}

func (c *onceCloser) Close() error {
	c.once.Do(func() { c.err = c.ReadSeekCloser.Close() })
	return c.err
}

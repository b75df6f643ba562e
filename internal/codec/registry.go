package codec

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/disintegration/imaging"

	"github.com/AnyUserName/tgimg-decode/internal/buffer"
	"github.com/AnyUserName/tgimg-decode/internal/imagesize"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrEmpty is returned when the decoded raster has no pixels.
var ErrEmpty = errors.New("decoded image is empty")

// Registry decodes every format registered with the image package:
// jpeg, png, gif, bmp, tiff and webp.
type Registry struct{}

// Default returns the registry-backed codec.
func Default() Codec {
	return Registry{}
}

// MIMEType maps an image package format name to its media type.
func MIMEType(format string) string {
	switch format {
	case "":
		return ""
	case "jpg":
		return "image/jpeg"
	default:
		return "image/" + format
	}
}

func (Registry) DecodeBounds(r io.Reader) (Bounds, error) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return Bounds{}, err
	}
	return Bounds{Width: cfg.Width, Height: cfg.Height, MIME: MIMEType(format)}, nil
}

// DecodeFull decodes the whole image, then box-filters it down by
// sampleSize. Only the first frame of animated formats is kept.
func (Registry) DecodeFull(r io.Reader, sampleSize int, opts Options) (*buffer.Buffer, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, ErrEmpty
	}
	if sampleSize <= 1 {
		return buffer.New(img), nil
	}

	dst := imagesize.New(b.Dx(), b.Dy()).ScaleDown(sampleSize)
	sub := imaging.Resize(img, dst.Width, dst.Height, opts.filter())
	if sub.Rect.Empty() {
		return nil, fmt.Errorf("subsample %dx%d by %d: %w", b.Dx(), b.Dy(), sampleSize, ErrEmpty)
	}
	return buffer.New(sub), nil
}

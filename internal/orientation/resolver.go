package orientation

import (
	"log/slog"
	"os"
	"strings"

	"github.com/rwcarlsen/goexif/exif"

	"github.com/AnyUserName/tgimg-decode/internal/logging"
	"github.com/AnyUserName/tgimg-decode/internal/source"
)

// exifMIMETypes lists the formats whose IFD0 can carry an Orientation tag.
var exifMIMETypes = map[string]bool{
	"image/jpeg": true,
	"image/tiff": true,
}

// Resolver reads orientation from local files. It never fails: anything
// unreadable degrades to Default with a warning.
type Resolver struct {
	log *slog.Logger
}

// NewResolver returns a Resolver logging to log. A nil logger discards.
func NewResolver(log *slog.Logger) *Resolver {
	if log == nil {
		log = logging.Discard()
	}
	return &Resolver{log: log}
}

// Applies reports whether uri and mime are eligible for orientation lookup.
func Applies(uri, mime string) bool {
	return exifMIMETypes[strings.ToLower(mime)] && source.OfURI(uri) == source.File
}

// Resolve returns the correction stored in the source's EXIF data.
func (r *Resolver) Resolve(uri, mime string) Info {
	if !Applies(uri, mime) {
		return Default
	}

	path := source.File.Crop(uri)
	f, err := os.Open(path)
	if err != nil {
		r.log.Warn("can't read EXIF tags", "uri", uri, "err", err)
		return Default
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		r.log.Warn("can't read EXIF tags", "uri", uri, "err", err)
		return Default
	}

	tag, err := x.Get(exif.Orientation)
	if err != nil {
		r.log.Warn("can't read EXIF orientation", "uri", uri, "err", err)
		return Default
	}
	v, err := tag.Int(0)
	if err != nil {
		r.log.Warn("malformed EXIF orientation", "uri", uri, "err", err)
		return Default
	}

	info, ok := FromCode(Code(v))
	if !ok {
		r.log.Warn("unknown EXIF orientation", "uri", uri, "code", v)
	}
	return info
}

package encoder

import (
	"fmt"
	"path/filepath"
	"strings"
)

// priority is the output preference order, smallest files first.
var priority = []string{"avif", "webp", "jpeg", "png"}

// Registry maps format names to the encoders usable on this machine.
type Registry struct {
	byFormat map[string]Encoder
}

// NewRegistry registers the built-in encoders that report themselves
// available. External encoders depend on installed binaries.
func NewRegistry() *Registry {
	return NewRegistryWith(NewAVIF(), NewWebP(), NewJPEG(), NewPNG())
}

// NewRegistryWith registers the available encoders among encs. A later
// encoder for the same format replaces an earlier one.
func NewRegistryWith(encs ...Encoder) *Registry {
	r := &Registry{byFormat: make(map[string]Encoder, len(encs))}
	for _, enc := range encs {
		if enc.Available() {
			r.byFormat[enc.Format()] = enc
		}
	}
	return r
}

// normalizeFormat lower-cases f and maps extension aliases to format names.
func normalizeFormat(f string) string {
	f = strings.ToLower(strings.TrimSpace(f))
	switch f {
	case "jpg":
		return "jpeg"
	case "tif":
		return "tiff"
	}
	return f
}

// Get returns the encoder for format, or nil if unavailable.
func (r *Registry) Get(format string) Encoder {
	return r.byFormat[normalizeFormat(format)]
}

// ForPath picks the encoder matching the extension of an output path.
func (r *Registry) ForPath(path string) (Encoder, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return nil, fmt.Errorf("output %q has no extension", path)
	}
	enc := r.Get(ext)
	if enc == nil {
		return nil, fmt.Errorf("no encoder available for %q (%s)", ext, r)
	}
	return enc, nil
}

// Available lists the registered formats in priority order.
func (r *Registry) Available() []string {
	var out []string
	for _, f := range priority {
		if r.byFormat[f] != nil {
			out = append(out, f)
		}
	}
	return out
}

// ResolveFormats keeps the requested formats that have an encoder, in
// request order without duplicates. It falls back to jpeg (png for alpha)
// when nothing is left, and always adds png for rasters with alpha.
func (r *Registry) ResolveFormats(requested []string, hasAlpha bool) []string {
	var out []string
	seen := map[string]bool{}
	add := func(f string) {
		if !seen[f] && r.byFormat[f] != nil {
			seen[f] = true
			out = append(out, f)
		}
	}

	for _, f := range requested {
		add(normalizeFormat(f))
	}
	if len(out) == 0 && !hasAlpha {
		add("jpeg")
	}
	if hasAlpha {
		add("png")
	}
	return out
}

// String summarizes the available encoders.
func (r *Registry) String() string {
	avail := r.Available()
	if len(avail) == 0 {
		return "no encoders available"
	}
	return "encoders: " + strings.Join(avail, ", ")
}

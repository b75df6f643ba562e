// Package source acquires image byte streams by URI and makes them
// rewindable for a bounds probe followed by a full decode.
package source

import "strings"

// Scheme is a URI scheme the decoder knows how to read.
type Scheme string

const (
	HTTP    Scheme = "http"
	HTTPS   Scheme = "https"
	File    Scheme = "file"
	Unknown Scheme = ""
)

var known = []Scheme{HTTP, HTTPS, File}

// OfURI returns the scheme of uri, or Unknown.
func OfURI(uri string) Scheme {
	for _, s := range known {
		if s.belongsTo(uri) {
			return s
		}
	}
	return Unknown
}

func (s Scheme) prefix() string {
	return string(s) + "://"
}

func (s Scheme) belongsTo(uri string) bool {
	return len(uri) >= len(s.prefix()) && strings.EqualFold(uri[:len(s.prefix())], s.prefix())
}

// Wrap prepends the scheme to path.
func (s Scheme) Wrap(path string) string {
	return s.prefix() + path
}

// Crop strips the scheme prefix from uri. It returns uri unchanged when the
// scheme does not match.
func (s Scheme) Crop(uri string) string {
	if !s.belongsTo(uri) {
		return uri
	}
	return uri[len(s.prefix()):]
}

func (s Scheme) String() string {
	if s == Unknown {
		return "unknown"
	}
	return string(s)
}

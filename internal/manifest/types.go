package manifest

import "github.com/AnyUserName/tgimg-decode/internal/orientation"

// FileName is the manifest name inside a build output directory.
const FileName = "tgimg.manifest.json"

// SupportedManifestVersion is the current schema version.
const SupportedManifestVersion = 2

// Manifest is the top-level output of a tgimg-decode build.
type Manifest struct {
	Version     int              `json:"version"`
	GeneratedAt string           `json:"generated_at"`
	Profile     string           `json:"profile"`
	BasePath    string           `json:"base_path"`
	BuildInfo   *BuildInfo       `json:"build_info,omitempty"`
	Assets      map[string]Asset `json:"assets"`
	Failures    []Failure        `json:"failures,omitempty"`
	Stats       Stats            `json:"stats"`
}

// BuildInfo captures the decode parameters the build ran with.
type BuildInfo struct {
	Workers   int    `json:"workers"`
	Fit       string `json:"fit"`
	Scale     string `json:"scale"`
	Subsample string `json:"subsample"`
	MaxSide   int    `json:"max_side,omitempty"`
}

// Asset describes a single source image and the variants decoded from it.
type Asset struct {
	Original    OriginalInfo     `json:"original"`
	Orientation orientation.Info `json:"orientation"`
	AspectRatio float64          `json:"aspect_ratio"` // displayed width / height
	Variants    []Variant        `json:"variants"`
}

// OriginalInfo holds the probed source metadata, in stored (unrotated) axes.
type OriginalInfo struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	MIME     string `json:"mime"`
	Format   string `json:"format"`
	Size     int64  `json:"size"`
	HasAlpha bool   `json:"has_alpha"`
}

// Variant is one decoded and encoded output for a target box.
type Variant struct {
	Target     string  `json:"target"` // requested box, "WxH"
	SampleSize int     `json:"sample_size"`
	ScaleX     float64 `json:"scale_x"`
	ScaleY     float64 `json:"scale_y"`
	Format     string  `json:"format"` // "avif", "webp", "jpeg", "png"
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Size       int64   `json:"size"` // bytes on disk
	Hash       string  `json:"hash"` // 16 hex chars of xxhash64
	Path       string  `json:"path"` // relative to base_path
}

// Failure records a source that produced no asset.
type Failure struct {
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

// Stats aggregates build metrics.
type Stats struct {
	TotalInputBytes  int64 `json:"total_input_bytes"`
	TotalOutputBytes int64 `json:"total_output_bytes"`
	TotalAssets      int   `json:"total_assets"`
	TotalVariants    int   `json:"total_variants"`
	TotalFailures    int   `json:"total_failures,omitempty"`
	SkippedRegress   int   `json:"skipped_regress,omitempty"` // variants larger than the original
}

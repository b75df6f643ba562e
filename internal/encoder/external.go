package encoder

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
)

// Atomic counter for unique temp file names across goroutines.
var tempCounter atomic.Int64

// ExternalEncoder shells out to a command-line encoder that reads a PNG and
// writes the target format. This avoids CGO.
type ExternalEncoder struct {
	name    string
	binary  string
	install string
	// args builds the command line for quality, input and output paths.
	args func(quality int, src, dst string) []string

	once sync.Once
	path string
}

// NewWebP returns an encoder backed by cwebp.
// Install: brew install webp / apt install webp
func NewWebP() *ExternalEncoder {
	return &ExternalEncoder{
		name:    "webp",
		binary:  "cwebp",
		install: "brew install webp",
		args: func(q int, src, dst string) []string {
			return []string{
				"-q", strconv.Itoa(q),
				"-m", "6", // compression method (0=fast, 6=best)
				"-mt",
				"-quiet",
				src, "-o", dst,
			}
		},
	}
}

// NewAVIF returns an encoder backed by avifenc.
// Install: brew install libavif / apt install libavif-bin
func NewAVIF() *ExternalEncoder {
	return &ExternalEncoder{
		name:    "avif",
		binary:  "avifenc",
		install: "brew install libavif",
		args: func(q int, src, dst string) []string {
			// avifenc quantizers run 0 (best) to 63.
			avifQ := strconv.Itoa(63 - (q * 63 / 100))
			return []string{
				"--min", avifQ,
				"--max", avifQ,
				"--speed", "6",
				"-j", "all",
				src, dst,
			}
		},
	}
}

func (e *ExternalEncoder) Format() string    { return e.name }
func (e *ExternalEncoder) Extension() string { return e.name }

func (e *ExternalEncoder) Available() bool {
	e.once.Do(func() {
		if path, err := exec.LookPath(e.binary); err == nil {
			e.path = path
		}
	})
	return e.path != ""
}

func (e *ExternalEncoder) Encode(img image.Image, quality int) ([]byte, error) {
	if !e.Available() {
		return nil, fmt.Errorf("%s not found in PATH; install with: %s", e.binary, e.install)
	}

	id := tempCounter.Add(1)
	srcFile, err := os.CreateTemp("", fmt.Sprintf("tgimg_%s_src_%d_*.png", e.name, id))
	if err != nil {
		return nil, fmt.Errorf("create temp: %w", err)
	}
	srcPath := srcFile.Name()
	defer os.Remove(srcPath)

	if err := png.Encode(srcFile, img); err != nil {
		srcFile.Close()
		return nil, fmt.Errorf("encode temp png: %w", err)
	}
	if err := srcFile.Close(); err != nil {
		return nil, fmt.Errorf("close temp png: %w", err)
	}

	dstFile, err := os.CreateTemp("", fmt.Sprintf("tgimg_%s_dst_%d_*.%s", e.name, id, e.name))
	if err != nil {
		return nil, fmt.Errorf("create temp: %w", err)
	}
	dstPath := dstFile.Name()
	dstFile.Close()
	defer os.Remove(dstPath)

	cmd := exec.Command(e.path, e.args(clampQuality(quality), srcPath, dstPath)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", e.binary, err, string(out))
	}
	return os.ReadFile(dstPath)
}

//go:build ignore

// gen_fixtures creates small test images for the E2E smoke test, including
// one quadrant JPEG per EXIF orientation code.
// Usage: go run ./e2e/gen_fixtures.go <output_dir>
package main

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/AnyUserName/tgimg-decode/internal/orientation"
	"github.com/AnyUserName/tgimg-decode/internal/testutil"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: gen_fixtures <output_dir>")
		os.Exit(1)
	}
	dir := os.Args[1]
	count := 0
	write := func(name string, data []byte) {
		testutil.WriteFile(dir, name, data)
		count++
	}

	// Banner (JPEG, 1600x900) big enough to subsample for every target.
	write("banner.jpg", testutil.JPEG(testutil.Gradient(1600, 900)))

	// Camera-style shots: stored landscape, tagged with every orientation.
	quadrants := testutil.JPEG(testutil.Quadrants(640, 480))
	for code := orientation.Normal; code <= orientation.Rotate270; code++ {
		write(fmt.Sprintf("oriented/%d-%s.jpg", int(code), code), testutil.WithOrientation(quadrants, int(code)))
	}

	// Cards (PNG, 200x150 each)
	for i := 1; i <= 3; i++ {
		write(fmt.Sprintf("cards/card-%d.png", i), testutil.PNG(solidWithBorder(200, 150, uint8(i*60))))
	}

	// Small alpha image
	write("logo.png", testutil.PNG(alphaGradient(100, 100)))

	// Not an image: the build records it as a failure.
	write("broken.jpg", []byte("definitely not a jpeg"))

	fmt.Fprintf(os.Stderr, "[gen_fixtures] created %d fixtures in %s\n", count, filepath.Clean(dir))
}

func solidWithBorder(w, h int, base uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{R: base, G: base + 40, B: base + 80, A: 255}
			if x < 4 || x >= w-4 || y < 4 || y >= h-4 {
				c = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func alphaGradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: 220, G: 60, B: 30,
				A: uint8(x * 255 / w),
			})
		}
	}
	return img
}

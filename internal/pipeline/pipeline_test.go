package pipeline

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnyUserName/tgimg-decode/internal/encoder"
	"github.com/AnyUserName/tgimg-decode/internal/imagesize"
	"github.com/AnyUserName/tgimg-decode/internal/manifest"
	"github.com/AnyUserName/tgimg-decode/internal/orientation"
	"github.com/AnyUserName/tgimg-decode/internal/profile"
	"github.com/AnyUserName/tgimg-decode/internal/testutil"
)

func testProfile() profile.Profile {
	return profile.Profile{
		Name:      "test",
		Targets:   []profile.Target{{Width: 100, Height: 100}, {Width: 50, Height: 50}},
		Fit:       imagesize.FitInside,
		Scale:     imagesize.ScaleExact,
		Subsample: imagesize.SubsamplePowerOfTwo,
		Formats:   []string{"jpeg"},
		Quality:   80,
	}
}

func runBatch(t *testing.T, ctx context.Context, in string) (*manifest.Manifest, string, error) {
	t.Helper()
	out := t.TempDir()
	b := NewBatch(BatchConfig{
		InputDir:  in,
		OutputDir: out,
		Profile:   testProfile(),
		Workers:   2,
	}, New(Config{}, nil), encoder.NewRegistry(), nil)
	m, err := b.Run(ctx)
	return m, out, err
}

func jpegSizes(a manifest.Asset) []string {
	var sizes []string
	for _, v := range a.Variants {
		if v.Format == "jpeg" {
			sizes = append(sizes, imagesize.New(v.Width, v.Height).String())
		}
	}
	sort.Strings(sizes)
	return sizes
}

func TestScanImages(t *testing.T) {
	in := t.TempDir()
	testutil.WriteFile(in, "b.JPG", []byte("x"))
	testutil.WriteFile(in, "a/c.tif", []byte("x"))
	testutil.WriteFile(in, "notes.txt", []byte("x"))
	testutil.WriteFile(in, ".cache/d.png", []byte("x"))

	sources, err := ScanImages(in)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "a/c", sources[0].Key)
	assert.Equal(t, "tiff", sources[0].Format)
	assert.Equal(t, "b", sources[1].Key)
	assert.Equal(t, "jpeg", sources[1].Format)
	assert.Equal(t, "file://"+sources[1].AbsPath, sources[1].URI())
}

func TestBatch_BuildsOrientedVariants(t *testing.T) {
	in := t.TempDir()
	jpg := testutil.WithOrientation(testutil.JPEG(testutil.Gradient(400, 200)), int(orientation.Rotate90))
	testutil.WriteFile(in, "photos/rotated.jpg", jpg)
	testutil.WriteFile(in, "flat.png", testutil.PNG(testutil.Gradient(300, 300)))
	testutil.WriteFile(in, "broken.png", []byte("not an image"))

	m, out, err := runBatch(t, context.Background(), in)
	require.NoError(t, err)

	require.Len(t, m.Assets, 2)
	require.Len(t, m.Failures, 1)
	assert.Equal(t, "broken", m.Failures[0].Key)
	assert.Equal(t, 1, m.Stats.TotalFailures)

	rotated := m.Assets["photos/rotated"]
	assert.Equal(t, 400, rotated.Original.Width)
	assert.Equal(t, "image/jpeg", rotated.Original.MIME)
	assert.Equal(t, 90, rotated.Orientation.Rotation)
	assert.InDelta(t, 0.5, rotated.AspectRatio, 1e-9)
	// Displayed 200x400 fit inside 100x100 and 50x50.
	assert.Equal(t, []string{"25x50", "50x100"}, jpegSizes(rotated))
	for _, v := range rotated.Variants {
		assert.GreaterOrEqual(t, v.SampleSize, 1)
		assert.Contains(t, v.Path, "photos/rotated.")
	}

	flat := m.Assets["flat"]
	assert.Equal(t, []string{"100x100", "50x50"}, jpegSizes(flat))

	require.NotNil(t, m.BuildInfo)
	assert.Equal(t, "exact", m.BuildInfo.Scale)
	assert.Empty(t, m.Validate(out))
}

func TestBatch_AllFailed(t *testing.T) {
	in := t.TempDir()
	testutil.WriteFile(in, "a.png", []byte("junk"))
	testutil.WriteFile(in, "b.jpg", []byte("junk"))

	_, _, err := runBatch(t, context.Background(), in)
	assert.ErrorContains(t, err, "all 2 images failed")
}

func TestBatch_NoImages(t *testing.T) {
	_, _, err := runBatch(t, context.Background(), t.TempDir())
	assert.ErrorContains(t, err, "no images found")
}

func TestBatch_Cancelled(t *testing.T) {
	in := t.TempDir()
	testutil.WriteFile(in, "a.png", testutil.PNG(testutil.Gradient(20, 20)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := runBatch(t, ctx, in)
	assert.ErrorIs(t, err, context.Canceled)
}

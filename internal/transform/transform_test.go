package transform

import (
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnyUserName/tgimg-decode/internal/buffer"
	"github.com/AnyUserName/tgimg-decode/internal/imagesize"
	"github.com/AnyUserName/tgimg-decode/internal/testutil"
)

func assertSameImage(t *testing.T, want *image.NRGBA, got *image.NRGBA) {
	t.Helper()
	require.NotNil(t, got)
	require.Equal(t, want.Rect.Size(), got.Rect.Size())
	for y := 0; y < want.Rect.Dy(); y++ {
		for x := 0; x < want.Rect.Dx(); x++ {
			require.Equal(t, want.NRGBAAt(x, y), got.NRGBAAt(x, y), "pixel (%d,%d)", x, y)
		}
	}
}

func TestApply_IdentityReturnsSameBuffer(t *testing.T) {
	buf := buffer.New(testutil.Gradient(5, 3))
	img := buf.Image()

	out := New().Apply(buf, imagesize.Identity, false, 0)
	assert.Same(t, buf, out)
	assert.Same(t, img, out.Image())
	assert.False(t, buf.Released())

	out = New().Apply(buf, imagesize.Uniform(1.0000000001), false, 360)
	assert.Same(t, buf, out)
}

func TestApply_FlipOnly(t *testing.T) {
	src := testutil.Gradient(5, 3)
	buf := buffer.New(imaging.Clone(src))

	out := New().Apply(buf, imagesize.Identity, true, 0)
	assert.NotSame(t, buf, out)
	assert.True(t, buf.Released())
	assertSameImage(t, imaging.FlipH(src), out.Image())
}

func TestApply_RotationIsClockwise(t *testing.T) {
	src := testutil.Gradient(5, 3)

	cases := map[int]*image.NRGBA{
		90:  imaging.Rotate270(src),
		180: imaging.Rotate180(src),
		270: imaging.Rotate90(src),
	}
	for deg, want := range cases {
		out := New().Apply(buffer.New(imaging.Clone(src)), imagesize.Identity, false, deg)
		assertSameImage(t, want, out.Image())
	}
}

func TestApply_FlipsBeforeRotating(t *testing.T) {
	src := testutil.Gradient(5, 3)

	out := New().Apply(buffer.New(imaging.Clone(src)), imagesize.Identity, true, 90)
	flipThenRotate := imaging.Rotate270(imaging.FlipH(src))
	rotateThenFlip := imaging.FlipH(imaging.Rotate270(src))

	assertSameImage(t, flipThenRotate, out.Image())
	assert.NotEqual(t, rotateThenFlip.Pix, out.Image().Pix)
}

func TestApply_FourQuarterTurnsRoundTrip(t *testing.T) {
	src := testutil.Gradient(7, 4)
	buf := buffer.New(imaging.Clone(src))

	tr := New()
	for i := 0; i < 4; i++ {
		buf = tr.Apply(buf, imagesize.Identity, false, 90)
	}
	assertSameImage(t, src, buf.Image())
}

func TestApply_ScaleReleasesInput(t *testing.T) {
	in := buffer.New(testutil.Quadrants(250, 125))

	out := New().Apply(in, imagesize.Uniform(0.4), false, 0)
	assert.True(t, in.Released())
	assert.Nil(t, in.Image())
	assert.Equal(t, imagesize.New(100, 50), out.Size())
	assert.Equal(t, testutil.QuadrantColor(true, true), out.Image().NRGBAAt(10, 10))
	assert.Equal(t, testutil.QuadrantColor(false, false), out.Image().NRGBAAt(90, 40))
}

func TestApply_ScaleThenRotate(t *testing.T) {
	in := buffer.New(testutil.Quadrants(200, 100))

	out := New().Apply(in, imagesize.Uniform(0.5), false, 90)
	assert.Equal(t, imagesize.New(50, 100), out.Size())
	// Top-left red ends up top-right after a clockwise quarter turn.
	assert.Equal(t, testutil.QuadrantColor(true, true), out.Image().NRGBAAt(45, 5))
}

func TestApply_StretchedScale(t *testing.T) {
	out := New().Apply(buffer.New(testutil.Gradient(250, 125)), imagesize.Scale{X: 0.4, Y: 0.8}, false, 0)
	assert.Equal(t, imagesize.New(100, 100), out.Size())
}

func TestApply_ReleasedInput(t *testing.T) {
	buf := buffer.New(testutil.Gradient(2, 2))
	buf.Release()
	assert.Same(t, buf, New().Apply(buf, imagesize.Uniform(2), true, 90))
}

func TestMatrix_Sizes(t *testing.T) {
	_, size := Matrix(imagesize.New(250, 125), imagesize.Uniform(0.4), true, 270)
	assert.Equal(t, imagesize.New(50, 100), size)

	m, size := Matrix(imagesize.New(4, 2), imagesize.Identity, true, 0)
	assert.Equal(t, imagesize.New(4, 2), size)
	x, y := apply(m, 0, 0)
	assert.Equal(t, 4.0, x)
	assert.Equal(t, 0.0, y)
}

func translucent() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	px := []color.NRGBA{
		{201, 103, 57, 9}, {10, 250, 130, 128}, {255, 0, 0, 1},
		{0, 0, 0, 0}, {77, 66, 55, 254}, {1, 2, 3, 60},
	}
	for i, c := range px {
		img.SetNRGBA(i%3, i/3, c)
	}
	return img
}

func TestApply_OrientationKeepsTranslucentPixels(t *testing.T) {
	src := translucent()

	assertSameImage(t, imaging.FlipH(src),
		New().Apply(buffer.New(imaging.Clone(src)), imagesize.Identity, true, 0).Image())

	cases := map[int]*image.NRGBA{
		90:  imaging.Rotate270(imaging.FlipH(src)),
		180: imaging.Rotate180(imaging.FlipH(src)),
		270: imaging.Rotate90(imaging.FlipH(src)),
	}
	for deg, want := range cases {
		out := New().Apply(buffer.New(imaging.Clone(src)), imagesize.Identity, true, deg)
		assertSameImage(t, want, out.Image())
	}
}

func TestApply_ScaleKeepsStraightAlpha(t *testing.T) {
	want := color.NRGBA{R: 201, G: 103, B: 57, A: 9}
	src := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			src.SetNRGBA(x, y, want)
		}
	}

	out := New().Apply(buffer.New(src), imagesize.Uniform(0.5), false, 90).Image()
	require.Equal(t, image.Pt(4, 4), out.Rect.Size())
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			c := out.NRGBAAt(x, y)
			assert.InDelta(t, want.R, c.R, 1, "R at (%d,%d)", x, y)
			assert.InDelta(t, want.G, c.G, 1, "G at (%d,%d)", x, y)
			assert.InDelta(t, want.B, c.B, 1, "B at (%d,%d)", x, y)
			assert.Equal(t, want.A, c.A, "A at (%d,%d)", x, y)
		}
	}
}

package hasher

import (
	"bytes"
	"image"
	"testing"

	"github.com/AnyUserName/tgimg-decode/internal/testutil"
)

func TestContentHash_Length(t *testing.T) {
	full := ContentHash([]byte("tgimg"), 0)
	if len(full) != 16 {
		t.Fatalf("full hash length: got %d", len(full))
	}
	if short := ContentHash([]byte("tgimg"), 8); short != full[:8] {
		t.Errorf("truncated hash: got %q, want %q", short, full[:8])
	}
}

func TestContentHashReader_MatchesBytes(t *testing.T) {
	data := testutil.PNG(testutil.Gradient(10, 10))
	got, err := ContentHashReader(bytes.NewReader(data), 16)
	if err != nil {
		t.Fatal(err)
	}
	if want := ContentHash(data, 16); got != want {
		t.Errorf("reader hash %q != bytes hash %q", got, want)
	}
}

func TestPixelHash_IgnoresSubImageStride(t *testing.T) {
	big := testutil.Gradient(20, 20)
	sub := big.SubImage(image.Rect(5, 5, 15, 15)).(*image.NRGBA)

	copied := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			copied.SetNRGBA(x, y, big.NRGBAAt(x+5, y+5))
		}
	}

	if PixelHash(sub, 0) != PixelHash(copied, 0) {
		t.Error("equal rasters hashed differently")
	}
	if PixelHash(big, 0) == PixelHash(copied, 0) {
		t.Error("different rasters hashed equally")
	}
}

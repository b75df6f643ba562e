package hasher

import (
	"encoding/binary"
	"encoding/hex"
	"image"
	"io"

	"github.com/cespare/xxhash/v2"
)

// ContentHash computes the xxHash64 of data as hex, truncated to hexLen
// characters when 0 < hexLen < 16. Variant filenames use 16 hex chars.
func ContentHash(data []byte, hexLen int) string {
	return format(xxhash.Sum64(data), hexLen)
}

// ContentHashReader computes xxHash64 from a reader, streaming.
func ContentHashReader(r io.Reader, hexLen int) (string, error) {
	h := xxhash.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return format(h.Sum64(), hexLen), nil
}

// PixelHash hashes the dimensions and pixel rows of img, ignoring stride
// padding. Equal rasters hash equally whatever their encoding.
func PixelHash(img *image.NRGBA, hexLen int) string {
	h := xxhash.New()
	var dims [16]byte
	binary.BigEndian.PutUint64(dims[:8], uint64(img.Rect.Dx()))
	binary.BigEndian.PutUint64(dims[8:], uint64(img.Rect.Dy()))
	h.Write(dims[:])

	rowLen := img.Rect.Dx() * 4
	for y := img.Rect.Min.Y; y < img.Rect.Max.Y; y++ {
		off := img.PixOffset(img.Rect.Min.X, y)
		h.Write(img.Pix[off : off+rowLen])
	}
	return format(h.Sum64(), hexLen)
}

func format(sum uint64, hexLen int) string {
	full := hex.EncodeToString(binary.BigEndian.AppendUint64(nil, sum))
	if hexLen > 0 && hexLen < len(full) {
		return full[:hexLen]
	}
	return full
}

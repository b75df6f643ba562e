package pipeline

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/AnyUserName/tgimg-decode/internal/hasher"
	"github.com/AnyUserName/tgimg-decode/internal/manifest"
)

// processResult holds the outcome of processing a single source image.
type processResult struct {
	key            string
	asset          manifest.Asset
	err            error
	skippedRegress int // variants skipped because larger than the original
}

// processImage inspects one source, then decodes, encodes and writes a
// variant for every effective target of the profile.
func (b *Batch) processImage(ctx context.Context, src Source) processResult {
	result := processResult{key: src.Key}
	prof := b.cfg.Profile

	base := Request{
		URI:        src.URI(),
		Identifier: src.Key,
		Fit:        prof.Fit,
		Scale:      prof.Scale,
		Subsample:  prof.Subsample,
	}

	inspected, err := b.decoder.Inspect(ctx, base)
	if err != nil {
		result.err = fmt.Errorf("open %s: %w", src.RelPath, err)
		return result
	}
	if err := inspected.Err(); err != nil {
		result.err = fmt.Errorf("%s: %w", src.RelPath, err)
		return result
	}

	native := inspected.Probe.Size
	displayed := native.Rotate(inspected.Orientation.Rotation)
	result.asset = manifest.Asset{
		Original: manifest.OriginalInfo{
			Width:  native.Width,
			Height: native.Height,
			MIME:   inspected.Probe.MIME,
			Format: src.Format,
			Size:   src.Size,
		},
		Orientation: inspected.Orientation,
		AspectRatio: float64(displayed.Width) / float64(displayed.Height),
	}

	keyDir := path.Dir(src.Key)
	if keyDir != "." {
		if err := os.MkdirAll(filepath.Join(b.cfg.OutputDir, filepath.FromSlash(keyDir)), 0o755); err != nil {
			result.err = fmt.Errorf("create %s: %w", keyDir, err)
			return result
		}
	}

	rasters := map[string]bool{}
	var formats []string

	for _, target := range prof.EffectiveTargets(displayed) {
		req := base
		req.Target = target

		res, err := b.decoder.Decode(ctx, req)
		if err != nil {
			result.err = fmt.Errorf("decode %s@%s: %w", src.RelPath, target, err)
			return result
		}
		if err := res.Err(); err != nil {
			result.err = fmt.Errorf("decode %s@%s: %w", src.RelPath, target, err)
			return result
		}

		img := res.Buffer.Image()
		// Targets that land on the same raster would produce the same files.
		pixels := hasher.PixelHash(img, 16)
		if rasters[pixels] {
			res.Buffer.Release()
			continue
		}
		rasters[pixels] = true

		if formats == nil {
			result.asset.Original.HasAlpha = !img.Opaque()
			formats = b.registry.ResolveFormats(prof.Formats, result.asset.Original.HasAlpha)
		}

		w, h := res.Buffer.Width(), res.Buffer.Height()
		for _, format := range formats {
			enc := b.registry.Get(format)
			if enc == nil {
				continue
			}

			data, err := enc.Encode(img, prof.Quality)
			if err != nil {
				b.log.Warn("encode failed", "key", src.Key, "size", res.Buffer.Size().String(), "format", format, "err", err)
				continue
			}

			if b.cfg.NoRegressSize && int64(len(data)) >= src.Size {
				b.log.Debug("skip variant larger than original",
					"key", src.Key, "format", format, "encoded", len(data), "original", src.Size)
				result.skippedRegress++
				continue
			}

			contentHash := hasher.ContentHash(data, 16)
			relPath := path.Join(keyDir, fmt.Sprintf("%s.%d.%d.%s.%s",
				path.Base(src.Key), w, h, contentHash[:8], enc.Extension()))

			if err := os.WriteFile(filepath.Join(b.cfg.OutputDir, filepath.FromSlash(relPath)), data, 0o644); err != nil {
				res.Buffer.Release()
				result.err = fmt.Errorf("write %s: %w", relPath, err)
				return result
			}

			result.asset.Variants = append(result.asset.Variants, manifest.Variant{
				Target:     target.String(),
				SampleSize: res.SampleSize,
				ScaleX:     res.Scale.X,
				ScaleY:     res.Scale.Y,
				Format:     format,
				Width:      w,
				Height:     h,
				Size:       int64(len(data)),
				Hash:       contentHash,
				Path:       relPath,
			})
		}
		res.Buffer.Release()
	}

	return result
}

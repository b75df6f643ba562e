package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/AnyUserName/tgimg-decode/internal/hasher"
)

// Validate checks the manifest for internal consistency and verifies that
// every variant file exists under baseDir with its recorded size and
// content hash. It
// returns one message per problem, sorted by asset key.
func (m *Manifest) Validate(baseDir string) []string {
	var errs []string

	if m.Version != SupportedManifestVersion {
		errs = append(errs, fmt.Sprintf("unsupported manifest version: %d", m.Version))
	}

	keys := make([]string, 0, len(m.Assets))
	for k := range m.Assets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		errs = append(errs, validateAsset(key, m.Assets[key], baseDir)...)
	}

	variantCount := 0
	for _, a := range m.Assets {
		variantCount += len(a.Variants)
	}
	if m.Stats.TotalAssets != len(m.Assets) {
		errs = append(errs, fmt.Sprintf("stats.total_assets mismatch: %d != %d", m.Stats.TotalAssets, len(m.Assets)))
	}
	if m.Stats.TotalVariants != variantCount {
		errs = append(errs, fmt.Sprintf("stats.total_variants mismatch: %d != %d", m.Stats.TotalVariants, variantCount))
	}
	return errs
}

func validateAsset(key string, asset Asset, baseDir string) []string {
	var errs []string

	if asset.Original.Width <= 0 || asset.Original.Height <= 0 {
		errs = append(errs, fmt.Sprintf("asset %q: invalid original dimensions %dx%d",
			key, asset.Original.Width, asset.Original.Height))
	}
	switch asset.Orientation.Rotation {
	case 0, 90, 180, 270:
	default:
		errs = append(errs, fmt.Sprintf("asset %q: invalid rotation %d", key, asset.Orientation.Rotation))
	}
	if asset.AspectRatio <= 0 {
		errs = append(errs, fmt.Sprintf("asset %q: invalid aspect ratio %.4f", key, asset.AspectRatio))
	}
	if len(asset.Variants) == 0 {
		errs = append(errs, fmt.Sprintf("asset %q: no variants", key))
	}

	seenPaths := map[string]bool{}
	for i, v := range asset.Variants {
		if v.Format == "" {
			errs = append(errs, fmt.Sprintf("asset %q variant[%d]: empty format", key, i))
		}
		if v.Width <= 0 || v.Height <= 0 {
			errs = append(errs, fmt.Sprintf("asset %q variant[%d]: invalid dimensions %dx%d",
				key, i, v.Width, v.Height))
		}
		if v.SampleSize < 1 {
			errs = append(errs, fmt.Sprintf("asset %q variant[%d]: sample size %d < 1", key, i, v.SampleSize))
		}
		if v.ScaleX <= 0 || v.ScaleY <= 0 {
			errs = append(errs, fmt.Sprintf("asset %q variant[%d]: non-positive scale %gx%g",
				key, i, v.ScaleX, v.ScaleY))
		}
		if v.Hash == "" {
			errs = append(errs, fmt.Sprintf("asset %q variant[%d]: missing hash", key, i))
		}
		if v.Path == "" {
			errs = append(errs, fmt.Sprintf("asset %q variant[%d]: missing path", key, i))
			continue
		}

		if seenPaths[v.Path] {
			errs = append(errs, fmt.Sprintf("asset %q variant[%d]: duplicate path %q", key, i, v.Path))
		}
		seenPaths[v.Path] = true

		full := filepath.Join(baseDir, filepath.FromSlash(v.Path))
		info, err := os.Stat(full)
		if err != nil {
			errs = append(errs, fmt.Sprintf("asset %q variant[%d]: file not found: %s", key, i, v.Path))
			continue
		}
		if v.Size > 0 && info.Size() != v.Size {
			errs = append(errs, fmt.Sprintf("asset %q variant[%d]: size mismatch: manifest=%d, disk=%d",
				key, i, v.Size, info.Size()))
			continue
		}
		if v.Hash != "" {
			if got, err := fileHash(full, len(v.Hash)); err != nil {
				errs = append(errs, fmt.Sprintf("asset %q variant[%d]: hash %s: %v", key, i, v.Path, err))
			} else if got != v.Hash {
				errs = append(errs, fmt.Sprintf("asset %q variant[%d]: hash mismatch: manifest=%s, disk=%s",
					key, i, v.Hash, got))
			}
		}
	}
	return errs
}

func fileHash(path string, hexLen int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return hasher.ContentHashReader(f, hexLen)
}

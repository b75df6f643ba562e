package pipeline

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/AnyUserName/tgimg-decode/internal/source"
)

// Source is an image file discovered under a build input directory.
type Source struct {
	// AbsPath is the absolute path to the file on disk.
	AbsPath string
	// RelPath is the slash-separated path relative to the input directory.
	RelPath string
	// Key is the asset key: RelPath without its extension.
	Key string
	// Format is the normalized extension (jpeg, png, gif, webp, bmp, tiff).
	Format string
	// Size is the file size in bytes.
	Size int64
}

// URI returns the file:// URI the decoder opens.
func (s Source) URI() string {
	return source.File.Wrap(s.AbsPath)
}

var imageExtensions = map[string]string{
	".png":  "png",
	".jpg":  "jpeg",
	".jpeg": "jpeg",
	".webp": "webp",
	".gif":  "gif",
	".bmp":  "bmp",
	".tiff": "tiff",
	".tif":  "tiff",
}

// ScanImages walks inputDir, skipping hidden directories, and returns the
// image sources sorted by key.
func ScanImages(inputDir string) ([]Source, error) {
	var sources []Source

	err := filepath.WalkDir(inputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != inputDir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		format, ok := imageExtensions[ext]
		if !ok {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		relPath, err := filepath.Rel(inputDir, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		sources = append(sources, Source{
			AbsPath: path,
			RelPath: relPath,
			Key:     relPath[:len(relPath)-len(ext)],
			Format:  format,
			Size:    info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(sources, func(i, j int) bool { return sources[i].Key < sources[j].Key })
	return sources, nil
}

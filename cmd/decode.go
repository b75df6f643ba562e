package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/tgimg-decode/internal/encoder"
	"github.com/AnyUserName/tgimg-decode/internal/imagesize"
	"github.com/AnyUserName/tgimg-decode/internal/pipeline"
	"github.com/AnyUserName/tgimg-decode/internal/profile"
	"github.com/AnyUserName/tgimg-decode/internal/source"
)

// requestFlags are shared by decode and probe. Empty policy flags take the
// profile's value.
type requestFlags struct {
	profile   string
	width     int
	height    int
	fit       string
	scale     string
	subsample string
	maxSide   int
	headers   []string
}

func (f *requestFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.profile, "profile", "p", "telegram-webview", "profile supplying default policies")
	cmd.Flags().IntVar(&f.width, "width", 0, "target box width")
	cmd.Flags().IntVar(&f.height, "height", 0, "target box height")
	cmd.Flags().StringVar(&f.fit, "fit", "", "fit-inside or crop")
	cmd.Flags().StringVar(&f.scale, "scale", "", "none, approximate, exact or exact-stretched")
	cmd.Flags().StringVar(&f.subsample, "subsample", "", "free or power-of-two")
	cmd.Flags().IntVar(&f.maxSide, "max-side", 0, "cap on the decoded raster (0 = profile default)")
	cmd.Flags().StringArrayVarP(&f.headers, "header", "H", nil, "extra HTTP header for remote sources, \"Name: value\"")
}

// resolve builds the profile and request for uri.
func (f *requestFlags) resolve(uri string) (profile.Profile, pipeline.Request, error) {
	prof, err := profile.Find(f.profile)
	if err != nil {
		return prof, pipeline.Request{}, err
	}
	if f.maxSide > 0 {
		prof.MaxSide = f.maxSide
	}

	req := pipeline.Request{
		URI:       resolveURI(uri),
		Target:    imagesize.New(f.width, f.height),
		Fit:       prof.Fit,
		Scale:     prof.Scale,
		Subsample: prof.Subsample,
	}
	switch {
	case f.width < 0 || f.height < 0:
		return prof, req, fmt.Errorf("target %dx%d: sizes must be positive", f.width, f.height)
	case (f.width == 0) != (f.height == 0):
		return prof, req, fmt.Errorf("target %dx%d: set both --width and --height", f.width, f.height)
	case req.Target.IsZero() && len(prof.Targets) > 0:
		req.Target = prof.Targets[len(prof.Targets)-1].Size()
	}

	if f.fit != "" {
		if req.Fit, err = imagesize.ParseFit(f.fit); err != nil {
			return prof, req, err
		}
	}
	if f.scale != "" {
		if req.Scale, err = imagesize.ParseScalePolicy(f.scale); err != nil {
			return prof, req, err
		}
	}
	if f.subsample != "" {
		if req.Subsample, err = imagesize.ParseSubsamplePolicy(f.subsample); err != nil {
			return prof, req, err
		}
	}

	for _, h := range f.headers {
		name, value, ok := strings.Cut(h, ":")
		if !ok {
			return prof, req, fmt.Errorf("header %q: want \"Name: value\"", h)
		}
		if req.Headers == nil {
			req.Headers = http.Header{}
		}
		req.Headers.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}
	return prof, req, nil
}

// resolveURI turns a bare local path into a file:// URI.
func resolveURI(arg string) string {
	if source.OfURI(arg) != source.Unknown || strings.Contains(arg, "://") {
		return arg
	}
	if abs, err := filepath.Abs(arg); err == nil {
		return source.File.Wrap(abs)
	}
	return source.File.Wrap(arg)
}

func newDecoder(prof profile.Profile) *pipeline.Decoder {
	return pipeline.New(pipeline.Config{
		LogDiagnostics: verbose,
		MaxDimension:   prof.MaxSide,
	}, logger())
}

var (
	decodeFlags   requestFlags
	decodeOut     string
	decodeQuality int
)

var decodeCmd = &cobra.Command{
	Use:   "decode <uri>",
	Short: "Decode one image for a target box and write the result",
	Long: `Decodes a file path, file://, http:// or https:// URI close to the target
box, applies the exact scale and EXIF orientation, and encodes the raster
in the format implied by the output extension.`,
	Args: cobra.ExactArgs(1),
	RunE: runDecode,
}

func init() {
	decodeFlags.register(decodeCmd)
	decodeCmd.Flags().StringVarP(&decodeOut, "out", "o", "", "output file (.jpg, .png, .webp, .avif)")
	decodeCmd.Flags().IntVarP(&decodeQuality, "quality", "q", 0, "quality 1-100 (0 = profile default)")
	decodeCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(decodeCmd)
}

func runDecode(cmd *cobra.Command, args []string) error {
	start := time.Now()
	prof, req, err := decodeFlags.resolve(args[0])
	if err != nil {
		return err
	}
	if decodeQuality > 0 {
		prof.Quality = decodeQuality
	}

	enc, err := encoder.NewRegistry().ForPath(decodeOut)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := newDecoder(prof).Decode(ctx, req)
	if err != nil {
		return err
	}
	if err := res.Err(); err != nil {
		return fmt.Errorf("%s: %w", req.URI, err)
	}
	defer res.Buffer.Release()

	data, err := enc.Encode(res.Buffer.Image(), prof.Quality)
	if err != nil {
		return fmt.Errorf("encode %s: %w", enc.Format(), err)
	}
	if err := os.WriteFile(decodeOut, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", decodeOut, err)
	}

	fmt.Printf("  %s → %s\n", res.Probe.Size, res.Buffer.Size())
	fmt.Printf("  Sample:      %d\n", res.SampleSize)
	fmt.Printf("  Scale:       %s\n", res.Scale)
	fmt.Printf("  Orientation: %s\n", res.Orientation)
	fmt.Printf("  Output:      %s (%s, %s)\n", decodeOut, enc.Format(), formatBytes(int64(len(data))))
	fmt.Printf("  Time:        %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}

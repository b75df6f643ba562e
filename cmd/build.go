package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/tgimg-decode/internal/encoder"
	"github.com/AnyUserName/tgimg-decode/internal/imagesize"
	"github.com/AnyUserName/tgimg-decode/internal/manifest"
	"github.com/AnyUserName/tgimg-decode/internal/pipeline"
	"github.com/AnyUserName/tgimg-decode/internal/profile"
)

var (
	buildOutDir    string
	buildProfile   string
	buildWorkers   int
	buildTargets   []string
	buildFit       string
	buildScale     string
	buildQuality   int
	buildNoRegress bool
)

var buildCmd = &cobra.Command{
	Use:   "build <input_dir>",
	Short: "Decode a directory for every profile target and write a manifest",
	Long: `Scans input directory for images (png, jpg, jpeg, webp, gif, bmp, tiff),
decodes each one for every target box of the profile with subsampling,
exact scaling and EXIF orientation applied, encodes the variants and
writes a manifest file.

Output filenames are content-addressed: <key>.<w>.<h>.<hash>.ext`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVarP(&buildOutDir, "out", "o", "./tgimg_out", "output directory")
	buildCmd.Flags().StringVarP(&buildProfile, "profile", "p", "telegram-webview", "processing profile")
	buildCmd.Flags().IntVarP(&buildWorkers, "workers", "w", 0, "parallel workers (0 = NumCPU)")
	buildCmd.Flags().StringSliceVar(&buildTargets, "targets", nil, "custom target boxes, e.g. 320x320,640x480 (overrides profile)")
	buildCmd.Flags().StringVar(&buildFit, "fit", "", "fit-inside or crop (overrides profile)")
	buildCmd.Flags().StringVar(&buildScale, "scale", "", "none, approximate, exact or exact-stretched (overrides profile)")
	buildCmd.Flags().IntVarP(&buildQuality, "quality", "q", 0, "quality 1-100 (0 = profile default)")
	buildCmd.Flags().BoolVar(&buildNoRegress, "no-regress-size", true, "skip variants larger than original file")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	start := time.Now()
	log := logger()

	absInput, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve input path: %w", err)
	}
	absOutput, err := filepath.Abs(buildOutDir)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}

	prof, err := buildProfileWithOverrides()
	if err != nil {
		return err
	}

	log.Debug("build", "input", absInput, "output", absOutput)
	log.Debug("profile", "name", prof.Name, "targets", len(prof.Targets),
		"fit", prof.Fit, "scale", prof.Scale, "quality", prof.Quality)

	if err := os.MkdirAll(absOutput, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	b := pipeline.NewBatch(pipeline.BatchConfig{
		InputDir:      absInput,
		OutputDir:     absOutput,
		Profile:       prof,
		Workers:       buildWorkers,
		NoRegressSize: buildNoRegress,
	}, newDecoder(prof), encoder.NewRegistry(), log)

	m, err := b.Run(ctx)
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}

	manifestPath := filepath.Join(absOutput, manifest.FileName)
	if err := manifest.WriteJSON(m, manifestPath); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	printBuildReport(m, time.Since(start))
	return nil
}

func buildProfileWithOverrides() (profile.Profile, error) {
	prof, err := profile.Find(buildProfile)
	if err != nil {
		return prof, err
	}
	if buildTargets != nil {
		targets, err := parseTargets(buildTargets)
		if err != nil {
			return prof, err
		}
		prof.Targets = targets
	}
	if buildFit != "" {
		if prof.Fit, err = imagesize.ParseFit(buildFit); err != nil {
			return prof, err
		}
	}
	if buildScale != "" {
		if prof.Scale, err = imagesize.ParseScalePolicy(buildScale); err != nil {
			return prof, err
		}
	}
	if buildQuality > 0 {
		prof.Quality = buildQuality
	}
	return prof, prof.Validate()
}

// parseTargets reads "WxH" boxes.
func parseTargets(specs []string) ([]profile.Target, error) {
	targets := make([]profile.Target, 0, len(specs))
	for _, s := range specs {
		var t profile.Target
		if _, err := fmt.Sscanf(strings.ToLower(strings.TrimSpace(s)), "%dx%d", &t.Width, &t.Height); err != nil {
			return nil, fmt.Errorf("target %q: want WxH", s)
		}
		targets = append(targets, t)
	}
	return targets, nil
}

func printBuildReport(m *manifest.Manifest, elapsed time.Duration) {
	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════════════╗")
	fmt.Println("║           tgimg-decode build complete            ║")
	fmt.Println("╚══════════════════════════════════════════════════╝")
	fmt.Println()

	stats := m.Stats
	ratio := float64(0)
	if stats.TotalInputBytes > 0 {
		ratio = float64(stats.TotalOutputBytes) / float64(stats.TotalInputBytes) * 100
	}

	fmt.Printf("  Assets:      %d\n", stats.TotalAssets)
	fmt.Printf("  Variants:    %d\n", stats.TotalVariants)
	fmt.Printf("  Input size:  %s\n", formatBytes(stats.TotalInputBytes))
	fmt.Printf("  Output size: %s\n", formatBytes(stats.TotalOutputBytes))
	fmt.Printf("  Ratio:       %.1f%% of original\n", ratio)
	if stats.SkippedRegress > 0 {
		fmt.Printf("  Skipped:     %d variants (larger than original)\n", stats.SkippedRegress)
	}
	if stats.TotalFailures > 0 {
		fmt.Printf("  Failed:      %d images (see manifest failures)\n", stats.TotalFailures)
	}
	fmt.Printf("  Reoriented:  %d assets\n", countReoriented(m))
	fmt.Printf("  Time:        %s\n", elapsed.Round(time.Millisecond))

	if bi := m.BuildInfo; bi != nil {
		fmt.Printf("  Workers:     %d  (%s, %s, %s)\n", bi.Workers, bi.Fit, bi.Scale, bi.Subsample)
	}
	fmt.Println()

	// Top 10 heaviest assets.
	if len(m.Assets) > 0 {
		type assetSize struct {
			key        string
			inputSize  int64
			outputSize int64
		}
		var items []assetSize
		for key, a := range m.Assets {
			var outSum int64
			for _, v := range a.Variants {
				outSum += v.Size
			}
			items = append(items, assetSize{key, a.Original.Size, outSum})
		}
		sort.Slice(items, func(i, j int) bool {
			return items[i].inputSize > items[j].inputSize
		})
		n := len(items)
		if n > 10 {
			n = 10
		}
		fmt.Printf("  Top %d heaviest (original → optimized):\n", n)
		for _, it := range items[:n] {
			saved := float64(0)
			if it.inputSize > 0 {
				saved = (1 - float64(it.outputSize)/float64(it.inputSize)) * 100
			}
			fmt.Printf("    %-40s %8s → %8s  (−%.0f%%)\n",
				truncKey(it.key, 40),
				formatBytes(it.inputSize),
				formatBytes(it.outputSize),
				saved,
			)
		}
		fmt.Println()
	}

	// Format support info.
	fmts := detectOutputFormats(m)
	fmt.Printf("  Formats:     %s\n", strings.Join(fmts, ", "))
	fmt.Println()

	// Manifest path.
	data, _ := json.Marshal(m)
	fmt.Printf("  Manifest:    %s (%s)\n", manifest.FileName, formatBytes(int64(len(data))))
	fmt.Println()
}

func countReoriented(m *manifest.Manifest) int {
	n := 0
	for _, a := range m.Assets {
		if !a.Orientation.IsIdentity() {
			n++
		}
	}
	return n
}

func detectOutputFormats(m *manifest.Manifest) []string {
	set := map[string]bool{}
	for _, a := range m.Assets {
		for _, v := range a.Variants {
			set[v.Format] = true
		}
	}
	var out []string
	for _, f := range []string{"avif", "webp", "jpeg", "png"} {
		if set[f] {
			out = append(out, f)
		}
	}
	return out
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

func truncKey(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max+3:]
}

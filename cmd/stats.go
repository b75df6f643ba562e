package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/tgimg-decode/internal/manifest"
)

var statsCmd = &cobra.Command{
	Use:   "stats <out_dir_or_manifest>",
	Short: "Display statistics for a built asset directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(_ *cobra.Command, args []string) error {
	path := args[0]

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		path = filepath.Join(path, manifest.FileName)
	}

	m, err := manifest.Read(path)
	if err != nil {
		return err
	}
	printStats(m)
	return nil
}

func printStats(m *manifest.Manifest) {
	fmt.Println()
	fmt.Printf("  Manifest version: %d\n", m.Version)
	fmt.Printf("  Generated:        %s\n", m.GeneratedAt)
	fmt.Printf("  Profile:          %s\n", m.Profile)
	if bi := m.BuildInfo; bi != nil {
		fmt.Printf("  Workers:          %d\n", bi.Workers)
		fmt.Printf("  Policies:         fit=%s scale=%s subsample=%s\n", bi.Fit, bi.Scale, bi.Subsample)
		if bi.MaxSide > 0 {
			fmt.Printf("  Max side:         %d\n", bi.MaxSide)
		}
	}
	fmt.Println()

	s := m.Stats
	fmt.Printf("  Total assets:     %d\n", s.TotalAssets)
	fmt.Printf("  Total variants:   %d\n", s.TotalVariants)
	fmt.Printf("  Input size:       %s\n", formatBytes(s.TotalInputBytes))
	fmt.Printf("  Output size:      %s\n", formatBytes(s.TotalOutputBytes))
	if s.TotalInputBytes > 0 {
		ratio := float64(s.TotalOutputBytes) / float64(s.TotalInputBytes) * 100
		fmt.Printf("  Compression:      %.1f%% of original\n", ratio)
	}
	fmt.Println()

	formatStats := map[string]struct {
		count int
		bytes int64
	}{}
	targetStats := map[string]int{}
	sampleStats := map[int]int{}
	for _, a := range m.Assets {
		for _, v := range a.Variants {
			fs := formatStats[v.Format]
			fs.count++
			fs.bytes += v.Size
			formatStats[v.Format] = fs
			targetStats[v.Target]++
			sampleStats[v.SampleSize]++
		}
	}

	fmt.Println("  Format breakdown:")
	for _, f := range []string{"avif", "webp", "jpeg", "png"} {
		if fs, ok := formatStats[f]; ok {
			fmt.Printf("    %-6s  %4d files  %s\n", f, fs.count, formatBytes(fs.bytes))
		}
	}
	fmt.Println()

	targets := make([]string, 0, len(targetStats))
	for t := range targetStats {
		targets = append(targets, t)
	}
	sort.Strings(targets)
	fmt.Println("  Target breakdown:")
	for _, t := range targets {
		fmt.Printf("    %11s  %4d variants\n", t, targetStats[t])
	}
	fmt.Println()

	samples := make([]int, 0, len(sampleStats))
	for n := range sampleStats {
		samples = append(samples, n)
	}
	sort.Ints(samples)
	fmt.Println("  Decode subsampling:")
	for _, n := range samples {
		fmt.Printf("    1/%-3d  %4d variants\n", n, sampleStats[n])
	}
	fmt.Println()

	orientations := map[string]int{}
	for _, a := range m.Assets {
		if !a.Orientation.IsIdentity() {
			orientations[a.Orientation.String()]++
		}
	}
	fmt.Printf("  Reoriented:       %d / %d assets\n", sumCounts(orientations), len(m.Assets))
	for _, o := range sortedKeys(orientations) {
		fmt.Printf("    %-16s  %d\n", o, orientations[o])
	}

	var warnings []string
	for _, key := range sortedKeys(m.Assets) {
		if len(m.Assets[key].Variants) == 0 {
			warnings = append(warnings, fmt.Sprintf("asset %q has no variants", key))
		}
	}
	for _, f := range m.Failures {
		warnings = append(warnings, fmt.Sprintf("source %q failed: %s", f.Key, f.Reason))
	}
	if len(warnings) > 0 {
		fmt.Println()
		fmt.Printf("  Warnings (%d):\n", len(warnings))
		for _, w := range warnings {
			fmt.Printf("    ⚠ %s\n", w)
		}
	}
	fmt.Println()
}

func sumCounts(m map[string]int) int {
	n := 0
	for _, c := range m {
		n += c
	}
	return n
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

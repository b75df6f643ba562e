package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var probeFlags requestFlags

var probeCmd = &cobra.Command{
	Use:   "probe <uri>",
	Short: "Print native size, type, orientation and the planned sample size",
	Args:  cobra.ExactArgs(1),
	RunE:  runProbe,
}

func init() {
	probeFlags.register(probeCmd)
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) error {
	prof, req, err := probeFlags.resolve(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := newDecoder(prof).Inspect(ctx, req)
	if err != nil {
		return err
	}
	if err := res.Err(); err != nil {
		return fmt.Errorf("%s: %w", req.URI, err)
	}

	native := res.Probe.Size
	displayed := native.Rotate(res.Orientation.Rotation)
	fmt.Printf("  URI:         %s\n", req.URI)
	fmt.Printf("  Type:        %s\n", res.Probe.MIME)
	fmt.Printf("  Native:      %s\n", native)
	fmt.Printf("  Orientation: %s\n", res.Orientation)
	fmt.Printf("  Displayed:   %s\n", displayed)
	fmt.Printf("  Target:      %s (%s, %s, %s)\n", req.Target, req.Fit, req.Scale, req.Subsample)
	fmt.Printf("  Sample:      %d → %s\n", res.SampleSize, displayed.ScaleDown(res.SampleSize))
	return nil
}

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/tgimg-decode/internal/manifest"
)

var validateCmd = &cobra.Command{
	Use:   "validate <manifest_path>",
	Short: "Validate a tgimg-decode manifest and check referenced files exist",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(_ *cobra.Command, args []string) error {
	manifestPath := args[0]

	m, err := manifest.Read(manifestPath)
	if err != nil {
		return err
	}

	errs := m.Validate(filepath.Dir(manifestPath))
	if len(errs) == 0 {
		fmt.Println("  ✓ Manifest is valid")
		fmt.Printf("  ✓ %d assets, %d variants — all files present\n", m.Stats.TotalAssets, m.Stats.TotalVariants)
		if n := len(m.Failures); n > 0 {
			fmt.Printf("  ! %d source(s) failed during build\n", n)
		}
		return nil
	}

	fmt.Printf("  ✗ Manifest has %d error(s):\n", len(errs))
	for _, e := range errs {
		fmt.Printf("    • %s\n", e)
	}
	return fmt.Errorf("validation failed with %d errors", len(errs))
}

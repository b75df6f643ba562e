package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/tgimg-decode/internal/logging"
	"github.com/AnyUserName/tgimg-decode/internal/profile"
)

var (
	version    = "0.2.0"
	verbose    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "tgimg-decode",
	Short: "Decode images straight to the size they are displayed at",
	Long: `tgimg-decode reads an image from a file or URL and decodes it close to a
target box: it subsamples while decoding, applies an exact scale and
corrects EXIF orientation in a single pass.

The build command runs the same decoder over a directory for every target
box of a profile and writes content-addressed variants plus a manifest.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if configPath == "" {
			return nil
		}
		names, err := profile.Load(configPath)
		if err != nil {
			return err
		}
		logger().Debug("loaded profiles", "path", configPath, "names", names)
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output and decode diagnostics")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML file with additional profiles")
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"tgimg-decode %s (%s/%s, %s)\n",
		version, runtime.GOOS, runtime.GOARCH, runtime.Version(),
	))
}

// logger returns the stderr logger; --verbose lowers it to debug.
func logger() *slog.Logger {
	return logging.New(os.Stderr, verbose)
}

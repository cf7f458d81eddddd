package cli

import (
	"context"
	"os"
	"path/filepath"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/ffbank/pkg/buildinfo"
)

// Execute runs the ffbank CLI and returns an error if any command fails.
// This is the main entry point for the CLI application.
//
// The function sets up the root command with all subcommands (run,
// legalize, trail, cache), configures logging based on the --verbose flag,
// and executes the command tree.
//
// Logging:
//   - Default: info level (logs to stderr)
//   - With --verbose (-v): debug level
//
// The logger is attached to the context and accessible to all commands via
// loggerFromContext.
func Execute(ctx context.Context) error {
	var verbose bool

	root := &cobra.Command{
		Use:          "ffbank",
		Short:        "ffbank banks, substitutes, and legalizes flip-flops",
		Long:         `ffbank is a post-placement multi-bit flip-flop banking and legalization engine: it debanks multi-bit FFs, substitutes cheaper equivalent cells, re-banks neighbours into 2- and 4-bit MBFFs, and legalizes the result on the placement grid.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			ctx := withLogger(cmd.Context(), newLogger(os.Stderr, level))
			cmd.SetContext(ctx)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newRunCmd())
	root.AddCommand(newLegalizeCmd())
	root.AddCommand(newTrailCmd())
	root.AddCommand(newCacheCmd())

	return root.ExecuteContext(ctx)
}

// cacheDir returns the ffbank result-cache directory.
func cacheDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "ffbank"), nil
}

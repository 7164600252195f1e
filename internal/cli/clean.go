package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tfwatch/tfwatch/internal/config"
	"github.com/tfwatch/tfwatch/internal/conlog"
)

// CleanOptions holds flags for the clean command.
type CleanOptions struct {
	*RootOptions

	LogPath string
}

// NewCleanCommand creates the clean command.
func NewCleanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CleanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Print the console log with noise lines removed",
		Long: `Read the console log front to back, drop every line matching the
configured exclusion patterns, and write the rest to stdout. Useful for
preparing a replay log.

Example:
  tfwatch clean --log console.log > trimmed.log`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.LogPath, "log", "", "path to the console log")

	return cmd
}

func runClean(opts *CleanOptions, cmd *cobra.Command) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "bad configuration", err)
	}
	if cmd.Flags().Changed("log") {
		cfg.LogPath = opts.LogPath
	}
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "bad configuration", err)
	}

	feed, err := conlog.NewFeed(cfg.LogPath, conlog.Options{Exclude: cfg.Exclude})
	if err != nil {
		return WrapExitError(ExitCommandError, "bad feed configuration", err)
	}

	if err := feed.Clean(os.Stdout); err != nil {
		return WrapExitError(ExitFailure, "clean failed", err)
	}
	return nil
}

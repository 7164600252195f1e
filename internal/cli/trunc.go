package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tfwatch/tfwatch/internal/config"
	"github.com/tfwatch/tfwatch/internal/conlog"
)

// TruncOptions holds flags for the trunc command.
type TruncOptions struct {
	*RootOptions

	LogPath string
}

// NewTruncCommand creates the trunc command.
func NewTruncCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TruncOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trunc",
		Short: "Truncate the console log to zero bytes",
		Long: `Truncate the console log in place. The game keeps appending to the
same file handle, so this is safe to run while the game is up.

Example:
  tfwatch trunc --log console.log`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrunc(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.LogPath, "log", "", "path to the console log")

	return cmd
}

func runTrunc(opts *TruncOptions, cmd *cobra.Command) error {
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

	feed, err := conlog.NewFeed(cfg.LogPath, conlog.Options{})
	if err != nil {
		return WrapExitError(ExitCommandError, "bad feed configuration", err)
	}

	if err := feed.Trunc(); err != nil {
		return WrapExitError(ExitFailure, "truncate failed", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "truncated %s\n", cfg.LogPath)
	return nil
}

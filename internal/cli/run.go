package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tfwatch/tfwatch/internal/admin"
	"github.com/tfwatch/tfwatch/internal/config"
	"github.com/tfwatch/tfwatch/internal/conlog"
	"github.com/tfwatch/tfwatch/internal/monitor"
	"github.com/tfwatch/tfwatch/internal/player"
	"github.com/tfwatch/tfwatch/internal/profile"
	"github.com/tfwatch/tfwatch/internal/rconout"
	"github.com/tfwatch/tfwatch/internal/rules"
	"github.com/tfwatch/tfwatch/internal/script"
	"github.com/tfwatch/tfwatch/internal/step"
	"github.com/tfwatch/tfwatch/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions

	LogPath    string
	Rewind     bool
	NoFollow   bool
	SingleStep bool
	BreakLine  int
	Search     string
	Injects    []string
	InjectFile string
	PlayerDB   string
	ScriptDir  string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Tail the console log and monitor the server",
		Long: `Tail the game's console log, dispatch each line to its handler,
and maintain the player model. An admin console on stdin accepts
single-stepping and kick commands.

Example:
  tfwatch run --log ~/tf2/tf/console.log --script-dir ~/tf2/tf/cfg
  tfwatch run --log console.log --rewind --no-follow --single-step`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMonitor(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.LogPath, "log", "", "path to the console log")
	cmd.Flags().BoolVar(&opts.Rewind, "rewind", false, "replay the log from the beginning")
	cmd.Flags().BoolVar(&opts.NoFollow, "no-follow", false, "stop at end-of-file instead of tailing")
	cmd.Flags().BoolVar(&opts.SingleStep, "single-step", false, "pause before the first line")
	cmd.Flags().IntVar(&opts.BreakLine, "break", 0, "run to line N, then single-step")
	cmd.Flags().StringVar(&opts.Search, "search", "", "single-step when a line matches this pattern")
	cmd.Flags().StringArrayVar(&opts.Injects, "inject", nil, "inject LINENO:COMMAND into the stream (repeatable)")
	cmd.Flags().StringVar(&opts.InjectFile, "inject-file", "", "file of LINENO:COMMAND injections")
	cmd.Flags().StringVar(&opts.PlayerDB, "db", "", "path to the player database")
	cmd.Flags().StringVar(&opts.ScriptDir, "script-dir", "", "game cfg directory for the outbound script")

	return cmd
}

// loadConfig merges the config file with the run flags; a flag set on
// the command line wins over the file.
func loadConfig(opts *RunOptions, cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("log") {
		cfg.LogPath = opts.LogPath
	}
	if flags.Changed("rewind") {
		cfg.Rewind = opts.Rewind
	}
	if flags.Changed("no-follow") {
		cfg.NoFollow = opts.NoFollow
	}
	if flags.Changed("single-step") {
		cfg.SingleStep = opts.SingleStep
	}
	if flags.Changed("break") {
		cfg.BreakLine = opts.BreakLine
	}
	if flags.Changed("search") {
		cfg.SearchPattern = opts.Search
	}
	if flags.Changed("inject") {
		cfg.Injects = opts.Injects
	}
	if flags.Changed("inject-file") {
		cfg.InjectFile = opts.InjectFile
	}
	if flags.Changed("db") {
		cfg.PlayerDB = opts.PlayerDB
	}
	if flags.Changed("script-dir") {
		cfg.ScriptDir = opts.ScriptDir
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func runMonitor(opts *RunOptions, cmd *cobra.Command) error {
	// Configure logging based on verbose flag
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))

	cfg, err := loadConfig(opts, cmd)
	if err != nil {
		return WrapExitError(ExitCommandError, "bad configuration", err)
	}

	// Collect injections from flags and the optional inject file.
	var injections []conlog.InjectSpec
	for _, spec := range cfg.Injects {
		parsed, err := conlog.ParseInjectSpec(spec)
		if err != nil {
			return WrapExitError(ExitCommandError, "bad injection", err)
		}
		injections = append(injections, parsed)
	}
	if cfg.InjectFile != "" {
		fromFile, err := conlog.LoadInjectFile(cfg.InjectFile)
		if err != nil {
			return WrapExitError(ExitCommandError, "bad injection file", err)
		}
		injections = append(injections, fromFile...)
	}

	feed, err := conlog.NewFeed(cfg.LogPath, conlog.Options{
		Rewind:     cfg.Rewind,
		Follow:     !cfg.NoFollow,
		Exclude:    cfg.Exclude,
		Injections: injections,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "bad feed configuration", err)
	}
	defer feed.Close()

	gate := step.NewGate(feed, cfg.SingleStep)
	if cfg.BreakLine > 0 {
		gate.ArmLineBreakpoint(cfg.BreakLine)
	}
	if cfg.SearchPattern != "" {
		if err := gate.ArmPatternBreakpoint(cfg.SearchPattern); err != nil {
			return WrapExitError(ExitCommandError, "bad search pattern", err)
		}
	}

	// Player database is optional; without it the session runs
	// memory-only.
	var records store.Records
	if cfg.PlayerDB != "" {
		slog.Info("opening player database", "path", cfg.PlayerDB)
		st, err := store.Open(cfg.PlayerDB)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open player database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing player database", "error", closeErr)
			}
		}()
		records = st
	}

	var profiles profile.Resolver
	if cfg.ProfileURL != "" {
		profiles = profile.NewHTTPResolver(cfg.ProfileURL)
	}

	kicks := script.NewQueue("kicks")
	spams := script.NewQueue("spams")
	writer := script.NewWriter(cfg.ScriptDir, kicks, spams)

	ui := monitor.SlogUI{}

	users, err := player.New(player.Config{
		Me:             cfg.PlayerName,
		CheaterNames:   cfg.CheaterNames,
		RacistPattern:  cfg.RacistPattern,
		ShowTaunts:     cfg.ShowTaunts,
		ShowThroes:     cfg.ShowThroes,
		InactiveCycles: cfg.InactiveCycles,
		Session:        uuid.NewString(),
	}, records, profiles, kicks, spams, ui.Notify)
	if err != nil {
		return WrapExitError(ExitCommandError, "bad player configuration", err)
	}

	router := rules.NewRouter()
	deps := monitor.Deps{
		Feed:   feed,
		Gate:   gate,
		Router: router,
		Users:  users,
		Kicks:  kicks,
		Spams:  spams,
		Writer: writer,
		UI:     ui,
	}
	if cfg.Rcon.Address != "" {
		rcon := rconout.NewSender(cfg.Rcon.Address, cfg.Rcon.Password)
		defer rcon.Close()
		deps.Rcon = rcon
	}
	mon := monitor.New(deps)

	console := admin.New(router, gate, admin.Hooks{
		Dump: mon.Dump,
		Kick: mon.KickByID,
	}, os.Stdin, os.Stdout)

	// Setup signal handling for graceful shutdown
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	// The admin console quitting is the cooperative shutdown signal.
	go func() {
		if err := console.Run(ctx); err != nil {
			slog.Error("admin console failed", "error", err)
		}
		cancel()
	}()

	if err := feed.Open(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return WrapExitError(ExitCommandError, "failed to open console log", err)
	}

	if err := mon.Run(ctx); err != nil && ctx.Err() == nil {
		return WrapExitError(ExitFailure, "monitor failed", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "done")
	return nil
}

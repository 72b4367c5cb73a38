// Command launcher checks an application's runtime and dependencies, installs
// what is missing and runs the application in the foreground.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/moosedata/My-Code/internal/config"
	"github.com/moosedata/My-Code/internal/launch"
	"github.com/moosedata/My-Code/internal/logging"
	"github.com/moosedata/My-Code/internal/prompt"
	"github.com/moosedata/My-Code/internal/report"
	"github.com/moosedata/My-Code/internal/runner"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	var status *exitStatus
	switch {
	case err == nil:
	case errors.As(err, &status):
		os.Exit(status.code)
	default:
		_, _ = fmt.Fprintln(os.Stderr, "launcher:", err)
		os.Exit(1)
	}
}

// exitStatus carries a non-zero terminal status out of a command.
type exitStatus struct {
	code int
}

func (e *exitStatus) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// options holds the global flags.
type options struct {
	dir     string
	noPause bool
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "launcher",
		Short: "Check the runtime and dependencies, then run the application",
		Long: `launcher verifies that the runtime is on PATH, installs the application's
dependencies when a required library is missing, and runs the application
in the foreground. Its exit status is the application's exit status.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLaunch(cmd, opts)
		},
	}
	root.PersistentFlags().StringVar(&opts.dir, "dir", ".", "application directory")
	root.PersistentFlags().BoolVar(&opts.noPause, "no-pause", false, "do not wait for a key press before exiting")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log every stage to stderr")

	root.AddCommand(
		newDoctorCmd(opts),
		newHistoryCmd(opts),
		newInspectCmd(opts),
		newMCPCmd(opts),
		newVersionCmd(),
	)
	return root
}

// app is the loaded configuration and the services built from it.
type app struct {
	cfg    *config.Config
	root   string
	store  report.Store
	closer io.Closer
	logger *slog.Logger
}

func loadApp(opts *options, logOut io.Writer) (*app, error) {
	return openApp(opts, logOut, false)
}

// openApp loads the configuration and opens the history store. With
// optionalHistory set, a store that cannot be opened is logged and replaced
// by report.Nop so the launch sequence still runs.
func openApp(opts *options, logOut io.Writer, optionalHistory bool) (*app, error) {
	loaded, err := config.Load(opts.dir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	cfg := loaded.Config

	level := cfg.LogLevel()
	if opts.verbose {
		level = "debug"
	}
	logger := logging.New(level, cfg.Log.Format, logOut)
	if loaded.Path != "" {
		logger.Debug("config loaded", "path", loaded.Path)
	}

	store, closer, err := report.Open(cfg.HistoryBackend(), cfg.HistoryDir(loaded.AppRoot), cfg.HistoryCache())
	if err != nil {
		if !optionalHistory {
			return nil, fmt.Errorf("opening history: %w", err)
		}
		logger.Warn("history disabled for this run", "backend", cfg.HistoryBackend(), "err", err)
		store, closer = report.Nop{}, nopCloser{}
	}

	return &app{
		cfg:    cfg,
		root:   loaded.AppRoot,
		store:  store,
		closer: closer,
		logger: logger,
	}, nil
}

// engine builds a launch engine. Child processes inherit the terminal.
func (a *app) engine(ack prompt.Acknowledger, out io.Writer) *launch.Engine {
	return &launch.Engine{
		Config: a.cfg,
		Runner: &runner.Runner{
			Workspace: a.root,
			MaxOutput: a.cfg.MaxOutputBytes(),
		},
		Prompt:  ack,
		Out:     out,
		Store:   a.store,
		AppRoot: a.root,
	}
}

func (a *app) context(ctx context.Context) context.Context {
	return logging.WithLogger(ctx, a.logger)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func (a *app) close() {
	if err := a.closer.Close(); err != nil {
		a.logger.Warn("closing history", "err", err)
	}
}

func runLaunch(cmd *cobra.Command, opts *options) error {
	a, err := openApp(opts, cmd.ErrOrStderr(), true)
	if err != nil {
		return err
	}
	defer a.close()

	var ack prompt.Acknowledger = prompt.None{}
	if a.cfg.Pause() && !opts.noPause {
		ack = prompt.New(cmd.InOrStdin(), cmd.OutOrStdout())
	}

	res := a.engine(ack, cmd.OutOrStdout()).Launch(a.context(cmd.Context()))
	if res.Err != nil {
		a.logger.Debug("launch error", "err", res.Err)
	}
	if res.Status != launch.StatusOK {
		return &exitStatus{code: res.Status}
	}
	return nil
}

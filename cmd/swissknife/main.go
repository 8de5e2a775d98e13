package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"swissknife/internal/config"
	"swissknife/internal/fetch"
	"swissknife/internal/paths"
	"swissknife/internal/render"
	"swissknife/internal/runner"
	"swissknife/internal/tools"
	"swissknife/internal/version"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

const (
	exitFailure   = 1
	exitCancelled = 130
)

// exitError carries a process exit status. Silent errors were already reported.
type exitError struct {
	code   int
	err    error
	silent bool
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			if !exit.silent {
				fmt.Fprintln(os.Stderr, err)
			}
			os.Exit(exit.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitFailure)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "swissknife",
		Short:         "swissknife - cancellable file tools for hashing and PDF work",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.String("timeout", "0s", "Abort the command after this duration (0 disables)")
	flags.Bool("quiet", false, "Only print outputs and errors")
	flags.Bool("json", false, "Output JSON only")
	flags.Bool("verbose", false, "Enable verbose logging")
	flags.String("log-file", "", "Write plain-text output to a file")
	flags.Bool("persist-runs", false, "Save run records under ~/.local/share/swissknife/runs")
	flags.String("workdir", "", "Resolve relative paths against this directory")
	flags.Bool("remote", true, "Allow http(s) inputs for hashing")
	flags.Int("chunk-size", config.DefaultChunkSize, "Hash read size in bytes")

	cmd.AddCommand(
		newToolsCmd(),
		newRunCmd(),
		newHashCmd(),
		newMergeCmd(),
		newSplitCmd(),
		newCompressCmd(),
		newBatchCmd(),
	)
	return cmd
}

// app is the per-command wiring of config, logging, tools and rendering.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	registry *tools.Registry
	renderer render.Renderer
	logFile  *os.File
	stdout   io.Writer
	base     string
}

func newApp(cmd *cobra.Command, interactive bool) (*app, error) {
	cfg, err := config.Load(cmd)
	if err != nil {
		return nil, err
	}
	logger := buildLogger(cfg.Verbose)

	base := cfg.Workdir
	if base == "" {
		base, err = os.Getwd()
		if err != nil {
			return nil, err
		}
	} else if found, err := paths.FindBase(base); err == nil {
		base = found
	}

	toolOpts := tools.Options{ChunkSize: cfg.ChunkSize}
	if cfg.Remote {
		toolOpts.Remote = fetch.NewClient(cfg.Retries)
	}
	registry, err := tools.NewRegistry(tools.Builtin(toolOpts)...)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, registry: registry, stdout: cmd.OutOrStdout(), base: base}
	if cfg.JSON {
		return a, nil
	}

	if interactive {
		interactive = term.IsTerminal(int(os.Stdout.Fd()))
	}
	opts := render.Options{
		Verbose:      cfg.Verbose,
		Quiet:        cfg.Quiet,
		Interactive:  interactive,
		ProgressRate: cfg.ProgressRate,
	}
	renderers := render.Multi{render.NewStdoutRenderer(a.stdout, opts)}
	if cfg.LogFile != "" {
		file, err := os.Create(paths.Resolve(base, cfg.LogFile))
		if err != nil {
			return nil, err
		}
		a.logFile = file
		fileOpts := opts
		fileOpts.Interactive = false
		renderers = append(renderers, render.NewStdoutRenderer(file, fileOpts))
	}
	a.renderer = renderers
	return a, nil
}

func (a *app) close() {
	if a.renderer != nil {
		_ = a.renderer.Close()
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
	_ = a.logger.Sync()
}

func (a *app) context() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	if a.cfg.Timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

func (a *app) runner() *runner.Runner {
	return runner.NewRunner(a.registry, a.renderer, a.logger, a.cfg)
}

// execute runs one request and maps its outcome onto an exit status.
func (a *app) execute(req runner.Request) error {
	req.Inputs = paths.ResolveAll(a.base, paths.SplitList(req.Inputs))
	req.Output = paths.Resolve(a.base, req.Output)

	ctx, cancel := a.context()
	defer cancel()

	result, err := a.runner().Run(ctx, req)
	a.persist(result)
	if a.cfg.JSON {
		if perr := a.printJSON(result); perr != nil {
			return perr
		}
	}
	return exitFor(result.Status, err)
}

// exitFor maps a run status onto an exit status. The renderer or the JSON
// payload has already reported the outcome.
func exitFor(status string, err error) error {
	switch status {
	case runner.StatusSuccess:
		return nil
	case runner.StatusCancelled:
		return &exitError{code: exitCancelled, err: err, silent: true}
	default:
		return &exitError{code: exitFailure, err: err, silent: true}
	}
}

func (a *app) persist(result runner.RunResult) {
	if !a.cfg.PersistRuns {
		return
	}
	dir, err := runner.RecordDir()
	if err != nil {
		a.logger.Warn("failed to get home dir", zap.Error(err))
		return
	}
	if _, err := runner.SaveRecord(dir, result); err != nil {
		a.logger.Warn("failed to write run log", zap.Error(err))
	}
}

func (a *app) printJSON(payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.stdout, string(data))
	return err
}

func buildLogger(verbose bool) *zap.Logger {
	if verbose {
		logger, _ := zap.NewDevelopment()
		return logger
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

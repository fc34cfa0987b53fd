package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/orderingest/internal/config"
	"github.com/roach88/orderingest/internal/ledger"
	"github.com/roach88/orderingest/internal/pipeline"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	PathFlags

	// Clock and RunIDs allow overriding time and run identity (for
	// testing). Nil means the wall clock and UUIDv7 run IDs.
	Clock  pipeline.Clock
	RunIDs pipeline.RunIDGenerator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process every file in the inbound directory",
		Long: `Process every file in the inbound directory once.

New content is filtered to pending-shipment orders and written to the
output directory, then archived. Content already archived is skipped.
The run ends with one merged, deduplicated, sorted output file, written
even when nothing new arrived.

Exit status is 0 when every file was processed or skipped, 1 when some
files failed (they stay in the inbound directory), and 2 when the run
could not start.

Example:
  orderingest run
  orderingest run --inbound ./drop --out ./out --workers 4
  orderingest run --config ./config/orderingest.yaml --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(opts, cmd)
		},
	}

	opts.PathFlags.register(cmd)
	return cmd
}

func runBatch(opts *RunOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := loadConfig(cmd, opts.RootOptions, &opts.PathFlags)
	if err != nil {
		return err
	}

	clock := opts.Clock
	if clock == nil {
		clock = pipeline.SystemClock{}
	}
	now := clock.Now()

	log, err := openRunLog(cfg.Paths.Logs, now, cmd.ErrOrStderr(), opts.Verbose)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open run log", err)
	}
	defer func() {
		if closeErr := log.Close(); closeErr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "error closing run log: %v\n", closeErr)
		}
	}()
	slog.SetDefault(log.Logger)

	if n, err := cleanupLogs(cfg.Paths.Logs, cfg.Logging.Retention, now); err != nil {
		log.Warn("old run logs not removed", "error", err)
	} else if n > 0 {
		log.Info("old run logs removed", "count", n, "retention", cfg.Logging.Retention)
	}

	if err := ensureDirs(cfg); err != nil {
		return WrapExitError(ExitCommandError, "failed to prepare directories", err)
	}

	popts := []pipeline.Option{pipeline.WithClock(clock)}
	if opts.RunIDs != nil {
		popts = append(popts, pipeline.WithRunIDGenerator(opts.RunIDs))
	}
	if cfg.Ledger.Path != "" {
		l, err := ledger.Open(cfg.Ledger.Path)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open ledger", err)
		}
		defer func() {
			if closeErr := l.Close(); closeErr != nil {
				log.Error("error closing ledger", "error", closeErr)
			}
		}()
		popts = append(popts, pipeline.WithLedger(l))
	}

	runner, err := newRunner(cfg, log.Logger, formatter.Progress(), popts...)
	if err != nil {
		log.Error("run aborted", "error", err)
		if pipeline.IsConfigMissing(err) {
			_ = formatter.Error(string(pipeline.CodeConfigMissing), err.Error(), cfg.Shops.Path)
		}
		return runnerError(err)
	}

	ctx, cancel := signalContext(cmd.Context(), log.Logger)
	defer cancel()

	sum, runErr := runner.Run(ctx)
	if sum == nil {
		return WrapExitError(ExitCommandError, "run failed", runErr)
	}

	report := newRunReport(sum, cfg.Fingerprint.PrefixLength, log.Path)
	if formatter.JSON() {
		if err := formatter.Success(sum.RunID, report); err != nil {
			return err
		}
	} else {
		report.writeText(formatter.Writer)
	}

	switch {
	case errors.Is(runErr, context.Canceled):
		return WrapExitError(ExitFailure, "run interrupted", runErr)
	case runErr != nil:
		return WrapExitError(ExitFailure, "run incomplete", runErr)
	case sum.Errored > 0:
		return NewExitError(ExitFailure,
			fmt.Sprintf("%d file(s) failed and remain in %s", sum.Errored, cfg.Paths.Inbound))
	}
	return nil
}

// ensureDirs creates the working directories. The archive is created
// lazily by the first move.
func ensureDirs(cfg config.Config) error {
	for _, dir := range []string{cfg.Paths.Inbound, cfg.Paths.Processed} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// signalContext cancels on SIGINT/SIGTERM. Files already converting finish
// their current step; the merge is skipped.
func signalContext(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Warn("received signal, stopping", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/orderingest/internal/fingerprint"
	"github.com/roach88/orderingest/internal/ledger"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Ledger string
	Limit  int
	Run    string
	Digest string
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past runs from the ledger",
		Long: `Show runs recorded in the ledger, newest first.

The ledger is a record for people. Runs never consult it: the archive
directory alone decides what was already processed.

Example:
  orderingest history --limit 5
  orderingest history --run 0192f3a0-...
  orderingest history --digest ab93f1c2a3`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Ledger, "ledger", "", "run ledger database (overrides ledger.path)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "number of runs to show")
	cmd.Flags().StringVar(&opts.Run, "run", "", "show the file outcomes of one run")
	cmd.Flags().StringVar(&opts.Digest, "digest", "", "show every outcome for a digest prefix")
	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := loadConfig(cmd, opts.RootOptions, &PathFlags{Ledger: opts.Ledger})
	if err != nil {
		return err
	}
	if cfg.Ledger.Path == "" {
		return NewExitError(ExitCommandError, "no ledger configured: set ledger.path or pass --ledger")
	}
	if opts.Digest != "" && !fingerprint.ValidPrefix(opts.Digest) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid digest prefix %q", opts.Digest))
	}

	l, err := ledger.Open(cfg.Ledger.Path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open ledger", err)
	}
	defer l.Close()

	ctx := cmd.Context()
	if opts.Run != "" || opts.Digest != "" {
		var outcomes []ledger.Outcome
		if opts.Run != "" {
			outcomes, err = l.Outcomes(ctx, opts.Run)
		} else {
			outcomes, err = l.OutcomesForDigest(ctx, opts.Digest)
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read ledger", err)
		}
		if formatter.JSON() {
			return formatter.Success(opts.Run, outcomes)
		}
		tw := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "RUN\tSEQ\tSTATUS\tSHOP\tFILE\tRECORDS\tDETAIL")
		for _, o := range outcomes {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%d\t%s\n",
				o.RunID, o.Seq, o.Status, o.ShopID, o.File, o.Records, o.Detail)
		}
		return tw.Flush()
	}

	runs, err := l.Runs(ctx, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read ledger", err)
	}
	if formatter.JSON() {
		return formatter.Success("", runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs recorded")
		return nil
	}
	tw := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tPROCESSED\tSKIPPED\tERRORED\tMERGED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\n",
			r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Processed, r.Skipped, r.Errored, r.MergedCount)
	}
	return tw.Flush()
}

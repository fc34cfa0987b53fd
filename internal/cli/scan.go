package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/orderingest/internal/pipeline"
)

// ScanOptions holds flags for the scan command.
type ScanOptions struct {
	*RootOptions
	PathFlags
}

// NewScanCommand creates the scan command.
func NewScanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Show what a run would do, without doing it",
		Long: `Fingerprint and classify the inbound files the way a run would.

Nothing is converted, moved, deleted or logged to disk.

Example:
  orderingest scan
  orderingest scan --inbound ./drop --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(opts, cmd)
		},
	}

	opts.PathFlags.register(cmd)
	return cmd
}

func runScan(opts *ScanOptions, cmd *cobra.Command) error {
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
	log, err := openRunLog("", pipeline.SystemClock{}.Now(), cmd.ErrOrStderr(), opts.Verbose)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to set up logging", err)
	}

	runner, err := newRunner(cfg, log.Logger, io.Discard)
	if err != nil {
		return runnerError(err)
	}
	files, err := runner.Plan(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "scan failed", err)
	}

	reports := make([]fileReport, 0, len(files))
	for i := range files {
		reports = append(reports, newFileReport(&files[i], cfg.Fingerprint.PrefixLength))
	}
	if formatter.JSON() {
		return formatter.Success("", reports)
	}

	w := formatter.Writer
	if len(reports) == 0 {
		fmt.Fprintf(w, "No input files in %s\n", cfg.Paths.Inbound)
		return nil
	}
	var fresh int
	for _, fr := range reports {
		label := fr.State
		if fr.State == pipeline.New.String() {
			fresh++
		}
		fmt.Fprintf(w, "%-10s %-8s %s", label, fr.Shop, fr.File)
		if fr.Hash != "" {
			fmt.Fprintf(w, "  hash=%s", fr.Hash)
		}
		if fr.Detail != "" {
			fmt.Fprintf(w, "  (%s)", fr.Detail)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "\n%d of %d file(s) would be processed\n", fresh, len(reports))
	return nil
}

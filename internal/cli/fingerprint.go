package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/orderingest/internal/archive"
	"github.com/roach88/orderingest/internal/fingerprint"
)

// FingerprintOptions holds flags for the fingerprint command.
type FingerprintOptions struct {
	*RootOptions
	Archive string
}

type digestReport struct {
	File        string `json:"file"`
	Digest      string `json:"digest"`
	ArchiveName string `json:"archive_name"`
	ArchivedAs  string `json:"archived_as,omitempty"`
}

// NewFingerprintCommand creates the fingerprint command.
func NewFingerprintCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FingerprintOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "fingerprint <file>...",
		Short: "Print content digests and archive names",
		Long: `Print each file's SHA-256 digest, the name it would get in the
archive, and whether the archive already holds the same content.

Example:
  orderingest fingerprint data_raw/orders_SH0004_0301.xlsx`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFingerprint(opts, cmd, args)
		},
	}

	cmd.Flags().StringVar(&opts.Archive, "archive", "", "archive directory (overrides paths.archive)")
	return cmd
}

func runFingerprint(opts *FingerprintOptions, cmd *cobra.Command, files []string) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := loadConfig(cmd, opts.RootOptions, &PathFlags{Archive: opts.Archive})
	if err != nil {
		return err
	}
	namer := cfg.Namer()
	index := archive.NewIndex(cfg.Paths.Archive, namer)

	reports := make([]digestReport, 0, len(files))
	for _, file := range files {
		d, err := fingerprint.SumFile(file)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to fingerprint", err)
		}
		existing, _, err := index.Lookup(d)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read archive", err)
		}
		reports = append(reports, digestReport{
			File:        file,
			Digest:      d.String(),
			ArchiveName: namer.Name(filepath.Base(file), d),
			ArchivedAs:  existing,
		})
	}

	if formatter.JSON() {
		return formatter.Success("", reports)
	}
	for _, r := range reports {
		fmt.Fprintf(formatter.Writer, "%s  %s\n", r.Digest, r.File)
		if r.ArchivedAs != "" {
			fmt.Fprintf(formatter.Writer, "    already archived as %s\n", r.ArchivedAs)
		} else {
			fmt.Fprintf(formatter.Writer, "    would be archived as %s\n", r.ArchiveName)
		}
	}
	return nil
}

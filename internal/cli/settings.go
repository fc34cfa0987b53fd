package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/orderingest/internal/config"
	"github.com/roach88/orderingest/internal/extract"
	"github.com/roach88/orderingest/internal/output"
	"github.com/roach88/orderingest/internal/pipeline"
	"github.com/roach88/orderingest/internal/shops"
)

// PathFlags are command-line overrides for the config file.
type PathFlags struct {
	Inbound string
	Archive string
	Out     string
	Shops   string
	Ledger  string
	Workers int
}

func (p *PathFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.Inbound, "inbound", "", "inbound directory (overrides paths.inbound)")
	cmd.Flags().StringVar(&p.Archive, "archive", "", "archive directory (overrides paths.archive)")
	cmd.Flags().StringVar(&p.Out, "out", "", "output directory (overrides paths.processed)")
	cmd.Flags().StringVar(&p.Shops, "shops", "", "shop directory CSV (overrides shops.path)")
	cmd.Flags().StringVar(&p.Ledger, "ledger", "", "run ledger database (overrides ledger.path)")
	cmd.Flags().IntVar(&p.Workers, "workers", 0, "parallel conversions (overrides run.workers)")
}

// loadConfig reads the config file and applies flag overrides. The default
// config path may be absent; an explicitly given one must exist.
func loadConfig(cmd *cobra.Command, root *RootOptions, flags *PathFlags) (config.Config, error) {
	explicit := cmd.Flags().Changed("config")
	cfg, err := config.Load(root.ConfigPath, !explicit)
	if err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "failed to load config", err)
	}

	if flags != nil {
		set := func(dst *string, v string) {
			if v != "" {
				*dst = v
			}
		}
		set(&cfg.Paths.Inbound, flags.Inbound)
		set(&cfg.Paths.Archive, flags.Archive)
		set(&cfg.Paths.Processed, flags.Out)
		set(&cfg.Shops.Path, flags.Shops)
		set(&cfg.Ledger.Path, flags.Ledger)
		if flags.Workers > 0 {
			cfg.Run.Workers = flags.Workers
		}
	}

	wd, err := os.Getwd()
	if err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "failed to resolve paths", err)
	}
	cfg.Resolve(wd)
	return cfg, nil
}

// newRunner loads the shop directory and assembles a pipeline.Runner.
// A missing or unusable shop directory is CONFIG_MISSING.
func newRunner(cfg config.Config, logger *slog.Logger, progress io.Writer, opts ...pipeline.Option) (*pipeline.Runner, error) {
	dir, err := shops.LoadCSV(cfg.Shops.Path, cfg.Shops.Platform)
	if err != nil {
		return nil, pipeline.NewConfigMissing("shop directory", err)
	}
	logger.Info("shop directory loaded",
		"path", cfg.Shops.Path, "platform", dir.Platform(), "active", dir.Len())

	token, err := extract.NewShopToken(cfg.Inbound.ShopTokenPattern)
	if err != nil {
		return nil, err
	}

	registry := extract.DefaultRegistry(cfg.Inbound.Sheet)
	exts := cfg.Inbound.Extensions
	if len(exts) == 0 {
		exts = registry.Extensions()
	}

	base := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithProgress(progress),
	}
	return pipeline.New(pipeline.Config{
		InboundDir:               cfg.Paths.Inbound,
		ArchiveDir:               cfg.Paths.Archive,
		ProcessedDir:             cfg.Paths.Processed,
		Extensions:               exts,
		Namer:                    cfg.Namer(),
		Retry:                    cfg.RetryPolicy(),
		Directory:                dir,
		PendingStatuses:          cfg.Filter.PendingStatuses,
		Extractor:                registry,
		Columns:                  extract.NewColumns(cfg.ColumnAliases()),
		ShopToken:                token,
		Locale:                   cfg.Sort.Locale,
		Header:                   output.Header(cfg.Output.HeaderLang),
		Workers:                  cfg.Run.Workers,
		RemoveArchivedDuplicates: cfg.Inbound.RemoveArchivedDuplicates,
	}, append(base, opts...)...)
}

// runnerError maps a runner construction failure onto an exit error.
func runnerError(err error) error {
	if pipeline.IsConfigMissing(err) {
		return WrapExitError(ExitCommandError, "cannot start run", err)
	}
	return WrapExitError(ExitCommandError, fmt.Sprintf("invalid settings: %v", err), nil)
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/genepile/prerank/internal/config"
)

var (
	// Global flags.
	configPath string
	catalogDir string
	verbose    bool

	// Set by the root PersistentPreRunE.
	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "prerank",
	Short: "Preranked gene set enrichment analysis",
	Long: `Prerank scores gene sets against a ranked gene list using the
weighted running-sum enrichment statistic, with permutation-based
p-values and pooled FWER and FDR estimates.

Examples:
  # Score a ranking against a GMT file
  prerank run --rnk study.rnk --gmt hallmark.gmt

  # Build a catalog from local and remote libraries
  prerank build hallmark=./h.all.v2024.gmt https://example.org/kegg.gmt.gz

  # Score against a catalog library and write a Markdown report
  prerank run --rnk study.rnk --library hallmark --output report.md`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVarP(&catalogDir, "catalog", "c", "", "catalog directory (overrides store.dir)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("catalog") {
		cfg.Store.Backend = config.BackendDisk
		cfg.Store.Dir = catalogDir
	}

	logger, err = newLogger(cfg.Logging, verbose)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	return nil
}

// newLogger builds a development logger with --verbose and a production
// logger at the configured level otherwise.
func newLogger(lc config.LoggingConfig, verbose bool) (*zap.Logger, error) {
	if verbose || lc.Development {
		return zap.NewDevelopment()
	}
	level, err := zapcore.ParseLevel(lc.Level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

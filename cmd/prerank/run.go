package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/genepile/prerank"
	"github.com/genepile/prerank/internal/codec"
	"github.com/genepile/prerank/internal/codec/codecs"
	"github.com/genepile/prerank/internal/gmt"
	"github.com/genepile/prerank/internal/report"
	"github.com/genepile/prerank/internal/rnk"
	"github.com/genepile/prerank/internal/store/cachedstore"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Score gene sets against a ranked gene list",
	Long: `Run a preranked enrichment analysis.

The ranking is an RNK file (gene<TAB>score). Gene sets come either from a
GMT file given with --gmt or from a catalog library given with --library.
The ranking is sorted by descending score before scoring.

The report format follows the output extension (.tsv, .json, .md) unless
--format is given. Without --output the report goes to stdout.

Examples:
  # Quick look without permutations
  prerank run --rnk study.rnk --gmt hallmark.gmt --permutations 0

  # Full run against a catalog library
  prerank run --rnk study.rnk --library hallmark --output hallmark.json

  # Same run, reading the catalog from S3
  PRERANK_STORE_BACKEND=s3 PRERANK_STORE_BUCKET=genesets \
    prerank run --rnk study.rnk --library hallmark`,
	RunE: runRun,
}

var (
	rnkPath      string
	gmtPath      string
	libraryName  string
	outputPath   string
	outputFormat string
	fullJSON     bool

	weight       float64
	minSize      int
	maxSize      int
	permutations int
	seed         uint64
	runWorkers   int
	strict       bool
)

func init() {
	runCmd.Flags().StringVar(&rnkPath, "rnk", "", "ranked gene list (RNK)")
	runCmd.Flags().StringVar(&gmtPath, "gmt", "", "gene set file (GMT, optionally .gz or .zst)")
	runCmd.Flags().StringVarP(&libraryName, "library", "l", "", "catalog library name")
	runCmd.Flags().StringVarP(&outputPath, "output", "o", "", "report file (default stdout)")
	runCmd.Flags().StringVar(&outputFormat, "format", "", "report format: tsv, json, md")
	runCmd.Flags().BoolVar(&fullJSON, "full", false, "keep running paths and null scores in JSON reports")

	runCmd.Flags().Float64Var(&weight, "weight", prerank.DefaultWeight, "exponent applied to |metric|")
	runCmd.Flags().IntVar(&minSize, "min-size", prerank.DefaultMinSize, "minimum overlap of a gene set with the ranking")
	runCmd.Flags().IntVar(&maxSize, "max-size", prerank.DefaultMaxSize, "maximum overlap of a gene set with the ranking")
	runCmd.Flags().IntVar(&permutations, "permutations", prerank.DefaultPermutations, "number of gene permutations")
	runCmd.Flags().Uint64Var(&seed, "seed", prerank.DefaultSeed, "permutation seed")
	runCmd.Flags().IntVar(&runWorkers, "workers", 0, "concurrent gene set scorers (default GOMAXPROCS)")
	runCmd.Flags().BoolVar(&strict, "strict", false, "fail on gene sets whose score is undefined")

	runCmd.MarkFlagRequired("rnk")
	runCmd.MarkFlagsOneRequired("gmt", "library")
	runCmd.MarkFlagsMutuallyExclusive("gmt", "library")
	rootCmd.AddCommand(runCmd)
}

// applyRunFlags overrides configured analysis values with explicit flags.
func applyRunFlags(cmd *cobra.Command) {
	a := &cfg.Analysis
	flags := cmd.Flags()
	if flags.Changed("weight") {
		a.Weight = weight
	}
	if flags.Changed("min-size") {
		a.MinSize = minSize
	}
	if flags.Changed("max-size") {
		a.MaxSize = maxSize
	}
	if flags.Changed("permutations") {
		a.Permutations = permutations
	}
	if flags.Changed("seed") {
		a.Seed = seed
	}
	if flags.Changed("workers") {
		a.Workers = runWorkers
	}
	if flags.Changed("strict") {
		a.Strict = strict
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	applyRunFlags(cmd)
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	format := outputFormat
	if format == "" {
		format = report.FormatForPath(outputPath)
	}
	write, err := report.ByName(format)
	if err != nil {
		return err
	}
	if format == report.FormatJSON && fullJSON {
		write = func(w io.Writer, m report.RunManifest, res *prerank.Result, _ prerank.Ranking) error {
			return report.WriteJSON(w, m, res, true)
		}
	}

	ranking, err := readRanking(rnkPath)
	if err != nil {
		return err
	}

	m := newMetrics(cfg.Metrics, logger)
	opts := []prerank.Option{
		prerank.WithParams(cfg.Analysis.Params()),
		prerank.WithStrict(cfg.Analysis.Strict),
		prerank.WithStats(m.collector),
		prerank.WithLogger(logger.Named("prerank")),
	}
	if cfg.Analysis.Workers > 0 {
		opts = append(opts, prerank.WithWorkers(cfg.Analysis.Workers))
	}
	if libraryName != "" {
		storeOpt, err := storeOption(ctx, cfg.Store)
		if err != nil {
			return err
		}
		opts = append(opts, storeOpt, prerank.WithCacheSize(cfg.Store.CacheSize))
	}

	client, err := prerank.New(opts...)
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}
	defer client.Close()

	var (
		sets   prerank.GeneSets
		source string
	)
	if libraryName != "" {
		sets, err = client.LoadLibrary(ctx, libraryName)
		if errors.Is(err, prerank.ErrLibraryNotFound) {
			return fmt.Errorf("library %q not found; run 'prerank libraries' to list the catalog", libraryName)
		}
		source = libraryName
	} else {
		sets, err = readGeneSets(gmtPath)
		source = filepath.Base(gmtPath)
	}
	if err != nil {
		return err
	}

	start := time.Now()
	res, err := client.Prerank(ctx, ranking, sets)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	logger.Info("run complete",
		zap.String("library", source),
		zap.Int("genes", ranking.Len()),
		zap.Int("sets", len(sets)),
		zap.Int("scored", len(res.Summaries)),
		zap.Int("filtered", len(res.Filtered)),
		zap.Int("skipped", len(res.Skipped)),
		zap.Duration("elapsed", elapsed),
	)

	if cs, ok := client.Store().(*cachedstore.Store); ok {
		st := cs.Stats()
		logger.Debug("library cache",
			zap.Int64("hits", st.Hits),
			zap.Int64("misses", st.Misses),
			zap.Float64("hit_rate_pct", st.HitRate()),
		)
	}

	manifest := report.NewRunManifest(filepath.Base(rnkPath), source, ranking.Len(), len(sets), res, start, elapsed)
	if err := writeReport(outputPath, func(w io.Writer) error {
		return write(w, manifest, res, ranking)
	}); err != nil {
		return err
	}
	return m.flush()
}

// readRanking parses an RNK file and orders it by descending score.
func readRanking(path string) (prerank.Ranking, error) {
	f, err := os.Open(path)
	if err != nil {
		return prerank.Ranking{}, fmt.Errorf("opening ranking: %w", err)
	}
	defer f.Close()

	list, err := rnk.Parse(f)
	if err != nil {
		return prerank.Ranking{}, fmt.Errorf("%s: %w", path, err)
	}
	return prerank.Ranking{Genes: list.Genes, Metric: list.Scores}.SortedByMetric(), nil
}

// readGeneSets parses a GMT file, decompressing by extension.
func readGeneSets(path string) (prerank.GeneSets, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading gene sets: %w", err)
	}
	lib, err := parseLibrary(raw, codecs.ForPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lib.Map(), nil
}

func parseLibrary(raw []byte, c codec.Codec) (*gmt.Library, error) {
	data, err := codec.Decode(c, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	return gmt.Parse(bytes.NewReader(data))
}

// writeReport writes to path through a temporary file, or to stdout when
// path is empty or "-".
func writeReport(path string, fn func(io.Writer) error) error {
	if path == "" || path == "-" {
		return fn(os.Stdout)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	if err := fn(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("writing report: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing report: %w", err)
	}
	return os.Rename(tmp, path)
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/genepile/prerank/internal/catalog"
	"github.com/genepile/prerank/internal/codec/codecs"
	"github.com/genepile/prerank/internal/codec/zstdcodec"
)

var buildCmd = &cobra.Command{
	Use:   "build [name=]source...",
	Short: "Build a gene set catalog from GMT libraries",
	Long: `Build a catalog directory from GMT gene set libraries.

This command will:
1. Download each URL source (resuming partial downloads) or read local files
2. Decompress .gz and .zst sources
3. Parse and normalize each library (duplicate members removed)
4. Compress the libraries and write manifest.json

A source is "name=location" or a bare location named after its file.

Examples:
  # Build from local files
  prerank build hallmark=./h.all.v2024.1.Hs.symbols.gmt ./c2.cp.kegg.gmt.gz

  # Build with gzip into a custom directory
  prerank build --output ./msigdb --codec gzip ./*.gmt

  # Build and upload to GCS (for cronjobs)
  prerank build --output-gcs gs://my-bucket/catalog https://example.org/hallmark.gmt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBuild,
}

var (
	outputDir    string
	outputGCS    string
	buildWorkers int
	buildCodec   string
	tempDir      string
)

func init() {
	buildCmd.Flags().StringVarP(&outputDir, "output", "o", "./catalog", "output directory for the catalog (local builds)")
	buildCmd.Flags().StringVar(&outputGCS, "output-gcs", "", "GCS path for output (gs://bucket/prefix)")
	buildCmd.Flags().IntVar(&buildWorkers, "workers", 4, "number of libraries processed in parallel")
	buildCmd.Flags().StringVar(&buildCodec, "codec", "zstd", "library compression: zstd, gzip, none")
	buildCmd.Flags().StringVar(&tempDir, "temp-dir", "", "directory for downloaded sources")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	sources := make([]catalog.Source, 0, len(args))
	for _, arg := range args {
		src, err := catalog.ParseSource(arg)
		if err != nil {
			return err
		}
		sources = append(sources, src)
	}

	c, err := codecs.ByName(buildCodec)
	if err != nil {
		return err
	}
	if c.Extension() == "zst" {
		c = zstdcodec.NewBest()
	}

	// Setup context with cancellation.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "\nInterrupted, cleaning up...")
			cancel()
		case <-ctx.Done():
		}
	}()

	// Determine output directory.
	localOutput := outputDir
	if outputGCS != "" {
		// Build to temp directory, then upload to GCS.
		tmpDir, err := os.MkdirTemp("", "prerank-build-*")
		if err != nil {
			return fmt.Errorf("creating temp directory: %w", err)
		}
		localOutput = tmpDir
		defer os.RemoveAll(tmpDir)
	}

	progress := catalog.PrintProgress(os.Stderr)
	opts := []catalog.Option{
		catalog.WithOutputDir(localOutput),
		catalog.WithCodec(c),
		catalog.WithWorkers(buildWorkers),
		catalog.WithProgress(progress),
		catalog.WithLogger(logger.Named("catalog")),
	}
	if tempDir != "" {
		opts = append(opts, catalog.WithTempDir(tempDir))
	}
	b := catalog.NewBuilder(opts...)

	fmt.Printf("Building gene set catalog\n")
	fmt.Printf("  Sources:    %d\n", len(sources))
	if outputGCS != "" {
		fmt.Printf("  Output:     %s (via local temp)\n", outputGCS)
	} else {
		fmt.Printf("  Output:     %s\n", localOutput)
	}
	fmt.Printf("  Codec:      %s\n", buildCodec)
	fmt.Printf("  Workers:    %d\n", buildWorkers)
	fmt.Println()

	manifest, err := b.Build(ctx, sources)
	if err != nil {
		return err
	}

	// Upload to GCS if specified.
	if outputGCS != "" {
		fmt.Println()
		fmt.Printf("[upload] Uploading to %s...\n", outputGCS)

		uploader, err := catalog.NewGCSUploader(ctx, outputGCS, logger.Named("upload"))
		if err != nil {
			return fmt.Errorf("creating GCS uploader: %w", err)
		}
		defer uploader.Close()

		if err := uploader.Upload(ctx, localOutput, progress); err != nil {
			return fmt.Errorf("uploading to GCS: %w", err)
		}
		fmt.Println("[upload] Done")
	}

	fmt.Printf("Catalog ready: %d libraries (%s)\n", len(manifest.Libraries), manifest.Compression)
	return nil
}

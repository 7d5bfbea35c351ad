package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/genepile/prerank"
	"github.com/genepile/prerank/internal/catalog"
	"github.com/genepile/prerank/internal/config"
)

var librariesCmd = &cobra.Command{
	Use:   "libraries",
	Short: "List the gene set libraries in the catalog",
	Long: `List the libraries in the configured catalog.

For a local catalog every library is shown with its set count, distinct
genes, size on disk and the distribution of set sizes. Libraries in a
remote store are listed by name.`,
	RunE: runLibraries,
}

func init() {
	rootCmd.AddCommand(librariesCmd)
}

func runLibraries(cmd *cobra.Command, args []string) error {
	if cfg.Store.Backend == config.BackendDisk {
		m, err := catalog.ReadManifest(cfg.Store.Dir)
		if err != nil {
			return fmt.Errorf("catalog %q: %w; run 'prerank build' first", cfg.Store.Dir, err)
		}
		return printManifest(os.Stdout, cfg.Store.Dir, m)
	}

	ctx := context.Background()
	storeOpt, err := storeOption(ctx, cfg.Store)
	if err != nil {
		return err
	}
	client, err := prerank.New(storeOpt, prerank.WithLogger(logger.Named("prerank")))
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}
	defer client.Close()

	names, err := client.Libraries(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

// sizeSummary describes the set sizes of one library.
type sizeSummary struct {
	Mean   float64
	StdDev float64
	Median float64
	P90    float64
	Max    float64
}

func summarizeSizes(sizes []int) sizeSummary {
	if len(sizes) == 0 {
		return sizeSummary{}
	}
	xs := make([]float64, len(sizes))
	for i, n := range sizes {
		xs[i] = float64(n)
	}
	slices.Sort(xs)

	s := sizeSummary{
		Mean:   stat.Mean(xs, nil),
		Median: stat.Quantile(0.5, stat.Empirical, xs, nil),
		P90:    stat.Quantile(0.9, stat.Empirical, xs, nil),
		Max:    xs[len(xs)-1],
	}
	if len(xs) > 1 {
		s.StdDev = stat.StdDev(xs, nil)
	}
	return s
}

func printManifest(w io.Writer, dir string, m *catalog.Manifest) error {
	fmt.Fprintf(w, "Catalog:     %s\n", dir)
	fmt.Fprintf(w, "Built:       %s\n", m.BuiltAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "Compression: %s\n", m.Compression)
	fmt.Fprintf(w, "Libraries:   %d\n\n", len(m.Libraries))

	if len(m.Libraries) == 0 {
		fmt.Fprintln(w, "No libraries found in catalog.")
		fmt.Fprintln(w, "Run 'prerank build' to add libraries.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSETS\tGENES\tSIZE\tMEAN\tSD\tMEDIAN\tP90\tMAX")
	var total int64
	for _, l := range m.Libraries {
		s := summarizeSizes(l.Sizes)
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%.1f\t%.1f\t%.0f\t%.0f\t%.0f\n",
			l.Name, l.Sets, l.Genes, catalog.FormatBytes(l.Bytes),
			s.Mean, s.StdDev, s.Median, s.P90, s.Max)
		total += l.Bytes
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nTotal size:  %s\n", catalog.FormatBytes(total))
	return nil
}

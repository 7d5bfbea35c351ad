package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/genepile/prerank/internal/catalog"
	"github.com/genepile/prerank/internal/codec/codecs"
	"github.com/genepile/prerank/internal/gmt"
	"github.com/genepile/prerank/internal/rnk"
	"github.com/genepile/prerank/internal/store/diskstore"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [file...]",
	Short: "Verify the catalog or individual RNK and GMT files",
	Long: `Verify that input files and catalog libraries are well formed.

Without arguments every library in the catalog is checked:
- Each library can be read and decompressed
- Each library parses as GMT
- Set and gene counts match the manifest

With arguments each file is parsed as RNK (.rnk) or GMT (anything else,
optionally .gz or .zst).`,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return verifyFiles(os.Stdout, args)
	}
	return verifyCatalog(cmd.Context(), os.Stdout, cfg.Store.Dir)
}

func verifyFiles(w io.Writer, paths []string) error {
	var errCount int
	for _, path := range paths {
		summary, err := verifyFile(path)
		if err != nil {
			fmt.Fprintf(w, "  ERROR: %s: %v\n", path, err)
			errCount++
			continue
		}
		fmt.Fprintf(w, "  OK: %s: %s\n", path, summary)
	}
	if errCount > 0 {
		return fmt.Errorf("%d files failed verification", errCount)
	}
	return nil
}

func verifyFile(path string) (string, error) {
	if strings.HasSuffix(strings.ToLower(path), ".rnk") {
		f, err := os.Open(path)
		if err != nil {
			return "", err
		}
		defer f.Close()
		list, err := rnk.Parse(f)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d ranked genes", list.Len()), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	lib, err := parseLibrary(raw, codecs.ForPath(path))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d gene sets, %d distinct genes", len(lib.Sets), lib.Genes()), nil
}

func verifyCatalog(ctx context.Context, w io.Writer, dir string) error {
	m, err := catalog.ReadManifest(dir)
	if err != nil {
		return fmt.Errorf("catalog %q: %w", dir, err)
	}
	if len(m.Libraries) == 0 {
		fmt.Fprintln(w, "No libraries found in catalog.")
		return nil
	}

	c, err := codecs.ByName(m.Compression)
	if err != nil {
		return err
	}
	st, err := diskstore.New(dir, c)
	if err != nil {
		return err
	}
	defer st.Close()

	fmt.Fprintf(w, "Verifying %d libraries...\n", len(m.Libraries))

	var errCount int
	for i, info := range m.Libraries {
		if verbose {
			fmt.Fprintf(w, "  [%d/%d] %s\n", i+1, len(m.Libraries), info.Name)
		}
		if err := verifyLibrary(ctx, st, info); err != nil {
			fmt.Fprintf(w, "  ERROR: %s: %v\n", info.Name, err)
			errCount++
		}
	}

	if errCount > 0 {
		return fmt.Errorf("%d libraries failed verification", errCount)
	}
	fmt.Fprintln(w, "All libraries verified successfully.")
	return nil
}

func verifyLibrary(ctx context.Context, st *diskstore.Store, info catalog.LibraryInfo) error {
	data, err := st.ReadLibrary(ctx, info.Name)
	if err != nil {
		return err
	}
	lib, err := gmt.Parse(bytes.NewReader(data))
	if err != nil {
		return err
	}
	if len(lib.Sets) != info.Sets {
		return fmt.Errorf("%d sets, manifest lists %d", len(lib.Sets), info.Sets)
	}
	if lib.Genes() != info.Genes {
		return fmt.Errorf("%d distinct genes, manifest lists %d", lib.Genes(), info.Genes)
	}
	if len(lib.Sets) == 0 {
		return fmt.Errorf("empty library")
	}
	return nil
}

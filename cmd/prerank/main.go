// Package main provides the prerank CLI for running preranked gene set
// enrichment analyses and managing gene set catalogs.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

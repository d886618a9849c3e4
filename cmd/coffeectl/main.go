// coffeectl is a CLI for working with coffee finder catalogs.
//
// Usage:
//
//	coffeectl rank -f data/seattle.json --tags wifi --lat 47.6097 --lon -122.3422
//	coffeectl fetch --lat 47.6097 --lon -122.3422 --amenity cafe,bar -O venues.parquet
//	coffeectl import -f venues.parquet --db-addr localhost:6379
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/coffeefinder/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var outputFmt string

	rootCmd := &cobra.Command{
		Use:   "coffeectl",
		Short: "Rank, fetch and import coffee venue catalogs",
		Long: `coffeectl works with the venue catalogs served by coffeefinder.

It ranks a catalog file locally, builds catalog files from OpenStreetMap
and loads them into Redis or Valkey for the API server.`,
		Version:       fmt.Sprintf("%s (commit %s)", version.Version, version.Commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table", "Output format: table, json, csv")

	rootCmd.AddCommand(rankCmd(&outputFmt))
	rootCmd.AddCommand(fetchCmd())
	rootCmd.AddCommand(importCmd())

	return rootCmd
}

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	dbRedis "github.com/kailas-cloud/coffeefinder/internal/db/redis"
	"github.com/kailas-cloud/coffeefinder/internal/domain/venue"
	"github.com/kailas-cloud/coffeefinder/internal/repository/catalogfile"
	venuerepo "github.com/kailas-cloud/coffeefinder/internal/repository/venue"
)

// catalogWriter replaces the stored catalog.
type catalogWriter interface {
	SaveAll(ctx context.Context, venues []venue.Venue) (int64, error)
}

type importOptions struct {
	file       string
	addrs      []string
	password   string
	readyAfter time.Duration
}

func importCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load a catalog file into Redis or Valkey",
		Long: `Import validates every venue of a catalog file and replaces the catalog stored
in Redis or Valkey with it. Servers running with the redis catalog source pick
up the new version on their next refresh.

Examples:
  coffeectl import -f data/seattle.json --db-addr localhost:6379`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			loader, err := catalogfile.NewLoader(opts.file)
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}
			venues, err := loader.Load(ctx)
			if err != nil {
				return fmt.Errorf("load catalog: %w", err)
			}

			store, err := dbRedis.NewStore(dbRedis.Config{Addrs: opts.addrs, Password: opts.password})
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			defer store.Close()
			if err := store.WaitForReady(ctx, opts.readyAfter); err != nil {
				return fmt.Errorf("database not ready: %w", err)
			}

			return importCatalog(ctx, venuerepo.New(store), venues, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.file, "file", "f", "", "Catalog file: .json, .yaml or .parquet (required)")
	f.StringSliceVar(&opts.addrs, "db-addr", []string{"localhost:6379"}, "Redis/Valkey addresses")
	f.StringVar(&opts.password, "db-password", "", "Redis/Valkey password")
	f.DurationVar(&opts.readyAfter, "ready-timeout", 10*time.Second, "How long to wait for the database")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func importCatalog(ctx context.Context, w catalogWriter, venues []venue.Venue, out io.Writer) error {
	version, err := w.SaveAll(ctx, venues)
	if err != nil {
		return fmt.Errorf("save catalog: %w", err)
	}
	fmt.Fprintf(out, "Imported %d venues, catalog version %d\n", len(venues), version)
	return nil
}

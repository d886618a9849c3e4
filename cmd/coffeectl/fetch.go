package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	domcat "github.com/kailas-cloud/coffeefinder/internal/domain/catalog"
	"github.com/kailas-cloud/coffeefinder/internal/domain/geo"
	"github.com/kailas-cloud/coffeefinder/internal/domain/venue"
	"github.com/kailas-cloud/coffeefinder/internal/repository/catalogfile"
	"github.com/kailas-cloud/coffeefinder/internal/transport/nominatim"
	"github.com/kailas-cloud/coffeefinder/internal/transport/overpass"
)

// reverser resolves a coordinate to a postal address.
type reverser interface {
	Reverse(ctx context.Context, p geo.Point) (string, error)
}

type fetchOptions struct {
	lat, lon       float64
	radiusM        float64
	amenities      []string
	maxResults     int
	deny           []string
	out            string
	reverseGeocode bool
	overpassURL    string
	nominatimURL   string
	timeout        time.Duration
}

func fetchCmd() *cobra.Command {
	var opts fetchOptions

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Build a catalog file from OpenStreetMap",
		Long: `Fetch queries the Overpass API for venues around a coordinate and writes
them as a catalog file. Several amenity kinds are fetched one by one and merged.

Examples:
  # Cafes within 2 km of Pike Place, as JSON
  coffeectl fetch --lat 47.6097 --lon -122.3422 --radius-m 2000 -O seattle.json

  # Cafes and bars, skipping chains, filling missing addresses
  coffeectl fetch --lat 47.6097 --lon -122.3422 --amenity cafe,bar --deny starbucks --reverse-geocode -O seattle.parquet`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			client := overpass.NewClient(&overpass.Config{
				BaseURL:   opts.overpassURL,
				UserAgent: nominatim.DefaultUserAgent,
				Timeout:   opts.timeout,
			})
			var rev reverser
			if opts.reverseGeocode {
				rev = nominatim.NewClient(&nominatim.Config{BaseURL: opts.nominatimURL})
			}

			venues, err := collect(ctx, client, rev, &opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if err := catalogfile.Write(opts.out, venues); err != nil {
				return fmt.Errorf("write catalog: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d venues to %s\n", len(venues), opts.out)
			return nil
		},
	}

	f := cmd.Flags()
	f.Float64Var(&opts.lat, "lat", 0, "Center latitude (required)")
	f.Float64Var(&opts.lon, "lon", 0, "Center longitude (required)")
	f.Float64Var(&opts.radiusM, "radius-m", overpass.DefaultRadiusM, "Search radius in meters")
	f.StringSliceVar(&opts.amenities, "amenity", []string{overpass.DefaultAmenity}, "OSM amenity kinds (comma-separated)")
	f.IntVar(&opts.maxResults, "max-results", overpass.DefaultMaxResults, "Maximum venues per amenity")
	f.StringSliceVar(&opts.deny, "deny", nil, "Drop venues whose name contains any of these")
	f.StringVarP(&opts.out, "out", "O", "", "Output catalog file: .json, .yaml or .parquet (required)")
	f.BoolVar(&opts.reverseGeocode, "reverse-geocode", false, "Fill missing addresses with Nominatim")
	f.StringVar(&opts.overpassURL, "overpass-url", overpass.DefaultBaseURL, "Overpass interpreter URL")
	f.StringVar(&opts.nominatimURL, "nominatim-url", nominatim.DefaultBaseURL, "Nominatim base URL")
	f.DurationVar(&opts.timeout, "timeout", 5*time.Minute, "Overall timeout")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

// collect fetches every amenity kind, merges by ID and optionally fills addresses.
func collect(
	ctx context.Context,
	fetcher overpass.Fetcher,
	rev reverser,
	opts *fetchOptions,
	warn io.Writer,
) ([]venue.Venue, error) {
	if len(opts.amenities) == 0 {
		return nil, errors.New("at least one amenity is required")
	}

	var all []venue.Venue
	for _, amenity := range opts.amenities {
		req := overpass.Request{
			Amenity:    amenity,
			Center:     geo.Point{Lat: opts.lat, Lon: opts.lon},
			RadiusM:    opts.radiusM,
			MaxResults: opts.maxResults,
			DenyList:   opts.deny,
		}
		if err := req.Validate(); err != nil {
			return nil, err //nolint:wrapcheck // names the offending field
		}
		venues, err := fetcher.Fetch(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", amenity, err)
		}
		all = append(all, venues...)
	}
	all = domcat.Dedupe(all)

	if rev == nil {
		return all, nil
	}
	for i := range all {
		filled, err := fillAddress(ctx, rev, &all[i])
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("reverse geocode: %w", ctx.Err())
			}
			fmt.Fprintf(warn, "warning: no address for %s: %v\n", all[i].ID(), err)
			continue
		}
		all[i] = filled
	}
	return all, nil
}

func fillAddress(ctx context.Context, rev reverser, v *venue.Venue) (venue.Venue, error) {
	p, ok := v.Point()
	if v.Address() != "" || !ok {
		return *v, nil
	}
	address, err := rev.Reverse(ctx, p)
	if err != nil {
		return venue.Venue{}, err //nolint:wrapcheck // caller adds the venue id
	}
	params := v.Params()
	params.Address = address
	return venue.New(params) //nolint:wrapcheck // params came from a valid venue
}

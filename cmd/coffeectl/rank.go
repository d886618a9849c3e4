package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/coffeefinder/internal/domain/directions"
	"github.com/kailas-cloud/coffeefinder/internal/domain/geo"
	"github.com/kailas-cloud/coffeefinder/internal/domain/search/query"
	"github.com/kailas-cloud/coffeefinder/internal/domain/tag"
	"github.com/kailas-cloud/coffeefinder/internal/domain/venue"
	"github.com/kailas-cloud/coffeefinder/internal/repository/catalogfile"
	"github.com/kailas-cloud/coffeefinder/internal/transport/nominatim"
	cataloguc "github.com/kailas-cloud/coffeefinder/internal/usecase/catalog"
	"github.com/kailas-cloud/coffeefinder/internal/usecase/rank"
	searchuc "github.com/kailas-cloud/coffeefinder/internal/usecase/search"
)

type rankOptions struct {
	file           string
	tags           string
	preferred      string
	minRating      float64
	maxPrice       string
	lat, lon       float64
	latSet, lonSet bool
	address        string
	structured     geo.Address
	nominatimURL   string
	radiusKm       float64
	exclude        []string
	amenity        string
	mode           string
	limit          int
	weights        rank.Weights
	timeout        time.Duration
}

func rankCmd(outputFmt *string) *cobra.Command {
	opts := rankOptions{weights: rank.DefaultWeights()}

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank venues of a catalog file",
		Long: `Rank loads a catalog file (.json, .yaml or .parquet), filters and scores its
venues against the given preferences and prints the shortlist.

Examples:
  # Highly rated venues with wifi near Pike Place
  coffeectl rank -f data/seattle.json --tags wifi --min-rating 4.5 --lat 47.6097 --lon -122.3422

  # Geocode the origin and keep venues within 1 km
  coffeectl rank -f data/seattle.json --address "Pike Place Market, Seattle" --radius-km 1

  # Same with a structured address, up to $$
  coffeectl rank -f data/seattle.json --street "1912 Pike Place" --city Seattle --state WA --max-price '$$'

  # Export a CSV
  coffeectl rank -f data/seattle.json --tags espresso -o csv > results.csv`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.latSet, opts.lonSet = cmd.Flags().Changed("lat"), cmd.Flags().Changed("lon")
			resp, err := runRank(cmd.Context(), &opts)
			if err != nil {
				return err
			}
			return outputResult(cmd.OutOrStdout(), &resp, *outputFmt)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.file, "file", "f", "", "Catalog file (required)")
	f.StringVar(&opts.tags, "tags", "", "Required tags (comma-separated)")
	f.StringVar(&opts.preferred, "prefer", "", "Preferred tags, used for scoring only (comma-separated)")
	f.Float64Var(&opts.minRating, "min-rating", 0, "Minimum rating (0-5)")
	f.StringVar(&opts.maxPrice, "max-price", "", "Maximum price tier: $ to $$$$ or 1-4 (empty = any)")
	f.Float64Var(&opts.lat, "lat", 0, "Origin latitude (with --lon)")
	f.Float64Var(&opts.lon, "lon", 0, "Origin longitude (with --lat)")
	f.StringVar(&opts.address, "address", "", "Origin address, geocoded with Nominatim")
	f.StringVar(&opts.structured.Street, "street", "", "Origin street, geocoded with --city and --state")
	f.StringVar(&opts.structured.City, "city", "", "Origin city")
	f.StringVar(&opts.structured.State, "state", "", "Origin state")
	f.StringVar(&opts.nominatimURL, "nominatim-url", nominatim.DefaultBaseURL, "Nominatim base URL")
	f.Float64Var(&opts.radiusKm, "radius-km", 0, "Maximum distance from the origin in km (0 = any)")
	f.StringSliceVar(&opts.exclude, "exclude", nil, "Drop venues whose name contains any of these")
	f.StringVar(&opts.amenity, "amenity", "", "Only venues of this amenity kind")
	f.StringVar(&opts.mode, "mode", string(directions.Walking), "Travel mode for directions links: walking, driving")
	f.IntVarP(&opts.limit, "limit", "n", query.DefaultLimit, "Maximum number of results")
	f.Float64Var(&opts.weights.Rating, "weight-rating", opts.weights.Rating, "Rating score weight")
	f.Float64Var(&opts.weights.Overlap, "weight-overlap", opts.weights.Overlap, "Tag overlap score weight")
	f.Float64Var(&opts.weights.Distance, "weight-distance", opts.weights.Distance, "Proximity score weight")
	f.DurationVar(&opts.timeout, "timeout", 30*time.Second, "Overall timeout")
	_ = cmd.MarkFlagRequired("file")
	cmd.MarkFlagsRequiredTogether("lat", "lon")
	cmd.MarkFlagsMutuallyExclusive("lat", "address")
	cmd.MarkFlagsMutuallyExclusive("lat", "city")

	return cmd
}

func runRank(ctx context.Context, opts *rankOptions) (searchuc.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	loader, err := catalogfile.NewLoader(opts.file)
	if err != nil {
		return searchuc.Response{}, fmt.Errorf("open catalog: %w", err)
	}
	engine, err := rank.New(opts.weights)
	if err != nil {
		return searchuc.Response{}, err //nolint:wrapcheck // already describes the weights
	}

	catalog := cataloguc.New(loader, zap.NewNop())
	if _, err := catalog.Refresh(ctx); err != nil {
		return searchuc.Response{}, err //nolint:wrapcheck // names the source
	}

	var geocoder searchuc.Geocoder
	if opts.address != "" || !opts.structured.IsZero() {
		geocoder = nominatim.NewClient(&nominatim.Config{BaseURL: opts.nominatimURL})
	}

	req, err := opts.request()
	if err != nil {
		return searchuc.Response{}, err
	}
	resp, err := searchuc.New(catalog, engine, geocoder).Search(ctx, req)
	if err != nil {
		return searchuc.Response{}, fmt.Errorf("rank: %w", err)
	}
	return resp, nil
}

func (o *rankOptions) request() (searchuc.Request, error) {
	tags, err := tag.Parse(o.tags)
	if err != nil {
		return searchuc.Request{}, fmt.Errorf("--tags: %w", err)
	}
	preferred, err := tag.Parse(o.preferred)
	if err != nil {
		return searchuc.Request{}, fmt.Errorf("--prefer: %w", err)
	}
	tier, err := venue.ParsePriceTier(o.maxPrice)
	if err != nil {
		return searchuc.Request{}, fmt.Errorf("--max-price: %w", err)
	}

	p := query.Params{
		Tags:          tags.Values(),
		PreferredTags: preferred.Values(),
		MinRating:     o.minRating,
		MaxDistanceKm: o.radiusKm,
		ExcludeNames:  o.exclude,
		Amenity:       o.amenity,
		TravelMode:    directions.TravelMode(o.mode),
		Limit:         o.limit,
	}
	if tier.IsKnown() {
		p.MaxPriceTier = &tier
	}

	structured := geo.Address{
		Street: strings.TrimSpace(o.structured.Street),
		City:   strings.TrimSpace(o.structured.City),
		State:  strings.TrimSpace(o.structured.State),
	}
	switch {
	case o.latSet != o.lonSet:
		return searchuc.Request{}, errors.New("--lat and --lon must be given together")
	case o.latSet && (o.address != "" || !structured.IsZero()):
		return searchuc.Request{}, errors.New("use either --lat/--lon or an address")
	case o.latSet:
		p.Origin = &geo.Point{Lat: o.lat, Lon: o.lon}
	}
	return searchuc.Request{Params: p, Address: o.address, Structured: structured}, nil
}

// Package search answers venue searches against the active catalog snapshot.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/coffeefinder/internal/domain"
	"github.com/kailas-cloud/coffeefinder/internal/domain/directions"
	"github.com/kailas-cloud/coffeefinder/internal/domain/geo"
	"github.com/kailas-cloud/coffeefinder/internal/domain/search/query"
	"github.com/kailas-cloud/coffeefinder/internal/domain/search/result"
	"github.com/kailas-cloud/coffeefinder/internal/domain/venue"
	"github.com/kailas-cloud/coffeefinder/internal/logger"
	"github.com/kailas-cloud/coffeefinder/internal/metrics"
)

// Request holds raw query parameters plus an optional address to use as
// origin. Address and Structured are ignored when Params already carries an
// origin; Structured is used only when Address is empty.
type Request struct {
	Params     query.Params
	Address    string
	Structured geo.Address
}

// Response is one ranked shortlist.
type Response struct {
	Results []result.Ranked
	// Matched counts venues passing the filters before truncation.
	Matched        int
	CatalogVersion uint64
	// Origin is the query origin, geocoded from Address when needed.
	Origin     *geo.Place
	Bounds     geo.Bounds
	HasBounds  bool
	TravelMode directions.TravelMode
}

// Service runs searches.
type Service struct {
	catalog  CatalogReader
	ranker   Ranker
	geocoder Geocoder
}

// New creates a search service. geocoder can be nil; address searches then fail validation.
func New(catalog CatalogReader, ranker Ranker, geocoder Geocoder) *Service {
	return &Service{catalog: catalog, ranker: ranker, geocoder: geocoder}
}

// Search ranks the current snapshot for the request.
func (s *Service) Search(ctx context.Context, req Request) (Response, error) {
	resp, err := s.search(ctx, req)
	switch {
	case err == nil:
		metrics.SearchRequestsTotal.WithLabelValues("ok").Inc()
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrGeocodeFailed):
		metrics.SearchRequestsTotal.WithLabelValues("invalid").Inc()
	default:
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
	}
	return resp, err
}

func (s *Service) search(ctx context.Context, req Request) (Response, error) {
	q, origin, err := s.buildQuery(ctx, req)
	if err != nil {
		return Response{}, err
	}

	snap, err := s.catalog.Snapshot()
	if err != nil {
		return Response{}, fmt.Errorf("get catalog: %w", err)
	}

	start := time.Now()
	out, err := s.ranker.RankDetailed(snap.Venues(), q)
	metrics.RankDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return Response{}, fmt.Errorf("rank: %w", err)
	}

	metrics.SearchResultsReturned.Observe(float64(len(out.Results)))
	metrics.SearchVenuesMatched.Observe(float64(out.Matched))

	resp := Response{
		Results:        out.Results,
		Matched:        out.Matched,
		CatalogVersion: snap.Version(),
		Origin:         origin,
		TravelMode:     q.TravelMode(),
	}
	resp.Bounds, resp.HasBounds = bounds(out.Results, origin)

	logger.FromContext(ctx).Debug("Search ranked",
		zap.Int("catalog", snap.Len()),
		zap.Int("matched", out.Matched),
		zap.Int("returned", len(out.Results)),
		zap.Uint64("catalog_version", snap.Version()),
	)
	return resp, nil
}

// buildQuery geocodes the address when no origin is given, then validates.
func (s *Service) buildQuery(ctx context.Context, req Request) (query.Query, *geo.Place, error) {
	params := req.Params
	var origin *geo.Place

	address := strings.TrimSpace(req.Address)
	switch {
	case params.Origin != nil:
		origin = &geo.Place{Point: *params.Origin}
	case address != "" || !req.Structured.IsZero():
		place, err := s.geocode(ctx, address, req.Structured)
		if err != nil {
			return query.Query{}, nil, err
		}
		params.Origin = &place.Point
		origin = &place
	}

	q, err := query.New(params)
	if err != nil {
		return query.Query{}, nil, err //nolint:wrapcheck // domain validation error is surfaced as is
	}
	return q, origin, nil
}

func (s *Service) geocode(ctx context.Context, address string, structured geo.Address) (geo.Place, error) {
	if s.geocoder == nil {
		return geo.Place{}, domain.NewValidationError("address", "geocoding is disabled")
	}

	var (
		place geo.Place
		err   error
	)
	if address != "" {
		place, err = s.geocoder.Geocode(ctx, address)
	} else {
		switch {
		case structured.City == "":
			return geo.Place{}, domain.NewValidationError("city", "is required with a structured address")
		case structured.State == "":
			return geo.Place{}, domain.NewValidationError("state", "is required with a structured address")
		}
		place, err = s.geocoder.GeocodeAddress(ctx, structured)
	}
	if err != nil {
		return geo.Place{}, fmt.Errorf("geocode origin: %w", err)
	}
	return place, nil
}

// bounds encloses the origin and every located result, for fitting a map view.
func bounds(results []result.Ranked, origin *geo.Place) (geo.Bounds, bool) {
	points := make([]geo.Point, 0, len(results)+1)
	if origin != nil {
		points = append(points, origin.Point)
	}
	for i := range results {
		v := results[i].Venue()
		if p, ok := v.Point(); ok {
			points = append(points, p)
		}
	}
	return geo.BoundsOf(points)
}

// Venue returns a venue from the current snapshot.
func (s *Service) Venue(_ context.Context, id string) (venue.Venue, error) {
	snap, err := s.catalog.Snapshot()
	if err != nil {
		return venue.Venue{}, fmt.Errorf("get catalog: %w", err)
	}
	v, ok := snap.Get(id)
	if !ok {
		return venue.Venue{}, fmt.Errorf("venue %q: %w", id, domain.ErrNotFound)
	}
	return v, nil
}

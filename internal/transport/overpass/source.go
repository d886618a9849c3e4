package overpass

import (
	"context"

	"github.com/kailas-cloud/coffeefinder/internal/domain/venue"
)

// Fetcher runs an area search. Implemented by Client and by the response cache.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) ([]venue.Venue, error)
}

// Source serves a fixed area search as a catalog source.
type Source struct {
	fetcher Fetcher
	req     Request
}

// NewSource binds a fetcher to one area.
func NewSource(f Fetcher, req Request) *Source {
	return &Source{fetcher: f, req: req}
}

// Name implements the catalog source contract.
func (s *Source) Name() string { return providerName }

// Load fetches the area.
func (s *Source) Load(ctx context.Context) ([]venue.Venue, error) {
	return s.fetcher.Fetch(ctx, s.req)
}

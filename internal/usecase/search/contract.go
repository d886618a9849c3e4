package search

import (
	"context"

	domcat "github.com/kailas-cloud/coffeefinder/internal/domain/catalog"
	"github.com/kailas-cloud/coffeefinder/internal/domain/geo"
	"github.com/kailas-cloud/coffeefinder/internal/domain/search/query"
	"github.com/kailas-cloud/coffeefinder/internal/domain/venue"
	"github.com/kailas-cloud/coffeefinder/internal/usecase/rank"
)

// CatalogReader provides the active catalog snapshot.
type CatalogReader interface {
	Snapshot() (*domcat.Snapshot, error)
}

// Ranker orders catalog venues for a query.
type Ranker interface {
	RankDetailed(catalog []venue.Venue, q query.Query) (rank.Outcome, error)
}

// Geocoder resolves an address to a coordinate.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (geo.Place, error)
	GeocodeAddress(ctx context.Context, address geo.Address) (geo.Place, error)
}

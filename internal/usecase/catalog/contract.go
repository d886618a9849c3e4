package catalog

import (
	"context"

	"github.com/kailas-cloud/coffeefinder/internal/domain/venue"
)

// Source loads the full venue catalog from a backing store or provider.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]venue.Venue, error)
}

// VersionedSource is a Source that keeps its own catalog version. Snapshots
// of such a source carry the stored version instead of a local counter.
type VersionedSource interface {
	Source
	Version(ctx context.Context) (int64, error)
}

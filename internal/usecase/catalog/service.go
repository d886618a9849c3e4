// Package catalog keeps the current venue catalog snapshot and refreshes it from a Source.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/coffeefinder/internal/domain"
	domcat "github.com/kailas-cloud/coffeefinder/internal/domain/catalog"
	"github.com/kailas-cloud/coffeefinder/internal/domain/venue"
	"github.com/kailas-cloud/coffeefinder/internal/metrics"
)

// versionedLoadAttempts bounds retries when the stored catalog is replaced mid-load.
const versionedLoadAttempts = 3

var errVersionChanged = errors.New("catalog version changed during load")

// Service owns the active snapshot. Readers get an immutable snapshot and
// never observe a refresh in progress.
type Service struct {
	source  Source
	current atomic.Pointer[domcat.Snapshot]
	version atomic.Uint64
	// refreshMu serializes refreshes so versions are assigned in load order.
	refreshMu sync.Mutex
	now       func() time.Time
	logger    *zap.Logger
}

// New creates a catalog service with no snapshot loaded.
func New(src Source, logger *zap.Logger) *Service {
	return &Service{source: src, now: time.Now, logger: logger}
}

// Snapshot returns the active snapshot or domain.ErrCatalogUnavailable before the first load.
func (s *Service) Snapshot() (*domcat.Snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, domain.ErrCatalogUnavailable
	}
	return snap, nil
}

// Refresh loads the source and swaps in a new snapshot.
// On failure the previous snapshot stays active.
func (s *Service) Refresh(ctx context.Context) (*domcat.Snapshot, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	name := s.source.Name()
	venues, version, err := s.load(ctx)
	if err != nil {
		metrics.CatalogRefreshTotal.WithLabelValues(name, "error").Inc()
		return nil, fmt.Errorf("load catalog from %s: %w", name, err)
	}

	snap, err := domcat.NewSnapshot(venues, version, name, s.now())
	if err != nil {
		metrics.CatalogRefreshTotal.WithLabelValues(name, "error").Inc()
		return nil, fmt.Errorf("build snapshot from %s: %w", name, err)
	}

	s.version.Store(snap.Version())
	s.current.Store(snap)

	metrics.CatalogRefreshTotal.WithLabelValues(name, "ok").Inc()
	metrics.CatalogVenues.Set(float64(snap.Len()))
	metrics.CatalogVersion.Set(float64(snap.Version()))
	metrics.CatalogLastRefreshTimestamp.Set(float64(snap.LoadedAt().Unix()))

	s.logger.Info("Catalog refreshed",
		zap.String("source", name),
		zap.Int("venues", snap.Len()),
		zap.Uint64("version", snap.Version()),
	)
	return snap, nil
}

// load reads the source. A VersionedSource is read between two identical
// version reads so the snapshot version matches its venues.
func (s *Service) load(ctx context.Context) ([]venue.Venue, uint64, error) {
	vs, ok := s.source.(VersionedSource)
	if !ok {
		venues, err := s.source.Load(ctx)
		if err != nil {
			return nil, 0, err //nolint:wrapcheck // wrapped by Refresh
		}
		return venues, s.version.Load() + 1, nil
	}

	for range versionedLoadAttempts {
		before, err := vs.Version(ctx)
		if err != nil {
			return nil, 0, err //nolint:wrapcheck // wrapped by Refresh
		}
		venues, err := vs.Load(ctx)
		if err != nil {
			return nil, 0, err //nolint:wrapcheck // wrapped by Refresh
		}
		after, err := vs.Version(ctx)
		if err != nil {
			return nil, 0, err //nolint:wrapcheck // wrapped by Refresh
		}
		if before == after && after >= 0 {
			return venues, uint64(after), nil
		}
		s.logger.Debug("Catalog replaced during load, retrying",
			zap.Int64("before", before), zap.Int64("after", after))
	}
	return nil, 0, errVersionChanged
}

// Run refreshes the catalog every interval until ctx is cancelled.
// A non-positive interval disables periodic refresh. Failures are logged and retried on the next tick.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn("Catalog refresh failed, keeping previous snapshot", zap.Error(err))
			}
		}
	}
}

// HealthCheck reports whether a snapshot is loaded.
func (s *Service) HealthCheck(_ context.Context) error {
	_, err := s.Snapshot()
	return err
}

// Package catalog holds immutable point-in-time views of the venue catalog.
package catalog

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/coffeefinder/internal/domain"
	"github.com/kailas-cloud/coffeefinder/internal/domain/venue"
)

// Snapshot is a read-only view of all venues available to a query.
// A Snapshot is never mutated after construction; refreshes build a new one.
type Snapshot struct {
	venues   []venue.Venue
	byID     map[string]int
	version  uint64
	source   string
	loadedAt time.Time
}

// NewSnapshot validates ID uniqueness and creates a Snapshot.
// The input slice is copied.
func NewSnapshot(venues []venue.Venue, version uint64, source string, loadedAt time.Time) (*Snapshot, error) {
	byID := make(map[string]int, len(venues))
	own := make([]venue.Venue, len(venues))
	for i := range venues {
		id := venues[i].ID()
		if _, dup := byID[id]; dup {
			return nil, fmt.Errorf("%w: %q", domain.ErrDuplicateVenue, id)
		}
		byID[id] = i
		own[i] = venues[i]
	}
	return &Snapshot{
		venues:   own,
		byID:     byID,
		version:  version,
		source:   source,
		loadedAt: loadedAt,
	}, nil
}

// Venues returns the catalog entries. Callers must treat the slice as read-only.
func (s *Snapshot) Venues() []venue.Venue { return s.venues }

// Len returns the number of venues.
func (s *Snapshot) Len() int { return len(s.venues) }

// Get returns a venue by ID.
func (s *Snapshot) Get(id string) (venue.Venue, bool) {
	i, ok := s.byID[id]
	if !ok {
		return venue.Venue{}, false
	}
	return s.venues[i], true
}

// Version returns the monotonically increasing snapshot version.
func (s *Snapshot) Version() uint64 { return s.version }

// Source returns the name of the source the snapshot was loaded from.
func (s *Snapshot) Source() string { return s.source }

// LoadedAt returns the time the snapshot was built.
func (s *Snapshot) LoadedAt() time.Time { return s.loadedAt }

// Dedupe drops venues whose ID was already seen, keeping the first occurrence.
// Sources that merge overlapping upstream results (ways and nodes for the same
// place) use it before building a Snapshot.
func Dedupe(venues []venue.Venue) []venue.Venue {
	seen := make(map[string]struct{}, len(venues))
	out := venues[:0:0]
	for i := range venues {
		if _, ok := seen[venues[i].ID()]; ok {
			continue
		}
		seen[venues[i].ID()] = struct{}{}
		out = append(out, venues[i])
	}
	return out
}

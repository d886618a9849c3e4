// Package rank implements the venue recommendation engine: filter, score, order, truncate.
// The engine is a pure function of its inputs; it performs no I/O and never mutates the catalog.
package rank

import (
	"fmt"
	"math"
	"sort"

	"github.com/kailas-cloud/coffeefinder/internal/domain/geo"
	"github.com/kailas-cloud/coffeefinder/internal/domain/search/query"
	"github.com/kailas-cloud/coffeefinder/internal/domain/search/result"
	"github.com/kailas-cloud/coffeefinder/internal/domain/tag"
	"github.com/kailas-cloud/coffeefinder/internal/domain/venue"
)

// Engine ranks catalog venues against a query. Safe for concurrent use.
type Engine struct {
	weights Weights
}

// Outcome is the result of a ranking pass.
type Outcome struct {
	Results []result.Ranked
	// Matched is the number of venues that passed the filter stage (before truncation).
	Matched int
}

// New creates an Engine with validated weights.
func New(w Weights) (*Engine, error) {
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("invalid weights: %w", err)
	}
	return &Engine{weights: w}, nil
}

// NewDefault creates an Engine with DefaultWeights.
func NewDefault() *Engine {
	return &Engine{weights: DefaultWeights()}
}

// Weights returns the engine's scoring weights.
func (e *Engine) Weights() Weights { return e.weights }

// Rank returns at most q.Limit() venues ordered by relevance.
func (e *Engine) Rank(catalog []venue.Venue, q query.Query) ([]result.Ranked, error) {
	out, err := e.RankDetailed(catalog, q)
	if err != nil {
		return nil, err
	}
	return out.Results, nil
}

// RankDetailed is Rank that also reports how many venues matched the filters.
func (e *Engine) RankDetailed(catalog []venue.Venue, q query.Query) (Outcome, error) {
	if err := q.Validate(); err != nil {
		return Outcome{}, err //nolint:wrapcheck // domain validation error is surfaced as is
	}

	origin, hasOrigin := q.Origin()
	pool := q.PreferredTags().Difference(q.DesiredTags())

	ranked := make([]result.Ranked, 0, min(len(catalog), q.Limit()))
	for i := range catalog {
		v := &catalog[i]

		distance, hasDistance := distanceFrom(v, origin, hasOrigin)
		if !matches(v, &q, distance, hasDistance) {
			continue
		}

		score := e.score(v, &q, pool, distance, hasDistance, hasOrigin)
		if hasDistance {
			ranked = append(ranked, result.NewWithDistance(*v, score, distance))
		} else {
			ranked = append(ranked, result.New(*v, score))
		}
	}

	sort.Slice(ranked, func(i, j int) bool { return less(&ranked[i], &ranked[j]) })

	matched := len(ranked)
	if len(ranked) > q.Limit() {
		ranked = ranked[:q.Limit()]
	}
	return Outcome{Results: ranked, Matched: matched}, nil
}

func distanceFrom(v *venue.Venue, origin geo.Point, hasOrigin bool) (float64, bool) {
	if !hasOrigin {
		return 0, false
	}
	p, ok := v.Point()
	if !ok {
		return 0, false
	}
	return origin.DistanceTo(p), true
}

// matches applies the hard constraints. Any failure excludes the venue.
func matches(v *venue.Venue, q *query.Query, distance float64, hasDistance bool) bool {
	if v.Rating() < q.MinRating() {
		return false
	}
	if limit, ok := q.MaxPriceTier(); ok && v.PriceTier() > limit {
		return false
	}
	if q.Amenity() != "" && v.Amenity() != q.Amenity() {
		return false
	}
	if !v.Tags().ContainsAll(q.DesiredTags()) {
		return false
	}
	if radius := q.MaxDistanceMeters(); radius > 0 && (!hasDistance || distance > radius) {
		return false
	}
	if q.Excludes(v.Name()) {
		return false
	}
	return true
}

// score combines rating, tag overlap and proximity. Without an origin the
// proximity term is dropped and the remaining weights are renormalized.
func (e *Engine) score(
	v *venue.Venue, q *query.Query, pool tag.Set,
	distance float64, hasDistance, hasOrigin bool,
) float64 {
	ratingTerm := v.Rating() / venue.MaxRating
	overlapTerm := overlap(v.Tags(), q.DesiredTags(), pool)

	w := e.weights
	if !hasOrigin {
		total := w.Rating + w.Overlap
		if total == 0 {
			return 0
		}
		return (w.Rating*ratingTerm + w.Overlap*overlapTerm) / total
	}

	proximityTerm := 0.0
	if hasDistance {
		proximityTerm = 1 / (1 + (distance/1000)/DistanceScaleKm)
	}
	return w.Rating*ratingTerm + w.Overlap*overlapTerm + w.Distance*proximityTerm
}

// overlap rewards tags beyond the required set. With preferred tags it is the
// share of preferences met; otherwise extra tags count up to OverlapCap.
func overlap(venueTags, desired, pool tag.Set) float64 {
	if !pool.IsEmpty() {
		return float64(venueTags.Intersect(pool).Len()) / float64(pool.Len())
	}
	extra := venueTags.Difference(desired).Len()
	return math.Min(float64(extra), OverlapCap) / OverlapCap
}

// less is the total order: score desc, rating desc, distance asc (unknown last), id asc.
func less(a, b *result.Ranked) bool {
	if a.Score() != b.Score() {
		return a.Score() > b.Score()
	}
	va, vb := a.Venue(), b.Venue()
	if va.Rating() != vb.Rating() {
		return va.Rating() > vb.Rating()
	}
	da, okA := a.Distance()
	db, okB := b.Distance()
	if okA != okB {
		return okA
	}
	if okA && da != db {
		return da < db
	}
	return a.ID() < b.ID()
}

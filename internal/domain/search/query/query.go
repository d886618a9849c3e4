package query

import (
	"math"
	"slices"
	"strings"

	"github.com/kailas-cloud/coffeefinder/internal/domain"
	"github.com/kailas-cloud/coffeefinder/internal/domain/directions"
	"github.com/kailas-cloud/coffeefinder/internal/domain/geo"
	"github.com/kailas-cloud/coffeefinder/internal/domain/tag"
	"github.com/kailas-cloud/coffeefinder/internal/domain/venue"
)

// Query parameter limits.
const (
	// DefaultLimit is used by callers that let the user omit the limit.
	DefaultLimit = 20
	// MaxLimit caps the result limit; larger values are clamped.
	MaxLimit = 500
	// MaxDistanceKm is the largest accepted search radius.
	MaxDistanceKm = 100.0
	// MaxExcludeNames bounds the deny list.
	MaxExcludeNames = 32
	// MaxTags bounds desired and preferred tag sets.
	MaxTags = 32
)

// Params carries the raw fields of a search request before validation.
type Params struct {
	Tags          []string
	PreferredTags []string
	MinRating     float64
	MaxPriceTier  *venue.PriceTier
	Origin        *geo.Point
	MaxDistanceKm float64
	ExcludeNames  []string
	Amenity       string
	TravelMode    directions.TravelMode
	Limit         int
}

// Query is a validated, immutable search request.
type Query struct {
	desired       tag.Set
	preferred     tag.Set
	minRating     float64
	maxPriceTier  venue.PriceTier
	hasPriceLimit bool
	origin        *geo.Point
	maxDistanceM  float64
	excludeNames  []string
	amenity       string
	travelMode    directions.TravelMode
	limit         int
}

// New validates and normalizes search parameters.
// Limit <= 0 is rejected; limit > MaxLimit is clamped to MaxLimit.
// Travel mode defaults to walking.
func New(p Params) (Query, error) {
	if math.IsNaN(p.MinRating) || p.MinRating < venue.MinRating || p.MinRating > venue.MaxRating {
		return Query{}, domain.NewValidationErrorf("min_rating", "must be between %.1f and %.1f",
			venue.MinRating, venue.MaxRating)
	}
	if p.Limit <= 0 {
		return Query{}, domain.NewValidationError("limit", "must be a positive integer")
	}
	limit := p.Limit
	if limit > MaxLimit {
		limit = MaxLimit
	}

	if len(p.Tags) > MaxTags {
		return Query{}, domain.NewValidationErrorf("tags", "too many tags (max %d)", MaxTags)
	}
	desired, err := tag.New(p.Tags...)
	if err != nil {
		return Query{}, domain.NewValidationError("tags", err.Error())
	}
	if len(p.PreferredTags) > MaxTags {
		return Query{}, domain.NewValidationErrorf("preferred_tags", "too many tags (max %d)", MaxTags)
	}
	preferred, err := tag.New(p.PreferredTags...)
	if err != nil {
		return Query{}, domain.NewValidationError("preferred_tags", err.Error())
	}

	q := Query{
		desired:    desired,
		preferred:  preferred,
		minRating:  p.MinRating,
		limit:      limit,
		amenity:    strings.ToLower(strings.TrimSpace(p.Amenity)),
		travelMode: p.TravelMode,
	}

	if p.MaxPriceTier != nil {
		if *p.MaxPriceTier < venue.PriceCheap || *p.MaxPriceTier > venue.MaxPriceTier {
			return Query{}, domain.NewValidationErrorf("max_price_tier", "must be between %d and %d",
				venue.PriceCheap, venue.MaxPriceTier)
		}
		q.maxPriceTier = *p.MaxPriceTier
		q.hasPriceLimit = true
	}

	if p.Origin != nil {
		if !geo.ValidateCoordinates(p.Origin.Lat, p.Origin.Lon) {
			return Query{}, domain.NewValidationError("origin", "latitude must be in [-90,90] and longitude in [-180,180]")
		}
		o := *p.Origin
		q.origin = &o
	}

	if math.IsNaN(p.MaxDistanceKm) || p.MaxDistanceKm < 0 || p.MaxDistanceKm > MaxDistanceKm {
		return Query{}, domain.NewValidationErrorf("max_distance_km", "must be between 0 and %.0f", MaxDistanceKm)
	}
	if p.MaxDistanceKm > 0 {
		if q.origin == nil {
			return Query{}, domain.NewValidationError("max_distance_km", "requires an origin")
		}
		q.maxDistanceM = p.MaxDistanceKm * 1000
	}

	if len(p.ExcludeNames) > MaxExcludeNames {
		return Query{}, domain.NewValidationErrorf("exclude_names", "too many entries (max %d)", MaxExcludeNames)
	}
	for _, n := range p.ExcludeNames {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" {
			q.excludeNames = append(q.excludeNames, n)
		}
	}

	if q.travelMode == "" {
		q.travelMode = directions.Walking
	}
	if !q.travelMode.IsValid() {
		return Query{}, domain.NewValidationErrorf("travel_mode", "must be %q or %q", directions.Walking, directions.Driving)
	}

	return q, nil
}

// Validate re-checks the invariants New enforces. A zero Query is invalid.
func (q *Query) Validate() error {
	if q.minRating < venue.MinRating || q.minRating > venue.MaxRating || math.IsNaN(q.minRating) {
		return domain.NewValidationErrorf("min_rating", "must be between %.1f and %.1f",
			venue.MinRating, venue.MaxRating)
	}
	if q.limit <= 0 {
		return domain.NewValidationError("limit", "must be a positive integer")
	}
	return nil
}

// DesiredTags returns the hard tag constraint.
func (q *Query) DesiredTags() tag.Set { return q.desired }

// PreferredTags returns the soft tag preferences used for scoring only.
func (q *Query) PreferredTags() tag.Set { return q.preferred }

// MinRating returns the lower rating bound.
func (q *Query) MinRating() float64 { return q.minRating }

// MaxPriceTier returns the upper price bound and whether one is set.
func (q *Query) MaxPriceTier() (venue.PriceTier, bool) { return q.maxPriceTier, q.hasPriceLimit }

// Origin returns the origin coordinate and whether one is set.
func (q *Query) Origin() (geo.Point, bool) {
	if q.origin == nil {
		return geo.Point{}, false
	}
	return *q.origin, true
}

// MaxDistanceMeters returns the search radius in meters (0 = unbounded).
func (q *Query) MaxDistanceMeters() float64 { return q.maxDistanceM }

// ExcludeNames returns a copy of the lower-cased deny list.
func (q *Query) ExcludeNames() []string { return slices.Clone(q.excludeNames) }

// Excludes reports whether name contains any deny list entry, ignoring case.
func (q *Query) Excludes(name string) bool {
	if len(q.excludeNames) == 0 {
		return false
	}
	lower := strings.ToLower(name)
	for _, d := range q.excludeNames {
		if strings.Contains(lower, d) {
			return true
		}
	}
	return false
}

// Amenity returns the required amenity kind ("" = any).
func (q *Query) Amenity() string { return q.amenity }

// TravelMode returns the travel mode for directions links.
func (q *Query) TravelMode() directions.TravelMode { return q.travelMode }

// Limit returns the maximum number of results.
func (q *Query) Limit() int { return q.limit }

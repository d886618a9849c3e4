package result

import (
	"math"

	"github.com/kailas-cloud/coffeefinder/internal/domain/venue"
)

// Ranked is a venue paired with its relevance score and distance from the query origin.
type Ranked struct {
	venue       venue.Venue
	score       float64
	distance    float64
	hasDistance bool
}

// New creates a ranked result without a distance.
func New(v venue.Venue, score float64) Ranked {
	return Ranked{venue: v, score: score}
}

// NewWithDistance creates a ranked result with a distance in meters.
func NewWithDistance(v venue.Venue, score, distanceMeters float64) Ranked {
	return Ranked{venue: v, score: score, distance: distanceMeters, hasDistance: true}
}

// Venue returns the ranked venue.
func (r *Ranked) Venue() venue.Venue { return r.venue }

// ID returns the venue identifier.
func (r *Ranked) ID() string { return r.venue.ID() }

// Score returns the relevance score in [0,1].
func (r *Ranked) Score() float64 { return r.score }

// Distance returns the distance in meters and whether it is known.
func (r *Ranked) Distance() (float64, bool) { return r.distance, r.hasDistance }

// DistanceKm returns the distance in kilometers rounded to two decimals.
func (r *Ranked) DistanceKm() (float64, bool) {
	if !r.hasDistance {
		return 0, false
	}
	return math.Round(r.distance/10) / 100, true
}

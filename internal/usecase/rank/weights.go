package rank

import (
	"fmt"
	"math"
)

// Scoring constants.
const (
	// OverlapCap is the number of extra tags that earns the full overlap bonus
	// when the query has no preferred tags.
	OverlapCap = 5
	// DistanceScaleKm is the distance at which the proximity term halves.
	DistanceScaleKm = 1.0

	weightSumTolerance = 1e-9
)

// Weights are the relevance score coefficients. They sum to 1.0.
type Weights struct {
	Rating   float64 `yaml:"rating"`
	Overlap  float64 `yaml:"overlap"`
	Distance float64 `yaml:"distance"`
}

// DefaultWeights returns {rating: 0.5, overlap: 0.2, distance: 0.3}.
func DefaultWeights() Weights {
	return Weights{Rating: 0.5, Overlap: 0.2, Distance: 0.3}
}

// Validate checks that weights are non-negative and sum to 1.0.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{"rating": w.Rating, "overlap": w.Overlap, "distance": w.Distance} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("%s weight must be non-negative, got %v", name, v)
		}
	}
	sum := w.Rating + w.Overlap + w.Distance
	if math.Abs(sum-1) > weightSumTolerance {
		return fmt.Errorf("weights must sum to 1.0, got %v", sum)
	}
	return nil
}

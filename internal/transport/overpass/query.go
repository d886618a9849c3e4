// Package overpass fetches venues from the OpenStreetMap Overpass API.
package overpass

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/kailas-cloud/coffeefinder/internal/domain"
	"github.com/kailas-cloud/coffeefinder/internal/domain/geo"
)

// MaxResultsMultiplier widens the Overpass "out" limit since many elements
// lack a name or a point and are dropped during parsing.
const MaxResultsMultiplier = 10

// Request limits.
const (
	DefaultAmenity    = "cafe"
	DefaultRadiusM    = 1000.0
	MaxRadiusM        = 50_000.0
	DefaultMaxResults = 200
	MaxResults        = 1000
)

// AmenityOptions are the OSM amenity kinds a request may ask for.
var AmenityOptions = []string{
	"bar",
	"biergarten",
	"cafe",
	"fast_food",
	"food_court",
	"ice_cream",
	"pub",
	"restaurant",
}

// Request describes one area search.
type Request struct {
	Amenity    string
	Center     geo.Point
	RadiusM    float64
	MaxResults int
	// DenyList drops venues whose name contains any entry (case-insensitive).
	DenyList []string
}

// Validate checks the request bounds.
func (r *Request) Validate() error {
	if !slices.Contains(AmenityOptions, r.Amenity) {
		return domain.NewValidationErrorf("amenity", "must be one of %s", strings.Join(AmenityOptions, ", "))
	}
	if !geo.ValidateCoordinates(r.Center.Lat, r.Center.Lon) {
		return domain.NewValidationError("center", "invalid coordinates")
	}
	if r.RadiusM <= 0 || r.RadiusM > MaxRadiusM {
		return domain.NewValidationErrorf("radius", "must be in (0, %.0f] meters", MaxRadiusM)
	}
	if r.MaxResults <= 0 || r.MaxResults > MaxResults {
		return domain.NewValidationErrorf("max_results", "must be between 1 and %d", MaxResults)
	}
	return nil
}

// Query renders the Overpass QL for the request: nodes, ways and relations
// tagged with the amenity around the center, with way/relation centers.
func (r *Request) Query() string {
	around := fmt.Sprintf("around:%s,%s,%s",
		formatFloat(r.RadiusM), formatFloat(r.Center.Lat), formatFloat(r.Center.Lon))
	filter := fmt.Sprintf(`["amenity"="%s"]`, r.Amenity)

	var b strings.Builder
	b.WriteString("[out:json];\n(\n")
	for _, element := range []string{"node", "way", "relation"} {
		fmt.Fprintf(&b, "    %s%s(%s);\n", element, filter, around)
	}
	b.WriteString(");\n")
	fmt.Fprintf(&b, "out center %d;", MaxResultsMultiplier*r.MaxResults)
	return b.String()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

package geo

import (
	"math"

	"github.com/twpayne/go-geom"
)

// EarthRadiusMeters is the mean radius of Earth used for Haversine distance.
const EarthRadiusMeters = 6_371_000.0

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// NewPoint validates and creates a Point.
func NewPoint(lat, lon float64) (Point, bool) {
	if !ValidateCoordinates(lat, lon) {
		return Point{}, false
	}
	return Point{Lat: lat, Lon: lon}, true
}

// DistanceTo returns the great-circle distance in meters to q.
func (p Point) DistanceTo(q Point) float64 {
	return Haversine(p.Lat, p.Lon, q.Lat, q.Lon)
}

// Haversine returns the great-circle distance in meters between two points
// specified by latitude and longitude in degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1r := lat1 * math.Pi / 180
	lat2r := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1r)*math.Cos(lat2r)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// ValidateCoordinates checks that latitude is in [-90,90] and longitude in [-180,180].
func ValidateCoordinates(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Bounds is the south-west / north-east box enclosing a set of points.
type Bounds struct {
	SouthWest Point
	NorthEast Point
}

// BoundsOf returns the box enclosing all points. ok is false for an empty input.
func BoundsOf(points []Point) (Bounds, bool) {
	if len(points) == 0 {
		return Bounds{}, false
	}
	b := geom.NewBounds(geom.XY)
	for _, p := range points {
		b.Extend(geom.NewPointFlat(geom.XY, []float64{p.Lon, p.Lat}))
	}
	return Bounds{
		SouthWest: Point{Lat: b.Min(1), Lon: b.Min(0)},
		NorthEast: Point{Lat: b.Max(1), Lon: b.Max(0)},
	}, true
}

// Place is a geocoded location with its human-readable label.
type Place struct {
	Point       Point
	DisplayName string
}

// Address is a structured postal address. Street is optional.
type Address struct {
	Street string
	City   string
	State  string
}

// IsZero reports whether no part is set.
func (a Address) IsZero() bool {
	return a.Street == "" && a.City == "" && a.State == ""
}

// String flattens the address as "street, city, state", skipping an empty street.
func (a Address) String() string {
	s := a.City + ", " + a.State
	if a.Street != "" {
		s = a.Street + ", " + s
	}
	return s
}

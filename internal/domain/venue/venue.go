package venue

import (
	"math"
	"regexp"
	"strings"

	"github.com/kailas-cloud/coffeefinder/internal/domain"
	"github.com/kailas-cloud/coffeefinder/internal/domain/geo"
	"github.com/kailas-cloud/coffeefinder/internal/domain/tag"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Rating bounds.
const (
	MinRating = 0.0
	MaxRating = 5.0
)

// MaxIDLength is the maximum venue identifier length.
const MaxIDLength = 256

// Params carries the raw fields of a venue before validation.
type Params struct {
	ID        string
	Name      string
	Point     *geo.Point
	Address   string
	Amenity   string
	Website   string
	Tags      []string
	Rating    float64
	PriceTier PriceTier
}

// Venue is one coffee-serving establishment (immutable value object).
type Venue struct {
	id        string
	name      string
	point     *geo.Point
	address   string
	amenity   string
	website   string
	tags      tag.Set
	rating    float64
	priceTier PriceTier
}

// New validates and creates a Venue.
// ID: ^[a-zA-Z0-9_-]+$, 1-256 chars. Rating in [0,5]. Price tier 0 (unknown) to 4.
// Coordinates, when present, must be valid WGS84.
func New(p Params) (Venue, error) {
	if p.ID == "" {
		return Venue{}, domain.NewValidationError("id", "is required")
	}
	if len(p.ID) > MaxIDLength {
		return Venue{}, domain.NewValidationErrorf("id", "too long (max %d)", MaxIDLength)
	}
	if !idRegex.MatchString(p.ID) {
		return Venue{}, domain.NewValidationError("id", "must be alphanumeric with underscores and hyphens")
	}
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return Venue{}, domain.NewValidationErrorf("name", "is required for venue %q", p.ID)
	}
	if p.Rating < MinRating || p.Rating > MaxRating || math.IsNaN(p.Rating) {
		return Venue{}, domain.NewValidationErrorf("rating", "must be between %.1f and %.1f, got %v",
			MinRating, MaxRating, p.Rating)
	}
	if !p.PriceTier.IsValid() {
		return Venue{}, domain.NewValidationErrorf("price_tier", "must be between 0 and %d, got %d",
			MaxPriceTier, p.PriceTier)
	}
	var point *geo.Point
	if p.Point != nil {
		if !geo.ValidateCoordinates(p.Point.Lat, p.Point.Lon) {
			return Venue{}, domain.NewValidationErrorf("location", "invalid coordinates (%f, %f)",
				p.Point.Lat, p.Point.Lon)
		}
		pt := *p.Point
		point = &pt
	}
	tags, err := tag.New(p.Tags...)
	if err != nil {
		return Venue{}, domain.NewValidationError("tags", err.Error())
	}

	return Venue{
		id:        p.ID,
		name:      name,
		point:     point,
		address:   strings.TrimSpace(p.Address),
		amenity:   strings.ToLower(strings.TrimSpace(p.Amenity)),
		website:   strings.TrimSpace(p.Website),
		tags:      tags,
		rating:    p.Rating,
		priceTier: p.PriceTier,
	}, nil
}

// ID returns the venue identifier.
func (v *Venue) ID() string { return v.id }

// Name returns the display name.
func (v *Venue) Name() string { return v.name }

// Point returns the coordinate and whether the venue has one.
func (v *Venue) Point() (geo.Point, bool) {
	if v.point == nil {
		return geo.Point{}, false
	}
	return *v.point, true
}

// Address returns the street address (may be empty).
func (v *Venue) Address() string { return v.address }

// Amenity returns the OSM amenity kind (cafe, bar, ...).
func (v *Venue) Amenity() string { return v.amenity }

// Website returns the venue website (may be empty).
func (v *Venue) Website() string { return v.website }

// Tags returns the attribute tag set.
func (v *Venue) Tags() tag.Set { return v.tags }

// Rating returns the rating in [0,5].
func (v *Venue) Rating() float64 { return v.rating }

// PriceTier returns the price tier (0 if unknown).
func (v *Venue) PriceTier() PriceTier { return v.priceTier }

// Params returns the raw fields, for serialization.
func (v *Venue) Params() Params {
	var point *geo.Point
	if v.point != nil {
		pt := *v.point
		point = &pt
	}
	return Params{
		ID:        v.id,
		Name:      v.name,
		Point:     point,
		Address:   v.address,
		Amenity:   v.amenity,
		Website:   v.website,
		Tags:      v.tags.Values(),
		Rating:    v.rating,
		PriceTier: v.priceTier,
	}
}

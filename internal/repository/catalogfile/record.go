package catalogfile

import (
	"fmt"

	"github.com/kailas-cloud/coffeefinder/internal/domain/geo"
	"github.com/kailas-cloud/coffeefinder/internal/domain/venue"
)

// Record is the on-disk shape of one venue, shared by every file format.
type Record struct {
	ID        string   `json:"id" yaml:"id" parquet:"id"`
	Name      string   `json:"name" yaml:"name" parquet:"name"`
	Lat       *float64 `json:"lat,omitempty" yaml:"lat,omitempty" parquet:"lat"`
	Lon       *float64 `json:"lon,omitempty" yaml:"lon,omitempty" parquet:"lon"`
	Address   string   `json:"address,omitempty" yaml:"address,omitempty" parquet:"address"`
	Amenity   string   `json:"amenity,omitempty" yaml:"amenity,omitempty" parquet:"amenity"`
	Website   string   `json:"website,omitempty" yaml:"website,omitempty" parquet:"website"`
	Tags      []string `json:"tags,omitempty" yaml:"tags,omitempty" parquet:"tags,list"`
	Rating    float64  `json:"rating" yaml:"rating" parquet:"rating"`
	PriceTier int      `json:"price_tier,omitempty" yaml:"price_tier,omitempty" parquet:"price_tier"`
}

// document is the JSON/YAML envelope.
type document struct {
	Venues []Record `json:"venues" yaml:"venues"`
}

// ToVenue validates the record.
func (r *Record) ToVenue() (venue.Venue, error) {
	p := venue.Params{
		ID:        r.ID,
		Name:      r.Name,
		Address:   r.Address,
		Amenity:   r.Amenity,
		Website:   r.Website,
		Tags:      r.Tags,
		Rating:    r.Rating,
		PriceTier: venue.PriceTier(r.PriceTier),
	}
	switch {
	case r.Lat != nil && r.Lon != nil:
		p.Point = &geo.Point{Lat: *r.Lat, Lon: *r.Lon}
	case r.Lat != nil || r.Lon != nil:
		return venue.Venue{}, fmt.Errorf("venue %q: lat and lon must be set together", r.ID)
	}
	return venue.New(p)
}

// FromVenue converts a venue into its on-disk record.
func FromVenue(v *venue.Venue) Record {
	p := v.Params()
	r := Record{
		ID:        p.ID,
		Name:      p.Name,
		Address:   p.Address,
		Amenity:   p.Amenity,
		Website:   p.Website,
		Tags:      p.Tags,
		Rating:    p.Rating,
		PriceTier: int(p.PriceTier),
	}
	if p.Point != nil {
		lat, lon := p.Point.Lat, p.Point.Lon
		r.Lat, r.Lon = &lat, &lon
	}
	return r
}

package venue

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/coffeefinder/internal/domain/geo"
	domvenue "github.com/kailas-cloud/coffeefinder/internal/domain/venue"
)

// venueToHash converts a domain Venue to a map for HSET.
// A venue without a point stores empty lat/lon fields.
func venueToHash(v *domvenue.Venue) map[string]string {
	m := map[string]string{
		"name":    v.Name(),
		"address": v.Address(),
		"amenity": v.Amenity(),
		"website": v.Website(),
		"tags":    v.Tags().String(),
		"rating":  strconv.FormatFloat(v.Rating(), 'f', -1, 64),
		"price":   strconv.Itoa(int(v.PriceTier())),
		"lat":     "",
		"lon":     "",
	}
	if p, ok := v.Point(); ok {
		m["lat"] = strconv.FormatFloat(p.Lat, 'f', -1, 64)
		m["lon"] = strconv.FormatFloat(p.Lon, 'f', -1, 64)
	}
	return m
}

// venueFromHash hydrates a domain Venue from an HGETALL result map.
func venueFromHash(id string, m map[string]string) (domvenue.Venue, error) {
	p := domvenue.Params{
		ID:      id,
		Name:    m["name"],
		Address: m["address"],
		Amenity: m["amenity"],
		Website: m["website"],
	}

	if raw := m["tags"]; raw != "" {
		p.Tags = strings.Split(raw, ",")
	}

	if raw := m["rating"]; raw != "" {
		rating, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return domvenue.Venue{}, fmt.Errorf("invalid rating: %w", err)
		}
		p.Rating = rating
	}

	if raw := m["price"]; raw != "" {
		tier, err := strconv.Atoi(raw)
		if err != nil {
			return domvenue.Venue{}, fmt.Errorf("invalid price: %w", err)
		}
		p.PriceTier = domvenue.PriceTier(tier)
	}

	if m["lat"] != "" && m["lon"] != "" {
		lat, err := strconv.ParseFloat(m["lat"], 64)
		if err != nil {
			return domvenue.Venue{}, fmt.Errorf("invalid lat: %w", err)
		}
		lon, err := strconv.ParseFloat(m["lon"], 64)
		if err != nil {
			return domvenue.Venue{}, fmt.Errorf("invalid lon: %w", err)
		}
		p.Point = &geo.Point{Lat: lat, Lon: lon}
	}

	v, err := domvenue.New(p)
	if err != nil {
		return domvenue.Venue{}, fmt.Errorf("venue %s: %w", id, err)
	}
	return v, nil
}

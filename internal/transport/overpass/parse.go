package overpass

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/coffeefinder/internal/domain/geo"
	"github.com/kailas-cloud/coffeefinder/internal/domain/tag"
	"github.com/kailas-cloud/coffeefinder/internal/domain/venue"
)

type response struct {
	Elements []element `json:"elements"`
}

type element struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    *float64          `json:"lat"`
	Lon    *float64          `json:"lon"`
	Center *center           `json:"center"`
	Tags   map[string]string `json:"tags"`
}

type center struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// point returns the node coordinate or the way/relation center.
func (e *element) point() (geo.Point, bool) {
	switch {
	case e.Type == "node" && e.Lat != nil && e.Lon != nil:
		return geo.NewPoint(*e.Lat, *e.Lon)
	case e.Type != "node" && e.Center != nil:
		return geo.NewPoint(e.Center.Lat, e.Center.Lon)
	default:
		return geo.Point{}, false
	}
}

// address assembles "housenumber street[, city, state[ postcode]]".
// Street and housenumber are both required.
func address(tags map[string]string) string {
	street, number := tags["addr:street"], tags["addr:housenumber"]
	if street == "" || number == "" {
		return ""
	}
	addr := number + " " + street
	city, state := tags["addr:city"], tags["addr:state"]
	if city != "" && state != "" {
		addr += ", " + city + ", " + state
		if pc := tags["addr:postcode"]; pc != "" {
			addr += " " + pc
		}
	}
	return addr
}

// yesTags maps OSM keys with yes-like values to venue tags.
var yesTags = map[string]string{
	"outdoor_seating":  "outdoor-seating",
	"takeaway":         "takeaway",
	"wheelchair":       "wheelchair",
	"diet:vegan":       "vegan",
	"diet:vegetarian":  "vegetarian",
	"drive_through":    "drive-through",
	"delivery":         "delivery",
	"indoor_seating":   "indoor-seating",
	"air_conditioning": "air-conditioning",
}

func isYes(v string) bool {
	switch v {
	case "yes", "only", "designated":
		return true
	}
	return false
}

// venueTags derives attribute tags from OSM tags. Values that would not form
// a valid tag are skipped.
func venueTags(tags map[string]string) []string {
	var out []string
	add := func(raw string) {
		t := tag.Normalize(raw)
		if t == "" || len(t) > tag.MaxTagLength || strings.ContainsRune(t, ',') {
			return
		}
		out = append(out, t)
	}

	for _, c := range strings.Split(tags["cuisine"], ";") {
		add(c)
	}
	switch tags["internet_access"] {
	case "wlan", "yes", "wifi":
		add("wifi")
	}
	for key, name := range yesTags {
		if isYes(tags[key]) {
			add(name)
		}
	}
	return out
}

func isDenied(name string, deny []string) bool {
	lower := strings.ToLower(name)
	for _, d := range deny {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" && strings.Contains(lower, d) {
			return true
		}
	}
	return false
}

// toVenues converts elements in response order. Elements without a name or a
// point, denied names and invalid venues are skipped; at most MaxResults are kept.
func toVenues(elements []element, req *Request) (venues []venue.Venue, skipped int) {
	for i := range elements {
		if len(venues) >= req.MaxResults {
			break
		}
		e := &elements[i]

		name := strings.TrimSpace(e.Tags["name"])
		p, ok := e.point()
		if name == "" || !ok || isDenied(name, req.DenyList) {
			skipped++
			continue
		}

		amenity := e.Tags["amenity"]
		if amenity == "" {
			amenity = req.Amenity
		}

		v, err := venue.New(venue.Params{
			ID:      fmt.Sprintf("%s-%d", e.Type, e.ID),
			Name:    name,
			Point:   &p,
			Address: address(e.Tags),
			Amenity: amenity,
			Website: e.Tags["website"],
			Tags:    venueTags(e.Tags),
		})
		if err != nil {
			skipped++
			continue
		}
		venues = append(venues, v)
	}
	return venues, skipped
}

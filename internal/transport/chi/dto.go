package chi

import (
	"math"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	domcat "github.com/kailas-cloud/coffeefinder/internal/domain/catalog"
	"github.com/kailas-cloud/coffeefinder/internal/domain/directions"
	"github.com/kailas-cloud/coffeefinder/internal/domain/geo"
	"github.com/kailas-cloud/coffeefinder/internal/domain/search/query"
	"github.com/kailas-cloud/coffeefinder/internal/domain/search/result"
	"github.com/kailas-cloud/coffeefinder/internal/domain/venue"
	searchuc "github.com/kailas-cloud/coffeefinder/internal/usecase/search"
)

// PointDTO is a WGS84 coordinate.
type PointDTO struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// OriginRequest is a search origin. Both coordinates are required; a missing
// one must not default to 0.
type OriginRequest struct {
	Lat *float64 `json:"lat" validate:"required,latitude"`
	Lon *float64 `json:"lon" validate:"required,longitude"`
}

// SearchRequest is the body of POST /api/v1/search and /api/v1/search/export.
type SearchRequest struct {
	Tags          []string       `json:"tags" validate:"max=32,dive,required,max=64"`
	PreferredTags []string       `json:"preferred_tags" validate:"max=32,dive,required,max=64"`
	MinRating     float64        `json:"min_rating" validate:"min=0,max=5"`
	MaxPriceTier  *int           `json:"max_price_tier" validate:"omitempty,min=1,max=4"`
	Origin        *OriginRequest `json:"origin"`
	Address       string         `json:"address" validate:"max=256"`
	// Street, City and State form a structured address, used when Address is empty.
	Street        string   `json:"street" validate:"max=256"`
	City          string   `json:"city" validate:"max=128"`
	State         string   `json:"state" validate:"max=128"`
	MaxDistanceKm float64  `json:"max_distance_km" validate:"min=0,max=100"`
	ExcludeNames  []string `json:"exclude_names" validate:"max=32,dive,max=128"`
	Amenity       string   `json:"amenity" validate:"max=64"`
	TravelMode    string   `json:"travel_mode" validate:"omitempty,oneof=walking driving"`
	// Limit defaults to query.DefaultLimit when omitted.
	Limit *int `json:"limit"`
}

// VenueDTO is the API view of a venue.
type VenueDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	Amenity   string    `json:"amenity,omitempty"`
	Website   string    `json:"website,omitempty"`
	Tags      []string  `json:"tags"`
	Rating    float64   `json:"rating"`
	PriceTier int       `json:"price_tier"`
	Price     string    `json:"price"`
	Location  *PointDTO `json:"location,omitempty"`
}

// SearchItem is one ranked venue.
type SearchItem struct {
	VenueDTO
	Score         float64  `json:"score"`
	DistanceKm    *float64 `json:"distance_km,omitempty"`
	DirectionsURL string   `json:"directions_url"`
}

// OriginDTO is the resolved search origin.
type OriginDTO struct {
	PointDTO
	DisplayName string `json:"display_name,omitempty"`
}

// BoundsDTO is the map box enclosing the origin and all located results.
type BoundsDTO struct {
	SouthWest PointDTO `json:"sw"`
	NorthEast PointDTO `json:"ne"`
}

// SummaryDTO carries shortlist statistics.
type SummaryDTO struct {
	NearestKm *float64 `json:"nearest_km,omitempty"`
	MedianKm  *float64 `json:"median_km,omitempty"`
}

// SearchResponse is the body returned by POST /api/v1/search.
type SearchResponse struct {
	Items          []SearchItem `json:"items"`
	Total          int          `json:"total"`
	Matched        int          `json:"matched"`
	CatalogVersion uint64       `json:"catalog_version"`
	TravelMode     string       `json:"travel_mode"`
	Origin         *OriginDTO   `json:"origin,omitempty"`
	Bounds         *BoundsDTO   `json:"bounds,omitempty"`
	Summary        SummaryDTO   `json:"summary"`
}

// CatalogResponse describes the active catalog snapshot.
type CatalogResponse struct {
	Version  uint64    `json:"version"`
	Source   string    `json:"source"`
	Venues   int       `json:"venues"`
	LoadedAt time.Time `json:"loaded_at"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// newValidator reports json field names in validation errors.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (r *SearchRequest) toUsecase() searchuc.Request {
	p := query.Params{
		Tags:          r.Tags,
		PreferredTags: r.PreferredTags,
		MinRating:     r.MinRating,
		MaxDistanceKm: r.MaxDistanceKm,
		ExcludeNames:  r.ExcludeNames,
		Amenity:       r.Amenity,
		TravelMode:    directions.TravelMode(r.TravelMode),
		Limit:         query.DefaultLimit,
	}
	if r.Limit != nil {
		p.Limit = *r.Limit
	}
	if r.MaxPriceTier != nil {
		tier := venue.PriceTier(*r.MaxPriceTier)
		p.MaxPriceTier = &tier
	}
	if r.Origin != nil {
		p.Origin = &geo.Point{Lat: *r.Origin.Lat, Lon: *r.Origin.Lon}
	}
	return searchuc.Request{
		Params:  p,
		Address: r.Address,
		Structured: geo.Address{
			Street: strings.TrimSpace(r.Street),
			City:   strings.TrimSpace(r.City),
			State:  strings.TrimSpace(r.State),
		},
	}
}

func venueToDTO(v *venue.Venue) VenueDTO {
	d := VenueDTO{
		ID:        v.ID(),
		Name:      v.Name(),
		Address:   v.Address(),
		Amenity:   v.Amenity(),
		Website:   v.Website(),
		Tags:      v.Tags().Values(),
		Rating:    v.Rating(),
		PriceTier: int(v.PriceTier()),
		Price:     v.PriceTier().String(),
	}
	if p, ok := v.Point(); ok {
		d.Location = &PointDTO{Lat: p.Lat, Lon: p.Lon}
	}
	return d
}

func searchItemToDTO(r *result.Ranked, mode directions.TravelMode) SearchItem {
	v := r.Venue()
	item := SearchItem{
		VenueDTO:      venueToDTO(&v),
		Score:         math.Round(r.Score()*1e4) / 1e4,
		DirectionsURL: directions.Link(destination(&v), mode),
	}
	if km, ok := r.DistanceKm(); ok {
		item.DistanceKm = &km
	}
	return item
}

func destination(v *venue.Venue) string {
	p, ok := v.Point()
	return directions.Destination(v.Name(), v.Address(), p.Lat, p.Lon, ok)
}

func searchResponseToDTO(resp *searchuc.Response) SearchResponse {
	out := SearchResponse{
		Items:          make([]SearchItem, len(resp.Results)),
		Total:          len(resp.Results),
		Matched:        resp.Matched,
		CatalogVersion: resp.CatalogVersion,
		TravelMode:     string(resp.TravelMode),
	}
	for i := range resp.Results {
		out.Items[i] = searchItemToDTO(&resp.Results[i], resp.TravelMode)
	}
	if resp.Origin != nil {
		out.Origin = &OriginDTO{
			PointDTO:    PointDTO{Lat: resp.Origin.Point.Lat, Lon: resp.Origin.Point.Lon},
			DisplayName: resp.Origin.DisplayName,
		}
	}
	if resp.HasBounds {
		out.Bounds = &BoundsDTO{
			SouthWest: PointDTO{Lat: resp.Bounds.SouthWest.Lat, Lon: resp.Bounds.SouthWest.Lon},
			NorthEast: PointDTO{Lat: resp.Bounds.NorthEast.Lat, Lon: resp.Bounds.NorthEast.Lon},
		}
	}
	out.Summary = summarize(out.Items)
	return out
}

// summarize computes nearest and median distance over items with a known distance.
func summarize(items []SearchItem) SummaryDTO {
	dists := make([]float64, 0, len(items))
	for i := range items {
		if items[i].DistanceKm != nil {
			dists = append(dists, *items[i].DistanceKm)
		}
	}
	if len(dists) == 0 {
		return SummaryDTO{}
	}
	sort.Float64s(dists)

	nearest := dists[0]
	median := dists[len(dists)/2]
	if len(dists)%2 == 0 {
		median = math.Round((dists[len(dists)/2-1]+dists[len(dists)/2])/2*100) / 100
	}
	return SummaryDTO{NearestKm: &nearest, MedianKm: &median}
}

func catalogToDTO(snap *domcat.Snapshot) CatalogResponse {
	return CatalogResponse{
		Version:  snap.Version(),
		Source:   snap.Source(),
		Venues:   snap.Len(),
		LoadedAt: snap.LoadedAt().UTC(),
	}
}

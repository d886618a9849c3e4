package overpass

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/coffeefinder/internal/domain"
	"github.com/kailas-cloud/coffeefinder/internal/domain/geo"
)

func validRequest() Request {
	return Request{
		Amenity:    "cafe",
		Center:     geo.Point{Lat: 47.6097, Lon: -122.3422},
		RadiusM:    1000,
		MaxResults: 20,
	}
}

func TestRequest_Query(t *testing.T) {
	req := validRequest()
	want := `[out:json];
(
    node["amenity"="cafe"](around:1000,47.6097,-122.3422);
    way["amenity"="cafe"](around:1000,47.6097,-122.3422);
    relation["amenity"="cafe"](around:1000,47.6097,-122.3422);
);
out center 200;`
	if got := req.Query(); got != want {
		t.Errorf("Query() =\n%s\nwant\n%s", got, want)
	}
}

func TestRequest_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *Request)
		field  string
	}{
		{"unknown amenity", func(r *Request) { r.Amenity = "library" }, "amenity"},
		{"bad center", func(r *Request) { r.Center.Lat = 91 }, "center"},
		{"zero radius", func(r *Request) { r.RadiusM = 0 }, "radius"},
		{"huge radius", func(r *Request) { r.RadiusM = MaxRadiusM + 1 }, "radius"},
		{"zero results", func(r *Request) { r.MaxResults = 0 }, "max_results"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.mutate(&req)
			err := req.Validate()
			var ve *domain.ValidationError
			if !errors.As(err, &ve) || ve.Field != tc.field {
				t.Fatalf("expected validation error on %s, got %v", tc.field, err)
			}
		})
	}

	req := validRequest()
	if err := req.Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}
}

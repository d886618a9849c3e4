// Package directions builds Google Maps directions links for ranked venues.
package directions

import (
	"fmt"
	"net/url"
)

// GoogleMapsURLBase is the Maps URL root used for directions.
const GoogleMapsURLBase = "https://www.google.com/maps"

// TravelMode is the travel mode passed to the directions link.
type TravelMode string

// Supported travel modes.
const (
	Walking TravelMode = "walking"
	Driving TravelMode = "driving"
)

// IsValid checks if the mode is one of the supported values.
func (m TravelMode) IsValid() bool {
	return m == Walking || m == Driving
}

// Link returns a Maps directions URL to destination.
// See https://developers.google.com/maps/documentation/urls/get-started#directions-action.
func Link(destination string, mode TravelMode) string {
	params := url.Values{}
	params.Set("api", "1")
	params.Set("destination", destination)
	params.Set("travelmode", string(mode))
	return GoogleMapsURLBase + "/dir/?" + params.Encode()
}

// Destination picks the most precise destination string for a venue:
// "name, address" when an address is known, raw coordinates otherwise.
func Destination(name, address string, lat, lon float64, hasPoint bool) string {
	if address != "" {
		return name + ", " + address
	}
	if hasPoint {
		return fmt.Sprintf("%f,%f", lat, lon)
	}
	return name
}

package chi

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	searchuc "github.com/kailas-cloud/coffeefinder/internal/usecase/search"
)

var csvHeader = []string{
	"rank", "id", "name", "address", "website", "latitude", "longitude",
	"distance_km", "rating", "price", "score", "tags", "directions_url",
}

// writeCSV renders ranked results as CSV, one row per venue in rank order.
func writeCSV(w io.Writer, resp *searchuc.Response) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for i := range resp.Results {
		item := searchItemToDTO(&resp.Results[i], resp.TravelMode)

		var lat, lon, dist string
		if item.Location != nil {
			lat = strconv.FormatFloat(item.Location.Lat, 'f', 6, 64)
			lon = strconv.FormatFloat(item.Location.Lon, 'f', 6, 64)
		}
		if item.DistanceKm != nil {
			dist = strconv.FormatFloat(*item.DistanceKm, 'f', 2, 64)
		}

		row := []string{
			strconv.Itoa(i + 1),
			item.ID,
			item.Name,
			item.Address,
			item.Website,
			lat,
			lon,
			dist,
			strconv.FormatFloat(item.Rating, 'f', 1, 64),
			item.Price,
			strconv.FormatFloat(item.Score, 'f', 4, 64),
			strings.Join(item.Tags, ";"),
			item.DirectionsURL,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

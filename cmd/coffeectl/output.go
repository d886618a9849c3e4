package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	json "github.com/goccy/go-json"

	"github.com/kailas-cloud/coffeefinder/internal/domain/directions"
	"github.com/kailas-cloud/coffeefinder/internal/domain/search/result"
	searchuc "github.com/kailas-cloud/coffeefinder/internal/usecase/search"
)

// RankedRow is the printable view of one ranked venue.
type RankedRow struct {
	Rank          int      `json:"rank"`
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Address       string   `json:"address,omitempty"`
	Website       string   `json:"website,omitempty"`
	Lat           *float64 `json:"lat,omitempty"`
	Lon           *float64 `json:"lon,omitempty"`
	DistanceKm    *float64 `json:"distance_km,omitempty"`
	Rating        float64  `json:"rating"`
	Price         string   `json:"price"`
	Score         float64  `json:"score"`
	Tags          []string `json:"tags"`
	DirectionsURL string   `json:"directions_url"`
}

// RankResult is the printable view of a ranking run.
type RankResult struct {
	Matched int         `json:"matched"`
	Origin  string      `json:"origin,omitempty"`
	Results []RankedRow `json:"results"`
}

func toRankResult(resp *searchuc.Response) RankResult {
	out := RankResult{Matched: resp.Matched, Results: make([]RankedRow, len(resp.Results))}
	if resp.Origin != nil {
		out.Origin = resp.Origin.DisplayName
		if out.Origin == "" {
			out.Origin = fmt.Sprintf("%.6f,%.6f", resp.Origin.Point.Lat, resp.Origin.Point.Lon)
		}
	}
	for i := range resp.Results {
		out.Results[i] = toRow(i+1, &resp.Results[i], resp.TravelMode)
	}
	return out
}

func toRow(pos int, r *result.Ranked, mode directions.TravelMode) RankedRow {
	v := r.Venue()
	p, hasPoint := v.Point()
	row := RankedRow{
		Rank:          pos,
		ID:            v.ID(),
		Name:          v.Name(),
		Address:       v.Address(),
		Website:       v.Website(),
		Rating:        v.Rating(),
		Price:         v.PriceTier().String(),
		Score:         r.Score(),
		Tags:          v.Tags().Values(),
		DirectionsURL: directions.Link(directions.Destination(v.Name(), v.Address(), p.Lat, p.Lon, hasPoint), mode),
	}
	if hasPoint {
		row.Lat, row.Lon = &p.Lat, &p.Lon
	}
	if km, ok := r.DistanceKm(); ok {
		row.DistanceKm = &km
	}
	return row
}

func outputResult(w io.Writer, resp *searchuc.Response, format string) error {
	res := toRankResult(resp)
	switch format {
	case "json":
		return outputJSON(w, res)
	case "csv":
		return outputCSV(w, res)
	case "table", "":
		return outputTable(w, res)
	default:
		return fmt.Errorf("unknown output format %q (want table, json or csv)", format)
	}
}

func outputJSON(w io.Writer, res RankResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(res) //nolint:wrapcheck // terminal output
}

func outputCSV(w io.Writer, res RankResult) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{
		"rank", "id", "name", "address", "website", "latitude", "longitude",
		"distance_km", "rating", "price", "score", "tags", "directions_url",
	})
	for _, r := range res.Results {
		_ = cw.Write([]string{
			strconv.Itoa(r.Rank), r.ID, r.Name, r.Address, r.Website,
			optFloat(r.Lat, 6), optFloat(r.Lon, 6), optFloat(r.DistanceKm, 2),
			strconv.FormatFloat(r.Rating, 'f', 1, 64), r.Price,
			strconv.FormatFloat(r.Score, 'f', 4, 64),
			strings.Join(r.Tags, ";"), r.DirectionsURL,
		})
	}
	cw.Flush()
	return cw.Error() //nolint:wrapcheck // terminal output
}

func outputTable(w io.Writer, res RankResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if res.Origin != "" {
		fmt.Fprintf(tw, "Origin: %s\n", res.Origin)
	}
	fmt.Fprintf(tw, "Matched: %d, showing %d\n\n", res.Matched, len(res.Results))
	if len(res.Results) == 0 {
		fmt.Fprintln(tw, "No venues match.")
		return tw.Flush() //nolint:wrapcheck // terminal output
	}

	fmt.Fprintln(tw, "#\tNAME\tRATING\tPRICE\tDIST (KM)\tSCORE\tTAGS\tADDRESS")
	for _, r := range res.Results {
		dist := optFloat(r.DistanceKm, 2)
		if dist == "" {
			dist = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%.1f\t%s\t%s\t%.3f\t%s\t%s\n",
			r.Rank, r.Name, r.Rating, r.Price, dist, r.Score, strings.Join(r.Tags, ","), r.Address)
	}
	return tw.Flush() //nolint:wrapcheck // terminal output
}

func optFloat(v *float64, prec int) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', prec, 64)
}

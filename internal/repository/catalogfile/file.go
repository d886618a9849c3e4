// Package catalogfile reads and writes venue catalogs as JSON, YAML or Parquet files.
package catalogfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/coffeefinder/internal/domain/venue"
)

// Format is a catalog file encoding.
type Format string

// Supported formats.
const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatParquet Format = "parquet"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".parquet":
		return FormatParquet, nil
	default:
		return "", fmt.Errorf("unsupported catalog file extension %q", filepath.Ext(path))
	}
}

// Loader is a catalog source backed by a file on disk.
type Loader struct {
	path   string
	format Format
}

// NewLoader creates a loader; the format follows the file extension.
func NewLoader(path string) (*Loader, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	return &Loader{path: path, format: format}, nil
}

// Name implements the catalog source contract.
func (l *Loader) Name() string { return "file:" + filepath.Base(l.path) }

// Load reads and validates every record in the file.
// A single invalid record fails the whole load.
func (l *Loader) Load(ctx context.Context) ([]venue.Venue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records, err := l.readRecords()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", l.path, err)
	}

	venues := make([]venue.Venue, 0, len(records))
	for i := range records {
		v, err := records[i].ToVenue()
		if err != nil {
			return nil, fmt.Errorf("%s record %d: %w", l.path, i, err)
		}
		venues = append(venues, v)
	}
	return venues, nil
}

func (l *Loader) readRecords() ([]Record, error) {
	if l.format == FormatParquet {
		rows, err := parquet.ReadFile[Record](l.path)
		if err != nil {
			return nil, fmt.Errorf("parquet: %w", err)
		}
		return rows, nil
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, err //nolint:wrapcheck // caller wraps with path
	}
	var doc document
	switch l.format {
	case FormatJSON:
		err = json.Unmarshal(data, &doc)
	case FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", l.format, err)
	}
	return doc.Venues, nil
}

// Write stores venues at path in the format given by its extension.
func Write(path string, venues []venue.Venue) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	records := make([]Record, len(venues))
	for i := range venues {
		records[i] = FromVenue(&venues[i])
	}

	if format == FormatParquet {
		if err := parquet.WriteFile(path, records); err != nil {
			return fmt.Errorf("write parquet %s: %w", path, err)
		}
		return nil
	}

	var data []byte
	switch format {
	case FormatJSON:
		data, err = json.MarshalIndent(document{Venues: records}, "", "  ")
	case FormatYAML:
		data, err = yaml.Marshal(document{Venues: records})
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", format, err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

package overpasscache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/coffeefinder/internal/db"
	"github.com/kailas-cloud/coffeefinder/internal/domain/geo"
	"github.com/kailas-cloud/coffeefinder/internal/domain/venue"
	"github.com/kailas-cloud/coffeefinder/internal/transport/overpass"
)

type mockFetcher struct {
	venues []venue.Venue
	err    error
	calls  int
}

func (m *mockFetcher) Fetch(_ context.Context, _ overpass.Request) ([]venue.Venue, error) {
	m.calls++
	return m.venues, m.err
}

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	return nil
}

func newTestCache(t *testing.T, inner *mockFetcher) (*Cache, *mockKVStore) {
	t.Helper()
	ms := &mockKVStore{}
	return New(inner, ms, 0, nil, zap.NewNop()), ms
}

func testRequest() overpass.Request {
	return overpass.Request{
		Amenity:    "cafe",
		Center:     geo.Point{Lat: 47.6097, Lon: -122.3422},
		RadiusM:    1000,
		MaxResults: 50,
		DenyList:   []string{"Starbucks", "Dunkin"},
	}
}

func testVenue(t *testing.T) venue.Venue {
	t.Helper()
	v, err := venue.New(venue.Params{
		ID: "node-1", Name: "Storyville", Amenity: "cafe",
		Point: &geo.Point{Lat: 47.6089, Lon: -122.3403}, Tags: []string{"wifi"},
	})
	if err != nil {
		t.Fatalf("venue.New: %v", err)
	}
	return v
}

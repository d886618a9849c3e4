package venue

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/coffeefinder/internal/db"
	"github.com/kailas-cloud/coffeefinder/internal/domain/geo"
	domvenue "github.com/kailas-cloud/coffeefinder/internal/domain/venue"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hsetMultiFn    func(ctx context.Context, items []db.HashSetItem) error
	hgetAllMultiFn func(ctx context.Context, keys []string) ([]map[string]string, error)
	delFn          func(ctx context.Context, keys ...string) error
	scanFn         func(ctx context.Context, pattern string) ([]string, error)
	getFn          func(ctx context.Context, key string) ([]byte, error)
	setFn          func(ctx context.Context, key string, value []byte) error
	incrFn         func(ctx context.Context, key string) (int64, error)
}

func (m *mockStore) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	if m.hsetMultiFn != nil {
		return m.hsetMultiFn(ctx, items)
	}
	return nil
}

func (m *mockStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if m.hgetAllMultiFn != nil {
		return m.hgetAllMultiFn(ctx, keys)
	}
	return nil, nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) error {
	if m.delFn != nil {
		return m.delFn(ctx, keys...)
	}
	return nil
}

func (m *mockStore) Scan(ctx context.Context, pattern string) ([]string, error) {
	if m.scanFn != nil {
		return m.scanFn(ctx, pattern)
	}
	return nil, nil
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockStore) Set(ctx context.Context, key string, value []byte) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	return nil
}

func (m *mockStore) Incr(ctx context.Context, key string) (int64, error) {
	if m.incrFn != nil {
		return m.incrFn(ctx, key)
	}
	return 1, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	repo := New(ms)
	repo.now = func() time.Time { return time.Unix(1700000000, 0) }
	return repo, ms
}

func testVenue(t *testing.T, id string) domvenue.Venue {
	t.Helper()
	v, err := domvenue.New(domvenue.Params{
		ID:        id,
		Name:      "Cafe " + id,
		Point:     &geo.Point{Lat: 47.6097, Lon: -122.3422},
		Address:   "85 Pike St, Seattle, WA 98101",
		Amenity:   "cafe",
		Website:   "https://example.com",
		Tags:      []string{"wifi", "outdoor"},
		Rating:    4.5,
		PriceTier: domvenue.PriceModerate,
	})
	if err != nil {
		t.Fatalf("domvenue.New: %v", err)
	}
	return v
}

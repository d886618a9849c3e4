package overpasscache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/coffeefinder/internal/domain"
	"github.com/kailas-cloud/coffeefinder/internal/domain/venue"
)

func TestFetch_MissThenStore(t *testing.T) {
	inner := &mockFetcher{venues: []venue.Venue{testVenue(t)}}
	c, ms := newTestCache(t, inner)

	var stored []byte
	var storedTTL time.Duration
	ms.setFn = func(_ context.Context, _ string, value []byte, ttl time.Duration) error {
		stored, storedTTL = value, ttl
		return nil
	}

	got, err := c.Fetch(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || inner.calls != 1 {
		t.Fatalf("expected one venue from one inner call, got %d venues, %d calls", len(got), inner.calls)
	}
	if len(stored) == 0 {
		t.Fatal("expected result to be cached")
	}
	if storedTTL != DefaultTTL {
		t.Errorf("ttl = %v, want %v", storedTTL, DefaultTTL)
	}
}

func TestFetch_HitSkipsInner(t *testing.T) {
	inner := &mockFetcher{venues: []venue.Venue{testVenue(t)}}
	c, ms := newTestCache(t, inner)

	var stored []byte
	ms.setFn = func(_ context.Context, _ string, value []byte, _ time.Duration) error {
		stored = value
		return nil
	}
	if _, err := c.Fetch(context.Background(), testRequest()); err != nil {
		t.Fatal(err)
	}

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) { return stored, nil }
	got, err := c.Fetch(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("inner called %d times, want 1", inner.calls)
	}
	if len(got) != 1 || got[0].ID() != "node-1" || !got[0].Tags().Contains("wifi") {
		t.Errorf("unexpected cached venues: %+v", got)
	}
	if p, ok := got[0].Point(); !ok || p.Lat != 47.6089 {
		t.Errorf("cached point = %v, %v", p, ok)
	}
}

func TestFetch_CorruptCacheFallsBack(t *testing.T) {
	inner := &mockFetcher{venues: []venue.Venue{testVenue(t)}}
	c, ms := newTestCache(t, inner)
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) { return []byte("not json"), nil }

	if _, err := c.Fetch(context.Background(), testRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected live fetch, got %d calls", inner.calls)
	}
}

func TestFetch_StoreErrorsDegrade(t *testing.T) {
	inner := &mockFetcher{venues: []venue.Venue{testVenue(t)}}
	c, ms := newTestCache(t, inner)
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) { return nil, errors.New("conn refused") }
	ms.setFn = func(_ context.Context, _ string, _ []byte, _ time.Duration) error { return errors.New("conn refused") }

	got, err := c.Fetch(context.Background(), testRequest())
	if err != nil || len(got) != 1 {
		t.Fatalf("expected live result despite store errors, got %v, %v", got, err)
	}
}

func TestFetch_InnerError(t *testing.T) {
	inner := &mockFetcher{err: domain.ErrUpstream}
	c, ms := newTestCache(t, inner)
	setCalled := false
	ms.setFn = func(_ context.Context, _ string, _ []byte, _ time.Duration) error {
		setCalled = true
		return nil
	}

	_, err := c.Fetch(context.Background(), testRequest())
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if setCalled {
		t.Error("failures must not be cached")
	}
}

func TestCacheKey(t *testing.T) {
	a, b := testRequest(), testRequest()
	b.DenyList = []string{" dunkin", "STARBUCKS"}
	if cacheKey(&a) != cacheKey(&b) {
		t.Error("deny list order and case must not change the key")
	}

	b.MaxResults = 10
	if cacheKey(&a) == cacheKey(&b) {
		t.Error("max results must change the key")
	}

	b = testRequest()
	b.RadiusM = 2000
	if cacheKey(&a) == cacheKey(&b) {
		t.Error("radius must change the key")
	}
}

func TestFetch_CountsHitsAndMisses(t *testing.T) {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_overpass_cache_total"}, []string{"result"})
	inner := &mockFetcher{}
	ms := &mockKVStore{}
	c := New(inner, ms, time.Minute, counter, zap.NewNop())

	_, _ = c.Fetch(context.Background(), testRequest())
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) { return []byte("[]"), nil }
	_, _ = c.Fetch(context.Background(), testRequest())

	if got := testutil.ToFloat64(counter.WithLabelValues("miss")); got != 1 {
		t.Errorf("miss = %v, want 1", got)
	}
	if got := testutil.ToFloat64(counter.WithLabelValues("hit")); got != 1 {
		t.Errorf("hit = %v, want 1", got)
	}
}

package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/coffeefinder/internal/domain"
	"github.com/kailas-cloud/coffeefinder/internal/domain/venue"
	"github.com/kailas-cloud/coffeefinder/internal/metrics"
)

// --- Mocks ---

type mockSource struct {
	mu     sync.Mutex
	venues []venue.Venue
	err    error
	loads  int
}

func (m *mockSource) Name() string { return "mock" }

func (m *mockSource) Load(_ context.Context) ([]venue.Venue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	return m.venues, m.err
}

func (m *mockSource) set(venues []venue.Venue, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.venues, m.err = venues, err
}

func (m *mockSource) loadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loads
}

// versionedSource reports versions from a script; each Version call takes the next entry.
type versionedSource struct {
	mockSource
	versions   []int64
	versionErr error
	calls      int
}

func (m *versionedSource) Version(_ context.Context) (int64, error) {
	if m.versionErr != nil {
		return 0, m.versionErr
	}
	v := m.versions[min(m.calls, len(m.versions)-1)]
	m.calls++
	return v, nil
}

func mkVenue(t *testing.T, id string) venue.Venue {
	t.Helper()
	v, err := venue.New(venue.Params{ID: id, Name: "Cafe " + id, Rating: 4})
	if err != nil {
		t.Fatalf("venue.New: %v", err)
	}
	return v
}

// --- Tests ---

func TestSnapshot_UnavailableBeforeLoad(t *testing.T) {
	svc := New(&mockSource{}, zap.NewNop())

	if _, err := svc.Snapshot(); !errors.Is(err, domain.ErrCatalogUnavailable) {
		t.Fatalf("expected ErrCatalogUnavailable, got %v", err)
	}
	if err := svc.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected health check failure before first load")
	}
}

func TestRefresh_SwapsSnapshotAndBumpsVersion(t *testing.T) {
	src := &mockSource{venues: []venue.Venue{mkVenue(t, "a")}}
	svc := New(src, zap.NewNop())
	svc.now = func() time.Time { return time.Unix(1700000000, 0) }

	first, err := svc.Refresh(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Version() != 1 || first.Len() != 1 || first.Source() != "mock" {
		t.Fatalf("unexpected snapshot: v%d len=%d src=%s", first.Version(), first.Len(), first.Source())
	}

	src.set([]venue.Venue{mkVenue(t, "a"), mkVenue(t, "b")}, nil)
	second, err := svc.Refresh(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Version() != 2 || second.Len() != 2 {
		t.Fatalf("unexpected snapshot: v%d len=%d", second.Version(), second.Len())
	}

	// The earlier snapshot is untouched.
	if first.Len() != 1 {
		t.Error("old snapshot must not be mutated by a refresh")
	}

	got, _ := svc.Snapshot()
	if got != second {
		t.Error("Snapshot() should return the latest snapshot")
	}
	if v := testutil.ToFloat64(metrics.CatalogVenues); v != 2 {
		t.Errorf("catalog_venues = %v, want 2", v)
	}
	if v := testutil.ToFloat64(metrics.CatalogLastRefreshTimestamp); v != 1700000000 {
		t.Errorf("catalog_last_refresh_timestamp_seconds = %v", v)
	}
}

func TestRefresh_FailureKeepsPreviousSnapshot(t *testing.T) {
	src := &mockSource{venues: []venue.Venue{mkVenue(t, "a")}}
	svc := New(src, zap.NewNop())
	if _, err := svc.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	src.set(nil, domain.ErrUpstream)
	if _, err := svc.Refresh(context.Background()); !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}

	snap, err := svc.Snapshot()
	if err != nil || snap.Version() != 1 {
		t.Fatalf("expected previous snapshot v1, got %v, %v", snap, err)
	}
}

func TestRefresh_DuplicateIDsRejected(t *testing.T) {
	src := &mockSource{venues: []venue.Venue{mkVenue(t, "a"), mkVenue(t, "a")}}
	svc := New(src, zap.NewNop())

	_, err := svc.Refresh(context.Background())
	if !errors.Is(err, domain.ErrDuplicateVenue) {
		t.Fatalf("expected ErrDuplicateVenue, got %v", err)
	}
	if _, err := svc.Snapshot(); !errors.Is(err, domain.ErrCatalogUnavailable) {
		t.Fatal("no snapshot should be installed")
	}
}

func TestRefresh_UsesStoredVersion(t *testing.T) {
	src := &versionedSource{
		mockSource: mockSource{venues: []venue.Venue{mkVenue(t, "a")}},
		versions:   []int64{42, 42},
	}
	svc := New(src, zap.NewNop())

	snap, err := svc.Refresh(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Version() != 42 {
		t.Errorf("Version() = %d, want stored version 42", snap.Version())
	}
	if src.loadCount() != 1 {
		t.Errorf("loads = %d, want 1", src.loadCount())
	}
}

func TestRefresh_RetriesWhenReplacedDuringLoad(t *testing.T) {
	src := &versionedSource{
		mockSource: mockSource{venues: []venue.Venue{mkVenue(t, "a")}},
		versions:   []int64{3, 4, 4, 4},
	}
	svc := New(src, zap.NewNop())

	snap, err := svc.Refresh(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Version() != 4 || src.loadCount() != 2 {
		t.Errorf("version = %d, loads = %d; want 4, 2", snap.Version(), src.loadCount())
	}
}

func TestRefresh_VersionNeverSettles(t *testing.T) {
	src := &versionedSource{
		mockSource: mockSource{venues: []venue.Venue{mkVenue(t, "a")}},
		versions:   []int64{1, 2, 3, 4, 5, 6, 7},
	}
	svc := New(src, zap.NewNop())

	if _, err := svc.Refresh(context.Background()); !errors.Is(err, errVersionChanged) {
		t.Fatalf("expected errVersionChanged, got %v", err)
	}
	if src.loadCount() != versionedLoadAttempts {
		t.Errorf("loads = %d, want %d", src.loadCount(), versionedLoadAttempts)
	}
	if _, err := svc.Snapshot(); !errors.Is(err, domain.ErrCatalogUnavailable) {
		t.Error("no snapshot should be installed")
	}
}

func TestRefresh_VersionError(t *testing.T) {
	src := &versionedSource{
		mockSource: mockSource{venues: []venue.Venue{mkVenue(t, "a")}},
		versionErr: domain.ErrUpstream,
	}
	svc := New(src, zap.NewNop())

	if _, err := svc.Refresh(context.Background()); !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if src.loadCount() != 0 {
		t.Errorf("loads = %d, want 0", src.loadCount())
	}
}

func TestRun_RefreshesUntilCancelled(t *testing.T) {
	src := &mockSource{venues: []venue.Venue{mkVenue(t, "a")}}
	svc := New(src, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for src.loadCount() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	if src.loadCount() < 2 {
		t.Fatalf("expected periodic refreshes, got %d", src.loadCount())
	}
	if _, err := svc.Snapshot(); err != nil {
		t.Fatalf("expected snapshot after Run, got %v", err)
	}
}

func TestRun_ZeroIntervalBlocksUntilCancelled(t *testing.T) {
	src := &mockSource{}
	svc := New(src, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx, 0)
		close(done)
	}()
	cancel()
	<-done

	if src.loadCount() != 0 {
		t.Errorf("expected no loads, got %d", src.loadCount())
	}
}

func TestConcurrentReadsDuringRefresh(t *testing.T) {
	src := &mockSource{venues: []venue.Venue{mkVenue(t, "a"), mkVenue(t, "b")}}
	svc := New(src, zap.NewNop())
	if _, err := svc.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				snap, err := svc.Snapshot()
				if err != nil || snap.Len() != 2 {
					t.Errorf("unexpected snapshot: %v", err)
					return
				}
			}
		}()
	}
	for i := 0; i < 10; i++ {
		if _, err := svc.Refresh(context.Background()); err != nil {
			t.Error(err)
		}
	}
	wg.Wait()
}

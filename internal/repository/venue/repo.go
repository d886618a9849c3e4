// Package venue persists the venue catalog as one Redis/Valkey hash per venue.
package venue

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/coffeefinder/internal/db"
	"github.com/kailas-cloud/coffeefinder/internal/domain"
	domvenue "github.com/kailas-cloud/coffeefinder/internal/domain/venue"
)

var (
	venueKeyPrefix = domain.KeyPrefix + "venue:"
	versionKey     = domain.KeyPrefix + "catalog:version"
	updatedAtKey   = domain.KeyPrefix + "catalog:updated_at"
)

// SourceName identifies this repository as a catalog source.
const SourceName = "redis"

// store is the consumer interface for the venue repository (ISP).
//
//nolint:interfacebloat // catalog replace needs hash + counter operations
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, keys ...string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Incr(ctx context.Context, key string) (int64, error)
}

// Repo stores and loads the venue catalog.
type Repo struct {
	store store
	now   func() time.Time
}

// New creates a venue repository.
func New(s store) *Repo {
	return &Repo{store: s, now: time.Now}
}

// Name implements the catalog source contract.
func (r *Repo) Name() string { return SourceName }

// Load returns every stored venue ordered by id.
func (r *Repo) Load(ctx context.Context) ([]domvenue.Venue, error) {
	keys, err := r.store.Scan(ctx, venueKey("*"))
	if err != nil {
		return nil, fmt.Errorf("scan venues: %w", err)
	}
	if len(keys) == 0 {
		return []domvenue.Venue{}, nil
	}
	sort.Strings(keys)

	results, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall venues: %w", err)
	}

	out := make([]domvenue.Venue, 0, len(results))
	for i, m := range results {
		if len(m) == 0 {
			continue // deleted between SCAN and HGETALL
		}
		v, err := venueFromHash(strings.TrimPrefix(keys[i], venueKeyPrefix), m)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// SaveAll replaces the stored catalog with venues and bumps the catalog
// version. Keys of venues no longer present are deleted after the write.
func (r *Repo) SaveAll(ctx context.Context, venues []domvenue.Venue) (int64, error) {
	existing, err := r.store.Scan(ctx, venueKey("*"))
	if err != nil {
		return 0, fmt.Errorf("scan venues: %w", err)
	}

	items := make([]db.HashSetItem, len(venues))
	keep := make(map[string]struct{}, len(venues))
	for i := range venues {
		key := venueKey(venues[i].ID())
		items[i] = db.HashSetItem{Key: key, Fields: venueToHash(&venues[i])}
		keep[key] = struct{}{}
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return 0, fmt.Errorf("hset venues: %w", err)
	}

	var stale []string
	for _, key := range existing {
		if _, ok := keep[key]; !ok {
			stale = append(stale, key)
		}
	}
	if err := r.store.Del(ctx, stale...); err != nil {
		return 0, fmt.Errorf("delete stale venues: %w", err)
	}

	version, err := r.store.Incr(ctx, versionKey)
	if err != nil {
		return 0, fmt.Errorf("bump catalog version: %w", err)
	}
	stamp := strconv.FormatInt(r.now().Unix(), 10)
	if err := r.store.Set(ctx, updatedAtKey, []byte(stamp)); err != nil {
		return 0, fmt.Errorf("set catalog timestamp: %w", err)
	}
	return version, nil
}

// Version returns the stored catalog version, 0 when nothing was imported yet.
func (r *Repo) Version(ctx context.Context) (int64, error) {
	raw, err := r.store.Get(ctx, versionKey)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("get catalog version: %w", err)
	}
	v, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse catalog version: %w", err)
	}
	return v, nil
}

func venueKey(id string) string {
	return venueKeyPrefix + id
}

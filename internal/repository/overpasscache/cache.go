// Package overpasscache caches parsed Overpass area searches in Redis/Valkey.
package overpasscache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/coffeefinder/internal/db"
	"github.com/kailas-cloud/coffeefinder/internal/domain"
	"github.com/kailas-cloud/coffeefinder/internal/domain/venue"
	"github.com/kailas-cloud/coffeefinder/internal/repository/catalogfile"
	"github.com/kailas-cloud/coffeefinder/internal/transport/overpass"
)

// DefaultTTL matches how long a map area is considered fresh.
const DefaultTTL = time.Hour

var cacheKeyPrefix = domain.KeyPrefix + "overpass_cache:"

// store is the consumer interface for the Overpass cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Compile-time check: Cache is a drop-in overpass.Fetcher.
var _ overpass.Fetcher = (*Cache)(nil)

// Cache is a caching decorator over an overpass.Fetcher.
type Cache struct {
	inner      overpass.Fetcher
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner overpass.Fetcher,
	s store,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		inner:      inner,
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Fetch returns cached venues for an identical request or calls the inner fetcher.
// Cache failures degrade to a live fetch.
func (c *Cache) Fetch(ctx context.Context, req overpass.Request) ([]venue.Venue, error) {
	key := cacheKey(&req)

	if venues, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return venues, nil
	}

	c.incCache("miss")

	venues, err := c.inner.Fetch(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetch overpass: %w", err)
	}

	c.putToCache(ctx, key, venues)
	return venues, nil
}

func (c *Cache) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

// cacheKey covers everything that changes the parsed result: the query
// itself, the deny list and the result cap.
func cacheKey(req *overpass.Request) string {
	deny := make([]string, 0, len(req.DenyList))
	for _, d := range req.DenyList {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			deny = append(deny, d)
		}
	}
	sort.Strings(deny)

	h := sha256.New()
	h.Write([]byte(req.Query()))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(deny, "\x00")))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(req.MaxResults)))
	return cacheKeyPrefix + hex.EncodeToString(h.Sum(nil))
}

func (c *Cache) getFromCache(ctx context.Context, key string) ([]venue.Venue, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached overpass result", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var records []catalogfile.Record
	if err := json.Unmarshal(data, &records); err != nil {
		c.logger.Warn("Failed to parse cached overpass result", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	venues := make([]venue.Venue, 0, len(records))
	for i := range records {
		v, err := records[i].ToVenue()
		if err != nil {
			c.logger.Warn("Invalid venue in overpass cache", zap.String("key", key), zap.Error(err))
			return nil, false
		}
		venues = append(venues, v)
	}
	return venues, true
}

func (c *Cache) putToCache(ctx context.Context, key string, venues []venue.Venue) {
	records := make([]catalogfile.Record, len(venues))
	for i := range venues {
		records[i] = catalogfile.FromVenue(&venues[i])
	}
	data, err := json.Marshal(records)
	if err != nil {
		c.logger.Warn("Failed to encode overpass result", zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache overpass result", zap.String("key", key), zap.Error(err))
	}
}

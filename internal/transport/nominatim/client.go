// Package nominatim resolves addresses to coordinates (and back) with the
// OpenStreetMap Nominatim API, honoring its one-request-per-second policy.
package nominatim

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/coffeefinder/internal/domain"
	"github.com/kailas-cloud/coffeefinder/internal/domain/geo"
	"github.com/kailas-cloud/coffeefinder/internal/metrics"
	"github.com/kailas-cloud/coffeefinder/internal/transport/breaker"
)

const (
	// DefaultBaseURL is the public Nominatim endpoint.
	DefaultBaseURL = "https://nominatim.openstreetmap.org"
	// DefaultUserAgent identifies the app, as required by the Nominatim usage policy.
	DefaultUserAgent = "coffee_finder_app"

	providerName    = "nominatim"
	maxResponseSize = 1 << 20
)

// Config holds the geocoder settings.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	// RequestsPerSecond caps the outgoing request rate. Zero means 1.
	RequestsPerSecond float64
	Breaker           breaker.Settings
	Logger            *zap.Logger
}

// Client is a rate-limited Nominatim client.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
	cb        *gobreaker.CircuitBreaker[[]byte]
	logger    *zap.Logger
}

// NewClient creates a geocoder.
func NewClient(cfg *Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:   baseURL,
		userAgent: ua,
		http:      &http.Client{Timeout: timeout},
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		cb:        breaker.New[[]byte](providerName, cfg.Breaker, logger),
		logger:    logger,
	}
}

type searchHit struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

type reverseHit struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// Geocode returns the best match for a free-form address.
// No match yields domain.ErrGeocodeFailed.
func (c *Client) Geocode(ctx context.Context, address string) (geo.Place, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return geo.Place{}, domain.NewValidationError("address", "is required")
	}

	return c.search(ctx, url.Values{"q": {address}}, address)
}

// GeocodeAddress resolves a structured address with Nominatim's street/city/state
// parameters. City and State are required.
func (c *Client) GeocodeAddress(ctx context.Context, address geo.Address) (geo.Place, error) {
	switch {
	case strings.TrimSpace(address.City) == "":
		return geo.Place{}, domain.NewValidationError("city", "is required")
	case strings.TrimSpace(address.State) == "":
		return geo.Place{}, domain.NewValidationError("state", "is required")
	}

	q := url.Values{
		"city":  {strings.TrimSpace(address.City)},
		"state": {strings.TrimSpace(address.State)},
	}
	if street := strings.TrimSpace(address.Street); street != "" {
		q.Set("street", street)
	}
	return c.search(ctx, q, address.String())
}

// search runs /search and returns the first hit. label names the address in errors.
func (c *Client) search(ctx context.Context, q url.Values, label string) (geo.Place, error) {
	q.Set("format", "jsonv2")
	q.Set("limit", "1")
	body, err := c.get(ctx, "/search", q)
	if err != nil {
		return geo.Place{}, err
	}

	var hits []searchHit
	if err := json.Unmarshal(body, &hits); err != nil {
		return geo.Place{}, fmt.Errorf("%w: decode nominatim search: %w", domain.ErrUpstream, err)
	}
	if len(hits) == 0 {
		return geo.Place{}, fmt.Errorf("%w: no match for %q", domain.ErrGeocodeFailed, label)
	}

	lat, errLat := strconv.ParseFloat(hits[0].Lat, 64)
	lon, errLon := strconv.ParseFloat(hits[0].Lon, 64)
	p, ok := geo.NewPoint(lat, lon)
	if errLat != nil || errLon != nil || !ok {
		return geo.Place{}, fmt.Errorf("%w: invalid coordinates %q,%q", domain.ErrGeocodeFailed, hits[0].Lat, hits[0].Lon)
	}
	return geo.Place{Point: p, DisplayName: hits[0].DisplayName}, nil
}

// Reverse returns the address closest to p.
func (c *Client) Reverse(ctx context.Context, p geo.Point) (string, error) {
	q := url.Values{
		"lat":    {strconv.FormatFloat(p.Lat, 'f', -1, 64)},
		"lon":    {strconv.FormatFloat(p.Lon, 'f', -1, 64)},
		"format": {"jsonv2"},
	}
	body, err := c.get(ctx, "/reverse", q)
	if err != nil {
		return "", err
	}

	var hit reverseHit
	if err := json.Unmarshal(body, &hit); err != nil {
		return "", fmt.Errorf("%w: decode nominatim reverse: %w", domain.ErrUpstream, err)
	}
	if hit.Error != "" || hit.DisplayName == "" {
		return "", fmt.Errorf("%w: no address at %v,%v", domain.ErrGeocodeFailed, p.Lat, p.Lon)
	}
	return hit.DisplayName, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("nominatim rate limit wait: %w", err)
	}

	start := time.Now()
	body, err := c.cb.Execute(func() ([]byte, error) {
		return c.do(ctx, c.baseURL+path+"?"+q.Encode())
	})
	metrics.UpstreamRequestDuration.WithLabelValues(providerName).Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		metrics.UpstreamRequestsTotal.WithLabelValues(providerName, "ok").Inc()
		return body, nil
	case breaker.IsRejected(err):
		metrics.UpstreamRequestsTotal.WithLabelValues(providerName, "rejected").Inc()
	default:
		metrics.UpstreamRequestsTotal.WithLabelValues(providerName, "error").Inc()
		c.logger.Warn("Nominatim request failed", zap.String("path", path), zap.Error(err))
	}
	return nil, fmt.Errorf("%w: nominatim: %w", domain.ErrUpstream, err)
}

func (c *Client) do(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, domain.ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return body, nil
}

package overpass

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/coffeefinder/internal/domain"
	"github.com/kailas-cloud/coffeefinder/internal/domain/venue"
	"github.com/kailas-cloud/coffeefinder/internal/metrics"
	"github.com/kailas-cloud/coffeefinder/internal/transport/breaker"
)

const (
	// DefaultBaseURL is the public Overpass interpreter endpoint.
	DefaultBaseURL = "https://overpass-api.de/api/interpreter"

	providerName    = "overpass"
	maxResponseSize = 64 << 20
)

// Config holds the Overpass client settings.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	Breaker   breaker.Settings
	Logger    *zap.Logger
}

// Client queries the Overpass API through a circuit breaker.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	cb        *gobreaker.CircuitBreaker[[]byte]
	logger    *zap.Logger
}

// NewClient creates an Overpass client.
func NewClient(cfg *Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:   baseURL,
		userAgent: cfg.UserAgent,
		http:      &http.Client{Timeout: timeout},
		cb:        breaker.New[[]byte](providerName, cfg.Breaker, logger),
		logger:    logger,
	}
}

// Fetch runs the request and returns the parsed venues.
func (c *Client) Fetch(ctx context.Context, req Request) ([]venue.Venue, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	body, err := c.execute(ctx, req.Query())
	if err != nil {
		return nil, err
	}

	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode overpass response: %w", domain.ErrUpstream, err)
	}

	venues, skipped := toVenues(resp.Elements, &req)
	c.logger.Debug("Overpass fetch",
		zap.String("amenity", req.Amenity),
		zap.Int("elements", len(resp.Elements)),
		zap.Int("venues", len(venues)),
		zap.Int("skipped", skipped),
	)
	return venues, nil
}

func (c *Client) execute(ctx context.Context, query string) ([]byte, error) {
	start := time.Now()
	body, err := c.cb.Execute(func() ([]byte, error) {
		return c.post(ctx, query)
	})
	metrics.UpstreamRequestDuration.WithLabelValues(providerName).Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		metrics.UpstreamRequestsTotal.WithLabelValues(providerName, "ok").Inc()
		return body, nil
	case breaker.IsRejected(err):
		metrics.UpstreamRequestsTotal.WithLabelValues(providerName, "rejected").Inc()
		return nil, fmt.Errorf("%w: overpass: %w", domain.ErrUpstream, err)
	default:
		metrics.UpstreamRequestsTotal.WithLabelValues(providerName, "error").Inc()
		c.logger.Warn("Overpass request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: overpass: %w", domain.ErrUpstream, err)
	}
}

func (c *Client) post(ctx context.Context, query string) ([]byte, error) {
	form := url.Values{"data": {query}}.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewBufferString(form))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(httpReq)
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

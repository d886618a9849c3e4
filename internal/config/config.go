package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/coffeefinder/internal/domain/geo"
	"github.com/kailas-cloud/coffeefinder/internal/transport/breaker"
	"github.com/kailas-cloud/coffeefinder/internal/transport/overpass"
	"github.com/kailas-cloud/coffeefinder/internal/usecase/rank"
)

// Catalog source kinds.
const (
	SourceFile     = "file"
	SourceRedis    = "redis"
	SourceOverpass = "overpass"
)

// Config holds the coffeefinder API configuration.
type Config struct {
	HTTP           HTTPConfig           `yaml:"http"`
	Database       DatabaseConfig       `yaml:"database"`
	Auth           AuthConfig           `yaml:"auth"`
	Catalog        CatalogConfig        `yaml:"catalog"`
	Overpass       OverpassConfig       `yaml:"overpass"`
	Geocoder       GeocoderConfig       `yaml:"geocoder"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
	Ranking        RankingConfig        `yaml:"ranking"`
	RateLimit      RateLimitConfig      `yaml:"rate_limit"`
	Logging        LoggingConfig        `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
// Addrs may be empty when nothing needs Redis/Valkey.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Enabled reports whether a database is configured.
func (d DatabaseConfig) Enabled() bool { return len(d.Addrs) > 0 }

// CatalogConfig selects where venues are loaded from.
type CatalogConfig struct {
	Source string `yaml:"source"` // file, redis, overpass (default: file)
	// Path is the catalog file for the file source (.json, .yaml, .parquet).
	Path               string `yaml:"path"`
	RefreshIntervalSec int    `yaml:"refresh_interval_sec"` // 0 = load once
}

// OverpassConfig configures the OpenStreetMap catalog source.
type OverpassConfig struct {
	BaseURL    string   `yaml:"base_url"`
	UserAgent  string   `yaml:"user_agent"`
	TimeoutSec int      `yaml:"timeout_sec"`
	Amenity    string   `yaml:"amenity"`
	Lat        float64  `yaml:"lat"`
	Lon        float64  `yaml:"lon"`
	RadiusM    float64  `yaml:"radius_m"`
	MaxResults int      `yaml:"max_results"`
	DenyList   []string `yaml:"deny_list"`
	// CacheTTLSec caches responses in the database when one is configured. 0 disables.
	CacheTTLSec int `yaml:"cache_ttl_sec"`
}

// GeocoderConfig configures the Nominatim address geocoder.
type GeocoderConfig struct {
	Enabled           bool    `yaml:"enabled"`
	BaseURL           string  `yaml:"base_url"`
	UserAgent         string  `yaml:"user_agent"`
	TimeoutSec        int     `yaml:"timeout_sec"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// CircuitBreakerConfig tunes the breakers around upstream providers.
type CircuitBreakerConfig struct {
	MinRequests  uint32  `yaml:"min_requests"`
	FailureRatio float64 `yaml:"failure_ratio"`
	IntervalSec  int     `yaml:"interval_sec"`
	TimeoutSec   int     `yaml:"timeout_sec"`
}

// RankingConfig holds the relevance score weights.
type RankingConfig struct {
	Weights rank.Weights `yaml:"weights"`
}

// RateLimitConfig caps API requests per client IP.
type RateLimitConfig struct {
	Requests  int `yaml:"requests"` // 0 = unlimited
	WindowSec int `yaml:"window_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads, expands, defaults and validates a YAML config file.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "valkey"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Catalog.Source == "" {
		c.Catalog.Source = SourceFile
	}
	if c.Overpass.TimeoutSec <= 0 {
		c.Overpass.TimeoutSec = 60
	}
	if c.Overpass.Amenity == "" {
		c.Overpass.Amenity = overpass.DefaultAmenity
	}
	if c.Overpass.RadiusM <= 0 {
		c.Overpass.RadiusM = overpass.DefaultRadiusM
	}
	if c.Overpass.MaxResults <= 0 {
		c.Overpass.MaxResults = overpass.DefaultMaxResults
	}
	if c.Geocoder.TimeoutSec <= 0 {
		c.Geocoder.TimeoutSec = 10
	}
	if c.Geocoder.RequestsPerSecond <= 0 {
		c.Geocoder.RequestsPerSecond = 1
	}
	if c.Ranking.Weights == (rank.Weights{}) {
		c.Ranking.Weights = rank.DefaultWeights()
	}
	if c.RateLimit.WindowSec <= 0 {
		c.RateLimit.WindowSec = 60
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case "valkey", "redis":
	default:
		return fmt.Errorf("database.driver must be \"valkey\" or \"redis\", got %q", c.Database.Driver)
	}

	switch c.Catalog.Source {
	case SourceFile:
		if c.Catalog.Path == "" {
			return errors.New("catalog.path is required for the file source")
		}
	case SourceRedis:
		if !c.Database.Enabled() {
			return errors.New("database.addrs is required for the redis catalog source")
		}
	case SourceOverpass:
		if !geo.ValidateCoordinates(c.Overpass.Lat, c.Overpass.Lon) {
			return fmt.Errorf("overpass.lat/lon must be a valid coordinate, got %v,%v", c.Overpass.Lat, c.Overpass.Lon)
		}
		if c.Overpass.RadiusM > overpass.MaxRadiusM {
			return fmt.Errorf("overpass.radius_m must be at most %.0f, got %v", overpass.MaxRadiusM, c.Overpass.RadiusM)
		}
	default:
		return fmt.Errorf("catalog.source must be one of file, redis, overpass; got %q", c.Catalog.Source)
	}
	if c.Catalog.RefreshIntervalSec < 0 {
		return fmt.Errorf("catalog.refresh_interval_sec must be non-negative, got %d", c.Catalog.RefreshIntervalSec)
	}

	if r := c.CircuitBreaker.FailureRatio; r < 0 || r > 1 {
		return fmt.Errorf("circuit_breaker.failure_ratio must be in [0,1], got %v", r)
	}
	if err := c.Ranking.Weights.Validate(); err != nil {
		return fmt.Errorf("ranking.weights: %w", err)
	}
	if c.RateLimit.Requests < 0 {
		return fmt.Errorf("rate_limit.requests must be non-negative, got %d", c.RateLimit.Requests)
	}
	return nil
}

// BreakerSettings converts the circuit breaker section.
func (c *Config) BreakerSettings() breaker.Settings {
	return breaker.Settings{
		MinRequests:  c.CircuitBreaker.MinRequests,
		FailureRatio: c.CircuitBreaker.FailureRatio,
		Interval:     time.Duration(c.CircuitBreaker.IntervalSec) * time.Second,
		Timeout:      time.Duration(c.CircuitBreaker.TimeoutSec) * time.Second,
	}
}

// OverpassRequest builds the Overpass query for the configured area.
func (c *Config) OverpassRequest() overpass.Request {
	return overpass.Request{
		Amenity:    c.Overpass.Amenity,
		Center:     geo.Point{Lat: c.Overpass.Lat, Lon: c.Overpass.Lon},
		RadiusM:    c.Overpass.RadiusM,
		MaxResults: c.Overpass.MaxResults,
		DenyList:   c.Overpass.DenyList,
	}
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config struct to hold the configuration settings
type Config struct {
	Database      DatabaseConfig      `yaml:"database" envPrefix:"DATABASE_"`
	NATS          NATSConfig          `yaml:"nats" envPrefix:"NATS_"`
	Redis         RedisConfig         `yaml:"redis" envPrefix:"REDIS_"`
	HTTP          HTTPConfig          `yaml:"http" envPrefix:"HTTP_"`
	JWT           JWTConfig           `yaml:"jwt" envPrefix:"JWT_"`
	Observability ObservabilityConfig `yaml:"observability"`
	Governance    GovernanceConfig    `yaml:"governance" envPrefix:"GOVERNANCE_"`
	Queue         QueueConfig         `yaml:"queue" envPrefix:"QUEUE_"`
}

// DatabaseConfig holds database configuration. Driver is "postgres" or "sqlite".
type DatabaseConfig struct {
	Driver string `yaml:"driver" env:"DRIVER"`
	DSN    string `yaml:"dsn" env:"URL"`
}

// NATSConfig holds NATS configuration. An empty URL selects the in-process bus.
type NATSConfig struct {
	URL string `yaml:"url" env:"URL"`
}

// RedisConfig holds leaderboard cache configuration. An empty URL disables caching.
type RedisConfig struct {
	URL string        `yaml:"url" env:"URL"`
	TTL time.Duration `yaml:"ttl" env:"TTL"`
}

// HTTPConfig holds API server configuration.
type HTTPConfig struct {
	Address        string   `yaml:"address" env:"ADDRESS"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`
	RateLimit      float64  `yaml:"rate_limit" env:"RATE_LIMIT"`
	Burst          int      `yaml:"burst" env:"BURST"`
}

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	Secret     string        `yaml:"secret" env:"SECRET"`
	DefaultTTL time.Duration `yaml:"default_ttl" env:"DEFAULT_TTL"`
}

// ObservabilityConfig holds configuration for observability components
type ObservabilityConfig struct {
	MetricsAddress string `yaml:"metrics_address" env:"METRICS_ADDRESS"`
	OTLPEndpoint   string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	Environment    string `yaml:"environment" env:"ENV"`
	LogLevel       string `yaml:"log_level" env:"LOG_LEVEL"`
}

// GovernanceConfig holds the founders group and ranking rules.
type GovernanceConfig struct {
	Founders               []string `yaml:"founders" env:"FOUNDERS" envSeparator:","`
	ReferenceMonday        string   `yaml:"reference_monday" env:"REFERENCE_MONDAY"`
	TimeZone               string   `yaml:"time_zone" env:"TIME_ZONE"`
	QualificationThreshold int      `yaml:"qualification_threshold" env:"QUALIFICATION_THRESHOLD"`
	RatingMode             string   `yaml:"rating_mode" env:"RATING_MODE"`
	EnforceCurrentScribe   bool     `yaml:"enforce_current_scribe" env:"ENFORCE_CURRENT_SCRIBE"`
}

// QueueConfig holds background job configuration.
type QueueConfig struct {
	ReconcileInterval time.Duration `yaml:"reconcile_interval" env:"RECONCILE_INTERVAL"`
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	RatingModeMean   = "mean"
	RatingModeLegacy = "legacy"

	referenceMondayLayout = "2006-01-02"
)

// LoadConfig loads the configuration from a YAML file and applies environment
// overrides. A missing file falls back to environment variables and defaults.
func LoadConfig(filename string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(filename)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = DriverPostgres
	}
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.HTTP.RateLimit == 0 {
		c.HTTP.RateLimit = 5
	}
	if c.HTTP.Burst == 0 {
		c.HTTP.Burst = 10
	}
	if c.Redis.TTL == 0 {
		c.Redis.TTL = 5 * time.Minute
	}
	if c.JWT.DefaultTTL == 0 {
		c.JWT.DefaultTTL = 24 * time.Hour
	}
	if c.Observability.LogLevel == "" {
		c.Observability.LogLevel = "info"
	}
	if c.Governance.TimeZone == "" {
		c.Governance.TimeZone = "UTC"
	}
	if c.Governance.QualificationThreshold == 0 {
		c.Governance.QualificationThreshold = 18
	}
	if c.Governance.RatingMode == "" {
		c.Governance.RatingMode = RatingModeMean
	}
	if c.Queue.ReconcileInterval == 0 {
		c.Queue.ReconcileInterval = time.Hour
	}
}

// Validate checks the settings the engine cannot run without.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("config: unsupported database driver %q", c.Database.Driver)
	}

	if len(c.Governance.Founders) == 0 {
		return errors.New("config: governance.founders must not be empty")
	}
	seen := make(map[string]struct{}, len(c.Governance.Founders))
	for _, f := range c.Governance.Founders {
		if f == "" {
			return errors.New("config: governance.founders contains an empty id")
		}
		// ':' separates the members of a team key.
		if strings.Contains(f, ":") {
			return fmt.Errorf("config: founder %q must not contain ':'", f)
		}
		if _, dup := seen[f]; dup {
			return fmt.Errorf("config: duplicate founder %q", f)
		}
		seen[f] = struct{}{}
	}

	loc, err := time.LoadLocation(c.Governance.TimeZone)
	if err != nil {
		return fmt.Errorf("config: invalid governance.time_zone: %w", err)
	}
	if _, err := c.Governance.ReferenceDate(loc); err != nil {
		return err
	}

	if c.Governance.QualificationThreshold < 0 {
		return errors.New("config: governance.qualification_threshold must not be negative")
	}
	switch c.Governance.RatingMode {
	case RatingModeMean, RatingModeLegacy:
	default:
		return fmt.Errorf("config: unsupported rating_mode %q", c.Governance.RatingMode)
	}
	return nil
}

// Location returns the club time zone.
func (g GovernanceConfig) Location() (*time.Location, error) {
	return time.LoadLocation(g.TimeZone)
}

// ReferenceDate parses reference_monday in loc and checks it is a Monday.
func (g GovernanceConfig) ReferenceDate(loc *time.Location) (time.Time, error) {
	if g.ReferenceMonday == "" {
		return time.Time{}, errors.New("config: governance.reference_monday is required")
	}
	t, err := time.ParseInLocation(referenceMondayLayout, g.ReferenceMonday, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("config: invalid governance.reference_monday: %w", err)
	}
	if t.Weekday() != time.Monday {
		return time.Time{}, fmt.Errorf("config: governance.reference_monday %s is a %s", g.ReferenceMonday, t.Weekday())
	}
	return t, nil
}

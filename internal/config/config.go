// Package config loads and validates connector configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Feed     FeedConfig     `mapstructure:"feed"`
	Store    StoreConfig    `mapstructure:"store"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Publish  PublishConfig  `mapstructure:"publish"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig controls the admin HTTP server used in serve mode.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// HTTPConfig configures fetch retry behavior.
type HTTPConfig struct {
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	MaxRetries     int     `mapstructure:"max_retries"`
	BackoffFactor  float64 `mapstructure:"backoff_factor"`
	// RateLimitRetryCap bounds 429 retries: 0 reuses max_retries, a
	// negative value removes the cap.
	RateLimitRetryCap int     `mapstructure:"rate_limit_retry_cap"`
	UserAgent         string  `mapstructure:"user_agent"`
	PerHostRPS        float64 `mapstructure:"per_host_rps"`
}

// FeedConfig governs parsing and the endpoint table.
type FeedConfig struct {
	ConnectorName      string            `mapstructure:"connector_name"`
	Endpoints          map[string]string `mapstructure:"endpoints"`
	ValidateAddresses  bool              `mapstructure:"validate_addresses"`
	StrictEmptyPayload bool              `mapstructure:"strict_empty_payload"`
	PoliteDelaySeconds int               `mapstructure:"polite_delay_seconds"`
}

// StoreConfig selects and configures the document store.
type StoreConfig struct {
	Provider string        `mapstructure:"provider"`
	Mongo    MongoConfig   `mapstructure:"mongo"`
	Elastic  ElasticConfig `mapstructure:"elastic"`
}

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

// ElasticConfig holds Elasticsearch connection settings.
type ElasticConfig struct {
	URL      string `mapstructure:"url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// ArchiveConfig controls raw snapshot persistence.
type ArchiveConfig struct {
	Provider  string `mapstructure:"provider"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	LocalDir  string `mapstructure:"local_dir"`
	Prefix    string `mapstructure:"prefix"`
}

// PublishConfig holds metadata for batch summary notifications.
type PublishConfig struct {
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// ScheduleConfig controls serve-mode run scheduling.
type ScheduleConfig struct {
	Cron string `mapstructure:"cron"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment. A .env file in the
// working directory is folded into the environment first, matching how
// deployments ship store credentials.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("BLOCKLIST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("http.max_retries", 5)
	v.SetDefault("http.backoff_factor", 1.5)
	v.SetDefault("http.rate_limit_retry_cap", 0)
	v.SetDefault("http.user_agent", "blocklistd/1.0 (+https://github.com/ssnlabs/blocklistd)")
	v.SetDefault("http.per_host_rps", 1.0)
	v.SetDefault("feed.connector_name", "blocklist_lists")
	v.SetDefault("feed.validate_addresses", true)
	v.SetDefault("feed.strict_empty_payload", true)
	v.SetDefault("feed.polite_delay_seconds", 1)
	v.SetDefault("store.provider", "mongo")
	// Empty defaults register the keys so AutomaticEnv can fill them.
	v.SetDefault("store.mongo.uri", "")
	v.SetDefault("store.mongo.database", "ssn_blocklist")
	v.SetDefault("store.elastic.url", "")
	v.SetDefault("store.elastic.username", "")
	v.SetDefault("store.elastic.password", "")
	v.SetDefault("archive.provider", "noop")
	v.SetDefault("archive.gcs_bucket", "")
	v.SetDefault("archive.local_dir", "")
	v.SetDefault("archive.prefix", "snapshots")
	v.SetDefault("publish.project_id", "")
	v.SetDefault("publish.topic", "")
	v.SetDefault("schedule.cron", "@every 6h")
	v.SetDefault("logging.development", false)
}

// Validate enforces required values and reasonable limits. A missing
// store connection string is the one unrecoverable configuration error
// the pipeline refuses to start without.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.MaxRetries <= 0 {
		return fmt.Errorf("http.max_retries must be > 0")
	}
	if c.HTTP.BackoffFactor <= 1 {
		return fmt.Errorf("http.backoff_factor must be > 1")
	}
	switch c.Store.Provider {
	case "mongo":
		if c.Store.Mongo.URI == "" {
			return fmt.Errorf("store.mongo.uri is required when store.provider is mongo")
		}
	case "elastic":
		if c.Store.Elastic.URL == "" {
			return fmt.Errorf("store.elastic.url is required when store.provider is elastic")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown store provider: %s", c.Store.Provider)
	}
	switch c.Archive.Provider {
	case "noop", "memory":
	case "gcs":
		if c.Archive.GCSBucket == "" {
			return fmt.Errorf("archive.gcs_bucket is required when archive.provider is gcs")
		}
	case "local":
		if c.Archive.LocalDir == "" {
			return fmt.Errorf("archive.local_dir is required when archive.provider is local")
		}
	default:
		return fmt.Errorf("unknown archive provider: %s", c.Archive.Provider)
	}
	return nil
}

// RequestTimeout converts the HTTP timeout into a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// PoliteDelay converts the inter-endpoint delay into a duration.
func (c Config) PoliteDelay() time.Duration {
	return time.Duration(c.Feed.PoliteDelaySeconds) * time.Second
}

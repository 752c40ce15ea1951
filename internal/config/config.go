// Package config loads and validates exporter configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ConnectionStringEnv is the environment variable holding the table store credentials.
const ConnectionStringEnv = "AKA_TABLE_CONNECTION_STRING"

// ErrMissingConnectionString is returned when no table credentials were supplied.
var ErrMissingConnectionString = fmt.Errorf("unable to find environment variable %s", ConnectionStringEnv)

// Table drivers accepted by table.driver.
const (
	DriverAzureTables = "aztables"
	DriverPostgres    = "postgres"
)

// Storage providers accepted by storage.provider.
const (
	StorageNone = "none"
	StorageGCS  = "gcs"
)

// Config captures all exporter configuration knobs loaded via Viper.
type Config struct {
	Table   TableConfig   `mapstructure:"table"`
	Links   LinksConfig   `mapstructure:"links"`
	Probe   ProbeConfig   `mapstructure:"probe"`
	Storage StorageConfig `mapstructure:"storage"`
	PubSub  PubSubConfig  `mapstructure:"pubsub"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// TableConfig selects the table store and its credentials.
type TableConfig struct {
	Driver           string `mapstructure:"driver"`
	Name             string `mapstructure:"name"`
	ConnectionString string `mapstructure:"connection_string"`
}

// LinksConfig controls how table rows become report records.
type LinksConfig struct {
	Prefix                         string `mapstructure:"prefix"`
	TreatMissingArchivedAsArchived bool   `mapstructure:"treat_missing_archived_as_archived"`
}

// ProbeConfig governs the URL health checks.
type ProbeConfig struct {
	Concurrency    int           `mapstructure:"concurrency"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	BackoffBase    time.Duration `mapstructure:"backoff_base"`
	JitterMax      time.Duration `mapstructure:"jitter_max"`
	UserAgent      string        `mapstructure:"user_agent"`
	PerHostRPS     float64       `mapstructure:"per_host_rps"`
	PerHostBurst   int           `mapstructure:"per_host_burst"`
}

// StorageConfig controls the optional remote mirror of the reports.
type StorageConfig struct {
	Provider  string `mapstructure:"provider"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// PubSubConfig holds metadata for the completion notification.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// MetricsConfig enables the Prometheus listener for the duration of a run.
type MetricsConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from an optional .env file, the environment and an optional config file.
func Load(path string) (Config, error) {
	// Real environment values win over .env entries.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("AKA")
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
	v.SetDefault("table.driver", DriverAzureTables)
	v.SetDefault("table.name", "UrlsDetails")
	// Registered so AutomaticEnv resolves AKA_TABLE_CONNECTION_STRING during Unmarshal.
	v.SetDefault("table.connection_string", "")
	v.SetDefault("links.prefix", "https://aka.platform.uno/")
	v.SetDefault("links.treat_missing_archived_as_archived", false)
	v.SetDefault("probe.concurrency", 12)
	v.SetDefault("probe.timeout", 10*time.Second)
	v.SetDefault("probe.request_timeout", 30*time.Second)
	v.SetDefault("probe.max_retries", 3)
	v.SetDefault("probe.backoff_base", time.Second)
	v.SetDefault("probe.jitter_max", time.Second)
	v.SetDefault("probe.user_agent", "aka-exporter/1.0")
	v.SetDefault("probe.per_host_rps", 0.0)
	v.SetDefault("probe.per_host_burst", 1)
	v.SetDefault("storage.provider", StorageNone)
	v.SetDefault("storage.gcs_bucket", "")
	v.SetDefault("storage.prefix", "reports")
	v.SetDefault("pubsub.project_id", "")
	v.SetDefault("pubsub.topic_name", "")
	v.SetDefault("metrics.listen_addr", "")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Table.ConnectionString) == "" {
		return ErrMissingConnectionString
	}
	switch c.Table.Driver {
	case DriverAzureTables, DriverPostgres:
	default:
		return fmt.Errorf("unknown table.driver %q", c.Table.Driver)
	}
	if c.Table.Name == "" {
		return errors.New("table.name must be set")
	}
	if c.Probe.Concurrency <= 0 {
		return errors.New("probe.concurrency must be > 0")
	}
	if c.Probe.Timeout <= 0 {
		return errors.New("probe.timeout must be > 0")
	}
	if c.Probe.RequestTimeout <= 0 {
		return errors.New("probe.request_timeout must be > 0")
	}
	if c.Probe.MaxRetries < 0 {
		return errors.New("probe.max_retries must be >= 0")
	}
	if c.Probe.BackoffBase < 0 || c.Probe.JitterMax < 0 {
		return errors.New("probe.backoff_base and probe.jitter_max must be >= 0")
	}
	if c.Probe.PerHostRPS < 0 {
		return errors.New("probe.per_host_rps must be >= 0")
	}
	switch c.Storage.Provider {
	case StorageNone, "":
	case StorageGCS:
		if c.Storage.GCSBucket == "" {
			return errors.New("storage.gcs_bucket must be set when storage.provider is gcs")
		}
	default:
		return fmt.Errorf("unknown storage.provider %q", c.Storage.Provider)
	}
	if c.PubSub.TopicName != "" && c.PubSub.ProjectID == "" {
		return errors.New("pubsub.project_id must be set when pubsub.topic_name is set")
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/s0up4200/metasync/catalog"
	"github.com/s0up4200/metasync/graph"
)

// EnvPrefix prefixes environment overrides, e.g. METASYNC_GRAPH_ACCESS_TOKEN
const EnvPrefix = "METASYNC"

// ErrInvalidConfig is returned when validation fails
var ErrInvalidConfig = errors.New("invalid configuration")

// Load loads the configuration from file, .env and the environment
func Load(configPath string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".metasync"))
		}
		v.AddConfigPath("/etc/metasync/")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// env-only setups need no file when none was named
		if !errors.As(err, &notFound) || configPath != "" {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
// Every key needs a default so AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("graph.access_token", "")
	v.SetDefault("graph.version", graph.DefaultVersion)
	v.SetDefault("graph.base_url", graph.DefaultBaseURL)
	v.SetDefault("graph.timeout", graph.DefaultTimeout)
	v.SetDefault("graph.rate_limit", 5.0)
	v.SetDefault("graph.rate_burst", 10)
	v.SetDefault("graph.max_retries", graph.DefaultMaxRetries)
	v.SetDefault("graph.retry_delay", graph.DefaultRetryDelay)

	v.SetDefault("business.external_business_id", "")
	v.SetDefault("business.catalog_id", "")
	v.SetDefault("business.pixel_id", "")
	v.SetDefault("business.page_id", "")
	v.SetDefault("business.cms_id", "")
	v.SetDefault("business.ad_account_id", "")

	v.SetDefault("sync.batch_size", catalog.MaxBatchSize)
	v.SetDefault("sync.concurrency", 3)
	v.SetDefault("sync.interval", "1m")

	v.SetDefault("feed.listen", ":8080")
	v.SetDefault("feed.path", "product-feed.csv")
	v.SetDefault("feed.secret", "")

	v.SetDefault("store.url", "sqlite://metasync.db")

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "")
	v.SetDefault("kafka.group_id", "metasync")

	v.SetDefault("heartbeat.plugin_version", "")
	v.SetDefault("heartbeat.interval", "12h")
	v.SetDefault("heartbeat.multisite", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.Graph.AccessToken == "" || cfg.Graph.AccessToken == "your-access-token-here" {
		return fmt.Errorf("%w: graph.access_token must be set", ErrInvalidConfig)
	}
	if cfg.Graph.Timeout <= 0 {
		return fmt.Errorf("%w: graph.timeout must be positive", ErrInvalidConfig)
	}

	if cfg.Sync.BatchSize <= 0 || cfg.Sync.BatchSize > catalog.MaxBatchSize {
		return fmt.Errorf("%w: sync.batch_size must be between 1 and %d", ErrInvalidConfig, catalog.MaxBatchSize)
	}
	if cfg.Sync.Concurrency <= 0 {
		return fmt.Errorf("%w: sync.concurrency must be positive", ErrInvalidConfig)
	}
	if cfg.Sync.Interval <= 0 {
		return fmt.Errorf("%w: sync.interval must be positive", ErrInvalidConfig)
	}
	if cfg.Heartbeat.Interval <= 0 {
		return fmt.Errorf("%w: heartbeat.interval must be positive", ErrInvalidConfig)
	}
	if cfg.Graph.MaxRetries < 0 || cfg.Graph.RetryDelay < 0 {
		return fmt.Errorf("%w: graph.max_retries and graph.retry_delay must not be negative", ErrInvalidConfig)
	}

	if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.Topic == "" {
		return fmt.Errorf("%w: kafka.topic is required when brokers are set", ErrInvalidConfig)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("%w: invalid logging level: %s", ErrInvalidConfig, cfg.Logging.Level)
	}

	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("%w: invalid logging format: %s", ErrInvalidConfig, cfg.Logging.Format)
	}

	return nil
}

// Require reports an error for each named business ID that is not configured
func (c *Config) Require(keys ...string) error {
	ids := map[string]string{
		"external_business_id": c.Business.ExternalBusinessID,
		"catalog_id":           c.Business.CatalogID,
		"pixel_id":             c.Business.PixelID,
		"page_id":              c.Business.PageID,
		"cms_id":               c.Business.CMSID,
		"ad_account_id":        c.Business.AdAccountID,
	}

	var missing []string
	for _, key := range keys {
		if ids[key] == "" {
			missing = append(missing, "business."+key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s required", ErrInvalidConfig, strings.Join(missing, ", "))
	}
	return nil
}

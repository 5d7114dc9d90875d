package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	Graph     GraphConfig     `mapstructure:"graph"`
	Business  BusinessConfig  `mapstructure:"business"`
	Sync      SyncConfig      `mapstructure:"sync"`
	Feed      FeedConfig      `mapstructure:"feed"`
	Store     StoreConfig     `mapstructure:"store"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Heartbeat HeartbeatConfig `mapstructure:"heartbeat"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// GraphConfig holds Graph API connection details
type GraphConfig struct {
	AccessToken string        `mapstructure:"access_token"`
	Version     string        `mapstructure:"version"`
	BaseURL     string        `mapstructure:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	RateLimit   float64       `mapstructure:"rate_limit"`
	RateBurst   int           `mapstructure:"rate_burst"`
	MaxRetries  int           `mapstructure:"max_retries"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
}

// BusinessConfig identifies the connected business objects
type BusinessConfig struct {
	ExternalBusinessID string `mapstructure:"external_business_id"`
	CatalogID          string `mapstructure:"catalog_id"`
	PixelID            string `mapstructure:"pixel_id"`
	PageID             string `mapstructure:"page_id"`
	CMSID              string `mapstructure:"cms_id"`
	AdAccountID        string `mapstructure:"ad_account_id"`
}

// SyncConfig controls catalog product sync
type SyncConfig struct {
	BatchSize   int               `mapstructure:"batch_size"`
	Concurrency int               `mapstructure:"concurrency"`
	Interval    time.Duration     `mapstructure:"interval"`
	Exclude     map[string]string `mapstructure:"exclude"`
}

// FeedConfig controls feed generation and serving
type FeedConfig struct {
	Listen string `mapstructure:"listen"`
	Path   string `mapstructure:"path"`
	Secret string `mapstructure:"secret"`
}

// StoreConfig holds the local database location
type StoreConfig struct {
	URL string `mapstructure:"url"`
}

// KafkaConfig enables the product change consumer
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

// Enabled reports whether a consumer is configured
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0 && k.Topic != ""
}

// HeartbeatConfig controls the plugin version heartbeat
type HeartbeatConfig struct {
	PluginVersion string        `mapstructure:"plugin_version"`
	Interval      time.Duration `mapstructure:"interval"`
	Multisite     bool          `mapstructure:"multisite"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}

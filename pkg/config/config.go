package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	BrokerRedis = "redis"
	BrokerKafka = "kafka"

	ProviderSpark     = "spark"
	ProviderFinanceGo = "financego"
)

// Config holds all configuration for the application
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Broker   BrokerConfig   `mapstructure:"broker"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Feed     FeedConfig     `mapstructure:"feed"`
	Provider ProviderConfig `mapstructure:"provider"`
}

type AppConfig struct {
	Env string `mapstructure:"env"` // e.g., "local", "prod"
}

type LoggerConfig struct {
	Level    string `mapstructure:"level"`    // debug, info, warn, error
	Encoding string `mapstructure:"encoding"` // json or console
}

type BrokerConfig struct {
	Kind string `mapstructure:"kind"` // redis or kafka
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// SnapshotTTL > 0 also stores the latest update under stock:<ticker>.
	SnapshotTTL time.Duration `mapstructure:"snapshot_ttl"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	GroupID string   `mapstructure:"group_id"`
}

// FeedConfig drives the poll loop.
type FeedConfig struct {
	Channel        string        `mapstructure:"channel"`
	CatalogFile    string        `mapstructure:"catalog_file"` // empty = embedded catalog
	BatchSize      int           `mapstructure:"batch_size"`
	Interval       time.Duration `mapstructure:"interval"`
	FetchTimeout   time.Duration `mapstructure:"fetch_timeout"`
	PublishTimeout time.Duration `mapstructure:"publish_timeout"`
	Concurrency    int           `mapstructure:"concurrency"`
	DomesticSuffix string        `mapstructure:"domestic_suffix"`
	DomesticSymbol string        `mapstructure:"domestic_symbol"`
	FallbackSymbol string        `mapstructure:"fallback_symbol"`
}

type ProviderConfig struct {
	Kind         string        `mapstructure:"kind"` // spark or financego
	BaseURL      string        `mapstructure:"base_url"`
	UserAgent    string        `mapstructure:"user_agent"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// LoadConfig reads configuration from .env file, environment variables, and defaults.
func LoadConfig() (*Config, error) {
	v := viper.New()

	// .env is optional; real env vars always win over it
	if err := godotenv.Load(); err != nil {
		log.Println("Note: No .env file found, relying on System Env Vars")
	}

	setDefaults(v)

	// "feed.batch_size" -> FEED_BATCH_SIZE
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnv(v, "app.env")
	bindEnv(v, "logger.level", "logger.encoding")
	bindEnv(v, "broker.kind")
	bindEnv(v, "redis.addr", "redis.password", "redis.db", "redis.snapshot_ttl")
	bindEnv(v, "kafka.brokers", "kafka.group_id")
	bindEnv(v, "feed.channel", "feed.catalog_file", "feed.batch_size", "feed.interval",
		"feed.fetch_timeout", "feed.publish_timeout", "feed.concurrency",
		"feed.domestic_suffix", "feed.domestic_symbol", "feed.fallback_symbol")
	bindEnv(v, "provider.kind", "provider.base_url", "provider.user_agent",
		"provider.max_retries", "provider.retry_backoff", "provider.timeout")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "local")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "json")

	v.SetDefault("broker.kind", BrokerRedis)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.snapshot_ttl", 0)

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.group_id", "market-feed-tail")

	v.SetDefault("feed.channel", "stock_updates")
	v.SetDefault("feed.catalog_file", "")
	v.SetDefault("feed.batch_size", 30)
	v.SetDefault("feed.interval", 5*time.Second)
	v.SetDefault("feed.fetch_timeout", 15*time.Second)
	v.SetDefault("feed.publish_timeout", 2*time.Second)
	v.SetDefault("feed.concurrency", 1)
	v.SetDefault("feed.domestic_suffix", ".NS")
	v.SetDefault("feed.domestic_symbol", "₹")
	v.SetDefault("feed.fallback_symbol", "$")

	v.SetDefault("provider.kind", ProviderSpark)
	v.SetDefault("provider.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("provider.user_agent", "Mozilla/5.0 (compatible; market-feed/1.0)")
	v.SetDefault("provider.max_retries", 0)
	v.SetDefault("provider.retry_backoff", time.Second)
	v.SetDefault("provider.timeout", 10*time.Second)
}

// Validate checks the fields the feeder cannot run without.
func (c *Config) Validate() error {
	var errs []error

	switch c.Broker.Kind {
	case BrokerRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("redis.addr cannot be empty"))
		}
	case BrokerKafka:
		if len(c.Kafka.Brokers) == 0 {
			errs = append(errs, errors.New("kafka brokers cannot be empty"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown broker.kind %q", c.Broker.Kind))
	}

	switch c.Provider.Kind {
	case ProviderSpark, ProviderFinanceGo:
	default:
		errs = append(errs, fmt.Errorf("unknown provider.kind %q", c.Provider.Kind))
	}

	if c.Feed.Channel == "" {
		errs = append(errs, errors.New("feed.channel cannot be empty"))
	}
	if c.Feed.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("feed.batch_size must be positive, got %d", c.Feed.BatchSize))
	}
	if c.Feed.Interval <= 0 {
		errs = append(errs, fmt.Errorf("feed.interval must be positive, got %s", c.Feed.Interval))
	}
	if c.Feed.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("feed.concurrency must be at least 1, got %d", c.Feed.Concurrency))
	}
	if c.Provider.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("provider.max_retries cannot be negative"))
	}

	return errors.Join(errs...)
}

// bindEnv is a helper to bind multiple keys at once
func bindEnv(v *viper.Viper, keys ...string) {
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			log.Printf("Could not bind env var for key %s: %v", key, err)
		}
	}
}

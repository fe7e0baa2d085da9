package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Feed      FeedConfig      `mapstructure:"feed"`
	Processor ProcessorConfig `mapstructure:"processor"`
	Gateway   GatewayConfig   `mapstructure:"gateway"`
}

type AppConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"` // e.g., "local", "prod"
}

type LoggerConfig struct {
	Level    string `mapstructure:"level"`    // debug, info, warn, error
	Encoding string `mapstructure:"encoding"` // json, console
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

// FeedConfig drives the simulated price feed.
type FeedConfig struct {
	IntervalMS int      `mapstructure:"interval_ms"`
	Featured   []string `mapstructure:"featured"`
	PriceFloor float64  `mapstructure:"price_floor"` // 0 disables the floor
}

type ProcessorConfig struct {
	NumWorkers int `mapstructure:"num_workers"`
}

type GatewayConfig struct {
	ValidTickers []string `mapstructure:"valid_tickers"`
	RateLimit    float64  `mapstructure:"rate_limit"` // new connections per second per IP
	RateBurst    int      `mapstructure:"rate_burst"`
}

// LoadConfig reads configuration from .env file, environment variables, and defaults.
func LoadConfig() (*Config, error) {
	v := viper.New()

	// Load .env into the process environment if present
	if err := godotenv.Load(); err != nil {
		log.Println("Note: No .env file found, relying on System Env Vars")
	}

	setDefaults(v)

	// "feed.interval_ms" -> "FEED_INTERVAL_MS"
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Viper only maps flat env vars onto nested structs for keys it knows about
	bindEnv(v, "app.port", "app.env")
	bindEnv(v, "logger.level", "logger.encoding")
	bindEnv(v, "redis.addr", "redis.password", "redis.db")
	bindEnv(v, "kafka.brokers", "kafka.topic", "kafka.group_id")
	bindEnv(v, "feed.interval_ms", "feed.featured", "feed.price_floor")
	bindEnv(v, "processor.num_workers")
	bindEnv(v, "gateway.valid_tickers", "gateway.rate_limit", "gateway.rate_burst")

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
	v.SetDefault("app.port", ":8080")
	v.SetDefault("app.env", "local")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "json")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "market_ticks")
	v.SetDefault("kafka.group_id", "stock-processor-group")

	v.SetDefault("feed.interval_ms", 3000)
	v.SetDefault("feed.featured", []string{"TSLA", "AAPL", "MSFT", "GOOGL"})
	v.SetDefault("feed.price_floor", 0.0)

	v.SetDefault("processor.num_workers", 4)

	v.SetDefault("gateway.valid_tickers", []string{})
	v.SetDefault("gateway.rate_limit", 5.0)
	v.SetDefault("gateway.rate_burst", 10)
}

// Validate rejects settings no service can start with.
func (c *Config) Validate() error {
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka brokers cannot be empty")
	}
	if c.Feed.IntervalMS <= 0 {
		return fmt.Errorf("feed interval must be positive, got %dms", c.Feed.IntervalMS)
	}
	if c.Feed.PriceFloor < 0 {
		return fmt.Errorf("feed price floor cannot be negative, got %f", c.Feed.PriceFloor)
	}
	if c.Processor.NumWorkers <= 0 {
		return fmt.Errorf("processor needs at least one worker, got %d", c.Processor.NumWorkers)
	}
	return nil
}

// bindEnv is a helper to bind multiple keys at once
func bindEnv(v *viper.Viper, keys ...string) {
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			log.Printf("Could not bind env var for key %s: %v", key, err)
		}
	}
}

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

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Sentiment SentimentConfig `mapstructure:"sentiment"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Search    SearchConfig    `mapstructure:"search"`
	Rating    RatingConfig    `mapstructure:"rating"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Environment     string        `mapstructure:"environment"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig selects and configures the catalog backend
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // "postgres" or "memory"
	URL             string        `mapstructure:"url"`
	SeedFile        string        `mapstructure:"seed_file"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// SentimentConfig selects and configures the review sentiment analyzer
type SentimentConfig struct {
	Provider          string        `mapstructure:"provider"` // "lexicon" or "http"
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	BreakerFailures   uint32        `mapstructure:"breaker_failures"`
	BreakerTimeout    time.Duration `mapstructure:"breaker_timeout"`
}

// CacheConfig holds sentiment cache configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute, 0 disables
}

// SearchConfig holds ranking configuration
type SearchConfig struct {
	Mode         string `mapstructure:"mode"` // "intent" or "similarity"
	Profile      string `mapstructure:"profile"`
	SQLPrefilter bool   `mapstructure:"sql_prefilter"`
	MaxResults   int    `mapstructure:"max_results"`
	Debug        bool   `mapstructure:"debug"`
}

// RatingConfig holds review processing configuration
type RatingConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// Load loads configuration from .env, config files and environment variables
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/ecoreco/")

	// ECORECO_SEARCH_MAX_RESULTS overrides search.max_results
	v.SetEnvPrefix("ECORECO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads .env from the working directory when present.
// Variables already set in the environment win.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(".env")
}

// setDefaults registers every key so AutomaticEnv can override it
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000", "chrome-extension://*"})
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.driver", "memory")
	v.SetDefault("database.url", "")
	v.SetDefault("database.seed_file", "data/catalog.yaml")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("sentiment.provider", "lexicon")
	v.SetDefault("sentiment.base_url", "")
	v.SetDefault("sentiment.api_key", "")
	v.SetDefault("sentiment.timeout", "5s")
	v.SetDefault("sentiment.requests_per_second", 10)
	v.SetDefault("sentiment.burst", 20)
	v.SetDefault("sentiment.breaker_failures", 5)
	v.SetDefault("sentiment.breaker_timeout", "30s")

	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.prefix", "ecoreco:")
	v.SetDefault("cache.ttl", "24h")

	v.SetDefault("ratelimit.per_ip", 100)

	v.SetDefault("search.mode", "intent")
	v.SetDefault("search.profile", "lightweight")
	v.SetDefault("search.sql_prefilter", false)
	v.SetDefault("search.max_results", 10)
	v.SetDefault("search.debug", false)

	v.SetDefault("rating.timeout", "10s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// validate validates the configuration
func validate(config *Config) error {
	switch config.Database.Driver {
	case "memory":
	case "postgres":
		if config.Database.URL == "" {
			return fmt.Errorf("database URL is required when driver is 'postgres' (set ECORECO_DATABASE_URL)")
		}
	default:
		return fmt.Errorf("database driver must be 'postgres' or 'memory', got: %s", config.Database.Driver)
	}

	switch config.Sentiment.Provider {
	case "lexicon":
	case "http":
		if config.Sentiment.BaseURL == "" {
			return fmt.Errorf("sentiment base URL is required when provider is 'http' (set ECORECO_SENTIMENT_BASE_URL)")
		}
	default:
		return fmt.Errorf("sentiment provider must be 'lexicon' or 'http', got: %s", config.Sentiment.Provider)
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("redis URL is required when cache type is 'redis'")
	}

	if config.Search.Mode != "intent" && config.Search.Mode != "similarity" {
		return fmt.Errorf("search mode must be 'intent' or 'similarity', got: %s", config.Search.Mode)
	}

	if config.Search.Profile != "lightweight" && config.Search.Profile != "linguistic" {
		return fmt.Errorf("search profile must be 'lightweight' or 'linguistic', got: %s", config.Search.Profile)
	}

	if config.Search.MaxResults < 1 {
		return fmt.Errorf("search max_results must be at least 1, got: %d", config.Search.MaxResults)
	}

	return nil
}

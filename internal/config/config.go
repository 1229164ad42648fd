package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Log       LogConfig
	TMDB      TMDBConfig
	Catalog   CatalogConfig
	Storage   StorageConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Telemetry TelemetryConfig
}

type ServerConfig struct {
	Env  string
	Port string
	Host string
}

type LogConfig struct {
	Level  string
	Format string
}

type TMDBConfig struct {
	APIKey       string
	ReadToken    string
	BaseURL      string
	ImageBaseURL string
	Language     string
	RateLimit    float64
	CacheTTL     time.Duration
}

type CatalogConfig struct {
	MaxPages       int
	SearchDebounce time.Duration
	SessionIdleTTL time.Duration
}

type StorageConfig struct {
	Backend string
	Dir     string
}

type DatabaseConfig struct {
	URL string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	TLS      bool
}

type TelemetryConfig struct {
	OTLPEndpoint string
	SampleRate   float64
}

// Storage backends accepted by STORAGE_BACKEND.
const (
	StorageMemory   = "memory"
	StorageFile     = "file"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

// Load reads environment variables and returns a Config struct
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	rateLimit, err := getFloat("TMDB_RATE_LIMIT", 40)
	if err != nil {
		return nil, err
	}
	cacheTTL, err := getDuration("TMDB_CACHE_TTL", 10*time.Minute)
	if err != nil {
		return nil, err
	}
	maxPages, err := getInt("CATALOG_MAX_PAGES", 300)
	if err != nil {
		return nil, err
	}
	debounce, err := getDuration("SEARCH_DEBOUNCE", 300*time.Millisecond)
	if err != nil {
		return nil, err
	}
	idleTTL, err := getDuration("SESSION_IDLE_TTL", 2*time.Hour)
	if err != nil {
		return nil, err
	}
	sampleRate, err := getFloat("OTEL_TRACE_SAMPLE_RATE", 0.1)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Env:  getEnv("APP_ENV", "local"),
			Port: getEnv("PORT", "4000"),
			Host: getEnv("HOST", "http://localhost:4000"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		TMDB: TMDBConfig{
			APIKey:       getEnv("TMDB_KEY", ""),
			ReadToken:    getEnv("TMDB_READ_TOKEN", ""),
			BaseURL:      getEnv("TMDB_URL", "https://api.themoviedb.org/3"),
			ImageBaseURL: getEnv("TMDB_IMAGE_URL", "https://image.tmdb.org/t/p/w500"),
			Language:     getEnv("TMDB_LANGUAGE", "en-US"),
			RateLimit:    rateLimit,
			CacheTTL:     cacheTTL,
		},
		Catalog: CatalogConfig{
			MaxPages:       maxPages,
			SearchDebounce: debounce,
			SessionIdleTTL: idleTTL,
		},
		Storage: StorageConfig{
			Backend: strings.ToLower(getEnv("STORAGE_BACKEND", StorageFile)),
			Dir:     getEnv("STORAGE_DIR", "data"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			Enabled:  getEnv("REDIS_ENABLED", "false") == "true",
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			TLS:      getEnv("REDIS_TLS", "false") == "true",
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: strings.TrimSpace(getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "")),
			SampleRate:   sampleRate,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cross-field requirements
func (c *Config) Validate() error {
	if c.TMDB.APIKey == "" && c.TMDB.ReadToken == "" {
		return fmt.Errorf("TMDB_KEY or TMDB_READ_TOKEN is required")
	}
	if c.Catalog.MaxPages < 1 {
		return fmt.Errorf("CATALOG_MAX_PAGES must be at least 1")
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		return fmt.Errorf("OTEL_TRACE_SAMPLE_RATE must be between 0 and 1")
	}
	if c.Catalog.SearchDebounce < 0 {
		return fmt.Errorf("SEARCH_DEBOUNCE must not be negative")
	}

	switch c.Storage.Backend {
	case StorageMemory, StorageFile:
	case StorageRedis:
		if !c.Redis.Enabled {
			return fmt.Errorf("STORAGE_BACKEND=redis requires REDIS_ENABLED=true")
		}
	case StoragePostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for STORAGE_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getInt(key string, defaultValue int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return v, nil
}

func getFloat(key string, defaultValue float64) (float64, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return v, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return v, nil
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// IsDevelopment returns true if running in development/local mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "local" || c.Server.Env == "development"
}

// RedisAddr returns the Redis address in host:port format
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

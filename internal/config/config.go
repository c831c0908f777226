// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Seed        SeedConfig
	Log         LogConfig
	RateLimit   RateLimitConfig
	I18n        I18nConfig
	Frontend    FrontendConfig
}

type FrontendConfig struct {
	BaseURL string
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type DatabaseConfig struct {
	URL             string
	Host            string
	Port            string
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxLifetime     int
	LogLevel        string
	SlowThresholdMs int
}

type RedisConfig struct {
	Enabled   bool
	Host      string
	Port      string
	Password  string
	DB        int
	ReportTTL int // in seconds
}

type SeedConfig struct {
	Tier      string
	Reset     bool
	RunID     string
	BatchSize int
}

// RateLimitConfig is per client IP. Slow routes use the stricter pair.
type RateLimitConfig struct {
	Enabled       bool
	PerSecond     float64
	Burst         int
	SlowPerMinute float64
	SlowBurst     int
}

type LogConfig struct {
	Level  string
	Format string
}

type I18nConfig struct {
	DefaultLocale string
}

var validTiers = map[string]bool{"small": true, "medium": true, "large": true}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 60), // slow variants can run long
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "querylab"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:     getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:        getEnv("DB_LOG_LEVEL", "warn"),
			SlowThresholdMs: getEnvAsInt("DB_SLOW_THRESHOLD_MS", 200),
		},
		Redis: RedisConfig{
			Enabled:   getEnvAsBool("REDIS_ENABLED", false),
			Host:      getEnv("REDIS_HOST", "localhost"),
			Port:      getEnv("REDIS_PORT", "6379"),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvAsInt("REDIS_DB", 0),
			ReportTTL: getEnvAsInt("REDIS_REPORT_TTL", 60),
		},
		Seed: SeedConfig{
			Tier:      strings.ToLower(getEnv("SEED_TIER", "small")),
			Reset:     getEnvAsBool("SEED_RESET", false),
			RunID:     getEnv("SEED_RUN_ID", ""),
			BatchSize: getEnvAsInt("SEED_BATCH_SIZE", 500),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getEnvAsBool("RATE_LIMIT_ENABLED", true),
			PerSecond:     getEnvAsFloat("RATE_LIMIT_PER_SECOND", 10),
			Burst:         getEnvAsInt("RATE_LIMIT_BURST", 20),
			SlowPerMinute: getEnvAsFloat("RATE_LIMIT_SLOW_PER_MINUTE", 30),
			SlowBurst:     getEnvAsInt("RATE_LIMIT_SLOW_BURST", 5),
		},
		I18n: I18nConfig{
			DefaultLocale: getEnv("DEFAULT_LOCALE", "en"),
		},
		Frontend: FrontendConfig{
			BaseURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.Database.Password == "" && c.Database.URL == "" && c.Environment == "production" {
		return fmt.Errorf("database password is required in production")
	}

	if !validTiers[c.Seed.Tier] {
		return fmt.Errorf("unknown seed tier %q (expected small, medium or large)", c.Seed.Tier)
	}

	if c.Seed.BatchSize <= 0 {
		return fmt.Errorf("seed batch size must be positive, got %d", c.Seed.BatchSize)
	}

	if c.RateLimit.Enabled && (c.RateLimit.PerSecond <= 0 || c.RateLimit.SlowPerMinute <= 0) {
		return fmt.Errorf("rate limits must be positive when rate limiting is enabled")
	}

	if c.Redis.Enabled && c.Redis.ReportTTL <= 0 {
		return fmt.Errorf("redis report TTL must be positive when redis is enabled")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

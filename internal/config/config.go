// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits with an error.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	// Load .env into the environment before Load reads it.
	_ "github.com/joho/godotenv/autoload"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	NotifierDriverRedis = "redis"
	NotifierDriverNATS  = "nats"
)

// Config holds all runtime configuration for the tracker service.
type Config struct {
	Port     string
	GRPCPort string

	StoreDriver      string
	DatabaseURL      string
	DatabaseMaxConns int
	RedisURL         string
	NotifierDriver   string
	NATSURL          string
	NATSTimeout      time.Duration

	JWTSecret          string
	JWTTTL             time.Duration
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	AllowOrigins []string

	AnalyticsCacheTTL time.Duration
	BoardSessionIdle  time.Duration
	MaintenanceSpec   string

	OTLPEndpoint string
}

// Load reads environment variables and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{
		Port:     getEnvString("PORT", "8082"),
		GRPCPort: getEnvString("GRPC_PORT", "9082"),

		StoreDriver:      getEnvString("STORE_DRIVER", StoreDriverPostgres),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		DatabaseMaxConns: getEnvInt("DATABASE_MAX_CONNS", 10),
		RedisURL:         os.Getenv("REDIS_URL"),
		NotifierDriver:   getEnvString("NOTIFIER_DRIVER", NotifierDriverRedis),
		NATSURL:          getEnvString("NATS_URL", "nats://localhost:4222"),
		NATSTimeout:      getEnvDuration("NATS_CONN_TIMEOUT", 10*time.Second),

		JWTSecret:          os.Getenv("JWT_SECRET"),
		JWTTTL:             getEnvDuration("JWT_TTL", 24*time.Hour),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),

		AllowOrigins: splitList(getEnvString("ALLOW_ORIGINS", "http://localhost:3000")),

		AnalyticsCacheTTL: getEnvDuration("ANALYTICS_CACHE_TTL", 10*time.Minute),
		BoardSessionIdle:  getEnvDuration("BOARD_SESSION_IDLE", 15*time.Minute),
		MaintenanceSpec:   getEnvString("MAINTENANCE_SPEC", "@every 5m"),

		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required")
		}
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required")
		}
	case StoreDriverMemory:
		if c.JWTSecret == "" {
			c.JWTSecret = "dev-secret"
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreDriverPostgres, StoreDriverMemory, c.StoreDriver)
	}

	switch c.NotifierDriver {
	case NotifierDriverRedis:
		if c.StoreDriver == StoreDriverPostgres && c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis notifier")
		}
	case NotifierDriverNATS:
		if c.NATSURL == "" {
			return fmt.Errorf("NATS_URL is required for the nats notifier")
		}
	default:
		return fmt.Errorf("NOTIFIER_DRIVER must be %q or %q, got %q", NotifierDriverRedis, NotifierDriverNATS, c.NotifierDriver)
	}
	return nil
}

// GoogleEnabled reports whether federated sign-in is configured.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

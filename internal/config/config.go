package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string

	PostgresUser     string
	PostgresPassword string
	PostgresHost     string
	PostgresPort     string
	PostgresDatabase string
	PostgresSSLMode  string

	// CacheTTL bounds how stale a resolved endpoint may be served to
	// repeater traffic. Deactivations take up to this long to propagate.
	CacheTTL        time.Duration
	ForwardTimeout  time.Duration
	MaxBodyBytes    int64
	RateLimit       int
	RateLimitWindow time.Duration

	ArchiveEnabled  bool
	ArchiveInterval time.Duration
	ArchiveAfter    time.Duration
	S3Bucket        string
	S3Region        string
	S3Endpoint      string
	S3AccessKey     string
	S3SecretKey     string
}

func Load() *Config {
	// Missing .env is fine; real deployments use the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "production"),

		PostgresUser:     getEnv("POSTGRES_USER", "gashub"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "password"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresDatabase: getEnv("POSTGRES_DATABASE", "gashub"),
		PostgresSSLMode:  getEnv("POSTGRES_SSL_MODE", "disable"),

		CacheTTL:        getEnvDuration("CACHE_TTL", 60*time.Second),
		ForwardTimeout:  getEnvDuration("FORWARD_TIMEOUT", 10*time.Second),
		MaxBodyBytes:    int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),
		RateLimit:       getEnvInt("RATE_LIMIT", 60),
		RateLimitWindow: getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),

		ArchiveEnabled:  getEnvBool("ARCHIVE_ENABLED", false),
		ArchiveInterval: getEnvDuration("ARCHIVE_INTERVAL", time.Hour),
		ArchiveAfter:    getEnvDuration("ARCHIVE_AFTER", 7*24*time.Hour),
		S3Bucket:        getEnv("S3_BUCKET", "gashub-archive"),
		S3Region:        getEnv("AWS_REGION", "us-east-1"),
		S3Endpoint:      getEnv("S3_ENDPOINT", ""),
		S3AccessKey:     getEnv("AWS_ACCESS_KEY_ID", ""),
		S3SecretKey:     getEnv("AWS_SECRET_ACCESS_KEY", ""),
	}

	if cfg.ArchiveEnabled && (cfg.S3AccessKey == "" || cfg.S3SecretKey == "") {
		panic("AWS credentials must be provided when ARCHIVE_ENABLED is set")
	}

	return cfg
}

// Production reports whether error detail should be withheld from clients.
func (c *Config) Production() bool {
	return c.Environment != "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

package config

import (
	"os"
	"strconv"
	"time"
)

// Backend names accepted by CONSENT_BACKEND.
const (
	BackendCookie   = "cookie"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Server captures process level configuration.
type Server struct {
	Addr            string
	Environment     string
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration

	Consent  Consent
	Redis    RedisConfig
	Database DatabaseConfig

	AuditBufferSize int
}

// Consent configures the consent store and resolver.
type Consent struct {
	Backend       string
	CookieName    string
	CookieDays    int
	CookiePath    string
	CookieDomain  string
	CookieSecure  bool
	MaxAliasDepth int
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds Postgres connection settings.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:            getEnv("CONSENT_ADDR", ":8080"),
		Environment:     getEnv("ENVIRONMENT", "development"),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		RequestTimeout:  getDuration("REQUEST_TIMEOUT", 30*time.Second),
		Consent: Consent{
			Backend:       getEnv("CONSENT_BACKEND", BackendCookie),
			CookieName:    getEnv("CONSENT_COOKIE_NAME", "CookieManager"),
			CookieDays:    getInt("CONSENT_COOKIE_DAYS", 730),
			CookiePath:    getEnv("CONSENT_COOKIE_PATH", "/"),
			CookieDomain:  os.Getenv("CONSENT_COOKIE_DOMAIN"),
			CookieSecure:  os.Getenv("CONSENT_COOKIE_SECURE") == "true",
			MaxAliasDepth: getInt("CONSENT_MAX_ALIAS_DEPTH", 64),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		AuditBufferSize: getInt("AUDIT_BUFFER_SIZE", 256),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getInt ignores unparseable values and falls back.
func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

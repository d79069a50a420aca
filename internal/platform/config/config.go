package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process-level configuration for the provider.
type Server struct {
	Addr string

	// BaseURL is the externally visible root of this provider. Identity
	// URLs and the OP endpoint are rendered against it.
	BaseURL string

	// LoginURL is where unauthenticated checkid requests get redirected.
	LoginURL string

	// AXExtension enables the attribute-exchange response extension on top
	// of the always-on simple-registration one.
	AXExtension bool

	DatabaseURL string
	Redis       RedisConfig

	SessionCookie string
	SessionTTL    time.Duration
	PendingTTL    time.Duration
}

// RedisConfig holds connection tuning for the session and pending stores.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:        getenv("OP_ADDR", ":8080"),
		BaseURL:     getenv("OP_BASE_URL", "http://localhost:8080"),
		LoginURL:    getenv("OP_LOGIN_URL", "/auth/login"),
		AXExtension: os.Getenv("OP_AX_EXTENSION") == "true",
		DatabaseURL: os.Getenv("OP_DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("OP_REDIS_URL"),
			PoolSize:     getenvInt("OP_REDIS_POOL_SIZE", 10),
			MinIdleConns: getenvInt("OP_REDIS_MIN_IDLE", 2),
			DialTimeout:  getenvDuration("OP_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getenvDuration("OP_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getenvDuration("OP_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		SessionCookie: getenv("OP_SESSION_COOKIE", "op_session"),
		SessionTTL:    getenvDuration("OP_SESSION_TTL", 12*time.Hour),
		PendingTTL:    getenvDuration("OP_PENDING_TTL", 30*time.Minute),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

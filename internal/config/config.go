package config

import (
	"errors"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAccessSecret  = "dev-access-secret-change-in-production"
	defaultRefreshSecret = "dev-refresh-secret-change-in-production"
)

var (
	ErrDefaultSecrets   = errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must be set in production environment")
	ErrSameSecrets      = errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	ErrMetricsOnAPIPort = errors.New("METRICS_PORT must differ from PORT")
)

type Config struct {
	Port           string
	Env            string
	LogLevel       string
	LogFormat      string
	DatabaseDSN    string
	MigrateOnStart bool

	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration

	HashAlgorithm string
	BcryptCost    int

	AllowedOrigins []string

	// MetricsHost and MetricsPort bind the Prometheus listener, kept off the
	// public API port. METRICS_PORT=off disables it.
	MetricsHost string
	MetricsPort string
}

func Load() Config {
	return Config{
		Port:           getEnv("PORT", "3001"),
		Env:            getEnv("ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		DatabaseDSN:    getEnv("DATABASE_DSN", "root:password@tcp(127.0.0.1:3306)/tasknest?parseTime=true"),
		MigrateOnStart: getBool("MIGRATE_ON_START", true),
		AccessSecret:   getEnv("JWT_ACCESS_SECRET", defaultAccessSecret),
		RefreshSecret:  getEnv("JWT_REFRESH_SECRET", defaultRefreshSecret),
		AccessTTL:      getDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTTL:     getDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		HashAlgorithm:  getEnv("HASH_ALGORITHM", "bcrypt"),
		BcryptCost:     getInt("BCRYPT_COST", 12),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		MetricsHost:    getEnv("METRICS_HOST", "127.0.0.1"),
		MetricsPort:    metricsPort(getEnv("METRICS_PORT", "9090")),
	}
}

func metricsPort(v string) string {
	if strings.EqualFold(v, "off") {
		return ""
	}
	return v
}

// MetricsAddr is the listen address of the metrics server.
func (c Config) MetricsAddr() string {
	return net.JoinHostPort(c.MetricsHost, c.MetricsPort)
}

// Validate rejects configurations that would let one signing key forge the other
// kind of token, and development secrets in production.
func (c Config) Validate() error {
	if c.AccessSecret == c.RefreshSecret {
		return ErrSameSecrets
	}
	if c.MetricsPort != "" && c.MetricsPort == c.Port {
		return ErrMetricsOnAPIPort
	}
	if c.Env == "production" && (c.AccessSecret == defaultAccessSecret || c.RefreshSecret == defaultRefreshSecret) {
		return ErrDefaultSecrets
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("invalid duration, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return d
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid integer, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("invalid boolean, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return b
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

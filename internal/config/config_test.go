package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "ENV", "LOG_LEVEL", "LOG_FORMAT", "DATABASE_DSN", "MIGRATE_ON_START",
		"JWT_ACCESS_SECRET", "JWT_REFRESH_SECRET", "ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL",
		"HASH_ALGORITHM", "BCRYPT_COST", "ALLOWED_ORIGINS", "METRICS_HOST", "METRICS_PORT",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTTL)
	assert.Equal(t, "bcrypt", cfg.HashAlgorithm)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.True(t, cfg.MigrateOnStart)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.NotEqual(t, cfg.AccessSecret, cfg.RefreshSecret)
	assert.Equal(t, "127.0.0.1:9090", cfg.MetricsAddr())
	require.NoError(t, cfg.Validate())
}

func TestLoadMetricsListener(t *testing.T) {
	t.Setenv("METRICS_HOST", "0.0.0.0")
	t.Setenv("METRICS_PORT", "9100")
	assert.Equal(t, "0.0.0.0:9100", Load().MetricsAddr())

	t.Setenv("METRICS_PORT", "off")
	assert.Empty(t, Load().MetricsPort)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("REFRESH_TOKEN_TTL", "not-a-duration")
	t.Setenv("BCRYPT_COST", "10")
	t.Setenv("MIGRATE_ON_START", "false")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg := Load()

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 5*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTTL, "invalid duration falls back to default")
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.False(t, cfg.MigrateOnStart)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{
			name: "same secrets",
			cfg:  Config{Env: "development", AccessSecret: "x", RefreshSecret: "x"},
			want: ErrSameSecrets,
		},
		{
			name: "default secrets in production",
			cfg:  Config{Env: "production", AccessSecret: defaultAccessSecret, RefreshSecret: "custom"},
			want: ErrDefaultSecrets,
		},
		{
			name: "metrics on api port",
			cfg:  Config{Port: "3001", MetricsPort: "3001", AccessSecret: "a", RefreshSecret: "b"},
			want: ErrMetricsOnAPIPort,
		},
		{
			name: "metrics disabled",
			cfg:  Config{Port: "3001", AccessSecret: "a", RefreshSecret: "b"},
		},
		{
			name: "custom secrets in production",
			cfg:  Config{Env: "production", AccessSecret: "a", RefreshSecret: "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.cfg.Validate(), tt.want)
		})
	}
}

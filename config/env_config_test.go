package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvConfigDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "BACKEND_PORT", "S3_KEY_PREFIX", "PUBLIC_MEDIA_BASE_URL", "MEDIA_MAX_FILE_SIZE", "MEDIA_MAX_FILES", "PERMISSION_ADMIN", "CACHE_PUBLIC_TTL", "MEDIA_PROXY_PATH"} {
		t.Setenv(key, "")
	}

	cfg := LoadEnvConfig()

	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, DefaultMaxFileSize, cfg.Storage.MaxFileSize)
	assert.Equal(t, DefaultMaxFiles, cfg.Storage.MaxFiles)
	assert.Equal(t, "ADMIN", cfg.Permission.Mapping["ADMIN"])
	assert.Equal(t, DefaultCacheTTL, cfg.Cache.PublicTTL)
	assert.Equal(t, DefaultProxyPath, cfg.Storage.ProxyPath)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.Global.Window)
	assert.Equal(t, 5, cfg.RateLimit.Login.Max)
}

func TestLoadEnvConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "3000")
	t.Setenv("S3_KEY_PREFIX", "/staging/")
	t.Setenv("PUBLIC_MEDIA_BASE_URL", "https://cdn.example.com//")
	t.Setenv("MEDIA_MAX_FILE_SIZE", "1024")
	t.Setenv("PERMISSION_ADMIN", "SUPERADMIN")
	t.Setenv("CACHE_PUBLIC_TTL", "120")
	t.Setenv("OTLP_ENDPOINT", "https://otel.example.com")

	cfg := LoadEnvConfig()

	assert.Equal(t, "3000", cfg.HTTP.Port)
	assert.Equal(t, "staging", cfg.Storage.KeyPrefix)
	assert.Equal(t, "https://cdn.example.com", cfg.Storage.PublicBaseURL)
	assert.Equal(t, int64(1024), cfg.Storage.MaxFileSize)
	assert.Equal(t, "SUPERADMIN", cfg.Permission.Mapping["ADMIN"])
	assert.Equal(t, 120*time.Second, cfg.Cache.PublicTTL)
	assert.Equal(t, "otel.example.com", cfg.Telemetry.OTLPEndpoint)
}

func TestStorageReady(t *testing.T) {
	cfg := &EnvConfig{}
	require.False(t, cfg.StorageReady())

	cfg.Storage.Bucket = "media"
	require.False(t, cfg.StorageReady())

	cfg.Storage.Endpoint = "localhost:9000"
	require.True(t, cfg.StorageReady())
}

func TestPostgresDSNPrefersURL(t *testing.T) {
	cfg := &EnvConfig{}
	cfg.Postgres.HOST = "db"
	cfg.Postgres.Port = "5432"
	cfg.Postgres.SSLMode = "disable"
	assert.Contains(t, cfg.PostgresDSN(), "host=db")

	cfg.Postgres.URL = "postgres://u:p@db/catalog"
	assert.Equal(t, "postgres://u:p@db/catalog", cfg.PostgresDSN())
}

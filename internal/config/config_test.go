package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/progress"
	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/storage"
)

// clearEnv は既存の環境変数の影響を受けないよう空にします。
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "APP_ENV", "LOG_MODE", "CATALOG_PATH",
		"STORAGE_BACKEND", "DATA_ROOT", "STORAGE_PREFIX",
		"SUPABASE_URL", "SUPABASE_SERVICE_KEY", "SUPABASE_BUCKET",
		"GCS_BUCKET_NAME", "GCS_CREDENTIALS_FILE", "STORAGE_EMULATOR_HOST",
		"PROGRESS_BACKEND", "PROGRESS_KEY", "PROGRESS_INCREMENT",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "REDIS_PROGRESS_KEY",
		"DATABASE_URL", "SESSION_SECRET", "CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "development", cfg.LogMode)
	assert.Equal(t, storage.BackendLocal, cfg.Storage.Backend)
	assert.Equal(t, "collected_data", cfg.Storage.DataRoot)
	assert.Equal(t, "telugu_handwriting/", cfg.Storage.Prefix)
	assert.Equal(t, progress.BackendDocument, cfg.Progress.Backend)
	assert.Equal(t, progress.IncrementAtomic, cfg.Progress.Increment)
	assert.Equal(t, progress.LocalDocumentKey, cfg.Progress.DocumentKey)
	assert.Equal(t, DefaultCORSOrigins, cfg.CORSAllowedOrigins)

	assert.True(t, cfg.SessionSecretGenerated)
	assert.Len(t, cfg.SessionSecret, 64)
}

func TestLoadRemoteBackend(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("STORAGE_BACKEND", "Supabase")
	t.Setenv("SUPABASE_URL", "https://xyz.supabase.co")
	t.Setenv("SUPABASE_SERVICE_KEY", "service-key")
	t.Setenv("SUPABASE_BUCKET", "drawings")
	t.Setenv("PROGRESS_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("PORT", "9000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr())
	assert.Equal(t, "production", cfg.LogMode)
	assert.Equal(t, storage.BackendSupabase, cfg.Storage.Backend)
	assert.Equal(t, "drawings", cfg.Storage.Supabase.Bucket)
	assert.Equal(t, progress.RemoteDocumentKey, cfg.Progress.DocumentKey)
	assert.Equal(t, "localhost:6379", cfg.Progress.Redis.Addr)
	assert.Equal(t, 2, cfg.Progress.Redis.DB)
	assert.Equal(t, "s3cret", cfg.SessionSecret)
	assert.False(t, cfg.SessionSecretGenerated)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}

func TestLoadExplicitProgressKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_BACKEND", "gcs")
	t.Setenv("PROGRESS_KEY", "stats/progress.json")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "stats/progress.json", cfg.Progress.DocumentKey)
}

func TestLoadDotEnvSkippedInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	assert.NoError(t, LoadDotEnv())
}

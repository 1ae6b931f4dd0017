package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr)
	assert.Equal(t, "public", cfg.BaaS.Schema)
	assert.Equal(t, "data/session.db", cfg.Session.Path)
	assert.Equal(t, "gigmarket", cfg.Session.StorageKey)
	assert.Equal(t, 20, cfg.RateLimit.Requests)
	assert.Equal(t, time.Minute, cfg.RefreshMargin())
	assert.Equal(t, time.Minute, cfg.RateLimitWindow())
	assert.Error(t, cfg.Validate())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GIGMARKET_BAAS_URL", "https://project.example.co")
	t.Setenv("GIGMARKET_BAAS_ANONKEY", "anon")
	t.Setenv("GIGMARKET_AUTH_REFRESHMARGINSECONDS", "30")
	t.Setenv("GIGMARKET_REDIS_ADDR", "127.0.0.1:6379")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://project.example.co", cfg.BaaS.URL)
	assert.Equal(t, "127.0.0.1:6379", cfg.Redis.Addr)
	assert.Equal(t, 30*time.Second, cfg.RefreshMargin())
	assert.NoError(t, cfg.Validate())
}

func TestLoadDotEnvDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(
		"GIGMARKET_BAAS_URL=https://from-dotenv.example.co\nGIGMARKET_STORAGE_BUCKET=avatars\n",
	), 0o600))
	t.Setenv("GIGMARKET_BAAS_URL", "https://from-env.example.co")
	// godotenv sets variables process-wide; make sure the test leaves no trace
	t.Setenv("GIGMARKET_STORAGE_BUCKET", "")
	require.NoError(t, os.Unsetenv("GIGMARKET_STORAGE_BUCKET"))
	t.Cleanup(func() { _ = os.Unsetenv("GIGMARKET_STORAGE_BUCKET") })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://from-env.example.co", cfg.BaaS.URL)
	assert.Equal(t, "avatars", cfg.Storage.Bucket)
}

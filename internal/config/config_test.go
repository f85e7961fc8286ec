package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("API_KEY", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":3000", cfg.HTTPAddr)
	assert.Equal(t, "file", cfg.StoreDriver)
	assert.Equal(t, "./database/database.json", cfg.DBFile)
	assert.Equal(t, "120-M", cfg.RateLimit.Rate)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "127.0.0.1:4444", cfg.OxiDB.Addr())
}

func TestLoadRequiresCredentials(t *testing.T) {
	t.Setenv("API_KEY", "")
	t.Setenv("API_KEY_HASH", "")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API_KEY")
}

func TestLoadValidatesDriver(t *testing.T) {
	t.Setenv("API_KEY", "s3cret")
	t.Setenv("STORE_DRIVER", "postgres")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "StoreDriver")
	var verrs validator.ValidationErrors
	assert.True(t, errors.As(errors.Cause(err), &verrs))
}

func TestLoadRedisNeedsURL(t *testing.T) {
	t.Setenv("API_KEY", "s3cret")
	t.Setenv("RATE_LIMIT_STORAGE", "redis")
	t.Setenv("REDIS_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RedisURL")
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(file, []byte("JWT_SECRET=from-file\nCORS_ALLOWED_ORIGINS=https://a.example,https://b.example\n"), 0o644))
	t.Setenv("API_KEY", "")
	t.Setenv("API_KEY_HASH", "")
	// Registered so the value loaded from the file is cleared after the test.
	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("JWT_SECRET")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	os.Unsetenv("CORS_ALLOWED_ORIGINS")

	cfg, err := Load(file, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

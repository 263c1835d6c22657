package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("LUXE_AUTH_SECRET", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.AuthSecret)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Address())
	assert.Equal(t, "memory", cfg.SessionBackend)
	assert.Equal(t, "mock", cfg.AuthMode)
	assert.Equal(t, 8*time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, 30*time.Second, cfg.MarketCacheTTL)
}

func TestLoadReadsPrefixedVariables(t *testing.T) {
	t.Setenv("LUXE_PORT", "9090")
	t.Setenv("LUXE_SESSION_BACKEND", "Bolt")
	t.Setenv("LUXE_ACCESS_TOKEN_TTL", "45m")
	t.Setenv("LUXE_CREDENTIALS", "a@x.com:$2a$10$abc,b@x.com:$2a$10$def")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "bolt", cfg.SessionBackend)
	assert.Equal(t, 45*time.Minute, cfg.AccessTokenTTL)
	assert.Len(t, cfg.Credentials, 2)
}

func TestLoadEnvFileDoesNotOverrideProcessEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("LUXE_LOG_LEVEL=debug\nLUXE_PORT=7000\n"), 0o600))
	t.Setenv("LUXE_PORT", "7100")
	// godotenv sets variables directly; make sure they are cleared afterwards.
	t.Setenv("LUXE_LOG_LEVEL", "")
	require.NoError(t, os.Unsetenv("LUXE_LOG_LEVEL"))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "7100", cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestValidateRejectsUnknownModes(t *testing.T) {
	t.Setenv("LUXE_SESSION_BACKEND", "etcd")
	_, err := Load("")
	assert.Error(t, err)

	t.Setenv("LUXE_SESSION_BACKEND", "redis")
	_, err = Load("")
	assert.ErrorContains(t, err, "LUXE_REDIS_ADDR")

	t.Setenv("LUXE_SESSION_BACKEND", "memory")
	t.Setenv("LUXE_AUTH_MODE", "ldap")
	_, err = Load("")
	assert.Error(t, err)
}

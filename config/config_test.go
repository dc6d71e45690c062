package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const memoryConfigYAML = `
env:
  serviceName: gatekeeper-test
  log:
    level: debug
http:
  port: 4100
storage:
  driver: memory
auth:
  lockout:
    threshold: 3
  token:
    secret: from-yaml
    ttl: 24h
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600))

	return dir
}

func TestLoadWithEnv_ReadsYAML(t *testing.T) {
	dir := writeConfig(t, memoryConfigYAML)

	cfg, err := LoadWithEnv[Config]("config", dir)
	require.NoError(t, err)

	assert.Equal(t, "gatekeeper-test", cfg.Env.ServiceName)
	assert.Equal(t, 4100, cfg.HTTP.Port)
	assert.Equal(t, StorageDriverMemory, cfg.Storage.Driver)
	require.NotNil(t, cfg.Auth)
	assert.Equal(t, 3, cfg.Auth.Lockout.Threshold)
	assert.Equal(t, "from-yaml", cfg.Auth.Token.Secret)
	assert.Equal(t, 24*time.Hour, cfg.Auth.Token.TTL)
	assert.Nil(t, cfg.Postgres)
}

func TestLoadWithEnv_EnvOverridesYAML(t *testing.T) {
	dir := writeConfig(t, memoryConfigYAML)
	t.Setenv("AUTH_TOKEN_SECRET", "from-env")
	t.Setenv("HTTP_PORT", "4200")

	cfg, err := LoadWithEnv[Config]("config", dir)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Auth.Token.Secret)
	assert.Equal(t, 4200, cfg.HTTP.Port)
}

func TestLoadWithEnv_MissingFile(t *testing.T) {
	_, err := LoadWithEnv[Config]("does-not-exist", t.TempDir())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "does-not-exist.yaml not found")
}

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	assert.Equal(t, defaultMaxRequestBodySize, cfg.HTTP.MaxRequestBodySize)
	assert.Equal(t, StorageDriverPostgres, cfg.Storage.Driver)
	require.NotNil(t, cfg.Auth)
	assert.Equal(t, DefaultBcryptCost, cfg.Auth.BcryptCost)
	assert.Equal(t, DefaultLockoutThreshold, cfg.Auth.Lockout.Threshold)
	assert.Equal(t, DefaultLockoutDuration, cfg.Auth.Lockout.Duration)
	assert.Equal(t, DefaultTokenTTL, cfg.Auth.Token.TTL)
	assert.Equal(t, DefaultTokenIssuer, cfg.Auth.Token.Issuer)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		cfg.Storage.Driver = StorageDriverMemory
		cfg.applyDefaults()
		cfg.Auth.Token.Secret = "secret"

		return cfg
	}

	t.Run("valid memory config", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("missing secret", func(t *testing.T) {
		cfg := valid()
		cfg.Auth.Token.Secret = ""
		assert.ErrorContains(t, cfg.Validate(), "auth.token.secret")
	})

	t.Run("postgres driver without postgres section", func(t *testing.T) {
		cfg := valid()
		cfg.Storage.Driver = StorageDriverPostgres
		assert.ErrorContains(t, cfg.Validate(), "postgres configuration is required")
	})

	t.Run("unknown driver", func(t *testing.T) {
		cfg := valid()
		cfg.Storage.Driver = "mongo"
		assert.ErrorContains(t, cfg.Validate(), "unknown storage driver")
	})

	t.Run("negative threshold", func(t *testing.T) {
		cfg := valid()
		cfg.Auth.Lockout.Threshold = -1
		assert.ErrorContains(t, cfg.Validate(), "threshold must be positive")
	})
}

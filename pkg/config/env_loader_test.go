package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recruitkit/billing/pkg/config"
)

type dotenvConfig struct {
	Token string `env:"TEST_DOTENV_TOKEN"`
	Port  int    `env:"TEST_DOTENV_PORT"`
}

func TestLoadEnv(t *testing.T) {
	os.Unsetenv("TEST_DOTENV_TOKEN")
	os.Unsetenv("TEST_DOTENV_PORT")
	config.ResetCache()

	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile,
		[]byte("TEST_DOTENV_TOKEN=abc123\nTEST_DOTENV_PORT=8089\n"), 0o600))

	require.NoError(t, config.LoadEnv(envFile))
	t.Cleanup(func() {
		os.Unsetenv("TEST_DOTENV_TOKEN")
		os.Unsetenv("TEST_DOTENV_PORT")
	})

	var cfg dotenvConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "abc123", cfg.Token)
	assert.Equal(t, 8089, cfg.Port)
}

func TestLoadEnvMissingFile(t *testing.T) {
	err := config.LoadEnv(filepath.Join(t.TempDir(), "does-not-exist.env"))
	assert.ErrorIs(t, err, config.ErrParsingConfig)
}

func TestLoadEnvDoesNotOverrideExisting(t *testing.T) {
	config.ResetCache()
	t.Setenv("TEST_DOTENV_TOKEN", "from_environment")

	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile,
		[]byte("TEST_DOTENV_TOKEN=from_file\n"), 0o600))

	require.NoError(t, config.LoadEnv(envFile))
	assert.Equal(t, "from_environment", os.Getenv("TEST_DOTENV_TOKEN"))
}

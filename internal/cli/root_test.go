package cli

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charliek/logdesk/internal/config"
	"github.com/charliek/logdesk/internal/constants"
	"github.com/charliek/logdesk/internal/domain"
	"github.com/charliek/logdesk/internal/session"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "logdesk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Cleanup(resetFlags)

	t.Run("defaults without a config file", func(t *testing.T) {
		t.Chdir(t.TempDir())
		resetFlags()

		cfg, err := loadConfig()
		require.NoError(t, err)
		assert.Equal(t, constants.DefaultAPIURL, cfg.Remote.BaseURL)
		assert.Equal(t, constants.DefaultPort, cfg.Server.Port)
	})

	t.Run("finds logdesk.yaml in the working directory", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)
		resetFlags()
		writeConfig(t, dir, "remote:\n  base_url: http://logs.internal:9000\n")

		cfg, err := loadConfig()
		require.NoError(t, err)
		assert.Equal(t, "http://logs.internal:9000", cfg.Remote.BaseURL)
	})

	t.Run("explicit path", func(t *testing.T) {
		t.Chdir(t.TempDir())
		resetFlags()
		configPath = writeConfig(t, t.TempDir(), "server:\n  port: 9100\n")

		cfg, err := loadConfig()
		require.NoError(t, err)
		assert.Equal(t, 9100, cfg.Server.Port)
	})

	t.Run("missing explicit path", func(t *testing.T) {
		t.Chdir(t.TempDir())
		resetFlags()
		configPath = filepath.Join(t.TempDir(), "nope.yaml")

		_, err := loadConfig()
		assert.ErrorIs(t, err, domain.ErrConfigNotFound)
	})

	t.Run("environment applies without a file", func(t *testing.T) {
		t.Chdir(t.TempDir())
		resetFlags()
		t.Setenv("LOGDESK_API_URL", "http://from-env:8000")

		cfg, err := loadConfig()
		require.NoError(t, err)
		assert.Equal(t, "http://from-env:8000", cfg.Remote.BaseURL)
	})

	t.Run("api-url flag wins", func(t *testing.T) {
		t.Chdir(t.TempDir())
		resetFlags()
		t.Setenv("LOGDESK_API_URL", "http://from-env:8000")
		apiURL = "http://from-flag:8000/"

		cfg, err := loadConfig()
		require.NoError(t, err)
		assert.Equal(t, "http://from-flag:8000", cfg.Remote.BaseURL)
	})

	t.Run("invalid api-url", func(t *testing.T) {
		t.Chdir(t.TempDir())
		resetFlags()
		apiURL = "ftp://logs"

		_, err := loadConfig()
		assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	})
}

func TestNewLogger(t *testing.T) {
	t.Cleanup(resetFlags)
	ctx := context.Background()

	t.Run("level from config", func(t *testing.T) {
		resetFlags()
		logger := newLogger(&bytes.Buffer{}, config.LogConfig{Level: "warn", Format: "text"})
		assert.False(t, logger.Enabled(ctx, slog.LevelInfo))
		assert.True(t, logger.Enabled(ctx, slog.LevelWarn))
	})

	t.Run("verbose forces debug", func(t *testing.T) {
		resetFlags()
		verbose = true
		logger := newLogger(&bytes.Buffer{}, config.LogConfig{Level: "error", Format: "text"})
		assert.True(t, logger.Enabled(ctx, slog.LevelDebug))
	})

	t.Run("json format", func(t *testing.T) {
		resetFlags()
		var buf bytes.Buffer
		newLogger(&buf, config.LogConfig{Level: "info", Format: "json"}).Info("hello", "tenant", "acme")
		assert.Contains(t, buf.String(), `"msg":"hello"`)
		assert.Contains(t, buf.String(), `"tenant":"acme"`)
	})
}

func TestOpenStorage(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		cfg := config.Default()
		storage, closeFn, err := openStorage(cfg)
		require.NoError(t, err)
		assert.IsType(t, &session.MemoryStorage{}, storage)
		assert.NoError(t, closeFn())
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg := config.Default()
		cfg.Session.Storage = constants.StorageSQLite
		cfg.Session.SQLitePath = filepath.Join(t.TempDir(), "sessions.db")

		storage, closeFn, err := openStorage(cfg)
		require.NoError(t, err)
		assert.IsType(t, &session.SQLiteStorage{}, storage)

		ctx := context.Background()
		require.NoError(t, storage.Set(ctx, "k", []byte("v")))
		got, ok, err := storage.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []byte("v"), got)
		assert.NoError(t, closeFn())
	})
}

func TestGateConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Session.TTL = "30m"

	gate := gateConfig(cfg, slog.Default())
	assert.Equal(t, cfg.Session.SessionTTL(), gate.TTL)
	assert.Equal(t, constants.SessionKey, gate.Key)
}

func TestConsolesRequireUsers(t *testing.T) {
	_, _, err := execute(t, "", "serve")
	assert.ErrorIs(t, err, errNoUsers)

	_, _, err = execute(t, "", "tui")
	assert.ErrorIs(t, err, errNoUsers)
}

func TestServe_InvalidPort(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "users:\n  ops@example.com: s3cret\n")

	_, _, err := execute(t, "", "serve", "--config", path, "--port", "70000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid port")
}

package maelstrom_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	maelstrom "github.com/amberhq/maelstrom-node"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := maelstrom.DefaultConfig()
	assert.Equal(t, maelstrom.DefaultWorkers, cfg.Workers)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Empty(t, cfg.MetricsFile)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig(t *testing.T) {
	t.Run("OK", func(t *testing.T) {
		path := writeConfig(t, "workers: 8\nlogLevel: debug\nlogFormat: json\nmetricsFile: /tmp/node.prom\n")
		cfg, err := maelstrom.LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, maelstrom.Config{
			Workers:     8,
			LogLevel:    "debug",
			LogFormat:   "json",
			MetricsFile: "/tmp/node.prom",
		}, cfg)
	})

	t.Run("PartialKeepsDefaults", func(t *testing.T) {
		cfg, err := maelstrom.LoadConfig(writeConfig(t, "workers: 2\n"))
		require.NoError(t, err)
		assert.Equal(t, 2, cfg.Workers)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, "text", cfg.LogFormat)
	})

	t.Run("ErrMissingFile", func(t *testing.T) {
		_, err := maelstrom.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("ErrSyntax", func(t *testing.T) {
		_, err := maelstrom.LoadConfig(writeConfig(t, "workers: [\n"))
		require.Error(t, err)
	})

	t.Run("ErrInvalid", func(t *testing.T) {
		_, err := maelstrom.LoadConfig(writeConfig(t, "workers: 0\nlogLevel: loud\nlogFormat: xml\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "workers must be at least 1")
		assert.Contains(t, err.Error(), `unknown log level "loud"`)
		assert.Contains(t, err.Error(), `unknown log format "xml"`)
	})
}

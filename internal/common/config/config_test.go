package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "clatter.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeTempConfig(t, "server:\n  addr: \":9000\"\n")

	cfg, cfgPath, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfgPath)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, int64(32*1024), cfg.Server.ReadLimit)
	assert.Equal(t, 64, cfg.Server.SendQueueSize)
	assert.Equal(t, 60*time.Second, cfg.Server.PongWait)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "none", cfg.Cache.Type)
	assert.Equal(t, "ru", cfg.I18n.Lang)
	assert.Equal(t, "clatter", cfg.Metrics.Namespace)
}

func TestLoadConfig_EnvExpansion(t *testing.T) {
	t.Setenv("CLATTER_DB", "postgres")
	path := writeTempConfig(t, "database:\n  type: ${CLATTER_DB:sqlite}\n  host: ${CLATTER_DB_HOST:localhost}\n")

	cfg, _, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Type)
	// unset variable falls back to the default
	assert.Equal(t, "localhost", cfg.Database.Host)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

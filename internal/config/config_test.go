package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Address)
	assert.Equal(t, 30*time.Second, cfg.Server.Timeout)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, int64(4<<20), cfg.Uploads.MaxFileSize)
	assert.Equal(t, 5, cfg.Uploads.MaxFileCount)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoad_LegacyEnvVars(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("POSTGRES_CONN", "postgres://u:p@db:5432/diary")
	t.Setenv("SERVER_ADDRESS", "127.0.0.1:9000")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@db:5432/diary", cfg.Database.DSN)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Address)
}

func TestLoad_PrefixedEnvWins(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("DIARY_DATABASE_DRIVER", "memory")
	t.Setenv("DIARY_LOGGING_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "diary.yaml")
	content := []byte("diary:\n  timezone: UTC\nuploads:\n  dir: /var/diary\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/diary", cfg.Uploads.Dir)
}

func TestLoad_BadTimezone(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("DIARY_DIARY_TIMEZONE", "Nowhere/Land")

	_, err := Load("")
	require.Error(t, err)
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

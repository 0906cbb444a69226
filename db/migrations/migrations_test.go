package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEmbeddedMigrations(t *testing.T) {
	files, err := fs.Glob(embedMigrations, migrationDir+"/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, name := range files {
		data, err := fs.ReadFile(embedMigrations, name)
		require.NoError(t, err)
		require.True(t, strings.Contains(string(data), "-- +goose Up"), name)
		require.True(t, strings.Contains(string(data), "-- +goose Down"), name)
	}
}

func TestSetup(t *testing.T) {
	SetLogger(zap.NewNop())
	require.NoError(t, setup())
}

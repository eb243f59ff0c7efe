package postgres

import (
	"context"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	t.Parallel()

	files, err := fs.Glob(migrationsFS, migrationsDir+"/*.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"migrations/00001_create_users.sql",
		"migrations/00002_create_tasks.sql",
	}, files)

	for _, f := range files {
		body, err := fs.ReadFile(migrationsFS, f)
		require.NoError(t, err)
		assert.Contains(t, string(body), "-- +goose Up", f)
		assert.Contains(t, string(body), "-- +goose Down", f)
	}
}

func TestMigrateRejectsUnknownCommand(t *testing.T) {
	t.Parallel()

	err := Migrate(context.Background(), nil, "drop-everything", nil)
	assert.ErrorContains(t, err, `unsupported migration command "drop-everything"`)
}

package db

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_HaveGooseDirectives(t *testing.T) {
	entries, err := fs.ReadDir(Migrations, Dir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	for _, e := range entries {
		b, err := fs.ReadFile(Migrations, Dir+"/"+e.Name())
		require.NoError(t, err)
		assert.Contains(t, string(b), "-- +goose Up", e.Name())
		assert.Contains(t, string(b), "-- +goose Down", e.Name())
	}
}

func TestMigrations_Collect(t *testing.T) {
	goose.SetBaseFS(Migrations)
	t.Cleanup(func() { goose.SetBaseFS(nil) })

	migrations, err := goose.CollectMigrations(Dir, 0, goose.MaxVersion)
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.True(t, strings.HasSuffix(migrations[0].Source, "00001_create_libraries.sql"))
	assert.True(t, strings.HasSuffix(migrations[1].Source, "00002_create_books.sql"))
}

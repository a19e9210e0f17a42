package main

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func migrationsDir(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	require.True(t, ok, "runtime.Caller failed")
	return filepath.Clean(filepath.Join(filepath.Dir(thisFile), "..", "..", "db", "migrations"))
}

func TestMigrations_Parse(t *testing.T) {
	migrations, err := goose.CollectMigrations(migrationsDir(t), 0, goose.MaxVersion)
	require.NoError(t, err)

	var versions []int64
	for _, m := range migrations {
		versions = append(versions, m.Version)
	}
	assert.Equal(t, []int64{1, 2}, versions)
}

func TestMigrations_Reversible(t *testing.T) {
	dir := migrationsDir(t)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	tables := map[string]string{
		"00001_create_books.sql":            "books",
		"00002_create_contact_messages.sql": "contact_messages",
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		t.Run(e.Name(), func(t *testing.T) {
			b, err := os.ReadFile(filepath.Join(dir, e.Name()))
			require.NoError(t, err)
			sql := string(b)

			up := strings.Index(sql, "-- +goose Up")
			down := strings.Index(sql, "-- +goose Down")
			require.GreaterOrEqual(t, up, 0, "missing Up section")
			require.Greater(t, down, up, "Down section must follow Up")

			if table, ok := tables[e.Name()]; ok {
				assert.Contains(t, sql[up:down], "CREATE TABLE "+table)
				assert.Contains(t, sql[down:], "DROP TABLE IF EXISTS "+table)
			}
		})
	}
}

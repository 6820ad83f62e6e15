package migrate

import (
	"context"
	"database/sql"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

var testMigrations = fstest.MapFS{
	"sql/001_create_things.up.sql":   {Data: []byte(`CREATE TABLE things (id INTEGER PRIMARY KEY)`)},
	"sql/001_create_things.down.sql": {Data: []byte(`DROP TABLE things`)},
	"sql/002_add_name.up.sql":        {Data: []byte(`ALTER TABLE things ADD COLUMN name TEXT`)},
	"sql/002_add_name.down.sql":      {Data: []byte(`ALTER TABLE things DROP COLUMN name`)},
	"sql/README.md":                  {Data: []byte(`ignored`)},
}

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestFSProvider(t *testing.T) {
	migrations, err := NewFSProvider(testMigrations, "sql").GetMigrations()
	require.NoError(t, err)
	require.Len(t, migrations, 2)

	byVersion := map[int]Migration{}
	for _, m := range migrations {
		byVersion[m.Version] = m
	}
	assert.Equal(t, "create things", byVersion[1].Name)
	assert.NotEmpty(t, byVersion[2].Up)
	assert.NotEmpty(t, byVersion[2].Down)
}

func TestMigrateUpAndDown(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	m := NewMigrator(db, NewFSProvider(testMigrations, "sql"), "", nil)

	require.NoError(t, m.MigrateUp(ctx))
	version, err := m.CurrentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, version)

	_, err = db.ExecContext(ctx, `INSERT INTO things (id, name) VALUES (1, 'moon')`)
	require.NoError(t, err)

	// re-running is a no-op
	require.NoError(t, m.MigrateUp(ctx))

	require.NoError(t, m.MigrateTo(ctx, 1))
	version, err = m.CurrentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, version)

	require.NoError(t, m.MigrateTo(ctx, 0))
	_, err = db.ExecContext(ctx, `SELECT 1 FROM things`)
	assert.Error(t, err)
}

func TestMigrateMissingDown(t *testing.T) {
	ctx := context.Background()
	fsys := fstest.MapFS{"sql/001_only_up.up.sql": {Data: []byte(`CREATE TABLE t (id INTEGER)`)}}
	m := NewMigrator(openDB(t), NewFSProvider(fsys, "sql"), "", nil)

	require.NoError(t, m.MigrateUp(ctx))
	assert.Error(t, m.MigrateTo(ctx, 0))
}

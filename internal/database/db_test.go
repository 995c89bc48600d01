package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLite(t *testing.T) {
	db, err := Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer Close(db)

	assert.NoError(t, Ping(db))
	assert.Equal(t, SQLite, db.Dialect().GetName())
}

func TestOpenMemory(t *testing.T) {
	db, err := Open("", ":memory:")
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, db.Exec("CREATE TABLE t (v INTEGER)").Error)
	require.NoError(t, db.Exec("INSERT INTO t (v) VALUES (1)").Error)

	var count int
	require.NoError(t, db.Table("t").Count(&count).Error)
	assert.Equal(t, 1, count)
}

func TestOpenUnsupported(t *testing.T) {
	_, err := Open("mongodb", "")
	assert.ErrorContains(t, err, "unsupported database driver")
	assert.NoError(t, Close(nil))
}

package ingest

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func createTestDB(t *testing.T, records []string) string {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	_, err = db.Exec("CREATE TABLE results (id TEXT PRIMARY KEY, record TEXT NOT NULL)")
	require.NoError(t, err)

	for i, rec := range records {
		_, err = db.Exec("INSERT INTO results (id, record) VALUES (?, ?)",
			string(rune('a'+i)), rec)
		require.NoError(t, err)
	}
	return dbPath
}

// loadSQLite reads every record of the results table into memory.
func loadSQLite(dbPath string) ([]any, error) {
	var records []any
	err := StreamSQLite(dbPath, func(_ string, record any) error {
		records = append(records, record)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func TestLoadSQLite(t *testing.T) {
	t.Run("basic records", func(t *testing.T) {
		dbPath := createTestDB(t, []string{
			`{"item":{"name":"Alice","role":"admin"}}`,
			`{"item":{"name":"Bob","role":"user"}}`,
		})

		records, err := loadSQLite(dbPath)
		require.NoError(t, err)
		assert.Len(t, records, 2)

		first, ok := records[0].(map[string]any)
		require.True(t, ok)
		item, ok := first["item"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "Alice", item["name"])
	})

	t.Run("empty database", func(t *testing.T) {
		dbPath := createTestDB(t, nil)

		records, err := loadSQLite(dbPath)
		require.NoError(t, err)
		assert.Len(t, records, 0)
	})

	t.Run("nonexistent file", func(t *testing.T) {
		_, err := loadSQLite(filepath.Join(t.TempDir(), "missing", "test.db"))
		require.Error(t, err)
	})

	t.Run("nested structures preserved", func(t *testing.T) {
		dbPath := createTestDB(t, []string{
			`{"item":{"cve":{"id":"CVE-2024-0001","descriptions":[{"lang":"en","value":"test desc"}]}}}`,
		})

		records, err := loadSQLite(dbPath)
		require.NoError(t, err)
		assert.Len(t, records, 1)

		rec := records[0].(map[string]any)
		item := rec["item"].(map[string]any)
		cve := item["cve"].(map[string]any)
		assert.Equal(t, "CVE-2024-0001", cve["id"])

		descs := cve["descriptions"].([]any)
		assert.Len(t, descs, 1)
		desc := descs[0].(map[string]any)
		assert.Equal(t, "test desc", desc["value"])
	})

	t.Run("malformed record", func(t *testing.T) {
		dbPath := createTestDB(t, []string{`{"item":`})
		_, err := loadSQLite(dbPath)
		assert.ErrorContains(t, err, "parse record a")
	})
}

func TestStreamSQLite(t *testing.T) {
	dbPath := createTestDB(t, []string{`{"n":1}`, `{"n":2}`, `{"n":3}`})

	var ids []string
	err := StreamSQLite(dbPath, func(id string, rec any) error {
		ids = append(ids, id)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	stop := errors.New("stop")
	seen := 0
	err = StreamSQLite(dbPath, func(string, any) error {
		seen++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, seen)
}

func TestLoadSQLite_Integration(t *testing.T) {
	db := os.Getenv("RESHAPE_TEST_DB")
	if db == "" {
		t.Skip("RESHAPE_TEST_DB not set")
	}
	if _, err := os.Stat(db); os.IsNotExist(err) {
		t.Skip("database not found at " + db)
	}

	records, err := loadSQLite(db)
	require.NoError(t, err)
	assert.NotEmpty(t, records)
}

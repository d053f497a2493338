package sqlite

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polydb-io/polydb/pkg/provider"
)

func openTestDB(t *testing.T) provider.Connection {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	conn, err := NewAdapter().Connect(context.Background(), provider.Config{DSN: path})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(context.Background()) })
	return conn
}

func seedUsers(t *testing.T, conn provider.Connection) {
	t.Helper()

	_, err := conn.RunQuery(context.Background(),
		"CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT, age INTEGER)",
		provider.QueryContext{})
	require.NoError(t, err)
	_, err = conn.RunQuery(context.Background(),
		"INSERT INTO users (id, name, age) VALUES (1, 'Alice', 30), (2, 'Bob', 25)",
		provider.QueryContext{})
	require.NoError(t, err)
}

func TestConnectMissingPath(t *testing.T) {
	_, err := NewAdapter().Connect(context.Background(), provider.Config{})
	assert.ErrorIs(t, err, provider.ErrConnectionFailed)
}

func TestListTables(t *testing.T) {
	conn := openTestDB(t)
	seedUsers(t, conn)
	_, err := conn.RunQuery(context.Background(),
		"CREATE TABLE accounts (id INTEGER PRIMARY KEY)", provider.QueryContext{})
	require.NoError(t, err)

	tables, err := conn.ListTables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"accounts", "users"}, tables)
}

func TestGetRecordsPagination(t *testing.T) {
	conn := openTestDB(t)
	seedUsers(t, conn)

	count, err := conn.GetRecordCount(context.Background(), "users")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	records, err := conn.GetRecords(context.Background(), "users", provider.FetchOptions{
		Limit:  provider.Limit(1),
		Offset: 1,
		Sort:   []provider.SortKey{{Column: "id", Direction: provider.Ascending}},
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Bob", records[0].Values["name"])
}

func TestGetRecordsZeroLimit(t *testing.T) {
	conn := openTestDB(t)
	seedUsers(t, conn)

	records, err := conn.GetRecords(context.Background(), "users", provider.FetchOptions{
		Limit: provider.Limit(0),
	})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestResolveIdentifierPrimaryKey(t *testing.T) {
	conn := openTestDB(t)
	seedUsers(t, conn)

	rec := provider.NewRecord()
	rec.Set("id", int64(1))
	rec.Set("name", "Alice")

	id, err := conn.ResolveIdentifier(context.Background(), "users", rec)
	require.NoError(t, err)
	assert.Equal(t, provider.Identifier{"id": int64(1)}, id)
}

func TestResolveIdentifierNoPrimaryKey(t *testing.T) {
	conn := openTestDB(t)
	_, err := conn.RunQuery(context.Background(),
		"CREATE TABLE logs (line TEXT, level TEXT)", provider.QueryContext{})
	require.NoError(t, err)

	rec := provider.NewRecord()
	rec.Set("line", "boot ok")
	rec.Set("level", "info")

	id, err := conn.ResolveIdentifier(context.Background(), "logs", rec)
	require.NoError(t, err)
	assert.Len(t, id, 2)
}

func TestUpdateRecord(t *testing.T) {
	conn := openTestDB(t)
	seedUsers(t, conn)

	result, err := conn.UpdateRecord(context.Background(), "users",
		provider.Identifier{"id": 2}, map[string]any{"age": 26})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, int64(1), result.AffectedCount)

	records, err := conn.GetRecords(context.Background(), "users", provider.FetchOptions{
		Sort: []provider.SortKey{{Column: "id", Direction: provider.Ascending}},
	})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Alice", records[0].Values["name"])
	assert.EqualValues(t, 26, records[1].Values["age"])
}

func TestUpdateRecordSafety(t *testing.T) {
	conn := openTestDB(t)
	seedUsers(t, conn)

	_, err := conn.UpdateRecord(context.Background(), "users",
		provider.Identifier{}, map[string]any{"age": 1})
	assert.ErrorIs(t, err, provider.ErrSafetyViolation)

	_, err = conn.UpdateRecord(context.Background(), "users",
		provider.Identifier{"id": 1}, map[string]any{})
	assert.ErrorIs(t, err, provider.ErrSafetyViolation)
}

func TestImportCreatesTable(t *testing.T) {
	conn := openTestDB(t)

	source := filepath.Join(t.TempDir(), "users.json")
	payload := []map[string]any{
		{"id": "1", "name": "Alice", "age": "30"},
		{"id": "2", "name": "Bob", "age": "25"},
	}
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(source, data, 0o644))

	inserted, err := conn.ImportTable(context.Background(), "users", source)
	require.NoError(t, err)
	assert.Equal(t, int64(2), inserted)

	count, err := conn.GetRecordCount(context.Background(), "users")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	records, err := conn.GetRecords(context.Background(), "users", provider.FetchOptions{
		Limit:  provider.Limit(1),
		Offset: 1,
		Sort:   []provider.SortKey{{Column: "id", Direction: provider.Ascending}},
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Bob", records[0].Values["name"])
}

func TestExportRoundTrip(t *testing.T) {
	conn := openTestDB(t)
	seedUsers(t, conn)

	dir := t.TempDir()
	dest := filepath.Join(dir, "users.csv")
	written, err := conn.ExportTable(context.Background(), "users", dest, nil)
	require.NoError(t, err)
	assert.Equal(t, dest, written)

	other := openTestDB(t)
	inserted, err := other.ImportTable(context.Background(), "users", dest)
	require.NoError(t, err)
	assert.Equal(t, int64(2), inserted)
}

func TestExportEmptyTable(t *testing.T) {
	conn := openTestDB(t)
	_, err := conn.RunQuery(context.Background(),
		"CREATE TABLE empty_table (id INTEGER)", provider.QueryContext{})
	require.NoError(t, err)

	_, err = conn.ExportTable(context.Background(), "empty_table",
		filepath.Join(t.TempDir(), "out.csv"), nil)
	assert.ErrorIs(t, err, provider.ErrDataShape)
}

func TestExportMissingTable(t *testing.T) {
	conn := openTestDB(t)

	_, err := conn.ExportTable(context.Background(), "no_such_table",
		filepath.Join(t.TempDir(), "out.csv"), nil)
	assert.ErrorIs(t, err, provider.ErrTableNotFound)
}

func TestRunQueryLimitCap(t *testing.T) {
	conn := openTestDB(t)
	seedUsers(t, conn)

	records, err := conn.RunQuery(context.Background(), "SELECT * FROM users ORDER BY id",
		provider.QueryContext{Limit: provider.Limit(1)})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Alice", records[0].Values["name"])
}

func TestRunQuerySyntaxError(t *testing.T) {
	conn := openTestDB(t)

	_, err := conn.RunQuery(context.Background(), "SELEKT broken", provider.QueryContext{})
	assert.Error(t, err)
}

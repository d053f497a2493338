package transfer

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/polydb-io/polydb/pkg/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(pairs ...any) provider.Record {
	rec := provider.NewRecord()
	for i := 0; i < len(pairs); i += 2 {
		rec.Set(pairs[i].(string), pairs[i+1])
	}
	return rec
}

func TestCSVRoundTrip(t *testing.T) {
	rows := []provider.Record{
		record("id", "1", "name", "Alice", "note", "plain"),
		record("id", "2", "name", "Bob", "note", `has "quotes", commas`),
		record("id", "3", "name", "Carol", "note", "line\nbreak"),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows, HeaderFromFirst(rows)))

	parsed, dropped, err := ParseCSV(&buf)
	require.NoError(t, err)
	assert.Zero(t, dropped)
	require.Len(t, parsed, 3)
	for i, rec := range parsed {
		assert.Equal(t, rows[i].Columns, rec.Columns)
		assert.Equal(t, rows[i].Values["note"], rec.Values["note"])
	}
}

func TestCSVNilSerializesEmpty(t *testing.T) {
	rows := []provider.Record{record("a", nil, "b", "x")}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows, HeaderFromFirst(rows)))
	assert.Equal(t, "a,b\n,x\n", buf.String())
}

func TestParseCSVDropsMismatchedRows(t *testing.T) {
	in := "id,name\n1,Alice\n2\n3,Carol,extra\n4,Dave\n"
	records, dropped, err := ParseCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 2, dropped)
	require.Len(t, records, 2)
	assert.Equal(t, "Alice", records[0].Values["name"])
	assert.Equal(t, "Dave", records[1].Values["name"])
}

func TestUnionHeader(t *testing.T) {
	records := []provider.Record{
		record("a", 1, "b", 2),
		record("b", 3, "c", 4),
	}
	assert.Equal(t, []string{"a", "b", "c"}, UnionHeader(records))
}

func TestJSONRoundTripPreservesOrder(t *testing.T) {
	rows := []provider.Record{
		record("zulu", "1", "alpha", "2", "mike", "3"),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, rows))

	// Output stays valid JSON.
	var check []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &check))

	parsed, err := ParseJSON(&buf)
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	assert.Equal(t, []string{"zulu", "alpha", "mike"}, parsed[0].Columns)
}

func TestParseJSONRejectsNonArray(t *testing.T) {
	_, err := ParseJSON(strings.NewReader(`{"not": "an array"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "array of objects")
}

func TestFlatten(t *testing.T) {
	rec := record(
		"_id", "abc",
		"addr", map[string]any{"city": "Oslo", "geo": map[string]any{"lat": 59.9}},
		"tags", []any{"a", "b"},
	)

	flat := Flatten(rec)
	assert.Equal(t, []string{"_id", "addr.city", "addr.geo.lat", "tags"}, flat.Columns)
	assert.Equal(t, "abc", flat.Values["_id"])
	assert.Equal(t, "Oslo", flat.Values["addr.city"])
	assert.Equal(t, 59.9, flat.Values["addr.geo.lat"])
	assert.Equal(t, `["a","b"]`, flat.Values["tags"])
}

func TestWriteFileDispatch(t *testing.T) {
	dir := t.TempDir()
	rows := []provider.Record{record("id", "1", "name", "Alice")}

	csvPath, err := WriteFile(filepath.Join(dir, "out.csv"), rows, WriteOptions{})
	require.NoError(t, err)
	back, dropped, err := ReadFile(csvPath)
	require.NoError(t, err)
	assert.Zero(t, dropped)
	require.Len(t, back, 1)
	assert.Equal(t, "Alice", back[0].Values["name"])

	jsonPath, err := WriteFile(filepath.Join(dir, "out.json"), rows, WriteOptions{})
	require.NoError(t, err)
	back, _, err = ReadFile(jsonPath)
	require.NoError(t, err)
	require.Len(t, back, 1)
	assert.Equal(t, "Alice", back[0].Values["name"])

	_, err = WriteFile(filepath.Join(dir, "out.xml"), rows, WriteOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported export format")
}

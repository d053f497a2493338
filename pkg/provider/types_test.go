package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordPreservesColumnOrder(t *testing.T) {
	r := NewRecord()
	r.Set("id", 1)
	r.Set("name", "Alice")
	r.Set("age", 30)
	r.Set("name", "Bob") // overwrite must not reorder

	assert.Equal(t, []string{"id", "name", "age"}, r.Columns)
	v, ok := r.Get("name")
	assert.True(t, ok)
	assert.Equal(t, "Bob", v)

	clone := r.Clone()
	clone.Set("extra", true)
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, 4, clone.Len())
}

func TestFetchOptionsNormalize(t *testing.T) {
	tests := []struct {
		name       string
		opts       FetchOptions
		wantEmpty  bool
		wantOffset int64
	}{
		{"defaults", FetchOptions{}, false, 0},
		{"negative offset clamps", FetchOptions{Offset: -5}, false, 0},
		{"zero limit short-circuits", FetchOptions{Limit: Limit(0)}, true, 0},
		{"negative limit short-circuits", FetchOptions{Limit: Limit(-3)}, true, 0},
		{"positive limit passes", FetchOptions{Limit: Limit(10), Offset: 20}, false, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, empty := tt.opts.Normalize()
			assert.Equal(t, tt.wantEmpty, empty)
			assert.Equal(t, tt.wantOffset, got.Offset)
		})
	}
}

func TestSortKeyDesc(t *testing.T) {
	assert.False(t, SortKey{Column: "a"}.Desc())
	assert.False(t, SortKey{Column: "a", Direction: Ascending}.Desc())
	assert.True(t, SortKey{Column: "a", Direction: Descending}.Desc())
}

func TestParseEngine(t *testing.T) {
	e, ok := ParseEngine("SQLite3")
	assert.True(t, ok)
	assert.Equal(t, SQLite, e)

	e, ok = ParseEngine("turso")
	assert.True(t, ok)
	assert.Equal(t, LibSQL, e)

	_, ok = ParseEngine("cassandra")
	assert.False(t, ok)
}

package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polydb-io/polydb/pkg/provider"
)

func TestKeyPrefix(t *testing.T) {
	assert.Equal(t, "session", keyPrefix("session:42"))
	assert.Equal(t, "cache", keyPrefix("cache:user:7"))
	assert.Equal(t, provider.NoPrefix, keyPrefix("counter"))
	assert.Equal(t, provider.NoPrefix, keyPrefix(":odd"))
}

func TestSortKeys(t *testing.T) {
	keys := []string{"b", "c", "a"}
	sortKeys(keys, nil)
	assert.Equal(t, []string{"a", "b", "c"}, keys)

	keys = []string{"b", "c", "a"}
	sortKeys(keys, []provider.SortKey{{Column: "key", Direction: provider.Descending}})
	assert.Equal(t, []string{"c", "b", "a"}, keys)

	// Non-key sort columns are ignored.
	keys = []string{"b", "a"}
	sortKeys(keys, []provider.SortKey{{Column: "ttl", Direction: provider.Descending}})
	assert.Equal(t, []string{"a", "b"}, keys)
}

func TestAppendPageKeysDeduplicates(t *testing.T) {
	seen := map[string]struct{}{}

	// A full SCAN iteration can hand back the same key on several pages.
	keys := appendPageKeys(nil, seen, []string{"session:1", "session:2"}, "session")
	keys = appendPageKeys(keys, seen, []string{"session:2", "session:3"}, "session")
	keys = appendPageKeys(keys, seen, []string{"session:1"}, "session")

	assert.Equal(t, []string{"session:1", "session:2", "session:3"}, keys)
}

func TestAppendPageKeysNoPrefixGroup(t *testing.T) {
	seen := map[string]struct{}{}

	keys := appendPageKeys(nil, seen, []string{"counter", "session:1", "counter"}, provider.NoPrefix)
	assert.Equal(t, []string{"counter"}, keys)
}

func TestSliceWindow(t *testing.T) {
	keys := []string{"a", "b", "c", "d"}

	assert.Equal(t, []string{"b", "c"}, sliceWindow(keys, provider.Limit(2), 1))
	assert.Equal(t, []string{"c", "d"}, sliceWindow(keys, nil, 2))
	assert.Empty(t, sliceWindow(keys, provider.Limit(2), 10))
	assert.Equal(t, keys, sliceWindow(keys, nil, 0))
}

func TestResolveIdentifier(t *testing.T) {
	conn := &Connection{}

	rec := provider.NewRecord()
	rec.Set("key", "session:42")
	rec.Set("type", "string")

	id, err := conn.ResolveIdentifier(context.Background(), "session", rec)
	require.NoError(t, err)
	assert.Equal(t, provider.Identifier{"key": "session:42"}, id)
}

func TestResolveIdentifierMissingKey(t *testing.T) {
	conn := &Connection{}

	rec := provider.NewRecord()
	rec.Set("type", "string")

	_, err := conn.ResolveIdentifier(context.Background(), "session", rec)
	assert.ErrorIs(t, err, provider.ErrDataShape)
}

func TestUpdateRecordGuards(t *testing.T) {
	conn := &Connection{}

	_, err := conn.UpdateRecord(context.Background(), "session",
		provider.Identifier{}, map[string]any{"value": "x"})
	assert.ErrorIs(t, err, provider.ErrSafetyViolation)

	_, err = conn.UpdateRecord(context.Background(), "session",
		provider.Identifier{"key": "session:42"}, map[string]any{})
	assert.ErrorIs(t, err, provider.ErrSafetyViolation)

	_, err = conn.UpdateRecord(context.Background(), "session",
		provider.Identifier{"key": "session:42"}, map[string]any{"ttl": 10})
	assert.ErrorIs(t, err, provider.ErrUnsupportedFeature)
}

func TestImportTableUnsupported(t *testing.T) {
	conn := &Connection{}

	_, err := conn.ImportTable(context.Background(), "session", "session.csv")
	assert.ErrorIs(t, err, provider.ErrUnsupportedFeature)
}

func TestConnectRejectsEmptyDSN(t *testing.T) {
	_, err := NewAdapter().Connect(context.Background(), provider.Config{})
	assert.ErrorIs(t, err, provider.ErrConnectionFailed)
}

func TestConnectRejectsBadURL(t *testing.T) {
	_, err := NewAdapter().Connect(context.Background(), provider.Config{DSN: "not a url"})
	assert.ErrorIs(t, err, provider.ErrConnectionFailed)
}

package postgres

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/polydb-io/polydb/pkg/provider"
)

func TestConnectRejectsEmptyDSN(t *testing.T) {
	_, err := NewAdapter().Connect(context.Background(), provider.Config{})
	assert.ErrorIs(t, err, provider.ErrConnectionFailed)
}

func TestUpdateRecordSafetyGuards(t *testing.T) {
	// The guards run before the pool is touched, so a zero connection is
	// enough to exercise them.
	conn := &Connection{}

	_, err := conn.UpdateRecord(context.Background(), "users",
		provider.Identifier{}, map[string]any{"age": 1})
	assert.ErrorIs(t, err, provider.ErrSafetyViolation)

	_, err = conn.UpdateRecord(context.Background(), "users",
		provider.Identifier{"id": 1}, map[string]any{})
	assert.ErrorIs(t, err, provider.ErrSafetyViolation)
}

func TestResolveIdentifierEmptyRecord(t *testing.T) {
	conn := &Connection{}

	_, err := conn.ResolveIdentifier(context.Background(), "users", provider.NewRecord())
	assert.ErrorIs(t, err, provider.ErrSafetyViolation)
}

func TestGetRecordsZeroLimitSkipsEngine(t *testing.T) {
	conn := &Connection{}

	records, err := conn.GetRecords(context.Background(), "users", provider.FetchOptions{
		Limit: provider.Limit(0),
	})
	assert.NoError(t, err)
	assert.Empty(t, records)
}

func TestBindableValue(t *testing.T) {
	assert.Equal(t, "hello", bindableValue("hello"))
	assert.Equal(t, 42, bindableValue(42))
	assert.Equal(t, "7", bindableValue(json.Number("7")))
	assert.JSONEq(t, `{"a":1}`, bindableValue(map[string]any{"a": 1}).(string))
	assert.JSONEq(t, `[1,2]`, bindableValue([]any{1, 2}).(string))
}

func TestSortedKeys(t *testing.T) {
	keys := sortedKeys(map[string]any{"b": 1, "a": 2, "c": 3})
	assert.Equal(t, []string{"a", "b", "c"}, keys)
}

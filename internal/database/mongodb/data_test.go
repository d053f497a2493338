package mongodb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/polydb-io/polydb/pkg/provider"
)

func TestDatabaseFromURI(t *testing.T) {
	name, err := databaseFromURI("mongodb://localhost:27017/appdb")
	require.NoError(t, err)
	assert.Equal(t, "appdb", name)

	_, err = databaseFromURI("mongodb://localhost:27017")
	assert.Error(t, err)
}

func TestConnectRejectsEmptyDSN(t *testing.T) {
	_, err := NewAdapter().Connect(context.Background(), provider.Config{})
	assert.ErrorIs(t, err, provider.ErrConnectionFailed)
}

func TestDocumentsToRecordsKeepsShapeAndOrder(t *testing.T) {
	oid, err := bson.ObjectIDFromHex("507f1f77bcf86cd799439011")
	require.NoError(t, err)

	records := documentsToRecords([]bson.D{{
		{Key: "_id", Value: oid},
		{Key: "name", Value: "Alice"},
		{Key: "address", Value: bson.D{{Key: "city", Value: "Oslo"}}},
		{Key: "tags", Value: bson.A{"a", "b"}},
	}})
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, []string{"_id", "name", "address", "tags"}, rec.Columns)
	assert.Equal(t, "507f1f77bcf86cd799439011", rec.Values["_id"])
	assert.Equal(t, "Alice", rec.Values["name"])
	assert.Equal(t, map[string]any{"city": "Oslo"}, rec.Values["address"])
	assert.Equal(t, []any{"a", "b"}, rec.Values["tags"])
}

func TestResolveIdentifierUsesObjectID(t *testing.T) {
	oid, err := bson.ObjectIDFromHex("507f1f77bcf86cd799439011")
	require.NoError(t, err)

	conn := &Connection{}

	records := documentsToRecords([]bson.D{{
		{Key: "_id", Value: oid},
		{Key: "name", Value: "Alice"},
	}})
	require.Len(t, records, 1)

	id, err := conn.ResolveIdentifier(context.Background(), "users", records[0])
	require.NoError(t, err)
	assert.Equal(t, provider.Identifier{"_id": oid}, id)
}

func TestResolveIdentifierKeepsPlainID(t *testing.T) {
	conn := &Connection{}

	rec := provider.NewRecord()
	rec.Set("_id", "user-42")

	id, err := conn.ResolveIdentifier(context.Background(), "users", rec)
	require.NoError(t, err)
	assert.Equal(t, provider.Identifier{"_id": "user-42"}, id)
}

func TestBuildUpdateFilterRevivesObjectID(t *testing.T) {
	oid, err := bson.ObjectIDFromHex("507f1f77bcf86cd799439011")
	require.NoError(t, err)

	filter := buildUpdateFilter(provider.Identifier{
		"_id":  oid.Hex(),
		"name": "Alice",
	})
	assert.Equal(t, bson.M{"_id": oid, "name": "Alice"}, filter)
}

func TestResolveIdentifierMissingID(t *testing.T) {
	conn := &Connection{}

	rec := provider.NewRecord()
	rec.Set("name", "Alice")

	_, err := conn.ResolveIdentifier(context.Background(), "users", rec)
	assert.ErrorIs(t, err, provider.ErrDataShape)
}

func TestUpdateRecordSafetyGuards(t *testing.T) {
	conn := &Connection{}

	_, err := conn.UpdateRecord(context.Background(), "users",
		provider.Identifier{}, map[string]any{"age": 1})
	assert.ErrorIs(t, err, provider.ErrSafetyViolation)

	_, err = conn.UpdateRecord(context.Background(), "users",
		provider.Identifier{"_id": "x"}, map[string]any{})
	assert.ErrorIs(t, err, provider.ErrSafetyViolation)
}

func TestImportTableUnsupported(t *testing.T) {
	conn := &Connection{}

	_, err := conn.ImportTable(context.Background(), "users", "users.csv")
	assert.ErrorIs(t, err, provider.ErrUnsupportedFeature)
}

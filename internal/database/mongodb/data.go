package mongodb

import (
	"context"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/polydb-io/polydb/internal/transfer"
	"github.com/polydb-io/polydb/pkg/provider"
)

// ListTables enumerates the collection names of the database, sorted.
func (c *Connection) ListTables(ctx context.Context) ([]string, error) {
	ctx, cancel := c.config.OperationContext(ctx)
	defer cancel()

	names, err := c.db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, provider.WrapError(provider.MongoDB, "list_tables", err)
	}
	sort.Strings(names)
	return names, nil
}

// GetRecords fetches a page of documents in stored field order. Sorting,
// skip and limit run server side.
func (c *Connection) GetRecords(ctx context.Context, table string, opts provider.FetchOptions) ([]provider.Record, error) {
	opts, empty := opts.Normalize()
	if empty {
		return []provider.Record{}, nil
	}

	ctx, cancel := c.config.OperationContext(ctx)
	defer cancel()

	findOpts := options.Find()
	if len(opts.Sort) > 0 {
		sortDoc := bson.D{}
		for _, key := range opts.Sort {
			order := 1
			if key.Direction == provider.Descending {
				order = -1
			}
			sortDoc = append(sortDoc, bson.E{Key: key.Column, Value: order})
		}
		findOpts.SetSort(sortDoc)
	}
	if opts.Offset > 0 {
		findOpts.SetSkip(opts.Offset)
	}
	if opts.Limit != nil {
		findOpts.SetLimit(*opts.Limit)
	}

	cursor, err := c.db.Collection(table).Find(ctx, bson.D{}, findOpts)
	if err != nil {
		return nil, provider.WrapError(provider.MongoDB, "get_records",
			fmt.Errorf("error querying collection %s: %w", table, err))
	}
	defer cursor.Close(ctx)

	var docs []bson.D
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, provider.WrapError(provider.MongoDB, "get_records", err)
	}
	return documentsToRecords(docs), nil
}

// GetRecordCount returns the number of documents in the collection.
func (c *Connection) GetRecordCount(ctx context.Context, table string) (int64, error) {
	ctx, cancel := c.config.OperationContext(ctx)
	defer cancel()

	count, err := c.db.Collection(table).CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, provider.WrapError(provider.MongoDB, "get_record_count",
			fmt.Errorf("error counting collection %s: %w", table, err))
	}
	return count, nil
}

// RunQuery executes shell-style query text: db.<collection>.find(...),
// db.<collection>.countDocuments(...), or a bare filter document applied
// to the context table.
func (c *Connection) RunQuery(ctx context.Context, query string, qctx provider.QueryContext) ([]provider.Record, error) {
	parsed, err := parseQuery(query, qctx.TableName)
	if err != nil {
		return nil, err
	}

	ctx, cancel := c.config.OperationContext(ctx)
	defer cancel()

	coll := c.db.Collection(parsed.Collection)
	switch parsed.Kind {
	case queryCount:
		count, err := coll.CountDocuments(ctx, parsed.Filter)
		if err != nil {
			return nil, provider.WrapError(provider.MongoDB, "run_query", err)
		}
		rec := provider.NewRecord()
		rec.Set("count", count)
		return []provider.Record{rec}, nil

	case queryFind:
		findOpts := options.Find()
		if qctx.Limit != nil {
			findOpts.SetLimit(*qctx.Limit)
		}
		cursor, err := coll.Find(ctx, parsed.Filter, findOpts)
		if err != nil {
			return nil, provider.WrapError(provider.MongoDB, "run_query", err)
		}
		defer cursor.Close(ctx)

		var docs []bson.D
		if err := cursor.All(ctx, &docs); err != nil {
			return nil, provider.WrapError(provider.MongoDB, "run_query", err)
		}
		return documentsToRecords(docs), nil

	default:
		return nil, provider.NewUnsupportedError(provider.MongoDB, "run_query",
			fmt.Sprintf("unsupported query kind %d", parsed.Kind))
	}
}

// ResolveIdentifier returns the _id filter for a fetched document.
func (c *Connection) ResolveIdentifier(ctx context.Context, table string, record provider.Record) (provider.Identifier, error) {
	if record.Len() == 0 {
		return nil, provider.NewSafetyViolationError(provider.MongoDB, "resolve_identifier", "record is empty")
	}
	id, ok := record.Get("_id")
	if !ok || id == nil {
		return nil, provider.NewDataShapeError(provider.MongoDB,
			fmt.Sprintf("document in collection %s has no _id field", table))
	}
	return provider.Identifier{"_id": reviveObjectID(id)}, nil
}

// UpdateRecord applies a $set update to every document matching the
// identifier. Both the identifier and the update set must be non-empty.
func (c *Connection) UpdateRecord(ctx context.Context, table string, id provider.Identifier, updates map[string]any) (provider.UpdateResult, error) {
	if len(id) == 0 {
		return provider.UpdateResult{}, provider.NewSafetyViolationError(provider.MongoDB, "update_record", "identifier filter is empty")
	}
	if len(updates) == 0 {
		return provider.UpdateResult{}, provider.NewSafetyViolationError(provider.MongoDB, "update_record", "update set is empty")
	}

	ctx, cancel := c.config.OperationContext(ctx)
	defer cancel()

	filter := buildUpdateFilter(id)
	set := bson.M{}
	for k, v := range updates {
		set[k] = v
	}

	result, err := c.db.Collection(table).UpdateMany(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return provider.UpdateResult{}, provider.WrapError(provider.MongoDB, "update_record",
			fmt.Errorf("error updating collection %s: %w", table, err))
	}
	return provider.UpdateResult{Success: true, AffectedCount: result.ModifiedCount}, nil
}

// ExportTable writes the collection (or the supplied records) to
// destination. CSV export flattens nested documents and unions the headers
// across the whole set.
func (c *Connection) ExportTable(ctx context.Context, table, destination string, records []provider.Record) (string, error) {
	if records == nil {
		var err error
		records, err = c.GetRecords(ctx, table, provider.FetchOptions{})
		if err != nil {
			return "", err
		}
	}
	if len(records) == 0 {
		return "", provider.NewDataShapeError(provider.MongoDB, "no data to export")
	}
	path, err := transfer.WriteFile(destination, records, transfer.WriteOptions{FlattenCSV: true})
	if err != nil {
		return "", provider.WrapError(provider.MongoDB, "export_table", err)
	}
	return path, nil
}

// ImportTable is not part of the MongoDB surface.
func (c *Connection) ImportTable(ctx context.Context, table, source string) (int64, error) {
	return 0, provider.NewUnsupportedError(provider.MongoDB, "import_table",
		"file import is not supported for MongoDB")
}

// documentsToRecords converts decoded documents into records, keeping the
// stored field order and the nested structure. Flattening happens only on
// the CSV export path.
func documentsToRecords(docs []bson.D) []provider.Record {
	records := make([]provider.Record, 0, len(docs))
	for _, doc := range docs {
		rec := provider.NewRecord()
		for _, e := range doc {
			rec.Set(e.Key, normalizeValue(e.Value))
		}
		records = append(records, rec)
	}
	return records
}

// reviveObjectID restores the native ObjectID for values that were lowered
// to hex for display. Filters built from fetched records must carry the
// stored BSON type or they match nothing.
func reviveObjectID(v any) any {
	if s, ok := v.(string); ok && len(s) == 24 {
		if oid, err := bson.ObjectIDFromHex(s); err == nil {
			return oid
		}
	}
	return v
}

// buildUpdateFilter converts an identifier into the update filter, reviving
// the _id type.
func buildUpdateFilter(id provider.Identifier) bson.M {
	filter := bson.M{}
	for k, v := range id {
		if k == "_id" {
			filter[k] = reviveObjectID(v)
			continue
		}
		filter[k] = v
	}
	return filter
}

// normalizeValue lowers driver types to plain Go values so the transfer
// and rendering layers never see bson internals.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case bson.ObjectID:
		return t.Hex()
	case bson.M:
		out := map[string]any{}
		for k, inner := range t {
			out[k] = normalizeValue(inner)
		}
		return out
	case bson.D:
		out := map[string]any{}
		for _, e := range t {
			out[e.Key] = normalizeValue(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(t))
		for i, inner := range t {
			out[i] = normalizeValue(inner)
		}
		return out
	default:
		return v
	}
}

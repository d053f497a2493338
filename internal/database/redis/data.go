package redis

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/polydb-io/polydb/internal/transfer"
	"github.com/polydb-io/polydb/pkg/provider"
)

// ListTables enumerates distinct key prefixes, the segment before the
// first colon. Keys with no colon group under the NoPrefix sentinel. The
// keyspace is walked with SCAN, never KEYS.
func (c *Connection) ListTables(ctx context.Context) ([]string, error) {
	ctx, cancel := c.config.OperationContext(ctx)
	defer cancel()

	prefixes := map[string]struct{}{}
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, "*", c.scanBatch()).Result()
		if err != nil {
			return nil, provider.WrapError(provider.Redis, "list_tables", err)
		}
		for _, key := range keys {
			prefixes[keyPrefix(key)] = struct{}{}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	tables := make([]string, 0, len(prefixes))
	for p := range prefixes {
		tables = append(tables, p)
	}
	sort.Strings(tables)
	return tables, nil
}

// GetRecords fetches the keys of one prefix as key/type/ttl/value rows.
// The full matching key set is collected first, sorted lexicographically,
// then the pagination window is sliced in memory; Redis has no server-side
// ordering for SCAN results.
func (c *Connection) GetRecords(ctx context.Context, table string, opts provider.FetchOptions) ([]provider.Record, error) {
	opts, empty := opts.Normalize()
	if empty {
		return []provider.Record{}, nil
	}

	ctx, cancel := c.config.OperationContext(ctx)
	defer cancel()

	keys, err := c.scanKeys(ctx, table)
	if err != nil {
		return nil, provider.WrapError(provider.Redis, "get_records", err)
	}

	sortKeys(keys, opts.Sort)
	keys = sliceWindow(keys, opts.Limit, opts.Offset)

	records := make([]provider.Record, 0, len(keys))
	for _, key := range keys {
		rec, err := c.describeKey(ctx, key)
		if err != nil {
			return nil, provider.WrapError(provider.Redis, "get_records", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// GetRecordCount counts the keys of one prefix.
func (c *Connection) GetRecordCount(ctx context.Context, table string) (int64, error) {
	ctx, cancel := c.config.OperationContext(ctx)
	defer cancel()

	keys, err := c.scanKeys(ctx, table)
	if err != nil {
		return 0, provider.WrapError(provider.Redis, "get_record_count", err)
	}
	return int64(len(keys)), nil
}

// ResolveIdentifier returns the key filter for a fetched row.
func (c *Connection) ResolveIdentifier(ctx context.Context, table string, record provider.Record) (provider.Identifier, error) {
	if record.Len() == 0 {
		return nil, provider.NewSafetyViolationError(provider.Redis, "resolve_identifier", "record is empty")
	}
	key, ok := record.Get("key")
	if !ok || key == nil {
		return nil, provider.NewDataShapeError(provider.Redis, "record has no key column")
	}
	return provider.Identifier{"key": key}, nil
}

// UpdateRecord overwrites the value of one string key. Structured types
// (hash, list, set, zset, stream) are read-only through this surface.
func (c *Connection) UpdateRecord(ctx context.Context, table string, id provider.Identifier, updates map[string]any) (provider.UpdateResult, error) {
	if len(id) == 0 {
		return provider.UpdateResult{}, provider.NewSafetyViolationError(provider.Redis, "update_record", "identifier filter is empty")
	}
	if len(updates) == 0 {
		return provider.UpdateResult{}, provider.NewSafetyViolationError(provider.Redis, "update_record", "update set is empty")
	}
	keyAny, ok := id["key"]
	if !ok {
		return provider.UpdateResult{}, provider.NewSafetyViolationError(provider.Redis, "update_record", "identifier must name a key")
	}
	key := fmt.Sprintf("%v", keyAny)

	value, ok := updates["value"]
	if !ok || len(updates) != 1 {
		return provider.UpdateResult{}, provider.NewUnsupportedError(provider.Redis, "update_record",
			"only the value column of a string key can be updated")
	}

	ctx, cancel := c.config.OperationContext(ctx)
	defer cancel()

	keyType, err := c.client.Type(ctx, key).Result()
	if err != nil {
		return provider.UpdateResult{}, provider.WrapError(provider.Redis, "update_record", err)
	}
	if keyType == "none" {
		return provider.UpdateResult{Success: true, AffectedCount: 0}, nil
	}
	if keyType != "string" {
		return provider.UpdateResult{}, provider.NewUnsupportedError(provider.Redis, "update_record",
			fmt.Sprintf("key %s holds a %s value, only string keys are writable", key, keyType))
	}

	// Preserve the remaining TTL across the overwrite.
	ttl, err := c.client.TTL(ctx, key).Result()
	if err != nil {
		return provider.UpdateResult{}, provider.WrapError(provider.Redis, "update_record", err)
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := c.client.Set(ctx, key, fmt.Sprintf("%v", value), ttl).Err(); err != nil {
		return provider.UpdateResult{}, provider.WrapError(provider.Redis, "update_record", err)
	}
	return provider.UpdateResult{Success: true, AffectedCount: 1}, nil
}

// ExportTable writes the prefix (or the supplied records) to destination.
func (c *Connection) ExportTable(ctx context.Context, table, destination string, records []provider.Record) (string, error) {
	if records == nil {
		var err error
		records, err = c.GetRecords(ctx, table, provider.FetchOptions{})
		if err != nil {
			return "", err
		}
	}
	if len(records) == 0 {
		return "", provider.NewDataShapeError(provider.Redis, "no data to export")
	}
	path, err := transfer.WriteFile(destination, records, transfer.WriteOptions{FlattenCSV: true})
	if err != nil {
		return "", provider.WrapError(provider.Redis, "export_table", err)
	}
	return path, nil
}

// ImportTable is not part of the Redis surface.
func (c *Connection) ImportTable(ctx context.Context, table, source string) (int64, error) {
	return 0, provider.NewUnsupportedError(provider.Redis, "import_table",
		"file import is not supported for Redis")
}

// scanKeys collects every key of one prefix via cursor iteration. SCAN may
// return the same key on more than one page of a full iteration, so pages
// are de-duplicated against a seen set.
func (c *Connection) scanKeys(ctx context.Context, table string) ([]string, error) {
	pattern := table + ":*"
	if table == provider.NoPrefix {
		pattern = "*"
	}

	keys := []string{}
	seen := map[string]struct{}{}
	var cursor uint64
	for {
		page, next, err := c.client.Scan(ctx, cursor, pattern, c.scanBatch()).Result()
		if err != nil {
			return nil, err
		}
		keys = appendPageKeys(keys, seen, page, table)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return keys, nil
}

// appendPageKeys merges one SCAN page into the key set, skipping keys
// already seen and keys outside the requested prefix group.
func appendPageKeys(keys []string, seen map[string]struct{}, page []string, table string) []string {
	for _, key := range page {
		if table == provider.NoPrefix && keyPrefix(key) != provider.NoPrefix {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	return keys
}

// describeKey builds the key/type/ttl/value row for one key.
func (c *Connection) describeKey(ctx context.Context, key string) (provider.Record, error) {
	keyType, err := c.client.Type(ctx, key).Result()
	if err != nil {
		return provider.Record{}, fmt.Errorf("error reading type of key %s: %w", key, err)
	}

	ttl, err := c.client.TTL(ctx, key).Result()
	if err != nil {
		return provider.Record{}, fmt.Errorf("error reading ttl of key %s: %w", key, err)
	}
	ttlSeconds := int64(-1)
	if ttl > 0 {
		ttlSeconds = int64(ttl / time.Second)
	}

	rec := provider.NewRecord()
	rec.Set("key", key)
	rec.Set("type", keyType)
	rec.Set("ttl", ttlSeconds)

	var value any
	switch keyType {
	case "string":
		value, err = c.client.Get(ctx, key).Result()
	case "list":
		var items []string
		items, err = c.client.LRange(ctx, key, 0, -1).Result()
		value = toAnySlice(items)
	case "set":
		var items []string
		items, err = c.client.SMembers(ctx, key).Result()
		value = toAnySlice(items)
	case "zset":
		var zs []goredis.Z
		zs, err = c.client.ZRangeWithScores(ctx, key, 0, -1).Result()
		if err == nil {
			scored := map[string]any{}
			for _, z := range zs {
				scored[fmt.Sprintf("%v", z.Member)] = z.Score
			}
			value = scored
		}
	case "hash":
		var fields map[string]string
		fields, err = c.client.HGetAll(ctx, key).Result()
		if err == nil {
			m := make(map[string]any, len(fields))
			for f, v := range fields {
				m[f] = v
			}
			value = m
		}
	case "stream":
		var entries []goredis.XMessage
		entries, err = c.client.XRange(ctx, key, "-", "+").Result()
		if err == nil {
			items := make([]any, 0, len(entries))
			for _, e := range entries {
				items = append(items, map[string]any{"id": e.ID, "values": e.Values})
			}
			value = items
		}
	default:
		value = nil
	}
	if err != nil && err != goredis.Nil {
		return provider.Record{}, fmt.Errorf("error reading value of key %s: %w", key, err)
	}
	rec.Set("value", value)
	return rec, nil
}

func toAnySlice(items []string) []any {
	out := make([]any, len(items))
	for i, s := range items {
		out[i] = s
	}
	return out
}

// keyPrefix returns the grouping prefix of a key.
func keyPrefix(key string) string {
	if i := strings.Index(key, ":"); i > 0 {
		return key[:i]
	}
	return provider.NoPrefix
}

// sortKeys orders the key list. Only the key column participates in
// ordering; rows are keyed data, not columnar data.
func sortKeys(keys []string, spec []provider.SortKey) {
	descending := false
	for _, s := range spec {
		if s.Column == "key" {
			descending = s.Direction == provider.Descending
			break
		}
	}
	sort.Strings(keys)
	if descending {
		for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
			keys[i], keys[j] = keys[j], keys[i]
		}
	}
}

// sliceWindow applies the pagination window in memory.
func sliceWindow(keys []string, limit *int64, offset int64) []string {
	if offset >= int64(len(keys)) {
		return []string{}
	}
	keys = keys[offset:]
	if limit != nil && *limit < int64(len(keys)) {
		keys = keys[:*limit]
	}
	return keys
}

// Package sqlcommon implements the provider operations on top of
// database/sql, parameterized by a Dialect. The sqlite, libsql and mysql
// adapters delegate here; postgres has its own pgx-based implementation.
package sqlcommon

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/polydb-io/polydb/internal/database/common"
	"github.com/polydb-io/polydb/pkg/provider"
)

// Dialect abstracts the per-engine differences the generic implementation
// needs: quoting style, placeholder style, and the catalog queries for table
// enumeration and primary-key discovery.
type Dialect interface {
	Engine() provider.Engine

	// QuoteIdentifier quotes a table or column name.
	QuoteIdentifier(name string) string

	// Placeholder returns the parameter marker for the n-th value,
	// 1-based ("?" for the SQLite family and MySQL).
	Placeholder(n int) string

	// ListTables enumerates the user tables of the connected database.
	ListTables(ctx context.Context, db *sql.DB) ([]string, error)

	// PrimaryKeyColumns returns the primary-key column set of a table in
	// key order, or an empty slice when the table has no primary key.
	PrimaryKeyColumns(ctx context.Context, db *sql.DB, table string) ([]string, error)

	// TableExists reports whether a table exists.
	TableExists(ctx context.Context, db *sql.DB, table string) (bool, error)
}

// FetchRecords pages through a table, honoring sort priority order and the
// limit/offset normalization contract.
func FetchRecords(ctx context.Context, db *sql.DB, d Dialect, table string, opts provider.FetchOptions) ([]provider.Record, error) {
	if table == "" {
		return nil, fmt.Errorf("table name cannot be empty")
	}
	opts, empty := opts.Normalize()
	if empty {
		return []provider.Record{}, nil
	}

	var q strings.Builder
	fmt.Fprintf(&q, "SELECT * FROM %s", d.QuoteIdentifier(table))
	if orderBy := common.BuildOrderBy(opts.Sort, d.QuoteIdentifier); orderBy != "" {
		q.WriteString(" " + orderBy)
	}
	if opts.Limit != nil {
		fmt.Fprintf(&q, " LIMIT %d", *opts.Limit)
		if opts.Offset > 0 {
			fmt.Fprintf(&q, " OFFSET %d", opts.Offset)
		}
	} else if opts.Offset > 0 {
		// LIMIT is mandatory before OFFSET in the SQLite family and
		// MySQL; -1 (sqlite) and the max-rows idiom (mysql) are not
		// portable, so emit a huge explicit limit.
		fmt.Fprintf(&q, " LIMIT %d OFFSET %d", int64(1)<<62, opts.Offset)
	}

	rows, err := db.QueryContext(ctx, q.String())
	if err != nil {
		return nil, fmt.Errorf("error querying table %s: %w", table, err)
	}
	defer rows.Close()

	return ScanRecords(rows, nil)
}

// CountRecords returns the full extent of a table.
func CountRecords(ctx context.Context, db *sql.DB, d Dialect, table string) (int64, error) {
	if table == "" {
		return 0, fmt.Errorf("table name cannot be empty")
	}
	var count int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", d.QuoteIdentifier(table))
	if err := db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting table %s: %w", table, err)
	}
	return count, nil
}

// RunQuery executes free-form SQL verbatim. Statements that produce no rows
// yield an empty record slice; qctx.Limit caps result collection.
func RunQuery(ctx context.Context, db *sql.DB, query string, qctx provider.QueryContext) ([]provider.Record, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return ScanRecords(rows, qctx.Limit)
}

// ResolveIdentifier derives the minimal filter that re-selects the record:
// the primary-key columns when the table has a primary key, every column of
// the record otherwise.
func ResolveIdentifier(ctx context.Context, db *sql.DB, d Dialect, table string, record provider.Record) (provider.Identifier, error) {
	if record.Len() == 0 {
		return nil, provider.NewSafetyViolationError(d.Engine(), "resolve_identifier", "record is empty")
	}

	pkCols, err := d.PrimaryKeyColumns(ctx, db, table)
	if err != nil {
		return nil, fmt.Errorf("error discovering primary key of %s: %w", table, err)
	}

	id := make(provider.Identifier)
	if len(pkCols) > 0 {
		for _, col := range pkCols {
			v, ok := record.Get(col)
			if !ok {
				return nil, fmt.Errorf("record is missing primary key column %q of table %s", col, table)
			}
			id[col] = v
		}
		return id, nil
	}

	// No primary key: fall back to every column/value pair. Best-effort
	// uniqueness, documented as a degraded mode.
	for _, col := range record.Columns {
		id[col] = record.Values[col]
	}
	return id, nil
}

// UpdateRecord applies a partial update scoped by the identifier. Both the
// identifier and the update set must be non-empty.
func UpdateRecord(ctx context.Context, db *sql.DB, d Dialect, table string, id provider.Identifier, updates map[string]any) (provider.UpdateResult, error) {
	if len(id) == 0 {
		return provider.UpdateResult{}, provider.NewSafetyViolationError(d.Engine(), "update_record", "identifier filter is empty")
	}
	if len(updates) == 0 {
		return provider.UpdateResult{}, provider.NewSafetyViolationError(d.Engine(), "update_record", "update set is empty")
	}

	setCols := sortedKeys(updates)
	whereCols := sortedKeys(id)

	var q strings.Builder
	args := make([]any, 0, len(setCols)+len(whereCols))
	fmt.Fprintf(&q, "UPDATE %s SET ", d.QuoteIdentifier(table))
	for i, col := range setCols {
		if i > 0 {
			q.WriteString(", ")
		}
		fmt.Fprintf(&q, "%s = %s", d.QuoteIdentifier(col), d.Placeholder(len(args)+1))
		args = append(args, updates[col])
	}
	q.WriteString(" WHERE ")
	for i, col := range whereCols {
		if i > 0 {
			q.WriteString(" AND ")
		}
		v := id[col]
		if v == nil {
			fmt.Fprintf(&q, "%s IS NULL", d.QuoteIdentifier(col))
			continue
		}
		fmt.Fprintf(&q, "%s = %s", d.QuoteIdentifier(col), d.Placeholder(len(args)+1))
		args = append(args, v)
	}

	result, err := db.ExecContext(ctx, q.String(), args...)
	if err != nil {
		return provider.UpdateResult{}, fmt.Errorf("error updating table %s: %w", table, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return provider.UpdateResult{}, err
	}
	return provider.UpdateResult{Success: true, AffectedCount: affected}, nil
}

// ImportRecords inserts records inside one transaction, creating the table
// with all-TEXT columns when it does not exist. Any failure aborts the whole
// batch.
func ImportRecords(ctx context.Context, db *sql.DB, d Dialect, table string, records []provider.Record) (int64, error) {
	if len(records) == 0 {
		return 0, provider.NewDataShapeError(d.Engine(), "no data to import")
	}

	exists, err := d.TableExists(ctx, db, table)
	if err != nil {
		return 0, fmt.Errorf("error checking table %s: %w", table, err)
	}

	columns := records[0].Columns

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if !exists {
		defs := make([]string, len(columns))
		for i, col := range columns {
			defs[i] = d.QuoteIdentifier(col) + " TEXT"
		}
		create := fmt.Sprintf("CREATE TABLE %s (%s)", d.QuoteIdentifier(table), strings.Join(defs, ", "))
		if _, err := tx.ExecContext(ctx, create); err != nil {
			return 0, fmt.Errorf("error creating table %s: %w", table, err)
		}
	}

	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = d.QuoteIdentifier(col)
		placeholders[i] = d.Placeholder(i + 1)
	}
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.QuoteIdentifier(table),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "))

	var inserted int64
	for _, rec := range records {
		values := make([]any, len(columns))
		for i, col := range columns {
			values[i] = bindableValue(rec.Values[col])
		}
		if _, err := tx.ExecContext(ctx, insert, values...); err != nil {
			return 0, fmt.Errorf("error inserting into %s: %w", table, err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// ScanRecords drains a result set into ordered records, stopping after limit
// rows when limit is non-nil.
func ScanRecords(rows *sql.Rows, limit *int64) ([]provider.Record, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("error reading result columns: %w", err)
	}

	records := []provider.Record{}
	for rows.Next() {
		if limit != nil && int64(len(records)) >= *limit {
			break
		}
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}

		rec := provider.NewRecord()
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				rec.Set(col, string(b))
				continue
			}
			rec.Set(col, values[i])
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// bindableValue turns values database/sql cannot bind (nested objects and
// arrays from JSON import sources) into their JSON text. Scalars pass
// through.
func bindableValue(v any) any {
	switch v.(type) {
	case map[string]any, []any:
		if text, err := json.Marshal(v); err == nil {
			return string(text)
		}
		return fmt.Sprintf("%v", v)
	case json.Number:
		return v.(json.Number).String()
	default:
		return v
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Deterministic statement text keeps logs and tests stable.
	sort.Strings(keys)
	return keys
}

package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/polydb-io/polydb/internal/database/common"
	"github.com/polydb-io/polydb/internal/transfer"
	"github.com/polydb-io/polydb/pkg/provider"
)

// ListTables enumerates the base tables of the public schema, sorted.
func (c *Connection) ListTables(ctx context.Context) ([]string, error) {
	ctx, cancel := c.config.OperationContext(ctx)
	defer cancel()

	rows, err := c.pool.Query(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE'`)
	if err != nil {
		return nil, provider.WrapError(provider.PostgreSQL, "list_tables", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, provider.WrapError(provider.PostgreSQL, "list_tables", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, provider.WrapError(provider.PostgreSQL, "list_tables", err)
	}
	sort.Strings(tables)
	return tables, nil
}

// GetRecords fetches a page of rows.
func (c *Connection) GetRecords(ctx context.Context, table string, opts provider.FetchOptions) ([]provider.Record, error) {
	opts, empty := opts.Normalize()
	if empty {
		return []provider.Record{}, nil
	}

	ctx, cancel := c.config.OperationContext(ctx)
	defer cancel()

	var q strings.Builder
	fmt.Fprintf(&q, "SELECT * FROM %s", common.QuoteIdentifier(table))
	if orderBy := common.BuildOrderBy(opts.Sort, common.QuoteIdentifier); orderBy != "" {
		q.WriteString(" ")
		q.WriteString(orderBy)
	}
	if opts.Limit != nil {
		fmt.Fprintf(&q, " LIMIT %d", *opts.Limit)
	}
	if opts.Offset > 0 {
		fmt.Fprintf(&q, " OFFSET %d", opts.Offset)
	}

	rows, err := c.pool.Query(ctx, q.String())
	if err != nil {
		return nil, provider.WrapError(provider.PostgreSQL, "get_records",
			fmt.Errorf("error querying table %s: %w", table, err))
	}
	defer rows.Close()

	records, err := scanRecords(rows, nil)
	if err != nil {
		return nil, provider.WrapError(provider.PostgreSQL, "get_records", err)
	}
	return records, nil
}

// GetRecordCount returns the full extent of the table.
func (c *Connection) GetRecordCount(ctx context.Context, table string) (int64, error) {
	ctx, cancel := c.config.OperationContext(ctx)
	defer cancel()

	var count int64
	err := c.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s", common.QuoteIdentifier(table))).Scan(&count)
	if err != nil {
		return 0, provider.WrapError(provider.PostgreSQL, "get_record_count",
			fmt.Errorf("error counting table %s: %w", table, err))
	}
	return count, nil
}

// RunQuery executes SQL text verbatim. Non-row-returning statements yield
// an empty result.
func (c *Connection) RunQuery(ctx context.Context, query string, qctx provider.QueryContext) ([]provider.Record, error) {
	ctx, cancel := c.config.OperationContext(ctx)
	defer cancel()

	rows, err := c.pool.Query(ctx, query)
	if err != nil {
		return nil, provider.WrapError(provider.PostgreSQL, "run_query", err)
	}
	defer rows.Close()

	records, err := scanRecords(rows, qctx.Limit)
	if err != nil {
		return nil, provider.WrapError(provider.PostgreSQL, "run_query", err)
	}
	return records, nil
}

// ResolveIdentifier derives the primary-key filter for a fetched record,
// falling back to every column when the table has no primary key.
func (c *Connection) ResolveIdentifier(ctx context.Context, table string, record provider.Record) (provider.Identifier, error) {
	if record.Len() == 0 {
		return nil, provider.NewSafetyViolationError(provider.PostgreSQL, "resolve_identifier", "record is empty")
	}

	ctx, cancel := c.config.OperationContext(ctx)
	defer cancel()

	pkCols, err := c.primaryKeyColumns(ctx, table)
	if err != nil {
		return nil, provider.WrapError(provider.PostgreSQL, "resolve_identifier", err)
	}

	id := make(provider.Identifier)
	if len(pkCols) > 0 {
		for _, col := range pkCols {
			v, ok := record.Get(col)
			if !ok {
				return nil, provider.WrapError(provider.PostgreSQL, "resolve_identifier",
					fmt.Errorf("record is missing primary key column %q of table %s", col, table))
			}
			id[col] = v
		}
		return id, nil
	}

	for _, col := range record.Columns {
		id[col] = record.Values[col]
	}
	return id, nil
}

// UpdateRecord applies a partial update scoped by the identifier. Both the
// identifier and the update set must be non-empty.
func (c *Connection) UpdateRecord(ctx context.Context, table string, id provider.Identifier, updates map[string]any) (provider.UpdateResult, error) {
	if len(id) == 0 {
		return provider.UpdateResult{}, provider.NewSafetyViolationError(provider.PostgreSQL, "update_record", "identifier filter is empty")
	}
	if len(updates) == 0 {
		return provider.UpdateResult{}, provider.NewSafetyViolationError(provider.PostgreSQL, "update_record", "update set is empty")
	}

	ctx, cancel := c.config.OperationContext(ctx)
	defer cancel()

	setCols := sortedKeys(updates)
	whereCols := sortedKeys(id)

	var q strings.Builder
	args := make([]any, 0, len(setCols)+len(whereCols))
	fmt.Fprintf(&q, "UPDATE %s SET ", common.QuoteIdentifier(table))
	for i, col := range setCols {
		if i > 0 {
			q.WriteString(", ")
		}
		args = append(args, updates[col])
		fmt.Fprintf(&q, "%s = $%d", common.QuoteIdentifier(col), len(args))
	}
	q.WriteString(" WHERE ")
	for i, col := range whereCols {
		if i > 0 {
			q.WriteString(" AND ")
		}
		v := id[col]
		if v == nil {
			fmt.Fprintf(&q, "%s IS NULL", common.QuoteIdentifier(col))
			continue
		}
		args = append(args, v)
		fmt.Fprintf(&q, "%s = $%d", common.QuoteIdentifier(col), len(args))
	}

	tag, err := c.pool.Exec(ctx, q.String(), args...)
	if err != nil {
		return provider.UpdateResult{}, provider.WrapError(provider.PostgreSQL, "update_record",
			fmt.Errorf("error updating table %s: %w", table, err))
	}
	return provider.UpdateResult{Success: true, AffectedCount: tag.RowsAffected()}, nil
}

// ExportTable writes the table (or the supplied records) to destination.
func (c *Connection) ExportTable(ctx context.Context, table, destination string, records []provider.Record) (string, error) {
	if records == nil {
		opCtx, cancel := c.config.OperationContext(ctx)
		exists, err := c.tableExists(opCtx, table)
		cancel()
		if err != nil {
			return "", provider.WrapError(provider.PostgreSQL, "export_table", err)
		}
		if !exists {
			return "", provider.WrapError(provider.PostgreSQL, "export_table",
				fmt.Errorf("%w: %s", provider.ErrTableNotFound, table))
		}
		records, err = c.GetRecords(ctx, table, provider.FetchOptions{})
		if err != nil {
			return "", err
		}
	}
	if len(records) == 0 {
		return "", provider.NewDataShapeError(provider.PostgreSQL, "no data to export")
	}
	path, err := transfer.WriteFile(destination, records, transfer.WriteOptions{})
	if err != nil {
		return "", provider.WrapError(provider.PostgreSQL, "export_table", err)
	}
	return path, nil
}

// ImportTable loads a CSV or JSON file into the table inside one
// transaction, creating the table with all-TEXT columns when missing.
func (c *Connection) ImportTable(ctx context.Context, table, source string) (int64, error) {
	records, _, err := transfer.ReadFile(source)
	if err != nil {
		return 0, provider.WrapError(provider.PostgreSQL, "import_table", err)
	}
	if len(records) == 0 {
		return 0, provider.NewDataShapeError(provider.PostgreSQL, "no data to import")
	}

	ctx, cancel := c.config.OperationContext(ctx)
	defer cancel()

	exists, err := c.tableExists(ctx, table)
	if err != nil {
		return 0, provider.WrapError(provider.PostgreSQL, "import_table", err)
	}

	columns := records[0].Columns

	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return 0, provider.WrapError(provider.PostgreSQL, "import_table", err)
	}
	defer tx.Rollback(ctx)

	if !exists {
		defs := make([]string, len(columns))
		for i, col := range columns {
			defs[i] = fmt.Sprintf("%s TEXT", common.QuoteIdentifier(col))
		}
		ddl := fmt.Sprintf("CREATE TABLE %s (%s)", common.QuoteIdentifier(table), strings.Join(defs, ", "))
		if _, err := tx.Exec(ctx, ddl); err != nil {
			return 0, provider.WrapError(provider.PostgreSQL, "import_table",
				fmt.Errorf("error creating table %s: %w", table, err))
		}
	}

	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = common.QuoteIdentifier(col)
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		common.QuoteIdentifier(table), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))

	var inserted int64
	for _, rec := range records {
		args := make([]any, len(columns))
		for i, col := range columns {
			args[i] = bindableValue(rec.Values[col])
		}
		if _, err := tx.Exec(ctx, insert, args...); err != nil {
			return 0, provider.WrapError(provider.PostgreSQL, "import_table",
				fmt.Errorf("error inserting into table %s: %w", table, err))
		}
		inserted++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, provider.WrapError(provider.PostgreSQL, "import_table", err)
	}
	return inserted, nil
}

func (c *Connection) primaryKeyColumns(ctx context.Context, table string) ([]string, error) {
	rows, err := c.pool.Query(ctx, `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		 AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
		  AND tc.table_schema = 'public'
		  AND tc.table_name = $1
		ORDER BY kcu.ordinal_position`, table)
	if err != nil {
		return nil, fmt.Errorf("error discovering primary key of %s: %w", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		columns = append(columns, name)
	}
	return columns, rows.Err()
}

func (c *Connection) tableExists(ctx context.Context, table string) (bool, error) {
	var count int
	err := c.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM information_schema.tables
		WHERE table_schema = 'public' AND table_name = $1`, table).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("error checking table %s: %w", table, err)
	}
	return count > 0, nil
}

// scanRecords drains pgx rows into records, preserving wire column order.
// A non-nil limit caps the scan.
func scanRecords(rows pgx.Rows, limit *int64) ([]provider.Record, error) {
	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}

	records := []provider.Record{}
	for rows.Next() {
		if limit != nil && int64(len(records)) >= *limit {
			break
		}
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("error reading row values: %w", err)
		}
		rec := provider.NewRecord()
		for i, col := range columns {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			rec.Set(col, v)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// bindableValue lowers values decoded from import files to types the
// driver can bind. Nested structures travel as JSON text.
func bindableValue(v any) any {
	switch t := v.(type) {
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	case json.Number:
		return t.String()
	default:
		return v
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package sqlcommon

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"

	"github.com/polydb-io/polydb/internal/transfer"
	"github.com/polydb-io/polydb/pkg/provider"
)

// Connection implements provider.Connection for database/sql engines. The
// sqlite, libsql and mysql adapters construct one with their dialect; the
// behavioral differences live entirely in the Dialect.
type Connection struct {
	db        *sql.DB
	dialect   Dialect
	config    provider.Config
	connected int32
}

// NewConnection wraps an opened *sql.DB.
func NewConnection(db *sql.DB, d Dialect, cfg provider.Config) *Connection {
	return &Connection{db: db, dialect: d, config: cfg, connected: 1}
}

// Engine returns the engine this connection talks to.
func (c *Connection) Engine() provider.Engine {
	return c.dialect.Engine()
}

// Ping checks that the connection is alive.
func (c *Connection) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close releases the connection. Safe to call more than once.
func (c *Connection) Close(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&c.connected, 1, 0) {
		return nil
	}
	return c.db.Close()
}

// Raw returns the underlying *sql.DB.
func (c *Connection) Raw() any {
	return c.db
}

// ListTables enumerates the user tables, sorted.
func (c *Connection) ListTables(ctx context.Context) ([]string, error) {
	ctx, cancel := c.config.OperationContext(ctx)
	defer cancel()
	tables, err := c.dialect.ListTables(ctx, c.db)
	if err != nil {
		return nil, provider.WrapError(c.Engine(), "list_tables", err)
	}
	return tables, nil
}

// GetRecords fetches a page of rows.
func (c *Connection) GetRecords(ctx context.Context, table string, opts provider.FetchOptions) ([]provider.Record, error) {
	ctx, cancel := c.config.OperationContext(ctx)
	defer cancel()
	records, err := FetchRecords(ctx, c.db, c.dialect, table, opts)
	if err != nil {
		return nil, provider.WrapError(c.Engine(), "get_records", err)
	}
	return records, nil
}

// GetRecordCount returns the full extent of the table.
func (c *Connection) GetRecordCount(ctx context.Context, table string) (int64, error) {
	ctx, cancel := c.config.OperationContext(ctx)
	defer cancel()
	count, err := CountRecords(ctx, c.db, c.dialect, table)
	if err != nil {
		return 0, provider.WrapError(c.Engine(), "get_record_count", err)
	}
	return count, nil
}

// RunQuery executes SQL text verbatim.
func (c *Connection) RunQuery(ctx context.Context, query string, qctx provider.QueryContext) ([]provider.Record, error) {
	ctx, cancel := c.config.OperationContext(ctx)
	defer cancel()
	records, err := RunQuery(ctx, c.db, query, qctx)
	if err != nil {
		return nil, provider.WrapError(c.Engine(), "run_query", err)
	}
	return records, nil
}

// ResolveIdentifier derives the primary-key filter for a fetched record.
func (c *Connection) ResolveIdentifier(ctx context.Context, table string, record provider.Record) (provider.Identifier, error) {
	ctx, cancel := c.config.OperationContext(ctx)
	defer cancel()
	id, err := ResolveIdentifier(ctx, c.db, c.dialect, table, record)
	if err != nil {
		return nil, provider.WrapError(c.Engine(), "resolve_identifier", err)
	}
	return id, nil
}

// UpdateRecord applies a partial update scoped by the identifier.
func (c *Connection) UpdateRecord(ctx context.Context, table string, id provider.Identifier, updates map[string]any) (provider.UpdateResult, error) {
	ctx, cancel := c.config.OperationContext(ctx)
	defer cancel()
	result, err := UpdateRecord(ctx, c.db, c.dialect, table, id, updates)
	if err != nil {
		return provider.UpdateResult{}, provider.WrapError(c.Engine(), "update_record", err)
	}
	return result, nil
}

// ExportTable writes the table (or the supplied records) to destination.
func (c *Connection) ExportTable(ctx context.Context, table, destination string, records []provider.Record) (string, error) {
	if records == nil {
		opCtx, cancel := c.config.OperationContext(ctx)
		exists, err := c.dialect.TableExists(opCtx, c.db, table)
		cancel()
		if err != nil {
			return "", provider.WrapError(c.Engine(), "export_table", err)
		}
		if !exists {
			return "", provider.WrapError(c.Engine(), "export_table",
				fmt.Errorf("%w: %s", provider.ErrTableNotFound, table))
		}
		records, err = c.GetRecords(ctx, table, provider.FetchOptions{})
		if err != nil {
			return "", err
		}
	}
	if len(records) == 0 {
		return "", provider.NewDataShapeError(c.Engine(), "no data to export")
	}
	path, err := transfer.WriteFile(destination, records, transfer.WriteOptions{})
	if err != nil {
		return "", provider.WrapError(c.Engine(), "export_table", err)
	}
	return path, nil
}

// ImportTable loads a CSV or JSON file into the table inside one
// transaction.
func (c *Connection) ImportTable(ctx context.Context, table, source string) (int64, error) {
	records, _, err := transfer.ReadFile(source)
	if err != nil {
		return 0, provider.WrapError(c.Engine(), "import_table", err)
	}
	ctx, cancel := c.config.OperationContext(ctx)
	defer cancel()
	inserted, err := ImportRecords(ctx, c.db, c.dialect, table, records)
	if err != nil {
		return 0, provider.WrapError(c.Engine(), "import_table", err)
	}
	return inserted, nil
}

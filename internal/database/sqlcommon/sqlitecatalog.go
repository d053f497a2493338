package sqlcommon

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/polydb-io/polydb/internal/database/common"
)

// SQLiteCatalog supplies the catalog half of a Dialect for engines that
// speak the SQLite dialect, local files and remote sqld servers alike.
// Embedders add Engine().
type SQLiteCatalog struct{}

func (SQLiteCatalog) QuoteIdentifier(name string) string {
	return common.QuoteIdentifier(name)
}

func (SQLiteCatalog) Placeholder(n int) string {
	return "?"
}

// ListTables enumerates user tables from sqlite_master, skipping the
// sqlite_ internal tables.
func (SQLiteCatalog) ListTables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'")
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Strings(tables)
	return tables, nil
}

// PrimaryKeyColumns reads the table_info pragma and returns the primary
// key columns in key order. An empty slice means the table has no
// declared primary key.
func (SQLiteCatalog) PrimaryKeyColumns(ctx context.Context, db *sql.DB, table string) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		fmt.Sprintf("PRAGMA table_info(%s)", common.QuoteIdentifier(table)))
	if err != nil {
		return nil, fmt.Errorf("failed to read table info for %s: %w", table, err)
	}
	defer rows.Close()

	type pkCol struct {
		name string
		rank int
	}
	var pks []pkCol
	for rows.Next() {
		var (
			cid        int
			name       string
			typ        string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column info: %w", err)
		}
		if pk > 0 {
			pks = append(pks, pkCol{name: name, rank: pk})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(pks, func(i, j int) bool { return pks[i].rank < pks[j].rank })
	columns := make([]string, len(pks))
	for i, c := range pks {
		columns[i] = c.name
	}
	return columns, nil
}

func (SQLiteCatalog) TableExists(ctx context.Context, db *sql.DB, table string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check table existence: %w", err)
	}
	return count > 0, nil
}

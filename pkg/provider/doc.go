// Package provider defines the unified database provider contract.
//
// A provider gives one polymorphic surface for browsing, querying, editing,
// importing and exporting data across structurally different engines:
// relational databases (SQLite, LibSQL, PostgreSQL, MySQL), document stores
// (MongoDB) and key/value stores (Redis). Each engine implements the same
// Connection interface, normalizing rows, documents and key/value pairs into
// a uniform tabular shape.
//
// # Usage
//
// Adapters self-register with the global registry from their package init,
// so importing an engine package is enough to make it available:
//
//	import (
//	    "github.com/polydb-io/polydb/pkg/provider"
//	    _ "github.com/polydb-io/polydb/internal/database/sqlite"
//	)
//
//	conn, err := provider.Open(ctx, "sqlite", provider.Config{DSN: "/tmp/app.db"})
//	if err != nil {
//	    return err
//	}
//	defer conn.Close(ctx)
//
//	records, err := conn.GetRecords(ctx, "users", provider.FetchOptions{
//	    Limit:  provider.Limit(50),
//	    Offset: 100,
//	    Sort:   []provider.SortKey{{Column: "id"}},
//	})
//
// Connections are scoped resources: acquire one per logical operation and
// close it on every exit path. WithConnection wraps that discipline:
//
//	err := provider.WithConnection(ctx, "redis", cfg, func(conn provider.Connection) error {
//	    tables, err := conn.ListTables(ctx)
//	    ...
//	})
package provider

// Package sqlite implements the unified provider contract for SQLite
// database files using the pure-Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/polydb-io/polydb/internal/database/sqlcommon"
	"github.com/polydb-io/polydb/pkg/provider"

	_ "modernc.org/sqlite"
)

// Adapter implements provider.Adapter for SQLite.
type Adapter struct{}

// NewAdapter creates a new SQLite adapter.
func NewAdapter() provider.Adapter {
	return &Adapter{}
}

// Type returns the engine identifier.
func (a *Adapter) Type() provider.Engine {
	return provider.SQLite
}

// Capabilities returns the capability metadata for SQLite.
func (a *Adapter) Capabilities() provider.Capability {
	return provider.MustGet(provider.SQLite)
}

// Connect opens the database file named by the DSN. The descriptor is a
// filesystem path; "file:" URIs pass through to the driver untouched.
func (a *Adapter) Connect(ctx context.Context, config provider.Config) (provider.Connection, error) {
	if config.DSN == "" {
		return nil, provider.NewConnectionError(provider.SQLite, fmt.Errorf("database path is empty"))
	}

	db, err := sql.Open("sqlite", config.DSN)
	if err != nil {
		return nil, provider.NewConnectionError(provider.SQLite, err)
	}

	dialCtx, cancel := config.DialContext(ctx)
	defer cancel()
	if err := db.PingContext(dialCtx); err != nil {
		db.Close()
		return nil, provider.NewConnectionError(provider.SQLite, err)
	}

	return sqlcommon.NewConnection(db, &dialect{}, config), nil
}

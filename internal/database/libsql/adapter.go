// Package libsql implements the unified provider contract for LibSQL
// servers (sqld, Turso) over the libsql client driver. The engine speaks
// the SQLite dialect, so catalog queries are shared with the sqlite
// package semantics.
package libsql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/polydb-io/polydb/internal/database/sqlcommon"
	"github.com/polydb-io/polydb/pkg/provider"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

// Adapter implements provider.Adapter for LibSQL.
type Adapter struct{}

// NewAdapter creates a new LibSQL adapter.
func NewAdapter() provider.Adapter {
	return &Adapter{}
}

// Type returns the engine identifier.
func (a *Adapter) Type() provider.Engine {
	return provider.LibSQL
}

// Capabilities returns the capability metadata for LibSQL.
func (a *Adapter) Capabilities() provider.Capability {
	return provider.MustGet(provider.LibSQL)
}

// Connect dials the server named by the DSN. The descriptor is a URL in
// one of the schemes the driver accepts (libsql://, http://, https://,
// ws://, wss://).
func (a *Adapter) Connect(ctx context.Context, config provider.Config) (provider.Connection, error) {
	if config.DSN == "" {
		return nil, provider.NewConnectionError(provider.LibSQL, fmt.Errorf("server URL is empty"))
	}
	if !strings.Contains(config.DSN, "://") {
		return nil, provider.NewConnectionError(provider.LibSQL,
			fmt.Errorf("descriptor %q is not a URL; expected libsql://, http(s):// or ws(s)://", config.DSN))
	}

	db, err := sql.Open("libsql", config.DSN)
	if err != nil {
		return nil, provider.NewConnectionError(provider.LibSQL, err)
	}

	dialCtx, cancel := config.DialContext(ctx)
	defer cancel()
	if err := db.PingContext(dialCtx); err != nil {
		db.Close()
		return nil, provider.NewConnectionError(provider.LibSQL, err)
	}

	return sqlcommon.NewConnection(db, &dialect{}, config), nil
}

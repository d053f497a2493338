// Package mysql implements the unified provider contract for MySQL and
// MariaDB servers.
package mysql

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"github.com/polydb-io/polydb/internal/database/sqlcommon"
	"github.com/polydb-io/polydb/pkg/provider"
)

// Adapter implements provider.Adapter for MySQL.
type Adapter struct{}

// NewAdapter creates a new MySQL adapter.
func NewAdapter() provider.Adapter {
	return &Adapter{}
}

// Type returns the engine identifier.
func (a *Adapter) Type() provider.Engine {
	return provider.MySQL
}

// Capabilities returns the capability metadata for MySQL.
func (a *Adapter) Capabilities() provider.Capability {
	return provider.MustGet(provider.MySQL)
}

// Connect dials the server. The DSN follows the go-sql-driver format,
// for example "user:pass@tcp(localhost:3306)/appdb".
func (a *Adapter) Connect(ctx context.Context, config provider.Config) (provider.Connection, error) {
	if config.DSN == "" {
		return nil, provider.NewConnectionError(provider.MySQL, fmt.Errorf("connection string is empty"))
	}

	db, err := sql.Open("mysql", config.DSN)
	if err != nil {
		return nil, provider.NewConnectionError(provider.MySQL, err)
	}

	dialCtx, cancel := config.DialContext(ctx)
	defer cancel()
	if err := db.PingContext(dialCtx); err != nil {
		db.Close()
		return nil, provider.NewConnectionError(provider.MySQL, err)
	}

	return sqlcommon.NewConnection(db, &dialect{}, config), nil
}

package libsql

import (
	"github.com/polydb-io/polydb/internal/database/sqlcommon"
	"github.com/polydb-io/polydb/pkg/provider"
)

// dialect speaks the SQLite catalog dialect against a remote sqld server.
type dialect struct {
	sqlcommon.SQLiteCatalog
}

func (d *dialect) Engine() provider.Engine {
	return provider.LibSQL
}

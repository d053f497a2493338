package sqlite

import (
	"github.com/polydb-io/polydb/internal/database/sqlcommon"
	"github.com/polydb-io/polydb/pkg/provider"
)

type dialect struct {
	sqlcommon.SQLiteCatalog
}

func (d *dialect) Engine() provider.Engine {
	return provider.SQLite
}

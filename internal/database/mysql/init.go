package mysql

import "github.com/polydb-io/polydb/pkg/provider"

func init() {
	provider.Register(NewAdapter())
}

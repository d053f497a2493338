// Package common holds helpers shared by the engine adapters: identifier
// quoting, ORDER BY assembly and value stringification.
package common

import (
	"fmt"
	"strings"

	"github.com/polydb-io/polydb/pkg/provider"
)

// QuoteIdentifier quotes an identifier in the double-quote style used by
// PostgreSQL and the SQLite family, doubling internal quotes. Identifiers
// are never parameterizable, so this is the injection guard for table and
// column names.
func QuoteIdentifier(name string) string {
	name = strings.ReplaceAll(name, `"`, `""`)
	return `"` + name + `"`
}

// BuildOrderBy renders a sort specification as an ORDER BY clause body,
// quoting each column with the dialect's quote function. Returns "" for an
// empty specification.
func BuildOrderBy(sort []provider.SortKey, quote func(string) string) string {
	if len(sort) == 0 {
		return ""
	}
	parts := make([]string, len(sort))
	for i, key := range sort {
		dir := "ASC"
		if key.Desc() {
			dir = "DESC"
		}
		parts[i] = quote(key.Column) + " " + dir
	}
	return "ORDER BY " + strings.Join(parts, ", ")
}

// ValueToString renders a cell value for textual output. nil renders as the
// empty string; everything else uses its default formatting.
func ValueToString(v any) string {
	if v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

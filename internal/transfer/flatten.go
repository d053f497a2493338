package transfer

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/polydb-io/polydb/pkg/provider"
)

// Flatten rewrites a nested record into dotted-path leaf columns:
// {"addr": {"city": "Oslo"}} becomes {"addr.city": "Oslo"}. Arrays are kept
// as single leaf values serialized to JSON text rather than exploded into
// columns. Scalar fields pass through unchanged.
func Flatten(rec provider.Record) provider.Record {
	out := provider.NewRecord()
	for _, col := range rec.Columns {
		flattenValue(&out, col, rec.Values[col])
	}
	return out
}

// FlattenAll flattens every record in a slice.
func FlattenAll(records []provider.Record) []provider.Record {
	out := make([]provider.Record, len(records))
	for i, rec := range records {
		out[i] = Flatten(rec)
	}
	return out
}

func flattenValue(out *provider.Record, path string, v any) {
	switch nested := v.(type) {
	case map[string]any:
		// Map iteration order is random; sort for stable column order.
		keys := make([]string, 0, len(nested))
		for k := range nested {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			flattenValue(out, path+"."+k, nested[k])
		}
	case provider.Record:
		for _, k := range nested.Columns {
			flattenValue(out, path+"."+k, nested.Values[k])
		}
	case []any:
		text, err := json.Marshal(nested)
		if err != nil {
			out.Set(path, fmt.Sprintf("%v", nested))
			return
		}
		out.Set(path, string(text))
	default:
		out.Set(path, v)
	}
}

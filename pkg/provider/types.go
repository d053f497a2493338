package provider

// Record is an ordered mapping from column/field name to value. Column order
// is preserved from the engine (relational column order, document field
// order) because it drives CSV headers and table rendering. Field sets may
// differ between records of the same table for document and key/value
// engines.
type Record struct {
	Columns []string
	Values  map[string]any
}

// NewRecord returns an empty record.
func NewRecord() Record {
	return Record{Values: make(map[string]any)}
}

// Set assigns a value, appending the column to the order on first use.
func (r *Record) Set(column string, value any) {
	if r.Values == nil {
		r.Values = make(map[string]any)
	}
	if _, exists := r.Values[column]; !exists {
		r.Columns = append(r.Columns, column)
	}
	r.Values[column] = value
}

// Get returns the value for a column and whether the column is present.
func (r Record) Get(column string) (any, bool) {
	v, ok := r.Values[column]
	return v, ok
}

// Len returns the number of fields in the record.
func (r Record) Len() int {
	return len(r.Columns)
}

// Clone returns a deep-enough copy: column order and the value map are
// copied, values themselves are shared.
func (r Record) Clone() Record {
	out := Record{
		Columns: make([]string, len(r.Columns)),
		Values:  make(map[string]any, len(r.Values)),
	}
	copy(out.Columns, r.Columns)
	for k, v := range r.Values {
		out.Values[k] = v
	}
	return out
}

// Direction is a sort direction.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// SortKey is one (column, direction) pair of a sort specification. The order
// of SortKeys in a slice is the sort priority: the first entry is the primary
// comparison, later entries break ties.
type SortKey struct {
	Column    string    `json:"column"`
	Direction Direction `json:"direction"`
}

// Desc reports whether the key sorts descending. Any value other than
// Descending sorts ascending.
func (s SortKey) Desc() bool {
	return s.Direction == Descending
}

// FetchOptions controls pagination and ordering for GetRecords.
type FetchOptions struct {
	// Limit bounds the page size. nil fetches the full extent. A value
	// of zero or less yields an empty result without touching the engine.
	Limit *int64

	// Offset skips rows before the page. Negative values clamp to zero.
	Offset int64

	// Sort is honored exactly in priority order when non-empty. When
	// empty, ordering is the engine default and is not stable across
	// calls.
	Sort []SortKey
}

// Limit is a convenience constructor for FetchOptions.Limit.
func Limit(n int64) *int64 {
	return &n
}

// Normalize clamps the options to their defaults and reports whether the
// fetch short-circuits to an empty result (limit normalized to zero or
// less).
func (o FetchOptions) Normalize() (normalized FetchOptions, empty bool) {
	if o.Offset < 0 {
		o.Offset = 0
	}
	if o.Limit != nil && *o.Limit <= 0 {
		return o, true
	}
	return o, false
}

// QueryContext carries the out-of-band inputs a native query needs.
type QueryContext struct {
	// TableName is required for engines whose query syntax does not embed
	// a target name (bare MongoDB filter literals).
	TableName string

	// Limit bounds the result size when the engine would otherwise return
	// unbounded rows. nil means unbounded.
	Limit *int64
}

// Identifier is a field→required-equal-value mapping that scopes a mutation
// to one record. It must never be empty; UpdateRecord enforces that.
type Identifier map[string]any

// UpdateResult reports the outcome of an UpdateRecord call. AffectedCount is
// the engine's reported modified count, not merely attempted.
type UpdateResult struct {
	Success       bool  `json:"success"`
	AffectedCount int64 `json:"affectedCount"`
}

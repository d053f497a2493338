package provider

import "context"

// Adapter represents one database engine. Each engine (PostgreSQL, MongoDB,
// Redis, ...) implements this interface and registers itself with the
// registry.
type Adapter interface {
	// Type returns the canonical engine identifier.
	Type() Engine

	// Capabilities returns the capability metadata for this engine.
	Capabilities() Capability

	// Connect opens a connection described by the config. The returned
	// connection is exclusively owned by the caller and must be closed on
	// every exit path.
	Connect(ctx context.Context, config Config) (Connection, error)
}

// Connection is an active connection to one database. All operations share
// engine-agnostic semantics; the engine-specific translation (SQL LIMIT vs.
// cursor skip/limit vs. SCAN slicing) happens behind this interface.
type Connection interface {
	// Engine returns the engine this connection talks to.
	Engine() Engine

	// Ping checks that the connection is alive.
	Ping(ctx context.Context) error

	// Close releases the connection. Safe to call more than once.
	Close(ctx context.Context) error

	// ListTables enumerates queryable groupings: table names, collection
	// names, or distinct key prefixes (plus the NoPrefix sentinel),
	// returned sorted.
	ListTables(ctx context.Context) ([]string, error)

	// GetRecords fetches a page of records. A nil limit fetches the full
	// extent; a normalized limit of zero or less returns an empty slice
	// without an engine round trip. The sort specification is honored in
	// priority order.
	GetRecords(ctx context.Context, table string, opts FetchOptions) ([]Record, error)

	// GetRecordCount returns the full extent of the table, independent of
	// any pagination window.
	GetRecordCount(ctx context.Context, table string) (int64, error)

	// RunQuery executes free-form query text in the engine's native
	// syntax. The text is privileged: it may contain any statement the
	// engine accepts, including destructive ones.
	RunQuery(ctx context.Context, query string, qctx QueryContext) ([]Record, error)

	// ResolveIdentifier derives the minimal non-empty filter that
	// re-selects the given record: primary-key columns for relational
	// engines (all columns when the table has no primary key), _id for
	// documents, key for key/value pairs.
	ResolveIdentifier(ctx context.Context, table string, record Record) (Identifier, error)

	// UpdateRecord applies a partial update to exactly the records
	// matching the identifier. Both the identifier and the update set
	// must be non-empty; violations fail with ErrSafetyViolation before
	// any engine round trip.
	UpdateRecord(ctx context.Context, table string, id Identifier, updates map[string]any) (UpdateResult, error)

	// ExportTable writes the table to destination as CSV or JSON (chosen
	// by extension) and returns the written path. When records is
	// non-nil it is exported as-is instead of re-fetching.
	ExportTable(ctx context.Context, table string, destination string, records []Record) (string, error)

	// ImportTable loads records from a CSV or JSON file and returns the
	// number inserted. Engines without import support fail with
	// ErrUnsupportedFeature.
	ImportTable(ctx context.Context, table string, source string) (int64, error)

	// Raw returns the underlying native client for operations the
	// contract does not cover. Type assertion is required.
	Raw() any
}

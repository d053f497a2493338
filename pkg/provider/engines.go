package provider

import "strings"

// Engine is the canonical identifier for a database engine supported by polydb.
type Engine string

const (
	SQLite     Engine = "sqlite"
	LibSQL     Engine = "libsql"
	PostgreSQL Engine = "postgres"
	MySQL      Engine = "mysql"
	MongoDB    Engine = "mongodb"
	Redis      Engine = "redis"
)

// DataModel enumerates the structural paradigm an engine stores data in.
type DataModel string

const (
	ModelRelational DataModel = "relational" // tables, rows, SQL
	ModelDocument   DataModel = "document"   // collections, documents
	ModelKeyValue   DataModel = "keyvalue"   // flat keyspace
)

// NoPrefix is the reserved table reference for Redis keys that contain no
// prefix delimiter. It is returned by ListTables and accepted by every
// record-level operation on the Redis adapter.
const NoPrefix = "__no_prefix__"

// Capability describes what a given engine supports so callers can adjust
// behavior without type-switching on the adapter.
type Capability struct {
	// Human-friendly product name, e.g. "PostgreSQL".
	Name string `json:"name"`

	// Canonical ID (see Engine constants).
	ID Engine `json:"id"`

	// Primary data model.
	Model DataModel `json:"model"`

	// Whether the engine speaks SQL; runQuery text is executed verbatim
	// when true.
	SupportsSQL bool `json:"supportsSQL"`

	// Whether bulk import is supported. Document and key/value engines
	// refuse import rather than attempting a lossy emulation.
	SupportsImport bool `json:"supportsImport"`

	// Whether sorting happens inside the engine. Redis sorts an
	// in-memory key list instead.
	ServerSideSort bool `json:"serverSideSort"`

	// Common aliases (driver names, env labels) that map to this engine.
	Aliases []string `json:"aliases,omitempty"`
}

// All is the capability registry keyed by canonical engine ID.
var All = map[Engine]Capability{
	SQLite: {
		Name:           "SQLite",
		ID:             SQLite,
		Model:          ModelRelational,
		SupportsSQL:    true,
		SupportsImport: true,
		ServerSideSort: true,
		Aliases:        []string{"sqlite3"},
	},
	LibSQL: {
		Name:           "LibSQL",
		ID:             LibSQL,
		Model:          ModelRelational,
		SupportsSQL:    true,
		SupportsImport: true,
		ServerSideSort: true,
		Aliases:        []string{"turso", "sqld"},
	},
	PostgreSQL: {
		Name:           "PostgreSQL",
		ID:             PostgreSQL,
		Model:          ModelRelational,
		SupportsSQL:    true,
		SupportsImport: true,
		ServerSideSort: true,
		Aliases:        []string{"postgresql", "pg", "pgsql"},
	},
	MySQL: {
		Name:           "MySQL",
		ID:             MySQL,
		Model:          ModelRelational,
		SupportsSQL:    true,
		SupportsImport: true,
		ServerSideSort: true,
		Aliases:        []string{"mariadb"},
	},
	MongoDB: {
		Name:           "MongoDB",
		ID:             MongoDB,
		Model:          ModelDocument,
		SupportsSQL:    false,
		SupportsImport: false,
		ServerSideSort: true,
		Aliases:        []string{"mongo"},
	},
	Redis: {
		Name:           "Redis",
		ID:             Redis,
		Model:          ModelKeyValue,
		SupportsSQL:    false,
		SupportsImport: false,
		ServerSideSort: false,
		Aliases:        []string{"valkey"},
	},
}

// ParseEngine resolves a name or alias (case-insensitive) to a canonical
// engine ID.
func ParseEngine(name string) (Engine, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if _, ok := All[Engine(n)]; ok {
		return Engine(n), true
	}
	for id, cap := range All {
		for _, alias := range cap.Aliases {
			if n == alias {
				return id, true
			}
		}
	}
	return "", false
}

// Get returns the capability entry for an engine.
func Get(id Engine) (Capability, bool) {
	cap, ok := All[id]
	return cap, ok
}

// MustGet returns the capability entry for an engine and panics when the
// engine is unknown. Use only with the package constants.
func MustGet(id Engine) Capability {
	cap, ok := All[id]
	if !ok {
		panic("provider: unknown engine: " + string(id))
	}
	return cap
}

package provider

import (
	"context"
	"time"
)

// Config carries everything an adapter needs to open a connection. The DSN
// is opaque to the core: a filesystem path for SQLite, a URL for everything
// else. Adapters parse only what their native client requires.
type Config struct {
	// DSN is the engine-specific connection descriptor.
	DSN string `json:"dsn"`

	// ConnectTimeout bounds the initial dial and ping. Zero means the
	// native client default.
	ConnectTimeout time.Duration `json:"connectTimeout,omitempty"`

	// QueryTimeout bounds each operation round trip. Zero leaves calls
	// unbounded, matching the engine's behavior.
	QueryTimeout time.Duration `json:"queryTimeout,omitempty"`

	// ScanBatch is the SCAN page size for keyspace enumeration on
	// key/value engines. Zero uses the adapter default.
	ScanBatch int64 `json:"scanBatch,omitempty"`
}

// OperationContext derives a context for one engine round trip, applying the
// configured query timeout when set. The returned cancel func must always be
// called.
func (c Config) OperationContext(parent context.Context) (context.Context, context.CancelFunc) {
	if c.QueryTimeout <= 0 {
		return parent, func() {}
	}
	return context.WithTimeout(parent, c.QueryTimeout)
}

// DialContext derives a context for the initial dial, applying the configured
// connect timeout when set.
func (c Config) DialContext(parent context.Context) (context.Context, context.CancelFunc) {
	if c.ConnectTimeout <= 0 {
		return parent, func() {}
	}
	return context.WithTimeout(parent, c.ConnectTimeout)
}

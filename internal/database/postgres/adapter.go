// Package postgres implements the unified provider contract for
// PostgreSQL using pgx connection pools.
package postgres

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/polydb-io/polydb/pkg/provider"
)

// Adapter implements provider.Adapter for PostgreSQL.
type Adapter struct{}

// NewAdapter creates a new PostgreSQL adapter.
func NewAdapter() provider.Adapter {
	return &Adapter{}
}

// Type returns the engine identifier.
func (a *Adapter) Type() provider.Engine {
	return provider.PostgreSQL
}

// Capabilities returns the capability metadata for PostgreSQL.
func (a *Adapter) Capabilities() provider.Capability {
	return provider.MustGet(provider.PostgreSQL)
}

// Connect establishes a connection pool. The DSN is a postgres:// URL or
// keyword/value string, passed through to pgx untouched.
func (a *Adapter) Connect(ctx context.Context, config provider.Config) (provider.Connection, error) {
	if config.DSN == "" {
		return nil, provider.NewConnectionError(provider.PostgreSQL, fmt.Errorf("connection string is empty"))
	}

	dialCtx, cancel := config.DialContext(ctx)
	defer cancel()

	pool, err := pgxpool.New(dialCtx, config.DSN)
	if err != nil {
		return nil, provider.NewConnectionError(provider.PostgreSQL, err)
	}
	if err := pool.Ping(dialCtx); err != nil {
		pool.Close()
		return nil, provider.NewConnectionError(provider.PostgreSQL, err)
	}

	return &Connection{pool: pool, config: config, connected: 1}, nil
}

// Connection implements provider.Connection for PostgreSQL.
type Connection struct {
	pool      *pgxpool.Pool
	config    provider.Config
	connected int32
}

// Engine returns the engine identifier.
func (c *Connection) Engine() provider.Engine {
	return provider.PostgreSQL
}

// Ping checks that the pool is alive.
func (c *Connection) Ping(ctx context.Context) error {
	opCtx, cancel := c.config.OperationContext(ctx)
	defer cancel()
	if err := c.pool.Ping(opCtx); err != nil {
		return provider.WrapError(provider.PostgreSQL, "ping", err)
	}
	return nil
}

// Close releases the pool. Safe to call more than once.
func (c *Connection) Close(ctx context.Context) error {
	if atomic.CompareAndSwapInt32(&c.connected, 1, 0) {
		c.pool.Close()
	}
	return nil
}

// Raw returns the underlying *pgxpool.Pool.
func (c *Connection) Raw() any {
	return c.pool
}

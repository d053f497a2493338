// Package redis implements the unified provider contract for Redis and
// Valkey. Tables map to key prefixes (the segment before the first colon)
// and records to key/type/ttl/value rows.
package redis

import (
	"context"
	"fmt"
	"sync/atomic"

	goredis "github.com/redis/go-redis/v9"

	"github.com/polydb-io/polydb/pkg/provider"
)

// defaultScanBatch is the SCAN page size used when the config does not
// set one.
const defaultScanBatch = 500

// Adapter implements provider.Adapter for Redis.
type Adapter struct{}

// NewAdapter creates a new Redis adapter.
func NewAdapter() provider.Adapter {
	return &Adapter{}
}

// Type returns the engine identifier.
func (a *Adapter) Type() provider.Engine {
	return provider.Redis
}

// Capabilities returns the capability metadata for Redis.
func (a *Adapter) Capabilities() provider.Capability {
	return provider.MustGet(provider.Redis)
}

// Connect dials the server named by the redis:// or rediss:// URL.
func (a *Adapter) Connect(ctx context.Context, config provider.Config) (provider.Connection, error) {
	if config.DSN == "" {
		return nil, provider.NewConnectionError(provider.Redis, fmt.Errorf("connection URL is empty"))
	}

	opts, err := goredis.ParseURL(config.DSN)
	if err != nil {
		return nil, provider.NewConnectionError(provider.Redis, err)
	}
	client := goredis.NewClient(opts)

	dialCtx, cancel := config.DialContext(ctx)
	defer cancel()
	if err := client.Ping(dialCtx).Err(); err != nil {
		client.Close()
		return nil, provider.NewConnectionError(provider.Redis, err)
	}

	return &Connection{client: client, config: config, connected: 1}, nil
}

// Connection implements provider.Connection for Redis.
type Connection struct {
	client    *goredis.Client
	config    provider.Config
	connected int32
}

// Engine returns the engine identifier.
func (c *Connection) Engine() provider.Engine {
	return provider.Redis
}

// Ping checks that the server is reachable.
func (c *Connection) Ping(ctx context.Context) error {
	opCtx, cancel := c.config.OperationContext(ctx)
	defer cancel()
	if err := c.client.Ping(opCtx).Err(); err != nil {
		return provider.WrapError(provider.Redis, "ping", err)
	}
	return nil
}

// Close releases the client. Safe to call more than once.
func (c *Connection) Close(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&c.connected, 1, 0) {
		return nil
	}
	return c.client.Close()
}

// Raw returns the underlying *redis.Client.
func (c *Connection) Raw() any {
	return c.client
}

func (c *Connection) scanBatch() int64 {
	if c.config.ScanBatch > 0 {
		return c.config.ScanBatch
	}
	return defaultScanBatch
}

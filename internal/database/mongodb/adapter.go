// Package mongodb implements the unified provider contract for MongoDB.
// Tables map to collections and records to flattened documents.
package mongodb

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/polydb-io/polydb/pkg/provider"
)

// Adapter implements provider.Adapter for MongoDB.
type Adapter struct{}

// NewAdapter creates a new MongoDB adapter.
func NewAdapter() provider.Adapter {
	return &Adapter{}
}

// Type returns the engine identifier.
func (a *Adapter) Type() provider.Engine {
	return provider.MongoDB
}

// Capabilities returns the capability metadata for MongoDB.
func (a *Adapter) Capabilities() provider.Capability {
	return provider.MustGet(provider.MongoDB)
}

// Connect dials the deployment named by the mongodb:// URI. The database
// name comes from the URI path and must be present.
func (a *Adapter) Connect(ctx context.Context, config provider.Config) (provider.Connection, error) {
	if config.DSN == "" {
		return nil, provider.NewConnectionError(provider.MongoDB, fmt.Errorf("connection URI is empty"))
	}

	dbName, err := databaseFromURI(config.DSN)
	if err != nil {
		return nil, provider.NewConnectionError(provider.MongoDB, err)
	}

	client, err := mongo.Connect(options.Client().ApplyURI(config.DSN))
	if err != nil {
		return nil, provider.NewConnectionError(provider.MongoDB, err)
	}

	dialCtx, cancel := config.DialContext(ctx)
	defer cancel()
	if err := client.Ping(dialCtx, readpref.Primary()); err != nil {
		client.Disconnect(ctx)
		return nil, provider.NewConnectionError(provider.MongoDB, err)
	}

	return &Connection{
		client:    client,
		db:        client.Database(dbName),
		config:    config,
		connected: 1,
	}, nil
}

// databaseFromURI extracts the database name from the URI path segment.
func databaseFromURI(uri string) (string, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("invalid connection URI: %w", err)
	}
	name := strings.TrimPrefix(parsed.Path, "/")
	if name == "" {
		return "", fmt.Errorf("connection URI %q does not name a database", uri)
	}
	return name, nil
}

// Connection implements provider.Connection for MongoDB.
type Connection struct {
	client    *mongo.Client
	db        *mongo.Database
	config    provider.Config
	connected int32
}

// Engine returns the engine identifier.
func (c *Connection) Engine() provider.Engine {
	return provider.MongoDB
}

// Ping checks that the deployment is reachable.
func (c *Connection) Ping(ctx context.Context) error {
	opCtx, cancel := c.config.OperationContext(ctx)
	defer cancel()
	if err := c.client.Ping(opCtx, readpref.Primary()); err != nil {
		return provider.WrapError(provider.MongoDB, "ping", err)
	}
	return nil
}

// Close disconnects the client. Safe to call more than once.
func (c *Connection) Close(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&c.connected, 1, 0) {
		return nil
	}
	return c.client.Disconnect(ctx)
}

// Raw returns the underlying *mongo.Client.
func (c *Connection) Raw() any {
	return c.client
}

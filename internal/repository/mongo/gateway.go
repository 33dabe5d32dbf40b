package mongo

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"golang.org/x/sync/singleflight"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

// Gateway owns the process-wide MongoDB connection. Connect is
// connect-or-reuse: the first caller establishes the client, later callers
// get the same one, and concurrent first callers are collapsed into a
// single connection attempt through the singleflight group. A failed
// attempt leaves the gateway unconnected so the next call retries.
type Gateway struct {
	uri string

	mu     sync.RWMutex
	client *mongo.Client
	sf     singleflight.Group
}

// NewGateway creates a gateway for the given MongoDB URI. No connection is
// made until Connect is called.
func NewGateway(uri string) *Gateway {
	return &Gateway{uri: uri}
}

// Connect returns the shared client, establishing it on first use.
func (g *Gateway) Connect(ctx context.Context) (*mongo.Client, error) {
	g.mu.RLock()
	client := g.client
	g.mu.RUnlock()
	if client != nil {
		return client, nil
	}

	v, err, _ := g.sf.Do("connect", func() (interface{}, error) {
		// Re-check under the write path: a previous flight may have
		// connected between our read and this call.
		g.mu.RLock()
		existing := g.client
		g.mu.RUnlock()
		if existing != nil {
			return existing, nil
		}

		c, err := dial(ctx, g.uri)
		if err != nil {
			return nil, err
		}

		g.mu.Lock()
		g.client = c
		g.mu.Unlock()
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*mongo.Client), nil
}

// Database returns a handle on the named database of the shared client.
func (g *Gateway) Database(ctx context.Context, name string) (*mongo.Database, error) {
	client, err := g.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return client.Database(name), nil
}

// Close disconnects the shared client, if any. The gateway can be
// reconnected afterwards.
func (g *Gateway) Close() error {
	g.mu.Lock()
	client := g.client
	g.client = nil
	g.mu.Unlock()
	if client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// dial connects and pings the primary to verify the connection, mirroring
// the driver's recommended startup sequence.
func dial(parent context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(parent, defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	// Ping with a separate, shorter context: the initial connect can
	// succeed while the server is unresponsive.
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, err
	}

	return client, nil
}

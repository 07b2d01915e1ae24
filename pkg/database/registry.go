package database

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PoolFactory opens a pool for a URI. NewPostgresPool is the production factory.
type PoolFactory func(ctx context.Context, uri string, logger *zap.Logger) (*pgxpool.Pool, error)

// Registry hands out one shared pool per database URI for the lifetime of the process.
type Registry struct {
	mu      sync.RWMutex
	pools   map[string]*pgxpool.Pool
	factory PoolFactory
	logger  *zap.Logger
}

// NewRegistry creates a registry that opens pools with factory (NewPostgresPool when nil).
func NewRegistry(factory PoolFactory, logger *zap.Logger) *Registry {
	if factory == nil {
		factory = NewPostgresPool
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{pools: make(map[string]*pgxpool.Pool), factory: factory, logger: logger}
}

// Pool returns the pool for uri, opening it on first use. Concurrent callers for the same
// uri get the same pool; a failed open is not cached so the next caller retries.
func (r *Registry) Pool(ctx context.Context, uri string) (*pgxpool.Pool, error) {
	r.mu.RLock()
	pool, ok := r.pools[uri]
	r.mu.RUnlock()
	if ok {
		return pool, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if pool, ok := r.pools[uri]; ok {
		return pool, nil
	}
	pool, err := r.factory(ctx, uri, r.logger)
	if err != nil {
		return nil, err
	}
	r.pools[uri] = pool
	return pool, nil
}

// Len reports how many distinct pools are open.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pools)
}

// Close closes every pool. Only used at process shutdown.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for uri, pool := range r.pools {
		if pool != nil {
			pool.Close()
		}
		delete(r.pools, uri)
	}
}

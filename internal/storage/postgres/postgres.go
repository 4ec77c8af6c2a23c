// Package postgres stores action catalogues in PostgreSQL using pgx v5.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/goap/internal/config"
)

// DefaultHealthTimeout bounds the readiness check the binaries run before
// touching the catalogue tables.
const DefaultHealthTimeout = 5 * time.Second

// Pool owns the connection pool shared by catalogue repositories.
type Pool struct {
	pool *pgxpool.Pool
}

// NewPool connects to the catalogue database described by cfg.
//
// Precondition: cfg passes config.Config.Validate.
// Postcondition: Returns a Pool that has answered one ping, or a non-nil error
// with no connections left open.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool for %s:%d/%s: %w", cfg.Host, cfg.Port, cfg.Name, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging %s:%d/%s: %w", cfg.Host, cfg.Port, cfg.Name, err)
	}
	return &Pool{pool: pool}, nil
}

// Health pings the database, giving up after timeout.
//
// Postcondition: Returns nil only if the database answered in time.
func (p *Pool) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := p.pool.Ping(ctx); err != nil {
		return fmt.Errorf("catalogue database health check: %w", err)
	}
	return nil
}

// Close releases every connection. The Pool is unusable afterwards.
func (p *Pool) Close() {
	p.pool.Close()
}

// DB exposes the pgx pool for NewCatalogRepository.
func (p *Pool) DB() *pgxpool.Pool {
	return p.pool
}

package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	dbMaxConns        = 16
	dbMaxConnIdleTime = 5 * time.Minute
	dbPingTimeout     = 5 * time.Second
)

// NewPostgresPool configures and returns the connection pool backing the
// ledger store. Pool limits are conservative; every mutation runs in a short
// transaction so a small pool goes a long way.
func NewPostgresPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	if url == "" {
		return nil, fmt.Errorf("database url is required")
	}

	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}

	cfg.MaxConns = dbMaxConns
	cfg.MaxConnIdleTime = dbMaxConnIdleTime
	cfg.ConnConfig.RuntimeParams["application_name"] = "arena-pay"

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, dbPingTimeout)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return pool, nil
}

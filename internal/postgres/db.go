package postgres

import (
	"context"
	"fmt"
	"github.com/ariefcatur/shopapp/internal/shop"
	"github.com/jackc/pgx/v5/pgxpool"
	"strconv"
	"time"
)

type Options struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	StatementTimeout time.Duration // 0 keeps the server default
}

func Connect(ctx context.Context, opt Options) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(opt.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = 8
	cfg.MinConns = 1
	if opt.MaxConns > 0 {
		cfg.MaxConns = opt.MaxConns
	}
	if opt.MinConns > 0 {
		cfg.MinConns = opt.MinConns
	}
	cfg.HealthCheckPeriod = 30 * time.Second
	if opt.StatementTimeout > 0 {
		cfg.ConnConfig.RuntimeParams["statement_timeout"] = strconv.FormatInt(opt.StatementTimeout.Milliseconds(), 10)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shop.ErrConnection, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping: %w", shop.ErrConnection, err)
	}
	return pool, nil
}

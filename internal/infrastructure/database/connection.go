package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"rollcall/internal/platform/sl"
)

// NewPool opens the pgx pool behind the participation store. Pool sizing can
// be tuned through the DSN (pool_max_conns, ...).
func NewPool(ctx context.Context, dsn string, log *slog.Logger) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	log.Info("postgres connected", sl.Module("database"), slog.Int("max_conns", int(cfg.MaxConns)))
	return pool, nil
}

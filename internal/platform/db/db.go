package db

import (
	"context"
	"log/slog"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/jackc/pgx/v5/pgxpool"

	"feedback360/internal/platform/config"
)

type Pool = pgxpool.Pool

const (
	connectInitialDelay = 500 * time.Millisecond
	connectMaxDelay     = 10 * time.Second
)

// Connect opens the pool and pings it, backing off while the database comes up.
func Connect(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2

	attempts := cfg.DBConnectAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var pool *pgxpool.Pool
	err = retry.Do(
		func() error {
			candidate, err := pgxpool.NewWithConfig(ctx, poolCfg)
			if err != nil {
				return err
			}
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			if err := candidate.Ping(pingCtx); err != nil {
				candidate.Close()
				return err
			}
			pool = candidate
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(attempts)),
		retry.DelayType(retry.BackOffDelay),
		retry.Delay(connectInitialDelay),
		retry.MaxDelay(connectMaxDelay),
		retry.OnRetry(func(n uint, err error) {
			slog.Warn("database connect failed", "attempt", n+1, "maxAttempts", attempts, "err", err)
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return pool, nil
}

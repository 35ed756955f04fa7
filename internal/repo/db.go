// Package repo хранит историю запусков flow в PostgreSQL.
package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrEmptyDSN — строка подключения не задана.
var ErrEmptyDSN = errors.New("empty database url")

// NewPool создаёт пул соединений и проверяет доступность БД.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if dsn == "" {
		return nil, ErrEmptyDSN
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = 4
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("new pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return pool, nil
}

// schema — схема истории запусков. Применяется идемпотентно.
const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id           uuid PRIMARY KEY,
	flow_name    text        NOT NULL,
	host         text,
	status       text        NOT NULL,
	args         jsonb,
	step_count   integer     NOT NULL DEFAULT 0,
	current_step integer     NOT NULL DEFAULT -1,
	started_at   timestamptz,
	finished_at  timestamptz,
	error        text,
	created_at   timestamptz NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS runs_flow_name_created_at_idx ON runs (flow_name, created_at DESC);
`

// EnsureSchema создаёт таблицы, если их нет.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

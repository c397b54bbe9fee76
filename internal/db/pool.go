package db

import (
	"context"
	"fmt"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PoolParams struct {
	Host           string
	Port           string
	Database       string
	TracingEnabled bool
}

// NewDBPool opens a pgx connection pool towards the given postgres
// database. Tracing, when enabled, is attached at the connection level
// so every repo query gets a span.
func NewDBPool(ctx context.Context, params PoolParams) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(fmt.Sprintf(
		"postgres://postgres@%s:%s/%s",
		params.Host, params.Port, params.Database,
	))
	if err != nil {
		return nil, fmt.Errorf("parse postgres conn string: %w", err)
	}

	if params.TracingEnabled {
		poolConfig.ConnConfig.Tracer = otelpgx.NewTracer()
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("new pgx pool: %w", err)
	}

	return pool, nil
}

// Package storage implements the reminder pipeline repositories on
// PostgreSQL via pgx. One Storage value serves every repository interface;
// all queue state transitions are single statements so no explicit
// transactions are needed.
package storage

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Storage is the PostgreSQL-backed implementation of the pipeline
// repositories.
type Storage struct {
	pool *pgxpool.Pool
}

// New creates a Storage over an established connection pool.
func New(pool *pgxpool.Pool) *Storage {
	return &Storage{pool: pool}
}

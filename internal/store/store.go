package store

import (
	"context"
	"fmt"

	"purchase-service/config"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS purchases (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL,
	username     TEXT NOT NULL,
	price        DOUBLE PRECISION NOT NULL,
	ts           TIMESTAMPTZ NOT NULL,
	product_name TEXT,
	description  TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_purchases_user_id ON purchases (user_id);
CREATE INDEX IF NOT EXISTS idx_purchases_ts ON purchases (ts DESC);`

type Store struct {
	db *sqlx.DB
}

// NewStore opens the database, applies the purchases schema and verifies
// the connection. A failure here is fatal for the calling service.
func NewStore(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Ping issues a lightweight liveness check against the database
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Package postgres provides a PostgreSQL-backed kv.Store over pgxpool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/matheusmosca/blueprint-storefront/internal/platform/kv"
)

const schema = `
CREATE TABLE IF NOT EXISTS storefront_records (
    collection TEXT        NOT NULL,
    key        TEXT        NOT NULL,
    value      JSONB       NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (collection, key)
);
`

// Config holds connection settings.
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
}

// DSN builds the pgx connection string.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable&pool_max_conns=25&pool_min_conns=5",
		c.User, c.Password, c.Host, c.Port, c.Database,
	)
}

// Store persists records in a single JSONB table.
type Store struct {
	db *pgxpool.Pool
}

// New wraps an existing pool. The schema must already exist.
func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Open creates the pool, waits for the database and applies the schema.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	ready := false
	for i := 0; i < 30; i++ {
		if err := pool.Ping(ctx); err == nil {
			ready = true
			break
		}
		logger.Info("⏳ Waiting for database...", zap.Int("attempt", i+1))
		select {
		case <-ctx.Done():
			pool.Close()
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}
	}
	if !ready {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database after 30 attempts")
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	logger.Info("✅ Connected to storefront database", zap.String("host", cfg.Host), zap.String("database", cfg.Database))
	return &Store{db: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.db.Close()
	return nil
}

// Get loads one record.
func (s *Store) Get(ctx context.Context, collection, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow(ctx,
		`SELECT value FROM storefront_records WHERE collection = $1 AND key = $2`,
		collection, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, kv.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get record %s/%s: %w", collection, key, err)
	}
	return value, nil
}

// Put upserts one record.
func (s *Store) Put(ctx context.Context, collection, key string, value []byte) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO storefront_records (collection, key, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = NOW()
	`, collection, key, value)
	if err != nil {
		return fmt.Errorf("failed to put record %s/%s: %w", collection, key, err)
	}
	return nil
}

// Delete removes one record.
func (s *Store) Delete(ctx context.Context, collection, key string) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM storefront_records WHERE collection = $1 AND key = $2`,
		collection, key,
	)
	if err != nil {
		return fmt.Errorf("failed to delete record %s/%s: %w", collection, key, err)
	}
	if tag.RowsAffected() == 0 {
		return kv.ErrNotFound
	}
	return nil
}

// DeleteAll removes a whole collection.
func (s *Store) DeleteAll(ctx context.Context, collection string) (int, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM storefront_records WHERE collection = $1`, collection)
	if err != nil {
		return 0, fmt.Errorf("failed to clear collection %s: %w", collection, err)
	}
	return int(tag.RowsAffected()), nil
}

// List returns every record of a collection.
func (s *Store) List(ctx context.Context, collection string) ([][]byte, error) {
	rows, err := s.db.Query(ctx, `SELECT value FROM storefront_records WHERE collection = $1`, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to list collection %s: %w", collection, err)
	}
	defer rows.Close()

	var out [][]byte
	for rows.Next() {
		var value []byte
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		out = append(out, value)
	}
	return out, rows.Err()
}

var _ kv.Store = (*Store)(nil)

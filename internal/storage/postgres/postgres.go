package postgres

import (
	"context"
	"errors"
	"fmt"
	"moviehub/proj/internal/storage"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresDB keeps client state in a shared database, one namespace per device.
type PostgresDB struct {
	Conn      *pgxpool.Pool
	namespace string
}

const schema = `CREATE TABLE IF NOT EXISTS client_state (
	namespace  TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (namespace, key)
)`

func New(ctx context.Context, dsn string, namespace string, maxConns int, maxConnIdleTime time.Duration) (*PostgresDB, error) {
	const op = "postgres.New"
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if maxConns > 0 {
		cfg.MaxConns = int32(maxConns)
	}
	if maxConnIdleTime > 0 {
		cfg.MaxConnIdleTime = maxConnIdleTime
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: migrate: %w", op, err)
	}
	return &PostgresDB{Conn: pool, namespace: namespace}, nil
}

func (db *PostgresDB) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := db.Conn.QueryRow(
		ctx,
		"SELECT value::text FROM client_state WHERE namespace = $1 AND key = $2",
		db.namespace,
		key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", storage.ErrNotFound
		}
		return "", err
	}
	return value, nil
}

func (db *PostgresDB) Set(ctx context.Context, key, value string) error {
	_, err := db.Conn.Exec(
		ctx,
		`INSERT INTO client_state (namespace, key, value) VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		db.namespace,
		key,
		value,
	)
	return err
}

func (db *PostgresDB) Delete(ctx context.Context, key string) error {
	_, err := db.Conn.Exec(ctx, "DELETE FROM client_state WHERE namespace = $1 AND key = $2", db.namespace, key)
	return err
}

func (db *PostgresDB) Close() error {
	db.Conn.Close()
	return nil
}

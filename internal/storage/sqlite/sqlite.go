package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"moviehub/proj/internal/storage"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS client_state (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

type Storage struct {
	Conn *sql.DB
}

// New opens (and creates) the state database at path. ":memory:" is accepted.
func New(ctx context.Context, path string) (*Storage, error) {
	const op = "sqlite.New"
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("%s: create state directory: %w", op, err)
		}
		dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	// a single connection keeps :memory: databases alive and serialises writes
	conn.SetMaxOpenConns(1)
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := conn.ExecContext(ctx, schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%s: migrate: %w", op, err)
	}
	return &Storage{Conn: conn}, nil
}

func (s *Storage) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.Conn.QueryRowContext(ctx, "SELECT value FROM client_state WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", storage.ErrNotFound
		}
		return "", err
	}
	return value, nil
}

func (s *Storage) Set(ctx context.Context, key, value string) error {
	_, err := s.Conn.ExecContext(
		ctx,
		`INSERT INTO client_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key,
		value,
	)
	return err
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	_, err := s.Conn.ExecContext(ctx, "DELETE FROM client_state WHERE key = ?", key)
	return err
}

func (s *Storage) Close() error {
	return s.Conn.Close()
}

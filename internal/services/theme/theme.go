package theme

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"moviehub/proj/internal/storage"
	"sync"
)

type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

var ErrInvalidTheme = errors.New("theme must be light or dark")

func (t Theme) Valid() bool {
	return t == Light || t == Dark
}

type Store struct {
	log *slog.Logger
	kv  storage.KV

	mu    sync.Mutex
	theme Theme
}

func New(log *slog.Logger, kv storage.KV) *Store {
	return &Store{log: log, kv: kv, theme: Light}
}

func (s *Store) Load(ctx context.Context) error {
	const op = "theme.Store.Load"
	raw, err := storage.GetString(ctx, s.kv, storage.KeyTheme)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		s.log.With("op", op).Warn("Error reading theme", "errMsg", err.Error())
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if t := Theme(raw); t.Valid() {
		s.theme = t
	}
	return nil
}

func (s *Store) Get() Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.theme
}

func (s *Store) Set(ctx context.Context, t Theme) error {
	const op = "theme.Store.Set"
	if !t.Valid() {
		return ErrInvalidTheme
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := storage.SetJSON(ctx, s.kv, storage.KeyTheme, string(t)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.theme = t
	return nil
}

func (s *Store) Toggle(ctx context.Context) (Theme, error) {
	next := Dark
	if s.Get() == Dark {
		next = Light
	}
	if err := s.Set(ctx, next); err != nil {
		return s.Get(), err
	}
	return next, nil
}

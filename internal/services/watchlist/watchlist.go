package watchlist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"moviehub/proj/internal/domain/models"
	"moviehub/proj/internal/notices"
	"moviehub/proj/internal/storage"
	"slices"
	"sync"
)

var ErrInvalidEntry = errors.New("watchlist entry needs an id")

// Store is the locally persisted watchlist. Every mutation writes the full
// list before committing it in memory.
type Store struct {
	log      *slog.Logger
	kv       storage.KV
	notifier notices.Notifier

	mu      sync.Mutex
	entries []models.WatchlistEntry
}

func New(log *slog.Logger, kv storage.KV, notifier notices.Notifier) *Store {
	return &Store{log: log, kv: kv, notifier: notifier}
}

// Load reads the persisted list. A corrupt value starts an empty list.
func (s *Store) Load(ctx context.Context) error {
	const op = "watchlist.Store.Load"
	log := s.log.With("op", op)
	entries, err := storage.GetJSON[[]models.WatchlistEntry](ctx, s.kv, storage.KeyWatchlist)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		entries = nil
	case errors.Is(err, storage.ErrClosed):
		return fmt.Errorf("%s: %w", op, err)
	case err != nil:
		log.Warn("discarding unreadable watchlist", "errMsg", err.Error())
		entries = nil
	}
	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
	log.Debug("watchlist loaded", "count", len(entries))
	return nil
}

// Add appends entry unless its id is already present.
func (s *Store) Add(ctx context.Context, entry models.WatchlistEntry) error {
	const op = "watchlist.Store.Add"
	if entry.ID == "" {
		return ErrInvalidEntry
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(string(entry.ID)) >= 0 {
		return nil
	}
	next := append(slices.Clone(s.entries), entry)
	if err := s.commit(ctx, next); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.notifier.Notify(notices.LevelSuccess, "Added to watchlist")
	return nil
}

func (s *Store) Remove(ctx context.Context, id string) error {
	const op = "watchlist.Store.Remove"
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return nil
	}
	next := slices.Delete(slices.Clone(s.entries), i, i+1)
	if err := s.commit(ctx, next); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.notifier.Notify(notices.LevelInfo, "Removed from watchlist")
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	const op = "watchlist.Store.Clear"
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.commit(ctx, []models.WatchlistEntry{}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.notifier.Notify(notices.LevelInfo, "Watchlist cleared")
	return nil
}

func (s *Store) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOf(id) >= 0
}

func (s *Store) Entries() []models.WatchlistEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.WatchlistEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// commit persists next and adopts it. Callers hold s.mu.
func (s *Store) commit(ctx context.Context, next []models.WatchlistEntry) error {
	if err := storage.SetJSON(ctx, s.kv, storage.KeyWatchlist, next); err != nil {
		s.log.Error("Error persisting watchlist", "errMsg", err.Error())
		s.notifier.Notify(notices.LevelError, "Could not save watchlist")
		return err
	}
	s.entries = next
	return nil
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.entries, func(e models.WatchlistEntry) bool { return string(e.ID) == id })
}

package watchlist

import (
	"context"
	"moviehub/proj/internal/domain/fields"
	"moviehub/proj/internal/domain/models"
	"moviehub/proj/internal/notices"
	"moviehub/proj/internal/storage"
	"moviehub/proj/internal/testutil"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*Store, *testutil.KV, *testutil.Notices) {
	t.Helper()
	kv := testutil.NewKV()
	n := &testutil.Notices{}
	return New(testutil.Logger(), kv, n), kv, n
}

func entry(id, title string) models.WatchlistEntry {
	return models.WatchlistEntry{ID: fields.ID("m" + id), Title: title}
}

func TestAddIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s, kv, _ := newStore(t)
	require.NoError(t, s.Add(ctx, entry("1", "Heat")))
	require.NoError(t, s.Add(ctx, entry("1", "Heat")))
	require.NoError(t, s.Add(ctx, entry("2", "Alien")))

	assert.Len(t, s.Entries(), 2)
	assert.True(t, s.Has("m1"))
	persisted, err := storage.GetJSON[[]models.WatchlistEntry](ctx, kv, storage.KeyWatchlist)
	require.NoError(t, err)
	assert.Equal(t, s.Entries(), persisted)

	assert.ErrorIs(t, s.Add(ctx, models.WatchlistEntry{Title: "no id"}), ErrInvalidEntry)
}

func TestRemoveAndClear(t *testing.T) {
	ctx := context.Background()
	s, kv, n := newStore(t)
	require.NoError(t, s.Add(ctx, entry("1", "Heat")))
	require.NoError(t, s.Add(ctx, entry("2", "Alien")))

	require.NoError(t, s.Remove(ctx, "m1"))
	require.NoError(t, s.Remove(ctx, "missing"))
	assert.False(t, s.Has("m1"))
	assert.Len(t, s.Entries(), 1)

	require.NoError(t, s.Clear(ctx))
	assert.Empty(t, s.Entries())
	raw, err := kv.Get(ctx, storage.KeyWatchlist)
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)
	assert.True(t, n.Has(notices.LevelInfo, "Watchlist cleared"))
}

func TestPersistenceFailureKeepsMemory(t *testing.T) {
	ctx := context.Background()
	s, kv, n := newStore(t)
	require.NoError(t, s.Add(ctx, entry("1", "Heat")))
	kv.FailWrites(true)

	assert.ErrorIs(t, s.Add(ctx, entry("2", "Alien")), testutil.ErrWriteFailed)
	assert.ErrorIs(t, s.Remove(ctx, "m1"), testutil.ErrWriteFailed)
	assert.ErrorIs(t, s.Clear(ctx), testutil.ErrWriteFailed)

	assert.Equal(t, []models.WatchlistEntry{entry("1", "Heat")}, s.Entries())
	assert.True(t, n.Has(notices.LevelError, "Could not save watchlist"))
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	t.Run("persisted entries", func(t *testing.T) {
		s, kv, _ := newStore(t)
		require.NoError(t, storage.SetJSON(ctx, kv, storage.KeyWatchlist, []models.WatchlistEntry{entry("7", "Up")}))
		require.NoError(t, s.Load(ctx))
		assert.True(t, s.Has("m7"))
	})
	t.Run("corrupt value", func(t *testing.T) {
		s, kv, _ := newStore(t)
		require.NoError(t, kv.Set(ctx, storage.KeyWatchlist, "{nope"))
		require.NoError(t, s.Load(ctx))
		assert.Empty(t, s.Entries())
	})
	t.Run("missing key", func(t *testing.T) {
		s, _, _ := newStore(t)
		require.NoError(t, s.Load(ctx))
		assert.Empty(t, s.Entries())
	})
}

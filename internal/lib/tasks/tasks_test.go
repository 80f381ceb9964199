package tasks

import (
	"context"
	"moviehub/proj/internal/testutil"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	pool := New(testutil.Logger(), 3, 10)
	pool.Run()
	var runs atomic.Int32
	for i := 0; i < 5; i++ {
		require.NoError(t, pool.Add(func(ctx context.Context) {
			runs.Add(1)
		}))
	}
	require.NoError(t, pool.Shutdown(context.Background()))
	assert.Equal(t, int32(5), runs.Load())
}

func TestAddAfterShutdown(t *testing.T) {
	pool := New(testutil.Logger(), 1, 1)
	pool.Run()
	require.NoError(t, pool.Shutdown(context.Background()))
	assert.ErrorIs(t, pool.Add(func(context.Context) {}), ErrStopped)
	assert.NoError(t, pool.Shutdown(context.Background()))
}

func TestQueueFull(t *testing.T) {
	pool := New(testutil.Logger(), 1, 1)
	// not started, so nothing drains the queue
	require.NoError(t, pool.Add(func(context.Context) {}))
	assert.ErrorIs(t, pool.Add(func(context.Context) {}), ErrQueueFull)
	assert.Equal(t, 1, pool.Pending())
}

func TestPanicKeepsWorker(t *testing.T) {
	pool := New(testutil.Logger(), 1, 2)
	pool.Run()
	var ran atomic.Bool
	require.NoError(t, pool.Add(func(context.Context) { panic("boom") }))
	require.NoError(t, pool.Add(func(context.Context) { ran.Store(true) }))
	require.NoError(t, pool.Shutdown(context.Background()))
	assert.True(t, ran.Load())
}

func TestShutdownTimeoutCancelsTasks(t *testing.T) {
	pool := New(testutil.Logger(), 1, 1)
	pool.Run()
	cancelled := make(chan struct{})
	require.NoError(t, pool.Add(func(ctx context.Context) {
		<-ctx.Done()
		close(cancelled)
	}))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, pool.Shutdown(ctx), context.DeadlineExceeded)
	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("running task was not cancelled")
	}
}

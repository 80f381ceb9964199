// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"errors"
	"log/slog"
	"moviehub/proj/internal/domain/token"
	"moviehub/proj/internal/lib/logger"
	"moviehub/proj/internal/notices"
	"moviehub/proj/internal/storage/memory"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const tokenSecret = "moviehub-test-secret"

func Logger() *slog.Logger {
	return logger.Discard()
}

// Token signs a session token for userID expiring after ttl (negative ttl
// yields an expired token).
func Token(t testing.TB, userID, role string, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &token.Claims{
		UserID: userID,
		Role:   role,
		Email:  userID + "@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now.Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}).SignedString([]byte(tokenSecret))
	require.NoError(t, err)
	return raw
}

// Notices records notices for assertions.
type Notices struct {
	mu    sync.Mutex
	items []notices.Notice
}

func (n *Notices) Notify(level notices.Level, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, notices.Notice{Level: level, Message: msg, At: time.Now()})
}

func (n *Notices) All() []notices.Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notices.Notice, len(n.items))
	copy(out, n.items)
	return out
}

func (n *Notices) Messages() []string {
	all := n.All()
	out := make([]string, 0, len(all))
	for _, item := range all {
		out = append(out, item.Message)
	}
	return out
}

func (n *Notices) Has(level notices.Level, msg string) bool {
	for _, item := range n.All() {
		if item.Level == level && item.Message == msg {
			return true
		}
	}
	return false
}

var ErrWriteFailed = errors.New("write failed")

// KV is an in-memory store whose writes can be made to fail.
type KV struct {
	*memory.Storage
	mu         sync.Mutex
	failWrites bool
}

func NewKV() *KV {
	return &KV{Storage: memory.New()}
}

func (k *KV) FailWrites(fail bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.failWrites = fail
}

func (k *KV) failing() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.failWrites
}

func (k *KV) Set(ctx context.Context, key, value string) error {
	if k.failing() {
		return ErrWriteFailed
	}
	return k.Storage.Set(ctx, key, value)
}

func (k *KV) Delete(ctx context.Context, key string) error {
	if k.failing() {
		return ErrWriteFailed
	}
	return k.Storage.Delete(ctx, key)
}

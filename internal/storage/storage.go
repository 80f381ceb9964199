// Package storage persists client state (session token, active profile,
// watchlist, theme) as JSON values under fixed keys.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	KeyToken           = "authToken"
	KeyActiveProfileID = "activeProfileId"
	KeyWatchlist       = "watchlist"
	KeyTheme           = "theme"
)

// KV is a durable string key/value store. Get returns ErrNotFound for
// missing keys, Delete of a missing key is not an error.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

func GetJSON[T any](ctx context.Context, kv KV, key string) (T, error) {
	var v T
	raw, err := kv.Get(ctx, key)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return v, fmt.Errorf("decode %s: %w", key, err)
	}
	return v, nil
}

func SetJSON(ctx context.Context, kv KV, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return kv.Set(ctx, key, string(raw))
}

// GetString reads a JSON string value, missing keys yield "".
func GetString(ctx context.Context, kv KV, key string) (string, error) {
	s, err := GetJSON[string](ctx, kv, key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return s, err
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"moviehub/proj/internal/config"
	"moviehub/proj/internal/lib/logger"
	"moviehub/proj/internal/services"
	"moviehub/proj/internal/storage"
	"moviehub/proj/internal/storage/memory"
	"moviehub/proj/internal/storage/postgres"
	"moviehub/proj/internal/storage/redis"
	"moviehub/proj/internal/storage/sqlite"
	"os"
	"time"
)

const version = "1.0.0"

func main() {
	cfg := config.MustLoad(config.ConfigPath())
	log := logger.SetupLogger(cfg.Debug)
	if err := run(cfg, log); err != nil {
		log.Error("shutting down the agent", "reason", err.Error())
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	kv, err := openStorage(ctx, cfg)
	cancel()
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer kv.Close()
	log.Info("client storage opened", "driver", cfg.Storage.Driver)

	svc, err := services.New(log, cfg, kv)
	if err != nil {
		return err
	}
	defer svc.Dispose()
	if err := svc.Init(context.Background()); err != nil {
		return err
	}

	app := NewApplication(cfg, log, svc)
	return app.serve()
}

func openStorage(ctx context.Context, cfg *config.Config) (storage.KV, error) {
	s := cfg.Storage
	switch s.Driver {
	case config.StorageMemory:
		return memory.New(), nil
	case config.StorageSQLite:
		return sqlite.New(ctx, s.Path)
	case config.StoragePostgres:
		return postgres.New(ctx, s.Dsn, s.KeyPrefix, s.MaxConns, s.MaxConnIdleTime)
	case config.StorageRedis:
		return redis.Dial(ctx, s.Redis.Addr, s.Redis.Password, s.Redis.DB, s.KeyPrefix)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", s.Driver)
	}
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/storytime/progress/internal/config"
	"github.com/storytime/progress/internal/logging"
	"github.com/storytime/progress/internal/progress"
	"github.com/storytime/progress/internal/storage"
)

// runtime is everything a command needs to talk to the profile.
type runtime struct {
	cfg    *config.Config
	log    zerolog.Logger
	engine *progress.Engine
	close  func() error
}

func setup(ctx context.Context, opts *rootOptions, logOut io.Writer) (*runtime, error) {
	cfg, err := config.LoadOrDefault(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logging.New(cfg.Log, logOut)
	if err != nil {
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	kv, closeFn, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("driver", cfg.Storage.Driver).Msg("storage opened")

	engine, err := progress.NewEngine(ctx,
		progress.NewProfileStore(storage.WithTimeout(kv, cfg.Storage.Timeout), log),
		progress.WithLocation(loc),
		progress.WithLogger(log),
	)
	if err != nil {
		_ = closeFn()
		return nil, err
	}

	return &runtime{cfg: cfg, log: log, engine: engine, close: closeFn}, nil
}

// openStore builds the key-value backend named by cfg.Driver.
func openStore(ctx context.Context, cfg config.StorageConfig) (storage.KV, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Driver {
	case config.DriverMemory:
		return storage.NewMemoryStore(), noop, nil
	case config.DriverSQLite:
		path := cfg.SQLitePath
		if path == "" {
			dir := storage.DefaultStateDir()
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("create state dir: %w", err)
			}
			path = filepath.Join(dir, "progress.db")
		}
		s, err := storage.OpenSQLite(ctx, path)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.DriverFile:
		return storage.NewFileStore(cfg.Dir), noop, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

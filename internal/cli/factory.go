// Package cli wires configuration into a ready Platform for the arbor command.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/config"
	"github.com/aretw0/arbor/pkg/adapters/file"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/adapters/redis"
	"github.com/aretw0/arbor/pkg/adapters/sqlite"
	"github.com/aretw0/arbor/pkg/middleware"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/prototype"
	backend "github.com/redis/go-redis/v9"
)

// Session is an open Platform plus the resources backing it.
type Session struct {
	*arbor.Platform
	closers []func() error
}

// Close releases the store and any client connections.
func (s *Session) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}

// Open builds a Platform from cfg.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Session, error) {
	s := &Session{}

	rt, err := s.openRuntime(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var (
		sources ports.SourceStore
		locker  ports.Locker
	)
	if cfg.Redis.Addr != "" {
		client := backend.NewClient(&backend.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		s.closers = append(s.closers, client.Close)
		sources = redis.NewFromClient(client, redis.WithPrefix(cfg.Redis.Prefix))
		locker = redis.NewLocker(client, redis.WithPrefix(cfg.Redis.Prefix))
	} else {
		sources = file.NewSourceStore(cfg.Prototypes.Sources)
	}

	mws := []middleware.Middleware{middleware.NewLoggingMiddleware(logger)}
	if locker != nil {
		mws = append(mws, middleware.NewSerializedMiddleware(locker, "graph", middleware.DefaultLockTTL))
	}
	key, err := cfg.Key()
	if err != nil {
		s.Close()
		return nil, err
	}
	if key != nil {
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}))
	}

	registry := prototype.NewRegistry(
		prototype.WithSourceStore(sources),
		prototype.WithLoader(&prototype.FileLoader{Dir: cfg.Prototypes.Dir}),
		prototype.WithLogger(logger),
	)

	p, err := arbor.New(
		arbor.WithRuntime(rt),
		arbor.WithPrototypes(registry),
		arbor.WithMiddleware(mws...),
		arbor.WithLogger(logger),
	)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Platform = p
	return s, nil
}

func (s *Session) openRuntime(ctx context.Context, cfg config.Config) (ports.Runtime, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return memory.NewRuntime(), nil
	case config.BackendFile:
		return file.NewRuntime(cfg.Store), nil
	case config.BackendSQLite:
		rt, err := sqlite.Open(ctx, cfg.Store)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, rt.Close)
		return rt, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

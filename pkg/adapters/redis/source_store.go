package redis

import (
	"context"
	"errors"
	"fmt"

	backend "github.com/redis/go-redis/v9"
)

const defaultPrefix = "arbor:"

// SourceStore implements ports.SourceStore as a single Redis hash
// (field = prototype id, value = locator).
type SourceStore struct {
	client *backend.Client
	prefix string
}

// Option configures a SourceStore or Locker.
type Option func(*options)

type options struct {
	prefix string
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

func apply(opts []Option) options {
	o := options{prefix: defaultPrefix}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New creates a Redis source store connected to address.
func New(address, password string, db int, opts ...Option) *SourceStore {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a Redis source store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *SourceStore {
	o := apply(opts)
	return &SourceStore{client: client, prefix: o.prefix}
}

func (s *SourceStore) key() string {
	return s.prefix + "sources"
}

// Summon records the locator of a prototype.
func (s *SourceStore) Summon(ctx context.Context, id, locator string) error {
	if id == "" {
		return errors.New("prototype id is required")
	}
	if err := s.client.HSet(ctx, s.key(), id, locator).Err(); err != nil {
		return fmt.Errorf("redis: summon %q: %w", id, err)
	}
	return nil
}

// Banish forgets a prototype source.
func (s *SourceStore) Banish(ctx context.Context, id string) error {
	if err := s.client.HDel(ctx, s.key(), id).Err(); err != nil {
		return fmt.Errorf("redis: banish %q: %w", id, err)
	}
	return nil
}

// List returns every summoned source.
func (s *SourceStore) List(ctx context.Context) (map[string]string, error) {
	sources, err := s.client.HGetAll(ctx, s.key()).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: list sources: %w", err)
	}
	return sources, nil
}

// Close closes the underlying client.
func (s *SourceStore) Close() error {
	return s.client.Close()
}

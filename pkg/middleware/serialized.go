package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// DefaultLockTTL bounds how long a crashed writer can hold the distributed lock.
const DefaultLockTTL = 10 * time.Second

type serializedMiddleware struct {
	next   ports.Runtime
	mu     sync.RWMutex
	locker ports.Locker
	key    string
	ttl    time.Duration
}

// NewSerializedMiddleware serializes writers. Inside the process a RWMutex lets
// reads run together; when locker is non-nil every mutation also holds the
// distributed lock named key, so several processes can share one store.
func NewSerializedMiddleware(locker ports.Locker, key string, ttl time.Duration) Middleware {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return func(next ports.Runtime) ports.Runtime {
		return &serializedMiddleware{next: next, locker: locker, key: key, ttl: ttl}
	}
}

// write runs fn under the local write lock and the distributed lock.
func (m *serializedMiddleware) write(ctx context.Context, fn func() error) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.locker != nil {
		unlock, lerr := m.locker.Lock(ctx, m.key, m.ttl)
		if lerr != nil {
			return fmt.Errorf("acquire writer lock: %w", lerr)
		}
		defer func() {
			// An unreleased lock still expires after ttl.
			if uerr := unlock(context.WithoutCancel(ctx)); uerr != nil && err == nil {
				err = fmt.Errorf("release writer lock: %w", uerr)
			}
		}()
	}
	return fn()
}

func (m *serializedMiddleware) Create(ctx context.Context, parentRef string, typ *domain.Structure, attrs domain.Attributes) (node *domain.Node, err error) {
	err = m.write(ctx, func() error {
		node, err = m.next.Create(ctx, parentRef, typ, attrs)
		return err
	})
	return node, err
}

func (m *serializedMiddleware) Remove(ctx context.Context, ref string) error {
	return m.write(ctx, func() error {
		return m.next.Remove(ctx, ref)
	})
}

func (m *serializedMiddleware) Transform(ctx context.Context, sourceRef string, target *domain.Structure, information string) (node *domain.Node, err error) {
	err = m.write(ctx, func() error {
		node, err = m.next.Transform(ctx, sourceRef, target, information)
		return err
	})
	return node, err
}

func (m *serializedMiddleware) Link(ctx context.Context, fromRef, toRef, relation, reverse string) error {
	return m.write(ctx, func() error {
		return m.next.Link(ctx, fromRef, toRef, relation, reverse)
	})
}

func (m *serializedMiddleware) Unlink(ctx context.Context, fromRef, toRef, relation, reverse string) error {
	return m.write(ctx, func() error {
		return m.next.Unlink(ctx, fromRef, toRef, relation, reverse)
	})
}

func (m *serializedMiddleware) Tag(ctx context.Context, ref, tag string) error {
	return m.write(ctx, func() error {
		return m.next.Tag(ctx, ref, tag)
	})
}

func (m *serializedMiddleware) Project(ctx context.Context, ref string) (*domain.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.next.Project(ctx, ref)
}

func (m *serializedMiddleware) Roots(ctx context.Context) ([]*domain.Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.next.Roots(ctx)
}

package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

type loggingMiddleware struct {
	next   ports.Runtime
	logger *slog.Logger
}

// NewLoggingMiddleware logs every runtime operation: Debug on success, Warn on failure.
func NewLoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next ports.Runtime) ports.Runtime {
		return &loggingMiddleware{next: next, logger: logger}
	}
}

func (m *loggingMiddleware) log(ctx context.Context, op string, start time.Time, err error, attrs ...any) {
	attrs = append(attrs, "op", op, "duration", time.Since(start))
	if err != nil {
		m.logger.WarnContext(ctx, "Runtime operation failed", append(attrs, "err", err)...)
		return
	}
	m.logger.DebugContext(ctx, "Runtime operation", attrs...)
}

func (m *loggingMiddleware) Create(ctx context.Context, parentRef string, typ *domain.Structure, attrs domain.Attributes) (*domain.Node, error) {
	start := time.Now()
	node, err := m.next.Create(ctx, parentRef, typ, attrs)
	ref := ""
	if node != nil {
		ref = node.Ref
	}
	m.log(ctx, "create", start, err, "parent", parentRef, "type", structureName(typ), "ref", ref)
	return node, err
}

func (m *loggingMiddleware) Remove(ctx context.Context, ref string) error {
	start := time.Now()
	err := m.next.Remove(ctx, ref)
	m.log(ctx, "remove", start, err, "ref", ref)
	return err
}

func (m *loggingMiddleware) Transform(ctx context.Context, sourceRef string, target *domain.Structure, information string) (*domain.Node, error) {
	start := time.Now()
	node, err := m.next.Transform(ctx, sourceRef, target, information)
	m.log(ctx, "transform", start, err, "source", sourceRef, "target", structureName(target))
	return node, err
}

func (m *loggingMiddleware) Link(ctx context.Context, fromRef, toRef, relation, reverse string) error {
	start := time.Now()
	err := m.next.Link(ctx, fromRef, toRef, relation, reverse)
	m.log(ctx, "link", start, err, "from", fromRef, "to", toRef, "relation", relation)
	return err
}

func (m *loggingMiddleware) Unlink(ctx context.Context, fromRef, toRef, relation, reverse string) error {
	start := time.Now()
	err := m.next.Unlink(ctx, fromRef, toRef, relation, reverse)
	m.log(ctx, "unlink", start, err, "from", fromRef, "to", toRef, "relation", relation)
	return err
}

func (m *loggingMiddleware) Tag(ctx context.Context, ref, tag string) error {
	start := time.Now()
	err := m.next.Tag(ctx, ref, tag)
	m.log(ctx, "tag", start, err, "ref", ref, "tag", tag)
	return err
}

func (m *loggingMiddleware) Project(ctx context.Context, ref string) (*domain.State, error) {
	start := time.Now()
	state, err := m.next.Project(ctx, ref)
	m.log(ctx, "project", start, err, "ref", ref)
	return state, err
}

func (m *loggingMiddleware) Roots(ctx context.Context) ([]*domain.Node, error) {
	start := time.Now()
	roots, err := m.next.Roots(ctx)
	m.log(ctx, "roots", start, err, "count", len(roots))
	return roots, err
}

func structureName(s *domain.Structure) string {
	if s == nil {
		return ""
	}
	return s.Name
}

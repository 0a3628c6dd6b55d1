package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors updated by the metrics middleware.
type Metrics struct {
	Operations *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
}

// NewMetrics creates unregistered collectors under namespace.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runtime_operations_total",
				Help:      "Total number of runtime operations by outcome",
			},
			[]string{"op", "outcome"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "runtime_operation_duration_seconds",
				Help:      "Duration of runtime operations",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op"},
		),
	}
}

// Register registers the collectors with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	if err := reg.Register(m.Operations); err != nil {
		return err
	}
	return reg.Register(m.Duration)
}

func (m *Metrics) observe(op string, start time.Time, err error) {
	m.Duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	m.Operations.WithLabelValues(op, outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrNoContainer), errors.Is(err, domain.ErrAmbiguousContainer):
		return "no_container"
	default:
		return "error"
	}
}

type metricsMiddleware struct {
	next    ports.Runtime
	metrics *Metrics
}

// NewMetricsMiddleware records a counter and a duration per operation.
func NewMetricsMiddleware(metrics *Metrics) Middleware {
	return func(next ports.Runtime) ports.Runtime {
		return &metricsMiddleware{next: next, metrics: metrics}
	}
}

func (m *metricsMiddleware) Create(ctx context.Context, parentRef string, typ *domain.Structure, attrs domain.Attributes) (*domain.Node, error) {
	start := time.Now()
	node, err := m.next.Create(ctx, parentRef, typ, attrs)
	m.metrics.observe("create", start, err)
	return node, err
}

func (m *metricsMiddleware) Remove(ctx context.Context, ref string) error {
	start := time.Now()
	err := m.next.Remove(ctx, ref)
	m.metrics.observe("remove", start, err)
	return err
}

func (m *metricsMiddleware) Transform(ctx context.Context, sourceRef string, target *domain.Structure, information string) (*domain.Node, error) {
	start := time.Now()
	node, err := m.next.Transform(ctx, sourceRef, target, information)
	m.metrics.observe("transform", start, err)
	return node, err
}

func (m *metricsMiddleware) Link(ctx context.Context, fromRef, toRef, relation, reverse string) error {
	start := time.Now()
	err := m.next.Link(ctx, fromRef, toRef, relation, reverse)
	m.metrics.observe("link", start, err)
	return err
}

func (m *metricsMiddleware) Unlink(ctx context.Context, fromRef, toRef, relation, reverse string) error {
	start := time.Now()
	err := m.next.Unlink(ctx, fromRef, toRef, relation, reverse)
	m.metrics.observe("unlink", start, err)
	return err
}

func (m *metricsMiddleware) Tag(ctx context.Context, ref, tag string) error {
	start := time.Now()
	err := m.next.Tag(ctx, ref, tag)
	m.metrics.observe("tag", start, err)
	return err
}

func (m *metricsMiddleware) Project(ctx context.Context, ref string) (*domain.State, error) {
	start := time.Now()
	state, err := m.next.Project(ctx, ref)
	m.metrics.observe("project", start, err)
	return state, err
}

func (m *metricsMiddleware) Roots(ctx context.Context) ([]*domain.Node, error) {
	start := time.Now()
	roots, err := m.next.Roots(ctx)
	m.metrics.observe("roots", start, err)
	return roots, err
}

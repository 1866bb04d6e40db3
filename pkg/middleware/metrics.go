package middleware

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/consilium/popcorn/internal/errors"
	"github.com/consilium/popcorn/pkg/store"
)

// MetricsConfig configures the Prometheus metrics middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "popcorn").
	Namespace string

	// Subsystem is the metrics subsystem (default: "store").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for dispatch duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer

	// ActionTypes, when set, bounds the "type" label: any other action type
	// is counted as OtherActionType.
	ActionTypes []string
}

// MetricsOption configures the Prometheus metrics middleware.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// WithKnownActionTypes bounds the "type" label to types.
func WithKnownActionTypes(types ...string) MetricsOption {
	return func(c *MetricsConfig) {
		c.ActionTypes = append(c.ActionTypes, types...)
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "popcorn",
		Subsystem: "store",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the store collectors registered on one registry.
type Metrics struct {
	actionsTotal     *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	dispatchErrors   *prometheus.CounterVec
	thunksTotal      prometheus.Counter
	subscribers      prometheus.Gauge
}

// metricsKey identifies one set of collectors. A second store built with the
// same key shares the collectors instead of registering them twice.
type metricsKey struct {
	registry  prometheus.Registerer
	namespace string
	subsystem string
}

var (
	metricsMu    sync.Mutex
	metricsByKey = map[metricsKey]*Metrics{}
)

func metricsFor(config MetricsConfig) *Metrics {
	metricsMu.Lock()
	defer metricsMu.Unlock()

	key := metricsKey{config.Registry, config.Namespace, config.Subsystem}
	if m, ok := metricsByKey[key]; ok {
		return m
	}
	m := initMetrics(config)
	metricsByKey[key] = m
	return m
}

func initMetrics(config MetricsConfig) *Metrics {
	factory := promauto.With(config.Registry)

	return &Metrics{
		actionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "actions_total",
			Help:        "Total number of actions dispatched",
			ConstLabels: config.ConstLabels,
		}, []string{"type", "status"}),

		dispatchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dispatch_duration_seconds",
			Help:        "Time spent reducing an action, in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"type"}),

		dispatchErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dispatch_errors_total",
			Help:        "Total number of failed dispatches by error code",
			ConstLabels: config.ConstLabels,
		}, []string{"type", "code"}),

		thunksTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "thunks_total",
			Help:        "Total number of thunks seen by the metrics middleware",
			ConstLabels: config.ConstLabels,
		}),

		subscribers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "subscribers",
			Help:        "Number of active state subscribers",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// Prometheus creates middleware that collects metrics for every dispatch.
//
// Metrics collected:
//   - popcorn_store_actions_total: Counter of actions by type and status
//   - popcorn_store_dispatch_duration_seconds: Histogram of dispatch duration
//   - popcorn_store_dispatch_errors_total: Counter of failures by error code
//   - popcorn_store_thunks_total: Counter of thunks (when placed before Thunk)
//   - popcorn_store_subscribers: Gauge set through Metrics.RecordSubscribers
//
// Example:
//
//	s, _ := store.New(root, nil, store.WithMiddleware(
//	    middleware.Thunk(),
//	    middleware.Prometheus(middleware.WithNamespace("myapp")),
//	))
//
//	http.Handle("/metrics", promhttp.Handler())
func Prometheus(opts ...MetricsOption) store.Middleware {
	_, mw := PrometheusWithMetrics(opts...)
	return mw
}

// PrometheusWithMetrics is Prometheus that also returns the collectors, for
// callers that record subscriber counts.
func PrometheusWithMetrics(opts ...MetricsOption) (*Metrics, store.Middleware) {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Registry == nil {
		config.Registry = prometheus.DefaultRegisterer
	}
	m := metricsFor(config)
	label := actionLabeler(config.ActionTypes)

	return m, func(api store.API) func(next store.DispatchFunc) store.DispatchFunc {
		return func(next store.DispatchFunc) store.DispatchFunc {
			return func(ctx context.Context, v any) (any, error) {
				action, ok := plainAction(v)
				if !ok {
					if IsThunk(v) {
						m.thunksTotal.Inc()
					}
					return next(ctx, v)
				}

				actionType := label(action.Type)
				start := time.Now()
				result, err := next(ctx, v)
				m.dispatchDuration.WithLabelValues(actionType).Observe(time.Since(start).Seconds())

				status := "success"
				if err != nil {
					status = "error"
					m.dispatchErrors.WithLabelValues(actionType, errorCode(err)).Inc()
				}
				m.actionsTotal.WithLabelValues(actionType, status).Inc()
				return result, err
			}
		}
	}
}

// RecordSubscribers sets the subscriber gauge.
func (m *Metrics) RecordSubscribers(n int) {
	if m == nil {
		return
	}
	m.subscribers.Set(float64(n))
}

// errorCode keeps the error label low-cardinality.
func errorCode(err error) string {
	switch {
	case stderrors.Is(err, context.Canceled):
		return "canceled"
	case stderrors.Is(err, context.DeadlineExceeded):
		return "timeout"
	}
	if code := errors.CodeOf(err); code != "" {
		return code
	}
	return "internal"
}

package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "authsession"

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Registry holds all application metrics.
//
// A nil *Registry is valid; every method is then a no-op.
type Registry struct {
	registry *prometheus.Registry

	// AuthOperations counts login/register/refresh/logout by outcome.
	AuthOperations *prometheus.CounterVec

	// RefreshShared counts refresh callers that shared a single attempt.
	RefreshShared prometheus.Counter

	// RequestsTotal counts pipeline requests by method and outcome.
	RequestsTotal *prometheus.CounterVec

	// RequestDuration observes pipeline round trips by method.
	RequestDuration *prometheus.HistogramVec

	// ForcedClears counts sessions torn down by the pipeline, by reason.
	ForcedClears *prometheus.CounterVec
}

// NewRegistry creates a registry with all metrics registered.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		AuthOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "operations_total",
			Help:      "Session operations by kind and outcome.",
		}, []string{"operation", "outcome"}),
		RefreshShared: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "refresh_shared_total",
			Help:      "Refresh calls whose outcome was shared with concurrent callers.",
		}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "requests_total",
			Help:      "Authorized requests by method and outcome.",
		}, []string{"method", "outcome"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "request_duration_seconds",
			Help:      "Authorized request latency, refresh included.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		ForcedClears: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "forced_clears_total",
			Help:      "Sessions cleared by the pipeline.",
		}, []string{"reason"}),
	}

	r.registry.MustRegister(
		r.AuthOperations,
		r.RefreshShared,
		r.RequestsTotal,
		r.RequestDuration,
		r.ForcedClears,
	)
	return r
}

// Registerer exposes the underlying registry for extra collectors.
func (r *Registry) Registerer() prometheus.Registerer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.registry
}

// Gatherer exposes the underlying registry for reading.
func (r *Registry) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.registry
}

// ObserveOperation records one session operation.
func (r *Registry) ObserveOperation(op string, err error) {
	if r == nil {
		return
	}
	r.AuthOperations.WithLabelValues(op, outcome(err)).Inc()
}

// ObserveRefreshShared records a caller whose refresh was shared.
func (r *Registry) ObserveRefreshShared() {
	if r == nil {
		return
	}
	r.RefreshShared.Inc()
}

// ObserveRequest records one pipeline request.
func (r *Registry) ObserveRequest(method string, err error, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.RequestsTotal.WithLabelValues(method, outcome(err)).Inc()
	r.RequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// ObserveForcedClear records a pipeline-driven session clear.
func (r *Registry) ObserveForcedClear(reason string) {
	if r == nil {
		return
	}
	r.ForcedClears.WithLabelValues(reason).Inc()
}

// WriteTextfile writes all metrics to path in the text exposition format.
// The write goes through a temp file and rename, as node_exporter expects.
func (r *Registry) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}

func outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}

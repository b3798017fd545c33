package metric

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/authsession-go/internal/core/domain"
)

// StateFunc returns the current session state.
type StateFunc func() domain.SessionState

// Collector reports the session phase at collection time.
type Collector struct {
	state StateFunc
	phase *prometheus.Desc
}

var phases = []domain.Phase{
	domain.PhaseAnonymous,
	domain.PhaseAuthenticating,
	domain.PhaseAuthenticated,
	domain.PhaseRefreshing,
	domain.PhaseLoggingOut,
}

// NewCollector creates a collector reading from state.
func NewCollector(state StateFunc) *Collector {
	return &Collector{
		state: state,
		phase: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "session", "phase"),
			"1 for the current session phase, 0 otherwise.",
			[]string{"phase"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.phase
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	current := c.state().Phase
	for _, p := range phases {
		v := 0.0
		if p == current {
			v = 1
		}
		ch <- prometheus.MustNewConstMetric(c.phase, prometheus.GaugeValue, v, string(p))
	}
}

package metric

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"

	"github.com/yndnr/authsession-go/internal/core/domain"
)

func gather(t *testing.T, r *Registry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := r.Gatherer().Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	out := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		out[f.GetName()] = f
	}
	return out
}

func counterValue(f *dto.MetricFamily, labels map[string]string) float64 {
	if f == nil {
		return 0
	}
next:
	for _, m := range f.GetMetric() {
		for _, lp := range m.GetLabel() {
			if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
				continue next
			}
		}
		return m.GetCounter().GetValue()
	}
	return 0
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}
	if r.AuthOperations == nil || r.RequestsTotal == nil || r.RequestDuration == nil || r.ForcedClears == nil || r.RefreshShared == nil {
		t.Error("metric fields should be initialized")
	}
}

func TestRegistry_Observe(t *testing.T) {
	r := NewRegistry()

	r.ObserveOperation("login", nil)
	r.ObserveOperation("login", errors.New("bad credentials"))
	r.ObserveOperation("login", nil)
	r.ObserveRequest("GET", nil, 20*time.Millisecond)
	r.ObserveForcedClear("unauthorized")
	r.ObserveRefreshShared()

	families := gather(t, r)

	ops := families["authsession_session_operations_total"]
	if got := counterValue(ops, map[string]string{"operation": "login", "outcome": OutcomeSuccess}); got != 2 {
		t.Errorf("login success = %v, want 2", got)
	}
	if got := counterValue(ops, map[string]string{"operation": "login", "outcome": OutcomeFailure}); got != 1 {
		t.Errorf("login failure = %v, want 1", got)
	}
	if got := counterValue(families["authsession_pipeline_requests_total"], map[string]string{"method": "GET"}); got != 1 {
		t.Errorf("GET requests = %v, want 1", got)
	}
	if got := counterValue(families["authsession_pipeline_forced_clears_total"], map[string]string{"reason": "unauthorized"}); got != 1 {
		t.Errorf("forced clears = %v, want 1", got)
	}
	if _, ok := families["authsession_pipeline_request_duration_seconds"]; !ok {
		t.Error("request duration histogram missing")
	}
	if got := counterValue(families["authsession_session_refresh_shared_total"], nil); got != 1 {
		t.Errorf("refresh shared = %v, want 1", got)
	}
}

func TestRegistry_NilSafe(t *testing.T) {
	var r *Registry
	r.ObserveOperation("login", nil)
	r.ObserveRequest("GET", nil, time.Second)
	r.ObserveForcedClear("expired")
	r.ObserveRefreshShared()
	if err := r.WriteTextfile("/nonexistent/dir/metrics.prom"); err != nil {
		t.Errorf("WriteTextfile on nil registry = %v", err)
	}
	if r.Registerer() == nil || r.Gatherer() == nil {
		t.Error("nil registry should hand out a throwaway registry")
	}
}

func TestRegistry_WriteTextfile(t *testing.T) {
	r := NewRegistry()
	r.ObserveOperation("refresh", nil)

	path := filepath.Join(t.TempDir(), "authsession.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `authsession_session_operations_total{operation="refresh",outcome="success"} 1`) {
		t.Errorf("textfile missing refresh counter:\n%s", data)
	}
}

func TestCollector(t *testing.T) {
	state := domain.InitialState()
	r := NewRegistry()
	r.Registerer().MustRegister(NewCollector(func() domain.SessionState { return state }))

	phaseValue := func(phase domain.Phase) float64 {
		f := gather(t, r)["authsession_session_phase"]
		if f == nil {
			t.Fatal("phase gauge missing")
		}
		for _, m := range f.GetMetric() {
			if m.GetLabel()[0].GetValue() == string(phase) {
				return m.GetGauge().GetValue()
			}
		}
		t.Fatalf("phase %q not reported", phase)
		return 0
	}

	if phaseValue(domain.PhaseAnonymous) != 1 || phaseValue(domain.PhaseAuthenticated) != 0 {
		t.Error("initial phase should be anonymous")
	}

	state.Phase = domain.PhaseAuthenticated
	if phaseValue(domain.PhaseAuthenticated) != 1 || phaseValue(domain.PhaseAnonymous) != 0 {
		t.Error("phase change not reflected")
	}
}

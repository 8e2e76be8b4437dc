package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/alphabill-org/starregistry/observability"
)

/*
NOP creates observability implementation where everything is no-op.
*/
func NOP() *observability.Observability {
	return observability.NOP()
}

/*
Prometheus creates observability backed by Prometheus exporter, the
exporter is shut down when the test ends.
*/
func Prometheus(t testing.TB) *observability.Observability {
	obs, err := observability.New("prometheus", "test")
	if err != nil {
		t.Fatalf("creating observability: %v", err)
	}
	t.Cleanup(func() {
		if err := obs.Shutdown(); err != nil {
			t.Logf("shutting down observability: %v", err)
		}
	})
	return obs
}

/*
CounterValue returns the value of the Prometheus counter "name" (full name,
ie including namespace and "_total" suffix) which has all the labels listed
in "labels". Zero is returned when such counter doesn't exist.
*/
func CounterValue(t testing.TB, obs *observability.Observability, name string, labels map[string]string) float64 {
	t.Helper()
	mfs, err := obs.PrometheusRegisterer().(prometheus.Gatherer).Gather()
	if err != nil {
		t.Fatalf("gathering metrics: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if hasLabels(m, labels) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func hasLabels(m *dto.Metric, labels map[string]string) bool {
	found := 0
	for _, lp := range m.GetLabel() {
		if v, ok := labels[lp.GetName()]; ok {
			if v != lp.GetValue() {
				return false
			}
			found++
		}
	}
	return found == len(labels)
}

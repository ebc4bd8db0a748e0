package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registry authority. Mutations are
// counted by operation and outcome; the custodied gauge mirrors the total
// the registry currently holds.
type Metrics struct {
	Mutations *prometheus.CounterVec
	Custodied prometheus.Gauge
}

// New creates a Metrics instance with all authority metrics registered.
func New() *Metrics {
	return &Metrics{
		Mutations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fiscus_registry_mutations_total",
			Help: "Registry mutations by operation and outcome",
		}, []string{"operation", "outcome"}),
		Custodied: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "fiscus_registry_custodied_units",
			Help: "Total units currently held in custody",
		}),
	}
}

// ObserveMutation records one mutation attempt. Outcome is "ok" or the
// rejection code. Safe on a nil receiver.
func (m *Metrics) ObserveMutation(operation, outcome string) {
	if m == nil {
		return
	}
	m.Mutations.WithLabelValues(operation, outcome).Inc()
}

// SetCustodied updates the custodied gauge after a successful mutation.
// Safe on a nil receiver.
func (m *Metrics) SetCustodied(total int64) {
	if m == nil {
		return
	}
	m.Custodied.Set(float64(total))
}

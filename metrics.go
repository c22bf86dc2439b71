package async

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes the handful of Executor-level counters worth
// alerting on in a long-running process: root strands spawned, scope
// sweeps performed, panics recovered from strand bodies. Wiring it in
// via WithMetrics is optional; nothing on the await/resolve/emit hot
// path depends on it being present.
type Metrics struct {
	StrandsSpawned  prometheus.Counter
	ScopesCanceled  prometheus.Counter
	PanicsRecovered prometheus.Counter
}

// NewMetrics registers a fresh set of counters on reg, or on the
// default Prometheus registry if reg is nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		StrandsSpawned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "strand",
			Name:      "strands_spawned_total",
			Help:      "Root strands spawned via Executor.Go.",
		}),
		ScopesCanceled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "strand",
			Name:      "scopes_canceled_total",
			Help:      "Cancel sweeps that tore down at least one entry.",
		}),
		PanicsRecovered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "strand",
			Name:      "panics_recovered_total",
			Help:      "Panics recovered from a root strand body.",
		}),
	}
	reg.MustRegister(m.StrandsSpawned, m.ScopesCanceled, m.PanicsRecovered)
	return m
}

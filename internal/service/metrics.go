package service

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts resolution-engine events. All counters are registered on
// the registry the caller provides, so tests can use a private one.
type Metrics struct {
	Passes                 *prometheus.CounterVec
	SourceFailures         *prometheus.CounterVec
	ConflictsRetired       prometheus.Counter
	ConversationsRewritten prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Passes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "nametag",
				Name:      "resolution_passes_total",
				Help:      "Total resolution passes by result",
			},
			[]string{"result"},
		),
		SourceFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "nametag",
				Name:      "source_failures_total",
				Help:      "Total upstream source failures by source",
			},
			[]string{"source"},
		),
		ConflictsRetired: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "nametag",
				Name:      "conflicts_retired_total",
				Help:      "Total duplicate contacts retired by the conflict resolver",
			},
		),
		ConversationsRewritten: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "nametag",
				Name:      "conversations_rewritten_total",
				Help:      "Total conversations updated by the propagator",
			},
		),
	}

	reg.MustRegister(m.Passes, m.SourceFailures, m.ConflictsRetired, m.ConversationsRewritten)
	return m
}

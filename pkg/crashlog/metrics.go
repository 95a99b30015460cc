// metrics.go exposes Prometheus counters for the capture pipeline.

package crashlog

import "github.com/prometheus/client_golang/prometheus"

// Capture outcomes recorded on Metrics.Messages.
const (
	OutcomeBuilt     = "built"
	OutcomeFiltered  = "filtered"
	OutcomeThrottled = "throttled"
	OutcomeSent      = "sent"
	OutcomeFailed    = "failed"
	OutcomeDropped   = "dropped"
)

// Metrics tracks capture counters. A nil *Metrics records nothing.
type Metrics struct {
	Messages      *prometheus.CounterVec
	Installations *prometheus.CounterVec
	Breadcrumbs   prometheus.Counter
}

// NewMetrics creates the counters and registers them on reg when it is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Messages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crashlog_messages_total",
				Help: "Captured error messages by pipeline outcome",
			},
			[]string{"outcome"},
		),
		Installations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crashlog_installations_total",
				Help: "Installation registrations by outcome",
			},
			[]string{"outcome"},
		),
		Breadcrumbs: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "crashlog_breadcrumbs_total",
				Help: "Breadcrumbs added to the history",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Messages, m.Installations, m.Breadcrumbs)
	}
	return m
}

func (m *Metrics) message(outcome string) {
	if m == nil {
		return
	}
	m.Messages.WithLabelValues(outcome).Inc()
}

func (m *Metrics) installation(outcome string) {
	if m == nil {
		return
	}
	m.Installations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) breadcrumb() {
	if m == nil {
		return
	}
	m.Breadcrumbs.Inc()
}

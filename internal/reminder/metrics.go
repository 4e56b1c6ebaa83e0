package reminder

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts reminder outcomes and scheduler ticks.
type Metrics struct {
	reminders *prometheus.CounterVec
	ticks     prometheus.Counter
	lastTick  prometheus.Gauge
}

// NewMetrics registers the collectors on reg. A nil reg keeps them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		reminders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "summit",
				Subsystem: "reminder",
				Name:      "emails_total",
				Help:      "Reminder emails by outcome (sent, failed, skipped).",
			},
			[]string{"result"},
		),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "summit",
			Subsystem: "reminder",
			Name:      "ticks_total",
			Help:      "Scheduler polls executed.",
		}),
		lastTick: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "summit",
			Subsystem: "reminder",
			Name:      "last_tick_timestamp_seconds",
			Help:      "Unix time of the last completed poll.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.reminders, m.ticks, m.lastTick)
	}
	return m
}

func (m *Metrics) observe(r Result, unix float64) {
	if m == nil {
		return
	}
	m.ticks.Inc()
	m.lastTick.Set(unix)
	m.reminders.WithLabelValues("sent").Add(float64(r.Sent))
	m.reminders.WithLabelValues("failed").Add(float64(r.Failed))
	m.reminders.WithLabelValues("skipped").Add(float64(r.Skipped))
}

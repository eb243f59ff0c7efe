package reminder

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records reminder pass and delivery counters.
type Metrics struct {
	passes       *prometheus.CounterVec
	reminders    *prometheus.CounterVec
	passDuration prometheus.Histogram
	lastSuccess  prometheus.Gauge
	skippedTicks prometheus.Counter
}

// NewMetrics creates the reminder collectors and registers them with reg.
// A nil reg yields unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		passes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskflow",
			Subsystem: "reminder",
			Name:      "passes_total",
			Help:      "Reminder passes by result.",
		}, []string{"result"}),
		reminders: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskflow",
			Subsystem: "reminder",
			Name:      "reminders_total",
			Help:      "Reminder candidates by outcome.",
		}, []string{"outcome"}),
		passDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "taskflow",
			Subsystem: "reminder",
			Name:      "pass_duration_seconds",
			Help:      "Wall time of a reminder pass.",
			Buckets:   prometheus.DefBuckets,
		}),
		lastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "taskflow",
			Subsystem: "reminder",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last reminder pass that completed its candidate query.",
		}),
		skippedTicks: f.NewCounter(prometheus.CounterOpts{
			Namespace: "taskflow",
			Subsystem: "reminder",
			Name:      "skipped_ticks_total",
			Help:      "Ticks dropped because a pass was still running.",
		}),
	}
}

func (m *Metrics) observePass(r PassResult, err error) {
	if m == nil {
		return
	}
	m.passDuration.Observe(r.Duration.Seconds())
	if err != nil {
		m.passes.WithLabelValues("failed").Inc()
		return
	}
	m.passes.WithLabelValues("ok").Inc()
	m.lastSuccess.Set(float64(r.StartedAt.Unix()))
	m.reminders.WithLabelValues(OutcomeSent.String()).Add(float64(r.Sent))
	m.reminders.WithLabelValues(OutcomeSkipped.String()).Add(float64(r.Skipped))
	m.reminders.WithLabelValues(OutcomeFailed.String()).Add(float64(r.Failed))
}

func (m *Metrics) skippedTick() {
	if m == nil {
		return
	}
	m.skippedTicks.Inc()
}

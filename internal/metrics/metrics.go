package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles the dispatcher's Prometheus collectors.
type Metrics struct {
	MatchesTotal           prometheus.Counter
	MatchFailuresTotal     prometheus.Counter
	TicksSkippedTotal      prometheus.Counter
	LateNotificationsTotal prometheus.Counter
	TimeoutsTotal          prometheus.Counter
	CancellationsTotal     prometheus.Counter
	PublishFailuresTotal   prometheus.Counter
	PublishDroppedTotal    prometheus.Counter
	AvgCourierSpeed        prometheus.Gauge
	FreeCouriers           prometheus.Gauge
}

// New creates and registers the collectors on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		MatchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatch_matches_total",
			Help: "Total number of deliveries matched to a courier",
		}),
		MatchFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatch_match_failures_total",
			Help: "Total number of matching attempts with no candidate in range",
		}),
		TicksSkippedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatch_ticks_skipped_total",
			Help: "Total number of dispatch ticks skipped by admission control",
		}),
		LateNotificationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notify_late_total",
			Help: "Total number of behind-schedule notifications emitted",
		}),
		TimeoutsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notify_timeout_total",
			Help: "Total number of deliveries classified as timed out",
		}),
		CancellationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cancellations_reconciled_total",
			Help: "Total number of cancellations applied to the registry",
		}),
		PublishFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "publish_failures_total",
			Help: "Total number of failed outbound bus publishes",
		}),
		PublishDroppedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "publish_dropped_total",
			Help: "Total number of outbound messages dropped on queue overflow",
		}),
		AvgCourierSpeed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "avg_courier_speed_kmh",
			Help: "Average courier speed derived from completed deliveries",
		}),
		FreeCouriers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "free_couriers",
			Help: "Number of couriers currently free with a known location",
		}),
	}
	reg.MustRegister(
		m.MatchesTotal, m.MatchFailuresTotal, m.TicksSkippedTotal,
		m.LateNotificationsTotal, m.TimeoutsTotal, m.CancellationsTotal,
		m.PublishFailuresTotal, m.PublishDroppedTotal,
		m.AvgCourierSpeed, m.FreeCouriers,
	)
	return m
}

// NewNop returns collectors bound to a throwaway registry, for tests.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

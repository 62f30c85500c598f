package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(deliveriesTotal, triggerDuration, activeLoops) }

var (
	deliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mailer_deliveries_total",
			Help: "Messages handed to the chat transport, by kind and status.",
		},
		[]string{"kind", "status"}, // kind: report|alert
	)

	triggerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mailer_trigger_duration_seconds",
			Help:    "Wall time of one trigger execution.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"trigger"},
	)

	activeLoops = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mailer_active_loops",
		Help: "Number of running mailer loops.",
	})
)

func IncDelivery(kind, status string) {
	deliveriesTotal.WithLabelValues(norm(kind), norm(status)).Inc()
}

func ObserveTrigger(trigger string, d time.Duration) {
	triggerDuration.WithLabelValues(norm(trigger)).Observe(d.Seconds())
}

func LoopStarted() { activeLoops.Inc() }
func LoopStopped() { activeLoops.Dec() }

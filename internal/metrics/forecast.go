package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(forecastFetchTotal, renderTotal) }

var forecastFetchTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "forecast_fetch_total",
		Help: "Weather provider responses by outcome.",
	},
	[]string{"outcome"}, // ok, auth, not_found, transient, no_data, short
)

var renderTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "forecast_render_total",
		Help: "Chart renders by status.",
	},
	[]string{"status"},
)

func IncFetch(outcome string) {
	forecastFetchTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncRender(status string) {
	renderTotal.WithLabelValues(norm(status)).Inc()
}

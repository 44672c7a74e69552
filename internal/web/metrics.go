package web

import (
	"net/http"
	"time"

	"github.com/JonMunkholm/signup/internal/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the registration metrics and the registry they live in.
// Each Server owns its registry so tests never share collectors.
type Metrics struct {
	registry *prometheus.Registry

	registrations *prometheus.CounterVec
	duration      *prometheus.HistogramVec
}

func newMetrics(inFlight func() int) *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		registrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "signup",
				Name:      "registrations_total",
				Help:      "Registration attempts by outcome",
			},
			[]string{"outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "signup",
				Name:      "registration_duration_seconds",
				Help:      "Time spent in Writer.Create by outcome",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
	}

	reg.MustRegister(
		m.registrations,
		m.duration,
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: "signup",
				Name:      "registrations_in_flight",
				Help:      "Registrations currently holding an in-flight slot",
			},
			func() float64 { return float64(inFlight()) },
		),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// observe records one finished Create call.
func (m *Metrics) observe(outcome core.Outcome, elapsed time.Duration) {
	label := outcome.String()
	m.registrations.WithLabelValues(label).Inc()
	m.duration.WithLabelValues(label).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

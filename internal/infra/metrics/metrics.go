package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for attempts_total.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Recorder observes scrape attempts. A nil *Recorder ignores every call.
type Recorder struct {
	attempts    *prometheus.CounterVec
	duration    prometheus.Histogram
	lastTotal   prometheus.Gauge
	lastSuccess prometheus.Gauge
}

func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		attempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mvfscraper_attempts_total",
				Help: "Scrape attempts by outcome and failure kind.",
			},
			[]string{"outcome", "kind"},
		),
		duration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "mvfscraper_attempt_duration_seconds",
				Help:    "Wall time of one scrape attempt including session close.",
				Buckets: []float64{1, 2.5, 5, 10, 20, 30, 60, 120},
			},
		),
		lastTotal: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "mvfscraper_last_total_cubic_meters",
				Help: "Meter total from the last published reading.",
			},
		),
		lastSuccess: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "mvfscraper_last_success_timestamp_seconds",
				Help: "Unix time of the last published reading.",
			},
		),
	}
}

func (r *Recorder) ObserveSuccess(total float64, dur time.Duration) {
	if r == nil {
		return
	}
	r.attempts.WithLabelValues(OutcomeSuccess, "").Inc()
	r.duration.Observe(dur.Seconds())
	r.lastTotal.Set(total)
	r.lastSuccess.SetToCurrentTime()
}

func (r *Recorder) ObserveFailure(kind string, dur time.Duration) {
	if r == nil {
		return
	}
	r.attempts.WithLabelValues(OutcomeFailure, kind).Inc()
	r.duration.Observe(dur.Seconds())
}

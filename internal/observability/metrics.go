package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks report loads and the portal fetches behind them.
//
// Usage:
//
//	m := observability.NewMetrics(prometheus.DefaultRegisterer)
//	m.FetchSettled("panelists", err)
//	m.LoadFinished(elapsed, rows, err)
//
// All methods are safe on a nil *Metrics.
type Metrics struct {
	// LoadCounter counts full reloads.
	// Labels: status (success|error)
	LoadCounter *prometheus.CounterVec

	// LoadDuration measures full reload latency in seconds.
	LoadDuration prometheus.Histogram

	// FetchCounter counts individual collection fetches.
	// Labels: resource (groups|schedules|users|evaluations|rubricTemplates|panelists|scores|criteria),
	// status (success|error)
	FetchCounter *prometheus.CounterVec

	// Rows is the number of evaluation rows in the current snapshot.
	Rows prometheus.Gauge
}

// NewMetrics creates the metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		LoadCounter: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evalreports_loads_total",
				Help: "Total number of report reloads by status",
			},
			[]string{"status"},
		),
		LoadDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "evalreports_load_duration_seconds",
				Help:    "Duration of report reloads in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
		),
		FetchCounter: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evalreports_fetches_total",
				Help: "Total number of portal collection fetches by resource and status",
			},
			[]string{"resource", "status"},
		),
		Rows: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "evalreports_rows",
				Help: "Evaluation rows in the current report snapshot",
			},
		),
	}
}

func (m *Metrics) FetchSettled(resource string, err error) {
	if m == nil {
		return
	}
	m.FetchCounter.WithLabelValues(resource, status(err)).Inc()
}

func (m *Metrics) LoadFinished(elapsed time.Duration, rows int, err error) {
	if m == nil {
		return
	}
	m.LoadCounter.WithLabelValues(status(err)).Inc()
	m.LoadDuration.Observe(elapsed.Seconds())
	if err == nil {
		m.Rows.Set(float64(rows))
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

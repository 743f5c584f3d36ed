package observability

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestFetchSettled(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.FetchSettled("panelists", nil)
	m.FetchSettled("panelists", nil)
	m.FetchSettled("scores", errors.New("timeout"))

	expected := `
		# HELP evalreports_fetches_total Total number of portal collection fetches by resource and status
		# TYPE evalreports_fetches_total counter
		evalreports_fetches_total{resource="panelists",status="success"} 2
		evalreports_fetches_total{resource="scores",status="error"} 1
	`
	if err := testutil.CollectAndCompare(m.FetchCounter, strings.NewReader(expected)); err != nil {
		t.Errorf("Unexpected metric value: %v", err)
	}
}

func TestLoadFinished(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.LoadFinished(1500*time.Millisecond, 12, nil)
	m.LoadFinished(500*time.Millisecond, 0, errors.New("load users: 500"))

	if got := testutil.ToFloat64(m.LoadCounter.WithLabelValues("success")); got != 1 {
		t.Errorf("Expected 1 successful load, got %v", got)
	}
	if got := testutil.ToFloat64(m.LoadCounter.WithLabelValues("error")); got != 1 {
		t.Errorf("Expected 1 failed load, got %v", got)
	}
	// failed loads leave the gauge at the last good value
	if got := testutil.ToFloat64(m.Rows); got != 12 {
		t.Errorf("Expected rows gauge 12, got %v", got)
	}
	if count := testutil.CollectAndCount(m.LoadDuration); count != 1 {
		t.Errorf("Expected 1 histogram series, got %d", count)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.FetchSettled("groups", nil)
	m.LoadFinished(time.Second, 1, nil)
}

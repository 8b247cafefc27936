package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Observers(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveFetch("yahoo", 20*time.Millisecond, nil)
	m.ObserveFetch("yahoo", time.Millisecond, errors.New("timeout"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchErrors.WithLabelValues("yahoo")))

	m.ObserveAnalysis(time.Second, "")
	m.ObserveAnalysis(time.Second, "Insufficient data")
	m.ObserveAnalysis(time.Second, "")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.AnalysesTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnalysesTotal.WithLabelValues("Insufficient data")))

	m.ObserveBootstrap(1500*time.Millisecond, nil)
	m.ObserveBootstrap(0, errors.New("bad config"))
	assert.Equal(t, 1.5, testutil.ToFloat64(m.BootstrapDuration))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BootstrapErrors))

	m.SetBreakerState("yahoo", gobreaker.StateOpen)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.BreakerState.WithLabelValues("yahoo")))

	m.ObserveExploration(3)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExplorationsTotal))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics(nil)
	m.ObserveAnalysis(time.Millisecond, "")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `marketscout_analyses_total{outcome="ok"} 1`)
}

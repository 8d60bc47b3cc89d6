package monitoring

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCollector_ObserveAnalysis(t *testing.T) {
	mc := NewMetricsCollector()

	mc.ObserveAnalysis("price_change", "high", 2*time.Millisecond)
	mc.ObserveAnalysis("price_change", "high", time.Millisecond)
	mc.AnalysisFailed("unknown_ingredient")

	analyses := mc.metrics["analyses"].(*prometheus.CounterVec)
	assert.Equal(t, 2.0, testutil.ToFloat64(analyses.WithLabelValues("price_change", "high")))
	errs := mc.metrics["analysis_errors"].(*prometheus.CounterVec)
	assert.Equal(t, 1.0, testutil.ToFloat64(errs.WithLabelValues("unknown_ingredient")))
}

func TestMetricsCollector_RecordReload(t *testing.T) {
	mc := NewMetricsCollector()

	mc.RecordReload(true, map[string]int{"ingredients": 22, "menu": 8})
	mc.RecordReload(false, nil)

	reloads := mc.metrics["catalog_reloads"].(*prometheus.CounterVec)
	assert.Equal(t, 1.0, testutil.ToFloat64(reloads.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reloads.WithLabelValues("failure")))
	records := mc.metrics["catalog_records"].(*prometheus.GaugeVec)
	assert.Equal(t, 22.0, testutil.ToFloat64(records.WithLabelValues("ingredients")))
}

func TestMetricsCollector_StreamClients(t *testing.T) {
	mc := NewMetricsCollector()
	mc.StreamClients(1)
	mc.StreamClients(1)
	mc.StreamClients(-1)

	assert.Equal(t, 1.0, testutil.ToFloat64(mc.metrics["stream_clients"]))
}

func TestMetricsCollector_Handler(t *testing.T) {
	mc := NewMetricsCollector()
	mc.CacheLookup(true)
	mc.RecordParse("ollama", "ok")

	rec := httptest.NewRecorder()
	mc.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `menushock_analysis_cache_lookups_total{result="hit"} 1`))
	assert.True(t, strings.Contains(body, `menushock_parse_requests_total{provider="ollama",status="ok"} 1`))
}

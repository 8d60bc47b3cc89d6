// Package monitoring exposes Prometheus collectors and an in-process stats
// snapshot.
package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector owns a private registry and the service's collectors
type MetricsCollector struct {
	registry *prometheus.Registry
	metrics  map[string]prometheus.Collector
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector() *MetricsCollector {
	registry := prometheus.NewRegistry()

	analysisDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "menushock_analysis_duration_seconds",
			Help:    "Time taken to analyze an ingredient event",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		},
		[]string{"event_type"},
	)

	analyses := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menushock_analyses_total",
			Help: "Completed analyses by event type and risk tier",
		},
		[]string{"event_type", "risk_tier"},
	)

	analysisErrors := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menushock_analysis_errors_total",
			Help: "Failed analyses by reason",
		},
		[]string{"reason"},
	)

	cacheLookups := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menushock_analysis_cache_lookups_total",
			Help: "Analysis cache lookups by result",
		},
		[]string{"result"},
	)

	catalogReloads := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menushock_catalog_reloads_total",
			Help: "Catalog reload attempts by status",
		},
		[]string{"status"},
	)

	catalogRecords := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "menushock_catalog_records",
			Help: "Records in the live catalog",
		},
		[]string{"table"},
	)

	parseRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menushock_parse_requests_total",
			Help: "Free text parse requests by provider and status",
		},
		[]string{"provider", "status"},
	)

	streamClients := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "menushock_stream_clients",
			Help: "Connected websocket stream clients",
		},
	)

	metrics := map[string]prometheus.Collector{
		"analysis_duration": analysisDuration,
		"analyses":          analyses,
		"analysis_errors":   analysisErrors,
		"cache_lookups":     cacheLookups,
		"catalog_reloads":   catalogReloads,
		"catalog_records":   catalogRecords,
		"parse_requests":    parseRequests,
		"stream_clients":    streamClients,
	}

	for _, metric := range metrics {
		registry.MustRegister(metric)
	}
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &MetricsCollector{
		registry: registry,
		metrics:  metrics,
	}
}

// Registry returns the private registry
func (mc *MetricsCollector) Registry() *prometheus.Registry {
	return mc.registry
}

// Handler serves the registry in the Prometheus text format
func (mc *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(mc.registry, promhttp.HandlerOpts{Registry: mc.registry})
}

// ObserveAnalysis records a completed analysis
func (mc *MetricsCollector) ObserveAnalysis(eventType, tier string, elapsed time.Duration) {
	if histogram, ok := mc.metrics["analysis_duration"].(*prometheus.HistogramVec); ok {
		histogram.WithLabelValues(eventType).Observe(elapsed.Seconds())
	}
	if counter, ok := mc.metrics["analyses"].(*prometheus.CounterVec); ok {
		counter.WithLabelValues(eventType, tier).Inc()
	}
}

// AnalysisFailed counts a failed analysis
func (mc *MetricsCollector) AnalysisFailed(reason string) {
	if counter, ok := mc.metrics["analysis_errors"].(*prometheus.CounterVec); ok {
		counter.WithLabelValues(reason).Inc()
	}
}

// CacheLookup counts a cache hit or miss
func (mc *MetricsCollector) CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	if counter, ok := mc.metrics["cache_lookups"].(*prometheus.CounterVec); ok {
		counter.WithLabelValues(result).Inc()
	}
}

// RecordReload counts a reload and, on success, the new record counts
func (mc *MetricsCollector) RecordReload(ok bool, records map[string]int) {
	status := "failure"
	if ok {
		status = "success"
	}
	if counter, found := mc.metrics["catalog_reloads"].(*prometheus.CounterVec); found {
		counter.WithLabelValues(status).Inc()
	}
	if !ok {
		return
	}
	if gauge, found := mc.metrics["catalog_records"].(*prometheus.GaugeVec); found {
		for table, n := range records {
			gauge.WithLabelValues(table).Set(float64(n))
		}
	}
}

// RecordParse counts a parse request
func (mc *MetricsCollector) RecordParse(provider, status string) {
	if counter, ok := mc.metrics["parse_requests"].(*prometheus.CounterVec); ok {
		counter.WithLabelValues(provider, status).Inc()
	}
}

// StreamClients tracks connected stream clients
func (mc *MetricsCollector) StreamClients(delta int) {
	if gauge, ok := mc.metrics["stream_clients"].(prometheus.Gauge); ok {
		gauge.Add(float64(delta))
	}
}

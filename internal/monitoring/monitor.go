package monitoring

import (
	"sync"
	"time"
)

// Monitor keeps an in-process snapshot of service stats for /api/v1/stats
type Monitor struct {
	metrics      map[string]interface{}
	metricsMutex sync.RWMutex
	startTime    time.Time
}

// NewMonitor creates a new monitoring instance
func NewMonitor() *Monitor {
	return &Monitor{
		metrics:   make(map[string]interface{}),
		startTime: time.Now(),
	}
}

// RecordMetric records a metric value
func (m *Monitor) RecordMetric(name string, value interface{}) {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()
	m.metrics[name] = value
}

// GetMetric returns a specific metric value
func (m *Monitor) GetMetric(name string) (interface{}, bool) {
	m.metricsMutex.RLock()
	defer m.metricsMutex.RUnlock()
	value, exists := m.metrics[name]
	return value, exists
}

// GetMetrics returns all current metrics
func (m *Monitor) GetMetrics() map[string]interface{} {
	m.metricsMutex.RLock()
	defer m.metricsMutex.RUnlock()

	metrics := make(map[string]interface{}, len(m.metrics)+1)
	for k, v := range m.metrics {
		metrics[k] = v
	}
	metrics["uptime_seconds"] = time.Since(m.startTime).Seconds()

	return metrics
}

// Reset clears all metrics
func (m *Monitor) Reset() {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()
	m.metrics = make(map[string]interface{})
}

// Increment adds one to an integer counter
func (m *Monitor) Increment(name string) {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()
	n, _ := m.metrics[name].(int)
	m.metrics[name] = n + 1
}

// RecordAnalysis counts a finished analysis per event type and risk tier
func (m *Monitor) RecordAnalysis(eventType, tier string, affectedDishes int) {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()

	for _, key := range []string{"analyses_total", "analyses_" + eventType, "risk_" + tier} {
		n, _ := m.metrics[key].(int)
		m.metrics[key] = n + 1
	}
	m.metrics["last_affected_dishes"] = affectedDishes
	m.metrics["last_analysis_at"] = time.Now().Format(time.RFC3339)
}

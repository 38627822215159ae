package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ptlab/ptstat/internal/ports"
)

// testPrometheusMetrics provides a single shared instance to avoid
// duplicate metric registration panics across tests in this package.
var testPrometheusMetrics *PrometheusMetrics

func init() {
	testPrometheusMetrics = NewPrometheusMetrics()
}

func TestNewPrometheusMetrics(t *testing.T) {
	pm := testPrometheusMetrics

	assert.NotNil(t, pm)
	assert.NotNil(t, pm.executionLatency)
	assert.NotNil(t, pm.operationCounter)
	assert.NotNil(t, pm.valueDistributions)
	assert.NotNil(t, pm.systemGauges)

	var _ ports.MetricsCollector = pm
}

func TestPrometheusMetrics_Record(t *testing.T) {
	pm := testPrometheusMetrics

	tests := []struct {
		name   string
		record func()
	}{
		{
			name: "latency with analyte label",
			record: func() {
				pm.RecordLatency("round_analysis", 150*time.Millisecond, map[string]string{"analyte": "lead"})
			},
		},
		{
			name: "latency without analyte label falls back to unknown",
			record: func() {
				pm.RecordLatency("round_analysis", time.Second, nil)
			},
		},
		{
			name: "counter with status",
			record: func() {
				pm.RecordCounter("round_analyses_total", 1, map[string]string{"analyte": "lead", "status": "success"})
			},
		},
		{
			name: "counter without status falls back to unknown",
			record: func() {
				pm.RecordCounter("round_analyses_total", 1, map[string]string{"analyte": "lead"})
			},
		},
		{
			name: "gauge",
			record: func() {
				pm.RecordGauge("algorithm_a_participants_used", 12, map[string]string{"analyte": "lead"})
			},
		},
		{
			name: "histogram",
			record: func() {
				pm.RecordHistogram("algorithm_a_iterations", 7, map[string]string{"analyte": "lead"})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, tt.record)
		})
	}
}

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestHarvestMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHarvestMetrics(reg)

	m.ObservePage("RO182", PageOK, 100, 0.2)
	m.ObservePage("RO182", PageOK, 40, 0.1)
	m.ObservePage("RO182", PageError, 0, 1.5)
	m.ObserveSync("RO182", "success", 140)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.pagesTotal.WithLabelValues("RO182", PageOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pagesTotal.WithLabelValues("RO182", PageError)))
	assert.Equal(t, 140.0, testutil.ToFloat64(m.recordsTotal.WithLabelValues("RO182")))
	assert.Equal(t, 140.0, testutil.ToFloat64(m.rowsWritten.WithLabelValues("RO182")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.syncTotal.WithLabelValues("RO182", "success")))
}

func TestHarvestMetricsCustomRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHarvestMetrics(reg)
	m.ObserveSync("RO172", "empty", 0)

	families, err := reg.Gather()
	assert.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestHarvestMetricsNilSafe(t *testing.T) {
	var m *HarvestMetrics
	m.ObservePage("RO182", PageOK, 1, 0.1)
	m.ObserveSync("RO182", "success", 1)
}

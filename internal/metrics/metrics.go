package metrics

import "github.com/prometheus/client_golang/prometheus"

// Page outcomes.
const (
	PageOK    = "ok"
	PageEmpty = "empty"
	PageError = "error"
)

// HarvestMetrics exposes counters/histograms for harvest runs.
type HarvestMetrics struct {
	pagesTotal   *prometheus.CounterVec
	recordsTotal *prometheus.CounterVec
	rowsWritten  *prometheus.CounterVec
	syncTotal    *prometheus.CounterVec
	pageLatency  *prometheus.HistogramVec
}

func NewHarvestMetrics(reg prometheus.Registerer) *HarvestMetrics {
	m := &HarvestMetrics{
		pagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leads",
			Subsystem: "harvest",
			Name:      "pages_total",
			Help:      "Total directory page requests by outcome",
		}, []string{"role", "outcome"}),
		recordsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leads",
			Subsystem: "harvest",
			Name:      "records_total",
			Help:      "Total organisation records harvested",
		}, []string{"role"}),
		rowsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leads",
			Subsystem: "export",
			Name:      "rows_written_total",
			Help:      "Total lead rows written to export files",
		}, []string{"role"}),
		syncTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leads",
			Subsystem: "export",
			Name:      "runs_total",
			Help:      "Total role runs by final status",
		}, []string{"role", "status"}),
		pageLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "leads",
			Subsystem: "harvest",
			Name:      "page_latency_seconds",
			Help:      "Latency of directory page requests, retries included",
			Buckets:   prometheus.DefBuckets,
		}, []string{"role"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.pagesTotal, m.recordsTotal, m.rowsWritten, m.syncTotal, m.pageLatency)
	return m
}

// ObservePage records one page request.
func (m *HarvestMetrics) ObservePage(role, outcome string, records int, seconds float64) {
	if m == nil {
		return
	}
	m.pagesTotal.WithLabelValues(role, outcome).Inc()
	m.pageLatency.WithLabelValues(role).Observe(seconds)
	if records > 0 {
		m.recordsTotal.WithLabelValues(role).Add(float64(records))
	}
}

// ObserveSync records the final status of one role run.
func (m *HarvestMetrics) ObserveSync(role, status string, rowsWritten int) {
	if m == nil {
		return
	}
	m.syncTotal.WithLabelValues(role, status).Inc()
	if rowsWritten > 0 {
		m.rowsWritten.WithLabelValues(role).Add(float64(rowsWritten))
	}
}

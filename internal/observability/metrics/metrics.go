package metrics

import (
	"database/sql"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "solarfleet_"

	resultSuccess = "success"
	resultError   = "error"
)

// Metrics bundles pipeline metrics. Construct once at startup.
type Metrics struct {
	RunsTotal         *prometheus.CounterVec
	RunDuration       prometheus.Histogram
	DocumentsTotal    *prometheus.CounterVec
	RowsExtracted     prometheus.Counter
	DatesDropped      prometheus.Counter
	SeriesSize        prometheus.Gauge
	SitesTotal        prometheus.Gauge
	SitesOnline       prometheus.Gauge
	SitesCritical     prometheus.Gauge
	FleetYield30d     prometheus.Gauge
	DegradationSites  *prometheus.GaugeVec
	ReportExportTotal *prometheus.CounterVec
}

// New constructs and registers pipeline metrics.
func New() *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "runs_total",
				Help: "Total pipeline runs by status",
			},
			[]string{"status"},
		),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    metricPrefix + "run_duration_seconds",
			Help:    "Pipeline run duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		DocumentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "documents_total",
				Help: "Total monitoring documents by outcome",
			},
			[]string{"outcome"},
		),
		RowsExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "rows_extracted_total",
			Help: "Total data rows extracted from documents",
		}),
		DatesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "dates_dropped_total",
			Help: "Total rows dropped for unparseable dates",
		}),
		SeriesSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "series_points",
			Help: "Canonical series size after the last run",
		}),
		SitesTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "sites_total",
			Help: "Profiled sites in the last run",
		}),
		SitesOnline: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "sites_online",
			Help: "Sites producing across the trailing observed days",
		}),
		SitesCritical: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "sites_critical",
			Help: "Sites with history but no recent production",
		}),
		FleetYield30d: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "fleet_yield_30d",
			Help: "Capacity-weighted 30-day fleet specific yield",
		}),
		DegradationSites: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "degradation_sites",
				Help: "Analyzed sites by degradation category",
			},
			[]string{"category"},
		),
		ReportExportTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_export_total",
				Help: "Total report exports by format and result",
			},
			[]string{"format", "result"},
		),
	}
	prometheus.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.DocumentsTotal,
		m.RowsExtracted,
		m.DatesDropped,
		m.SeriesSize,
		m.SitesTotal,
		m.SitesOnline,
		m.SitesCritical,
		m.FleetYield30d,
		m.DegradationSites,
		m.ReportExportTotal,
	)
	return m
}

// ObserveRun records one pipeline run.
func (m *Metrics) ObserveRun(err error, duration time.Duration) {
	if m == nil {
		return
	}
	status := resultSuccess
	if err != nil {
		status = resultError
	}
	m.RunsTotal.WithLabelValues(status).Inc()
	m.RunDuration.Observe(duration.Seconds())
}

// ObserveExport records one report export.
func (m *Metrics) ObserveExport(format string, err error) {
	if m == nil {
		return
	}
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	m.ReportExportTotal.WithLabelValues(format, result).Inc()
}

// RegisterDBMetrics adds DB-backed gauges for the durable series and site
// tables.
func RegisterDBMetrics(db *sql.DB, logger *log.Logger) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "stored_readings",
			Help: "Rows in the canonical readings table",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM production_readings")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "stored_sites",
			Help: "Rows in the site metadata table",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM sites")
		},
	))
}

func queryCount(db *sql.DB, logger *log.Logger, query string) float64 {
	if db == nil {
		return 0
	}
	var count int64
	if err := db.QueryRow(query).Scan(&count); err != nil {
		if logger != nil {
			logger.Printf("metrics query failed: %v", err)
		}
		return 0
	}
	if count < 0 {
		return 0
	}
	return float64(count)
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	BuyersCreated       prometheus.Counter
	BuyersUpdated       prometheus.Counter
	BuyersDeleted       prometheus.Counter
	UpdateConflicts     prometheus.Counter
	ImportedRows        prometheus.Counter
	ImportRejectedRows  prometheus.Counter
	HistoryEntries      *prometheus.CounterVec
	HistoryPublishFails prometheus.Counter
	ValidationFailures  *prometheus.CounterVec
	ListLatency         prometheus.Histogram
	RateLimited         *prometheus.CounterVec
	RequestLatency      *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		BuyersCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "leadbook_buyers_created_total",
			Help: "Total number of buyer leads created through the API",
		}),
		BuyersUpdated: f.NewCounter(prometheus.CounterOpts{
			Name: "leadbook_buyers_updated_total",
			Help: "Total number of buyer updates that changed at least one field",
		}),
		BuyersDeleted: f.NewCounter(prometheus.CounterOpts{
			Name: "leadbook_buyers_deleted_total",
			Help: "Total number of buyer leads deleted",
		}),
		UpdateConflicts: f.NewCounter(prometheus.CounterOpts{
			Name: "leadbook_buyer_update_conflicts_total",
			Help: "Updates rejected because the record changed since it was read",
		}),
		ImportedRows: f.NewCounter(prometheus.CounterOpts{
			Name: "leadbook_import_rows_imported_total",
			Help: "CSV rows inserted by successful imports",
		}),
		ImportRejectedRows: f.NewCounter(prometheus.CounterOpts{
			Name: "leadbook_import_rows_rejected_total",
			Help: "CSV rows rejected by validation",
		}),
		HistoryEntries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "leadbook_history_entries_total",
			Help: "History entries written, by action",
		}, []string{"action"}),
		ValidationFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "leadbook_validation_failures_total",
			Help: "Field validation failures, by field",
		}, []string{"field"}),
		ListLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "leadbook_buyer_list_duration_seconds",
			Help:    "Time spent listing and counting buyers",
			Buckets: prometheus.DefBuckets,
		}),
		HistoryPublishFails: f.NewCounter(prometheus.CounterOpts{
			Name: "leadbook_history_publish_failures_total",
			Help: "History events that could not be published to Kafka",
		}),
		RateLimited: f.NewCounterVec(prometheus.CounterOpts{
			Name: "leadbook_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		}, []string{"action"}),
		RequestLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "leadbook_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) IncrementBuyersCreated() {
	if m != nil {
		m.BuyersCreated.Inc()
	}
}

func (m *Metrics) IncrementBuyersUpdated() {
	if m != nil {
		m.BuyersUpdated.Inc()
	}
}

func (m *Metrics) IncrementBuyersDeleted() {
	if m != nil {
		m.BuyersDeleted.Inc()
	}
}

func (m *Metrics) IncrementUpdateConflicts() {
	if m != nil {
		m.UpdateConflicts.Inc()
	}
}

// ObserveImport records the outcome of one CSV import.
func (m *Metrics) ObserveImport(imported, rejected int) {
	if m == nil {
		return
	}
	m.ImportedRows.Add(float64(imported))
	m.ImportRejectedRows.Add(float64(rejected))
}

func (m *Metrics) IncrementHistoryEntries(action string) {
	if m != nil {
		m.HistoryEntries.WithLabelValues(action).Inc()
	}
}

// ObserveValidationFailures counts one failure per field.
func (m *Metrics) ObserveValidationFailures(fields []string) {
	if m == nil {
		return
	}
	for _, f := range fields {
		m.ValidationFailures.WithLabelValues(f).Inc()
	}
}

func (m *Metrics) ObserveListLatency(seconds float64) {
	if m != nil {
		m.ListLatency.Observe(seconds)
	}
}

func (m *Metrics) IncrementHistoryPublishFails() {
	if m != nil {
		m.HistoryPublishFails.Inc()
	}
}

func (m *Metrics) IncrementRateLimited(action string) {
	if m != nil {
		m.RateLimited.WithLabelValues(action).Inc()
	}
}

func (m *Metrics) ObserveRequestLatency(method, route, status string, seconds float64) {
	if m != nil {
		m.RequestLatency.WithLabelValues(method, route, status).Observe(seconds)
	}
}

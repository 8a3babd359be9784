package catalog

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts catalog mutations. A nil *Metrics records nothing.
type Metrics struct {
	Products      prometheus.Gauge
	Added         prometheus.Counter
	Updated       prometheus.Counter
	Deleted       prometheus.Counter
	Rejected      *prometheus.CounterVec
	StorageErrors *prometheus.CounterVec
}

const (
	reasonValidation = "validation"
	reasonDuplicate  = "duplicate_code"
	reasonNotFound   = "not_found"
)

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Products: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "catalog_products",
			Help: "Products currently held in the catalog",
		}),
		Added: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalog_products_added_total",
			Help: "Products added",
		}),
		Updated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalog_products_updated_total",
			Help: "Products updated",
		}),
		Deleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalog_products_deleted_total",
			Help: "Products deleted",
		}),
		Rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_operations_rejected_total",
			Help: "Catalog operations rejected before any change",
		}, []string{"op", "reason"}),
		StorageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_storage_errors_total",
			Help: "Failed snapshot loads and saves",
		}, []string{"op"}),
	}

	reg.MustRegister(m.Products, m.Added, m.Updated, m.Deleted, m.Rejected, m.StorageErrors)
	return m
}

func (m *Metrics) size(n int) {
	if m != nil {
		m.Products.Set(float64(n))
	}
}

func (m *Metrics) added() {
	if m != nil {
		m.Added.Inc()
	}
}

func (m *Metrics) updated() {
	if m != nil {
		m.Updated.Inc()
	}
}

func (m *Metrics) deleted() {
	if m != nil {
		m.Deleted.Inc()
	}
}

func (m *Metrics) rejected(op, reason string) {
	if m != nil {
		m.Rejected.WithLabelValues(op, reason).Inc()
	}
}

func (m *Metrics) storageError(op string) {
	if m != nil {
		m.StorageErrors.WithLabelValues(op).Inc()
	}
}

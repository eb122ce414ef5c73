package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

const namespace = "lejting"

// Metrics holds the rental counters on a private registry. A CLI run has no
// scrape endpoint, so the registry is flushed to a node-exporter textfile.
type Metrics struct {
	registry *prometheus.Registry

	Rentals     prometheus.Counter
	Returns     prometheus.Counter
	Revenue     prometheus.Counter
	Rejections  *prometheus.CounterVec
	Items       prometheus.Gauge
	ItemsRented prometheus.Gauge
}

// New creates and registers the metrics.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Rentals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rentals_total",
			Help:      "Rentals started.",
		}),
		Returns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "returns_total",
			Help:      "Rented items returned.",
		}),
		Revenue: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "revenue_total",
			Help:      "Sum of rental totals in the ledger currency.",
		}),
		Rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejections_total",
			Help:      "Ledger operations rejected, by operation.",
		}, []string{"operation"}),
		Items: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "items",
			Help:      "Items in the catalog.",
		}),
		ItemsRented: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "items_rented",
			Help:      "Items currently rented out.",
		}),
	}

	m.registry.MustRegister(m.Rentals, m.Returns, m.Revenue, m.Rejections, m.Items, m.ItemsRented)
	return m
}

// ObserveRental counts a started rental and its total.
func (m *Metrics) ObserveRental(total decimal.Decimal) {
	m.Rentals.Inc()
	if total.IsPositive() {
		m.Revenue.Add(total.InexactFloat64())
	}
}

// ObserveReturn counts a returned item.
func (m *Metrics) ObserveReturn() {
	m.Returns.Inc()
}

// ObserveRejection counts a failed operation.
func (m *Metrics) ObserveRejection(operation string) {
	m.Rejections.WithLabelValues(operation).Inc()
}

// SetInventory records the catalog size and how much of it is rented.
func (m *Metrics) SetInventory(total, rented int) {
	m.Items.Set(float64(total))
	m.ItemsRented.Set(float64(rented))
}

// WriteTextfile writes the current values in the Prometheus text format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

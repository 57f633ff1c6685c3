package obs

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/noah-isme/backend-apotek/internal/events"
)

var (
	domainOnce sync.Once

	// DomainEventsTotal counts emitted domain events by topic.
	DomainEventsTotal *prometheus.CounterVec
	// SaleCompletedValue records the total amount of completed sales.
	SaleCompletedValue prometheus.Histogram
	// StockRemovalsRejected counts stock removals rejected for insufficient stock.
	StockRemovalsRejected prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		DomainEventsTotal = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "domain_events_total",
			Help:      "Count of emitted domain events by topic.",
		}, []string{"topic"}))

		saleValue := prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sale_completed_value",
			Help:      "Distribution of completed sale totals in major currency units.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000},
		})
		if err := reg.Register(saleValue); err != nil {
			if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
				if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
					saleValue = existing
				}
			} else {
				panic(err)
			}
		}
		SaleCompletedValue = saleValue

		rejected := prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_removals_rejected_total",
			Help:      "Count of stock removals rejected because the quantity was unavailable.",
		})
		if err := reg.Register(rejected); err != nil {
			if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
				if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
					rejected = existing
				}
			} else {
				panic(err)
			}
		}
		StockRemovalsRejected = rejected
	})
}

// RegisterLowStockGauge exposes the current number of low-stock items as a
// gauge backed by the provided count function.
func RegisterLowStockGauge(namespace string, reg prometheus.Registerer, count func() int) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gauge := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "stock_low_items",
		Help:      "Number of tracked items at or below their reorder level.",
	}, func() float64 {
		return float64(count())
	})
	if err := reg.Register(gauge); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			panic(err)
		}
	}
}

// MetricsNotifier bridges the event bus into Prometheus counters.
type MetricsNotifier struct{}

// Notify implements events.Notifier.
func (MetricsNotifier) Notify(_ context.Context, event events.Event) error {
	if DomainEventsTotal != nil {
		DomainEventsTotal.WithLabelValues(event.Topic).Inc()
	}
	return nil
}

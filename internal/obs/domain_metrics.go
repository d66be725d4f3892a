package obs

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics groups the Prometheus collectors for checkout outcomes.
type CheckoutMetrics struct {
	// CheckoutTotal counts checkouts by terminal state.
	CheckoutTotal *prometheus.CounterVec
	// FinalAmount observes the amount submitted to payment authorization.
	FinalAmount *prometheus.HistogramVec
	// FulfillmentFailures counts settlement collaborator failures by stage.
	FulfillmentFailures *prometheus.CounterVec
}

// MustRegisterCheckoutMetrics initialises and registers checkout collectors on reg.
// Collectors already present on reg are reused.
func MustRegisterCheckoutMetrics(namespace string, reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &CheckoutMetrics{
		CheckoutTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_total",
			Help:      "Count of checkouts by terminal state.",
		}, []string{"state", "payment_method"}),
		FinalAmount: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "checkout_final_amount",
			Help:      "Distribution of final amounts submitted to payment authorization.",
			Buckets:   []float64{10, 50, 100, 250, 500, 750, 1000, 2500, 5000},
		}, []string{"payment_method"}),
		FulfillmentFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_fulfillment_failures_total",
			Help:      "Count of settlement collaborator failures after payment approval.",
		}, []string{"stage"}),
	}

	mustRegisterCollector(reg, m.CheckoutTotal, func(existing prometheus.Collector) {
		if v, ok := existing.(*prometheus.CounterVec); ok {
			m.CheckoutTotal = v
		}
	})
	mustRegisterCollector(reg, m.FinalAmount, func(existing prometheus.Collector) {
		if v, ok := existing.(*prometheus.HistogramVec); ok {
			m.FinalAmount = v
		}
	})
	mustRegisterCollector(reg, m.FulfillmentFailures, func(existing prometheus.Collector) {
		if v, ok := existing.(*prometheus.CounterVec); ok {
			m.FulfillmentFailures = v
		}
	})
	return m
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register checkout metric: %w", err))
	}
}

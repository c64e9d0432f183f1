package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// PriceResolutionTotal counts price resolutions by winning tier.
	PriceResolutionTotal *prometheus.CounterVec
	// CheckoutTotal counts checkout submissions by currency and result.
	CheckoutTotal *prometheus.CounterVec
	// BulkRuleApplyTotal counts per-product outcomes of bulk rule application.
	BulkRuleApplyTotal *prometheus.CounterVec
	// ViesLookupTotal counts VAT-registry lookups by outcome.
	ViesLookupTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		PriceResolutionTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_resolution_total",
			Help:      "Count of price resolutions by winning tier and currency.",
		}, []string{"tier", "currency"})
		CheckoutTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_total",
			Help:      "Count of checkout submissions by currency and result.",
		}, []string{"currency", "result"})
		BulkRuleApplyTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bulk_rule_apply_total",
			Help:      "Per-product outcomes of bulk B2B rule application.",
		}, []string{"result"})
		ViesLookupTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vies_lookup_total",
			Help:      "Count of VAT-registry lookups by outcome.",
		}, []string{"result"})

		mustRegisterCollector(reg, PriceResolutionTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				PriceResolutionTotal = v
			}
		})
		mustRegisterCollector(reg, CheckoutTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CheckoutTotal = v
			}
		})
		mustRegisterCollector(reg, BulkRuleApplyTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				BulkRuleApplyTotal = v
			}
		})
		mustRegisterCollector(reg, ViesLookupTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ViesLookupTotal = v
			}
		})
	})
}

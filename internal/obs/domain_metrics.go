package obs

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CheckoutSubmitTotal counts checkout submission outcomes.
	CheckoutSubmitTotal *prometheus.CounterVec
	// CheckoutHoldTotal counts hold/draft outcomes.
	CheckoutHoldTotal *prometheus.CounterVec
	// RoundOffAppliedTotal counts accepted round-off adjustments.
	RoundOffAppliedTotal prometheus.Counter
	// ShareDeliveriesTotal counts receipt share delivery outcomes per channel.
	ShareDeliveriesTotal *prometheus.CounterVec
	// ERPRequestsTotal counts outbound ERP calls by operation and outcome.
	ERPRequestsTotal *prometheus.CounterVec
	// ERPRequestLatency records outbound ERP call latency in milliseconds.
	ERPRequestLatency *prometheus.HistogramVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CheckoutSubmitTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_submit_total",
			Help:      "Count of checkout submission outcomes.",
		}, []string{"result"})
		CheckoutHoldTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_hold_total",
			Help:      "Count of hold/draft outcomes.",
		}, []string{"result"})
		RoundOffAppliedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "roundoff_applied_total",
			Help:      "Number of accepted round-off adjustments.",
		})
		ShareDeliveriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "share_deliveries_total",
			Help:      "Count of receipt share delivery outcomes.",
		}, []string{"channel", "result"})
		ERPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "erp_requests_total",
			Help:      "Count of outbound ERP requests by operation and outcome.",
		}, []string{"operation", "result"})
		ERPRequestLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "erp_request_duration_ms",
			Help:      "Latency of outbound ERP requests in milliseconds.",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"operation"})

		mustRegisterCollector(reg, CheckoutSubmitTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CheckoutSubmitTotal = v
			}
		})
		mustRegisterCollector(reg, CheckoutHoldTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CheckoutHoldTotal = v
			}
		})
		mustRegisterCollector(reg, RoundOffAppliedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				RoundOffAppliedTotal = v
			}
		})
		mustRegisterCollector(reg, ShareDeliveriesTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ShareDeliveriesTotal = v
			}
		})
		mustRegisterCollector(reg, ERPRequestsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ERPRequestsTotal = v
			}
		})
		mustRegisterCollector(reg, ERPRequestLatency, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				ERPRequestLatency = v
			}
		})
	})
}

// ObserveERPRequest records a single outbound ERP call. Safe to call before
// metric registration; it then becomes a no-op.
func ObserveERPRequest(operation, result string, d time.Duration) {
	if ERPRequestsTotal != nil {
		ERPRequestsTotal.WithLabelValues(operation, result).Inc()
	}
	if ERPRequestLatency != nil {
		ERPRequestLatency.WithLabelValues(operation).Observe(DurationMillis(d))
	}
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}

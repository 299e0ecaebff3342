package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// QuotesComputedTotal counts priced quotes by bundle tier ("none" without a bundle).
	QuotesComputedTotal *prometheus.CounterVec
	// QuoteDevelopmentCost records the one-time development cost of priced quotes.
	QuoteDevelopmentCost prometheus.Histogram
	// PromoValidationsTotal counts promo code checks by result (applied, empty, invalid).
	PromoValidationsTotal *prometheus.CounterVec
	// ExportsTotal counts generated quote documents by format and result.
	ExportsTotal *prometheus.CounterVec
	// QuoteEmailsTotal counts quote email tasks by stage and result.
	QuoteEmailsTotal *prometheus.CounterVec
	// SessionOpsTotal counts session store operations by op and result.
	SessionOpsTotal *prometheus.CounterVec
	// RateLimitedTotal counts requests rejected by a rate limit bucket.
	RateLimitedTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		QuotesComputedTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_computed_total",
			Help:      "Count of priced quotes by bundle tier.",
		}, []string{"tier"}))
		QuoteDevelopmentCost = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quote_development_cost",
			Help:      "One-time development cost of priced quotes in whole currency units.",
			Buckets:   []float64{250, 500, 750, 1000, 1500, 2500, 4000, 6000, 10000},
		}))
		PromoValidationsTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promo_validations_total",
			Help:      "Count of promo code validations by result.",
		}, []string{"result"}))
		ExportsTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_exports_total",
			Help:      "Count of generated quote documents by format and result.",
		}, []string{"format", "result"}))
		QuoteEmailsTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_emails_total",
			Help:      "Count of quote email tasks by stage and result.",
		}, []string{"stage", "result"}))
		SessionOpsTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_operations_total",
			Help:      "Count of session store operations by op and result.",
		}, []string{"op", "result"}))
		RateLimitedTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Count of requests rejected by rate limit bucket.",
		}, []string{"bucket"}))
	})
}

// Inc increments a labelled counter when domain metrics are registered.
func Inc(vec *prometheus.CounterVec, labels ...string) {
	if vec == nil {
		return
	}
	vec.WithLabelValues(labels...).Inc()
}

// Observe records a value when the histogram is registered.
func Observe(h prometheus.Histogram, v float64) {
	if h == nil {
		return
	}
	h.Observe(v)
}

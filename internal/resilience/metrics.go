package resilience

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// BreakerState is 0 closed, 1 open, 2 half-open per dependency.
	BreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "webquote_breaker_state",
		Help: "Circuit breaker state per dependency: 0 closed, 1 open, 2 half-open.",
	}, []string{"dependency"})
	// BreakerTransitions counts state changes per dependency.
	BreakerTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webquote_breaker_transitions_total",
		Help: "Circuit breaker state transitions per dependency.",
	}, []string{"dependency", "from", "to"})
)

// RegisterMetrics registers the breaker collectors. Registering twice on the
// same registry is harmless.
func RegisterMetrics(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{BreakerState, BreakerTransitions} {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				return err
			}
		}
	}
	return nil
}

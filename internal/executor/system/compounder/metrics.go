package compounder

import "github.com/prometheus/client_golang/prometheus"

var (
	compoundCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "axiom_vault",
		Subsystem: "compounder",
		Name:      "compound_counter",
		Help:      "The total number of auto compound passes",
	})

	swapCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "axiom_vault",
		Subsystem: "compounder",
		Name:      "swap_counter",
		Help:      "The total number of successful reward swaps",
	})

	failedSwapCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "axiom_vault",
		Subsystem: "compounder",
		Name:      "failed_swap_counter",
		Help:      "The total number of reward swaps that were rolled back, by reward token",
	}, []string{"token"})

	reinvestedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "axiom_vault",
		Subsystem: "compounder",
		Name:      "last_reinvested",
		Help:      "The asset amount reinvested by the latest auto compound pass",
	})
)

func init() {
	prometheus.MustRegister(compoundCounter)
	prometheus.MustRegister(swapCounter)
	prometheus.MustRegister(failedSwapCounter)
	prometheus.MustRegister(reinvestedGauge)
}

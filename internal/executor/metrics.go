package executor

import "github.com/prometheus/client_golang/prometheus"

var (
	executeBlockDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "axiom_vault",
		Subsystem: "executor",
		Name:      "execute_block_duration_second",
		Help:      "The total latency of block execute",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 10),
	})

	txCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "axiom_vault",
		Subsystem: "executor",
		Name:      "tx_counter",
		Help:      "The total number of executed transactions",
	})

	failedTxCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "axiom_vault",
		Subsystem: "executor",
		Name:      "failed_tx_counter",
		Help:      "The total number of reverted transactions",
	})

	keeperCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "axiom_vault",
		Subsystem: "executor",
		Name:      "keeper_counter",
		Help:      "The total number of keeper compounding calls by result",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(executeBlockDuration)
	prometheus.MustRegister(txCounter)
	prometheus.MustRegister(failedTxCounter)
	prometheus.MustRegister(keeperCounter)
}

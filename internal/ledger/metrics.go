package ledger

import "github.com/prometheus/client_golang/prometheus"

var (
	persistBlockDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "axiom_vault",
		Subsystem: "ledger",
		Name:      "persist_block_duration_second",
		Help:      "The total latency of block persist",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 10),
	})

	versionMetric = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "axiom_vault",
		Subsystem: "ledger",
		Name:      "version",
		Help:      "the latest committed state version",
	})

	stateReadDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "axiom_vault",
		Subsystem: "ledger",
		Name:      "state_read_duration",
		Help:      "The total latency of read a state from db",
		Buckets:   prometheus.ExponentialBuckets(0.00001, 2, 10),
	})

	flushedStateCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "axiom_vault",
		Subsystem: "ledger",
		Name:      "flushed_state_counter",
		Help:      "The total number of states flushed into db",
	})

	accountCacheHit = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "axiom_vault",
		Subsystem: "ledger",
		Name:      "account_cache_hit",
		Help:      "The total number of account cache hit",
	})

	accountCacheMiss = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "axiom_vault",
		Subsystem: "ledger",
		Name:      "account_cache_miss",
		Help:      "The total number of account cache miss",
	})
)

func init() {
	prometheus.MustRegister(persistBlockDuration)
	prometheus.MustRegister(versionMetric)
	prometheus.MustRegister(stateReadDuration)
	prometheus.MustRegister(flushedStateCounter)
	prometheus.MustRegister(accountCacheHit)
	prometheus.MustRegister(accountCacheMiss)
}

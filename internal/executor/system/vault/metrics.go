package vault

import "github.com/prometheus/client_golang/prometheus"

var (
	depositCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "axiom_vault",
		Subsystem: "vault",
		Name:      "deposit_counter",
		Help:      "The total number of deposits and mints",
	})

	withdrawCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "axiom_vault",
		Subsystem: "vault",
		Name:      "withdraw_counter",
		Help:      "The total number of withdrawals and redeems",
	})

	rewardAddedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "axiom_vault",
		Subsystem: "vault",
		Name:      "reward_added_counter",
		Help:      "The total number of reward additions per token",
	}, []string{"token"})

	rewardClaimedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "axiom_vault",
		Subsystem: "vault",
		Name:      "reward_claimed_counter",
		Help:      "The total number of non-zero reward payouts per token",
	}, []string{"token"})
)

func init() {
	prometheus.MustRegister(depositCounter)
	prometheus.MustRegister(withdrawCounter)
	prometheus.MustRegister(rewardAddedCounter)
	prometheus.MustRegister(rewardClaimedCounter)
}

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// StakingMetrics aggregates the Prometheus collectors for the staking module.
type StakingMetrics struct {
	opsTotal          *prometheus.CounterVec
	rewardsPaid       prometheus.Counter
	reentrancyRejects prometheus.Counter
	totalStaked       prometheus.Gauge
}

var (
	stakingOnce     sync.Once
	stakingRegistry *StakingMetrics
)

// Staking returns the process-wide staking metrics, registering the
// collectors on first use.
func Staking() *StakingMetrics {
	stakingOnce.Do(func() {
		stakingRegistry = &StakingMetrics{
			opsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "staking_ops_total",
				Help: "Count of staking operations by kind and result.",
			}, []string{"op", "result"}),
			rewardsPaid: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "staking_rewards_paid_wei_total",
				Help: "Cumulative reward-token wei paid out by claims.",
			}),
			reentrancyRejects: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "staking_reentrancy_rejected_total",
				Help: "Count of mutating calls rejected by the reentrancy guard.",
			}),
			totalStaked: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "staking_total_staked_wei",
				Help: "Stake-token wei currently held in custody.",
			}),
		}
		prometheus.MustRegister(
			stakingRegistry.opsTotal,
			stakingRegistry.rewardsPaid,
			stakingRegistry.reentrancyRejects,
			stakingRegistry.totalStaked,
		)
	})
	return stakingRegistry
}

// ObserveOp records the outcome of a staking operation.
func (m *StakingMetrics) ObserveOp(op, result string) {
	if m == nil {
		return
	}
	m.opsTotal.WithLabelValues(op, result).Inc()
}

// AddRewardsPaid accumulates paid rewards in wei.
func (m *StakingMetrics) AddRewardsPaid(wei float64) {
	if m == nil {
		return
	}
	m.rewardsPaid.Add(wei)
}

// ObserveReentrancyRejected counts a guard rejection.
func (m *StakingMetrics) ObserveReentrancyRejected() {
	if m == nil {
		return
	}
	m.reentrancyRejects.Inc()
}

// SetTotalStaked publishes the current custodied stake balance.
func (m *StakingMetrics) SetTotalStaked(wei float64) {
	if m == nil {
		return
	}
	m.totalStaked.Set(wei)
}

package metrics

import (
	"sync"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/prometheus/client_golang/prometheus"
)

type StakingMetrics struct {
	transitions    *prometheus.CounterVec
	failures       *prometheus.CounterVec
	duration       prometheus.Histogram
	signedAmount   prometheus.Counter
	signedTxs      prometheus.Counter
	lastFeeRate    prometheus.Gauge
	btcTipHeight   prometheus.Gauge
	lastSignedTime prometheus.Gauge
}

// Declare a package-level variable for sync.Once to ensure metrics are registered only once
var stakingMetricsRegisterOnce sync.Once

var stakingMetricsInstance *StakingMetrics

// NewStakingMetrics initializes and registers the metrics, using sync.Once to ensure it's done only once
func NewStakingMetrics() *StakingMetrics {
	stakingMetricsRegisterOnce.Do(func() {
		stakingMetricsInstance = &StakingMetrics{
			transitions: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "staking_pipeline_transitions_total",
					Help: "The total number of state transitions of the staking pipeline.",
				},
				[]string{"state"},
			),
			failures: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "staking_pipeline_failures_total",
					Help: "The total number of failed staking pipelines by failure kind.",
				},
				[]string{"kind"},
			),
			duration: prometheus.NewHistogram(prometheus.HistogramOpts{
				Name: "staking_pipeline_duration_seconds",
				Help: "The duration of staking pipelines, including the time spent waiting for the wallet.",
				// wallet prompts can take minutes
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
			}),
			signedAmount: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "staking_signed_amount_sat_total",
				Help: "The total staking amount in satoshis of signed staking transactions.",
			}),
			signedTxs: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "staking_signed_txs_total",
				Help: "The total number of signed staking transactions.",
			}),
			lastFeeRate: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "staking_last_fee_rate_sat_vb",
				Help: "The fee rate used by the last built staking transaction.",
			}),
			btcTipHeight: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "staking_btc_tip_height",
				Help: "The BTC tip height observed when picking the params version.",
			}),
			lastSignedTime: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "staking_last_signed_timestamp_seconds",
				Help: "The unix time of the last signed staking transaction.",
			}),
		}

		prometheus.MustRegister(stakingMetricsInstance.transitions)
		prometheus.MustRegister(stakingMetricsInstance.failures)
		prometheus.MustRegister(stakingMetricsInstance.duration)
		prometheus.MustRegister(stakingMetricsInstance.signedAmount)
		prometheus.MustRegister(stakingMetricsInstance.signedTxs)
		prometheus.MustRegister(stakingMetricsInstance.lastFeeRate)
		prometheus.MustRegister(stakingMetricsInstance.btcTipHeight)
		prometheus.MustRegister(stakingMetricsInstance.lastSignedTime)
	})
	return stakingMetricsInstance
}

// RecordStateTransition counts the pipeline entering the state
func (sm *StakingMetrics) RecordStateTransition(state string) {
	sm.transitions.WithLabelValues(state).Inc()
}

// RecordFailure counts a failed pipeline
func (sm *StakingMetrics) RecordFailure(kind string) {
	sm.failures.WithLabelValues(kind).Inc()
}

func (sm *StakingMetrics) ObservePipelineDuration(d time.Duration) {
	sm.duration.Observe(d.Seconds())
}

// RecordSignedTx records a successfully signed staking transaction
func (sm *StakingMetrics) RecordSignedTx(amount btcutil.Amount) {
	sm.signedTxs.Inc()
	sm.signedAmount.Add(float64(amount))
	sm.lastSignedTime.SetToCurrentTime()
}

func (sm *StakingMetrics) RecordFeeRate(satPerVByte uint64) {
	sm.lastFeeRate.Set(float64(satPerVByte))
}

func (sm *StakingMetrics) RecordBTCTipHeight(height uint64) {
	sm.btcTipHeight.Set(float64(height))
}

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for StakeLedger.
type Metrics struct {
	// --- Ledger operations ---
	OpsApplied    *prometheus.CounterVec
	OpsRejected   *prometheus.CounterVec
	OpDuration    *prometheus.HistogramVec
	PoolsCreated  prometheus.Counter
	PoolDeposited *prometheus.GaugeVec

	// --- Notification log ---
	NotificationSequence prometheus.Gauge
	PublishDrops         prometheus.Gauge

	// --- Persistence ---
	PersistRowsWritten prometheus.Counter
	PersistBatchDur    prometheus.Histogram
	PersistBatchSize   prometheus.Histogram
	PersistErrors      *prometheus.CounterVec
	PersistLastSeq     prometheus.Gauge

	// --- Query API ---
	QueryRequests *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec
	QueryErrors   *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	opBuckets := []float64{
		0.000005, 0.00001, 0.000025, 0.00005, 0.0001,
		0.00025, 0.0005, 0.001, 0.005, 0.01, 0.05,
	}

	return &Metrics{
		OpsApplied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "stake_ops_applied_total",
			Help: "Mutating operations successfully committed",
		}, []string{"op"}),

		OpsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "stake_ops_rejected_total",
			Help: "Operations rejected (validation, lock, transfer)",
		}, []string{"op", "reason"}),

		OpDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stake_op_duration_seconds",
			Help:    "Time to apply a single operation end to end",
			Buckets: opBuckets,
		}, []string{"op"}),

		PoolsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stake_pools_created_total",
			Help: "Pools created",
		}),

		PoolDeposited: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "stake_pool_deposited_amount",
			Help: "Current deposited amount per pool",
		}, []string{"pool_id"}),

		NotificationSequence: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "stake_notification_sequence",
			Help: "Sequence of the last appended notification",
		}),

		PublishDrops: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "stake_publish_drops",
			Help: "Notifications dropped due to full publish channel",
		}),

		PersistRowsWritten: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stake_persist_rows_written_total",
			Help: "Rows written to Postgres",
		}),

		PersistBatchDur: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "stake_persist_batch_duration_seconds",
			Help:    "Postgres batch write duration",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),

		PersistBatchSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "stake_persist_batch_size",
			Help:    "Outputs per persisted batch",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250},
		}),

		PersistErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "stake_persist_errors_total",
			Help: "Persistence errors",
		}, []string{"error_type"}),

		PersistLastSeq: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "stake_persist_last_sequence",
			Help: "Last persisted notification sequence",
		}),

		QueryRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "stake_query_requests_total",
			Help: "Query requests",
		}, []string{"endpoint", "status"}),

		QueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stake_query_duration_seconds",
			Help:    "Query latency",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, []string{"endpoint"}),

		QueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "stake_query_errors_total",
			Help: "Query errors",
		}, []string{"endpoint", "code"}),
	}
}

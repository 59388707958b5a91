package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Transfer kinds and outcomes used as label values.
const (
	KindInternal = "internal"
	KindExternal = "external"

	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Transfer metrics
	Transfers        *prometheus.CounterVec
	TransferRejects  *prometheus.CounterVec
	TransferDuration *prometheus.HistogramVec
	TransferAmount   prometheus.Histogram

	// Account metrics
	AccountsCreated  prometheus.Counter
	LedgerOperations *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPInFlight prometheus.Gauge

	// Rate limiting and idempotency
	RateLimitHits      prometheus.Counter
	IdempotentReplays  prometheus.Counter
	StorageRetries     prometheus.Counter
	DistributedLockErr prometheus.Counter
}

// New creates the metrics and registers them with reg. A nil reg uses the
// default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		Transfers: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankaccounts_transfers_total",
				Help: "Transfers attempted by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		TransferRejects: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankaccounts_transfer_rejections_total",
				Help: "Rejected transfers by reason code",
			},
			[]string{"kind", "reason"},
		),
		TransferDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bankaccounts_transfer_duration_seconds",
				Help:    "Duration of transfer operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		TransferAmount: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "bankaccounts_transfer_amount",
			Help:    "Amounts moved by successful transfers",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),

		AccountsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "bankaccounts_accounts_created_total",
			Help: "Total number of accounts created",
		}),
		LedgerOperations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankaccounts_ledger_operations_total",
				Help: "Deposits and withdrawals by outcome",
			},
			[]string{"operation", "outcome"},
		),

		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankaccounts_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bankaccounts_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "bankaccounts_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		}),

		RateLimitHits: f.NewCounter(prometheus.CounterOpts{
			Name: "bankaccounts_rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter",
		}),
		IdempotentReplays: f.NewCounter(prometheus.CounterOpts{
			Name: "bankaccounts_idempotent_replays_total",
			Help: "Responses served from the idempotency store",
		}),
		StorageRetries: f.NewCounter(prometheus.CounterOpts{
			Name: "bankaccounts_storage_retries_total",
			Help: "Transactions re-run after a transient storage error",
		}),
		DistributedLockErr: f.NewCounter(prometheus.CounterOpts{
			Name: "bankaccounts_distributed_lock_failures_total",
			Help: "Transfers that could not take their distributed account locks",
		}),
	}
}

// ObserveTransfer records one finished transfer. reason is empty unless the
// outcome is OutcomeRejected. Safe on a nil receiver.
func (m *Metrics) ObserveTransfer(kind, outcome, reason string, amount int64, elapsed time.Duration) {
	if m == nil {
		return
	}

	m.Transfers.WithLabelValues(kind, outcome).Inc()
	m.TransferDuration.WithLabelValues(kind).Observe(elapsed.Seconds())

	switch outcome {
	case OutcomeOK:
		m.TransferAmount.Observe(float64(amount))
	case OutcomeRejected:
		m.TransferRejects.WithLabelValues(kind, reason).Inc()
	}
}

// ObserveLedger records a deposit or withdrawal. Safe on a nil receiver.
func (m *Metrics) ObserveLedger(operation, outcome string) {
	if m == nil {
		return
	}
	m.LedgerOperations.WithLabelValues(operation, outcome).Inc()
}

// AccountCreated counts a new account. Safe on a nil receiver.
func (m *Metrics) AccountCreated() {
	if m == nil {
		return
	}
	m.AccountsCreated.Inc()
}

// StorageRetry counts a re-run transaction. Safe on a nil receiver.
func (m *Metrics) StorageRetry() {
	if m == nil {
		return
	}
	m.StorageRetries.Inc()
}

// LockFailure counts a failed distributed lock acquisition. Safe on a nil receiver.
func (m *Metrics) LockFailure() {
	if m == nil {
		return
	}
	m.DistributedLockErr.Inc()
}

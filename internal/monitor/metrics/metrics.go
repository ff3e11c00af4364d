package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SweepsTotal tracks completed sweeps per chain
	SweepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "depositwatch_sweeps_total",
			Help: "Total number of completed sweeps",
		},
		[]string{"chain"},
	)

	// FetchErrorsTotal tracks per-address fetch failures
	FetchErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "depositwatch_fetch_errors_total",
			Help: "Total number of chain fetch errors",
		},
		[]string{"chain"},
	)

	// TransfersMatched tracks transfers matched to a watched address
	TransfersMatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "depositwatch_transfers_matched_total",
			Help: "Total number of confirmed transfers matched to watched addresses",
		},
		[]string{"chain"},
	)

	// CreditsTotal tracks successful ledger credits
	CreditsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "depositwatch_credits_total",
			Help: "Total number of new ledger credit records",
		},
		[]string{"chain", "currency"},
	)

	// DuplicateCredits tracks credit attempts that were no-ops
	DuplicateCredits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "depositwatch_duplicate_credits_total",
			Help: "Total number of credit attempts deduplicated by the ledger",
		},
		[]string{"chain"},
	)

	// PendingEnqueued tracks transfers falling back to the pending store
	PendingEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "depositwatch_pending_enqueued_total",
			Help: "Total number of transfers enqueued for async verification",
		},
		[]string{"chain"},
	)

	// APICallsTotal tracks explorer API calls per chain
	APICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "depositwatch_api_calls_total",
			Help: "Total number of explorer API calls",
		},
		[]string{"chain"},
	)

	// RateLimitSkips tracks chains skipped for exhausting their cycle budget
	RateLimitSkips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "depositwatch_rate_limit_skips_total",
			Help: "Total number of sweeps cut short by the API call budget",
		},
		[]string{"chain"},
	)

	// BroadcastFailures tracks best-effort broadcast failures
	BroadcastFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "depositwatch_broadcast_failures_total",
			Help: "Total number of failed deposit event broadcasts",
		},
	)

	// NotifyFailures tracks best-effort user notification failures
	NotifyFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "depositwatch_notify_failures_total",
			Help: "Total number of failed user notifications",
		},
	)

	// LockSkips tracks single-spender addresses skipped while locked
	LockSkips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "depositwatch_lock_skips_total",
			Help: "Total number of addresses skipped because their lock was held",
		},
		[]string{"chain"},
	)

	// WatchedAddresses tracks the registry size per chain
	WatchedAddresses = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "depositwatch_watched_addresses",
			Help: "Number of watched addresses per chain",
		},
		[]string{"chain"},
	)

	// DBConnectionPoolUsage tracks database pool utilization
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "depositwatch_db_pool_usage_percent",
			Help: "Database connection pool usage percentage",
		},
	)
)

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "splitledger_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "splitledger_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Business metrics
	RoomsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "splitledger_rooms_created_total",
			Help: "Total rooms created",
		},
	)

	RoomsDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "splitledger_rooms_deleted_total",
			Help: "Total rooms deleted by the last member leaving",
		},
	)

	MembershipChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "splitledger_membership_changes_total",
			Help: "Total membership transitions",
		},
		[]string{"action"}, // "join", "leave", "rename"
	)

	ExpensesRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "splitledger_expenses_recorded_total",
			Help: "Total expenses recorded",
		},
	)

	SettlementsRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "splitledger_settlements_recorded_total",
			Help: "Total settlements recorded",
		},
	)

	BalanceQueries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "splitledger_balance_queries_total",
			Help: "Total balance and summary queries",
		},
	)

	// Concurrency metrics
	ConflictRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "splitledger_conflict_retries_total",
			Help: "Total optimistic-concurrency retries on room mutations",
		},
	)
)

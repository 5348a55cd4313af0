// Package metrics defines and registers all custom Prometheus metrics for
// the ATM terminal API. It is the single source of truth for metric names,
// labels, and help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "atm"

// PinAttemptsTotal counts PIN entry attempts.
// Label:
//   - result: "accepted" or "rejected"
var PinAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pin_attempts_total",
		Help:      "Total number of PIN entry attempts, by result.",
	},
	[]string{"result"},
)

// OperationsTotal counts terminal operations.
// Labels:
//   - operation: "balance", "deposit", "withdraw", "transfer"
//   - result: "ok", or a short failure reason ("invalid_amount",
//     "insufficient_funds", "unknown_destination", "not_authenticated", "error")
var OperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "operations_total",
		Help:      "Total number of terminal operations, by operation and result.",
	},
	[]string{"operation", "result"},
)

// OperationDuration measures how long a single terminal operation takes.
// Label:
//   - operation: "balance", "deposit", "withdraw", "transfer"
var OperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "operation_duration_seconds",
		Help:      "Duration of terminal operations from request to response.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"operation"},
)

// ReplaysBlockedTotal counts mutating requests rejected by the
// Idempotency-Key replay guard.
// Label:
//   - operation: "deposit", "withdraw", "transfer"
var ReplaysBlockedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "replays_blocked_total",
		Help:      "Total number of requests rejected as idempotency replays.",
	},
	[]string{"operation"},
)

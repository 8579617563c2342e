// Package metrics defines and registers all custom Prometheus metrics for the
// FarmFresh Connect session service. It is the single source of truth for
// metric names, labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "farmfresh"

// ── Session metrics ───────────────────────────────────────────────────────────

// AuthOperationsTotal counts session store operations by outcome.
// Labels:
//   - operation: "login", "signup", "verify_otp", "resend_otp", "forgot_password", "reset_password"
//   - result: "ok" or the error class (e.g. "validation", "invalid_credentials", "remote_unavailable")
var AuthOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_operations_total",
		Help:      "Total number of session store operations, by operation and result.",
	},
	[]string{"operation", "result"},
)

// AuthOperationDuration measures the backend round trip of a session operation.
// Label:
//   - operation: same values as AuthOperationsTotal
var AuthOperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "auth_operation_duration_seconds",
		Help:      "Duration of authentication backend calls made by the session store.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"operation"},
)

// SessionsRestoredTotal counts restore outcomes.
// Label:
//   - outcome: "authenticated", "empty", "corrupt", "expired", "read_failed"
var SessionsRestoredTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_restored_total",
		Help:      "Total number of session restores, by outcome.",
	},
	[]string{"outcome"},
)

// ActiveSessionStores tracks how many per-browser session stores are resident.
var ActiveSessionStores = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_session_stores",
		Help:      "Current number of session stores held by the registry.",
	},
)

// ── Notification metrics ──────────────────────────────────────────────────────

// NotificationsDeliveredTotal counts notifications delivered to an inbox.
// Label:
//   - variant: "default" (success) or "destructive"
var NotificationsDeliveredTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_delivered_total",
		Help:      "Total number of notifications delivered, by variant.",
	},
	[]string{"variant"},
)

// NotificationsDroppedTotal counts notifications discarded because a worker queue was full.
var NotificationsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_dropped_total",
		Help:      "Total number of notifications dropped on a full dispatcher queue.",
	},
)

// NotificationQueueDepth tracks pending notifications per dispatcher worker.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var NotificationQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notification_queue_depth",
		Help:      "Current number of notifications pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

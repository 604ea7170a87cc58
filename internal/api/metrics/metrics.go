// Package metrics defines and registers all custom Prometheus metrics for the
// courier API. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics register with the default Prometheus registry on package init via
// promauto, and are served by the /metrics route.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "courier"

// ── Parcel metrics ────────────────────────────────────────────────────────────

// ParcelsCreatedTotal counts newly created parcels.
// Label:
//   - receiver_kind: "registered" or "guest"
var ParcelsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "parcels_created_total",
		Help:      "Total number of parcels created, by receiver kind.",
	},
	[]string{"receiver_kind"},
)

// ParcelTransitionsTotal counts successful lifecycle operations.
// Labels:
//   - operation: "approve", "pickup", "block", …
//   - to_status: the parcel status after the operation
var ParcelTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "parcel_transitions_total",
		Help:      "Total number of successful parcel lifecycle operations.",
	},
	[]string{"operation", "to_status"},
)

// ParcelTransitionErrorsTotal counts rejected or failed lifecycle operations.
// Labels:
//   - operation: as above
//   - reason: "invalid_transition", "unauthorized", "invalid_state", "not_found", "conflict", "internal"
var ParcelTransitionErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "parcel_transition_errors_total",
		Help:      "Total number of parcel lifecycle operations that failed.",
	},
	[]string{"operation", "reason"},
)

// ── Event metrics ─────────────────────────────────────────────────────────────

// EventsPublishedTotal counts status-change events handed to the publisher.
// Label:
//   - result: "ok", "error" or "dropped" (queue full)
var EventsPublishedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_published_total",
		Help:      "Total number of parcel events, labelled by publish result.",
	},
	[]string{"result"},
)

// EventsQueueDepth tracks the current number of events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var EventsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "events_queue_depth",
		Help:      "Current number of events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// EventPublishDuration measures how long a single publish takes.
var EventPublishDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "event_publish_duration_seconds",
		Help:      "Duration of a single parcel event publish.",
		Buckets:   prometheus.DefBuckets,
	},
)

// ── Tracking metrics ──────────────────────────────────────────────────────────

// TrackingCacheTotal counts tracking cache lookups.
// Label:
//   - result: "hit", "miss" or "error"
var TrackingCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tracking_cache_total",
		Help:      "Total number of tracking cache lookups, labelled by result.",
	},
	[]string{"result"},
)

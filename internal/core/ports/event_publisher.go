package ports

import (
	"context"
	"time"

	"github.com/parceldesk/courier-system/internal/core/domain"
)

// EventSink accepts parcel events from the lifecycle engine. Implementations
// must not block the caller; delivery happens asynchronously.
type EventSink interface {
	Enqueue(event domain.ParcelEvent)
}

// EventPublisher delivers one event to the outside world (broker, log).
type EventPublisher interface {
	Publish(ctx context.Context, event domain.ParcelEvent) error
}

// IdempotencyStore remembers which parcel a sender's Idempotency-Key produced.
type IdempotencyStore interface {
	// Lookup returns the parcel id stored for the key, or "" when unknown.
	Lookup(ctx context.Context, senderID, key string) (string, error)
	Remember(ctx context.Context, senderID, key, parcelID string, ttl time.Duration) error
}

// TrackingCache caches public tracking projections by tracking code.
type TrackingCache interface {
	Get(ctx context.Context, trackingCode string) (*TrackingView, bool)
	Set(ctx context.Context, view *TrackingView)
	Invalidate(ctx context.Context, trackingCode string)
}

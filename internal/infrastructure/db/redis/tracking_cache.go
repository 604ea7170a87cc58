package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/parceldesk/courier-system/internal/api/metrics"
	"github.com/parceldesk/courier-system/internal/core/ports"
)

const defaultTrackingTTL = 5 * time.Minute

// TrackingCache stores public tracking views as JSON.
// Key format: track:<tracking_code>
//
// Cache failures are logged and treated as misses; tracking always falls
// back to Mongo.
type TrackingCache struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

func NewTrackingCache(client *redis.Client, ttl time.Duration, log zerolog.Logger) *TrackingCache {
	if ttl <= 0 {
		ttl = defaultTrackingTTL
	}
	return &TrackingCache{client: client, ttl: ttl, log: log}
}

var _ ports.TrackingCache = (*TrackingCache)(nil)

func (c *TrackingCache) Get(ctx context.Context, code string) (*ports.TrackingView, bool) {
	raw, err := c.client.Get(ctx, trackingKey(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.TrackingCacheTotal.WithLabelValues("miss").Inc()
		return nil, false
	}
	if err != nil {
		c.log.Warn().Err(err).Str("tracking_code", code).Msg("tracking cache get failed")
		metrics.TrackingCacheTotal.WithLabelValues("error").Inc()
		return nil, false
	}

	var view ports.TrackingView
	if err := json.Unmarshal(raw, &view); err != nil {
		c.log.Warn().Err(err).Str("tracking_code", code).Msg("tracking cache entry corrupt")
		metrics.TrackingCacheTotal.WithLabelValues("error").Inc()
		return nil, false
	}
	metrics.TrackingCacheTotal.WithLabelValues("hit").Inc()
	return &view, true
}

func (c *TrackingCache) Set(ctx context.Context, view *ports.TrackingView) {
	raw, err := json.Marshal(view)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, trackingKey(view.TrackingCode), raw, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("tracking_code", view.TrackingCode).Msg("tracking cache set failed")
	}
}

func (c *TrackingCache) Invalidate(ctx context.Context, code string) {
	if err := c.client.Del(ctx, trackingKey(code)).Err(); err != nil {
		c.log.Warn().Err(err).Str("tracking_code", code).Msg("tracking cache invalidate failed")
	}
}

func trackingKey(code string) string {
	return "track:" + code
}

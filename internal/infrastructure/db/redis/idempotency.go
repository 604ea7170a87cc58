package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/parceldesk/courier-system/internal/core/ports"
)

const defaultIdempotencyTTL = 24 * time.Hour

// IdempotencyStore maps a sender's Idempotency-Key to the parcel it created.
// Key format: idem:<sender_id>:<key>
type IdempotencyStore struct {
	client *redis.Client
}

// NewIdempotencyStore creates an IdempotencyStore wrapping the given Redis client.
func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client}
}

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// Lookup returns the parcel id stored for the key, or "" if none.
func (s *IdempotencyStore) Lookup(ctx context.Context, senderID, key string) (string, error) {
	id, err := s.client.Get(ctx, idempotencyKey(senderID, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("idempotency lookup: %w", err)
	}
	return id, nil
}

// Remember stores the parcel id for the key. The first writer wins.
func (s *IdempotencyStore) Remember(ctx context.Context, senderID, key, parcelID string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	if err := s.client.SetNX(ctx, idempotencyKey(senderID, key), parcelID, ttl).Err(); err != nil {
		return fmt.Errorf("idempotency remember: %w", err)
	}
	return nil
}

func idempotencyKey(senderID, key string) string {
	return fmt.Sprintf("idem:%s:%s", senderID, key)
}

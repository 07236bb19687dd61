// Package eventstore records processed payment-provider events in Redis so
// that at-least-once webhook deliveries finalize an order only once.
package eventstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "gateway:webhook-event"

// Store marks provider events as processed with a bounded retention window.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a Store. Keys expire after ttl; the provider stops redelivering
// events long before any sensible retention window ends.
func New(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// MarkProcessed atomically records the event and reports whether this was its
// first delivery.
func (s *Store) MarkProcessed(ctx context.Context, eventID string) (bool, error) {
	first, err := s.client.SetNX(ctx, s.key(eventID), 1, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("mark event %s processed: %w", eventID, err)
	}
	return first, nil
}

func (s *Store) key(eventID string) string {
	return fmt.Sprintf("%s:%s", keyPrefix, eventID)
}

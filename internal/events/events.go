// Package events carries document-write events from the API surface to the
// dispatch workers over a Redis Stream. Delivery is at-least-once: entries
// stay pending until a consumer acks them, and stale pending entries are
// reclaimed, so every handler downstream must tolerate redelivery.
package events

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	Stream = "timeroster:doc_events"
	Group  = "dispatch"

	KindNotificationCreated  = "notification_created"
	KindSecretRequestWritten = "secret_request_written"
)

// Event is one document write the dispatch side reacts to.
type Event struct {
	Kind  string
	DocID string
}

// Publisher is what the API handlers depend on; Bus implements it with
// Redis, tests use a recording fake.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

type Bus struct {
	rdb *redis.Client
}

func NewBus(redisURL string) (*Bus, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &Bus{rdb: redis.NewClient(opts)}, nil
}

func (b *Bus) Publish(ctx context.Context, ev Event) error {
	err := b.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: Stream,
		Values: map[string]any{
			"kind":   ev.Kind,
			"doc_id": ev.DocID,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("publish %s event: %w", ev.Kind, err)
	}
	return nil
}

func (b *Bus) Ping(ctx context.Context) error {
	return b.rdb.Ping(ctx).Err()
}

func (b *Bus) Close() error {
	return b.rdb.Close()
}

// Client exposes the underlying connection for the worker, which shares it.
func (b *Bus) Client() *redis.Client {
	return b.rdb
}

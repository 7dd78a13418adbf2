package events

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	readBlock    = 5 * time.Second
	readCount    = 16
	reclaimIdle  = 30 * time.Second
	reclaimEvery = 15 * time.Second
)

// Handler processes one event. Returning an error leaves the entry pending,
// so it is redelivered later; returning nil acks it.
type Handler func(ctx context.Context, docID string) error

// Worker consumes the document-event stream with a consumer group. Each
// invocation of a handler is an independent unit of work; the worker holds
// no state between entries.
type Worker struct {
	rdb      *redis.Client
	consumer string
	handlers map[string]Handler
	logger   *zap.Logger
}

func NewWorker(rdb *redis.Client, consumer string, logger *zap.Logger) *Worker {
	return &Worker{
		rdb:      rdb,
		consumer: consumer,
		handlers: make(map[string]Handler),
		logger:   logger,
	}
}

// Handle registers the handler for one event kind. Not safe to call after
// Run has started.
func (w *Worker) Handle(kind string, h Handler) {
	w.handlers[kind] = h
}

// Run consumes events until the context is cancelled. New entries are read
// with XREADGROUP; entries another (or a crashed) consumer left pending
// longer than reclaimIdle are taken over with XAUTOCLAIM.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.ensureGroup(ctx); err != nil {
		return err
	}

	lastReclaim := time.Time{}
	for {
		if ctx.Err() != nil {
			return nil
		}

		if time.Since(lastReclaim) >= reclaimEvery {
			w.reclaim(ctx)
			lastReclaim = time.Now()
		}

		streams, err := w.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    Group,
			Consumer: w.consumer,
			Streams:  []string{Stream, ">"},
			Count:    readCount,
			Block:    readBlock,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}
			w.logger.Error("read event stream", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				w.process(ctx, msg)
			}
		}
	}
}

func (w *Worker) ensureGroup(ctx context.Context) error {
	err := w.rdb.XGroupCreateMkStream(ctx, Stream, Group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

func (w *Worker) reclaim(ctx context.Context) {
	msgs, _, err := w.rdb.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   Stream,
		Group:    Group,
		Consumer: w.consumer,
		MinIdle:  reclaimIdle,
		Start:    "0",
		Count:    readCount,
	}).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && !errors.Is(err, context.Canceled) {
			w.logger.Error("reclaim pending events", zap.Error(err))
		}
		return
	}
	for _, msg := range msgs {
		w.process(ctx, msg)
	}
}

func (w *Worker) process(ctx context.Context, msg redis.XMessage) {
	kind, _ := msg.Values["kind"].(string)
	docID, _ := msg.Values["doc_id"].(string)

	handler, ok := w.handlers[kind]
	if !ok {
		// Unknown kinds are acked, not retried: redelivering them forever
		// would wedge the pending list.
		w.logger.Warn("unknown event kind", zap.String("kind", kind), zap.String("id", msg.ID))
		w.ack(ctx, msg.ID)
		return
	}

	if err := handler(ctx, docID); err != nil {
		// Leave the entry pending; XAUTOCLAIM redelivers it once idle.
		w.logger.Error("handle event",
			zap.String("kind", kind),
			zap.String("doc_id", docID),
			zap.Error(err),
		)
		return
	}
	w.ack(ctx, msg.ID)
}

func (w *Worker) ack(ctx context.Context, id string) {
	if err := w.rdb.XAck(ctx, Stream, Group, id).Err(); err != nil {
		w.logger.Error("ack event", zap.String("id", id), zap.Error(err))
	}
}

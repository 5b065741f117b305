package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/proofcast/proofcast-backend/internal/platform/logger"
)

// InvalidationEvent announces that the annotation set for a claim changed.
// The database row is already marked stale by the time this is published;
// the event only wakes remote readers holding in-process copies. Delivery
// is at-least-once and consumers must treat it as idempotent.
type InvalidationEvent struct {
	ClaimID    uuid.UUID `json:"claim_id"`
	Generation int64     `json:"generation"`
	At         time.Time `json:"at"`
}

type InvalidationBus interface {
	Publish(ctx context.Context, ev InvalidationEvent) error
	StartForwarder(ctx context.Context, onEvent func(ev InvalidationEvent)) error
	Close() error
}

type invalidationBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
	cancel  context.CancelFunc
}

func NewInvalidationBus(log *logger.Logger) (InvalidationBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ch := strings.TrimSpace(os.Getenv("REDIS_INVALIDATION_CHANNEL"))
	if ch == "" {
		ch = "synthesis_invalidation"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &invalidationBus{
		log:     log.With("service", "InvalidationBus"),
		rdb:     rdb,
		channel: ch,
	}, nil
}

func (b *invalidationBus) Publish(ctx context.Context, ev InvalidationEvent) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, payload).Err()
}

func (b *invalidationBus) StartForwarder(ctx context.Context, onEvent func(ev InvalidationEvent)) error {
	if onEvent == nil {
		return fmt.Errorf("onEvent callback required")
	}
	runCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	sub := b.rdb.Subscribe(runCtx, b.channel)
	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-runCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev InvalidationEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					b.log.Warn("Dropping malformed invalidation event", "error", err)
					continue
				}
				onEvent(ev)
			}
		}
	}()
	return nil
}

func (b *invalidationBus) Close() error {
	if b.cancel != nil {
		b.cancel()
	}
	return b.rdb.Close()
}

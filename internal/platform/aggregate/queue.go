// Package aggregate runs the denormalized-aggregate recomputation pipeline.
// Writes to the source collections enqueue the owning identity; a worker
// drains the queue and asks a Recomputer to rebuild that owner's aggregates
// from scratch. Recomputation is a full replay with an idempotent upsert, so
// duplicate or re-ordered triggers are harmless.
package aggregate

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Recomputer rebuilds the aggregates owned by one identity.
type Recomputer interface {
	Recompute(ctx context.Context, ownerID uuid.UUID) error
}

// Queue is a Redis-backed trigger queue keyed by owner identity.
type Queue struct {
	rdb    *redis.Client
	key    string
	logger zerolog.Logger
}

// NewQueue creates a Queue on the given Redis list key.
func NewQueue(rdb *redis.Client, key string, logger zerolog.Logger) *Queue {
	return &Queue{rdb: rdb, key: key, logger: logger}
}

// Enqueue pushes a recompute trigger. Enqueue failures are logged and
// swallowed: the trigger is advisory and the next write will enqueue again.
func (q *Queue) Enqueue(ctx context.Context, ownerID uuid.UUID) {
	if err := q.rdb.LPush(ctx, q.key, ownerID.String()).Err(); err != nil {
		q.logger.Error().Err(err).Str("owner_id", ownerID.String()).Msg("enqueue recompute trigger failed")
	}
}

// Run drains the queue until ctx is cancelled. Each trigger invokes the
// Recomputer; a failed recompute is logged and re-enqueued once so a
// transient store error does not lose the trigger.
func (q *Queue) Run(ctx context.Context, rec Recomputer) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		vals, err := q.rdb.BRPop(ctx, time.Second, q.key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			q.logger.Error().Err(err).Msg("recompute queue pop failed")
			time.Sleep(time.Second)
			continue
		}
		// BRPop returns [key, value]
		if len(vals) != 2 {
			continue
		}

		ownerID, err := uuid.Parse(vals[1])
		if err != nil {
			q.logger.Warn().Str("value", vals[1]).Msg("discarding malformed recompute trigger")
			continue
		}

		if err := rec.Recompute(ctx, ownerID); err != nil {
			q.logger.Error().Err(err).Str("owner_id", ownerID.String()).Msg("aggregate recompute failed")
			q.rdb.LPush(ctx, q.key, ownerID.String())
			time.Sleep(time.Second)
		}
	}
}

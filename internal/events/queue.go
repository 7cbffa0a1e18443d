package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/exam-portal/internal/config"
	"github.com/stemsi/exam-portal/internal/model"
)

// ErrBadPayload marks a queue entry that could not be decoded. The entry is
// already removed from the list.
var ErrBadPayload = errors.New("invalid event payload")

// Queue buffers score.finalized events in a Redis list until the
// ScoreEventWorker forwards them to the broker.
type Queue struct {
	rdb *redis.Client
}

// NewQueue creates a new Queue.
func NewQueue(rdb *redis.Client) *Queue {
	return &Queue{rdb: rdb}
}

// Enqueue appends ev to the finalized scores queue.
func (q *Queue) Enqueue(ctx context.Context, ev model.ScoreFinalizedEvent) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := q.rdb.RPush(ctx, config.WorkerKey.FinalizedScoresQueue, raw).Err(); err != nil {
		return fmt.Errorf("push event: %w", err)
	}
	return nil
}

// Pop blocks up to timeout for the next event. It returns (nil, nil) when
// the queue stayed empty.
func (q *Queue) Pop(ctx context.Context, timeout time.Duration) (*model.ScoreFinalizedEvent, error) {
	item, err := q.rdb.BLPop(ctx, timeout, config.WorkerKey.FinalizedScoresQueue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(item) < 2 {
		return nil, nil
	}

	var ev model.ScoreFinalizedEvent
	if err := json.Unmarshal([]byte(item[1]), &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return &ev, nil
}

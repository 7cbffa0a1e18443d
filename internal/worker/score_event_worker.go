package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exam-portal/internal/events"
	"github.com/stemsi/exam-portal/internal/metrics"
	"github.com/stemsi/exam-portal/internal/model"
)

const (
	EventBatchSize    = 50
	EventBatchTimeout = 2 * time.Second
	EventPollTimeout  = 1 * time.Second
	// EventRetryPause holds the loop after a flush where nothing was
	// published, so requeued events are not spun against a dead broker.
	EventRetryPause = 5 * time.Second
)

// EventSource is the buffered side of the score.finalized hand-off.
type EventSource interface {
	Pop(ctx context.Context, timeout time.Duration) (*model.ScoreFinalizedEvent, error)
	Enqueue(ctx context.Context, ev model.ScoreFinalizedEvent) error
}

// ScoreEventWorker drains finalized scores from Redis and forwards them to
// the certificate pipeline in batches.
type ScoreEventWorker struct {
	source    EventSource
	publisher events.Publisher
	metrics   *metrics.Metrics
	log       zerolog.Logger

	retryPause time.Duration
}

func NewScoreEventWorker(source EventSource, publisher events.Publisher, m *metrics.Metrics, log zerolog.Logger) *ScoreEventWorker {
	return &ScoreEventWorker{
		source:    source,
		publisher: publisher,
		metrics:   m,
		log:       log.With().Str("component", "score_event_worker").Logger(),

		retryPause: EventRetryPause,
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *ScoreEventWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ScoreEventWorker started")

	batch := make([]model.ScoreFinalizedEvent, 0, EventBatchSize)
	lastFlush := time.Now()

	for {
		// Should flush?
		if len(batch) > 0 &&
			(len(batch) >= EventBatchSize || time.Since(lastFlush) >= EventBatchTimeout) {

			published := w.flush(ctx, batch)
			failed := published == 0
			batch = batch[:0]
			lastFlush = time.Now()

			if failed {
				w.log.Warn().Dur("pause", w.retryPause).Msg("Nothing published, pausing before retry")
				select {
				case <-ctx.Done():
				case <-time.After(w.retryPause):
				}
			}
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			w.flush(flushCtx, batch)
			cancel()
			return

		default:
			ev, err := w.source.Pop(ctx, EventPollTimeout)
			if err != nil {
				if errors.Is(err, events.ErrBadPayload) {
					w.log.Error().Err(err).Msg("Dropping undecodable event")
				} else if ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}
			if ev == nil {
				continue
			}

			batch = append(batch, *ev)
		}
	}
}

// ----------------------------------------------------------------
// Publish with requeue
// ----------------------------------------------------------------

// flush publishes each event. Failed events go back to the tail of the queue
// so a broker outage delays delivery rather than losing it.
// It reports how many events reached the broker.
func (w *ScoreEventWorker) flush(ctx context.Context, batch []model.ScoreFinalizedEvent) int {
	if len(batch) == 0 {
		return 0
	}

	published := 0
	for _, ev := range batch {
		if err := w.publisher.Publish(ctx, ev); err != nil {
			w.metrics.Event(metrics.OutcomePublishError)
			w.log.Warn().Err(err).Str("score_id", ev.ScoreID.String()).Msg("Publish failed, requeueing")

			if err := w.source.Enqueue(context.WithoutCancel(ctx), ev); err != nil {
				w.log.Error().Err(err).Str("score_id", ev.ScoreID.String()).Msg("Requeue failed, event lost")
			}
			continue
		}
		w.metrics.Event(metrics.OutcomePublished)
		published++
	}

	w.log.Debug().Int("published", published).Int("batch", len(batch)).Msg("Batch flushed")
	return published
}

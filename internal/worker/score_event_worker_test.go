package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exam-portal/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSource struct {
	mu       sync.Mutex
	items    []model.ScoreFinalizedEvent
	requeued int
}

func (s *memSource) Pop(ctx context.Context, timeout time.Duration) (*model.ScoreFinalizedEvent, error) {
	s.mu.Lock()
	if len(s.items) > 0 {
		ev := s.items[0]
		s.items = s.items[1:]
		s.mu.Unlock()
		return &ev, nil
	}
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(10 * time.Millisecond):
		return nil, nil
	}
}

func (s *memSource) Enqueue(_ context.Context, ev model.ScoreFinalizedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, ev)
	s.requeued++
	return nil
}

type recordingPublisher struct {
	mu      sync.Mutex
	seen    []uuid.UUID
	fail    map[uuid.UUID]bool
	down    bool
	attempt int
}

func (p *recordingPublisher) Publish(_ context.Context, ev model.ScoreFinalizedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attempt++
	if p.down || p.fail[ev.ScoreID] {
		return errors.New("broker unavailable")
	}
	p.seen = append(p.seen, ev.ScoreID)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func TestFlush_RequeuesFailedEvents(t *testing.T) {
	ok, bad := uuid.New(), uuid.New()
	src := &memSource{}
	pub := &recordingPublisher{fail: map[uuid.UUID]bool{bad: true}}
	w := NewScoreEventWorker(src, pub, nil, zerolog.Nop())

	w.flush(context.Background(), []model.ScoreFinalizedEvent{{ScoreID: ok}, {ScoreID: bad}})

	assert.Equal(t, []uuid.UUID{ok}, pub.seen)
	require.Len(t, src.items, 1)
	assert.Equal(t, bad, src.items[0].ScoreID)
}

func TestStart_DrainsOnShutdown(t *testing.T) {
	src := &memSource{items: []model.ScoreFinalizedEvent{
		{ScoreID: uuid.New()}, {ScoreID: uuid.New()}, {ScoreID: uuid.New()},
	}}
	pub := &recordingPublisher{}
	w := NewScoreEventWorker(src, pub, nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		src.mu.Lock()
		defer src.mu.Unlock()
		return len(src.items) == 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}

	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.Len(t, pub.seen, 3)
}

func TestStart_PausesWhileBrokerDown(t *testing.T) {
	src := &memSource{}
	for i := 0; i < EventBatchSize; i++ {
		src.items = append(src.items, model.ScoreFinalizedEvent{ScoreID: uuid.New()})
	}
	pub := &recordingPublisher{down: true}
	w := NewScoreEventWorker(src, pub, nil, zerolog.Nop())
	w.retryPause = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		src.mu.Lock()
		defer src.mu.Unlock()
		return src.requeued == EventBatchSize
	}, time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)

	pub.mu.Lock()
	attempts := pub.attempt
	pub.mu.Unlock()
	assert.Equal(t, EventBatchSize, attempts)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop during pause")
	}

	src.mu.Lock()
	defer src.mu.Unlock()
	assert.Len(t, src.items, EventBatchSize)
}

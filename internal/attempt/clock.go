package attempt

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exam-portal/internal/apperr"
	"github.com/stemsi/exam-portal/internal/model"
)

const (
	TickInterval      = time.Second
	DefaultMaxRetries = 3
	DefaultBackoff    = time.Second
)

var (
	// ErrNotRunning is returned by Submit once the attempt has left Running.
	ErrNotRunning = errors.New("attempt is not running")
	// ErrSubmissionFailed is the fatal outcome after retries are exhausted.
	ErrSubmissionFailed = errors.New("submission failed, contact support")
)

// State is the lifecycle position of one attempt.
type State int

const (
	StateRunning State = iota
	StateExpired
	StateSubmitting
	StateSubmitted
	StateFailed
	StateAbandoned
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateExpired:
		return "expired"
	case StateSubmitting:
		return "submitting"
	case StateSubmitted:
		return "submitted"
	case StateFailed:
		return "failed"
	case StateAbandoned:
		return "abandoned"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Submitter sends the final answers. *client.Client satisfies it.
type Submitter interface {
	Submit(ctx context.Context, examID uuid.UUID, req model.SubmitExamRequest) (*model.ScoreResult, error)
}

// Ticker is the periodic source driving the countdown.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// NewRealTicker wraps time.NewTicker.
func NewRealTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

// ClockConfig configures a Clock. Zero values get defaults.
type ClockConfig struct {
	ExamID    uuid.UUID
	Duration  time.Duration
	Sheet     *AnswerSheet
	Submitter Submitter

	// MaxRetries bounds resubmissions after a transient failure.
	MaxRetries int
	// Backoff is the first retry delay; it doubles per retry.
	Backoff time.Duration

	// OnTick observes the remaining time after each tick. It runs on the
	// clock goroutine and must not block.
	OnTick func(remaining time.Duration)

	NewTicker func(d time.Duration) Ticker
	After     func(d time.Duration) <-chan time.Time
	Log       zerolog.Logger
}

// Outcome is the terminal result of an attempt.
type Outcome struct {
	State  State
	Result *model.ScoreResult
	// AlreadySubmitted is set when the server already held a score; Result
	// is then the stored one.
	AlreadySubmitted bool
	AutoSubmitted    bool
	Attempts         int
	Err              error
}

// Clock owns the countdown of one attempt and its single submission.
// All transitions happen on one goroutine started by Start.
type Clock struct {
	cfg ClockConfig
	log zerolog.Logger

	mu        sync.Mutex
	state     State
	remaining time.Duration
	outcome   Outcome
	started   bool
	requested bool

	manual   chan struct{}
	teardown chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewClock creates a Clock in Running state. Nothing ticks until Start.
func NewClock(cfg ClockConfig) *Clock {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	} else if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultBackoff
	}
	if cfg.NewTicker == nil {
		cfg.NewTicker = NewRealTicker
	}
	if cfg.After == nil {
		cfg.After = time.After
	}

	return &Clock{
		cfg:       cfg,
		log:       cfg.Log.With().Str("component", "session_clock").Str("exam_id", cfg.ExamID.String()).Logger(),
		state:     StateRunning,
		remaining: cfg.Duration,
		manual:    make(chan struct{}),
		teardown:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start launches the countdown. Calling it more than once has no effect.
func (c *Clock) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	go c.run(ctx)
}

// Submit requests a manual submission. It fails with ErrNotRunning once the
// attempt has expired or a submission is already in flight.
func (c *Clock) Submit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateRunning || c.requested {
		return ErrNotRunning
	}
	c.requested = true
	close(c.manual)
	return nil
}

// Stop tears the attempt down. A Running attempt becomes Abandoned; an
// in-flight submission is left to finish.
func (c *Clock) Stop() {
	c.stopOnce.Do(func() { close(c.teardown) })
}

// State reports the current state.
func (c *Clock) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Remaining reports the time left on the countdown.
func (c *Clock) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Done is closed once the attempt reaches a terminal state.
func (c *Clock) Done() <-chan struct{} {
	return c.done
}

// Outcome returns the terminal result. It is only meaningful after Done.
func (c *Clock) Outcome() Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcome
}

func (c *Clock) run(ctx context.Context) {
	defer close(c.done)

	ticker := c.cfg.NewTicker(TickInterval)
	stopTicker := sync.OnceFunc(ticker.Stop)
	defer stopTicker()

	for {
		select {
		case <-ctx.Done():
			stopTicker()
			c.abandon(ctx.Err())
			return

		case <-c.teardown:
			stopTicker()
			c.abandon(nil)
			return

		case <-c.manual:
			stopTicker()
			c.setState(StateSubmitting)
			c.submit(ctx, false)
			return

		case <-ticker.C():
			c.mu.Lock()
			if c.requested {
				// A manual submit was accepted before this tick was handled.
				c.state = StateSubmitting
				c.mu.Unlock()
				stopTicker()
				c.submit(ctx, false)
				return
			}
			c.remaining -= TickInterval
			if c.remaining <= 0 {
				c.remaining = 0
				c.state = StateExpired
			}
			remaining := c.remaining
			c.mu.Unlock()

			if remaining == 0 {
				stopTicker()
				c.log.Info().Msg("Time is up, submitting")
				c.setState(StateSubmitting)
				c.submit(ctx, true)
				return
			}

			if c.cfg.OnTick != nil {
				c.cfg.OnTick(remaining)
			}
		}
	}
}

// submit snapshots the sheet once and sends that same payload on every try.
func (c *Clock) submit(ctx context.Context, auto bool) {
	req := model.SubmitExamRequest{
		Answers:          c.cfg.Sheet.ToSubmission(),
		TimeTakenMinutes: c.elapsedMinutes(),
	}

	backoff := c.cfg.Backoff
	for attempt := 1; ; attempt++ {
		res, err := c.cfg.Submitter.Submit(ctx, c.cfg.ExamID, req)
		if err == nil {
			c.log.Info().Int("attempts", attempt).Float64("percentage", res.Percentage).Msg("Submitted")
			c.finish(Outcome{State: StateSubmitted, Result: res, AutoSubmitted: auto, Attempts: attempt})
			return
		}

		var dup *apperr.AlreadySubmittedError
		if errors.As(err, &dup) {
			c.log.Info().Int("attempts", attempt).Msg("Score already recorded")
			c.finish(Outcome{
				State:            StateSubmitted,
				Result:           dup.Existing,
				AlreadySubmitted: true,
				AutoSubmitted:    auto,
				Attempts:         attempt,
			})
			return
		}

		if !apperr.IsRetryable(err) || attempt > c.cfg.MaxRetries {
			c.log.Error().Err(err).Int("attempts", attempt).Msg("Submission failed")
			c.finish(Outcome{
				State:         StateFailed,
				AutoSubmitted: auto,
				Attempts:      attempt,
				Err:           fmt.Errorf("%w: %w", ErrSubmissionFailed, err),
			})
			return
		}

		c.log.Warn().Err(err).Int("attempt", attempt).Dur("backoff", backoff).Msg("Submission failed, retrying")
		select {
		case <-ctx.Done():
			c.finish(Outcome{
				State:         StateFailed,
				AutoSubmitted: auto,
				Attempts:      attempt,
				Err:           fmt.Errorf("%w: %w", ErrSubmissionFailed, ctx.Err()),
			})
			return
		case <-c.cfg.After(backoff):
		}
		backoff *= 2
	}
}

func (c *Clock) elapsedMinutes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int((c.cfg.Duration - c.remaining) / time.Minute)
}

func (c *Clock) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Clock) abandon(cause error) {
	c.log.Info().Msg("Attempt abandoned before submission")
	c.finish(Outcome{State: StateAbandoned, Err: cause})
}

func (c *Clock) finish(o Outcome) {
	c.mu.Lock()
	c.state = o.State
	c.outcome = o
	c.mu.Unlock()
}

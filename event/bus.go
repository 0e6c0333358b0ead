package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fluxdesk/fluxdesk/backoff"
	"github.com/fluxdesk/fluxdesk/dlq"
	"github.com/fluxdesk/fluxdesk/id"
	"github.com/fluxdesk/fluxdesk/middleware"
	"github.com/fluxdesk/fluxdesk/workflow"
)

// ErrBusClosed is returned by Publish after the bus has been closed.
var ErrBusClosed = errors.New("event: bus is closed")

// Bus routes published events to subscribed workflow handlers. Each
// delivery is an independent workflow run driven on its own goroutine,
// so one slow or failing subscriber never delays another.
type Bus struct {
	store    Store
	runner   *workflow.Runner
	dlq      *dlq.Service
	strategy backoff.Strategy
	emitter  RunEmitter
	logger   *slog.Logger

	// maxRetries is the retry ceiling: a run gets maxRetries+1 attempts.
	maxRetries int

	mw middleware.Middleware

	mu     sync.RWMutex
	subs   map[string][]string
	closed bool

	// baseCtx outlives the Publish caller's context so a run keeps
	// retrying after the publishing request returns.
	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Option configures the bus.
type Option func(*Bus)

// WithBackoff sets the retry delay strategy.
func WithBackoff(s backoff.Strategy) Option {
	return func(b *Bus) { b.strategy = s }
}

// WithMaxRetries sets the retry ceiling. A run is attempted at most
// maxRetries+1 times. Negative values are treated as zero.
func WithMaxRetries(n int) Option {
	return func(b *Bus) {
		if n < 0 {
			n = 0
		}
		b.maxRetries = n
	}
}

// WithDLQ routes permanently failed runs to the dead letter queue.
func WithDLQ(s *dlq.Service) Option {
	return func(b *Bus) { b.dlq = s }
}

// WithMiddleware wraps every run attempt with the given chain.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(b *Bus) { b.mw = middleware.Chain(mws...) }
}

// WithEmitter sets the run lifecycle emitter.
func WithEmitter(e RunEmitter) Option {
	return func(b *Bus) { b.emitter = e }
}

// WithLogger sets the bus logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bus) { b.logger = l }
}

// NewBus creates an event bus. Defaults: retry ceiling 2 (three
// attempts), exponential backoff with jitter, no DLQ, no middleware.
func NewBus(store Store, runner *workflow.Runner, opts ...Option) *Bus {
	ctx, cancel := context.WithCancel(context.Background())
	b := &Bus{
		store:      store,
		runner:     runner,
		strategy:   backoff.DefaultStrategy(),
		emitter:    noopEmitter{},
		logger:     slog.Default(),
		maxRetries: 2,
		subs:       make(map[string][]string),
		baseCtx:    ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe binds a registered workflow handler to an event name.
// Subscriptions are expected at startup, before events flow.
func (b *Bus) Subscribe(eventName, handler string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[eventName] = append(b.subs[eventName], handler)
}

// Subscribers returns the handlers bound to an event name.
func (b *Bus) Subscribers(eventName string) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]string(nil), b.subs[eventName]...)
}

// Publish persists the event, creates one run per subscriber, and
// drives each run on its own goroutine. It returns once the event and
// runs are persisted; execution is asynchronous. An event with no
// subscribers is persisted and dropped.
//
// A run-creation failure for one subscriber does not block delivery to
// the rest: Publish still returns the persisted event, together with the
// joined errors for the subscribers that could not be scheduled.
func (b *Bus) Publish(ctx context.Context, name string, payload []byte) (*Event, error) {
	b.mu.RLock()
	closed := b.closed
	handlers := b.subs[name]
	b.mu.RUnlock()

	if closed {
		return nil, ErrBusClosed
	}

	evt := &Event{
		ID:         id.NewEventID(),
		Name:       name,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}
	if err := b.store.AppendEvent(ctx, evt); err != nil {
		return nil, fmt.Errorf("append event %q: %w", name, err)
	}

	if len(handlers) == 0 {
		b.logger.Debug("event has no subscribers", slog.String("event", name))
		return evt, nil
	}

	var errs []error
	for _, handler := range handlers {
		run, err := b.runner.CreateRun(ctx, handler, evt.ID, evt.Name, evt.Payload)
		if err != nil {
			b.logger.Error("failed to schedule subscriber run",
				slog.String("event", name),
				slog.String("handler", handler),
				slog.String("error", err.Error()),
			)
			errs = append(errs, err)
			continue
		}
		b.start(run)
	}

	return evt, errors.Join(errs...)
}

// DispatchTo schedules a single handler for an event payload, bypassing
// subscriptions. Used by DLQ replay and anywhere a specific handler must
// be re-driven for an already persisted event.
func (b *Bus) DispatchTo(ctx context.Context, handler string, eventID id.ID, eventName string, payload []byte) (*workflow.Run, error) {
	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		return nil, ErrBusClosed
	}

	run, err := b.runner.CreateRun(ctx, handler, eventID, eventName, payload)
	if err != nil {
		return nil, err
	}
	b.start(run)
	return run, nil
}

// Resume re-drives a run recovered in the running state after a crash.
// Memoized steps are skipped inside the attempt.
func (b *Bus) Resume(run *workflow.Run) {
	b.start(run)
}

// start launches the drive goroutine for a run. The closed check and the
// WaitGroup increment share one critical section with Close, so a publish
// racing a shutdown can never add to the group after Drain started
// waiting on it.
func (b *Bus) start(run *workflow.Run) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		// The run is already persisted in the running state; crash
		// recovery resumes it on the next start.
		b.logger.Warn("bus closed, leaving run for recovery",
			slog.String("run_id", run.ID.String()),
			slog.String("handler", run.Handler),
		)
		return
	}
	b.wg.Add(1)
	b.mu.Unlock()

	go func() {
		defer b.wg.Done()
		b.drive(run)
	}()
}

// drive owns a run until it reaches a terminal state: attempt, and on
// retriable failure wait out the backoff delay and attempt again, up to
// the retry ceiling.
func (b *Bus) drive(run *workflow.Run) {
	ctx := b.baseCtx
	b.emitter.EmitRunStarted(ctx, run)
	start := time.Now()

	attempt := middleware.Handler(func(ctx context.Context, run *workflow.Run) error {
		return b.runner.ExecuteAttempt(ctx, run)
	})
	if b.mw != nil {
		attempt = b.mw(attempt)
	}

	for {
		err := attempt(ctx, run)
		if err == nil {
			if uerr := b.runner.Complete(ctx, run); uerr != nil {
				b.logger.Error("failed to persist completed run",
					slog.String("run_id", run.ID.String()),
					slog.String("error", uerr.Error()),
				)
			}
			b.emitter.EmitRunCompleted(ctx, run, time.Since(start))
			return
		}

		if workflow.IsTerminal(err) {
			b.giveUp(ctx, run, err, "non-retriable error")
			return
		}
		if run.Attempt > b.maxRetries {
			b.giveUp(ctx, run, err, "retry ceiling reached")
			return
		}

		delay := b.strategy.Delay(run.Attempt)
		b.emitter.EmitRunRetrying(ctx, run, delay)
		if rerr := b.runner.RecordRetry(ctx, run, err); rerr != nil {
			b.logger.Error("failed to persist retry",
				slog.String("run_id", run.ID.String()),
				slog.String("error", rerr.Error()),
			)
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			// Shutdown mid-backoff. The run stays in the running state
			// and is picked up by crash recovery on the next start.
			b.logger.Warn("bus closing, abandoning run until resume",
				slog.String("run_id", run.ID.String()),
				slog.String("handler", run.Handler),
			)
			return
		}
	}
}

// giveUp marks the run permanently failed and pushes a DLQ entry.
func (b *Bus) giveUp(ctx context.Context, run *workflow.Run, runErr error, reason string) {
	b.logger.Error("workflow run permanently failed",
		slog.String("run_id", run.ID.String()),
		slog.String("handler", run.Handler),
		slog.String("reason", reason),
		slog.Int("attempts", run.Attempt),
		slog.String("error", runErr.Error()),
	)

	if err := b.runner.Fail(ctx, run, runErr); err != nil {
		b.logger.Error("failed to persist failed run",
			slog.String("run_id", run.ID.String()),
			slog.String("error", err.Error()),
		)
	}
	b.emitter.EmitRunFailed(ctx, run, runErr)

	if b.dlq == nil {
		return
	}
	if err := b.dlq.Push(ctx, run, runErr); err != nil {
		b.logger.Error("failed to push run to dead letter queue",
			slog.String("run_id", run.ID.String()),
			slog.String("error", err.Error()),
		)
		return
	}
	b.emitter.EmitRunDeadLettered(ctx, run, runErr)
}

// Drain blocks until all in-flight runs finish or ctx is done.
func (b *Bus) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting publishes, waits for in-flight runs up to the
// ctx deadline, then cancels whatever is still running. Runs cut off
// mid-flight remain in the running state for crash recovery.
func (b *Bus) Close(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	err := b.Drain(ctx)
	b.cancel()
	return err
}

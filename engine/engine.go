// Package engine wires the triage pipeline together: stores, workflow
// registry and runner, event bus, hooks, and the retention janitor. The
// HTTP layer and the main binary talk to the pipeline through an Engine.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fluxdesk/fluxdesk"
	"github.com/fluxdesk/fluxdesk/backoff"
	"github.com/fluxdesk/fluxdesk/dlq"
	"github.com/fluxdesk/fluxdesk/event"
	"github.com/fluxdesk/fluxdesk/hook"
	"github.com/fluxdesk/fluxdesk/id"
	"github.com/fluxdesk/fluxdesk/mailer"
	"github.com/fluxdesk/fluxdesk/ticket"
	"github.com/fluxdesk/fluxdesk/triage"
	"github.com/fluxdesk/fluxdesk/user"
	"github.com/fluxdesk/fluxdesk/workflow"
)

// Stores is the union of every store interface the engine needs.
// Satisfied by both memory.Store and mongo.Store.
type Stores interface {
	workflow.Store
	event.Store
	dlq.Store
	ticket.Store
	user.Store
}

// Engine owns the triage pipeline for one process.
type Engine struct {
	cfg    fluxdesk.Config
	stores Stores
	logger *slog.Logger

	hooks  *hook.Registry
	runner *workflow.Runner
	bus    *event.Bus
	dlq    *dlq.Service
	triage *triage.Service

	janitorCancel context.CancelFunc
	janitorDone   chan struct{}
	startOnce     sync.Once
	stopOnce      sync.Once
}

// New builds the pipeline: registers the triage and signup workflows,
// subscribes them to their events, and configures the bus's retry policy
// from cfg.
func New(cfg fluxdesk.Config, stores Stores, analyzer triage.Analyzer, m mailer.Mailer, logger *slog.Logger) *Engine {
	hooks := hook.NewRegistry()
	hooks.Register(hook.NewSlogHook(logger))

	registry := workflow.NewRegistry()
	runner := workflow.NewRunner(registry, stores, hooks, logger)

	resolver := triage.NewResolver(stores)
	triageSvc := triage.NewService(stores, stores, analyzer, resolver, m, logger)
	workflow.RegisterDefinition(registry, triageSvc.TicketCreatedWorkflow())
	workflow.RegisterDefinition(registry, triageSvc.UserSignupWorkflow())

	dlqSvc := dlq.NewService(stores)

	bus := event.NewBus(stores, runner,
		event.WithMaxRetries(cfg.MaxRetries),
		event.WithBackoff(backoff.DefaultStrategy()),
		event.WithDLQ(dlqSvc),
		event.WithEmitter(hooks),
		event.WithLogger(logger),
		event.WithMiddleware(
			middlewareFor(cfg, logger)...,
		),
	)
	bus.Subscribe(event.TicketCreated, triage.TicketCreatedHandler)
	bus.Subscribe(event.UserSignup, triage.UserSignupHandler)

	return &Engine{
		cfg:    cfg,
		stores: stores,
		logger: logger,
		hooks:  hooks,
		runner: runner,
		bus:    bus,
		dlq:    dlqSvc,
		triage: triageSvc,
	}
}

// Start resumes runs interrupted by a previous crash and launches the
// retention janitor.
func (e *Engine) Start(ctx context.Context) error {
	var startErr error
	e.startOnce.Do(func() {
		startErr = e.runner.ResumeAll(ctx, func(_ context.Context, run *workflow.Run) {
			e.bus.Resume(run)
		})
		if startErr != nil {
			return
		}

		if e.cfg.JanitorInterval > 0 && e.cfg.RunRetention > 0 {
			janitorCtx, cancel := context.WithCancel(context.Background())
			e.janitorCancel = cancel
			e.janitorDone = make(chan struct{})
			go e.janitor(janitorCtx)
		}
	})
	return startErr
}

// Stop drains the bus and stops the janitor. Runs still in flight when
// ctx expires stay in the running state and resume on the next Start.
func (e *Engine) Stop(ctx context.Context) error {
	var err error
	e.stopOnce.Do(func() {
		err = e.bus.Close(ctx)
		if e.janitorCancel != nil {
			e.janitorCancel()
			<-e.janitorDone
		}
	})
	return err
}

// janitor periodically purges terminal runs past the retention window.
func (e *Engine) janitor(ctx context.Context) {
	defer close(e.janitorDone)

	ticker := time.NewTicker(e.cfg.JanitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-e.cfg.RunRetention)
			purged, err := e.stores.PurgeRuns(ctx, cutoff)
			if err != nil {
				e.logger.Error("run retention purge failed", slog.String("error", err.Error()))
				continue
			}
			if purged > 0 {
				e.logger.Info("purged terminal workflow runs", slog.Int64("count", purged))
			}
		}
	}
}

// PublishTicketCreated emits the ticket.created event for a persisted
// ticket. The publish is durable but asynchronous: triage failures never
// surface to the creating request.
func (e *Engine) PublishTicketCreated(ctx context.Context, t *ticket.Ticket) error {
	payload, err := json.Marshal(triage.TicketCreated{
		TicketID:    t.ID,
		Title:       t.Title,
		Description: t.Description,
		CreatedBy:   t.CreatedBy,
	})
	if err != nil {
		return fmt.Errorf("marshal ticket.created payload: %w", err)
	}

	_, err = e.bus.Publish(ctx, event.TicketCreated, payload)
	return err
}

// PublishUserSignup emits the user.signup event for a new account.
func (e *Engine) PublishUserSignup(ctx context.Context, u *user.User) error {
	payload, err := json.Marshal(triage.UserSignup{Email: u.Email})
	if err != nil {
		return fmt.Errorf("marshal user.signup payload: %w", err)
	}

	_, err = e.bus.Publish(ctx, event.UserSignup, payload)
	return err
}

// ReplayDLQ re-dispatches a dead-lettered run as a fresh run.
func (e *Engine) ReplayDLQ(ctx context.Context, entryID id.ID) (*workflow.Run, error) {
	return e.dlq.Replay(ctx, entryID, e.bus)
}

// Bus returns the event bus.
func (e *Engine) Bus() *event.Bus { return e.bus }

// Runner returns the workflow runner.
func (e *Engine) Runner() *workflow.Runner { return e.runner }

// DLQ returns the dead letter queue service.
func (e *Engine) DLQ() *dlq.Service { return e.dlq }

// Hooks returns the hook registry for additional observers.
func (e *Engine) Hooks() *hook.Registry { return e.hooks }

// Stores returns the store bundle backing the engine.
func (e *Engine) Stores() Stores { return e.stores }

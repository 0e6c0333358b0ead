package engine_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/fluxdesk/fluxdesk"
	"github.com/fluxdesk/fluxdesk/engine"
	"github.com/fluxdesk/fluxdesk/id"
	"github.com/fluxdesk/fluxdesk/mailer"
	"github.com/fluxdesk/fluxdesk/store/memory"
	"github.com/fluxdesk/fluxdesk/ticket"
	"github.com/fluxdesk/fluxdesk/triage"
	"github.com/fluxdesk/fluxdesk/user"
	"github.com/fluxdesk/fluxdesk/workflow"
)

func testConfig() fluxdesk.Config {
	cfg := fluxdesk.DefaultConfig()
	cfg.StepTimeout = time.Second
	cfg.JanitorInterval = 0 // no janitor in tests
	return cfg
}

func newEngine(t *testing.T, store *memory.Store) *engine.Engine {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng := engine.New(testConfig(), store, triage.Disabled{}, mailer.NewLogMailer(logger), logger)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = eng.Stop(ctx)
	})
	return eng
}

func drain(t *testing.T, eng *engine.Engine) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := eng.Bus().Drain(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}
}

func TestEngineTriagesCreatedTicket(t *testing.T) {
	store := memory.New()
	eng := newEngine(t, store)
	ctx := context.Background()

	if err := eng.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	tk := ticket.New("printer on fire", "smoke everywhere", id.NewUserID())
	if err := store.CreateTicket(ctx, tk); err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	if err := eng.PublishTicketCreated(ctx, tk); err != nil {
		t.Fatalf("PublishTicketCreated: %v", err)
	}
	drain(t, eng)

	got, err := store.GetTicket(ctx, tk.ID)
	if err != nil {
		t.Fatalf("GetTicket: %v", err)
	}
	// The disabled analyzer degrades to defaults instead of failing.
	if got.Priority != ticket.PriorityMedium {
		t.Errorf("priority = %s, want MEDIUM", got.Priority)
	}

	runs, err := store.ListRuns(ctx, workflow.ListOpts{Handler: triage.TicketCreatedHandler})
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].State != workflow.RunStateCompleted {
		t.Errorf("runs = %+v, want one completed triage run", runs)
	}
}

func TestEngineStartResumesInterruptedRuns(t *testing.T) {
	store := memory.New()
	eng := newEngine(t, store)
	ctx := context.Background()

	u := user.New("back@example.com", []byte("x"))
	if err := store.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	// A run left behind by a crashed process: persisted as running, with
	// nothing driving it.
	payload, _ := json.Marshal(triage.UserSignup{Email: u.Email})
	orphan, err := eng.Runner().CreateRun(ctx, triage.UserSignupHandler, id.NewEventID(), "user.signup", payload)
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	if err := eng.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	drain(t, eng)

	got, err := store.GetRun(ctx, orphan.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.State != workflow.RunStateCompleted {
		t.Errorf("resumed run state = %s, want completed (error %q)", got.State, got.Error)
	}
}

func TestEngineSignupFlow(t *testing.T) {
	store := memory.New()
	eng := newEngine(t, store)
	ctx := context.Background()

	if err := eng.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	u := user.New("fresh@example.com", []byte("x"))
	if err := store.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if err := eng.PublishUserSignup(ctx, u); err != nil {
		t.Fatalf("PublishUserSignup: %v", err)
	}
	drain(t, eng)

	runs, err := store.ListRuns(ctx, workflow.ListOpts{Handler: triage.UserSignupHandler})
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].State != workflow.RunStateCompleted {
		t.Errorf("runs = %+v, want one completed signup run", runs)
	}

	steps, err := store.ListSteps(ctx, runs[0].ID)
	if err != nil {
		t.Fatalf("ListSteps: %v", err)
	}
	if len(steps) != 2 {
		t.Fatalf("ledger has %d steps, want lookup and welcome", len(steps))
	}
	for _, rec := range steps {
		if rec.Status != workflow.StepSucceeded {
			t.Errorf("step %q status = %s, want succeeded", rec.Name, rec.Status)
		}
	}
}

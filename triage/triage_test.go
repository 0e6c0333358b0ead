package triage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/fluxdesk/fluxdesk/backoff"
	"github.com/fluxdesk/fluxdesk/dlq"
	"github.com/fluxdesk/fluxdesk/event"
	"github.com/fluxdesk/fluxdesk/id"
	"github.com/fluxdesk/fluxdesk/store/memory"
	"github.com/fluxdesk/fluxdesk/ticket"
	"github.com/fluxdesk/fluxdesk/user"
	"github.com/fluxdesk/fluxdesk/workflow"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type noopStepEmitter struct{}

func (noopStepEmitter) EmitStepCompleted(context.Context, *workflow.Run, string, time.Duration) {}
func (noopStepEmitter) EmitStepFailed(context.Context, *workflow.Run, string, error)           {}

type fakeAnalyzer struct {
	mu     sync.Mutex
	calls  int
	result *Analysis
	err    error
}

func (a *fakeAnalyzer) Analyze(ctx context.Context, title, description string) (*Analysis, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	return a.result, a.err
}

func (a *fakeAnalyzer) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

type sentMail struct {
	to, subject string
}

type fakeMailer struct {
	mu       sync.Mutex
	sent     []sentMail
	failures int
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures > 0 {
		m.failures--
		return errors.New("smtp timeout")
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject})
	return nil
}

func (m *fakeMailer) sentMails() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail(nil), m.sent...)
}

type pipeline struct {
	store    *memory.Store
	analyzer *fakeAnalyzer
	mailer   *fakeMailer
	bus      *event.Bus
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()

	store := memory.New()
	analyzer := &fakeAnalyzer{}
	m := &fakeMailer{}
	logger := testLogger()

	registry := workflow.NewRegistry()
	runner := workflow.NewRunner(registry, store, noopStepEmitter{}, logger)

	svc := NewService(store, store, analyzer, NewResolver(store), m, logger)
	workflow.RegisterDefinition(registry, svc.TicketCreatedWorkflow())
	workflow.RegisterDefinition(registry, svc.UserSignupWorkflow())

	bus := event.NewBus(store, runner,
		event.WithMaxRetries(2),
		event.WithBackoff(backoff.NewConstant(time.Millisecond)),
		event.WithDLQ(dlq.NewService(store)),
		event.WithLogger(logger),
	)
	bus.Subscribe(event.TicketCreated, TicketCreatedHandler)
	bus.Subscribe(event.UserSignup, UserSignupHandler)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = bus.Close(ctx)
	})

	return &pipeline{store: store, analyzer: analyzer, mailer: m, bus: bus}
}

func (p *pipeline) publishTicketCreated(t *testing.T, tk *ticket.Ticket) {
	t.Helper()
	payload, err := json.Marshal(TicketCreated{
		TicketID:    tk.ID,
		Title:       tk.Title,
		Description: tk.Description,
		CreatedBy:   tk.CreatedBy,
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if _, err := p.bus.Publish(context.Background(), event.TicketCreated, payload); err != nil {
		t.Fatalf("Publish: %v", err)
	}
}

func (p *pipeline) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.bus.Drain(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}
}

func (p *pipeline) onlyRun(t *testing.T) *workflow.Run {
	t.Helper()
	runs, err := p.store.ListRuns(context.Background(), workflow.ListOpts{})
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	return runs[0]
}

func createTicket(t *testing.T, store *memory.Store, title, desc string) *ticket.Ticket {
	t.Helper()
	tk := ticket.New(title, desc, id.NewUserID())
	if err := store.CreateTicket(context.Background(), tk); err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	return tk
}

func TestTriageEnrichesAssignsAndNotifies(t *testing.T) {
	p := newPipeline(t)
	p.analyzer.result = &Analysis{
		Summary:        "database connection pool exhausted",
		Priority:       ticket.PriorityHigh,
		RequiredSkills: []string{"mongodb"},
	}

	mod := newModerator(t, p.store, "mod@example.com", "mongodb")
	tk := createTicket(t, p.store, "db errors", "timeouts everywhere")

	p.publishTicketCreated(t, tk)
	p.drain(t)

	if run := p.onlyRun(t); run.State != workflow.RunStateCompleted {
		t.Fatalf("run state = %s, want completed (error %q)", run.State, run.Error)
	}

	got, err := p.store.GetTicket(context.Background(), tk.ID)
	if err != nil {
		t.Fatalf("GetTicket: %v", err)
	}
	if got.Priority != ticket.PriorityHigh {
		t.Errorf("priority = %s, want HIGH", got.Priority)
	}
	if len(got.RelatedSkills) != 1 || got.RelatedSkills[0] != "mongodb" {
		t.Errorf("related skills = %v, want [mongodb]", got.RelatedSkills)
	}
	if got.HelpfulNotes != "database connection pool exhausted" {
		t.Errorf("helpful notes = %q", got.HelpfulNotes)
	}
	if got.AssignedTo == nil || !got.AssignedTo.Equal(mod.ID) {
		t.Errorf("assigned to = %v, want %s", got.AssignedTo, mod.ID)
	}

	mails := p.mailer.sentMails()
	if len(mails) != 1 || mails[0].to != "mod@example.com" {
		t.Errorf("sent mails = %v, want one to the assignee", mails)
	}
}

func TestTriageDegradesWhenAnalysisFails(t *testing.T) {
	p := newPipeline(t)
	p.analyzer.err = errors.New("model overloaded")

	tk := createTicket(t, p.store, "weird bug", "no idea")
	p.publishTicketCreated(t, tk)
	p.drain(t)

	// A failed analysis is not a failed run: the ticket gets defaults.
	if run := p.onlyRun(t); run.State != workflow.RunStateCompleted {
		t.Fatalf("run state = %s, want completed", run.State)
	}

	got, err := p.store.GetTicket(context.Background(), tk.ID)
	if err != nil {
		t.Fatalf("GetTicket: %v", err)
	}
	if got.Priority != ticket.PriorityMedium {
		t.Errorf("priority = %s, want MEDIUM default", got.Priority)
	}
	if len(got.RelatedSkills) != 0 {
		t.Errorf("related skills = %v, want empty", got.RelatedSkills)
	}
	if got.AssignedTo != nil {
		t.Errorf("assigned to = %s, want unassigned", got.AssignedTo)
	}
	if len(p.mailer.sentMails()) != 0 {
		t.Errorf("sent %d mails for an unassigned ticket, want 0", len(p.mailer.sentMails()))
	}
}

func TestTriageMissingTicketFailsWithoutRetry(t *testing.T) {
	p := newPipeline(t)
	p.analyzer.result = &Analysis{Priority: ticket.PriorityLow}

	ghost := ticket.New("ghost", "never persisted", id.NewUserID())
	p.publishTicketCreated(t, ghost)
	p.drain(t)

	run := p.onlyRun(t)
	if run.State != workflow.RunStateFailed {
		t.Fatalf("run state = %s, want failed", run.State)
	}
	if run.Attempt != 1 {
		t.Errorf("run attempt = %d, want 1: missing ticket is non-retriable", run.Attempt)
	}

	entries, err := p.store.ListDLQ(context.Background(), dlq.ListOpts{})
	if err != nil {
		t.Fatalf("ListDLQ: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("got %d dlq entries, want 1", len(entries))
	}
}

func TestTriageRetryDoesNotRepeatAnalysisOrAssignment(t *testing.T) {
	p := newPipeline(t)
	p.analyzer.result = &Analysis{
		Summary:        "flaky mail",
		Priority:       ticket.PriorityLow,
		RequiredSkills: []string{"go"},
	}
	p.mailer.failures = 2

	newModerator(t, p.store, "mod@example.com", "go")
	tk := createTicket(t, p.store, "mail test", "notify retries")

	p.publishTicketCreated(t, tk)
	p.drain(t)

	run := p.onlyRun(t)
	if run.State != workflow.RunStateCompleted {
		t.Fatalf("run state = %s, want completed after mail retries", run.State)
	}
	if run.Attempt != 3 {
		t.Errorf("run attempt = %d, want 3", run.Attempt)
	}
	if p.analyzer.callCount() != 1 {
		t.Errorf("analyzer called %d times, want 1: analyze is memoized", p.analyzer.callCount())
	}
	if mails := p.mailer.sentMails(); len(mails) != 1 {
		t.Errorf("sent %d mails, want exactly 1", len(mails))
	}
}

func TestSignupSendsWelcomeOnce(t *testing.T) {
	p := newPipeline(t)
	p.mailer.failures = 1

	u := user.New("new@example.com", []byte("x"))
	if err := p.store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	payload, _ := json.Marshal(UserSignup{Email: u.Email})
	if _, err := p.bus.Publish(context.Background(), event.UserSignup, payload); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	p.drain(t)

	if run := p.onlyRun(t); run.State != workflow.RunStateCompleted {
		t.Fatalf("run state = %s, want completed", run.State)
	}
	mails := p.mailer.sentMails()
	if len(mails) != 1 || mails[0].to != "new@example.com" {
		t.Errorf("sent mails = %v, want exactly one welcome", mails)
	}
}

func TestSignupUnknownUserFailsWithoutRetry(t *testing.T) {
	p := newPipeline(t)

	payload, _ := json.Marshal(UserSignup{Email: "nobody@example.com"})
	if _, err := p.bus.Publish(context.Background(), event.UserSignup, payload); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	p.drain(t)

	run := p.onlyRun(t)
	if run.State != workflow.RunStateFailed || run.Attempt != 1 {
		t.Errorf("run = state %s attempt %d, want failed after one attempt", run.State, run.Attempt)
	}
	if len(p.mailer.sentMails()) != 0 {
		t.Errorf("sent %d mails for an unknown user, want 0", len(p.mailer.sentMails()))
	}
}

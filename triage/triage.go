package triage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fluxdesk/fluxdesk"
	"github.com/fluxdesk/fluxdesk/id"
	"github.com/fluxdesk/fluxdesk/mailer"
	"github.com/fluxdesk/fluxdesk/ticket"
	"github.com/fluxdesk/fluxdesk/user"
	"github.com/fluxdesk/fluxdesk/workflow"
)

// TicketCreatedHandler is the workflow handler name for ticket triage.
const TicketCreatedHandler = "on-ticket-created"

// TicketCreated is the payload of the ticket.created event.
type TicketCreated struct {
	TicketID    id.ID  `json:"ticket_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	CreatedBy   id.ID  `json:"created_by"`
}

// Service wires the triage and signup workflows to their collaborators.
type Service struct {
	tickets  ticket.Store
	users    user.Store
	analyzer Analyzer
	resolver *Resolver
	mailer   mailer.Mailer
	logger   *slog.Logger
}

// NewService creates the triage service.
func NewService(
	tickets ticket.Store,
	users user.Store,
	analyzer Analyzer,
	resolver *Resolver,
	m mailer.Mailer,
	logger *slog.Logger,
) *Service {
	return &Service{
		tickets:  tickets,
		users:    users,
		analyzer: analyzer,
		resolver: resolver,
		mailer:   m,
		logger:   logger,
	}
}

// TicketCreatedWorkflow returns the triage workflow definition:
// analyze the ticket, pick and persist an assignee, notify them.
func (s *Service) TicketCreatedWorkflow() *workflow.Definition[TicketCreated] {
	return workflow.NewWorkflow(TicketCreatedHandler, s.handleTicketCreated)
}

// assignResult is the memoized output of the assign step, carrying what
// the notify step needs.
type assignResult struct {
	AssigneeEmail string `json:"assignee_email,omitempty"`
	TicketTitle   string `json:"ticket_title"`
}

func (s *Service) handleTicketCreated(wf *workflow.Workflow, input TicketCreated) error {
	analysis, err := workflow.StepWithResult(wf, "analyze", func(ctx context.Context) (Analysis, error) {
		raw, aerr := s.analyzer.Analyze(ctx, input.Title, input.Description)
		if aerr != nil {
			// Degrade instead of failing: a bad analysis must not
			// block the ticket. Defaults are MEDIUM priority, no skills.
			s.logger.Warn("ticket analysis failed, using defaults",
				slog.String("ticket_id", input.TicketID.String()),
				slog.String("error", aerr.Error()),
			)
			return sanitize(nil), nil
		}
		return sanitize(raw), nil
	})
	if err != nil {
		return err
	}

	assigned, err := workflow.StepWithResult(wf, "assign", func(ctx context.Context) (assignResult, error) {
		t, gerr := s.tickets.GetTicket(ctx, input.TicketID)
		if gerr != nil {
			if errors.Is(gerr, fluxdesk.ErrTicketNotFound) {
				return assignResult{}, workflow.Terminal(fmt.Errorf("ticket %s: %w", input.TicketID, gerr))
			}
			return assignResult{}, gerr
		}

		moderators, lerr := s.users.ListUsers(ctx, user.RoleModerator)
		if lerr != nil {
			return assignResult{}, fmt.Errorf("list moderators: %w", lerr)
		}

		assignee, serr := s.resolver.Select(ctx, moderators, analysis.RequiredSkills)
		if serr != nil {
			return assignResult{}, serr
		}

		patch := ticket.Patch{
			Priority:      &analysis.Priority,
			RelatedSkills: &analysis.RequiredSkills,
			HelpfulNotes:  &analysis.Summary,
		}
		result := assignResult{TicketTitle: t.Title}
		if assignee != nil {
			assigneeID := assignee.ID
			ptr := &assigneeID
			patch.AssignedTo = &ptr
			result.AssigneeEmail = assignee.Email
		}

		if _, uerr := s.tickets.UpdateTicket(ctx, input.TicketID, patch); uerr != nil {
			return assignResult{}, fmt.Errorf("persist triage outcome: %w", uerr)
		}
		return result, nil
	})
	if err != nil {
		return err
	}

	// Unassigned tickets get no notification; they wait for manual triage.
	if assigned.AssigneeEmail == "" {
		return nil
	}

	return wf.Step("notify", func(ctx context.Context) error {
		subject := "Ticket assigned to you"
		body := fmt.Sprintf("You have been assigned ticket %s: %s", input.TicketID, assigned.TicketTitle)
		return s.mailer.Send(ctx, assigned.AssigneeEmail, subject, body)
	})
}

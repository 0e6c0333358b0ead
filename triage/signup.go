package triage

import (
	"context"
	"errors"
	"fmt"

	"github.com/fluxdesk/fluxdesk"
	"github.com/fluxdesk/fluxdesk/workflow"
)

// UserSignupHandler is the workflow handler name for the signup flow.
const UserSignupHandler = "on-user-signup"

// UserSignup is the payload of the user.signup event.
type UserSignup struct {
	Email string `json:"email"`
}

// UserSignupWorkflow returns the signup workflow definition: confirm the
// account exists, then send a welcome mail. The welcome step is memoized
// so a retried run never double-sends.
func (s *Service) UserSignupWorkflow() *workflow.Definition[UserSignup] {
	return workflow.NewWorkflow(UserSignupHandler, s.handleUserSignup)
}

func (s *Service) handleUserSignup(wf *workflow.Workflow, input UserSignup) error {
	email, err := workflow.StepWithResult(wf, "lookup", func(ctx context.Context) (string, error) {
		u, gerr := s.users.GetUserByEmail(ctx, input.Email)
		if gerr != nil {
			if errors.Is(gerr, fluxdesk.ErrUserNotFound) {
				// The event references an account that does not exist.
				// That is a consistency violation, not a transient
				// condition, so retrying is pointless.
				return "", workflow.Terminal(fmt.Errorf("user %q: %w", input.Email, gerr))
			}
			return "", gerr
		}
		return u.Email, nil
	})
	if err != nil {
		return err
	}

	return wf.Step("welcome", func(ctx context.Context) error {
		subject := "Welcome to Fluxdesk"
		body := fmt.Sprintf("Hi %s,\n\nYour account is ready. Log in to create and track your support tickets.\n\nThe Fluxdesk team", email)
		return s.mailer.Send(ctx, email, subject, body)
	})
}

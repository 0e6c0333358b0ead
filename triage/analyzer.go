// Package triage contains the ticket triage and signup workflows, the
// AI analysis boundary, and the skill-based assignment resolver.
package triage

import (
	"context"
	"errors"
	"strings"

	"github.com/fluxdesk/fluxdesk/ticket"
)

// Analysis is the structured output of the analysis collaborator.
type Analysis struct {
	Summary        string          `json:"summary"`
	Priority       ticket.Priority `json:"priority"`
	RequiredSkills []string        `json:"required_skills"`
}

// Analyzer derives triage hints from a ticket's title and description.
// Implementations are treated as slow and unreliable; callers bound them
// with a timeout and sanitize the output before use.
type Analyzer interface {
	Analyze(ctx context.Context, title, description string) (*Analysis, error)
}

// Disabled is the Analyzer used when no analysis backend is configured.
// Every call fails, so triage falls back to its defaults.
type Disabled struct{}

func (Disabled) Analyze(ctx context.Context, title, description string) (*Analysis, error) {
	return nil, errors.New("analysis backend not configured")
}

// sanitize normalizes analyzer output, substituting defaults for
// malformed or missing fields. Triage degrades instead of failing: a
// bad analysis never blocks the ticket.
func sanitize(a *Analysis) Analysis {
	out := Analysis{
		Priority:       ticket.PriorityMedium,
		RequiredSkills: []string{},
	}
	if a == nil {
		return out
	}

	out.Summary = strings.TrimSpace(a.Summary)

	p := ticket.Priority(strings.ToUpper(strings.TrimSpace(string(a.Priority))))
	if p.Valid() {
		out.Priority = p
	}

	for _, s := range a.RequiredSkills {
		s = strings.TrimSpace(s)
		if s != "" {
			out.RequiredSkills = append(out.RequiredSkills, s)
		}
	}

	return out
}

package triage

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/fluxdesk/fluxdesk/ticket"
	"github.com/fluxdesk/fluxdesk/user"
)

// Resolver picks an assignee from a candidate pool by skill overlap.
// Ranking: largest skill intersection first, then fewest open assigned
// tickets, then lowest user ID so the result is deterministic for a
// given snapshot.
type Resolver struct {
	tickets ticket.Store
}

// NewResolver creates an assignment resolver backed by the ticket store
// for the load tie-break.
func NewResolver(tickets ticket.Store) *Resolver {
	return &Resolver{tickets: tickets}
}

// Select returns the best-matching candidate, or nil when the pool is
// empty or nobody shares a skill with the ticket. Nil is an expected
// outcome, not an error: the ticket stays unassigned for manual triage.
func (r *Resolver) Select(ctx context.Context, candidates []*user.User, requiredSkills []string) (*user.User, error) {
	if len(candidates) == 0 || len(requiredSkills) == 0 {
		return nil, nil
	}

	required := make(map[string]struct{}, len(requiredSkills))
	for _, s := range requiredSkills {
		required[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}

	type scored struct {
		user    *user.User
		overlap int
		load    int64
	}

	ranked := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		overlap := 0
		for _, s := range c.Skills {
			if _, ok := required[strings.ToLower(strings.TrimSpace(s))]; ok {
				overlap++
			}
		}
		if overlap == 0 {
			continue
		}

		load, err := r.tickets.CountOpenAssigned(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("count open tickets for %s: %w", c.ID, err)
		}
		ranked = append(ranked, scored{user: c, overlap: overlap, load: load})
	}

	if len(ranked) == 0 {
		return nil, nil
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].overlap != ranked[j].overlap {
			return ranked[i].overlap > ranked[j].overlap
		}
		if ranked[i].load != ranked[j].load {
			return ranked[i].load < ranked[j].load
		}
		return ranked[i].user.ID.String() < ranked[j].user.ID.String()
	})

	return ranked[0].user, nil
}

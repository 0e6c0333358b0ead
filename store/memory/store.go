// Package memory provides an in-memory implementation of every store
// interface in the module. It backs tests and single-process development
// setups; nothing survives a restart.
package memory

import (
	"sync"

	"github.com/fluxdesk/fluxdesk/dlq"
	"github.com/fluxdesk/fluxdesk/event"
	"github.com/fluxdesk/fluxdesk/ticket"
	"github.com/fluxdesk/fluxdesk/user"
	"github.com/fluxdesk/fluxdesk/workflow"
)

// Store holds all state behind a single RWMutex. Values are copied on
// the way in and out so callers never share memory with the store.
type Store struct {
	mu sync.RWMutex

	runs  map[string]*workflow.Run
	steps map[string]map[string]*workflow.StepRecord

	events     map[string]*event.Event
	eventOrder []string

	dlqEntries map[string]*dlq.Entry
	dlqOrder   []string

	tickets     map[string]*ticket.Ticket
	ticketOrder []string

	users  map[string]*user.User
	emails map[string]string
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		runs:       make(map[string]*workflow.Run),
		steps:      make(map[string]map[string]*workflow.StepRecord),
		events:     make(map[string]*event.Event),
		dlqEntries: make(map[string]*dlq.Entry),
		tickets:    make(map[string]*ticket.Ticket),
		users:      make(map[string]*user.User),
		emails:     make(map[string]string),
	}
}

// Interface conformance.
var (
	_ workflow.Store = (*Store)(nil)
	_ event.Store    = (*Store)(nil)
	_ dlq.Store      = (*Store)(nil)
	_ ticket.Store   = (*Store)(nil)
	_ user.Store     = (*Store)(nil)
)

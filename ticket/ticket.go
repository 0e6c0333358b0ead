// Package ticket defines the helpdesk ticket model and its persistence
// contract. Enrichment fields (priority, skills, notes) start empty and
// are filled in by the triage workflow after creation.
package ticket

import (
	"github.com/fluxdesk/fluxdesk"
	"github.com/fluxdesk/fluxdesk/id"
)

// Status tracks a ticket through its lifecycle.
type Status string

const (
	StatusTodo       Status = "TODO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Priority is the triage-assigned urgency of a ticket.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Ticket is a helpdesk ticket. Priority, RelatedSkills, and HelpfulNotes
// are empty until the triage workflow enriches them; AssignedTo is nil
// until a moderator is assigned.
type Ticket struct {
	fluxdesk.Entity `bson:",inline"`

	ID          id.ID  `json:"id" bson:"_id"`
	Title       string `json:"title" bson:"title"`
	Description string `json:"description" bson:"description"`
	Status      Status `json:"status" bson:"status"`

	Priority      Priority `json:"priority,omitempty" bson:"priority,omitempty"`
	RelatedSkills []string `json:"related_skills,omitempty" bson:"related_skills,omitempty"`
	HelpfulNotes  string   `json:"helpful_notes,omitempty" bson:"helpful_notes,omitempty"`

	CreatedBy  id.ID  `json:"created_by" bson:"created_by"`
	AssignedTo *id.ID `json:"assigned_to,omitempty" bson:"assigned_to,omitempty"`
}

// New creates a ticket in the TODO state for the given creator.
func New(title, description string, createdBy id.ID) *Ticket {
	return &Ticket{
		Entity:      fluxdesk.NewEntity(),
		ID:          id.NewTicketID(),
		Title:       title,
		Description: description,
		Status:      StatusTodo,
		CreatedBy:   createdBy,
	}
}

// Patch is a partial update. Nil fields are left unchanged; AssignedTo
// distinguishes "leave alone" (nil) from "unassign" (pointer to nil ID).
type Patch struct {
	Title         *string   `json:"title,omitempty"`
	Description   *string   `json:"description,omitempty"`
	Status        *Status   `json:"status,omitempty"`
	Priority      *Priority `json:"priority,omitempty"`
	RelatedSkills *[]string `json:"related_skills,omitempty"`
	HelpfulNotes  *string   `json:"helpful_notes,omitempty"`
	AssignedTo    **id.ID   `json:"-"`
}

// Apply copies the patch's set fields onto t.
func (p Patch) Apply(t *Ticket) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.RelatedSkills != nil {
		t.RelatedSkills = *p.RelatedSkills
	}
	if p.HelpfulNotes != nil {
		t.HelpfulNotes = *p.HelpfulNotes
	}
	if p.AssignedTo != nil {
		t.AssignedTo = *p.AssignedTo
	}
}

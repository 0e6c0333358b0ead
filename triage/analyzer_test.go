package triage

import (
	"testing"

	"github.com/fluxdesk/fluxdesk/ticket"
)

func TestSanitizeDefaults(t *testing.T) {
	got := sanitize(nil)
	if got.Priority != ticket.PriorityMedium {
		t.Errorf("priority = %s, want MEDIUM", got.Priority)
	}
	if got.RequiredSkills == nil || len(got.RequiredSkills) != 0 {
		t.Errorf("required skills = %v, want empty non-nil slice", got.RequiredSkills)
	}
}

func TestSanitizeNormalizes(t *testing.T) {
	got := sanitize(&Analysis{
		Summary:        "  check the indexes  ",
		Priority:       "high",
		RequiredSkills: []string{" mongodb ", "", "go"},
	})

	if got.Priority != ticket.PriorityHigh {
		t.Errorf("priority = %s, want HIGH", got.Priority)
	}
	if got.Summary != "check the indexes" {
		t.Errorf("summary = %q", got.Summary)
	}
	if len(got.RequiredSkills) != 2 || got.RequiredSkills[0] != "mongodb" || got.RequiredSkills[1] != "go" {
		t.Errorf("required skills = %v, want [mongodb go]", got.RequiredSkills)
	}
}

func TestSanitizeRejectsUnknownPriority(t *testing.T) {
	got := sanitize(&Analysis{Priority: "URGENT"})
	if got.Priority != ticket.PriorityMedium {
		t.Errorf("priority = %s, want MEDIUM fallback", got.Priority)
	}
}

func TestStripFences(t *testing.T) {
	cases := map[string]string{
		"{\"a\":1}":               "{\"a\":1}",
		"```json\n{\"a\":1}\n```": "{\"a\":1}",
		"```\n{\"a\":1}\n```":     "{\"a\":1}",
		"  {\"a\":1}  ":           "{\"a\":1}",
	}
	for in, want := range cases {
		if got := stripFences(in); got != want {
			t.Errorf("stripFences(%q) = %q, want %q", in, got, want)
		}
	}
}

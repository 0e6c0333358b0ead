package id_test

import (
	"encoding/json"
	"testing"

	"github.com/fluxdesk/fluxdesk/id"
)

func TestNewAndParse(t *testing.T) {
	tid := id.NewTicketID()

	if tid.IsNil() {
		t.Fatal("NewTicketID returned nil ID")
	}
	if tid.Prefix() != id.PrefixTicket {
		t.Errorf("prefix = %q, want %q", tid.Prefix(), id.PrefixTicket)
	}

	parsed, err := id.ParseTicketID(tid.String())
	if err != nil {
		t.Fatalf("ParseTicketID: %v", err)
	}
	if parsed.String() != tid.String() {
		t.Errorf("round trip = %q, want %q", parsed.String(), tid.String())
	}
}

func TestParseWrongPrefix(t *testing.T) {
	uid := id.NewUserID()

	if _, err := id.ParseTicketID(uid.String()); err == nil {
		t.Error("expected error parsing user ID as ticket ID")
	}
}

func TestParseEmpty(t *testing.T) {
	if _, err := id.Parse(""); err == nil {
		t.Error("expected error parsing empty string")
	}
}

func TestNilID(t *testing.T) {
	if id.Nil.String() != "" {
		t.Errorf("Nil.String() = %q, want empty", id.Nil.String())
	}
	if !id.Nil.IsNil() {
		t.Error("Nil.IsNil() = false")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	type wrapper struct {
		ID id.ID `json:"id"`
	}

	rid := id.NewRunID()
	data, err := json.Marshal(wrapper{ID: rid})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got wrapper
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ID.String() != rid.String() {
		t.Errorf("round trip = %q, want %q", got.ID.String(), rid.String())
	}
}

func TestIDsAreSortableAndUnique(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		s := id.NewEventID().String()
		if seen[s] {
			t.Fatalf("duplicate ID generated: %s", s)
		}
		seen[s] = true
	}
}

package triage

import (
	"context"
	"testing"

	"github.com/fluxdesk/fluxdesk/id"
	"github.com/fluxdesk/fluxdesk/store/memory"
	"github.com/fluxdesk/fluxdesk/ticket"
	"github.com/fluxdesk/fluxdesk/user"
)

func newModerator(t *testing.T, store *memory.Store, email string, skills ...string) *user.User {
	t.Helper()

	u := user.New(email, []byte("x"))
	u.Role = user.RoleModerator
	u.Skills = skills
	if err := store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

func assignOpenTicket(t *testing.T, store *memory.Store, assignee id.ID) {
	t.Helper()

	tk := ticket.New("open", "still open", id.NewUserID())
	if err := store.CreateTicket(context.Background(), tk); err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	ptr := &assignee
	if _, err := store.UpdateTicket(context.Background(), tk.ID, ticket.Patch{AssignedTo: &ptr}); err != nil {
		t.Fatalf("UpdateTicket: %v", err)
	}
}

func TestSelectPrefersLargestOverlap(t *testing.T) {
	store := memory.New()
	resolver := NewResolver(store)

	one := newModerator(t, store, "one@example.com", "go")
	two := newModerator(t, store, "two@example.com", "go", "mongodb")

	got, err := resolver.Select(context.Background(), []*user.User{one, two}, []string{"go", "mongodb"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if got == nil || !got.ID.Equal(two.ID) {
		t.Errorf("selected %v, want the two-skill moderator", got)
	}
}

func TestSelectOverlapOutranksLoad(t *testing.T) {
	store := memory.New()
	resolver := NewResolver(store)

	// The broader match carries strictly more open tickets; overlap still
	// decides first and load only breaks ties.
	narrow := newModerator(t, store, "narrow@example.com", "mongodb")
	broad := newModerator(t, store, "broad@example.com", "mongodb", "networking")
	assignOpenTicket(t, store, narrow.ID)
	assignOpenTicket(t, store, broad.ID)
	assignOpenTicket(t, store, broad.ID)

	got, err := resolver.Select(context.Background(), []*user.User{narrow, broad}, []string{"mongodb", "networking"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if got == nil || !got.ID.Equal(broad.ID) {
		t.Errorf("selected %v, want the busier two-skill moderator", got)
	}
}

func TestSelectSkillMatchIsCaseInsensitive(t *testing.T) {
	store := memory.New()
	resolver := NewResolver(store)

	m := newModerator(t, store, "mod@example.com", "MongoDB")

	got, err := resolver.Select(context.Background(), []*user.User{m}, []string{"mongodb"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if got == nil || !got.ID.Equal(m.ID) {
		t.Errorf("selected %v, want the MongoDB moderator", got)
	}
}

func TestSelectTieBreaksOnLoad(t *testing.T) {
	store := memory.New()
	resolver := NewResolver(store)

	busy := newModerator(t, store, "busy@example.com", "go")
	free := newModerator(t, store, "free@example.com", "go")
	assignOpenTicket(t, store, busy.ID)

	got, err := resolver.Select(context.Background(), []*user.User{busy, free}, []string{"go"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if got == nil || !got.ID.Equal(free.ID) {
		t.Errorf("selected %v, want the unloaded moderator", got)
	}
}

func TestSelectDoneTicketsDoNotCountAsLoad(t *testing.T) {
	store := memory.New()
	resolver := NewResolver(store)

	a := newModerator(t, store, "a@example.com", "go")
	b := newModerator(t, store, "b@example.com", "go")

	// a has one DONE ticket; both moderators carry zero open load.
	tk := ticket.New("closed", "resolved", id.NewUserID())
	if err := store.CreateTicket(context.Background(), tk); err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	assignee := &a.ID
	done := ticket.StatusDone
	if _, err := store.UpdateTicket(context.Background(), tk.ID, ticket.Patch{AssignedTo: &assignee, Status: &done}); err != nil {
		t.Fatalf("UpdateTicket: %v", err)
	}

	got, err := resolver.Select(context.Background(), []*user.User{a, b}, []string{"go"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}

	// Equal overlap and equal load: the lower ID wins.
	want := a
	if b.ID.String() < a.ID.String() {
		want = b
	}
	if got == nil || !got.ID.Equal(want.ID) {
		t.Errorf("selected %v, want %s", got, want.ID)
	}
}

func TestSelectDeterministicForSameSnapshot(t *testing.T) {
	store := memory.New()
	resolver := NewResolver(store)

	pool := []*user.User{
		newModerator(t, store, "x@example.com", "go"),
		newModerator(t, store, "y@example.com", "go"),
		newModerator(t, store, "z@example.com", "go"),
	}

	first, err := resolver.Select(context.Background(), pool, []string{"go"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := resolver.Select(context.Background(), pool, []string{"go"})
		if err != nil {
			t.Fatalf("Select: %v", err)
		}
		if !again.ID.Equal(first.ID) {
			t.Fatalf("selection changed between identical calls: %s then %s", first.ID, again.ID)
		}
	}
}

func TestSelectReturnsNilWithoutOverlap(t *testing.T) {
	store := memory.New()
	resolver := NewResolver(store)

	m := newModerator(t, store, "mod@example.com", "kubernetes")

	got, err := resolver.Select(context.Background(), []*user.User{m}, []string{"cobol"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if got != nil {
		t.Errorf("selected %s with zero overlap, want nil", got.ID)
	}
}

func TestSelectReturnsNilForEmptyPool(t *testing.T) {
	store := memory.New()
	resolver := NewResolver(store)

	got, err := resolver.Select(context.Background(), nil, []string{"go"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if got != nil {
		t.Errorf("selected %s from an empty pool, want nil", got.ID)
	}
}

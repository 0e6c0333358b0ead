package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/fluxdesk/fluxdesk"
	"github.com/fluxdesk/fluxdesk/id"
	"github.com/fluxdesk/fluxdesk/user"
)

func copyUser(u *user.User) *user.User {
	cp := *u
	cp.PasswordHash = append([]byte(nil), u.PasswordHash...)
	cp.Skills = append([]string(nil), u.Skills...)
	return &cp
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser persists a new account, enforcing email uniqueness.
func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := normalizeEmail(u.Email)
	if _, ok := s.emails[email]; ok {
		return fmt.Errorf("user %s: %w", u.Email, fluxdesk.ErrEmailTaken)
	}

	key := u.ID.String()
	if _, ok := s.users[key]; ok {
		return fmt.Errorf("user %s: %w", u.ID, fluxdesk.ErrAlreadyExists)
	}

	s.users[key] = copyUser(u)
	s.emails[email] = key
	return nil
}

// GetUser retrieves an account by ID.
func (s *Store) GetUser(ctx context.Context, userID id.ID) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID.String()]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, fluxdesk.ErrUserNotFound)
	}
	return copyUser(u), nil
}

// GetUserByEmail retrieves an account by email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key, ok := s.emails[normalizeEmail(email)]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", email, fluxdesk.ErrUserNotFound)
	}
	return copyUser(s.users[key]), nil
}

// UpdateUser applies a partial update and returns the updated account.
func (s *Store) UpdateUser(ctx context.Context, userID id.ID, patch user.Patch) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID.String()]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, fluxdesk.ErrUserNotFound)
	}

	patch.Apply(u)
	u.Touch()
	return copyUser(u), nil
}

// ListUsers returns accounts sorted by ID, optionally filtered by role.
func (s *Store) ListUsers(ctx context.Context, role user.Role) ([]*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*user.User, 0, len(s.users))
	for _, u := range s.users {
		if role != "" && u.Role != role {
			continue
		}
		out = append(out, copyUser(u))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

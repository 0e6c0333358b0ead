package user

import (
	"context"

	"github.com/fluxdesk/fluxdesk/id"
)

// Patch is a partial account update. Nil fields are left unchanged.
type Patch struct {
	Role   *Role     `json:"role,omitempty"`
	Skills *[]string `json:"skills,omitempty"`
}

// Apply copies the patch's set fields onto u.
func (p Patch) Apply(u *User) {
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.Skills != nil {
		u.Skills = *p.Skills
	}
}

// Store defines the persistence contract for accounts.
type Store interface {
	// CreateUser persists a new account. Returns fluxdesk.ErrEmailTaken
	// if the email is already registered.
	CreateUser(ctx context.Context, u *User) error

	// GetUser retrieves an account by ID.
	GetUser(ctx context.Context, userID id.ID) (*User, error)

	// GetUserByEmail retrieves an account by email.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// UpdateUser applies a partial update and returns the updated account.
	UpdateUser(ctx context.Context, userID id.ID, patch Patch) (*User, error)

	// ListUsers returns accounts, optionally filtered by role. An empty
	// role means all accounts.
	ListUsers(ctx context.Context, role Role) ([]*User, error)
}

// Package user defines the account model and its persistence contract.
// Moderator accounts carry a skill list that the triage workflow matches
// against ticket skills when picking an assignee.
package user

import (
	"github.com/fluxdesk/fluxdesk"
	"github.com/fluxdesk/fluxdesk/id"
)

// Role controls what an account can see and do.
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// User is an account. PasswordHash is a bcrypt hash and is never
// serialized to JSON.
type User struct {
	fluxdesk.Entity `bson:",inline"`

	ID           id.ID    `json:"id" bson:"_id"`
	Email        string   `json:"email" bson:"email"`
	PasswordHash []byte   `json:"-" bson:"password_hash"`
	Role         Role     `json:"role" bson:"role"`
	Skills       []string `json:"skills,omitempty" bson:"skills,omitempty"`
}

// New creates an account with the default user role.
func New(email string, passwordHash []byte) *User {
	return &User{
		Entity:       fluxdesk.NewEntity(),
		ID:           id.NewUserID(),
		Email:        email,
		PasswordHash: passwordHash,
		Role:         RoleUser,
	}
}

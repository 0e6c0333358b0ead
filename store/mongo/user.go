package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/fluxdesk/fluxdesk"
	"github.com/fluxdesk/fluxdesk/id"
	"github.com/fluxdesk/fluxdesk/user"
)

// CreateUser persists a new account. Email uniqueness is enforced by
// the unique index created in Migrate.
func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if _, err := s.db.Collection(collUsers).InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("user %s: %w", u.Email, fluxdesk.ErrEmailTaken)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUser retrieves an account by ID.
func (s *Store) GetUser(ctx context.Context, userID id.ID) (*user.User, error) {
	var u user.User
	err := s.db.Collection(collUsers).FindOne(ctx, bson.M{"_id": userID}).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("user %s: %w", userID, fluxdesk.ErrUserNotFound)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

// GetUserByEmail retrieves an account by email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var u user.User
	err := s.db.Collection(collUsers).FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("user %s: %w", email, fluxdesk.ErrUserNotFound)
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &u, nil
}

// UpdateUser applies a partial update and returns the updated account.
func (s *Store) UpdateUser(ctx context.Context, userID id.ID, patch user.Patch) (*user.User, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.Role != nil {
		set["role"] = *patch.Role
	}
	if patch.Skills != nil {
		set["skills"] = *patch.Skills
	}

	var u user.User
	err := s.db.Collection(collUsers).FindOneAndUpdate(ctx,
		bson.M{"_id": userID}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("user %s: %w", userID, fluxdesk.ErrUserNotFound)
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return &u, nil
}

// ListUsers returns accounts sorted by ID, optionally filtered by role.
func (s *Store) ListUsers(ctx context.Context, role user.Role) ([]*user.User, error) {
	filter := bson.M{}
	if role != "" {
		filter["role"] = role
	}

	cursor, err := s.db.Collection(collUsers).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []*user.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

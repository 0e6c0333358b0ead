package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/fluxdesk/fluxdesk"
	"github.com/fluxdesk/fluxdesk/id"
	"github.com/fluxdesk/fluxdesk/ticket"
)

// CreateTicket persists a new ticket.
func (s *Store) CreateTicket(ctx context.Context, t *ticket.Ticket) error {
	if _, err := s.db.Collection(collTickets).InsertOne(ctx, t); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("ticket %s: %w", t.ID, fluxdesk.ErrAlreadyExists)
		}
		return fmt.Errorf("insert ticket: %w", err)
	}
	return nil
}

// GetTicket retrieves a ticket by ID.
func (s *Store) GetTicket(ctx context.Context, ticketID id.ID) (*ticket.Ticket, error) {
	var t ticket.Ticket
	err := s.db.Collection(collTickets).FindOne(ctx, bson.M{"_id": ticketID}).Decode(&t)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("ticket %s: %w", ticketID, fluxdesk.ErrTicketNotFound)
		}
		return nil, fmt.Errorf("find ticket: %w", err)
	}
	return &t, nil
}

// UpdateTicket applies a partial update with $set and returns the
// updated ticket.
func (s *Store) UpdateTicket(ctx context.Context, ticketID id.ID, patch ticket.Patch) (*ticket.Ticket, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	unset := bson.M{}

	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Status != nil {
		set["status"] = *patch.Status
	}
	if patch.Priority != nil {
		set["priority"] = *patch.Priority
	}
	if patch.RelatedSkills != nil {
		set["related_skills"] = *patch.RelatedSkills
	}
	if patch.HelpfulNotes != nil {
		set["helpful_notes"] = *patch.HelpfulNotes
	}
	if patch.AssignedTo != nil {
		if *patch.AssignedTo == nil {
			unset["assigned_to"] = ""
		} else {
			set["assigned_to"] = **patch.AssignedTo
		}
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	var t ticket.Ticket
	err := s.db.Collection(collTickets).FindOneAndUpdate(ctx,
		bson.M{"_id": ticketID}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&t)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("ticket %s: %w", ticketID, fluxdesk.ErrTicketNotFound)
		}
		return nil, fmt.Errorf("update ticket: %w", err)
	}
	return &t, nil
}

// ListTickets returns tickets matching the options, newest first.
func (s *Store) ListTickets(ctx context.Context, opts ticket.ListOpts) ([]*ticket.Ticket, error) {
	filter := bson.M{}
	if !opts.CreatedBy.IsNil() {
		filter["created_by"] = opts.CreatedBy
	}
	if !opts.AssignedTo.IsNil() {
		filter["assigned_to"] = opts.AssignedTo
	}
	if opts.Status != "" {
		filter["status"] = opts.Status
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if opts.Offset > 0 {
		findOpts.SetSkip(int64(opts.Offset))
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}

	cursor, err := s.db.Collection(collTickets).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("find tickets: %w", err)
	}
	defer cursor.Close(ctx)

	var tickets []*ticket.Ticket
	if err := cursor.All(ctx, &tickets); err != nil {
		return nil, fmt.Errorf("decode tickets: %w", err)
	}
	return tickets, nil
}

// CountOpenAssigned returns how many non-DONE tickets are assigned to
// the given user.
func (s *Store) CountOpenAssigned(ctx context.Context, userID id.ID) (int64, error) {
	n, err := s.db.Collection(collTickets).CountDocuments(ctx, bson.M{
		"assigned_to": userID,
		"status":      bson.M{"$ne": ticket.StatusDone},
	})
	if err != nil {
		return 0, fmt.Errorf("count open assigned tickets: %w", err)
	}
	return n, nil
}

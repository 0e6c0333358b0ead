package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/fluxdesk/fluxdesk"
	"github.com/fluxdesk/fluxdesk/event"
	"github.com/fluxdesk/fluxdesk/id"
)

// AppendEvent persists a published event.
func (s *Store) AppendEvent(ctx context.Context, evt *event.Event) error {
	if _, err := s.db.Collection(collEvents).InsertOne(ctx, toEventDoc(evt)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("event %s: %w", evt.ID, fluxdesk.ErrAlreadyExists)
		}
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// GetEvent retrieves an event by ID.
func (s *Store) GetEvent(ctx context.Context, eventID id.ID) (*event.Event, error) {
	var doc eventDoc
	err := s.db.Collection(collEvents).FindOne(ctx, bson.M{"_id": eventID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("event %s: %w", eventID, fluxdesk.ErrEventNotFound)
		}
		return nil, fmt.Errorf("find event: %w", err)
	}
	return doc.toDomain(), nil
}

// ListEvents returns events newest first, optionally filtered by name.
func (s *Store) ListEvents(ctx context.Context, name string, limit int) ([]*event.Event, error) {
	filter := bson.M{}
	if name != "" {
		filter["name"] = name
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "occurred_at", Value: -1}})
	if limit > 0 {
		findOpts.SetLimit(int64(limit))
	}

	cursor, err := s.db.Collection(collEvents).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("find events: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []eventDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}

	events := make([]*event.Event, 0, len(docs))
	for _, doc := range docs {
		events = append(events, doc.toDomain())
	}
	return events, nil
}

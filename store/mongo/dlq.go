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
	"github.com/fluxdesk/fluxdesk/dlq"
	"github.com/fluxdesk/fluxdesk/id"
)

// PushDLQ adds a failed run entry to the dead letter queue.
func (s *Store) PushDLQ(ctx context.Context, entry *dlq.Entry) error {
	if _, err := s.db.Collection(collDLQ).InsertOne(ctx, toDLQDoc(entry)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("dlq entry %s: %w", entry.ID, fluxdesk.ErrAlreadyExists)
		}
		return fmt.Errorf("insert dlq entry: %w", err)
	}
	return nil
}

// ListDLQ returns DLQ entries newest first.
func (s *Store) ListDLQ(ctx context.Context, opts dlq.ListOpts) ([]*dlq.Entry, error) {
	filter := bson.M{}
	if opts.Handler != "" {
		filter["handler"] = opts.Handler
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "failed_at", Value: -1}})
	if opts.Offset > 0 {
		findOpts.SetSkip(int64(opts.Offset))
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}

	cursor, err := s.db.Collection(collDLQ).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("find dlq entries: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []dlqDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode dlq entries: %w", err)
	}

	entries := make([]*dlq.Entry, 0, len(docs))
	for _, doc := range docs {
		entries = append(entries, doc.toDomain())
	}
	return entries, nil
}

// GetDLQ retrieves a DLQ entry by ID.
func (s *Store) GetDLQ(ctx context.Context, entryID id.ID) (*dlq.Entry, error) {
	var doc dlqDoc
	err := s.db.Collection(collDLQ).FindOne(ctx, bson.M{"_id": entryID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("dlq entry %s: %w", entryID, fluxdesk.ErrDLQNotFound)
		}
		return nil, fmt.Errorf("find dlq entry: %w", err)
	}
	return doc.toDomain(), nil
}

// MarkReplayed stamps a DLQ entry as replayed.
func (s *Store) MarkReplayed(ctx context.Context, entryID id.ID) error {
	res, err := s.db.Collection(collDLQ).UpdateOne(ctx,
		bson.M{"_id": entryID},
		bson.M{"$set": bson.M{"replayed_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("mark dlq entry replayed: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("dlq entry %s: %w", entryID, fluxdesk.ErrDLQNotFound)
	}
	return nil
}

// PurgeDLQ removes entries that failed before the given time.
func (s *Store) PurgeDLQ(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.Collection(collDLQ).DeleteMany(ctx, bson.M{"failed_at": bson.M{"$lt": before}})
	if err != nil {
		return 0, fmt.Errorf("purge dlq entries: %w", err)
	}
	return res.DeletedCount, nil
}

// CountDLQ returns the number of entries in the dead letter queue.
func (s *Store) CountDLQ(ctx context.Context) (int64, error) {
	n, err := s.db.Collection(collDLQ).CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count dlq entries: %w", err)
	}
	return n, nil
}

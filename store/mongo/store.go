// Package mongo provides the MongoDB-backed implementation of every
// store interface in the module.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/fluxdesk/fluxdesk/dlq"
	"github.com/fluxdesk/fluxdesk/event"
	"github.com/fluxdesk/fluxdesk/ticket"
	"github.com/fluxdesk/fluxdesk/user"
	"github.com/fluxdesk/fluxdesk/workflow"
)

const (
	collRuns    = "workflow_runs"
	collSteps   = "workflow_steps"
	collEvents  = "events"
	collDLQ     = "dlq_entries"
	collTickets = "tickets"
	collUsers   = "users"
)

// Store implements the module's store interfaces on MongoDB.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// New connects to MongoDB and returns a store bound to the given
// database. Call Migrate once at startup to ensure indexes.
func New(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return &Store{client: client, db: client.Database(database)}, nil
}

// Migrate creates the indexes the queries depend on.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		collRuns: {
			{Keys: bson.D{{Key: "state", Value: 1}}},
			{Keys: bson.D{{Key: "handler", Value: 1}}},
			{Keys: bson.D{{Key: "started_at", Value: -1}}},
		},
		collSteps: {
			{Keys: bson.D{{Key: "run_id", Value: 1}, {Key: "name", Value: 1}},
				Options: options.Index().SetUnique(true)},
		},
		collEvents: {
			{Keys: bson.D{{Key: "name", Value: 1}, {Key: "occurred_at", Value: -1}}},
		},
		collDLQ: {
			{Keys: bson.D{{Key: "handler", Value: 1}}},
			{Keys: bson.D{{Key: "failed_at", Value: -1}}},
		},
		collTickets: {
			{Keys: bson.D{{Key: "created_by", Value: 1}}},
			{Keys: bson.D{{Key: "assigned_to", Value: 1}, {Key: "status", Value: 1}}},
		},
		collUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "role", Value: 1}}},
		},
	}

	for coll, models := range indexes {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

// Close disconnects from MongoDB.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Interface conformance.
var (
	_ workflow.Store = (*Store)(nil)
	_ event.Store    = (*Store)(nil)
	_ dlq.Store      = (*Store)(nil)
	_ ticket.Store   = (*Store)(nil)
	_ user.Store     = (*Store)(nil)
)

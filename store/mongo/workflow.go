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
	"github.com/fluxdesk/fluxdesk/workflow"
)

// CreateRun persists a new workflow run.
func (s *Store) CreateRun(ctx context.Context, run *workflow.Run) error {
	if _, err := s.db.Collection(collRuns).InsertOne(ctx, toRunDoc(run)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("run %s: %w", run.ID, fluxdesk.ErrAlreadyExists)
		}
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetRun retrieves a workflow run by ID.
func (s *Store) GetRun(ctx context.Context, runID id.ID) (*workflow.Run, error) {
	var doc runDoc
	err := s.db.Collection(collRuns).FindOne(ctx, bson.M{"_id": runID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("run %s: %w", runID, fluxdesk.ErrRunNotFound)
		}
		return nil, fmt.Errorf("find run: %w", err)
	}
	return doc.toDomain(), nil
}

// UpdateRun persists changes to an existing workflow run.
func (s *Store) UpdateRun(ctx context.Context, run *workflow.Run) error {
	run.Touch()
	update := bson.M{"$set": bson.M{
		"attempt":      run.Attempt,
		"state":        run.State,
		"error":        run.Error,
		"completed_at": run.CompletedAt,
		"updated_at":   run.UpdatedAt,
	}}

	res, err := s.db.Collection(collRuns).UpdateOne(ctx, bson.M{"_id": run.ID}, update)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("run %s: %w", run.ID, fluxdesk.ErrRunNotFound)
	}
	return nil
}

// ListRuns returns workflow runs matching the given options, newest first.
func (s *Store) ListRuns(ctx context.Context, opts workflow.ListOpts) ([]*workflow.Run, error) {
	filter := bson.M{}
	if opts.State != "" {
		filter["state"] = opts.State
	}
	if opts.Handler != "" {
		filter["handler"] = opts.Handler
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "started_at", Value: -1}})
	if opts.Offset > 0 {
		findOpts.SetSkip(int64(opts.Offset))
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}

	cursor, err := s.db.Collection(collRuns).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("find runs: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []runDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode runs: %w", err)
	}

	runs := make([]*workflow.Run, 0, len(docs))
	for _, doc := range docs {
		runs = append(runs, doc.toDomain())
	}
	return runs, nil
}

// SaveStep upserts a step ledger entry keyed by (run_id, name).
func (s *Store) SaveStep(ctx context.Context, rec *workflow.StepRecord) error {
	doc := toStepDoc(rec)
	filter := bson.M{"run_id": rec.RunID, "name": rec.Name}
	update := bson.M{
		"$set": bson.M{
			"status":       doc.Status,
			"result":       doc.Result,
			"error":        doc.Error,
			"completed_at": doc.CompletedAt,
		},
		"$setOnInsert": bson.M{
			"_id":    doc.ID,
			"run_id": doc.RunID,
			"name":   doc.Name,
		},
	}

	_, err := s.db.Collection(collSteps).UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save step %q: %w", rec.Name, err)
	}
	return nil
}

// GetStep retrieves the ledger entry for a specific step, or nil if the
// step has not been recorded.
func (s *Store) GetStep(ctx context.Context, runID id.ID, stepName string) (*workflow.StepRecord, error) {
	var doc stepDoc
	err := s.db.Collection(collSteps).FindOne(ctx, bson.M{"run_id": runID, "name": stepName}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find step %q: %w", stepName, err)
	}
	return doc.toDomain(), nil
}

// ListSteps returns all ledger entries for a run, oldest first.
func (s *Store) ListSteps(ctx context.Context, runID id.ID) ([]*workflow.StepRecord, error) {
	cursor, err := s.db.Collection(collSteps).Find(ctx, bson.M{"run_id": runID},
		options.Find().SetSort(bson.D{{Key: "completed_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find steps: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []stepDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode steps: %w", err)
	}

	recs := make([]*workflow.StepRecord, 0, len(docs))
	for _, doc := range docs {
		recs = append(recs, doc.toDomain())
	}
	return recs, nil
}

// PurgeRuns removes terminal runs, and their ledgers, that completed
// before the given time.
func (s *Store) PurgeRuns(ctx context.Context, before time.Time) (int64, error) {
	filter := bson.M{
		"state":        bson.M{"$ne": workflow.RunStateRunning},
		"completed_at": bson.M{"$lt": before},
	}

	cursor, err := s.db.Collection(collRuns).Find(ctx, filter,
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return 0, fmt.Errorf("find purgeable runs: %w", err)
	}
	defer cursor.Close(ctx)

	var ids []struct {
		ID id.ID `bson:"_id"`
	}
	if err := cursor.All(ctx, &ids); err != nil {
		return 0, fmt.Errorf("decode purgeable runs: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	runIDs := make([]id.ID, 0, len(ids))
	for _, doc := range ids {
		runIDs = append(runIDs, doc.ID)
	}

	if _, err := s.db.Collection(collSteps).DeleteMany(ctx, bson.M{"run_id": bson.M{"$in": runIDs}}); err != nil {
		return 0, fmt.Errorf("purge step ledgers: %w", err)
	}

	res, err := s.db.Collection(collRuns).DeleteMany(ctx, bson.M{"_id": bson.M{"$in": runIDs}})
	if err != nil {
		return 0, fmt.Errorf("purge runs: %w", err)
	}
	return res.DeletedCount, nil
}

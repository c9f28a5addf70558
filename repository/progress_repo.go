package repository

import (
	"context"
	"errors"
	"time"

	"github.com/tieubaoca/compliance-be/types"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ProgressRepo is the polling-friendly progress channel for check-runs.
// The orchestrator is the only writer; any number of callers may read.
type ProgressRepo interface {
	PutProgress(ctx context.Context, progress *types.RunProgress) error
	GetProgress(ctx context.Context, runID string) (*types.RunProgress, error)
}

type progressRepo struct {
	collection *mongo.Collection
}

func NewProgressRepo(collection *mongo.Collection) ProgressRepo {
	return &progressRepo{
		collection: collection,
	}
}

func (r *progressRepo) PutProgress(ctx context.Context, progress *types.RunProgress) error {
	progress.UpdatedAt = time.Now().Unix()
	if progress.CreatedAt == 0 {
		progress.CreatedAt = progress.UpdatedAt
	}
	_, err := r.collection.ReplaceOne(
		ctx,
		bson.M{"_id": progress.RunID},
		progress,
		options.Replace().SetUpsert(true),
	)
	return err
}

func (r *progressRepo) GetProgress(ctx context.Context, runID string) (*types.RunProgress, error) {
	var progress types.RunProgress
	err := r.collection.FindOne(ctx, bson.M{"_id": runID}).Decode(&progress)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

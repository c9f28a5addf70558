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

var ErrNotFound = errors.New("not found")

type DocumentRepo interface {
	CreateDocument(ctx context.Context, doc *types.DocumentRecord) error
	GetDocument(ctx context.Context, id string) (*types.DocumentRecord, error)
	ListDocuments(ctx context.Context, limit int) ([]*types.DocumentRecord, error)
	UpdateStatus(ctx context.Context, id string, status types.DocumentStatus) error
	SetProcessed(ctx context.Context, id string, docType string, chunkCount int) error
	SetValidation(ctx context.Context, id string, reportID string, score float64) error
	DeleteDocument(ctx context.Context, id string) error
}

type documentRepo struct {
	collection *mongo.Collection
}

func NewDocumentRepo(collection *mongo.Collection) DocumentRepo {
	return &documentRepo{
		collection: collection,
	}
}

func (r *documentRepo) CreateDocument(ctx context.Context, doc *types.DocumentRecord) error {
	now := time.Now().Unix()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	_, err := r.collection.InsertOne(ctx, doc)
	return err
}

func (r *documentRepo) GetDocument(ctx context.Context, id string) (*types.DocumentRecord, error) {
	var doc types.DocumentRecord
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepo) ListDocuments(ctx context.Context, limit int) ([]*types.DocumentRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetProjection(bson.M{"elements": 0})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []*types.DocumentRecord
	for cursor.Next(ctx) {
		var doc types.DocumentRecord
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		docs = append(docs, &doc)
	}
	return docs, cursor.Err()
}

func (r *documentRepo) UpdateStatus(ctx context.Context, id string, status types.DocumentStatus) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"status": status, "updated_at": time.Now().Unix()},
	})
	return err
}

func (r *documentRepo) SetProcessed(ctx context.Context, id string, docType string, chunkCount int) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"status":        types.DocStatusProcessed,
			"document_type": docType,
			"chunk_count":   chunkCount,
			"updated_at":    time.Now().Unix(),
		},
	})
	return err
}

func (r *documentRepo) SetValidation(ctx context.Context, id string, reportID string, score float64) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"status":         types.DocStatusValidated,
			"last_report_id": reportID,
			"last_score":     score,
			"updated_at":     time.Now().Unix(),
		},
	})
	return err
}

func (r *documentRepo) DeleteDocument(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

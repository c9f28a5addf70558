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

type ReportRepo interface {
	InsertReport(ctx context.Context, report *types.ComplianceReport) error
	GetReport(ctx context.Context, reportID string) (*types.ComplianceReport, error)
	ListReports(ctx context.Context, documentID string, limit int) ([]*types.ComplianceReport, error)
}

type reportRepo struct {
	collection *mongo.Collection
}

func NewReportRepo(collection *mongo.Collection) ReportRepo {
	return &reportRepo{
		collection: collection,
	}
}

func (r *reportRepo) InsertReport(ctx context.Context, report *types.ComplianceReport) error {
	report.CreatedAt = time.Now().Unix()
	_, err := r.collection.InsertOne(ctx, report)
	return err
}

func (r *reportRepo) GetReport(ctx context.Context, reportID string) (*types.ComplianceReport, error) {
	var report types.ComplianceReport
	err := r.collection.FindOne(ctx, bson.M{"_id": reportID}).Decode(&report)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *reportRepo) ListReports(ctx context.Context, documentID string, limit int) ([]*types.ComplianceReport, error) {
	filter := bson.M{}
	if documentID != "" {
		filter["document_id"] = documentID
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetProjection(bson.M{"results": 0})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var reports []*types.ComplianceReport
	for cursor.Next(ctx) {
		var report types.ComplianceReport
		if err := cursor.Decode(&report); err != nil {
			return nil, err
		}
		reports = append(reports, &report)
	}
	return reports, cursor.Err()
}

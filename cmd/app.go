/*
Copyright © 2025 tieubaoca
*/
package cmd

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/tieubaoca/compliance-be/config"
	"github.com/tieubaoca/compliance-be/database"
	"github.com/tieubaoca/compliance-be/repository"
	"github.com/tieubaoca/compliance-be/service"
)

// app holds the wired service graph shared by every command.
type app struct {
	cfg   *config.Config
	store *database.WeaviateStore
	mongo *mongo.Client

	docRepo      repository.DocumentRepo
	reportRepo   repository.ReportRepo
	progressRepo repository.ProgressRepo

	ai       service.AIService
	embedder service.Embedder

	ingest *service.IngestService
	search *service.SearchService
	stream *service.ProgressStreamService
	engine *service.ComplianceEngine
}

func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	store, err := database.NewWeaviateStore(cfg.WeaviateStoreConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to Weaviate: %w", err)
	}

	mongoClient, err := database.ConnectMongo(ctx, cfg.MongoConfig.URI)
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	db := mongoClient.Database(cfg.MongoConfig.Database)

	docRepo := repository.NewDocumentRepo(db.Collection("documents"))
	reportRepo := repository.NewReportRepo(db.Collection("compliance_reports"))
	progressRepo := repository.NewProgressRepo(db.Collection("compliance_progress"))

	var ai service.AIService
	if cfg.AIBackend == "gemini" {
		ai, err = service.NewGeminiService(cfg.GeminiAPIKeys, cfg.Model)
		if err != nil {
			return nil, fmt.Errorf("init Gemini backend: %w", err)
		}
	} else {
		ai = service.NewOpenAIService(cfg.AIEndpoint, cfg.OpenAIAPIKey, cfg.Model)
	}
	embedder := service.NewEmbeddingService(cfg.AIEndpoint, cfg.OpenAIAPIKey, cfg.EmbeddingModel, cfg.EmbeddingDimension)

	documents := service.NewDocumentService()
	chunker := service.NewComplianceChunker(cfg.Engine)
	extractor := service.NewUnstructuredClient(cfg.ExtractionURL, cfg.ExtractionAPIKey)
	ingest := service.NewIngestService(extractor, documents, chunker, embedder, store, docRepo)
	search := service.NewSearchService(store, embedder)
	stream := service.NewProgressStreamService(progressRepo)

	retriever := service.NewRuleRetriever(store, embedder, cfg.Engine)
	assessor := service.NewAssessor(ai, retriever, cfg.Engine)
	planner := service.NewQueryPlanner(ai, cfg.Engine)
	synthesizer := service.NewReportSynthesizer(ai, cfg.Engine)
	engine := service.NewComplianceEngine(
		documents, planner, retriever, assessor, synthesizer,
		docRepo, reportRepo, progressRepo, stream, cfg.Engine,
	)

	return &app{
		cfg:          cfg,
		store:        store,
		mongo:        mongoClient,
		docRepo:      docRepo,
		reportRepo:   reportRepo,
		progressRepo: progressRepo,
		ai:           ai,
		embedder:     embedder,
		ingest:       ingest,
		search:       search,
		stream:       stream,
		engine:       engine,
	}, nil
}

func (a *app) close(ctx context.Context) {
	if a.mongo != nil {
		a.mongo.Disconnect(ctx)
	}
}

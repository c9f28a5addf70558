package service

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/tieubaoca/compliance-be/database"
	"github.com/tieubaoca/compliance-be/repository"
	"github.com/tieubaoca/compliance-be/types"
	"github.com/tieubaoca/compliance-be/utils"
)

// IngestService runs the indexing pipeline for both financial documents
// and regulatory rule sources: extract, rebuild structure, chunk, embed,
// upsert. Chunk ids are deterministic so re-ingesting a source replaces
// its vectors instead of duplicating them.
type IngestService struct {
	extractor ExtractionService
	documents *DocumentService
	chunker   *ComplianceChunker
	embedder  Embedder
	store     database.ChunkStore
	docRepo   repository.DocumentRepo
}

func NewIngestService(
	extractor ExtractionService,
	documents *DocumentService,
	chunker *ComplianceChunker,
	embedder Embedder,
	store database.ChunkStore,
	docRepo repository.DocumentRepo,
) *IngestService {
	return &IngestService{
		extractor: extractor,
		documents: documents,
		chunker:   chunker,
		embedder:  embedder,
		store:     store,
		docRepo:   docRepo,
	}
}

// RegisterDocument creates the tracking record for an uploaded file
// without running the pipeline. The record exists before processing so a
// failed pipeline leaves a visible failed document rather than nothing.
func (s *IngestService) RegisterDocument(ctx context.Context, filePath string, meta types.UploadRequest) (*types.DocumentRecord, error) {
	doc := &types.DocumentRecord{
		ID:         utils.NewID(),
		Filename:   filepath.Base(filePath),
		Company:    meta.Company,
		FiscalYear: meta.FiscalYear,
		Status:     types.DocStatusProcessing,
		CreatedAt:  time.Now().Unix(),
		UpdatedAt:  time.Now().Unix(),
	}
	if meta.Title != "" {
		doc.Filename = meta.Title
	}
	if err := s.docRepo.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document record: %w", err)
	}
	return doc, nil
}

// ProcessDocument runs the indexing pipeline for a registered document,
// marking the record failed when any stage errors.
func (s *IngestService) ProcessDocument(ctx context.Context, doc *types.DocumentRecord, filePath string) error {
	if err := s.processDocument(ctx, doc, filePath); err != nil {
		if updErr := s.docRepo.UpdateStatus(context.WithoutCancel(ctx), doc.ID, types.DocStatusFailed); updErr != nil {
			slog.Warn("status update failed", "document", doc.ID, "error", updErr)
		}
		return err
	}
	return nil
}

// IngestDocument registers and indexes a document in one call.
func (s *IngestService) IngestDocument(ctx context.Context, filePath string, meta types.UploadRequest) (*types.DocumentRecord, error) {
	doc, err := s.RegisterDocument(ctx, filePath, meta)
	if err != nil {
		return nil, err
	}
	if err := s.ProcessDocument(ctx, doc, filePath); err != nil {
		return doc, err
	}
	return doc, nil
}

func (s *IngestService) processDocument(ctx context.Context, doc *types.DocumentRecord, filePath string) error {
	elements, err := s.extractor.Extract(ctx, filePath)
	if err != nil {
		return fmt.Errorf("extract %s: %w", doc.Filename, err)
	}
	doc.Elements = elements
	doc.PageCount = s.documents.PageCount(elements)
	doc.DocumentType = s.documents.DetectDocumentType(elements)

	tree := s.documents.BuildSectionTree(elements)
	chunks := s.chunker.ChunkDocument(tree, types.ChunkMetadata{
		SourceFile: doc.Filename,
		DocumentID: doc.ID,
	})
	if len(chunks) == 0 {
		return fmt.Errorf("document %s produced no indexable content", doc.Filename)
	}

	if err := s.indexChunks(ctx, database.CollectionFinancialDocuments, doc.Filename, chunks); err != nil {
		return err
	}

	doc.ChunkCount = len(chunks)
	doc.Status = types.DocStatusProcessed
	if err := s.docRepo.SetProcessed(ctx, doc.ID, doc.DocumentType, len(chunks)); err != nil {
		return fmt.Errorf("mark document processed: %w", err)
	}
	slog.Info("document ingested",
		"document", doc.ID,
		"type", doc.DocumentType,
		"pages", doc.PageCount,
		"chunks", len(chunks))
	return nil
}

// IndexRules indexes one regulatory source file into its framework's rule
// collection, replacing any previous vectors from the same file.
func (s *IngestService) IndexRules(ctx context.Context, framework, filePath string) (int, error) {
	collection, ok := database.FrameworkCollections[framework]
	if !ok {
		return 0, fmt.Errorf("unknown framework %q", framework)
	}

	elements, err := s.extractor.Extract(ctx, filePath)
	if err != nil {
		return 0, fmt.Errorf("extract rules %s: %w", filePath, err)
	}
	tree := s.documents.BuildSectionTree(elements)
	sourceFile := filepath.Base(filePath)
	chunks := s.chunker.ChunkDocument(tree, types.ChunkMetadata{
		Framework:  framework,
		SourceFile: sourceFile,
	})
	if len(chunks) == 0 {
		return 0, fmt.Errorf("rule source %s produced no indexable content", sourceFile)
	}

	if err := s.indexChunks(ctx, collection, sourceFile, chunks); err != nil {
		return 0, err
	}
	slog.Info("rules indexed", "framework", framework, "source", sourceFile, "chunks", len(chunks))
	return len(chunks), nil
}

func (s *IngestService) indexChunks(ctx context.Context, collection, sourceFile string, chunks []types.Chunk) error {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks for %s: %w", sourceFile, err)
	}
	if err := s.store.DeleteBySource(ctx, collection, sourceFile); err != nil {
		return fmt.Errorf("clear previous vectors for %s: %w", sourceFile, err)
	}
	if err := s.store.UpsertChunks(ctx, collection, chunks, vectors); err != nil {
		return fmt.Errorf("upsert chunks for %s: %w", sourceFile, err)
	}
	return nil
}

package database

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/go-openapi/strfmt"
	"github.com/tieubaoca/compliance-be/config"
	"github.com/tieubaoca/compliance-be/types"
	"github.com/tieubaoca/compliance-be/utils"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
)

const BATCH_SIZE = 200

const sectionPathSeparator = " > "

// chunkClass builds the schema object for one chunk collection. Vectors
// are supplied externally, so no vectorizer module is configured.
func chunkClass(name string) *models.Class {
	return &models.Class{
		Class:      name,
		Vectorizer: "none",
		Properties: []*models.Property{
			{Name: "chunkId", DataType: []string{"text"}},
			{Name: "content", DataType: []string{"text"}},
			{Name: "html", DataType: []string{"text"}},
			{Name: "framework", DataType: []string{"text"}},
			{Name: "sourceFile", DataType: []string{"text"}},
			{Name: "documentId", DataType: []string{"text"}},
			{Name: "sectionPath", DataType: []string{"text"}},
			{Name: "pageNumber", DataType: []string{"int"}},
			{Name: "elementType", DataType: []string{"text"}},
		},
		VectorIndexType: "hnsw",
	}
}

var chunkFields = []graphql.Field{
	{Name: "chunkId"},
	{Name: "content"},
	{Name: "html"},
	{Name: "framework"},
	{Name: "sourceFile"},
	{Name: "documentId"},
	{Name: "sectionPath"},
	{Name: "pageNumber"},
	{Name: "elementType"},
	{Name: "_additional", Fields: []graphql.Field{{Name: "distance"}, {Name: "id"}}},
}

// WeaviateStore implements ChunkStore with one Weaviate class per logical
// collection.
type WeaviateStore struct {
	client *weaviate.Client
}

func NewWeaviateStore(cfg config.WeaviateStoreConfig) (*WeaviateStore, error) {
	var scheme string
	if strings.Contains(cfg.Host, "https") {
		scheme = "https"
	} else {
		scheme = "http"
	}
	host := strings.TrimPrefix(cfg.Host, scheme+"://")
	wcfg := weaviate.Config{
		Host:   host,
		Scheme: scheme,
	}
	if cfg.APIKey != "" {
		wcfg.AuthConfig = auth.ApiKey{
			Value: cfg.APIKey,
		}
	}
	client, err := weaviate.NewClient(wcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create weaviate client: %v", err)
	}

	store := &WeaviateStore{client: client}
	if err := store.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *WeaviateStore) ensureSchema(ctx context.Context) error {
	schema, err := s.client.Schema().Getter().Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to get schema: %v", err)
	}

	existing := make(map[string]bool)
	for _, class := range schema.Classes {
		existing[class.Class] = true
	}
	for _, name := range Collections {
		if existing[name] {
			continue
		}
		if err := s.client.Schema().ClassCreator().WithClass(chunkClass(name)).Do(ctx); err != nil {
			return fmt.Errorf("failed to create class %s: %v", name, err)
		}
	}
	return nil
}

// ReInit drops and recreates every chunk collection.
func (s *WeaviateStore) ReInit(ctx context.Context) error {
	for _, name := range Collections {
		if err := s.client.Schema().ClassDeleter().WithClassName(name).Do(ctx); err != nil {
			return fmt.Errorf("failed to delete class %s: %v", name, err)
		}
		if err := s.client.Schema().ClassCreator().WithClass(chunkClass(name)).Do(ctx); err != nil {
			return fmt.Errorf("failed to create class %s: %v", name, err)
		}
	}
	return nil
}

func (s *WeaviateStore) UpsertChunks(ctx context.Context, collection string, chunks []types.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk/vector count mismatch: %d != %d", len(chunks), len(vectors))
	}

	total := len(chunks)
	for i := 0; i < total; i += BATCH_SIZE {
		end := i + BATCH_SIZE
		if end > total {
			end = total
		}

		batcher := s.client.Batch().ObjectsBatcher()
		for j := i; j < end; j++ {
			batcher = batcher.WithObjects(&models.Object{
				// Object ids derived from chunk ids make re-indexing an
				// upsert, never an append.
				ID:         strfmt.UUID(utils.DeterministicUUID(chunks[j].ID)),
				Class:      collection,
				Properties: chunkProperties(chunks[j]),
				Vector:     vectors[j],
			})
		}

		if _, err := batcher.Do(ctx); err != nil {
			return fmt.Errorf("failed to upsert batch %d-%d: %v", i, end, err)
		}
		log.Printf("Upserted batch %d-%d of %d chunks into %s", i, end, total, collection)
	}
	return nil
}

func (s *WeaviateStore) QueryChunks(ctx context.Context, collection string, vector []float32, topK int, filter *ChunkFilter) ([]types.ScoredChunk, error) {
	nearVector := s.client.GraphQL().NearVectorArgBuilder().WithVector(vector)

	getBuilder := s.client.GraphQL().Get().
		WithClassName(collection).
		WithFields(chunkFields...).
		WithNearVector(nearVector)
	if topK > 0 {
		getBuilder = getBuilder.WithLimit(topK)
	}
	if where := buildChunkFilter(filter); where != nil {
		getBuilder = getBuilder.WithWhere(where)
	}

	result, err := getBuilder.Do(ctx)
	if err != nil {
		return nil, err
	}
	if result.Errors != nil {
		return nil, fmt.Errorf("chunk query failed: %v", result.Errors[0].Message)
	}

	var scored []types.ScoredChunk
	data, ok := result.Data["Get"].(map[string]interface{})[collection].([]interface{})
	if !ok {
		return scored, nil
	}
	for _, item := range data {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		sc := types.ScoredChunk{Chunk: parseChunk(obj)}
		if additional, ok := obj["_additional"].(map[string]interface{}); ok {
			if d, ok := additional["distance"].(float64); ok {
				sc.Distance = d
			}
		}
		scored = append(scored, sc)
	}
	return scored, nil
}

func (s *WeaviateStore) CountChunks(ctx context.Context, collection string, filter *ChunkFilter) (int, error) {
	agg := s.client.GraphQL().Aggregate().
		WithClassName(collection).
		WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}})
	if where := buildChunkFilter(filter); where != nil {
		agg = agg.WithWhere(where)
	}

	result, err := agg.Do(ctx)
	if err != nil {
		return 0, err
	}
	if result.Errors != nil {
		return 0, fmt.Errorf("count failed: %v", result.Errors[0].Message)
	}

	rows, ok := result.Data["Aggregate"].(map[string]interface{})[collection].([]interface{})
	if !ok || len(rows) == 0 {
		return 0, nil
	}
	row, ok := rows[0].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	meta, ok := row["meta"].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	count, _ := meta["count"].(float64)
	return int(count), nil
}

func (s *WeaviateStore) DeleteBySource(ctx context.Context, collection string, sourceFile string) error {
	where := filters.Where().
		WithPath([]string{"sourceFile"}).
		WithOperator(filters.Equal).
		WithValueString(sourceFile)
	_, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(collection).
		WithWhere(where).
		Do(ctx)
	return err
}

// Helper functions

func chunkProperties(c types.Chunk) map[string]interface{} {
	return map[string]interface{}{
		"chunkId":     c.ID,
		"content":     c.Text,
		"html":        c.HTML,
		"framework":   c.Metadata.Framework,
		"sourceFile":  c.Metadata.SourceFile,
		"documentId":  c.Metadata.DocumentID,
		"sectionPath": strings.Join(c.Metadata.SectionPath, sectionPathSeparator),
		"pageNumber":  c.Metadata.PageNumber,
		"elementType": string(c.Metadata.ElementKind),
	}
}

func parseChunk(obj map[string]interface{}) types.Chunk {
	chunk := types.Chunk{
		ID:   asString(obj["chunkId"]),
		Text: asString(obj["content"]),
		HTML: asString(obj["html"]),
		Metadata: types.ChunkMetadata{
			Framework:   asString(obj["framework"]),
			SourceFile:  asString(obj["sourceFile"]),
			DocumentID:  asString(obj["documentId"]),
			ElementKind: types.ElementKind(asString(obj["elementType"])),
		},
	}
	if path := asString(obj["sectionPath"]); path != "" {
		chunk.Metadata.SectionPath = strings.Split(path, sectionPathSeparator)
	}
	if page, ok := obj["pageNumber"].(float64); ok {
		chunk.Metadata.PageNumber = int(page)
	}
	return chunk
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func buildChunkFilter(filter *ChunkFilter) *filters.WhereBuilder {
	if filter == nil {
		return nil
	}

	var operands []*filters.WhereBuilder
	add := func(path, value string) {
		if value == "" {
			return
		}
		operands = append(operands, filters.Where().
			WithPath([]string{path}).
			WithOperator(filters.Equal).
			WithValueString(value))
	}

	add("framework", filter.Framework)
	add("sourceFile", filter.SourceFile)
	add("documentId", filter.DocumentID)

	switch len(operands) {
	case 0:
		return nil
	case 1:
		return operands[0]
	default:
		return filters.Where().WithOperator(filters.And).WithOperands(operands)
	}
}

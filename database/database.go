package database

import (
	"context"

	"github.com/tieubaoca/compliance-be/types"
)

// Logical chunk collections. Collections are disjoint namespaces: a query
// against one never returns chunks from another.
const (
	CollectionRegulatoryRules      = "RegulatoryRule"
	CollectionFinancialDocuments   = "FinancialDocument"
	CollectionDisclosureChecklists = "DisclosureChecklist"
)

// Collections lists every chunk collection the store manages.
var Collections = []string{
	CollectionRegulatoryRules,
	CollectionFinancialDocuments,
	CollectionDisclosureChecklists,
}

// FrameworkCollections maps each framework to the collection holding its
// rule chunks.
var FrameworkCollections = map[string]string{
	types.FrameworkIndAS:                CollectionRegulatoryRules,
	types.FrameworkScheduleIII:          CollectionRegulatoryRules,
	types.FrameworkSEBILODR:             CollectionRegulatoryRules,
	types.FrameworkRBINorms:             CollectionRegulatoryRules,
	types.FrameworkESGBRSR:              CollectionRegulatoryRules,
	types.FrameworkAuditingStandards:    CollectionRegulatoryRules,
	types.FrameworkDisclosureChecklists: CollectionDisclosureChecklists,
}

// ChunkFilter narrows a vector query by exact metadata match. Filters are
// applied server-side so top_k is satisfied by matching chunks only.
type ChunkFilter struct {
	Framework  string
	SourceFile string
	DocumentID string
}

// ChunkStore is a content-addressable index of chunks partitioned into
// named collections and queryable by dense vector similarity.
type ChunkStore interface {
	// UpsertChunks indexes chunks with their vectors. Upsert is by
	// deterministic chunk id: re-indexing identical extraction output
	// leaves no duplicates.
	UpsertChunks(ctx context.Context, collection string, chunks []types.Chunk, vectors [][]float32) error

	// QueryChunks returns up to topK chunks ranked by ascending distance.
	QueryChunks(ctx context.Context, collection string, vector []float32, topK int, filter *ChunkFilter) ([]types.ScoredChunk, error)

	// CountChunks reports how many chunks match the filter.
	CountChunks(ctx context.Context, collection string, filter *ChunkFilter) (int, error)

	// DeleteBySource removes every chunk indexed from the given source file.
	DeleteBySource(ctx context.Context, collection string, sourceFile string) error
}

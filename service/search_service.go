package service

import (
	"context"
	"fmt"

	"github.com/tieubaoca/compliance-be/database"
	"github.com/tieubaoca/compliance-be/types"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 50
)

// SearchService answers ad-hoc semantic queries against the indexed rule
// corpus.
type SearchService struct {
	store    database.ChunkStore
	embedder Embedder
}

func NewSearchService(store database.ChunkStore, embedder Embedder) *SearchService {
	return &SearchService{store: store, embedder: embedder}
}

// SearchRules runs one semantic query, optionally scoped to a framework.
func (s *SearchService) SearchRules(ctx context.Context, req types.SearchRequest) ([]types.RuleSearchHit, error) {
	if req.Query == "" {
		return nil, fmt.Errorf("query is required")
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	collection := database.CollectionRegulatoryRules
	var filter *database.ChunkFilter
	if req.Framework != "" {
		var ok bool
		collection, ok = database.FrameworkCollections[req.Framework]
		if !ok {
			return nil, fmt.Errorf("unknown framework %q", req.Framework)
		}
		filter = &database.ChunkFilter{Framework: req.Framework}
	}

	vectors, err := s.embedder.Embed(ctx, []string{req.Query})
	if err != nil {
		return nil, fmt.Errorf("embed search query: %w", err)
	}
	hits, err := s.store.QueryChunks(ctx, collection, vectors[0], limit, filter)
	if err != nil {
		return nil, fmt.Errorf("search rules: %w", err)
	}

	out := make([]types.RuleSearchHit, len(hits))
	for i, hit := range hits {
		out[i] = types.RuleSearchHit{
			Chunk:     hit.Chunk,
			Distance:  hit.Distance,
			Relevance: types.Relevance(hit.Distance),
		}
	}
	return out, nil
}

// FrameworkCatalog returns the framework catalog with live rule counts.
// Count failures leave the count at zero rather than failing the listing.
func (s *SearchService) FrameworkCatalog(ctx context.Context) []types.FrameworkInfo {
	infos := ListFrameworks()
	for i := range infos {
		count, err := s.store.CountChunks(ctx, infos[i].Collection, &database.ChunkFilter{
			Framework: infos[i].Name,
		})
		if err == nil {
			infos[i].RuleCount = count
		}
	}
	return infos
}

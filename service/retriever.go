package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/tieubaoca/compliance-be/config"
	"github.com/tieubaoca/compliance-be/database"
	"github.com/tieubaoca/compliance-be/types"
	"github.com/tieubaoca/compliance-be/utils"
)

// RuleRetriever resolves planned queries into the concrete rule chunks to
// assess, and fetches document evidence for individual rules.
type RuleRetriever struct {
	store    database.ChunkStore
	embedder Embedder
	cfg      config.EngineConfig
}

func NewRuleRetriever(store database.ChunkStore, embedder Embedder, cfg config.EngineConfig) *RuleRetriever {
	return &RuleRetriever{store: store, embedder: embedder, cfg: cfg}
}

// evidenceQueryLimit bounds how much rule text goes into the evidence
// embedding; rule chunks can be far longer than a useful query.
const evidenceQueryLimit = 500

// RetrieveRules runs every query of one framework against its rule
// collection and merges the hits. A rule surfaced by several queries is
// kept once, attributed to the earliest query, at its best distance. The
// merged set is ordered by distance, earliest retrieval winning ties, and
// capped per framework.
func (r *RuleRetriever) RetrieveRules(ctx context.Context, framework string, queries []types.ComplianceQuery) ([]types.RetrievedRule, error) {
	if len(queries) == 0 {
		return nil, nil
	}
	collection, ok := database.FrameworkCollections[framework]
	if !ok {
		return nil, fmt.Errorf("unknown framework %q", framework)
	}

	texts := make([]string, len(queries))
	for i, q := range queries {
		texts[i] = q.Text
	}
	vectors, err := r.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed queries for %s: %w", framework, err)
	}

	seen := make(map[string]int) // content hash -> index into merged
	var merged []types.RetrievedRule
	for i, query := range queries {
		hits, err := r.store.QueryChunks(ctx, collection, vectors[i], r.cfg.TopKPerQuery, &database.ChunkFilter{
			Framework: framework,
		})
		if err != nil {
			return nil, fmt.Errorf("query rules for %s: %w", framework, err)
		}
		for _, hit := range hits {
			key := utils.ContentHash(hit.Chunk.Text)
			if idx, dup := seen[key]; dup {
				if hit.Distance < merged[idx].Distance {
					merged[idx].Distance = hit.Distance
				}
				continue
			}
			seen[key] = len(merged)
			merged = append(merged, types.RetrievedRule{
				Chunk:    hit.Chunk,
				Distance: hit.Distance,
				Query:    query,
			})
		}
	}

	sort.SliceStable(merged, func(a, b int) bool {
		return merged[a].Distance < merged[b].Distance
	})
	if len(merged) > r.cfg.MaxRulesPerFramework {
		merged = merged[:r.cfg.MaxRulesPerFramework]
	}
	return merged, nil
}

// RetrieveEvidence pulls the document chunks most similar to a rule, to
// serve as assessment evidence. Only chunks of the document under
// validation are eligible.
func (r *RuleRetriever) RetrieveEvidence(ctx context.Context, documentID, ruleText string) ([]types.ScoredChunk, error) {
	query := ruleText
	if len(query) > evidenceQueryLimit {
		query = query[:evidenceQueryLimit]
	}
	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed evidence query: %w", err)
	}
	hits, err := r.store.QueryChunks(ctx, database.CollectionFinancialDocuments, vectors[0], r.cfg.TopKPerQuery, &database.ChunkFilter{
		DocumentID: documentID,
	})
	if err != nil {
		return nil, fmt.Errorf("query document evidence: %w", err)
	}
	return hits, nil
}

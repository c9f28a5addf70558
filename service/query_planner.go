package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tieubaoca/compliance-be/config"
	"github.com/tieubaoca/compliance-be/types"
)

// QueryPlanner decomposes a validation request into targeted retrieval
// queries, one planning call per framework. A framework whose plan comes
// back malformed degrades to zero queries instead of falling back to
// canned queries; the caller sees the gap in the report.
type QueryPlanner struct {
	ai  AIService
	cfg config.EngineConfig
}

func NewQueryPlanner(ai AIService, cfg config.EngineConfig) *QueryPlanner {
	return &QueryPlanner{ai: ai, cfg: cfg}
}

const plannerSystemPrompt = `You are a compliance analyst planning targeted checks of an Indian financial document against a regulatory framework.
Given the document outline and the framework, produce specific retrieval queries that each test one disclosure or requirement.
Respond with JSON only, in this exact shape:
{"queries": [{"query": "...", "target_sections": ["..."]}]}`

type plannedQuery struct {
	Query          string   `json:"query"`
	TargetSections []string `json:"target_sections"`
}

type plannerReply struct {
	Queries []plannedQuery `json:"queries"`
}

// PlanFramework plans the queries for one framework. A nil error with an
// empty slice means the model replied but the plan was unusable; a non-nil
// error means the provider call itself failed.
func (p *QueryPlanner) PlanFramework(ctx context.Context, framework, docType string, outline [][]string) ([]types.ComplianceQuery, error) {
	prompt := p.buildPrompt(framework, docType, outline)
	reply, err := p.ai.GenerateText(ctx, plannerSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("plan queries for %s: %w", framework, err)
	}

	queries := parsePlannerReply(reply, framework)
	if len(queries) == 0 {
		slog.Warn("query planning produced no usable queries", "framework", framework)
		return nil, nil
	}
	if len(queries) > p.cfg.MaxQueriesPerFramework {
		queries = queries[:p.cfg.MaxQueriesPerFramework]
	}
	return queries, nil
}

// Plan runs PlanFramework for every requested framework. Frameworks that
// hard-fail are collected into failed; the caller decides whether the run
// can continue.
func (p *QueryPlanner) Plan(ctx context.Context, frameworks []string, docType string, outline [][]string) (map[string][]types.ComplianceQuery, map[string]error) {
	plans := make(map[string][]types.ComplianceQuery, len(frameworks))
	failed := make(map[string]error)
	for _, framework := range frameworks {
		queries, err := p.PlanFramework(ctx, framework, docType, outline)
		if err != nil {
			slog.Error("query planning failed", "framework", framework, "error", err)
			failed[framework] = err
			continue
		}
		plans[framework] = queries
	}
	return plans, failed
}

func (p *QueryPlanner) buildPrompt(framework, docType string, outline [][]string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Framework: %s\n", framework)
	if desc := frameworkDescription(framework); desc != "" {
		fmt.Fprintf(&sb, "Framework scope: %s\n", desc)
	}
	fmt.Fprintf(&sb, "Document type: %s\n\nDocument outline:\n", docType)
	if len(outline) == 0 {
		sb.WriteString("(no section headings detected)\n")
	}
	for _, path := range outline {
		fmt.Fprintf(&sb, "- %s\n", strings.Join(path, " > "))
	}
	fmt.Fprintf(&sb, "\nProduce at most %d queries.", p.cfg.MaxQueriesPerFramework)
	return sb.String()
}

func parsePlannerReply(reply, framework string) []types.ComplianceQuery {
	payload := extractJSON(reply)
	if payload == "" {
		return nil
	}

	var parsed plannerReply
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil || len(parsed.Queries) == 0 {
		// some models reply with a bare array of query objects
		if err := json.Unmarshal([]byte(payload), &parsed.Queries); err != nil {
			return nil
		}
	}

	var queries []types.ComplianceQuery
	for _, q := range parsed.Queries {
		text := strings.TrimSpace(q.Query)
		if text == "" {
			continue
		}
		queries = append(queries, types.ComplianceQuery{
			Text:      text,
			Framework: framework,
			Sections:  q.TargetSections,
		})
	}
	return queries
}

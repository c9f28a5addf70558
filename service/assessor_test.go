package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/tieubaoca/compliance-be/config"
	"github.com/tieubaoca/compliance-be/types"
)

func testAssessor(ai *fakeAI, store *fakeStore) *Assessor {
	cfg := config.DefaultEngineConfig()
	retriever := NewRuleRetriever(store, &fakeEmbedder{}, cfg)
	assessor := NewAssessor(ai, retriever, cfg)
	assessor.backoff = func(int) time.Duration { return 0 }
	return assessor
}

func testRule(text string) types.RetrievedRule {
	return types.RetrievedRule{
		Chunk: types.Chunk{
			ID:   "rule-1",
			Text: text,
			Metadata: types.ChunkMetadata{
				Framework:  types.FrameworkIndAS,
				SourceFile: "ind_as_115.pdf",
			},
		},
		Distance: 0.2,
		Query:    types.ComplianceQuery{Text: "Is revenue disaggregated?", Framework: types.FrameworkIndAS},
	}
}

func TestAssessRule_WellFormedVerdict(t *testing.T) {
	ai := &fakeAI{script: []fakeReply{{text: `{
		"status": "compliant",
		"confidence": 0.85,
		"evidence": "Note 24 disaggregates revenue by segment and geography.",
		"evidence_location": "Note 24, page 187",
		"explanation": "The required disaggregation is present.",
		"recommendations": ""
	}`}}}
	assessor := testAssessor(ai, newFakeStore())

	result := assessor.AssessRule(context.Background(), "doc-1", testRule("Revenue shall be disaggregated."))

	if result.Status != types.StatusCompliant {
		t.Fatalf("expected compliant, got %q", result.Status)
	}
	if result.Confidence != 0.85 {
		t.Errorf("confidence lost: %v", result.Confidence)
	}
	if result.Framework != types.FrameworkIndAS || result.RuleSource != "ind_as_115.pdf" {
		t.Errorf("rule provenance lost")
	}
	if result.EvidenceLocation != "Note 24, page 187" {
		t.Errorf("evidence location lost: %q", result.EvidenceLocation)
	}
}

func TestAssessRule_MalformedThenRecovered(t *testing.T) {
	ai := &fakeAI{script: []fakeReply{
		{text: "The document appears compliant overall."}, // no JSON
		{text: `{"status": "partially_compliant", "confidence": 0.6, "evidence": "partial note", "explanation": "only segment split given"}`},
	}}
	assessor := testAssessor(ai, newFakeStore())

	result := assessor.AssessRule(context.Background(), "doc-1", testRule("Revenue shall be disaggregated."))

	if result.Status != types.StatusPartiallyCompliant {
		t.Fatalf("expected recovery on retry, got %q", result.Status)
	}
	if ai.callCount() != 2 {
		t.Errorf("expected 2 attempts, got %d", ai.callCount())
	}
}

func TestAssessRule_ExhaustionDegradesToUndetermined(t *testing.T) {
	ai := &fakeAI{script: []fakeReply{{text: "no json here"}}}
	assessor := testAssessor(ai, newFakeStore())

	result := assessor.AssessRule(context.Background(), "doc-1", testRule("Revenue shall be disaggregated."))

	if result.Status != types.StatusUnableToDetermine {
		t.Fatalf("expected unable_to_determine after exhaustion, got %q", result.Status)
	}
	if result.Confidence != 0 {
		t.Errorf("degraded result must carry zero confidence, got %v", result.Confidence)
	}
	if ai.callCount() != config.DefaultEngineConfig().MaxAssessAttempts {
		t.Errorf("expected every attempt to be used, got %d", ai.callCount())
	}
}

func TestAssessRule_RecommendationsOnlyKeptForGaps(t *testing.T) {
	ai := &fakeAI{script: []fakeReply{{text: `{
		"status": "compliant",
		"confidence": 0.9,
		"evidence": "Note 24",
		"explanation": "present",
		"recommendations": "Consider adding a geography split."
	}`}}}
	assessor := testAssessor(ai, newFakeStore())

	result := assessor.AssessRule(context.Background(), "doc-1", testRule("Revenue shall be disaggregated."))

	if result.Status != types.StatusCompliant {
		t.Fatalf("expected compliant, got %q", result.Status)
	}
	if result.Recommendations != "" {
		t.Errorf("compliant verdict must not carry recommendations, got %q", result.Recommendations)
	}

	ai = &fakeAI{script: []fakeReply{{text: `{
		"status": "non_compliant",
		"confidence": 0.8,
		"evidence": "",
		"explanation": "disclosure missing",
		"recommendations": "Add the disaggregation note."
	}`}}}
	assessor = testAssessor(ai, newFakeStore())

	result = assessor.AssessRule(context.Background(), "doc-1", testRule("Revenue shall be disaggregated."))

	if result.Recommendations != "Add the disaggregation note." {
		t.Errorf("non-compliant verdict lost its recommendation: %q", result.Recommendations)
	}
}

func TestAssessRule_UnknownStatusTreatedAsMalformed(t *testing.T) {
	ai := &fakeAI{script: []fakeReply{
		{text: `{"status": "mostly_fine", "confidence": 0.9}`},
		{text: `{"status": "non_compliant", "confidence": 0.7, "evidence": "", "explanation": "disclosure missing"}`},
	}}
	assessor := testAssessor(ai, newFakeStore())

	result := assessor.AssessRule(context.Background(), "doc-1", testRule("Disclosure required."))

	if result.Status != types.StatusNonCompliant {
		t.Fatalf("invented status must trigger a retry, got %q", result.Status)
	}
}

func TestAssessRule_TruncatesLongFields(t *testing.T) {
	longEvidence := strings.Repeat("evidence ", 400)
	ai := &fakeAI{script: []fakeReply{{text: `{"status": "compliant", "confidence": 0.9, "evidence": "` + longEvidence + `", "explanation": "ok"}`}}}
	assessor := testAssessor(ai, newFakeStore())
	longRule := strings.Repeat("rule text ", 100)

	result := assessor.AssessRule(context.Background(), "doc-1", testRule(longRule))

	if len(result.RuleText) > resultRuleTextLimit {
		t.Errorf("rule text not truncated: %d chars", len(result.RuleText))
	}
	if len(result.Evidence) > resultEvidenceLimit {
		t.Errorf("evidence not truncated: %d chars", len(result.Evidence))
	}
}

func TestAssessRule_EvidenceFlowsIntoPrompt(t *testing.T) {
	store := newFakeStore()
	store.push("FinancialDocument", []types.ScoredChunk{{
		Chunk: types.Chunk{
			ID:   "doc-chunk",
			Text: "Revenue from operations stood at Rs 1,200 crore.",
			Metadata: types.ChunkMetadata{
				DocumentID:  "doc-1",
				SectionPath: []string{"Financial Statements", "Note 24"},
				PageNumber:  187,
			},
		},
		Distance: 0.1,
	}})
	ai := &fakeAI{script: []fakeReply{{text: `{"status": "compliant", "confidence": 0.9, "evidence": "x", "explanation": "ok"}`}}}
	assessor := testAssessor(ai, store)

	assessor.AssessRule(context.Background(), "doc-1", testRule("Revenue shall be disclosed."))

	if len(ai.prompts) == 0 || !strings.Contains(ai.prompts[0], "Rs 1,200 crore") {
		t.Fatalf("document evidence missing from assessment prompt")
	}
	if !strings.Contains(ai.prompts[0], "Financial Statements > Note 24") {
		t.Errorf("section path missing from evidence label")
	}
}

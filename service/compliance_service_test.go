package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tieubaoca/compliance-be/config"
	"github.com/tieubaoca/compliance-be/database"
	"github.com/tieubaoca/compliance-be/types"
)

func newTestEngine(ai *fakeAI, store *fakeStore) (*ComplianceEngine, *fakeDocRepo, *fakeReportRepo, *fakeProgressRepo) {
	cfg := config.DefaultEngineConfig()
	docRepo := newFakeDocRepo()
	reportRepo := &fakeReportRepo{}
	progressRepo := newFakeProgressRepo()
	embedder := &fakeEmbedder{}
	retriever := NewRuleRetriever(store, embedder, cfg)
	assessor := NewAssessor(ai, retriever, cfg)
	assessor.backoff = func(int) time.Duration { return 0 }
	engine := NewComplianceEngine(
		NewDocumentService(),
		NewQueryPlanner(ai, cfg),
		retriever,
		assessor,
		NewReportSynthesizer(ai, cfg),
		docRepo, reportRepo, progressRepo, nil, cfg,
	)
	return engine, docRepo, reportRepo, progressRepo
}

func seedDocument(docRepo *fakeDocRepo) {
	docRepo.CreateDocument(context.Background(), &types.DocumentRecord{
		ID:       "doc-1",
		Filename: "annual_report.pdf",
		Status:   types.DocStatusProcessed,
		Elements: []types.Element{
			{Kind: types.ElementTitle, Text: "Annual Report", PageNumber: 1},
			{Kind: types.ElementHeader, Text: "Revenue", PageNumber: 2},
			{Kind: types.ElementNarrativeText, Text: "Revenue is recognised on transfer of control.", PageNumber: 2},
		},
	})
}

const planTwoQueries = `{"queries": [{"query": "Is revenue disaggregated?"}, {"query": "Are contract balances disclosed?"}]}`
const compliantVerdict = `{"status": "compliant", "confidence": 0.9, "evidence": "Note 24", "explanation": "present"}`

func TestCheck_FullRunProducesOrderedPersistedReport(t *testing.T) {
	store := newFakeStore()
	store.push(database.CollectionRegulatoryRules, []types.ScoredChunk{
		ruleHit("rule-a", "Rule A requires revenue disaggregation.", 0.3),
		ruleHit("rule-b", "Rule B requires contract balance disclosure.", 0.5),
	})
	store.push(database.CollectionRegulatoryRules, []types.ScoredChunk{
		ruleHit("rule-c", "Rule C requires performance obligation detail.", 0.1),
	})
	ai := &fakeAI{script: []fakeReply{
		{text: planTwoQueries},
		{text: compliantVerdict}, // repeated for every later call, incl. summary
	}}
	engine, docRepo, reportRepo, progressRepo := newTestEngine(ai, store)
	seedDocument(docRepo)

	report, err := engine.Check(context.Background(), types.CheckRequest{
		DocumentID: "doc-1",
		Frameworks: []string{types.FrameworkIndAS},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// dispatch order is the distance-sorted retrieval order
	want := []string{"rule-c", "rule-a", "rule-b"}
	if len(report.Results) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(report.Results))
	}
	for i, id := range want {
		if report.Results[i].RuleID != id {
			t.Errorf("result %d: expected %q, got %q", i, id, report.Results[i].RuleID)
		}
	}

	if len(reportRepo.reports) != 1 {
		t.Fatalf("report not persisted")
	}
	doc, _ := docRepo.GetDocument(context.Background(), "doc-1")
	if doc.Status != types.DocStatusValidated || doc.LastReportID != report.ReportID {
		t.Errorf("document not marked validated: %+v", doc.Status)
	}

	last := progressRepo.history[len(progressRepo.history)-1]
	if last.Phase != types.PhaseCompleted || last.Percent != 100 {
		t.Errorf("terminal progress wrong: %+v", last)
	}
	if last.TotalAssessments != 3 || last.CompletedAssessments != 3 {
		t.Errorf("assessment counters wrong: %d/%d", last.CompletedAssessments, last.TotalAssessments)
	}
	if last.ReportID != report.ReportID {
		t.Errorf("terminal progress must reference the report")
	}
}

func TestCheck_MissingDocumentFailsRun(t *testing.T) {
	engine, _, _, progressRepo := newTestEngine(&fakeAI{}, newFakeStore())

	_, err := engine.Check(context.Background(), types.CheckRequest{DocumentID: "nope"})
	if err == nil {
		t.Fatal("expected error for unknown document")
	}
	last := progressRepo.history[len(progressRepo.history)-1]
	if last.Phase != types.PhaseFailed || last.Error == "" {
		t.Errorf("expected failed terminal progress, got %+v", last)
	}
}

func TestCheck_UnknownFrameworkRejected(t *testing.T) {
	engine, docRepo, _, _ := newTestEngine(&fakeAI{}, newFakeStore())
	seedDocument(docRepo)

	_, err := engine.Check(context.Background(), types.CheckRequest{
		DocumentID: "doc-1",
		Frameworks: []string{"Basel_III"},
	})
	if err == nil {
		t.Fatal("expected error for unsupported framework")
	}
}

func TestCheck_AllPlannersFailingFailsRun(t *testing.T) {
	ai := &fakeAI{script: []fakeReply{{err: errors.New("provider down")}}}
	engine, docRepo, _, _ := newTestEngine(ai, newFakeStore())
	seedDocument(docRepo)

	_, err := engine.Check(context.Background(), types.CheckRequest{
		DocumentID: "doc-1",
		Frameworks: []string{types.FrameworkIndAS, types.FrameworkScheduleIII},
	})
	if err == nil {
		t.Fatal("expected run to fail when no framework can be planned")
	}
}

func TestCheck_MalformedPlanDegradesFrameworkToZero(t *testing.T) {
	store := newFakeStore()
	store.push(database.CollectionRegulatoryRules, []types.ScoredChunk{
		ruleHit("rule-a", "Rule A text for BRSR tests.", 0.2),
	})
	ai := &fakeAI{script: []fakeReply{
		{text: "no json in this plan"},                              // IndAS plan, malformed
		{text: `{"queries": [{"query": "Is BRSR disclosed?"}]}`},    // ESG plan
		{text: compliantVerdict},
	}}
	engine, docRepo, _, _ := newTestEngine(ai, store)
	seedDocument(docRepo)

	report, err := engine.Check(context.Background(), types.CheckRequest{
		DocumentID: "doc-1",
		Frameworks: []string{types.FrameworkIndAS, types.FrameworkESGBRSR},
	})
	if err != nil {
		t.Fatalf("one degraded framework must not fail the run: %v", err)
	}

	if len(report.Frameworks) != 2 {
		t.Fatalf("expected both frameworks in breakdown, got %d", len(report.Frameworks))
	}
	for _, fb := range report.Frameworks {
		switch fb.Framework {
		case types.FrameworkIndAS:
			if fb.RulesChecked != 0 || fb.Score != 0 {
				t.Errorf("degraded framework must report zero: %+v", fb)
			}
		case types.FrameworkESGBRSR:
			if fb.RulesChecked != 1 {
				t.Errorf("surviving framework lost its rules: %+v", fb)
			}
		}
	}
}

func TestCheck_QueryPlanningReportedUnderDecomposing(t *testing.T) {
	store := newFakeStore()
	store.push(database.CollectionRegulatoryRules, []types.ScoredChunk{
		ruleHit("rule-a", "Rule A requires revenue disaggregation.", 0.2),
	})
	ai := &fakeAI{script: []fakeReply{
		{text: `{"queries": [{"query": "Is revenue disclosed?"}]}`},
		{text: compliantVerdict},
	}}
	engine, docRepo, _, progressRepo := newTestEngine(ai, store)
	seedDocument(docRepo)

	_, err := engine.Check(context.Background(), types.CheckRequest{
		DocumentID: "doc-1",
		Frameworks: []string{types.FrameworkIndAS},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	phases := make(map[string]types.RunPhase)
	for _, entry := range progressRepo.history {
		phases[entry.Step] = entry.Phase
	}
	if got := phases["planning queries"]; got != types.PhaseDecomposing {
		t.Errorf("query planning belongs to decomposition, published as %q", got)
	}
	if got := phases["retrieving rules"]; got != types.PhaseRetrieving {
		t.Errorf("rule fan-out should be the retrieving phase, published as %q", got)
	}
}

func TestCheck_AllAssessmentsTimingOutStillCompletes(t *testing.T) {
	store := newFakeStore()
	store.push(database.CollectionRegulatoryRules, []types.ScoredChunk{
		ruleHit("rule-a", "Rule A requires revenue disaggregation.", 0.2),
		ruleHit("rule-b", "Rule B requires contract balance disclosure.", 0.4),
	})
	ai := &fakeAI{script: []fakeReply{
		{text: planTwoQueries},
		{err: &RetryableError{Reason: "timeout", Err: errors.New("deadline exceeded")}},
	}}
	engine, docRepo, _, _ := newTestEngine(ai, store)
	seedDocument(docRepo)

	report, err := engine.Check(context.Background(), types.CheckRequest{
		DocumentID: "doc-1",
		Frameworks: []string{types.FrameworkIndAS},
	})
	if err != nil {
		t.Fatalf("a stalled model must degrade results, not fail the run: %v", err)
	}

	if len(report.Results) != 2 {
		t.Fatalf("expected a result per rule, got %d", len(report.Results))
	}
	for _, result := range report.Results {
		if result.Status != types.StatusUnableToDetermine {
			t.Errorf("rule %s: expected unable_to_determine, got %q", result.RuleID, result.Status)
		}
		if result.Confidence != 0 {
			t.Errorf("rule %s: undetermined result must carry zero confidence", result.RuleID)
		}
	}
	if report.OverallScore != 0 {
		t.Errorf("nothing scorable must score 0, got %v", report.OverallScore)
	}
}

func TestStartRun_CompletesInBackground(t *testing.T) {
	store := newFakeStore()
	store.push(database.CollectionRegulatoryRules, []types.ScoredChunk{
		ruleHit("rule-a", "Rule A requires revenue disaggregation.", 0.2),
	})
	ai := &fakeAI{script: []fakeReply{
		{text: `{"queries": [{"query": "Is revenue disclosed?"}]}`},
		{text: compliantVerdict},
	}}
	engine, docRepo, reportRepo, _ := newTestEngine(ai, store)
	seedDocument(docRepo)

	runID, err := engine.StartRun(types.CheckRequest{
		DocumentID: "doc-1",
		Frameworks: []string{types.FrameworkIndAS},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		progress, err := engine.GetProgress(context.Background(), runID)
		if err == nil && progress.Phase.Terminal() {
			if progress.Phase != types.PhaseCompleted {
				t.Fatalf("run ended in %q: %s", progress.Phase, progress.Error)
			}
			break
		}
		select {
		case <-deadline:
			t.Fatal("run did not finish in time")
		case <-time.After(10 * time.Millisecond):
		}
	}

	reportRepo.mu.Lock()
	count := len(reportRepo.reports)
	reportRepo.mu.Unlock()
	if count != 1 {
		t.Fatalf("background run did not persist a report")
	}
}

func TestCancelRun_UnknownRun(t *testing.T) {
	engine, _, _, _ := newTestEngine(&fakeAI{}, newFakeStore())

	if err := engine.CancelRun("missing"); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestRunBatch_OneFailureDoesNotStopOthers(t *testing.T) {
	store := newFakeStore()
	store.push(database.CollectionRegulatoryRules, []types.ScoredChunk{
		ruleHit("rule-a", "Rule A requires disclosure.", 0.2),
	})
	ai := &fakeAI{script: []fakeReply{
		{text: `{"queries": [{"query": "Is disclosure present?"}]}`},
		{text: compliantVerdict},
	}}
	engine, docRepo, _, _ := newTestEngine(ai, store)
	seedDocument(docRepo)

	resp := engine.RunBatch(context.Background(), types.BatchCheckRequest{
		DocumentIDs: []string{"missing-doc", "doc-1"},
		Frameworks:  []string{types.FrameworkIndAS},
	})

	if resp.Total != 2 || resp.Completed != 1 || resp.Failed != 1 {
		t.Fatalf("unexpected batch outcome: %+v", resp)
	}
	if _, ok := resp.Errors["missing-doc"]; !ok {
		t.Errorf("failed document missing from errors map")
	}
	if len(resp.ReportIDs) != 1 {
		t.Errorf("expected one report id, got %d", len(resp.ReportIDs))
	}
}

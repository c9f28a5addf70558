package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tieubaoca/compliance-be/config"
	"github.com/tieubaoca/compliance-be/types"
)

func testDoc() *types.DocumentRecord {
	return &types.DocumentRecord{
		ID:       "doc-1",
		Filename: "annual_report_fy25.pdf",
		Company:  "Acme Industries Ltd",
	}
}

func result(framework string, status types.ComplianceStatus) types.ComplianceCheckResult {
	return types.ComplianceCheckResult{
		RuleID:    "r",
		RuleText:  "Some requirement text.",
		Framework: framework,
		Status:    status,
	}
}

func TestSynthesize_ScoreCountsOnlyScorableVerdicts(t *testing.T) {
	synth := NewReportSynthesizer(&fakeAI{script: []fakeReply{{text: "Summary."}}}, config.DefaultEngineConfig())
	results := []types.ComplianceCheckResult{
		result(types.FrameworkIndAS, types.StatusCompliant),
		result(types.FrameworkIndAS, types.StatusCompliant),
		result(types.FrameworkIndAS, types.StatusPartiallyCompliant),
		result(types.FrameworkIndAS, types.StatusNonCompliant),
		result(types.FrameworkIndAS, types.StatusNotApplicable),
		result(types.FrameworkIndAS, types.StatusUnableToDetermine),
	}

	report := synth.Synthesize(context.Background(), testDoc(), []string{types.FrameworkIndAS}, results, time.Now())

	// (2 + 0.5*1) / 4 scorable = 62.5
	if report.OverallScore != 62.5 {
		t.Fatalf("expected 62.5, got %v", report.OverallScore)
	}
	if report.TotalRulesChecked != 6 {
		t.Errorf("all verdicts count as checked, got %d", report.TotalRulesChecked)
	}
	if report.NotApplicableCount != 1 || report.UnableToDetermine != 1 {
		t.Errorf("non-scorable counts wrong: n/a %d, undetermined %d", report.NotApplicableCount, report.UnableToDetermine)
	}
	fb := report.Frameworks[0]
	if fb.ScoredCount != 4 {
		t.Errorf("expected 4 scorable verdicts, got %d", fb.ScoredCount)
	}
}

func TestSynthesize_NothingScorableIsZeroNotHundred(t *testing.T) {
	synth := NewReportSynthesizer(&fakeAI{script: []fakeReply{{text: "Summary."}}}, config.DefaultEngineConfig())
	results := []types.ComplianceCheckResult{
		result(types.FrameworkRBINorms, types.StatusUnableToDetermine),
		result(types.FrameworkRBINorms, types.StatusNotApplicable),
	}

	report := synth.Synthesize(context.Background(), testDoc(), []string{types.FrameworkRBINorms}, results, time.Now())

	if report.OverallScore != 0 {
		t.Fatalf("unscored run must report 0, got %v", report.OverallScore)
	}
	if report.Frameworks[0].Score != 0 {
		t.Errorf("framework with nothing scorable must score 0, got %v", report.Frameworks[0].Score)
	}
}

func TestSynthesize_EmptyFrameworkStaysVisible(t *testing.T) {
	synth := NewReportSynthesizer(&fakeAI{script: []fakeReply{{text: "Summary."}}}, config.DefaultEngineConfig())
	results := []types.ComplianceCheckResult{
		result(types.FrameworkIndAS, types.StatusCompliant),
	}
	frameworks := []string{types.FrameworkIndAS, types.FrameworkESGBRSR}

	report := synth.Synthesize(context.Background(), testDoc(), frameworks, results, time.Now())

	if len(report.Frameworks) != 2 {
		t.Fatalf("expected both frameworks in breakdown, got %d", len(report.Frameworks))
	}
	var esg *types.FrameworkBreakdown
	for i := range report.Frameworks {
		if report.Frameworks[i].Framework == types.FrameworkESGBRSR {
			esg = &report.Frameworks[i]
		}
	}
	if esg == nil {
		t.Fatal("framework with zero rules dropped from report")
	}
	if esg.RulesChecked != 0 || esg.Score != 0 {
		t.Errorf("empty framework must show 0 rules and 0 score, got %d and %v", esg.RulesChecked, esg.Score)
	}
	// the fully compliant framework is distinguishable from the empty one
	if report.Frameworks[0].Score != 100 || report.Frameworks[0].RulesChecked != 1 {
		t.Errorf("compliant framework misreported: %+v", report.Frameworks[0])
	}
}

func TestSynthesize_SummaryFallsBackOnProviderFailure(t *testing.T) {
	synth := NewReportSynthesizer(&fakeAI{script: []fakeReply{{err: errors.New("model down")}}}, config.DefaultEngineConfig())
	results := []types.ComplianceCheckResult{
		result(types.FrameworkIndAS, types.StatusNonCompliant),
	}

	report := synth.Synthesize(context.Background(), testDoc(), []string{types.FrameworkIndAS}, results, time.Now())

	if report.Summary == "" {
		t.Fatal("summary must not be empty when the model is down")
	}
	if !strings.Contains(report.Summary, "annual_report_fy25.pdf") {
		t.Errorf("fallback summary should name the document, got %q", report.Summary)
	}
}

func TestSynthesize_SummarySamplesGapsThenPartialsByConfidence(t *testing.T) {
	ai := &fakeAI{script: []fakeReply{{text: "Summary."}}}
	synth := NewReportSynthesizer(ai, config.DefaultEngineConfig())
	results := []types.ComplianceCheckResult{
		{RuleID: "nc-high", RuleText: "Segment reporting disclosure absent.", Framework: types.FrameworkIndAS, Status: types.StatusNonCompliant, Confidence: 0.9},
		{RuleID: "p-low", RuleText: "Related party schedule incomplete.", Framework: types.FrameworkIndAS, Status: types.StatusPartiallyCompliant, Confidence: 0.2},
		{RuleID: "nc-low", RuleText: "Lease maturity analysis missing.", Framework: types.FrameworkIndAS, Status: types.StatusNonCompliant, Confidence: 0.1},
	}

	synth.Synthesize(context.Background(), testDoc(), []string{types.FrameworkIndAS}, results, time.Now())

	if ai.callCount() != 1 {
		t.Fatalf("expected one summary call, got %d", ai.callCount())
	}
	prompt := ai.prompts[0]
	partial := strings.Index(prompt, "Related party schedule incomplete.")
	if partial == -1 {
		t.Fatal("partially compliant finding missing from summary sample")
	}
	low := strings.Index(prompt, "Lease maturity analysis missing.")
	high := strings.Index(prompt, "Segment reporting disclosure absent.")
	if low == -1 || high == -1 {
		t.Fatal("non-compliant findings missing from summary sample")
	}
	if low > high {
		t.Errorf("least confident gap should lead the sample (low at %d, high at %d)", low, high)
	}
	if partial < low || partial < high {
		t.Errorf("partial findings should follow the non-compliant ones")
	}
}

func TestSynthesize_ResultsKeepDispatchOrder(t *testing.T) {
	synth := NewReportSynthesizer(&fakeAI{script: []fakeReply{{text: "Summary."}}}, config.DefaultEngineConfig())
	results := []types.ComplianceCheckResult{
		{RuleID: "a", Framework: types.FrameworkIndAS, Status: types.StatusCompliant},
		{RuleID: "b", Framework: types.FrameworkIndAS, Status: types.StatusNonCompliant},
		{RuleID: "c", Framework: types.FrameworkScheduleIII, Status: types.StatusCompliant},
	}

	report := synth.Synthesize(context.Background(), testDoc(), []string{types.FrameworkIndAS, types.FrameworkScheduleIII}, results, time.Now())

	for i, want := range []string{"a", "b", "c"} {
		if report.Results[i].RuleID != want {
			t.Fatalf("result order changed: got %q at %d", report.Results[i].RuleID, i)
		}
	}
}

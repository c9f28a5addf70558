package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/tieubaoca/compliance-be/config"
	"github.com/tieubaoca/compliance-be/types"
	"github.com/tieubaoca/compliance-be/utils"
)

// ReportSynthesizer folds assessment results into a persistent report.
// Scores count only scorable verdicts: not_applicable and
// unable_to_determine affect neither numerator nor denominator, and a
// framework with nothing scorable reports zero, never a hollow hundred.
type ReportSynthesizer struct {
	ai  AIService
	cfg config.EngineConfig
}

func NewReportSynthesizer(ai AIService, cfg config.EngineConfig) *ReportSynthesizer {
	return &ReportSynthesizer{ai: ai, cfg: cfg}
}

const summarySystemPrompt = `You are a compliance officer writing the executive summary of a validation report for an Indian financial document.
Write 3-5 sentences covering the overall posture, the weakest frameworks and the most material gaps. Plain prose, no markdown.`

// Synthesize builds the final report. Results keep the order they were
// dispatched in, so identical inputs produce an identical report apart
// from ids and timestamps.
func (s *ReportSynthesizer) Synthesize(ctx context.Context, doc *types.DocumentRecord, frameworks []string, results []types.ComplianceCheckResult, startedAt time.Time) *types.ComplianceReport {
	report := &types.ComplianceReport{
		ReportID:         utils.NewID(),
		DocumentID:       doc.ID,
		DocumentName:     doc.Filename,
		Company:          doc.Company,
		FiscalYear:       doc.FiscalYear,
		FrameworksTested: frameworks,
		Results:          results,
		GeneratedAt:      time.Now().UTC().Format(time.RFC3339),
		CreatedAt:        time.Now().Unix(),
	}

	perFramework := make(map[string]*types.FrameworkBreakdown, len(frameworks))
	for _, name := range frameworks {
		perFramework[name] = &types.FrameworkBreakdown{Framework: name}
	}

	totalWeighted := 0.0
	totalScorable := 0
	for _, result := range results {
		report.TotalRulesChecked++
		fb := perFramework[result.Framework]
		if fb == nil {
			// rule metadata disagreeing with the request is a data bug,
			// keep the result visible anyway
			fb = &types.FrameworkBreakdown{Framework: result.Framework}
			perFramework[result.Framework] = fb
			frameworks = append(frameworks, result.Framework)
		}
		fb.RulesChecked++
		switch result.Status {
		case types.StatusCompliant:
			report.CompliantCount++
			fb.Compliant++
			fb.ScoredCount++
		case types.StatusNonCompliant:
			report.NonCompliantCount++
			fb.NonCompliant++
			fb.ScoredCount++
		case types.StatusPartiallyCompliant:
			report.PartiallyCompliant++
			fb.Partial++
			fb.ScoredCount++
		case types.StatusNotApplicable:
			report.NotApplicableCount++
		case types.StatusUnableToDetermine:
			report.UnableToDetermine++
		}
	}

	for _, name := range frameworks {
		fb := perFramework[name]
		if fb.ScoredCount > 0 {
			weighted := float64(fb.Compliant) + s.cfg.PartialComplianceWeight*float64(fb.Partial)
			fb.Score = 100 * weighted / float64(fb.ScoredCount)
			totalWeighted += weighted
			totalScorable += fb.ScoredCount
		}
		report.Frameworks = append(report.Frameworks, *fb)
	}
	if totalScorable > 0 {
		report.OverallScore = 100 * totalWeighted / float64(totalScorable)
	}

	report.ProcessingTimeSeconds = time.Since(startedAt).Seconds()
	report.Summary = s.summarize(ctx, report)
	return report
}

func (s *ReportSynthesizer) summarize(ctx context.Context, report *types.ComplianceReport) string {
	prompt := s.buildSummaryPrompt(report)
	summary, err := s.ai.GenerateText(ctx, summarySystemPrompt, prompt)
	if err != nil {
		slog.Warn("summary generation failed, using fallback", "report", report.ReportID, "error", err)
		return fallbackSummary(report)
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return fallbackSummary(report)
	}
	return summary
}

func (s *ReportSynthesizer) buildSummaryPrompt(report *types.ComplianceReport) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Document: %s\nOverall score: %.1f%%\nRules checked: %d (compliant %d, non-compliant %d, partial %d, n/a %d, undetermined %d)\n\nPer framework:\n",
		report.DocumentName, report.OverallScore, report.TotalRulesChecked,
		report.CompliantCount, report.NonCompliantCount, report.PartiallyCompliant,
		report.NotApplicableCount, report.UnableToDetermine)
	for _, fb := range report.Frameworks {
		if fb.RulesChecked == 0 {
			fmt.Fprintf(&sb, "- %s: no rules could be checked\n", fb.Framework)
			continue
		}
		fmt.Fprintf(&sb, "- %s: %.1f%% across %d rules\n", fb.Framework, fb.Score, fb.RulesChecked)
	}
	writeFindingSample(&sb, "Key gaps", report.Results, types.StatusNonCompliant)
	writeFindingSample(&sb, "Partial compliance", report.Results, types.StatusPartiallyCompliant)
	return sb.String()
}

// writeFindingSample lists up to ten findings of one status, least
// confident first, so the summary leans on the shakiest verdicts.
func writeFindingSample(sb *strings.Builder, heading string, results []types.ComplianceCheckResult, status types.ComplianceStatus) {
	var sample []types.ComplianceCheckResult
	for _, result := range results {
		if result.Status == status {
			sample = append(sample, result)
		}
	}
	if len(sample) == 0 {
		return
	}
	sort.SliceStable(sample, func(i, j int) bool {
		return sample[i].Confidence < sample[j].Confidence
	})
	if len(sample) > 10 {
		sample = sample[:10]
	}
	fmt.Fprintf(sb, "\n%s:\n", heading)
	for _, result := range sample {
		fmt.Fprintf(sb, "- [%s] %s\n", result.Framework, truncate(result.RuleText, 200))
	}
}

// fallbackSummary is fully deterministic so a model outage never blocks
// report delivery.
func fallbackSummary(report *types.ComplianceReport) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Compliance validation of %s completed with an overall score of %.1f%% across %d rules.",
		report.DocumentName, report.OverallScore, report.TotalRulesChecked)
	if report.NonCompliantCount > 0 {
		fmt.Fprintf(&sb, " %d rules were found non-compliant and %d only partially compliant.",
			report.NonCompliantCount, report.PartiallyCompliant)
	}
	var unchecked []string
	for _, fb := range report.Frameworks {
		if fb.RulesChecked == 0 {
			unchecked = append(unchecked, fb.Framework)
		}
	}
	if len(unchecked) > 0 {
		fmt.Fprintf(&sb, " No rules could be checked for: %s.", strings.Join(unchecked, ", "))
	}
	return sb.String()
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tieubaoca/compliance-be/config"
	"github.com/tieubaoca/compliance-be/types"
)

// Assessor produces one verdict per retrieved rule. A shared semaphore
// caps in-flight model calls across every concurrent run; retries use
// exponential backoff and an exhausted rule degrades to
// unable_to_determine rather than failing the run.
type Assessor struct {
	ai        AIService
	retriever *RuleRetriever
	cfg       config.EngineConfig
	sem       chan struct{}
	backoff   func(attempt int) time.Duration
}

func NewAssessor(ai AIService, retriever *RuleRetriever, cfg config.EngineConfig) *Assessor {
	return &Assessor{
		ai:        ai,
		retriever: retriever,
		cfg:       cfg,
		sem:       make(chan struct{}, cfg.MaxConcurrentAssessments),
		backoff:   Backoff,
	}
}

const (
	resultRuleTextLimit = 500
	resultEvidenceLimit = 1500
)

const assessorSystemPrompt = `You are a compliance auditor. Judge whether the document evidence satisfies the regulatory rule.
Respond with JSON only, in this exact shape:
{"status": "compliant|non_compliant|partially_compliant|not_applicable|unable_to_determine",
 "confidence": 0.0,
 "evidence": "verbatim quote from the document that supports the verdict",
 "evidence_location": "section or page reference",
 "explanation": "short reasoning",
 "recommendations": "remediation if not fully compliant, else empty"}`

type verdict struct {
	Status           string  `json:"status"`
	Confidence       float64 `json:"confidence"`
	Evidence         string  `json:"evidence"`
	EvidenceLocation string  `json:"evidence_location"`
	Explanation      string  `json:"explanation"`
	Recommendations  string  `json:"recommendations"`
}

var errMalformedVerdict = errors.New("malformed verdict")

// AssessRule runs one rule against one document. It always returns a
// result; failures surface as unable_to_determine with confidence zero.
func (a *Assessor) AssessRule(ctx context.Context, documentID string, rule types.RetrievedRule) types.ComplianceCheckResult {
	select {
	case a.sem <- struct{}{}:
		defer func() { <-a.sem }()
	case <-ctx.Done():
		return a.undetermined(rule, "run cancelled before assessment")
	}

	evidence, err := a.retriever.RetrieveEvidence(ctx, documentID, rule.Chunk.Text)
	if err != nil {
		slog.Error("evidence retrieval failed", "rule", rule.Chunk.ID, "error", err)
		return a.undetermined(rule, fmt.Sprintf("evidence retrieval failed: %v", err))
	}

	prompt := a.buildPrompt(rule, evidence)
	var lastErr error
	for attempt := 0; attempt < a.cfg.MaxAssessAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(a.backoff(attempt)):
			case <-ctx.Done():
				return a.undetermined(rule, "run cancelled during assessment")
			}
		}
		reply, err := a.ai.GenerateText(ctx, assessorSystemPrompt, prompt)
		if err != nil {
			lastErr = err
			if IsRetryable(err) {
				slog.Warn("assessment attempt failed", "rule", rule.Chunk.ID, "attempt", attempt+1, "error", err)
				continue
			}
			break
		}
		v, err := parseVerdict(reply)
		if err != nil {
			// treated like a transient provider fault, the next attempt
			// usually comes back well-formed
			lastErr = err
			slog.Warn("unparseable verdict", "rule", rule.Chunk.ID, "attempt", attempt+1)
			continue
		}
		return a.toResult(rule, v)
	}
	return a.undetermined(rule, fmt.Sprintf("assessment failed after %d attempts: %v", a.cfg.MaxAssessAttempts, lastErr))
}

func (a *Assessor) buildPrompt(rule types.RetrievedRule, evidence []types.ScoredChunk) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Regulatory rule (%s, source %s):\n%s\n\n", rule.Chunk.Metadata.Framework, rule.Chunk.Metadata.SourceFile, rule.Chunk.Text)
	fmt.Fprintf(&sb, "Validation question: %s\n\nDocument evidence:\n", rule.Query.Text)

	if len(evidence) == 0 {
		sb.WriteString("(no matching document content found)\n")
		return sb.String()
	}
	budget := a.cfg.MaxSectionText
	for i, hit := range evidence {
		label := strings.Join(hit.Chunk.Metadata.SectionPath, " > ")
		if label == "" {
			label = "document body"
		}
		text := hit.Chunk.Text
		if len(text) > budget {
			text = text[:budget]
		}
		fmt.Fprintf(&sb, "[%d] %s (page %d)\n%s\n\n", i+1, label, hit.Chunk.Metadata.PageNumber, text)
		budget -= len(text)
		if budget <= 0 {
			break
		}
	}
	return sb.String()
}

func parseVerdict(reply string) (verdict, error) {
	payload := extractJSON(reply)
	if payload == "" {
		return verdict{}, errMalformedVerdict
	}
	var v verdict
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		return verdict{}, errMalformedVerdict
	}
	switch types.ComplianceStatus(v.Status) {
	case types.StatusCompliant, types.StatusNonCompliant, types.StatusPartiallyCompliant,
		types.StatusNotApplicable, types.StatusUnableToDetermine:
	default:
		return verdict{}, errMalformedVerdict
	}
	if v.Confidence < 0 {
		v.Confidence = 0
	}
	if v.Confidence > 1 {
		v.Confidence = 1
	}
	return v, nil
}

func (a *Assessor) toResult(rule types.RetrievedRule, v verdict) types.ComplianceCheckResult {
	status := types.ComplianceStatus(v.Status)
	if status != types.StatusNonCompliant && status != types.StatusPartiallyCompliant {
		// recommendations only make sense against an actual gap
		v.Recommendations = ""
	}
	return types.ComplianceCheckResult{
		RuleID:           rule.Chunk.ID,
		RuleText:         truncate(rule.Chunk.Text, resultRuleTextLimit),
		RuleSource:       rule.Chunk.Metadata.SourceFile,
		Framework:        rule.Chunk.Metadata.Framework,
		Status:           types.ComplianceStatus(v.Status),
		Confidence:       v.Confidence,
		Evidence:         truncate(v.Evidence, resultEvidenceLimit),
		EvidenceLocation: v.EvidenceLocation,
		Explanation:      v.Explanation,
		Recommendations:  v.Recommendations,
	}
}

func (a *Assessor) undetermined(rule types.RetrievedRule, reason string) types.ComplianceCheckResult {
	return types.ComplianceCheckResult{
		RuleID:      rule.Chunk.ID,
		RuleText:    truncate(rule.Chunk.Text, resultRuleTextLimit),
		RuleSource:  rule.Chunk.Metadata.SourceFile,
		Framework:   rule.Chunk.Metadata.Framework,
		Status:      types.StatusUnableToDetermine,
		Confidence:  0,
		Explanation: reason,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

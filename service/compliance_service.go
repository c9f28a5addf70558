package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/tieubaoca/compliance-be/config"
	"github.com/tieubaoca/compliance-be/repository"
	"github.com/tieubaoca/compliance-be/types"
	"github.com/tieubaoca/compliance-be/utils"
)

// ProgressSink receives progress snapshots as a run advances. Sinks must
// not block; the engine publishes from the run goroutine.
type ProgressSink interface {
	Publish(progress types.RunProgress)
}

var ErrRunNotFound = errors.New("run not found")

// ComplianceEngine orchestrates the validation pipeline: section
// decomposition, query planning, rule retrieval, assessment and report
// synthesis. One engine serves every run; the assessor's shared semaphore
// is the only cross-run coupling.
type ComplianceEngine struct {
	documents   *DocumentService
	planner     *QueryPlanner
	retriever   *RuleRetriever
	assessor    *Assessor
	synthesizer *ReportSynthesizer
	docRepo     repository.DocumentRepo
	reportRepo  repository.ReportRepo
	progress    repository.ProgressRepo
	sink        ProgressSink
	cfg         config.EngineConfig

	runs sync.Map // run id -> context.CancelFunc
}

func NewComplianceEngine(
	documents *DocumentService,
	planner *QueryPlanner,
	retriever *RuleRetriever,
	assessor *Assessor,
	synthesizer *ReportSynthesizer,
	docRepo repository.DocumentRepo,
	reportRepo repository.ReportRepo,
	progress repository.ProgressRepo,
	sink ProgressSink,
	cfg config.EngineConfig,
) *ComplianceEngine {
	return &ComplianceEngine{
		documents:   documents,
		planner:     planner,
		retriever:   retriever,
		assessor:    assessor,
		synthesizer: synthesizer,
		docRepo:     docRepo,
		reportRepo:  reportRepo,
		progress:    progress,
		sink:        sink,
		cfg:         cfg,
	}
}

// AllFrameworks returns every supported framework name in catalog order.
func AllFrameworks() []string {
	infos := ListFrameworks()
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}
	return names
}

func normalizeFrameworks(requested []string) ([]string, error) {
	if len(requested) == 0 {
		return AllFrameworks(), nil
	}
	seen := make(map[string]bool, len(requested))
	var frameworks []string
	for _, name := range requested {
		if !IsKnownFramework(name) {
			return nil, fmt.Errorf("unknown framework %q", name)
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		frameworks = append(frameworks, name)
	}
	return frameworks, nil
}

// Check validates one document synchronously and returns the persisted
// report.
func (e *ComplianceEngine) Check(ctx context.Context, req types.CheckRequest) (*types.ComplianceReport, error) {
	runID := utils.NewID()
	return e.run(ctx, runID, req)
}

// StartRun launches a check in the background and returns its run id.
// Progress is observable through GetProgress and the progress sink.
func (e *ComplianceEngine) StartRun(req types.CheckRequest) (string, error) {
	if _, err := normalizeFrameworks(req.Frameworks); err != nil {
		return "", err
	}
	runID := utils.NewID()
	ctx, cancel := context.WithCancel(context.Background())
	e.runs.Store(runID, cancel)
	go func() {
		defer cancel()
		defer e.runs.Delete(runID)
		if _, err := e.run(ctx, runID, req); err != nil {
			slog.Error("check run failed", "run", runID, "document", req.DocumentID, "error", err)
		}
	}()
	return runID, nil
}

// CancelRun cancels a running check. Cancelling an unknown or finished
// run returns ErrRunNotFound.
func (e *ComplianceEngine) CancelRun(runID string) error {
	value, ok := e.runs.Load(runID)
	if !ok {
		return ErrRunNotFound
	}
	value.(context.CancelFunc)()
	return nil
}

// GetProgress returns the latest progress record for a run.
func (e *ComplianceEngine) GetProgress(ctx context.Context, runID string) (*types.RunProgress, error) {
	return e.progress.GetProgress(ctx, runID)
}

// RunBatch validates several documents sequentially with shared
// frameworks. One document failing does not stop the rest.
func (e *ComplianceEngine) RunBatch(ctx context.Context, req types.BatchCheckRequest) *types.BatchCheckResponse {
	started := time.Now()
	resp := &types.BatchCheckResponse{
		Total:  len(req.DocumentIDs),
		Errors: make(map[string]string),
	}
	for _, documentID := range req.DocumentIDs {
		report, err := e.Check(ctx, types.CheckRequest{
			DocumentID: documentID,
			Frameworks: req.Frameworks,
		})
		if err != nil {
			resp.Failed++
			resp.Errors[documentID] = err.Error()
			continue
		}
		resp.Completed++
		resp.ReportIDs = append(resp.ReportIDs, report.ReportID)
	}
	resp.ProcessingTimeSeconds = time.Since(started).Seconds()
	return resp
}

func (e *ComplianceEngine) run(ctx context.Context, runID string, req types.CheckRequest) (*types.ComplianceReport, error) {
	started := time.Now()
	frameworks, err := normalizeFrameworks(req.Frameworks)
	if err != nil {
		return nil, err
	}

	progress := &types.RunProgress{
		RunID:      runID,
		DocumentID: req.DocumentID,
		Frameworks: frameworks,
		Phase:      types.PhaseQueued,
		CreatedAt:  time.Now().Unix(),
	}
	e.publish(progress)

	doc, err := e.docRepo.GetDocument(ctx, req.DocumentID)
	if err != nil {
		return nil, e.fail(progress, fmt.Errorf("load document %s: %w", req.DocumentID, err))
	}
	if err := e.docRepo.UpdateStatus(ctx, doc.ID, types.DocStatusValidating); err != nil {
		slog.Warn("status update failed", "document", doc.ID, "error", err)
	}

	report, err := e.runPhases(ctx, progress, doc, frameworks, req.Sections, started)
	if err != nil {
		e.docRepo.UpdateStatus(context.WithoutCancel(ctx), doc.ID, types.DocStatusValidationFailed)
		return nil, e.fail(progress, err)
	}

	if err := e.reportRepo.InsertReport(ctx, report); err != nil {
		e.docRepo.UpdateStatus(context.WithoutCancel(ctx), doc.ID, types.DocStatusValidationFailed)
		return nil, e.fail(progress, fmt.Errorf("persist report: %w", err))
	}
	if err := e.docRepo.SetValidation(ctx, doc.ID, report.ReportID, report.OverallScore); err != nil {
		slog.Warn("validation status update failed", "document", doc.ID, "error", err)
	}

	progress.Phase = types.PhaseCompleted
	progress.Step = "report ready"
	progress.Percent = 100
	progress.ReportID = report.ReportID
	e.publish(progress)

	slog.Info("check run completed",
		"run", runID,
		"document", doc.ID,
		"rules", report.TotalRulesChecked,
		"score", report.OverallScore,
		"seconds", report.ProcessingTimeSeconds)
	return report, nil
}

func (e *ComplianceEngine) runPhases(ctx context.Context, progress *types.RunProgress, doc *types.DocumentRecord, frameworks, sections []string, started time.Time) (*types.ComplianceReport, error) {
	e.step(progress, types.PhaseDecomposing, "building section tree", 5)
	tree := e.documents.BuildSectionTree(doc.Elements)
	outline := e.documents.SectionOutline(tree)
	outline = filterOutline(outline, sections)
	docType := doc.DocumentType
	if docType == "" {
		docType = e.documents.DetectDocumentType(doc.Elements)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.step(progress, types.PhaseDecomposing, "planning queries", 15)
	plans, failed := e.planner.Plan(ctx, frameworks, docType, outline)
	if len(failed) == len(frameworks) {
		return nil, fmt.Errorf("query planning failed for every framework")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.step(progress, types.PhaseRetrieving, "retrieving rules", 20)
	var dispatch []types.RetrievedRule
	for _, framework := range frameworks {
		rules, err := e.retriever.RetrieveRules(ctx, framework, plans[framework])
		if err != nil {
			return nil, err
		}
		dispatch = append(dispatch, rules...)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	progress.TotalAssessments = len(dispatch)
	e.step(progress, types.PhaseAssessing, "assessing rules", 25)

	// results are written by dispatch index so the report order matches
	// the retrieval order regardless of goroutine scheduling
	results := make([]types.ComplianceCheckResult, len(dispatch))
	var wg sync.WaitGroup
	var mu sync.Mutex
	completed := 0
	for i, rule := range dispatch {
		wg.Add(1)
		go func(i int, rule types.RetrievedRule) {
			defer wg.Done()
			results[i] = e.assessor.AssessRule(ctx, doc.ID, rule)
			mu.Lock()
			completed++
			progress.CompletedAssessments = completed
			progress.Percent = 25 + 65*completed/len(dispatch)
			progress.Step = fmt.Sprintf("assessed %d/%d rules", completed, len(dispatch))
			e.publish(progress)
			mu.Unlock()
		}(i, rule)
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.step(progress, types.PhaseSynthesizing, "synthesizing report", 95)
	return e.synthesizer.Synthesize(ctx, doc, frameworks, results, started), nil
}

// filterOutline keeps only the section paths that mention one of the
// requested sections. An empty request keeps everything.
func filterOutline(outline [][]string, sections []string) [][]string {
	if len(sections) == 0 {
		return outline
	}
	var filtered [][]string
	for _, path := range outline {
		joined := strings.ToLower(strings.Join(path, " > "))
		for _, want := range sections {
			if strings.Contains(joined, strings.ToLower(want)) {
				filtered = append(filtered, path)
				break
			}
		}
	}
	return filtered
}

func (e *ComplianceEngine) step(progress *types.RunProgress, phase types.RunPhase, step string, percent int) {
	progress.Phase = phase
	progress.Step = step
	progress.Percent = percent
	e.publish(progress)
}

func (e *ComplianceEngine) fail(progress *types.RunProgress, err error) error {
	progress.Phase = types.PhaseFailed
	progress.Error = err.Error()
	e.publish(progress)
	return err
}

// publish persists the snapshot and fans it out to stream subscribers.
// Persistence failures are logged, never fatal to the run.
func (e *ComplianceEngine) publish(progress *types.RunProgress) {
	progress.UpdatedAt = time.Now().Unix()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.progress.PutProgress(ctx, progress); err != nil {
		slog.Warn("progress persist failed", "run", progress.RunID, "error", err)
	}
	if e.sink != nil {
		e.sink.Publish(*progress)
	}
}

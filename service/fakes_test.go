package service

import (
	"context"
	"sync"

	"github.com/tieubaoca/compliance-be/database"
	"github.com/tieubaoca/compliance-be/repository"
	"github.com/tieubaoca/compliance-be/types"
)

// fakeAI replays scripted replies in order, repeating the last entry once
// the script runs out.
type fakeAI struct {
	mu      sync.Mutex
	script  []fakeReply
	next    int
	prompts []string
}

type fakeReply struct {
	text string
	err  error
}

func (f *fakeAI) GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, userPrompt)
	if len(f.script) == 0 {
		return "", nil
	}
	reply := f.script[f.next]
	if f.next < len(f.script)-1 {
		f.next++
	}
	return reply.text, reply.err
}

func (f *fakeAI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

// fakeEmbedder returns a fixed-size vector per input, derived from the
// text length so distinct inputs stay distinguishable.
type fakeEmbedder struct {
	mu     sync.Mutex
	inputs [][]string
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.inputs = append(f.inputs, texts)
	f.mu.Unlock()
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{float32(len(text)), 0, 0, 1}
	}
	return out, nil
}

func (f *fakeEmbedder) Dimension() int { return 4 }

// fakeStore serves canned query results per collection, popping one
// result set per query and repeating the last set afterwards.
type fakeStore struct {
	mu       sync.Mutex
	results  map[string][][]types.ScoredChunk
	upserts  map[string][]types.Chunk
	deleted  []string
	queryErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		results: make(map[string][][]types.ScoredChunk),
		upserts: make(map[string][]types.Chunk),
	}
}

func (f *fakeStore) push(collection string, hits []types.ScoredChunk) {
	f.results[collection] = append(f.results[collection], hits)
}

func (f *fakeStore) UpsertChunks(ctx context.Context, collection string, chunks []types.Chunk, vectors [][]float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts[collection] = append(f.upserts[collection], chunks...)
	return nil
}

func (f *fakeStore) QueryChunks(ctx context.Context, collection string, vector []float32, topK int, filter *database.ChunkFilter) ([]types.ScoredChunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	queue := f.results[collection]
	if len(queue) == 0 {
		return nil, nil
	}
	hits := queue[0]
	if len(queue) > 1 {
		f.results[collection] = queue[1:]
	}
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

func (f *fakeStore) CountChunks(ctx context.Context, collection string, filter *database.ChunkFilter) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.upserts[collection]), nil
}

func (f *fakeStore) DeleteBySource(ctx context.Context, collection string, sourceFile string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, collection+"/"+sourceFile)
	return nil
}

// fakeDocRepo is an in-memory DocumentRepo.
type fakeDocRepo struct {
	mu   sync.Mutex
	docs map[string]*types.DocumentRecord
}

func newFakeDocRepo() *fakeDocRepo {
	return &fakeDocRepo{docs: make(map[string]*types.DocumentRecord)}
}

func (f *fakeDocRepo) CreateDocument(ctx context.Context, doc *types.DocumentRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *doc
	f.docs[doc.ID] = &copied
	return nil
}

func (f *fakeDocRepo) GetDocument(ctx context.Context, id string) (*types.DocumentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *doc
	return &copied, nil
}

func (f *fakeDocRepo) ListDocuments(ctx context.Context, limit int) ([]*types.DocumentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.DocumentRecord
	for _, doc := range f.docs {
		copied := *doc
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeDocRepo) UpdateStatus(ctx context.Context, id string, status types.DocumentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if doc, ok := f.docs[id]; ok {
		doc.Status = status
	}
	return nil
}

func (f *fakeDocRepo) SetProcessed(ctx context.Context, id string, docType string, chunkCount int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if doc, ok := f.docs[id]; ok {
		doc.Status = types.DocStatusProcessed
		doc.DocumentType = docType
		doc.ChunkCount = chunkCount
	}
	return nil
}

func (f *fakeDocRepo) SetValidation(ctx context.Context, id string, reportID string, score float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if doc, ok := f.docs[id]; ok {
		doc.Status = types.DocStatusValidated
		doc.LastReportID = reportID
		doc.LastScore = score
	}
	return nil
}

func (f *fakeDocRepo) DeleteDocument(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, id)
	return nil
}

// fakeReportRepo captures inserted reports.
type fakeReportRepo struct {
	mu      sync.Mutex
	reports []*types.ComplianceReport
}

func (f *fakeReportRepo) InsertReport(ctx context.Context, report *types.ComplianceReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, report)
	return nil
}

func (f *fakeReportRepo) GetReport(ctx context.Context, reportID string) (*types.ComplianceReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, report := range f.reports {
		if report.ReportID == reportID {
			return report, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeReportRepo) ListReports(ctx context.Context, documentID string, limit int) ([]*types.ComplianceReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*types.ComplianceReport(nil), f.reports...), nil
}

// fakeProgressRepo keeps the latest snapshot per run plus full history.
type fakeProgressRepo struct {
	mu      sync.Mutex
	latest  map[string]types.RunProgress
	history []types.RunProgress
}

func newFakeProgressRepo() *fakeProgressRepo {
	return &fakeProgressRepo{latest: make(map[string]types.RunProgress)}
}

func (f *fakeProgressRepo) PutProgress(ctx context.Context, progress *types.RunProgress) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latest[progress.RunID] = *progress
	f.history = append(f.history, *progress)
	return nil
}

func (f *fakeProgressRepo) GetProgress(ctx context.Context, runID string) (*types.RunProgress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	progress, ok := f.latest[runID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &progress, nil
}

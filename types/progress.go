package types

// RunPhase is the state of a check-run. Transitions are strictly
// sequential; completed and failed are terminal.
type RunPhase string

const (
	PhaseQueued       RunPhase = "queued"
	PhaseDecomposing  RunPhase = "decomposing"
	PhaseRetrieving   RunPhase = "retrieving"
	PhaseAssessing    RunPhase = "assessing"
	PhaseSynthesizing RunPhase = "synthesizing"
	PhaseCompleted    RunPhase = "completed"
	PhaseFailed       RunPhase = "failed"
)

// Terminal reports whether the phase is a terminal state.
func (p RunPhase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseFailed
}

// RunProgress is the polling-friendly progress record for one check-run.
// The orchestrator is the only writer; any caller may read it.
type RunProgress struct {
	RunID                string   `bson:"_id" json:"run_id"`
	DocumentID           string   `bson:"document_id" json:"document_id"`
	Frameworks           []string `bson:"frameworks" json:"frameworks"`
	Phase                RunPhase `bson:"phase" json:"phase"`
	Step                 string   `bson:"step" json:"step"`
	Percent              int      `bson:"percent" json:"percent"`
	TotalAssessments     int      `bson:"total_assessments" json:"total_assessments"`
	CompletedAssessments int      `bson:"completed_assessments" json:"completed_assessments"`
	ReportID             string   `bson:"report_id,omitempty" json:"report_id,omitempty"`
	Error                string   `bson:"error,omitempty" json:"error,omitempty"`
	CreatedAt            int64    `bson:"created_at" json:"created_at"`
	UpdatedAt            int64    `bson:"updated_at" json:"updated_at"`
}

package types

// ComplianceStatus is the verdict of a single rule check.
type ComplianceStatus string

const (
	StatusCompliant          ComplianceStatus = "compliant"
	StatusNonCompliant       ComplianceStatus = "non_compliant"
	StatusPartiallyCompliant ComplianceStatus = "partially_compliant"
	StatusNotApplicable      ComplianceStatus = "not_applicable"
	StatusUnableToDetermine  ComplianceStatus = "unable_to_determine"
)

// Supported regulatory frameworks and the vector-store collection that
// holds each framework's rule chunks.
const (
	FrameworkIndAS                = "IndAS"
	FrameworkScheduleIII          = "Schedule_III"
	FrameworkSEBILODR             = "SEBI_LODR"
	FrameworkRBINorms             = "RBI_Norms"
	FrameworkESGBRSR              = "ESG_BRSR"
	FrameworkAuditingStandards    = "Auditing_Standards"
	FrameworkDisclosureChecklists = "Disclosure_Checklists"
)

// ComplianceQuery is a single testable question produced by query
// decomposition for one framework.
type ComplianceQuery struct {
	Text      string   `json:"text"`
	Framework string   `json:"framework"`
	Sections  []string `json:"sections,omitempty"`
}

// ComplianceCheckResult is one verdict for one (query, rule) pair.
// Immutable once produced; owned by its ComplianceReport.
type ComplianceCheckResult struct {
	RuleID           string           `bson:"rule_id" json:"rule_id"`
	RuleText         string           `bson:"rule_text" json:"rule_text"`
	RuleSource       string           `bson:"rule_source" json:"rule_source"`
	Framework        string           `bson:"framework" json:"framework"`
	Status           ComplianceStatus `bson:"status" json:"status"`
	Confidence       float64          `bson:"confidence" json:"confidence"`
	Evidence         string           `bson:"evidence" json:"evidence"`
	EvidenceLocation string           `bson:"evidence_location,omitempty" json:"evidence_location,omitempty"`
	Explanation      string           `bson:"explanation" json:"explanation"`
	Recommendations  string           `bson:"recommendations,omitempty" json:"recommendations,omitempty"`
}

// FrameworkBreakdown is the per-framework slice of a report. RulesChecked
// of zero with Score zero marks a framework where nothing could be
// checked, which is distinct from a fully compliant framework.
type FrameworkBreakdown struct {
	Framework    string  `bson:"framework" json:"framework"`
	RulesChecked int     `bson:"rules_checked" json:"rules_checked"`
	ScoredCount  int     `bson:"scored_count" json:"scored_count"`
	Compliant    int     `bson:"compliant" json:"compliant"`
	NonCompliant int     `bson:"non_compliant" json:"non_compliant"`
	Partial      int     `bson:"partially_compliant" json:"partially_compliant"`
	Score        float64 `bson:"score" json:"score"`
}

// ComplianceReport is the aggregated result of one check-run. Created at
// the end of synthesis, persisted, and never mutated; a re-run produces
// a new report.
type ComplianceReport struct {
	ReportID              string                  `bson:"_id" json:"report_id"`
	DocumentID            string                  `bson:"document_id" json:"document_id"`
	DocumentName          string                  `bson:"document_name" json:"document_name"`
	Company               string                  `bson:"company,omitempty" json:"company,omitempty"`
	FiscalYear            string                  `bson:"fiscal_year,omitempty" json:"fiscal_year,omitempty"`
	FrameworksTested      []string                `bson:"frameworks_tested" json:"frameworks_tested"`
	TotalRulesChecked     int                     `bson:"total_rules_checked" json:"total_rules_checked"`
	CompliantCount        int                     `bson:"compliant_count" json:"compliant_count"`
	NonCompliantCount     int                     `bson:"non_compliant_count" json:"non_compliant_count"`
	PartiallyCompliant    int                     `bson:"partially_compliant_count" json:"partially_compliant_count"`
	NotApplicableCount    int                     `bson:"not_applicable_count" json:"not_applicable_count"`
	UnableToDetermine     int                     `bson:"unable_to_determine_count" json:"unable_to_determine_count"`
	OverallScore          float64                 `bson:"overall_compliance_score" json:"overall_compliance_score"`
	Frameworks            []FrameworkBreakdown    `bson:"frameworks" json:"frameworks"`
	Results               []ComplianceCheckResult `bson:"results" json:"results"`
	Summary               string                  `bson:"summary" json:"summary"`
	GeneratedAt           string                  `bson:"generated_at" json:"generated_at"`
	ProcessingTimeSeconds float64                 `bson:"processing_time" json:"processing_time"`
	CreatedAt             int64                   `bson:"created_at" json:"created_at"`
}

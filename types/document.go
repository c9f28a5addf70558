package types

// ElementKind identifies the kind of content unit produced by the
// extraction service.
type ElementKind string

const (
	ElementTitle         ElementKind = "Title"
	ElementHeader        ElementKind = "Header"
	ElementNarrativeText ElementKind = "NarrativeText"
	ElementListItem      ElementKind = "ListItem"
	ElementTable         ElementKind = "Table"
	ElementFooter        ElementKind = "Footer"
	ElementFigureCaption ElementKind = "FigureCaption"
	ElementPageBreak     ElementKind = "PageBreak"
)

// Element is one extracted content unit from a source document.
// Elements are immutable once produced by extraction.
type Element struct {
	ID          string            `bson:"element_id" json:"element_id"`
	Kind        ElementKind       `bson:"element_type" json:"element_type"`
	Text        string            `bson:"text" json:"text"`
	HTML        string            `bson:"html,omitempty" json:"html,omitempty"` // tables only
	PageNumber  int               `bson:"page_number" json:"page_number"`
	Annotations map[string]string `bson:"annotations,omitempty" json:"annotations,omitempty"`
}

// SectionNode is a node in the reconstructed section tree. Built once per
// document from Title/Header elements and read-only afterwards.
type SectionNode struct {
	Title    string         `json:"title"`
	Level    int            `json:"level"`
	Children []*SectionNode `json:"children,omitempty"`
	Elements []Element      `json:"elements,omitempty"`
}

// DocumentStatus tracks a document through ingestion and validation.
type DocumentStatus string

const (
	DocStatusUploaded         DocumentStatus = "uploaded"
	DocStatusProcessing       DocumentStatus = "processing"
	DocStatusProcessed        DocumentStatus = "processed"
	DocStatusFailed           DocumentStatus = "failed"
	DocStatusValidating       DocumentStatus = "validating"
	DocStatusValidated        DocumentStatus = "validated"
	DocStatusValidationFailed DocumentStatus = "validation_failed"
)

// DocumentRecord is the persisted record for an ingested financial document.
type DocumentRecord struct {
	ID           string         `bson:"_id" json:"id"`
	Filename     string         `bson:"filename" json:"filename"`
	Company      string         `bson:"company,omitempty" json:"company,omitempty"`
	FiscalYear   string         `bson:"fiscal_year,omitempty" json:"fiscal_year,omitempty"`
	DocumentType string         `bson:"document_type" json:"document_type"`
	Status       DocumentStatus `bson:"status" json:"status"`
	Elements     []Element      `bson:"elements" json:"elements"`
	PageCount    int            `bson:"page_count" json:"page_count"`
	ChunkCount   int            `bson:"chunk_count" json:"chunk_count"`
	LastReportID string         `bson:"last_report_id,omitempty" json:"last_report_id,omitempty"`
	LastScore    float64        `bson:"last_score,omitempty" json:"last_score,omitempty"`
	CreatedAt    int64          `bson:"created_at" json:"created_at"`
	UpdatedAt    int64          `bson:"updated_at" json:"updated_at"`
}

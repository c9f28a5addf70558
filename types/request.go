package types

// CheckRequest starts a compliance check on one document.
type CheckRequest struct {
	DocumentID string   `json:"document_id"`
	Frameworks []string `json:"frameworks,omitempty"`
	Sections   []string `json:"sections,omitempty"`
}

// BatchCheckRequest runs compliance checks on several documents.
type BatchCheckRequest struct {
	DocumentIDs []string `json:"document_ids"`
	Frameworks  []string `json:"frameworks,omitempty"`
}

// UploadRequest carries document metadata alongside an uploaded file.
type UploadRequest struct {
	Title      string `json:"title"`
	Company    string `json:"company,omitempty"`
	FiscalYear string `json:"fiscal_year,omitempty"`
}

// SearchRequest queries the regulatory rule corpus.
type SearchRequest struct {
	Query     string `json:"query"`
	Framework string `json:"framework,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// LoginRequest exchanges the admin credential for a bearer token.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

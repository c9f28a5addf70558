package types

type DataResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// RuleSearchHit is one scored rule returned by the search endpoint.
// Relevance is derived from the raw distance for display only.
type RuleSearchHit struct {
	Chunk     Chunk   `json:"chunk"`
	Distance  float64 `json:"distance"`
	Relevance float64 `json:"relevance"`
}

// CheckStartedResponse is returned by the async check endpoint.
type CheckStartedResponse struct {
	RunID string `json:"run_id"`
}

// BatchCheckResponse summarises a batch validation run.
type BatchCheckResponse struct {
	Total                 int               `json:"total"`
	Completed             int               `json:"completed"`
	Failed                int               `json:"failed"`
	ReportIDs             []string          `json:"report_ids"`
	Errors                map[string]string `json:"errors,omitempty"`
	ProcessingTimeSeconds float64           `json:"processing_time"`
}

// FrameworkInfo describes one framework available for validation.
type FrameworkInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
	Collection  string `json:"collection"`
	RuleCount   int    `json:"rule_count"`
}

// LoginResponse carries the admin bearer token.
type LoginResponse struct {
	Token string `json:"token"`
}

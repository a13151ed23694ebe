package domain

import "time"

const (
	AnalysisTypeGeneral = "general"
	AnalysisTypePnL     = "pl"
)

// NormalizeAnalysisType falls back to the general analysis for anything the
// prompt catalog does not know.
func NormalizeAnalysisType(analysisType string) string {
	if analysisType == AnalysisTypePnL {
		return AnalysisTypePnL
	}
	return AnalysisTypeGeneral
}

// AnalysisResult is what the insight generator returns for one analysis run.
type AnalysisResult struct {
	Result     string
	TokensUsed int
}

// DocumentAnalysis is one persisted LLM analysis of a single document.
type DocumentAnalysis struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"doc_id"`
	StoreID    string    `json:"store_id,omitempty"`
	Type       string    `json:"type"`
	Query      string    `json:"query"`
	Result     string    `json:"result"`
	TokensUsed int       `json:"tokens_used"`
	CreatedAt  time.Time `json:"created_at"`
}

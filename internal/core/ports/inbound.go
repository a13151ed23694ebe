package ports

import (
	"context"
	"io"

	"github.com/ciclopsmx/franchise-reports/internal/core/domain"
)

// UploadResult is what the API returns for a pending upload: the document
// plus a preview and the field-mapping analysis for user confirmation.
type UploadResult struct {
	Document *domain.Document     `json:"document"`
	Preview  []domain.RawRow      `json:"preview"`
	Analysis domain.FieldAnalysis `json:"analysis"`

	// ClassifierFallback is set when the LLM classifier failed and the
	// analysis is the identity mapping. Observability only, not part of
	// the response payload.
	ClassifierFallback bool `json:"-"`
}

// DocumentIngestor handles the upload half of the pipeline.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename string, body io.Reader) (*UploadResult, error)
	Confirm(ctx context.Context, documentID, storeID, storeName, period string) error
	Delete(ctx context.Context, documentID string) error
}

// ProcessResult reports what one document contributed to the summaries.
type ProcessResult struct {
	Stores            int
	SummariesUpserted int
	Confidence        string
}

// DocumentProcessor runs extraction + reconciliation for one confirmed
// document, identified by id.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) (*ProcessResult, error)
}

// SummarySyncer rebuilds the summary table from confirmed documents.
type SummarySyncer interface {
	Resync(ctx context.Context, clean bool) (processed int, err error)
}

// DashboardService computes the chart payload and period reports.
type DashboardService interface {
	Dashboard(ctx context.Context, period string) (*domain.Dashboard, error)
	VaultStats(ctx context.Context) (*domain.VaultStats, error)
	PnL(ctx context.Context, period string) (*domain.PnLReport, error)
}

// ChatService answers natural-language questions over the vault.
type ChatService interface {
	Chat(ctx context.Context, message string, history []domain.ChatMessage, storeID string) (string, error)
}

// AnalysisService runs a one-shot LLM analysis over a single document and
// keeps a history of past analyses.
type AnalysisService interface {
	Analyze(ctx context.Context, documentID, analysisType string) (*domain.DocumentAnalysis, error)
	ListAnalyses(ctx context.Context, limit int) ([]domain.DocumentAnalysis, error)
}

package ports

import (
	"context"
	"io"

	"github.com/ciclopsmx/franchise-reports/internal/core/domain"
)

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	List(ctx context.Context, status domain.DocumentStatus, storeID string, limit int) ([]domain.Document, error)
	Confirm(ctx context.Context, id, storeID, storeName, period string) error
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	Delete(ctx context.Context, id string) error
	CountByKind(ctx context.Context, status domain.DocumentStatus) (map[string]int, error)
	DistinctStores(ctx context.Context) ([]domain.StoreInfo, error)
}

// RawRowStore keeps the normalized rows of a document as one opaque payload.
type RawRowStore interface {
	Save(ctx context.Context, documentID string, rows []domain.RawRow, analysis domain.FieldAnalysis) error
	Load(ctx context.Context, documentID string) ([]domain.RawRow, error)
	Delete(ctx context.Context, documentID string) error
}

// SummaryRepository persists per-store per-period summaries. Upsert must be
// atomic on (store_id, period).
type SummaryRepository interface {
	Upsert(ctx context.Context, summary *domain.MonthlySummary) error
	Get(ctx context.Context, storeID, period string) (*domain.MonthlySummary, error)
	ListByPeriod(ctx context.Context, period string) ([]domain.MonthlySummary, error)
	ListRecent(ctx context.Context, limit int) ([]domain.MonthlySummary, error)
	LatestPeriod(ctx context.Context) (string, error)
	DeleteAll(ctx context.Context) error
}

// ObjectStorage stores raw uploaded files.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue carries document-confirmed events from the API to the worker.
type MessageQueue interface {
	PublishDocumentConfirmed(ctx context.Context, documentID string) error
	SubscribeDocumentConfirmed(ctx context.Context, handler func(context.Context, string) error) error
}

// TabularReader turns spreadsheet bytes into sheets of normalized rows.
type TabularReader interface {
	Read(data []byte, extension string) ([]domain.Sheet, error)
}

// PDFLineReader turns a PDF into one row per non-blank text line.
type PDFLineReader interface {
	ReadLines(data []byte) ([]string, error)
}

// FieldClassifier maps raw column names to semantic fields. Implementations
// must be safe to fail: callers fall back to an identity mapping.
type FieldClassifier interface {
	AnalyzeFields(ctx context.Context, sample []domain.RawRow, columns []string, filename string) (domain.FieldAnalysis, error)
}

// InsightGenerator produces natural-language answers over vault context.
type InsightGenerator interface {
	GenerateChat(ctx context.Context, systemContext string, history []domain.ChatMessage, message string) (string, error)
}

// AnalysisGenerator produces a structured document analysis from a prepared
// data summary. The analysis type selects the prompt (general or P&L).
type AnalysisGenerator interface {
	GenerateAnalysis(ctx context.Context, analysisType, dataSummary string) (domain.AnalysisResult, error)
}

// AnalysisRepository persists completed document analyses.
type AnalysisRepository interface {
	SaveAnalysis(ctx context.Context, analysis *domain.DocumentAnalysis) error
	ListAnalyses(ctx context.Context, limit int) ([]domain.DocumentAnalysis, error)
}

package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ciclopsmx/franchise-reports/internal/core/domain"
	"github.com/ciclopsmx/franchise-reports/internal/core/ports"
)

const (
	analysisSampleRows  = 20
	analysisPDFTextCap  = 8000
	analysisListDefault = 20
)

// AnalyzeDocumentUseCase runs a one-shot LLM analysis over a stored document
// and persists the result. Unlike chat it works from the document's own rows,
// not from the vault summaries.
type AnalyzeDocumentUseCase struct {
	repo      ports.DocumentRepository
	rows      ports.RawRowStore
	analyses  ports.AnalysisRepository
	generator ports.AnalysisGenerator
	now       func() time.Time
}

func NewAnalyzeDocumentUseCase(
	repo ports.DocumentRepository,
	rows ports.RawRowStore,
	analyses ports.AnalysisRepository,
	generator ports.AnalysisGenerator,
) *AnalyzeDocumentUseCase {
	return &AnalyzeDocumentUseCase{
		repo:      repo,
		rows:      rows,
		analyses:  analyses,
		generator: generator,
		now:       time.Now,
	}
}

func (uc *AnalyzeDocumentUseCase) Analyze(ctx context.Context, documentID, analysisType string) (*domain.DocumentAnalysis, error) {
	analysisType = domain.NormalizeAnalysisType(analysisType)

	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch document by id: %w", err)
	}
	rows, err := uc.rows.Load(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("load raw rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.WrapError(domain.ErrNoValidData, "analyze document",
			fmt.Errorf("document %s has no rows", documentID))
	}

	summary := buildDataSummary(doc, rows)
	result, err := uc.generator.GenerateAnalysis(ctx, analysisType, summary)
	if err != nil {
		return nil, fmt.Errorf("generate analysis: %w", err)
	}

	analysis := &domain.DocumentAnalysis{
		ID:         uuid.NewString(),
		DocumentID: doc.ID,
		StoreID:    doc.StoreID,
		Type:       analysisType,
		Query:      fmt.Sprintf("Análisis %s de %s", analysisType, doc.Filename),
		Result:     result.Result,
		TokensUsed: result.TokensUsed,
		CreatedAt:  uc.now().UTC(),
	}
	if err := uc.analyses.SaveAnalysis(ctx, analysis); err != nil {
		return nil, fmt.Errorf("save analysis: %w", err)
	}

	slog.Info("document_analyzed",
		"document_id", doc.ID,
		"type", analysisType,
		"tokens_used", analysis.TokensUsed,
	)
	return analysis, nil
}

func (uc *AnalyzeDocumentUseCase) ListAnalyses(ctx context.Context, limit int) ([]domain.DocumentAnalysis, error) {
	if limit <= 0 {
		limit = analysisListDefault
	}
	analyses, err := uc.analyses.ListAnalyses(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	return analyses, nil
}

// buildDataSummary renders the document for the prompt: metadata plus a row
// sample for spreadsheets, or the capped text body for PDFs.
func buildDataSummary(doc *domain.Document, rows []domain.RawRow) string {
	if doc.Kind == domain.FileKindPDF {
		var b strings.Builder
		fmt.Fprintf(&b, "Archivo: %s\n\n", doc.Filename)
		for _, row := range rows {
			line, _ := row.Cells[pdfLineColumn].(string)
			if line == "" {
				continue
			}
			if b.Len()+len(line) > analysisPDFTextCap {
				break
			}
			b.WriteString(line)
			b.WriteByte('\n')
		}
		return b.String()
	}

	storeName := doc.StoreName
	if storeName == "" {
		storeName = "No especificada"
	}
	period := doc.Period
	if period == "" {
		period = "No especificado"
	}

	sample := rows
	if len(sample) > analysisSampleRows {
		sample = sample[:analysisSampleRows]
	}
	cells := make([]map[string]any, 0, len(sample))
	for _, row := range sample {
		cells = append(cells, row.Cells)
	}
	sampleJSON, err := json.MarshalIndent(cells, "", "  ")
	if err != nil {
		sampleJSON = []byte("[]")
	}

	return fmt.Sprintf(`Archivo: %s
Sucursal: %s
Periodo: %s
Filas: %d
Columnas: %s

Muestra de datos:
%s`, doc.Filename, storeName, period, doc.RowCount, strings.Join(doc.Columns, ", "), sampleJSON)
}

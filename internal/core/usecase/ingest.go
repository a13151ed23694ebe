package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ciclopsmx/franchise-reports/internal/core/domain"
	"github.com/ciclopsmx/franchise-reports/internal/core/ports"
)

const (
	previewRows      = 10
	classifierSample = 5
	pdfLineColumn    = "contenido"
)

// IngestDocumentUseCase turns an upload into a pending document: raw bytes
// in object storage, normalized rows in the row store, field analysis
// attached. Extraction waits for an explicit user confirmation.
type IngestDocumentUseCase struct {
	repo       ports.DocumentRepository
	rows       ports.RawRowStore
	storage    ports.ObjectStorage
	queue      ports.MessageQueue
	tabular    ports.TabularReader
	pdf        ports.PDFLineReader
	classifier ports.FieldClassifier
	now        func() time.Time
}

func NewIngestDocumentUseCase(
	repo ports.DocumentRepository,
	rows ports.RawRowStore,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
	tabular ports.TabularReader,
	pdf ports.PDFLineReader,
	classifier ports.FieldClassifier,
) *IngestDocumentUseCase {
	return &IngestDocumentUseCase{
		repo:       repo,
		rows:       rows,
		storage:    storage,
		queue:      queue,
		tabular:    tabular,
		pdf:        pdf,
		classifier: classifier,
		now:        time.Now,
	}
}

func (uc *IngestDocumentUseCase) Upload(ctx context.Context, filename string, body io.Reader) (*ports.UploadResult, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	kind, err := kindForExtension(ext)
	if err != nil {
		return nil, err
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read upload body: %w", err)
	}

	id := uuid.NewString()
	if err := uc.storage.Save(ctx, id+"_"+sanitizeFilename(filename), bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	var (
		columns []string
		rows    []domain.RawRow
	)
	if kind == domain.FileKindPDF {
		columns, rows, err = uc.ingestPDF(raw)
	} else {
		columns, rows, err = uc.ingestSpreadsheet(raw, ext)
	}
	if err != nil {
		return nil, err
	}

	analysis, usedFallback := uc.analyzeFields(ctx, rows, columns, filename)

	now := uc.now().UTC()
	doc := &domain.Document{
		ID:        id,
		Filename:  filename,
		Kind:      kind,
		Period:    domain.DerivePeriod(filename, now),
		RowCount:  len(rows),
		Columns:   columns,
		Status:    domain.StatusPendingConfirmation,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document metadata: %w", err)
	}
	if err := uc.rows.Save(ctx, doc.ID, rows, analysis); err != nil {
		return nil, fmt.Errorf("save raw rows: %w", err)
	}

	preview := rows
	if len(preview) > previewRows {
		preview = preview[:previewRows]
	}
	return &ports.UploadResult{
		Document:           doc,
		Preview:            preview,
		Analysis:           analysis,
		ClassifierFallback: usedFallback,
	}, nil
}

// Confirm stamps store/period metadata, flips the document to confirmed and
// hands it to the worker.
func (uc *IngestDocumentUseCase) Confirm(ctx context.Context, documentID, storeID, storeName, period string) error {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("fetch document by id: %w", err)
	}
	if period == "" {
		period = doc.Period
	}
	if err := uc.repo.Confirm(ctx, documentID, storeID, storeName, period); err != nil {
		return fmt.Errorf("confirm document: %w", err)
	}
	if err := uc.queue.PublishDocumentConfirmed(ctx, documentID); err != nil {
		return fmt.Errorf("publish confirmation event: %w", err)
	}
	return nil
}

func (uc *IngestDocumentUseCase) Delete(ctx context.Context, documentID string) error {
	if _, err := uc.repo.GetByID(ctx, documentID); err != nil {
		return fmt.Errorf("fetch document by id: %w", err)
	}
	if err := uc.rows.Delete(ctx, documentID); err != nil {
		return fmt.Errorf("delete raw rows: %w", err)
	}
	if err := uc.repo.Delete(ctx, documentID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// ingestSpreadsheet keeps one document per upload: all surviving sheets are
// concatenated and every row is tagged with its origin sheet. Column lists
// are merged in first-seen order.
func (uc *IngestDocumentUseCase) ingestSpreadsheet(raw []byte, ext string) ([]string, []domain.RawRow, error) {
	sheets, err := uc.tabular.Read(raw, ext)
	if err != nil {
		return nil, nil, fmt.Errorf("read spreadsheet: %w", err)
	}
	if len(sheets) == 0 {
		return nil, nil, domain.WrapError(domain.ErrNoValidData, "ingest spreadsheet",
			fmt.Errorf("no sheet survived cleaning"))
	}

	var (
		columns []string
		seen    = map[string]bool{}
		rows    []domain.RawRow
	)
	for _, sheet := range sheets {
		for _, col := range sheet.Columns {
			if !seen[col] {
				seen[col] = true
				columns = append(columns, col)
			}
		}
		rows = append(rows, sheet.Rows...)
	}
	return columns, rows, nil
}

func (uc *IngestDocumentUseCase) ingestPDF(raw []byte) ([]string, []domain.RawRow, error) {
	lines, err := uc.pdf.ReadLines(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("read pdf: %w", err)
	}
	if len(lines) == 0 {
		return nil, nil, domain.WrapError(domain.ErrNoValidData, "ingest pdf",
			fmt.Errorf("no text lines extracted"))
	}
	rows := make([]domain.RawRow, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, domain.RawRow{
			Sheet: "pdf",
			Cells: map[string]any{pdfLineColumn: line},
		})
	}
	return []string{pdfLineColumn}, rows, nil
}

// analyzeFields asks the classifier for a field mapping and falls back to an
// identity mapping on any failure. Classifier trouble never blocks an upload;
// the second return reports whether the fallback was used.
func (uc *IngestDocumentUseCase) analyzeFields(ctx context.Context, rows []domain.RawRow, columns []string, filename string) (domain.FieldAnalysis, bool) {
	if uc.classifier == nil {
		return domain.IdentityFieldAnalysis(columns), false
	}
	sample := rows
	if len(sample) > classifierSample {
		sample = sample[:classifierSample]
	}
	analysis, err := uc.classifier.AnalyzeFields(ctx, sample, columns, filename)
	if err != nil {
		slog.Warn("field_classifier_fallback", "filename", filename, "error", err)
		return domain.IdentityFieldAnalysis(columns), true
	}
	if analysis.DetectedFields == nil {
		return domain.IdentityFieldAnalysis(columns), true
	}
	return analysis, false
}

func kindForExtension(ext string) (domain.FileKind, error) {
	switch ext {
	case ".xlsx", ".xls", ".csv":
		return domain.FileKindSpreadsheet, nil
	case ".pdf":
		return domain.FileKindPDF, nil
	default:
		return "", domain.WrapError(domain.ErrInvalidInput, "upload",
			fmt.Errorf("unsupported extension %q, want xlsx, xls, csv or pdf", ext))
	}
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "document.bin"
	}
	return base
}

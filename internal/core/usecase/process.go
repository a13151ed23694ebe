package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ciclopsmx/franchise-reports/internal/core/domain"
	"github.com/ciclopsmx/franchise-reports/internal/core/ports"
)

// ProcessDocumentUseCase runs extraction + reconciliation for one confirmed
// document. It is the worker-side half of the pipeline.
type ProcessDocumentUseCase struct {
	repo       ports.DocumentRepository
	rows       ports.RawRowStore
	extractor  *StatementExtractor
	reconciler *Reconciler
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	rows ports.RawRowStore,
	extractor *StatementExtractor,
	reconciler *Reconciler,
) *ProcessDocumentUseCase {
	return &ProcessDocumentUseCase{
		repo:       repo,
		rows:       rows,
		extractor:  extractor,
		reconciler: reconciler,
	}
}

func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID string) (*ports.ProcessResult, error) {
	doc, err := uc.loadConfirmed(ctx, documentID)
	if err != nil {
		return nil, err
	}

	rows, err := uc.loadRows(ctx, documentID)
	if err != nil {
		return nil, uc.failDocument(ctx, documentID, err)
	}

	extraction := uc.extractor.Extract(doc.Columns, rows)
	if extraction.Confidence == domain.ConfidenceNone {
		// Persisting all-zero summaries helps nobody; surface the flag and
		// leave the table untouched.
		slog.Warn("extraction_empty",
			"document_id", documentID,
			"filename", doc.Filename,
			"concept_rows", extraction.ConceptRows,
		)
		return &ports.ProcessResult{Confidence: string(extraction.Confidence)}, nil
	}

	if err := uc.reconciler.Reconcile(ctx, documentID, doc.Period, extraction); err != nil {
		return nil, uc.failDocument(ctx, documentID, err)
	}

	slog.Info("document_processed",
		"document_id", documentID,
		"period", doc.Period,
		"stores", len(extraction.Stores),
		"confidence", string(extraction.Confidence),
	)
	return &ports.ProcessResult{
		Stores:            len(extraction.Stores),
		SummariesUpserted: len(extraction.Stores),
		Confidence:        string(extraction.Confidence),
	}, nil
}

func (uc *ProcessDocumentUseCase) loadConfirmed(ctx context.Context, documentID string) (*domain.Document, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch document by id: %w", err)
	}
	if doc.Status != domain.StatusConfirmed {
		return nil, domain.WrapError(domain.ErrInvalidInput, "process document",
			fmt.Errorf("document %s status is %s, want confirmed", documentID, doc.Status))
	}
	if doc.Period == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "process document",
			errors.New("confirmed document has no period"))
	}
	return doc, nil
}

func (uc *ProcessDocumentUseCase) loadRows(ctx context.Context, documentID string) ([]domain.RawRow, error) {
	rows, err := uc.rows.Load(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("load raw rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "load raw rows", errors.New("document has no rows"))
	}
	return rows, nil
}

func (uc *ProcessDocumentUseCase) failDocument(ctx context.Context, documentID string, processErr error) error {
	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusFailed, processErr.Error()); err != nil {
		return fmt.Errorf("%w; mark failed status: %v", processErr, err)
	}
	return processErr
}

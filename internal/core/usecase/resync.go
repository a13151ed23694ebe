package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/ciclopsmx/franchise-reports/internal/core/domain"
	"github.com/ciclopsmx/franchise-reports/internal/core/ports"
)

// Filenames that look like a statement of results qualify for the bulk
// rebuild; everything else in the vault is left alone.
const statementHint = "RESULTADO"

// ResyncUseCase rebuilds the summary table from every confirmed statement
// document. With clean=true it is a full idempotent rebuild: running it twice
// back to back yields identical summary state.
type ResyncUseCase struct {
	repo       ports.DocumentRepository
	rows       ports.RawRowStore
	summaries  ports.SummaryRepository
	extractor  *StatementExtractor
	reconciler *Reconciler
}

func NewResyncUseCase(
	repo ports.DocumentRepository,
	rows ports.RawRowStore,
	summaries ports.SummaryRepository,
	extractor *StatementExtractor,
	reconciler *Reconciler,
) *ResyncUseCase {
	return &ResyncUseCase{
		repo:       repo,
		rows:       rows,
		summaries:  summaries,
		extractor:  extractor,
		reconciler: reconciler,
	}
}

func (uc *ResyncUseCase) Resync(ctx context.Context, clean bool) (int, error) {
	if clean {
		if err := uc.summaries.DeleteAll(ctx); err != nil {
			return 0, fmt.Errorf("clean summaries: %w", err)
		}
	}

	docs, err := uc.repo.List(ctx, domain.StatusConfirmed, "", 0)
	if err != nil {
		return 0, fmt.Errorf("list confirmed documents: %w", err)
	}

	statements := docs[:0:0]
	for _, doc := range docs {
		if IsStatementFilename(doc.Filename) && doc.Period != "" {
			statements = append(statements, doc)
		}
	}
	// Deterministic order keeps period deltas stable: earlier periods must
	// land before the periods that compare against them.
	sort.Slice(statements, func(i, j int) bool {
		if statements[i].Period != statements[j].Period {
			return statements[i].Period < statements[j].Period
		}
		return statements[i].ID < statements[j].ID
	})

	processed := 0
	for _, doc := range statements {
		rows, err := uc.rows.Load(ctx, doc.ID)
		if err != nil {
			slog.Warn("resync_skip_document", "document_id", doc.ID, "error", err)
			continue
		}
		extraction := uc.extractor.Extract(doc.Columns, rows)
		if extraction.Confidence == domain.ConfidenceNone {
			slog.Warn("resync_empty_extraction", "document_id", doc.ID, "filename", doc.Filename)
			continue
		}
		if err := uc.reconciler.Reconcile(ctx, doc.ID, doc.Period, extraction); err != nil {
			return processed, fmt.Errorf("resync document %s: %w", doc.ID, err)
		}
		processed++
	}

	slog.Info("resync_complete", "clean", clean, "documents", processed)
	return processed, nil
}

// IsStatementFilename reports whether an uploaded filename looks like a
// statement of results ("estado de resultados" and its variants).
func IsStatementFilename(filename string) bool {
	return strings.Contains(domain.FoldUpper(filename), statementHint)
}

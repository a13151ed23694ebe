package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ciclopsmx/franchise-reports/internal/core/domain"
)

type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

func (r *AnalysisRepository) SaveAnalysis(ctx context.Context, analysis *domain.DocumentAnalysis) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO document_analyses (
	id, document_id, store_id, analysis_type, query, result, tokens_used, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`,
		analysis.ID, analysis.DocumentID, analysis.StoreID, analysis.Type,
		analysis.Query, analysis.Result, analysis.TokensUsed, analysis.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

func (r *AnalysisRepository) ListAnalyses(ctx context.Context, limit int) ([]domain.DocumentAnalysis, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, document_id, store_id, analysis_type, query, result, tokens_used, created_at
FROM document_analyses
ORDER BY created_at DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	var analyses []domain.DocumentAnalysis
	for rows.Next() {
		var analysis domain.DocumentAnalysis
		err := rows.Scan(
			&analysis.ID, &analysis.DocumentID, &analysis.StoreID, &analysis.Type,
			&analysis.Query, &analysis.Result, &analysis.TokensUsed, &analysis.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		analyses = append(analyses, analysis)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analyses: %w", err)
	}
	return analyses, nil
}

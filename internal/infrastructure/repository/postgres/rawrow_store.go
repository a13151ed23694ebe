package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ciclopsmx/franchise-reports/internal/core/domain"
)

// RawRowStore keeps a document's normalized rows as one JSONB payload.
// Rows are only ever read back whole, so there is no per-row table.
type RawRowStore struct {
	db *sql.DB
}

func NewRawRowStore(db *sql.DB) *RawRowStore {
	return &RawRowStore{db: db}
}

func (s *RawRowStore) Save(ctx context.Context, documentID string, rows []domain.RawRow, analysis domain.FieldAnalysis) error {
	rowsJSON, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("marshal rows: %w", err)
	}
	analysisJSON, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO document_rows (document_id, rows, analysis, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (document_id) DO UPDATE
SET rows = EXCLUDED.rows, analysis = EXCLUDED.analysis
`, documentID, rowsJSON, analysisJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save document rows: %w", err)
	}
	return nil
}

func (s *RawRowStore) Load(ctx context.Context, documentID string) ([]domain.RawRow, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT rows FROM document_rows WHERE document_id = $1
`, documentID)

	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "load document rows", err)
		}
		return nil, fmt.Errorf("scan document rows: %w", err)
	}

	var rows []domain.RawRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal document rows: %w", err)
	}
	return rows, nil
}

func (s *RawRowStore) Delete(ctx context.Context, documentID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM document_rows WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("delete document rows: %w", err)
	}
	return nil
}

// Package postgres persists documents, their raw rows, and the per-store
// monthly summaries.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ciclopsmx/franchise-reports/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

const schemaLockKey = int64(2026083001)

// EnsureSchema creates all tables. Safe to run from both api and worker;
// the advisory lock serializes bootstrap DDL across startups.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockKey); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	kind TEXT NOT NULL,
	store_id TEXT NOT NULL DEFAULT '',
	store_name TEXT NOT NULL DEFAULT '',
	period TEXT NOT NULL DEFAULT '',
	row_count INTEGER NOT NULL DEFAULT 0,
	columns JSONB NOT NULL DEFAULT '[]'::jsonb,
	status TEXT NOT NULL,
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
CREATE INDEX IF NOT EXISTS idx_documents_store_id ON documents(store_id);
CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at DESC);

CREATE TABLE IF NOT EXISTS document_rows (
	document_id TEXT PRIMARY KEY,
	rows JSONB NOT NULL,
	analysis JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS monthly_summaries (
	store_id TEXT NOT NULL,
	period TEXT NOT NULL,
	store_name TEXT NOT NULL DEFAULT '',
	total_sales DOUBLE PRECISION NOT NULL DEFAULT 0,
	cost_of_sales DOUBLE PRECISION NOT NULL DEFAULT 0,
	gross_profit DOUBLE PRECISION NOT NULL DEFAULT 0,
	gross_margin DOUBLE PRECISION NOT NULL DEFAULT 0,
	operating_expenses DOUBLE PRECISION NOT NULL DEFAULT 0,
	labor_cost DOUBLE PRECISION NOT NULL DEFAULT 0,
	rent DOUBLE PRECISION NOT NULL DEFAULT 0,
	utilities DOUBLE PRECISION NOT NULL DEFAULT 0,
	net_profit DOUBLE PRECISION NOT NULL DEFAULT 0,
	net_margin DOUBLE PRECISION NOT NULL DEFAULT 0,
	sales_vs_previous DOUBLE PRECISION,
	profit_vs_previous DOUBLE PRECISION,
	document_id TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (store_id, period)
);

CREATE INDEX IF NOT EXISTS idx_monthly_summaries_period ON monthly_summaries(period);

CREATE TABLE IF NOT EXISTS document_analyses (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL,
	store_id TEXT NOT NULL DEFAULT '',
	analysis_type TEXT NOT NULL,
	query TEXT NOT NULL DEFAULT '',
	result TEXT NOT NULL,
	tokens_used INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_document_analyses_created_at ON document_analyses(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	columnsJSON, err := json.Marshal(doc.Columns)
	if err != nil {
		return fmt.Errorf("marshal columns: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO documents (
	id, filename, kind, store_id, store_name, period, row_count, columns, status, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
`,
		doc.ID, doc.Filename, string(doc.Kind), doc.StoreID, doc.StoreName, doc.Period,
		doc.RowCount, columnsJSON, string(doc.Status), doc.Error, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

const documentColumns = `id, filename, kind, store_id, store_name, period, row_count, columns, status, error_message, created_at, updated_at`

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE id = $1
`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", err)
		}
		return nil, err
	}
	return doc, nil
}

func (r *DocumentRepository) List(ctx context.Context, status domain.DocumentStatus, storeID string, limit int) ([]domain.Document, error) {
	query := `
SELECT ` + documentColumns + `
FROM documents
WHERE ($1 = '' OR status = $1)
  AND ($2 = '' OR store_id = $2)
ORDER BY created_at DESC
`
	args := []any{string(status), storeID}
	if limit > 0 {
		query += "LIMIT $3\n"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

func (r *DocumentRepository) Confirm(ctx context.Context, id, storeID, storeName, period string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2, store_id = $3, store_name = $4, period = $5, error_message = '', updated_at = $6
WHERE id = $1
`, id, string(domain.StatusConfirmed), storeID, storeName, period, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("confirm document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("confirm document rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, "confirm document", sql.ErrNoRows)
	}
	return nil
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	return nil
}

func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, "delete document", sql.ErrNoRows)
	}
	return nil
}

func (r *DocumentRepository) CountByKind(ctx context.Context, status domain.DocumentStatus) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT kind, COUNT(*)
FROM documents
WHERE ($1 = '' OR status = $1)
GROUP BY kind
`, string(status))
	if err != nil {
		return nil, fmt.Errorf("count documents by kind: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("scan kind count: %w", err)
		}
		counts[kind] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate kind counts: %w", err)
	}
	return counts, nil
}

func (r *DocumentRepository) DistinctStores(ctx context.Context) ([]domain.StoreInfo, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT store_id, MAX(store_name), COUNT(*)
FROM documents
WHERE status = $1 AND store_id <> ''
GROUP BY store_id
ORDER BY store_id
`, string(domain.StatusConfirmed))
	if err != nil {
		return nil, fmt.Errorf("list distinct stores: %w", err)
	}
	defer rows.Close()

	var stores []domain.StoreInfo
	for rows.Next() {
		var info domain.StoreInfo
		if err := rows.Scan(&info.StoreID, &info.StoreName, &info.Documents); err != nil {
			return nil, fmt.Errorf("scan store info: %w", err)
		}
		stores = append(stores, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stores: %w", err)
	}
	return stores, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var kind, status string
	var columnsRaw []byte

	err := row.Scan(
		&doc.ID, &doc.Filename, &kind, &doc.StoreID, &doc.StoreName, &doc.Period,
		&doc.RowCount, &columnsRaw, &status, &doc.Error, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}

	if err := json.Unmarshal(columnsRaw, &doc.Columns); err != nil {
		return nil, fmt.Errorf("unmarshal columns: %w", err)
	}
	doc.Kind = domain.FileKind(kind)
	doc.Status = domain.DocumentStatus(status)
	return &doc, nil
}

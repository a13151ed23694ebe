package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/ciclopsmx/franchise-reports/internal/core/domain"
)

func newRepoWithMock(t *testing.T) (*DocumentRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &DocumentRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestGetByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, filename, kind").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByIDScansColumnsJSON(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "filename", "kind", "store_id", "store_name", "period",
		"row_count", "columns", "status", "error_message", "created_at", "updated_at",
	}).AddRow(
		"doc-1", "resultados.xlsx", "spreadsheet", "tienda_centro", "Tienda Centro", "2025-P11",
		42, []byte(`["Concepto","Tienda Centro"]`), "confirmed", "", now, now,
	)
	mock.ExpectQuery("SELECT id, filename, kind").
		WithArgs("doc-1").
		WillReturnRows(rows)

	doc, err := repo.GetByID(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if doc.Kind != domain.FileKindSpreadsheet {
		t.Fatalf("Kind = %q", doc.Kind)
	}
	if doc.Status != domain.StatusConfirmed {
		t.Fatalf("Status = %q", doc.Status)
	}
	if len(doc.Columns) != 2 || doc.Columns[0] != "Concepto" {
		t.Fatalf("Columns = %v", doc.Columns)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestConfirmReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE documents").
		WithArgs("missing", string(domain.StatusConfirmed), "tienda_norte", "Tienda Norte", "2025-P11", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Confirm(context.Background(), "missing", "tienda_norte", "Tienda Norte", "2025-P11")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeleteReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("DELETE FROM documents").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDistinctStoresGroupsConfirmedDocuments(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	rows := sqlmock.NewRows([]string{"store_id", "store_name", "count"}).
		AddRow("tienda_centro", "Tienda Centro", 3).
		AddRow("tienda_norte", "Tienda Norte", 1)
	mock.ExpectQuery("SELECT store_id, MAX").
		WithArgs(string(domain.StatusConfirmed)).
		WillReturnRows(rows)

	stores, err := repo.DistinctStores(context.Background())
	if err != nil {
		t.Fatalf("DistinctStores() error = %v", err)
	}
	if len(stores) != 2 {
		t.Fatalf("stores = %d, want 2", len(stores))
	}
	if stores[0].StoreID != "tienda_centro" || stores[0].Documents != 3 {
		t.Fatalf("unexpected first store: %+v", stores[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

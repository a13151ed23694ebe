package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/ciclopsmx/franchise-reports/internal/core/domain"
)

func newSummaryRepoWithMock(t *testing.T) (*SummaryRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &SummaryRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestUpsertPassesNilDeltasAsNull(t *testing.T) {
	repo, mock, done := newSummaryRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	mock.ExpectExec("INSERT INTO monthly_summaries").
		WithArgs(
			"tienda_centro", "2025-P11", "Tienda Centro",
			150000.0, 48000.0, 102000.0, 68.0,
			35000.0, 21000.0, 18000.0, 6500.0,
			24500.0, 16.333333333333332,
			nil, nil,
			"doc-1", now, now,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Upsert(context.Background(), &domain.MonthlySummary{
		StoreID: "tienda_centro", Period: "2025-P11", StoreName: "Tienda Centro",
		TotalSales: 150000, CostOfSales: 48000, GrossProfit: 102000, GrossMargin: 68,
		OperatingExpenses: 35000, LaborCost: 21000, Rent: 18000, Utilities: 6500,
		NetProfit: 24500, NetMargin: 16.333333333333332,
		DocumentID: "doc-1", CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newSummaryRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT store_id, period, store_name").
		WithArgs("tienda_centro", "2025-P10").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "tienda_centro", "2025-P10")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListByPeriodScansNullableDeltas(t *testing.T) {
	repo, mock, done := newSummaryRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"store_id", "period", "store_name",
		"total_sales", "cost_of_sales", "gross_profit", "gross_margin",
		"operating_expenses", "labor_cost", "rent", "utilities",
		"net_profit", "net_margin",
		"sales_vs_previous", "profit_vs_previous",
		"document_id", "created_at", "updated_at",
	}).
		AddRow("tienda_centro", "2025-P11", "Tienda Centro",
			150000.0, 48000.0, 102000.0, 68.0,
			35000.0, 21000.0, 18000.0, 6500.0,
			24500.0, 16.3,
			12.5, nil,
			"doc-1", now, now).
		AddRow("tienda_norte", "2025-P11", "Tienda Norte",
			98000.0, 39000.0, 59000.0, 60.2,
			28000.0, 15000.0, 14000.0, 5200.0,
			9000.0, 9.2,
			nil, nil,
			"doc-1", now, now)
	mock.ExpectQuery("SELECT store_id, period, store_name").
		WithArgs("2025-P11").
		WillReturnRows(rows)

	summaries, err := repo.ListByPeriod(context.Background(), "2025-P11")
	if err != nil {
		t.Fatalf("ListByPeriod() error = %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("summaries = %d, want 2", len(summaries))
	}
	if summaries[0].SalesVsPrevious == nil || *summaries[0].SalesVsPrevious != 12.5 {
		t.Fatalf("SalesVsPrevious = %v", summaries[0].SalesVsPrevious)
	}
	if summaries[1].SalesVsPrevious != nil {
		t.Fatalf("expected nil delta for store without previous period")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestLatestPeriodReturnsEmptyOnEmptyTable(t *testing.T) {
	repo, mock, done := newSummaryRepoWithMock(t)
	defer done()

	rows := sqlmock.NewRows([]string{"max"}).AddRow(nil)
	mock.ExpectQuery("SELECT MAX").WillReturnRows(rows)

	period, err := repo.LatestPeriod(context.Background())
	if err != nil {
		t.Fatalf("LatestPeriod() error = %v", err)
	}
	if period != "" {
		t.Fatalf("period = %q, want empty", period)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

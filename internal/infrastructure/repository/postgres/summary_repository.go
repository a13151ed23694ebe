package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ciclopsmx/franchise-reports/internal/core/domain"
)

type SummaryRepository struct {
	db *sql.DB
}

func NewSummaryRepository(db *sql.DB) *SummaryRepository {
	return &SummaryRepository{db: db}
}

// Upsert is atomic on (store_id, period): concurrent reprocessing of the
// same document never produces duplicate rows, only the last write wins.
func (r *SummaryRepository) Upsert(ctx context.Context, summary *domain.MonthlySummary) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO monthly_summaries (
	store_id, period, store_name,
	total_sales, cost_of_sales, gross_profit, gross_margin,
	operating_expenses, labor_cost, rent, utilities,
	net_profit, net_margin,
	sales_vs_previous, profit_vs_previous,
	document_id, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
ON CONFLICT (store_id, period) DO UPDATE SET
	store_name = EXCLUDED.store_name,
	total_sales = EXCLUDED.total_sales,
	cost_of_sales = EXCLUDED.cost_of_sales,
	gross_profit = EXCLUDED.gross_profit,
	gross_margin = EXCLUDED.gross_margin,
	operating_expenses = EXCLUDED.operating_expenses,
	labor_cost = EXCLUDED.labor_cost,
	rent = EXCLUDED.rent,
	utilities = EXCLUDED.utilities,
	net_profit = EXCLUDED.net_profit,
	net_margin = EXCLUDED.net_margin,
	sales_vs_previous = EXCLUDED.sales_vs_previous,
	profit_vs_previous = EXCLUDED.profit_vs_previous,
	document_id = EXCLUDED.document_id,
	updated_at = EXCLUDED.updated_at
`,
		summary.StoreID, summary.Period, summary.StoreName,
		summary.TotalSales, summary.CostOfSales, summary.GrossProfit, summary.GrossMargin,
		summary.OperatingExpenses, summary.LaborCost, summary.Rent, summary.Utilities,
		summary.NetProfit, summary.NetMargin,
		summary.SalesVsPrevious, summary.ProfitVsPrevious,
		summary.DocumentID, summary.CreatedAt, summary.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert summary: %w", err)
	}
	return nil
}

const summaryColumns = `store_id, period, store_name,
	total_sales, cost_of_sales, gross_profit, gross_margin,
	operating_expenses, labor_cost, rent, utilities,
	net_profit, net_margin,
	sales_vs_previous, profit_vs_previous,
	document_id, created_at, updated_at`

func (r *SummaryRepository) Get(ctx context.Context, storeID, period string) (*domain.MonthlySummary, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+summaryColumns+`
FROM monthly_summaries
WHERE store_id = $1 AND period = $2
`, storeID, period)

	summary, err := scanSummary(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get summary", err)
		}
		return nil, err
	}
	return summary, nil
}

func (r *SummaryRepository) ListByPeriod(ctx context.Context, period string) ([]domain.MonthlySummary, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+summaryColumns+`
FROM monthly_summaries
WHERE period = $1
ORDER BY store_id
`, period)
	if err != nil {
		return nil, fmt.Errorf("list summaries by period: %w", err)
	}
	return collectSummaries(rows)
}

func (r *SummaryRepository) ListRecent(ctx context.Context, limit int) ([]domain.MonthlySummary, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT `+summaryColumns+`
FROM monthly_summaries
ORDER BY period DESC, store_id
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent summaries: %w", err)
	}
	return collectSummaries(rows)
}

// LatestPeriod relies on zero-padded period codes sorting lexicographically
// in chronological order. Returns "" when the table is empty.
func (r *SummaryRepository) LatestPeriod(ctx context.Context) (string, error) {
	row := r.db.QueryRowContext(ctx, `SELECT MAX(period) FROM monthly_summaries`)

	var period sql.NullString
	if err := row.Scan(&period); err != nil {
		return "", fmt.Errorf("latest period: %w", err)
	}
	return period.String, nil
}

func (r *SummaryRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM monthly_summaries`); err != nil {
		return fmt.Errorf("delete all summaries: %w", err)
	}
	return nil
}

func collectSummaries(rows *sql.Rows) ([]domain.MonthlySummary, error) {
	defer rows.Close()

	var summaries []domain.MonthlySummary
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summaries: %w", err)
	}
	return summaries, nil
}

func scanSummary(row rowScanner) (*domain.MonthlySummary, error) {
	var summary domain.MonthlySummary
	var salesVsPrev, profitVsPrev sql.NullFloat64

	err := row.Scan(
		&summary.StoreID, &summary.Period, &summary.StoreName,
		&summary.TotalSales, &summary.CostOfSales, &summary.GrossProfit, &summary.GrossMargin,
		&summary.OperatingExpenses, &summary.LaborCost, &summary.Rent, &summary.Utilities,
		&summary.NetProfit, &summary.NetMargin,
		&salesVsPrev, &profitVsPrev,
		&summary.DocumentID, &summary.CreatedAt, &summary.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan summary: %w", err)
	}

	if salesVsPrev.Valid {
		summary.SalesVsPrevious = &salesVsPrev.Float64
	}
	if profitVsPrev.Valid {
		summary.ProfitVsPrevious = &profitVsPrev.Float64
	}
	return &summary, nil
}

package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/ciclopsmx/franchise-reports/internal/core/domain"
)

type dashboardRepoFake struct {
	recent []domain.Document
	byKind map[string]int
	stores []domain.StoreInfo
}

func (f *dashboardRepoFake) List(context.Context, domain.DocumentStatus, string, int) ([]domain.Document, error) {
	return f.recent, nil
}

func (f *dashboardRepoFake) CountByKind(context.Context, domain.DocumentStatus) (map[string]int, error) {
	return f.byKind, nil
}

func (f *dashboardRepoFake) DistinctStores(context.Context) ([]domain.StoreInfo, error) {
	return f.stores, nil
}

func (f *dashboardRepoFake) Create(context.Context, *domain.Document) error {
	return errors.New("not implemented")
}
func (f *dashboardRepoFake) GetByID(context.Context, string) (*domain.Document, error) {
	return nil, errors.New("not implemented")
}
func (f *dashboardRepoFake) Confirm(context.Context, string, string, string, string) error {
	return errors.New("not implemented")
}
func (f *dashboardRepoFake) UpdateStatus(context.Context, string, domain.DocumentStatus, string) error {
	return errors.New("not implemented")
}
func (f *dashboardRepoFake) Delete(context.Context, string) error {
	return errors.New("not implemented")
}

func seedTwoStorePeriod(sums *summaryRepoFake) {
	sums.seed(domain.MonthlySummary{
		StoreID: "tienda_centro", StoreName: "Tienda Centro", Period: "2025-P07",
		TotalSales: 100000, CostOfSales: 40000, GrossProfit: 60000,
		OperatingExpenses: 80000, LaborCost: 20000, Rent: 10000, Utilities: 3000,
		NetProfit: 20000, NetMargin: 20,
	})
	sums.seed(domain.MonthlySummary{
		StoreID: "tienda_norte", StoreName: "Tienda Norte", Period: "2025-P07",
		TotalSales: 50000, CostOfSales: 25000, GrossProfit: 25000,
		OperatingExpenses: 45000, LaborCost: 12000, Rent: 8000, Utilities: 2000,
		NetProfit: 5000, NetMargin: 10,
	})
	sums.seed(domain.MonthlySummary{
		StoreID: "tienda_centro", StoreName: "Tienda Centro", Period: "2025-P06",
		TotalSales: 120000, NetProfit: 20000, NetMargin: 16.7,
	})
}

func TestDashboardAggregatesPeriod(t *testing.T) {
	sums := newSummaryRepoFake()
	seedTwoStorePeriod(sums)
	uc := NewDashboardUseCase(&dashboardRepoFake{}, sums)

	dash, err := uc.Dashboard(context.Background(), "2025-P07")
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}

	if dash.Period != "2025-P07" || dash.PreviousPeriod != "2025-P06" {
		t.Fatalf("periods = %s/%s", dash.Period, dash.PreviousPeriod)
	}
	if dash.StoreCount != 2 {
		t.Fatalf("store count = %d, want 2", dash.StoreCount)
	}
	if dash.Totals.TotalSales != 150000 {
		t.Fatalf("total sales = %v, want 150000", dash.Totals.TotalSales)
	}
	if dash.GrossMargin != 56.7 {
		t.Fatalf("gross margin = %v, want 56.7", dash.GrossMargin)
	}
	if dash.NetMargin != 16.7 {
		t.Fatalf("net margin = %v, want 16.7", dash.NetMargin)
	}
	// (150000 - 125000) / 150000 * 100
	if dash.EfficiencyScore != 16.7 {
		t.Fatalf("efficiency = %v, want 16.7", dash.EfficiencyScore)
	}
	if dash.SalesChange != 25 {
		t.Fatalf("sales change = %v, want 25", dash.SalesChange)
	}
	if dash.ProfitChange != 25 {
		t.Fatalf("profit change = %v, want 25", dash.ProfitChange)
	}
	// Expenses are exactly proportional to sales across the two stores.
	if dash.CorrelationCoefficient != 1 {
		t.Fatalf("correlation = %v, want 1", dash.CorrelationCoefficient)
	}

	if len(dash.Ranking) != 2 || dash.Ranking[0].StoreID != "tienda_centro" {
		t.Fatalf("ranking = %+v, want tienda_centro first", dash.Ranking)
	}
	if dash.Ranking[0].Status != "excellent" || dash.Ranking[1].Status != "warning" {
		t.Fatalf("ranking statuses = %s/%s", dash.Ranking[0].Status, dash.Ranking[1].Status)
	}

	if len(dash.Radar) != 5 {
		t.Fatalf("radar = %d metrics, want 5", len(dash.Radar))
	}
	// net margin 16.667 in range [5,30] -> 46.7
	if dash.Radar[0].Metric != "net_margin" || dash.Radar[0].Score != 46.7 {
		t.Fatalf("radar[0] = %+v, want net_margin 46.7", dash.Radar[0])
	}

	wantWaterfall := []domain.WaterfallStep{
		{Label: "sales", Value: 150000},
		{Label: "cost_of_sales", Value: -65000},
		{Label: "gross_profit", Value: 85000},
		{Label: "other_expenses", Value: -60000},
		{Label: "net_profit", Value: 25000},
	}
	if len(dash.Waterfall) != len(wantWaterfall) {
		t.Fatalf("waterfall = %d steps, want %d", len(dash.Waterfall), len(wantWaterfall))
	}
	for i, want := range wantWaterfall {
		if dash.Waterfall[i] != want {
			t.Fatalf("waterfall[%d] = %+v, want %+v", i, dash.Waterfall[i], want)
		}
	}
}

func TestDashboardDefaultsToLatestPeriod(t *testing.T) {
	sums := newSummaryRepoFake()
	seedTwoStorePeriod(sums)
	uc := NewDashboardUseCase(&dashboardRepoFake{}, sums)

	dash, err := uc.Dashboard(context.Background(), "")
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	if dash.Period != "2025-P07" {
		t.Fatalf("period = %s, want latest 2025-P07", dash.Period)
	}
}

func TestDashboardEmptyVault(t *testing.T) {
	uc := NewDashboardUseCase(&dashboardRepoFake{}, newSummaryRepoFake())

	dash, err := uc.Dashboard(context.Background(), "")
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	if dash.Period != "" || dash.StoreCount != 0 {
		t.Fatalf("dash = %+v, want empty payload", dash)
	}
	if dash.Ranking == nil || dash.Radar == nil || dash.Waterfall == nil {
		t.Fatalf("chart slices must be empty, not nil")
	}
}

func TestSalesExpenseCorrelationGuards(t *testing.T) {
	single := []domain.MonthlySummary{{TotalSales: 100, OperatingExpenses: 80}}
	if got := salesExpenseCorrelation(single); got != 0 {
		t.Fatalf("correlation = %v, want 0 for one store", got)
	}

	flat := []domain.MonthlySummary{
		{TotalSales: 100, OperatingExpenses: 80},
		{TotalSales: 100, OperatingExpenses: 90},
	}
	if got := salesExpenseCorrelation(flat); got != 0 {
		t.Fatalf("correlation = %v, want 0 on zero variance", got)
	}
}

func TestNormalizeRadarValue(t *testing.T) {
	if got := normalize(17.5, 5, 30); got != 50 {
		t.Fatalf("normalize midpoint = %v, want 50", got)
	}
	if got := normalize(200, 5, 30); got != 100 {
		t.Fatalf("normalize above range = %v, want clamp 100", got)
	}
	if got := normalize(-10, 5, 30); got != 0 {
		t.Fatalf("normalize below range = %v, want clamp 0", got)
	}
	if got := normalize(42, 9, 9); got != 50 {
		t.Fatalf("normalize degenerate range = %v, want midpoint 50", got)
	}
}

func TestMarginStatusBuckets(t *testing.T) {
	cases := []struct {
		margin float64
		want   string
	}{
		{25, "excellent"},
		{20, "excellent"},
		{15, "good"},
		{10, "warning"},
		{9.9, "critical"},
		{-5, "critical"},
	}
	for _, tc := range cases {
		if got := marginStatus(tc.margin); got != tc.want {
			t.Fatalf("marginStatus(%v) = %s, want %s", tc.margin, got, tc.want)
		}
	}
}

func TestVaultStats(t *testing.T) {
	repo := &dashboardRepoFake{
		recent: []domain.Document{{ID: "doc-1"}},
		byKind: map[string]int{"spreadsheet": 4, "pdf": 2},
		stores: []domain.StoreInfo{
			{StoreID: "tienda_centro"},
			{StoreID: "tienda_norte"},
		},
	}
	uc := NewDashboardUseCase(repo, newSummaryRepoFake())

	stats, err := uc.VaultStats(context.Background())
	if err != nil {
		t.Fatalf("VaultStats() error = %v", err)
	}
	if stats.TotalDocuments != 6 {
		t.Fatalf("total documents = %d, want 6", stats.TotalDocuments)
	}
	if stats.TotalStores != 2 {
		t.Fatalf("total stores = %d, want 2", stats.TotalStores)
	}
	if len(stats.RecentDocuments) != 1 {
		t.Fatalf("recent = %d, want 1", len(stats.RecentDocuments))
	}
}

func TestPnLReport(t *testing.T) {
	sums := newSummaryRepoFake()
	seedTwoStorePeriod(sums)
	uc := NewDashboardUseCase(&dashboardRepoFake{}, sums)

	report, err := uc.PnL(context.Background(), "2025-P07")
	if err != nil {
		t.Fatalf("PnL() error = %v", err)
	}
	if report.TotalSales != 150000 || report.GrossProfit != 85000 || report.NetProfit != 25000 {
		t.Fatalf("report totals = %+v", report)
	}
	if report.GrossMargin != 56.7 || report.NetMargin != 16.7 {
		t.Fatalf("report margins = %v/%v", report.GrossMargin, report.NetMargin)
	}
	if report.Stores != 2 {
		t.Fatalf("stores = %d, want 2", report.Stores)
	}
}

func TestPnLEmptyVault(t *testing.T) {
	uc := NewDashboardUseCase(&dashboardRepoFake{}, newSummaryRepoFake())

	report, err := uc.PnL(context.Background(), "")
	if err != nil {
		t.Fatalf("PnL() error = %v", err)
	}
	if report.Period != "" || report.TotalSales != 0 {
		t.Fatalf("report = %+v, want zero value", report)
	}
}

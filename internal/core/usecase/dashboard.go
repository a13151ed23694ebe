package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/ciclopsmx/franchise-reports/internal/core/domain"
	"github.com/ciclopsmx/franchise-reports/internal/core/ports"
)

// Fixed reference ranges for radar normalization. A value is rescaled into
// [0,100] against its range and clamped; a degenerate range scores the
// neutral midpoint 50.
type radarRange struct {
	metric string
	min    float64
	max    float64
	value  func(t domain.PeriodTotals) float64
}

var radarRanges = []radarRange{
	{"net_margin", 5, 30, func(t domain.PeriodTotals) float64 {
		return domain.Margin(t.NetProfit, t.TotalSales)
	}},
	{"gross_margin", 40, 80, func(t domain.PeriodTotals) float64 {
		return domain.Margin(t.GrossProfit, t.TotalSales)
	}},
	{"labor_efficiency", 70, 95, func(t domain.PeriodTotals) float64 {
		return 100 - domain.Margin(t.LaborCost, t.TotalSales)
	}},
	{"utility_control", 85, 99, func(t domain.PeriodTotals) float64 {
		return 100 - domain.Margin(t.Utilities, t.TotalSales)
	}},
	{"rent_load", 75, 97, func(t domain.PeriodTotals) float64 {
		return 100 - domain.Margin(t.Rent, t.TotalSales)
	}},
}

// DashboardUseCase is the read-only metrics aggregator: it never mutates
// summaries and every derived quantity guards its denominators.
type DashboardUseCase struct {
	repo      ports.DocumentRepository
	summaries ports.SummaryRepository
}

func NewDashboardUseCase(repo ports.DocumentRepository, summaries ports.SummaryRepository) *DashboardUseCase {
	return &DashboardUseCase{repo: repo, summaries: summaries}
}

// Dashboard computes the chart payload for one period, defaulting to the
// most recent period with summaries.
func (uc *DashboardUseCase) Dashboard(ctx context.Context, period string) (*domain.Dashboard, error) {
	period, err := uc.resolvePeriod(ctx, period)
	if err != nil {
		return nil, err
	}
	if period == "" {
		return &domain.Dashboard{Ranking: []domain.StoreRanking{}, Radar: []domain.RadarScore{}, Waterfall: []domain.WaterfallStep{}}, nil
	}

	current, err := uc.summaries.ListByPeriod(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("list summaries for %s: %w", period, err)
	}

	prevPeriod := domain.PreviousPeriod(period)
	var previous []domain.MonthlySummary
	if prevPeriod != "" {
		previous, err = uc.summaries.ListByPeriod(ctx, prevPeriod)
		if err != nil {
			return nil, fmt.Errorf("list summaries for %s: %w", prevPeriod, err)
		}
	}

	totals := sumTotals(current)
	prevTotals := sumTotals(previous)

	dash := &domain.Dashboard{
		Period:         period,
		PreviousPeriod: prevPeriod,
		StoreCount:     len(current),
		Totals:         roundTotals(totals),

		GrossMargin:     round1(domain.Margin(totals.GrossProfit, totals.TotalSales)),
		NetMargin:       round1(domain.Margin(totals.NetProfit, totals.TotalSales)),
		EfficiencyScore: round1(efficiencyScore(totals)),

		SalesChange:  round1(periodChange(totals.TotalSales, prevTotals.TotalSales)),
		ProfitChange: round1(periodChange(totals.NetProfit, prevTotals.NetProfit)),

		CorrelationCoefficient: round1(salesExpenseCorrelation(current)),

		Ranking:   rankStores(current),
		Radar:     radarScores(totals),
		Waterfall: waterfall(totals),
	}
	return dash, nil
}

func (uc *DashboardUseCase) VaultStats(ctx context.Context) (*domain.VaultStats, error) {
	confirmed, err := uc.repo.List(ctx, domain.StatusConfirmed, "", 5)
	if err != nil {
		return nil, fmt.Errorf("list recent documents: %w", err)
	}
	byKind, err := uc.repo.CountByKind(ctx, domain.StatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("count documents by kind: %w", err)
	}
	stores, err := uc.repo.DistinctStores(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	total := 0
	for _, n := range byKind {
		total += n
	}
	return &domain.VaultStats{
		TotalDocuments:  total,
		TotalStores:     len(stores),
		DocumentsByKind: byKind,
		RecentDocuments: confirmed,
	}, nil
}

func (uc *DashboardUseCase) PnL(ctx context.Context, period string) (*domain.PnLReport, error) {
	period, err := uc.resolvePeriod(ctx, period)
	if err != nil {
		return nil, err
	}
	if period == "" {
		return &domain.PnLReport{}, nil
	}
	summaries, err := uc.summaries.ListByPeriod(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("list summaries for %s: %w", period, err)
	}
	t := sumTotals(summaries)
	return &domain.PnLReport{
		Period:            period,
		TotalSales:        round1(t.TotalSales),
		CostOfSales:       round1(t.CostOfSales),
		GrossProfit:       round1(t.GrossProfit),
		GrossMargin:       round1(domain.Margin(t.GrossProfit, t.TotalSales)),
		OperatingExpenses: round1(t.OperatingExpenses),
		LaborCost:         round1(t.LaborCost),
		Rent:              round1(t.Rent),
		Utilities:         round1(t.Utilities),
		NetProfit:         round1(t.NetProfit),
		NetMargin:         round1(domain.Margin(t.NetProfit, t.TotalSales)),
		Stores:            len(summaries),
	}, nil
}

func (uc *DashboardUseCase) resolvePeriod(ctx context.Context, period string) (string, error) {
	if period != "" {
		return period, nil
	}
	latest, err := uc.summaries.LatestPeriod(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve latest period: %w", err)
	}
	return latest, nil
}

func sumTotals(summaries []domain.MonthlySummary) domain.PeriodTotals {
	var t domain.PeriodTotals
	for _, s := range summaries {
		t.TotalSales += s.TotalSales
		t.CostOfSales += s.CostOfSales
		t.GrossProfit += s.GrossProfit
		t.OperatingExpenses += s.OperatingExpenses
		t.LaborCost += s.LaborCost
		t.Rent += s.Rent
		t.Utilities += s.Utilities
		t.NetProfit += s.NetProfit
	}
	return t
}

// efficiencyScore is (sales - expenses) / sales * 100 clamped to [0,100].
func efficiencyScore(t domain.PeriodTotals) float64 {
	if t.TotalSales <= 0 {
		return 0
	}
	return clamp((t.TotalSales-t.OperatingExpenses)/t.TotalSales*100, 0, 100)
}

// periodChange is (current-previous)/previous*100, 0 when there is nothing
// to compare against.
func periodChange(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	return (current - previous) / previous * 100
}

// salesExpenseCorrelation is the Pearson coefficient between per-store sales
// and per-store operating expenses. Fewer than two stores, or zero variance
// on either side, yields 0.0 rather than NaN.
func salesExpenseCorrelation(summaries []domain.MonthlySummary) float64 {
	n := float64(len(summaries))
	if n < 2 {
		return 0
	}
	var sumX, sumY float64
	for _, s := range summaries {
		sumX += s.TotalSales
		sumY += s.OperatingExpenses
	}
	meanX, meanY := sumX/n, sumY/n

	var cov, varX, varY float64
	for _, s := range summaries {
		dx := s.TotalSales - meanX
		dy := s.OperatingExpenses - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	denom := math.Sqrt(varX * varY)
	if denom == 0 {
		return 0
	}
	r := cov / denom
	if math.IsNaN(r) {
		return 0
	}
	return r
}

// rankStores orders stores descending by net margin and labels each with a
// health bucket.
func rankStores(summaries []domain.MonthlySummary) []domain.StoreRanking {
	ranking := make([]domain.StoreRanking, 0, len(summaries))
	for _, s := range summaries {
		ranking = append(ranking, domain.StoreRanking{
			StoreID:   s.StoreID,
			StoreName: s.StoreName,
			NetMargin: round1(s.NetMargin),
			NetProfit: round1(s.NetProfit),
			Status:    marginStatus(s.NetMargin),
		})
	}
	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].NetMargin > ranking[j].NetMargin
	})
	return ranking
}

func marginStatus(netMargin float64) string {
	switch {
	case netMargin >= 20:
		return "excellent"
	case netMargin >= 15:
		return "good"
	case netMargin >= 10:
		return "warning"
	default:
		return "critical"
	}
}

func radarScores(t domain.PeriodTotals) []domain.RadarScore {
	scores := make([]domain.RadarScore, 0, len(radarRanges))
	for _, r := range radarRanges {
		scores = append(scores, domain.RadarScore{
			Metric: r.metric,
			Score:  round1(normalize(r.value(t), r.min, r.max)),
		})
	}
	return scores
}

func normalize(value, min, max float64) float64 {
	if min == max {
		return 50
	}
	return clamp((value-min)/(max-min)*100, 0, 100)
}

// waterfall is the bridge-chart decomposition from sales down to net profit.
// The "other expenses" step is whatever separates gross from net profit.
func waterfall(t domain.PeriodTotals) []domain.WaterfallStep {
	return []domain.WaterfallStep{
		{Label: "sales", Value: round1(t.TotalSales)},
		{Label: "cost_of_sales", Value: round1(-t.CostOfSales)},
		{Label: "gross_profit", Value: round1(t.GrossProfit)},
		{Label: "other_expenses", Value: round1(-(t.GrossProfit - t.NetProfit))},
		{Label: "net_profit", Value: round1(t.NetProfit)},
	}
}

func roundTotals(t domain.PeriodTotals) domain.PeriodTotals {
	return domain.PeriodTotals{
		TotalSales:        round1(t.TotalSales),
		CostOfSales:       round1(t.CostOfSales),
		GrossProfit:       round1(t.GrossProfit),
		OperatingExpenses: round1(t.OperatingExpenses),
		LaborCost:         round1(t.LaborCost),
		Rent:              round1(t.Rent),
		Utilities:         round1(t.Utilities),
		NetProfit:         round1(t.NetProfit),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

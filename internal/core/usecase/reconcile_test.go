package usecase

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/ciclopsmx/franchise-reports/internal/core/domain"
)

// summaryRepoFake is an in-memory SummaryRepository keyed by
// (store_id, period), shared by the reconcile, resync, process, dashboard
// and chat tests.
type summaryRepoFake struct {
	rows        map[string]domain.MonthlySummary
	upserts     int
	deletedAll  bool
	upsertErr   error
	getErr      error
	listErr     error
	latestErr   error
	deleteErr   error
}

func newSummaryRepoFake() *summaryRepoFake {
	return &summaryRepoFake{rows: map[string]domain.MonthlySummary{}}
}

func summaryKey(storeID, period string) string {
	return storeID + "|" + period
}

func (f *summaryRepoFake) Upsert(_ context.Context, summary *domain.MonthlySummary) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserts++
	f.rows[summaryKey(summary.StoreID, summary.Period)] = *summary
	return nil
}

func (f *summaryRepoFake) Get(_ context.Context, storeID, period string) (*domain.MonthlySummary, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	s, ok := f.rows[summaryKey(storeID, period)]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get summary",
			errors.New("no summary row"))
	}
	return &s, nil
}

func (f *summaryRepoFake) ListByPeriod(_ context.Context, period string) ([]domain.MonthlySummary, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []domain.MonthlySummary
	for _, s := range f.rows {
		if s.Period == period {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StoreID < out[j].StoreID })
	return out, nil
}

func (f *summaryRepoFake) ListRecent(_ context.Context, limit int) ([]domain.MonthlySummary, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []domain.MonthlySummary
	for _, s := range f.rows {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Period != out[j].Period {
			return out[i].Period > out[j].Period
		}
		return out[i].StoreID < out[j].StoreID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *summaryRepoFake) LatestPeriod(context.Context) (string, error) {
	if f.latestErr != nil {
		return "", f.latestErr
	}
	latest := ""
	for _, s := range f.rows {
		if s.Period > latest {
			latest = s.Period
		}
	}
	return latest, nil
}

func (f *summaryRepoFake) DeleteAll(context.Context) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedAll = true
	f.rows = map[string]domain.MonthlySummary{}
	return nil
}

func (f *summaryRepoFake) seed(s domain.MonthlySummary) {
	f.rows[summaryKey(s.StoreID, s.Period)] = s
}

func singleStoreExtraction(store *domain.StoreExtraction) *domain.ExtractionResult {
	return &domain.ExtractionResult{
		Stores:      map[string]*domain.StoreExtraction{store.StoreID: store},
		StoreOrder:  []string{store.StoreID},
		ConceptRows: 5,
		MatchedRows: 5,
		Confidence:  domain.ConfidenceFull,
	}
}

func TestReconcileComputesMargins(t *testing.T) {
	sums := newSummaryRepoFake()
	r := NewReconciler(sums)
	r.now = func() time.Time { return time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC) }

	extraction := singleStoreExtraction(&domain.StoreExtraction{
		StoreID: "tienda_centro", StoreName: "Tienda Centro",
		TotalSales: 100000, CostOfSales: 40000,
		OperatingExpenses: 80000, LaborCost: 20000, Rent: 10000, Utilities: 3000,
		NetProfit: 20000,
	})
	if err := r.Reconcile(context.Background(), "doc-1", "2025-P07", extraction); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	got, err := sums.Get(context.Background(), "tienda_centro", "2025-P07")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.GrossProfit != 60000 {
		t.Fatalf("gross profit = %v, want 60000", got.GrossProfit)
	}
	if got.GrossMargin != 60 {
		t.Fatalf("gross margin = %v, want 60", got.GrossMargin)
	}
	if got.NetMargin != 20 {
		t.Fatalf("net margin = %v, want 20", got.NetMargin)
	}
	if got.DocumentID != "doc-1" {
		t.Fatalf("document id = %q, want doc-1", got.DocumentID)
	}
	if got.SalesVsPrevious != nil || got.ProfitVsPrevious != nil {
		t.Fatalf("deltas = %v/%v, want nil without a previous period", got.SalesVsPrevious, got.ProfitVsPrevious)
	}
}

func TestReconcileDeltasAgainstPreviousPeriod(t *testing.T) {
	sums := newSummaryRepoFake()
	sums.seed(domain.MonthlySummary{
		StoreID: "tienda_centro", Period: "2025-P06",
		TotalSales: 100000, NetProfit: 20000,
	})
	r := NewReconciler(sums)

	extraction := singleStoreExtraction(&domain.StoreExtraction{
		StoreID: "tienda_centro", StoreName: "Tienda Centro",
		TotalSales: 110000, NetProfit: 15000,
	})
	if err := r.Reconcile(context.Background(), "doc-2", "2025-P07", extraction); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	got, _ := sums.Get(context.Background(), "tienda_centro", "2025-P07")
	if got.SalesVsPrevious == nil || *got.SalesVsPrevious != 10 {
		t.Fatalf("sales delta = %v, want +10%%", got.SalesVsPrevious)
	}
	if got.ProfitVsPrevious == nil || *got.ProfitVsPrevious != -25 {
		t.Fatalf("profit delta = %v, want -25%%", got.ProfitVsPrevious)
	}
}

func TestReconcileNilDeltaOnZeroBase(t *testing.T) {
	sums := newSummaryRepoFake()
	sums.seed(domain.MonthlySummary{
		StoreID: "tienda_centro", Period: "2025-P06",
		TotalSales: 0, NetProfit: 20000,
	})
	r := NewReconciler(sums)

	extraction := singleStoreExtraction(&domain.StoreExtraction{
		StoreID: "tienda_centro", StoreName: "Tienda Centro",
		TotalSales: 110000, NetProfit: 10000,
	})
	if err := r.Reconcile(context.Background(), "doc-3", "2025-P07", extraction); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	got, _ := sums.Get(context.Background(), "tienda_centro", "2025-P07")
	if got.SalesVsPrevious != nil {
		t.Fatalf("sales delta = %v, want nil on zero base", got.SalesVsPrevious)
	}
	if got.ProfitVsPrevious == nil || *got.ProfitVsPrevious != -50 {
		t.Fatalf("profit delta = %v, want -50%%", got.ProfitVsPrevious)
	}
}

func TestReconcileOverwritesInPlace(t *testing.T) {
	sums := newSummaryRepoFake()
	r := NewReconciler(sums)

	first := singleStoreExtraction(&domain.StoreExtraction{
		StoreID: "tienda_centro", StoreName: "Tienda Centro", TotalSales: 100000,
	})
	second := singleStoreExtraction(&domain.StoreExtraction{
		StoreID: "tienda_centro", StoreName: "Tienda Centro", TotalSales: 90000,
	})
	ctx := context.Background()
	if err := r.Reconcile(ctx, "doc-4", "2025-P07", first); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if err := r.Reconcile(ctx, "doc-4", "2025-P07", second); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	if len(sums.rows) != 1 {
		t.Fatalf("rows = %d, want 1 after re-reconcile", len(sums.rows))
	}
	got, _ := sums.Get(ctx, "tienda_centro", "2025-P07")
	if got.TotalSales != 90000 {
		t.Fatalf("total sales = %v, want overwrite 90000", got.TotalSales)
	}
}

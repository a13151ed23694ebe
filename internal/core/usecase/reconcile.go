package usecase

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/ciclopsmx/franchise-reports/internal/core/domain"
	"github.com/ciclopsmx/franchise-reports/internal/core/ports"
)

// Reconciler folds store extractions into MonthlySummary rows. The repository
// upsert is atomic, but computing previous-period deltas is a read-then-write
// against a second row, so writes to the same (store_id, period) key are
// serialized through a striped lock.
type Reconciler struct {
	summaries ports.SummaryRepository
	locks     [64]sync.Mutex
	now       func() time.Time
}

func NewReconciler(summaries ports.SummaryRepository) *Reconciler {
	return &Reconciler{summaries: summaries, now: time.Now}
}

// Reconcile upserts one summary per extracted store. Re-running against the
// same document overwrites rows in place; nothing accumulates across runs.
func (r *Reconciler) Reconcile(ctx context.Context, documentID, period string, extraction *domain.ExtractionResult) error {
	for _, id := range extraction.StoreOrder {
		store := extraction.Stores[id]
		if err := r.reconcileStore(ctx, documentID, period, store); err != nil {
			return fmt.Errorf("reconcile store %s period %s: %w", id, period, err)
		}
	}
	return nil
}

func (r *Reconciler) reconcileStore(ctx context.Context, documentID, period string, store *domain.StoreExtraction) error {
	lock := &r.locks[stripeFor(store.StoreID, period)]
	lock.Lock()
	defer lock.Unlock()

	grossProfit := store.TotalSales - store.CostOfSales
	now := r.now().UTC()

	summary := &domain.MonthlySummary{
		StoreID:           store.StoreID,
		StoreName:         store.StoreName,
		Period:            period,
		TotalSales:        store.TotalSales,
		CostOfSales:       store.CostOfSales,
		GrossProfit:       grossProfit,
		GrossMargin:       domain.Margin(grossProfit, store.TotalSales),
		OperatingExpenses: store.OperatingExpenses,
		LaborCost:         store.LaborCost,
		Rent:              store.Rent,
		Utilities:         store.Utilities,
		NetProfit:         store.NetProfit,
		NetMargin:         domain.Margin(store.NetProfit, store.TotalSales),
		DocumentID:        documentID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if prevPeriod := domain.PreviousPeriod(period); prevPeriod != "" {
		prev, err := r.summaries.Get(ctx, store.StoreID, prevPeriod)
		if err != nil && !domain.IsKind(err, domain.ErrDocumentNotFound) {
			return fmt.Errorf("load previous summary: %w", err)
		}
		if prev != nil {
			summary.SalesVsPrevious = pctChange(summary.TotalSales, prev.TotalSales)
			summary.ProfitVsPrevious = pctChange(summary.NetProfit, prev.NetProfit)
		}
	}

	if err := r.summaries.Upsert(ctx, summary); err != nil {
		return fmt.Errorf("upsert summary: %w", err)
	}
	return nil
}

func pctChange(current, previous float64) *float64 {
	if previous == 0 {
		return nil
	}
	change := (current - previous) / previous * 100
	return &change
}

func stripeFor(storeID, period string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(storeID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(period))
	return h.Sum32() % 64
}

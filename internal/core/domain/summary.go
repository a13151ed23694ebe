package domain

import "time"

// StoreExtraction accumulates financial line items for one store column
// while the extractor walks a statement-of-results sheet. It is transient:
// the reconciler folds it into a MonthlySummary and it is never persisted.
type StoreExtraction struct {
	StoreID   string
	StoreName string

	TotalSales        float64
	CostOfSales       float64
	OperatingExpenses float64
	LaborCost         float64
	Rent              float64
	Utilities         float64
	NetProfit         float64
}

// ExtractionConfidence reports how much of a sheet the extractor understood.
// Empty extractions are not errors, but callers get an explicit flag instead
// of silently receiving all-zero records.
type ExtractionConfidence string

const (
	ConfidenceNone    ExtractionConfidence = "none"
	ConfidencePartial ExtractionConfidence = "partial"
	ConfidenceFull    ExtractionConfidence = "full"
)

// ExtractionResult is the extractor output for one document.
type ExtractionResult struct {
	Stores      map[string]*StoreExtraction
	StoreOrder  []string
	MatchedRows int
	ConceptRows int
	Confidence  ExtractionConfidence
}

// MonthlySummary is the durable aggregate for one store in one period,
// keyed by (StoreID, Period). Re-extraction of the same document overwrites
// the row in place.
type MonthlySummary struct {
	StoreID   string `json:"store_id"`
	StoreName string `json:"store_name"`
	Period    string `json:"period"`

	TotalSales  float64 `json:"total_sales"`
	CostOfSales float64 `json:"cost_of_sales"`
	GrossProfit float64 `json:"gross_profit"`
	GrossMargin float64 `json:"gross_margin"`

	OperatingExpenses float64 `json:"operating_expenses"`
	LaborCost         float64 `json:"labor_cost"`
	Rent              float64 `json:"rent"`
	Utilities         float64 `json:"utilities"`

	NetProfit float64 `json:"net_profit"`
	NetMargin float64 `json:"net_margin"`

	// Percentage change against the immediately preceding period; nil when
	// no previous summary exists or its base value is zero.
	SalesVsPrevious  *float64 `json:"sales_vs_previous"`
	ProfitVsPrevious *float64 `json:"profit_vs_previous"`

	DocumentID string    `json:"document_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Margin returns part/total*100, or 0 when total is not positive.
func Margin(part, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return part / total * 100
}

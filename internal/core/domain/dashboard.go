package domain

// PeriodTotals are the field sums across all stores in one period.
type PeriodTotals struct {
	TotalSales        float64 `json:"total_sales"`
	CostOfSales       float64 `json:"cost_of_sales"`
	GrossProfit       float64 `json:"gross_profit"`
	OperatingExpenses float64 `json:"operating_expenses"`
	LaborCost         float64 `json:"labor_cost"`
	Rent              float64 `json:"rent"`
	Utilities         float64 `json:"utilities"`
	NetProfit         float64 `json:"net_profit"`
}

type StoreRanking struct {
	StoreID   string  `json:"store_id"`
	StoreName string  `json:"store_name"`
	NetMargin float64 `json:"net_margin"`
	NetProfit float64 `json:"net_profit"`
	Status    string  `json:"status"`
}

type RadarScore struct {
	Metric string  `json:"metric"`
	Score  float64 `json:"score"`
}

type WaterfallStep struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Dashboard is the full chart payload served to the frontend. All ratios are
// percentage-scaled and rounded to one decimal at this boundary.
type Dashboard struct {
	Period         string `json:"period"`
	PreviousPeriod string `json:"previous_period,omitempty"`
	StoreCount     int    `json:"store_count"`

	Totals          PeriodTotals `json:"totals"`
	GrossMargin     float64      `json:"gross_margin"`
	NetMargin       float64      `json:"net_margin"`
	EfficiencyScore float64      `json:"efficiency_score"`

	SalesChange  float64 `json:"sales_change"`
	ProfitChange float64 `json:"profit_change"`

	CorrelationCoefficient float64 `json:"correlation_coefficient"`

	Ranking   []StoreRanking  `json:"ranking"`
	Radar     []RadarScore    `json:"radar"`
	Waterfall []WaterfallStep `json:"waterfall"`
}

// VaultStats are the document-level counters shown next to the charts.
type VaultStats struct {
	TotalDocuments  int            `json:"total_documents"`
	TotalStores     int            `json:"total_stores"`
	DocumentsByKind map[string]int `json:"documents_by_kind"`
	RecentDocuments []Document     `json:"recent_documents"`
}

// StoreInfo is one franchise location with its confirmed document count.
type StoreInfo struct {
	StoreID   string `json:"store_id"`
	StoreName string `json:"store_name"`
	Documents int    `json:"documents"`
}

// ChatMessage is one turn of a vault chat conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// PnLReport is the period statement of results aggregated across stores.
type PnLReport struct {
	Period            string  `json:"period"`
	TotalSales        float64 `json:"total_sales"`
	CostOfSales       float64 `json:"cost_of_sales"`
	GrossProfit       float64 `json:"gross_profit"`
	GrossMargin       float64 `json:"gross_margin"`
	OperatingExpenses float64 `json:"operating_expenses"`
	LaborCost         float64 `json:"labor_cost"`
	Rent              float64 `json:"rent"`
	Utilities         float64 `json:"utilities"`
	NetProfit         float64 `json:"net_profit"`
	NetMargin         float64 `json:"net_margin"`
	Stores            int     `json:"stores"`
}

package usecase

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ciclopsmx/franchise-reports/internal/core/domain"
)

// The statement extractor walks a wide-format "estado de resultados" sheet:
// the first row names stores in its columns, every following row is one
// financial concept with a numeric value per store column.

// conceptField identifies a StoreExtraction numeric field targeted by a rule.
type conceptField string

const (
	fieldTotalSales        conceptField = "total_sales"
	fieldCostOfSales       conceptField = "cost_of_sales"
	fieldOperatingExpenses conceptField = "operating_expenses"
	fieldLaborCost         conceptField = "labor_cost"
	fieldRent              conceptField = "rent"
	fieldUtilities         conceptField = "utilities"
	fieldNetProfit         conceptField = "net_profit"
)

// conceptRule matches a normalized concept label. Exact terms win as whole
// labels; Contains terms match substrings; ContainsAll requires every term.
// Rules are evaluated in order and the first match ends the scan, so the
// table order is part of the extraction contract.
type conceptRule struct {
	Field       conceptField `yaml:"field"`
	Exact       []string     `yaml:"exact,omitempty"`
	Contains    []string     `yaml:"contains,omitempty"`
	ContainsAll []string     `yaml:"contains_all,omitempty"`
	Accumulate  bool         `yaml:"accumulate,omitempty"`
}

func (r conceptRule) matches(concept string) bool {
	for _, term := range r.Exact {
		if concept == term {
			return true
		}
	}
	for _, term := range r.Contains {
		if strings.Contains(concept, term) {
			return true
		}
	}
	if len(r.ContainsAll) > 0 {
		all := true
		for _, term := range r.ContainsAll {
			if !strings.Contains(concept, term) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

func defaultConceptRules() []conceptRule {
	return []conceptRule{
		{Field: fieldTotalSales, Exact: []string{"INGRESOS", "VENTAS"}, Contains: []string{"VENTA NETA"}},
		{Field: fieldCostOfSales, Exact: []string{"COSTO DE VENTA", "COSTO DE VENTAS"}},
		{Field: fieldOperatingExpenses, Exact: []string{"TOTAL EGRESOS", "EGRESOS TOTALES"}},
		{Field: fieldLaborCost, Contains: []string{"NOMINA", "SALARIO", "SUELDO"}, Accumulate: true},
		{Field: fieldRent, Exact: []string{"RENTA"}, ContainsAll: []string{"RENTA", "LOCAL"}},
		{Field: fieldUtilities, Contains: []string{"CFE", "LUZ", "ELECTRICIDAD", "AGUA", "GAS"}, Accumulate: true},
		{Field: fieldNetProfit, Exact: []string{"UTILIDAD"}, Contains: []string{"UTILIDAD NETA"}},
	}
}

// Header cells that name sections or totals rather than stores, and concept
// labels that are sheet furniture. Fixed denylist, not inferred.
func defaultLabelDenylist() []string {
	return []string{
		"TOTAL", "TOTALES", "SUBTOTAL", "PROMEDIO",
		"COMENTARIOS", "COMMENTS", "OBSERVACIONES", "NOTAS",
		"CONCEPTO", "CONCEPTOS", "CUENTA",
		"ESTADO DE RESULTADOS", "RESUMEN", "CONSOLIDADO",
	}
}

// sheetColumn is the bookkeeping tag the ingestor never exposes as data but
// the extractor must still skip defensively when rows round-trip storage.
const sheetColumn = "__hoja__"

// RuleConfig is the optional YAML override for the rule table and denylist.
type RuleConfig struct {
	Rules    []conceptRule `yaml:"rules"`
	Denylist []string      `yaml:"denylist"`
}

// LoadRuleConfig reads a rule override file. Empty path means defaults.
func LoadRuleConfig(path string) (RuleConfig, error) {
	cfg := RuleConfig{Rules: defaultConceptRules(), Denylist: defaultLabelDenylist()}
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return RuleConfig{}, fmt.Errorf("read rule config: %w", err)
	}
	var loaded RuleConfig
	if err := yaml.Unmarshal(raw, &loaded); err != nil {
		return RuleConfig{}, fmt.Errorf("parse rule config: %w", err)
	}
	if len(loaded.Rules) > 0 {
		cfg.Rules = loaded.Rules
	}
	if len(loaded.Denylist) > 0 {
		cfg.Denylist = loaded.Denylist
	}
	return cfg, nil
}

// StatementExtractor maps statement-of-results rows to per-store records.
type StatementExtractor struct {
	rules    []conceptRule
	denylist map[string]bool
}

func NewStatementExtractor(cfg RuleConfig) *StatementExtractor {
	deny := make(map[string]bool, len(cfg.Denylist))
	for _, label := range cfg.Denylist {
		deny[domain.FoldUpper(label)] = true
	}
	return &StatementExtractor{rules: cfg.Rules, denylist: deny}
}

// Extract treats the first row as the store header and the rest as concept
// rows. Missing store columns or unmatched concepts are not errors; the
// result carries a confidence flag instead.
func (e *StatementExtractor) Extract(columns []string, rows []domain.RawRow) *domain.ExtractionResult {
	result := &domain.ExtractionResult{
		Stores:     map[string]*domain.StoreExtraction{},
		Confidence: domain.ConfidenceNone,
	}
	if len(rows) == 0 {
		return result
	}

	storeColumns := e.findStoreColumns(columns, rows[0])
	for _, sc := range storeColumns {
		id := storeID(sc.name)
		if _, ok := result.Stores[id]; ok {
			continue
		}
		result.Stores[id] = &domain.StoreExtraction{StoreID: id, StoreName: sc.name}
		result.StoreOrder = append(result.StoreOrder, id)
	}

	for _, row := range rows[1:] {
		concept := e.conceptOf(columns, row)
		if concept == "" || e.denylist[concept] {
			continue
		}
		result.ConceptRows++

		rule, matched := e.matchRule(concept)
		if !matched {
			continue
		}
		result.MatchedRows++

		for _, sc := range storeColumns {
			value, ok := numericCell(row.Cells[sc.column])
			if !ok {
				continue
			}
			apply(result.Stores[storeID(sc.name)], rule, value)
		}
	}

	switch {
	case len(result.Stores) == 0 || result.MatchedRows == 0:
		result.Confidence = domain.ConfidenceNone
	case result.MatchedRows < result.ConceptRows:
		result.Confidence = domain.ConfidencePartial
	default:
		result.Confidence = domain.ConfidenceFull
	}
	return result
}

type storeColumn struct {
	column string
	name   string
}

// findStoreColumns scans the header row in column order for non-empty string
// cells, excluding "%", the sheet tag and denylisted labels.
func (e *StatementExtractor) findStoreColumns(columns []string, header domain.RawRow) []storeColumn {
	var found []storeColumn
	for _, col := range columns {
		if col == sheetColumn {
			continue
		}
		raw, ok := header.Cells[col].(string)
		if !ok {
			continue
		}
		name := strings.TrimSpace(raw)
		if name == "" || name == "%" {
			continue
		}
		if e.denylist[domain.FoldUpper(name)] {
			continue
		}
		found = append(found, storeColumn{column: col, name: name})
	}
	return found
}

// conceptOf returns the normalized label of a concept row: the first
// string-valued cell, in column order, that is not a bookkeeping column.
func (e *StatementExtractor) conceptOf(columns []string, row domain.RawRow) string {
	for _, col := range columns {
		if col == sheetColumn {
			continue
		}
		raw, ok := row.Cells[col].(string)
		if !ok {
			continue
		}
		if label := domain.FoldUpper(raw); label != "" {
			return label
		}
	}
	return ""
}

func (e *StatementExtractor) matchRule(concept string) (conceptRule, bool) {
	for _, rule := range e.rules {
		if rule.matches(concept) {
			return rule, true
		}
	}
	return conceptRule{}, false
}

func apply(store *domain.StoreExtraction, rule conceptRule, value float64) {
	target := map[conceptField]*float64{
		fieldTotalSales:        &store.TotalSales,
		fieldCostOfSales:       &store.CostOfSales,
		fieldOperatingExpenses: &store.OperatingExpenses,
		fieldLaborCost:         &store.LaborCost,
		fieldRent:              &store.Rent,
		fieldUtilities:         &store.Utilities,
		fieldNetProfit:         &store.NetProfit,
	}[rule.Field]
	if target == nil {
		return
	}
	if rule.Accumulate {
		*target += value
		return
	}
	*target = value
}

// storeID normalizes a store display name into a stable identifier:
// lowercased, accent-folded, spaces to underscores.
func storeID(name string) string {
	folded := domain.FoldUpper(name)
	folded = strings.ReplaceAll(folded, " ", "_")
	return strings.ToLower(folded)
}

func numericCell(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

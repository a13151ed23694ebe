package domain

import "time"

type DocumentStatus string

const (
	StatusPendingConfirmation DocumentStatus = "pending_confirmation"
	StatusConfirmed           DocumentStatus = "confirmed"
	StatusFailed              DocumentStatus = "failed"
)

type FileKind string

const (
	FileKindSpreadsheet FileKind = "spreadsheet"
	FileKindPDF         FileKind = "pdf"
)

// Document is one uploaded file. Rows live separately in the raw row store;
// the document carries only shape metadata and the lifecycle status.
type Document struct {
	ID        string         `json:"id"`
	Filename  string         `json:"filename"`
	Kind      FileKind       `json:"kind"`
	StoreID   string         `json:"store_id,omitempty"`
	StoreName string         `json:"store_name,omitempty"`
	Period    string         `json:"period,omitempty"`
	RowCount  int            `json:"row_count"`
	Columns   []string       `json:"columns"`
	Status    DocumentStatus `json:"status"`
	Error     string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// RawRow is one normalized record from an ingested sheet. Cell values are
// float64, string, or nil; the ingestor sanitizes NaN/Inf to nil before rows
// leave its boundary. Column iteration order comes from Document.Columns,
// not from the map.
type RawRow struct {
	Sheet string         `json:"sheet"`
	Cells map[string]any `json:"cells"`
}

// Sheet is one non-empty worksheet after normalization: the trimmed column
// list in source order plus its surviving rows.
type Sheet struct {
	Name    string
	Columns []string
	Rows    []RawRow
}

// FieldMapping is the classifier's verdict for one raw column.
type FieldMapping struct {
	MappedTo    string `json:"mapped_to"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// FieldAnalysis is the full classifier response for an uploaded sheet set.
// When the classifier is unreachable the ingestor substitutes an identity
// analysis; it never blocks an upload.
type FieldAnalysis struct {
	DataType            string                  `json:"data_type"`
	DetectedFields      map[string]FieldMapping `json:"detected_fields"`
	Summary             string                  `json:"summary,omitempty"`
	RecommendedCategory string                  `json:"recommended_category,omitempty"`
}

// IdentityFieldAnalysis is the classifier fallback: every column maps to
// itself as free text.
func IdentityFieldAnalysis(columns []string) FieldAnalysis {
	fields := make(map[string]FieldMapping, len(columns))
	for _, col := range columns {
		fields[col] = FieldMapping{MappedTo: col, Type: "text"}
	}
	return FieldAnalysis{
		DataType:       "unknown",
		DetectedFields: fields,
	}
}

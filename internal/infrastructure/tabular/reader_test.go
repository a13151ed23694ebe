package tabular

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestReadCSV(t *testing.T) {
	csv := []byte("Concepto,Ventas,Notas\n" +
		"VENTAS,\"$150,000.50\",ok\n" +
		",,\n" +
		"MERMA,(2500),\n" +
		"IVA,16%,\n")

	sheets, err := NewReader().Read(csv, ".csv")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(sheets) != 1 {
		t.Fatalf("sheets = %d, want 1", len(sheets))
	}
	sheet := sheets[0]
	if sheet.Name != "Datos" {
		t.Fatalf("sheet name = %q, want Datos", sheet.Name)
	}
	if len(sheet.Rows) != 3 {
		t.Fatalf("rows = %d, want fully empty row dropped", len(sheet.Rows))
	}

	first := sheet.Rows[0].Cells
	if first["Concepto"] != "VENTAS" {
		t.Fatalf("concepto = %v", first["Concepto"])
	}
	if first["Ventas"] != 150000.5 {
		t.Fatalf("ventas = %v, want currency parsed to 150000.5", first["Ventas"])
	}
	if first["Notas"] != "ok" {
		t.Fatalf("notas = %v", first["Notas"])
	}
	if sheet.Rows[1].Cells["Ventas"] != -2500.0 {
		t.Fatalf("merma = %v, want parenthesized negative", sheet.Rows[1].Cells["Ventas"])
	}
	if sheet.Rows[2].Cells["Ventas"] != 16.0 {
		t.Fatalf("iva = %v, want percent stripped", sheet.Rows[2].Cells["Ventas"])
	}
	if sheet.Rows[1].Cells["Notas"] != nil {
		t.Fatalf("empty cell = %v, want nil", sheet.Rows[1].Cells["Notas"])
	}
}

func TestReadCSVHeaderDisambiguation(t *testing.T) {
	csv := []byte(",Ventas,Ventas\nVENTAS,100,200\n")

	sheets, err := NewReader().Read(csv, ".csv")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	cols := sheets[0].Columns
	want := []string{"Unnamed: 0", "Ventas", "Ventas.1"}
	if len(cols) != len(want) {
		t.Fatalf("columns = %v, want %v", cols, want)
	}
	for i := range want {
		if cols[i] != want[i] {
			t.Fatalf("columns = %v, want %v", cols, want)
		}
	}
	row := sheets[0].Rows[0].Cells
	if row["Ventas"] != 100.0 || row["Ventas.1"] != 200.0 {
		t.Fatalf("cells = %v, want duplicate columns kept apart", row)
	}
}

func TestReadCSVHeaderSuffixCollision(t *testing.T) {
	// A repeated name whose first suffix is itself taken must keep walking.
	csv := []byte("A,A.1,A\n1,2,3\n")

	sheets, err := NewReader().Read(csv, ".csv")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	cols := sheets[0].Columns
	want := []string{"A", "A.1", "A.2"}
	for i := range want {
		if cols[i] != want[i] {
			t.Fatalf("columns = %v, want %v", cols, want)
		}
	}
	row := sheets[0].Rows[0].Cells
	if row["A"] != 1.0 || row["A.1"] != 2.0 || row["A.2"] != 3.0 {
		t.Fatalf("cells = %v, want all three columns preserved", row)
	}
}

func TestReadXLSX(t *testing.T) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", "Resultados"); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}
	cells := map[string]any{
		"A1": "Concepto", "B1": "Tienda Centro",
		"A2": "VENTAS", "B2": 150000,
		"A3": "RENTA", "B3": 18000,
	}
	for ref, v := range cells {
		if err := f.SetCellValue("Resultados", ref, v); err != nil {
			t.Fatalf("set cell %s: %v", ref, err)
		}
	}
	// A second sheet with a header and no data must be skipped.
	if _, err := f.NewSheet("Vacia"); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	if err := f.SetCellValue("Vacia", "A1", "Solo encabezado"); err != nil {
		t.Fatalf("set cell: %v", err)
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write xlsx: %v", err)
	}

	sheets, err := NewReader().Read(buf.Bytes(), ".xlsx")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(sheets) != 1 {
		t.Fatalf("sheets = %d, want empty sheet skipped", len(sheets))
	}
	if sheets[0].Name != "Resultados" {
		t.Fatalf("sheet = %q", sheets[0].Name)
	}
	if len(sheets[0].Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(sheets[0].Rows))
	}
	if sheets[0].Rows[0].Cells["Tienda Centro"] != 150000.0 {
		t.Fatalf("ventas = %v, want numeric 150000", sheets[0].Rows[0].Cells["Tienda Centro"])
	}
	if sheets[0].Rows[0].Sheet != "Resultados" {
		t.Fatalf("row sheet tag = %q", sheets[0].Rows[0].Sheet)
	}
}

func TestReadRejectsUnknownExtension(t *testing.T) {
	if _, err := NewReader().Read([]byte("x"), ".ods"); err == nil {
		t.Fatalf("expected error for unsupported extension")
	}
}

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"150000", 150000, true},
		{"$1,234.56", 1234.56, true},
		{"(2,500)", -2500, true},
		{"16%", 16, true},
		{"-42.5", -42.5, true},
		{"N/A", 0, false},
		{"$", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := parseNumber(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("parseNumber(%q) = %v/%v, want %v/%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

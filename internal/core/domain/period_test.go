package domain

import (
	"testing"
	"time"
)

func TestDerivePeriod(t *testing.T) {
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		filename string
		want     string
	}{
		{"REPORTE_P11_2025.xlsx", "2025-P11"},
		{"Estado de Resultados P5 2025.xlsx", "2025-P05"},
		{"estado-resultados-p13-2024.xls", "2024-P13"},
		{"P7 semanal.xlsx", "2026-P07"},
		{"ventas ABRIL 2025.pdf", "2025-04"},
		{"nómina diciembre 2024.csv", "2024-12"},
		{"resumen anual 2024.csv", "2024"},
		{"P99 2025.xlsx", "2025"},
		{"datos.xlsx", "2026-03"},
	}
	for _, tc := range cases {
		if got := DerivePeriod(tc.filename, now); got != tc.want {
			t.Fatalf("DerivePeriod(%q) = %q, want %q", tc.filename, got, tc.want)
		}
	}
}

func TestDerivePeriodIgnoresPDFExtension(t *testing.T) {
	// The "P" in ".pdf" must never read as a period code.
	now := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	if got := DerivePeriod("ventas 2025.pdf", now); got != "2025" {
		t.Fatalf("DerivePeriod() = %q, want bare year", got)
	}
}

func TestPreviousPeriod(t *testing.T) {
	cases := []struct {
		period string
		want   string
	}{
		{"2025-P07", "2025-P06"},
		{"2025-P01", "2024-P13"},
		{"2025-03", "2025-02"},
		{"2025-01", "2024-12"},
		{"2025", ""},
		{"garbage", ""},
		{"2025-P14", ""},
	}
	for _, tc := range cases {
		if got := PreviousPeriod(tc.period); got != tc.want {
			t.Fatalf("PreviousPeriod(%q) = %q, want %q", tc.period, got, tc.want)
		}
	}
}

func TestFoldUpper(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  Nómina Administración ", "NOMINA ADMINISTRACION"},
		{"Año", "ANO"},
		{"ELECTRICIDAD", "ELECTRICIDAD"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := FoldUpper(tc.in); got != tc.want {
			t.Fatalf("FoldUpper(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMarginGuardsDenominator(t *testing.T) {
	if got := Margin(25, 100); got != 25 {
		t.Fatalf("Margin(25, 100) = %v, want 25", got)
	}
	if got := Margin(25, 0); got != 0 {
		t.Fatalf("Margin(25, 0) = %v, want 0", got)
	}
	if got := Margin(25, -10); got != 0 {
		t.Fatalf("Margin(25, -10) = %v, want 0", got)
	}
}

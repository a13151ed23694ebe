package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Periods are string labels ordered by plain string comparison, so every
// generated form is zero-padded: "2025-P07" (4-week sales period) or
// "2025-07" (calendar month). 13 sales periods make up a year.
const periodsPerYear = 13

var (
	periodCodeRe = regexp.MustCompile(`(?:^|[^A-Z])P[\s\-_]?(\d{1,2})(?:\D|$)`)
	yearRe       = regexp.MustCompile(`\b(20\d{2})\b`)

	spanishMonths = map[string]int{
		"ENERO": 1, "FEBRERO": 2, "MARZO": 3, "ABRIL": 4,
		"MAYO": 5, "JUNIO": 6, "JULIO": 7, "AGOSTO": 8,
		"SEPTIEMBRE": 9, "OCTUBRE": 10, "NOVIEMBRE": 11, "DICIEMBRE": 12,
	}
)

// DerivePeriod extracts a period label from an uploaded filename. Recognized
// patterns, in priority order: a P<n> period code with a year, a Spanish
// month name with a year, a bare year. Anything else falls back to the
// current calendar month.
func DerivePeriod(filename string, now time.Time) string {
	name := FoldUpper(filename)

	year := 0
	if m := yearRe.FindStringSubmatch(name); m != nil {
		year, _ = strconv.Atoi(m[1])
	}

	if m := periodCodeRe.FindStringSubmatch(name); m != nil {
		n, _ := strconv.Atoi(m[1])
		if n >= 1 && n <= periodsPerYear {
			if year == 0 {
				year = now.Year()
			}
			return fmt.Sprintf("%d-P%02d", year, n)
		}
	}

	for month, n := range spanishMonths {
		if strings.Contains(name, month) {
			if year == 0 {
				year = now.Year()
			}
			return fmt.Sprintf("%d-%02d", year, n)
		}
	}

	if year != 0 {
		return strconv.Itoa(year)
	}
	return now.Format("2006-01")
}

// PreviousPeriod returns the label immediately preceding the given one, or
// "" when the label has no recognized predecessor (bare years included:
// comparing a year label against a year-minus-one label is meaningless for
// month-over-month deltas).
func PreviousPeriod(period string) string {
	if year, n, ok := splitPeriodCode(period); ok {
		if n > 1 {
			return fmt.Sprintf("%d-P%02d", year, n-1)
		}
		return fmt.Sprintf("%d-P%02d", year-1, periodsPerYear)
	}
	if year, month, ok := splitCalendarMonth(period); ok {
		if month > 1 {
			return fmt.Sprintf("%d-%02d", year, month-1)
		}
		return fmt.Sprintf("%d-12", year-1)
	}
	return ""
}

func splitPeriodCode(period string) (year, n int, ok bool) {
	parts := strings.SplitN(period, "-P", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	n, err = strconv.Atoi(parts[1])
	if err != nil || n < 1 || n > periodsPerYear {
		return 0, 0, false
	}
	return year, n, true
}

func splitCalendarMonth(period string) (year, month int, ok bool) {
	parts := strings.SplitN(period, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	month, err = strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, false
	}
	return year, month, true
}

var accentFolder = strings.NewReplacer(
	"Á", "A", "É", "E", "Í", "I", "Ó", "O", "Ú", "U", "Ü", "U",
	"á", "A", "é", "E", "í", "I", "ó", "O", "ú", "U", "ü", "U",
	"Ñ", "N", "ñ", "N",
)

// FoldUpper uppercases and strips Spanish accents, the normalization used
// everywhere concept labels, filenames and store names are compared.
func FoldUpper(s string) string {
	return strings.ToUpper(accentFolder.Replace(strings.TrimSpace(s)))
}

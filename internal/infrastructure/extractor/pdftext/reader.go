// Package pdftext extracts line-oriented text from PDF statements. PDFs are
// outside the structured-extraction core: each non-blank line becomes one
// raw record for preview, chat context and LLM analysis.
package pdftext

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

type Reader struct{}

func NewReader() *Reader {
	return &Reader{}
}

// ReadLines returns the document text one visual row at a time, blank rows
// dropped. Encrypted or malformed PDFs fail the whole read.
func (r *Reader) ReadLines(data []byte) ([]string, error) {
	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	var lines []string
	for pageNum := 1; pageNum <= doc.NumPage(); pageNum++ {
		page := doc.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("read pdf page %d: %w", pageNum, err)
		}
		for _, row := range rows {
			var parts []string
			for _, text := range row.Content {
				if t := strings.TrimSpace(text.S); t != "" {
					parts = append(parts, t)
				}
			}
			if len(parts) > 0 {
				lines = append(lines, strings.Join(parts, " "))
			}
		}
	}
	return lines, nil
}

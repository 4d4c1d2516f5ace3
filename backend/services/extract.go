package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

// TextExtractor pulls plain text out of uploaded documents. It is constructed once at
// startup; a missing backend is a configuration error there, never a per-request one.
type TextExtractor struct{}

func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

// ExtractCSV reads header-mapped rows. The first record names the columns; every
// following record becomes one map keyed by those names.
func (e *TextExtractor) ExtractCSV(r io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.ToLower(header[i]))
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed row, not a malformed document. Skip it and keep going.
			continue
		}
		row := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(record) {
				row[name] = record[i]
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// ExtractPDF concatenates per-page text in page order. Page boundaries are kept as
// "--- Page N ---" markers so downstream chunking can realign on them.
func (e *TextExtractor) ExtractPDF(data []byte) (string, error) {
	if !isPDF(data) {
		return "", fmt.Errorf("file is not a valid PDF document")
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf reader: %w", err)
	}

	var parts []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page does not void the document.
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("--- Page %d ---\n%s\n", i, text))
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("no extractable text in PDF")
	}

	return strings.Join(parts, "\n"), nil
}

func isPDF(b []byte) bool {
	// PDF starts with "%PDF-"
	return len(b) >= 5 && string(b[:5]) == "%PDF-"
}

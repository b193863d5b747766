// Package table holds the tabular shapes shared by conversion and synthesis:
// the CSV table returned by the model and the classified columns of a sheet.
package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrEmpty is returned when the model answer holds no rows.
var ErrEmpty = errors.New("no tabular data in response")

// Table is a header plus records, all rows padded to the header width.
type Table struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// Width is the number of columns.
func (t *Table) Width() int { return len(t.Header) }

// Parse reads a model answer into a table. CSV is expected; Markdown pipe
// tables and space-aligned columns are accepted when the model ignored the
// requested format. Markup in cells is stripped.
func Parse(text string) (*Table, error) {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if text == "" {
		return nil, ErrEmpty
	}

	var records [][]string
	switch {
	case looksLikeMarkdownTable(text):
		records = parseMarkdownTable(text)
	case !strings.Contains(text, ",") && looksSpaceAligned(text):
		records = parseSpaceAligned(text)
	default:
		var err error
		records, err = parseCSV(text)
		if err != nil {
			return nil, err
		}
	}
	return fromRecords(records)
}

func parseCSV(text string) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return records, nil
}

func fromRecords(records [][]string) (*Table, error) {
	var rows [][]string
	for _, rec := range records {
		clean := make([]string, len(rec))
		blank := true
		for i, v := range rec {
			clean[i] = SanitizeCell(v)
			if clean[i] != "" {
				blank = false
			}
		}
		if !blank {
			rows = append(rows, clean)
		}
	}
	if len(rows) == 0 {
		return nil, ErrEmpty
	}

	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	header := pad(rows[0], width)
	for i, h := range header {
		if h == "" {
			header[i] = fmt.Sprintf("Unnamed: %d", i)
		}
	}
	t := &Table{Header: header}
	for _, r := range rows[1:] {
		t.Rows = append(t.Rows, pad(r, width))
	}
	return t, nil
}

func pad(row []string, width int) []string {
	out := make([]string, width)
	copy(out, row)
	return out
}

// WriteCSV writes header and rows without an index column.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// CSV returns the table serialised as CSV.
func (t *Table) CSV() ([]byte, error) {
	var buf bytes.Buffer
	if err := t.WriteCSV(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

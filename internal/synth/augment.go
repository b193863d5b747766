package synth

import (
	"fmt"

	"github.com/thywilljoshua/datasmith/internal/table"
)

// Sheets is the workbook surface augmentation needs.
type Sheets interface {
	Frame(sheet string) (*table.Frame, error)
	Append(sheet string, rows [][]any) error
}

// Summary reports what was appended to one sheet.
type Summary struct {
	Sheet string `json:"sheet"`
	Added int    `json:"added"`
	Total int    `json:"total"`
}

// Augment appends synthetic rows to every sheet in the plan. All sheets are
// generated before any is written, so a bad rule leaves the workbook as it was.
func Augment(wb Sheets, plan Plan, g *Generator) ([]Summary, error) {
	type pending struct {
		sheet string
		rows  [][]any
		total int
	}
	var work []pending
	seen := make(map[string]bool)
	for _, sp := range plan.Sheets {
		if seen[sp.Sheet] {
			return nil, &RuleError{Sheet: sp.Sheet, Err: fmt.Errorf("sheet listed twice")}
		}
		seen[sp.Sheet] = true

		frame, err := wb.Frame(sp.Sheet)
		if err != nil {
			return nil, err
		}
		rows, err := g.Rows(frame, sp)
		if err != nil {
			return nil, err
		}
		work = append(work, pending{sheet: sp.Sheet, rows: rows, total: frame.Rows + len(rows)})
	}

	out := make([]Summary, 0, len(work))
	for _, w := range work {
		if err := wb.Append(w.sheet, w.rows); err != nil {
			return nil, fmt.Errorf("append to %q: %w", w.sheet, err)
		}
		out = append(out, Summary{Sheet: w.sheet, Added: len(w.rows), Total: w.total})
	}
	return out, nil
}

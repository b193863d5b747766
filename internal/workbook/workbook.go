// Package workbook reads XLSX sheets into classified frames and appends
// generated rows back, leaving every other sheet untouched.
package workbook

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/thywilljoshua/datasmith/internal/table"
	"github.com/xuri/excelize/v2"
)

// ErrSheetNotFound indicates a sheet name absent from the workbook.
var ErrSheetNotFound = errors.New("sheet not found")

// Workbook wraps an open XLSX file.
type Workbook struct {
	Name string

	file       *excelize.File
	dateStyles map[int]bool
	timeStyles map[bool]int
}

// Open reads the workbook at path.
func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	return wrap(filepath.Base(path), f), nil
}

// Load reads a workbook from r, typically an upload.
func Load(name string, r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("read workbook %s: %w", name, err)
	}
	return wrap(name, f), nil
}

func wrap(name string, f *excelize.File) *Workbook {
	return &Workbook{
		Name:       name,
		file:       f,
		dateStyles: make(map[int]bool),
		timeStyles: make(map[bool]int),
	}
}

// Close releases the underlying file.
func (w *Workbook) Close() error { return w.file.Close() }

// Sheets lists sheet names in workbook order.
func (w *Workbook) Sheets() []string { return w.file.GetSheetList() }

func (w *Workbook) hasSheet(name string) bool {
	idx, err := w.file.GetSheetIndex(name)
	return err == nil && idx >= 0
}

// Frame reads one sheet. The first row is the header; blank header cells
// are named "Unnamed: N" after their zero-based position.
func (w *Workbook) Frame(sheet string) (*table.Frame, error) {
	if !w.hasSheet(sheet) {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
	}
	rows, err := w.file.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	frame := &table.Frame{Sheet: sheet}
	if len(rows) == 0 {
		return frame, nil
	}

	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	frame.Rows = len(rows) - 1

	for c := 0; c < width; c++ {
		name := ""
		if c < len(rows[0]) {
			name = strings.TrimSpace(rows[0][c])
		}
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(c)
		}

		cells := make([]table.Cell, 0, len(rows)-1)
		for r := 1; r < len(rows); r++ {
			v := ""
			if c < len(rows[r]) {
				v = rows[r][c]
			}
			cell, err := w.cell(sheet, c+1, r+1, v)
			if err != nil {
				return nil, err
			}
			cells = append(cells, cell)
		}
		frame.Columns = append(frame.Columns, table.Classify(c, name, cells))
	}
	return frame, nil
}

// Frames reads every sheet in order.
func (w *Workbook) Frames() ([]*table.Frame, error) {
	var out []*table.Frame
	for _, s := range w.Sheets() {
		f, err := w.Frame(s)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func (w *Workbook) cell(sheet string, col, row int, raw string) (table.Cell, error) {
	cell := table.Cell{Text: raw}
	if strings.TrimSpace(raw) == "" {
		return cell, nil
	}
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return cell, err
	}
	// Raw values report booleans as 1 and 0.
	typ, err := w.file.GetCellType(sheet, name)
	if err != nil {
		return cell, fmt.Errorf("type of %s!%s: %w", sheet, name, err)
	}
	if typ == excelize.CellTypeBool {
		cell.IsBool = true
		cell.Text = "FALSE"
		if raw == "1" || strings.EqualFold(raw, "TRUE") {
			cell.Text = "TRUE"
		}
		return cell, nil
	}

	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return cell, nil
	}
	styleID, err := w.file.GetCellStyle(sheet, name)
	if err != nil {
		return cell, fmt.Errorf("style of %s!%s: %w", sheet, name, err)
	}
	if !w.isDateStyle(styleID) {
		return cell, nil
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return cell, nil
	}
	cell.Time = t
	cell.IsTime = true
	return cell, nil
}

func (w *Workbook) isDateStyle(styleID int) bool {
	if styleID == 0 {
		return false
	}
	if v, ok := w.dateStyles[styleID]; ok {
		return v
	}
	isDate := false
	if style, err := w.file.GetStyle(styleID); err == nil && style != nil {
		isDate = isDateNumFmt(style.NumFmt)
		if style.CustomNumFmt != nil {
			isDate = isDateFormatCode(*style.CustomNumFmt)
		}
	}
	w.dateStyles[styleID] = isDate
	return isDate
}

// isDateNumFmt reports built-in number formats that render dates or times.
func isDateNumFmt(id int) bool {
	switch {
	case id >= 14 && id <= 22:
		return true
	case id >= 27 && id <= 36:
		return true
	case id >= 45 && id <= 47:
		return true
	case id >= 50 && id <= 58:
		return true
	}
	return false
}

// isDateFormatCode looks for date tokens outside quoted literals and
// bracketed sections such as colours.
func isDateFormatCode(code string) bool {
	var b strings.Builder
	inQuote, inBracket := false, false
	for _, r := range code {
		switch {
		case r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == '[':
			inBracket = true
		case r == ']':
			inBracket = false
		case inBracket:
		default:
			b.WriteRune(r)
		}
	}
	lower := strings.ToLower(b.String())
	return strings.ContainsAny(lower, "ydh") || strings.Contains(lower, "mmm")
}

// Append writes rows after the last used row of sheet. Nil values leave the
// cell empty; time values get a date or date-time number format.
func (w *Workbook) Append(sheet string, rows [][]any) error {
	if !w.hasSheet(sheet) {
		return fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
	}
	existing, err := w.file.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	start := len(existing) + 1

	for i, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			name, err := excelize.CoordinatesToCellName(c+1, start+i)
			if err != nil {
				return err
			}
			if err := w.file.SetCellValue(sheet, name, v); err != nil {
				return fmt.Errorf("set %s!%s: %w", sheet, name, err)
			}
			if t, ok := v.(time.Time); ok {
				style, err := w.timeStyle(table.IsDateOnly(t))
				if err != nil {
					return err
				}
				if err := w.file.SetCellStyle(sheet, name, name, style); err != nil {
					return fmt.Errorf("style %s!%s: %w", sheet, name, err)
				}
			}
		}
	}
	return nil
}

func (w *Workbook) timeStyle(dateOnly bool) (int, error) {
	if id, ok := w.timeStyles[dateOnly]; ok {
		return id, nil
	}
	numFmt := 22 // m/d/yy h:mm
	if dateOnly {
		numFmt = 14 // m/d/yyyy
	}
	id, err := w.file.NewStyle(&excelize.Style{NumFmt: numFmt})
	if err != nil {
		return 0, fmt.Errorf("create date style: %w", err)
	}
	w.timeStyles[dateOnly] = id
	return id, nil
}

// Write serialises the workbook as XLSX.
func (w *Workbook) Write(out io.Writer) error {
	if _, err := w.file.WriteTo(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// SaveAs writes the workbook to path.
func (w *Workbook) SaveAs(path string) error {
	if err := w.file.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

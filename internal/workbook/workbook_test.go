package workbook

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/thywilljoshua/datasmith/internal/table"
	"github.com/xuri/excelize/v2"
)

// fixture writes a two-sheet workbook: "People" with numeric, text, date and
// empty columns, and "Notes" which tests leave alone.
func fixture(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	people := "People"
	if err := f.SetSheetName("Sheet1", people); err != nil {
		t.Fatal(err)
	}
	header := []any{"age", "city", "joined", "blank"}
	if err := f.SetSheetRow(people, "A1", &header); err != nil {
		t.Fatal(err)
	}
	data := [][]any{
		{30, "Paris", time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC)},
		{41, "Oslo", time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)},
		{25, "Paris", time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
	}
	for i, row := range data {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		r := row
		if err := f.SetSheetRow(people, cell, &r); err != nil {
			t.Fatal(err)
		}
	}
	// The blank column needs a header only; give the date column a date format.
	style, err := f.NewStyle(&excelize.Style{NumFmt: 14})
	if err != nil {
		t.Fatal(err)
	}
	if err := f.SetCellStyle(people, "C2", "C4", style); err != nil {
		t.Fatal(err)
	}

	if _, err := f.NewSheet("Notes"); err != nil {
		t.Fatal(err)
	}
	f.SetCellValue("Notes", "A1", "keep")
	f.SetCellValue("Notes", "B2", 3.25)

	path := filepath.Join(t.TempDir(), "people.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save fixture: %v", err)
	}
	return path
}

func TestFrameClassifiesColumns(t *testing.T) {
	wb, err := Open(fixture(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer wb.Close()

	if diff := cmp.Diff([]string{"People", "Notes"}, wb.Sheets()); diff != "" {
		t.Fatalf("Sheets (-want +got):\n%s", diff)
	}

	frame, err := wb.Frame("People")
	if err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if frame.Rows != 3 {
		t.Errorf("Rows = %d, want 3", frame.Rows)
	}

	kinds := map[string]table.Kind{}
	for _, c := range frame.Columns {
		kinds[c.Name] = c.Kind
	}
	want := map[string]table.Kind{
		"age":    table.KindNumeric,
		"city":   table.KindCategorical,
		"joined": table.KindDatetime,
		"blank":  table.KindEmpty,
	}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Errorf("kinds (-want +got):\n%s", diff)
	}

	age, _ := frame.Column("age")
	if !age.Integral {
		t.Error("age should be integral")
	}
	joined, _ := frame.Column("joined")
	if got := joined.Times[2]; !got.Equal(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("joined[2] = %v", got)
	}
}

func TestFrameUnknownSheet(t *testing.T) {
	wb, err := Open(fixture(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer wb.Close()

	if _, err := wb.Frame("Missing"); !errors.Is(err, ErrSheetNotFound) {
		t.Fatalf("Frame(Missing) err = %v, want ErrSheetNotFound", err)
	}
	if err := wb.Append("Missing", nil); !errors.Is(err, ErrSheetNotFound) {
		t.Fatalf("Append(Missing) err = %v, want ErrSheetNotFound", err)
	}
}

func TestAppendPreservesOtherSheets(t *testing.T) {
	path := fixture(t)

	orig, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	wantNotes, _ := orig.GetRows("Notes")
	wantPeople, _ := orig.GetRows("People")
	orig.Close()

	wb, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	rows := [][]any{
		{int64(33), "Rome", time.Date(2023, 3, 3, 0, 0, 0, 0, time.UTC), nil},
		{int64(28), "Oslo", time.Date(2023, 4, 4, 0, 0, 0, 0, time.UTC), nil},
	}
	if err := wb.Append("People", rows); err != nil {
		t.Fatalf("Append: %v", err)
	}
	var buf bytes.Buffer
	if err := wb.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	wb.Close()

	back, err := Load("out.xlsx", bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer back.Close()

	gotNotes, _ := back.file.GetRows("Notes")
	if diff := cmp.Diff(wantNotes, gotNotes); diff != "" {
		t.Errorf("Notes changed (-want +got):\n%s", diff)
	}

	gotPeople, _ := back.file.GetRows("People")
	if len(gotPeople) != len(wantPeople)+2 {
		t.Fatalf("People has %d rows, want %d", len(gotPeople), len(wantPeople)+2)
	}
	if diff := cmp.Diff(wantPeople, gotPeople[:len(wantPeople)]); diff != "" {
		t.Errorf("original People rows changed (-want +got):\n%s", diff)
	}

	frame, err := back.Frame("People")
	if err != nil {
		t.Fatalf("Frame: %v", err)
	}
	joined, _ := frame.Column("joined")
	if joined.Kind != table.KindDatetime || len(joined.Times) != 5 {
		t.Errorf("joined after append: kind %s with %d values", joined.Kind, len(joined.Times))
	}
	city, _ := frame.Column("city")
	if city.Texts[3] != "Rome" {
		t.Errorf("city[3] = %q, want Rome", city.Texts[3])
	}
}

func TestIsDateFormatCode(t *testing.T) {
	tests := map[string]bool{
		"yyyy-mm-dd":    true,
		"d-mmm":         true,
		"h:mm AM/PM":    true,
		"0.00":          false,
		"#,##0":         false,
		"[Red]0.00":     false,
		`0.0 "days"`:    false,
		"General":       false,
		"[$-409]mmm yy": true,
	}
	for code, want := range tests {
		if got := isDateFormatCode(code); got != want {
			t.Errorf("isDateFormatCode(%q) = %v, want %v", code, got, want)
		}
	}
}

func TestBooleanColumnStaysBoolean(t *testing.T) {
	f := excelize.NewFile()
	f.SetCellValue("Sheet1", "A1", "active")
	f.SetCellValue("Sheet1", "A2", true)
	f.SetCellValue("Sheet1", "A3", false)
	f.SetCellValue("Sheet1", "A4", true)
	var src bytes.Buffer
	if _, err := f.WriteTo(&src); err != nil {
		t.Fatal(err)
	}
	f.Close()

	wb, err := Load("flags.xlsx", &src)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer wb.Close()

	frame, err := wb.Frame("Sheet1")
	if err != nil {
		t.Fatalf("Frame: %v", err)
	}
	active, _ := frame.Column("active")
	if active.Kind != table.KindCategorical || !active.Boolean {
		t.Fatalf("active: kind %s, boolean %v; want categorical boolean", active.Kind, active.Boolean)
	}
	if diff := cmp.Diff([]string{"TRUE", "FALSE", "TRUE"}, active.Texts); diff != "" {
		t.Errorf("Texts (-want +got):\n%s", diff)
	}

	if err := wb.Append("Sheet1", [][]any{{false}}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	typ, err := wb.file.GetCellType("Sheet1", "A5")
	if err != nil {
		t.Fatal(err)
	}
	if typ != excelize.CellTypeBool {
		t.Errorf("appended cell type = %v, want bool", typ)
	}
}

package synth

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/thywilljoshua/datasmith/internal/table"
)

type fakeSheets struct {
	frames   map[string]*table.Frame
	appended map[string][][]any
}

func (f *fakeSheets) Frame(sheet string) (*table.Frame, error) {
	fr, ok := f.frames[sheet]
	if !ok {
		return nil, errors.New("no such sheet")
	}
	return fr, nil
}

func (f *fakeSheets) Append(sheet string, rows [][]any) error {
	if f.appended == nil {
		f.appended = map[string][][]any{}
	}
	f.appended[sheet] = append(f.appended[sheet], rows...)
	return nil
}

func newFake() *fakeSheets {
	return &fakeSheets{frames: map[string]*table.Frame{
		"People": {Sheet: "People", Rows: 2, Columns: []table.Column{
			{Index: 0, Name: "age", Kind: table.KindNumeric, Numbers: []float64{20, 40}, Integral: true},
			{Index: 1, Name: "city", Kind: table.KindCategorical, Texts: []string{"Paris", "Oslo"}},
			{Index: 2, Name: "blank", Kind: table.KindEmpty},
		}},
		"Blank": {Sheet: "Blank"},
		"Notes": {Sheet: "Notes", Rows: 1, Columns: []table.Column{
			{Index: 0, Name: "text", Kind: table.KindCategorical, Texts: []string{"hi"}},
		}},
	}}
}

func TestAugmentAppendsOnlyPlannedSheets(t *testing.T) {
	wb := newFake()
	plan := Plan{Sheets: []SheetPlan{{
		Sheet:   "People",
		Rows:    4,
		Columns: map[string]Rule{"city": {Mode: ModeFixed, Value: "Rome"}},
	}}}

	sum, err := Augment(wb, plan, NewGenerator(11))
	if err != nil {
		t.Fatalf("Augment: %v", err)
	}
	if diff := cmp.Diff([]Summary{{Sheet: "People", Added: 4, Total: 6}}, sum); diff != "" {
		t.Errorf("summary (-want +got):\n%s", diff)
	}
	if _, ok := wb.appended["Notes"]; ok {
		t.Error("Notes was modified")
	}
	rows := wb.appended["People"]
	if len(rows) != 4 {
		t.Fatalf("appended %d rows, want 4", len(rows))
	}
	for _, r := range rows {
		if len(r) != 3 {
			t.Fatalf("row width %d, want 3", len(r))
		}
		if r[1] != "Rome" {
			t.Errorf("city = %v, want Rome", r[1])
		}
		if r[2] != nil {
			t.Errorf("blank = %v, want nil", r[2])
		}
	}
}

func TestAugmentIsAllOrNothing(t *testing.T) {
	wb := newFake()
	plan := Plan{Sheets: []SheetPlan{
		{Sheet: "Notes", Rows: 2},
		{Sheet: "People", Rows: 2, Columns: map[string]Rule{"age": {Mode: ModeFixed, Value: "old"}}},
	}}
	if _, err := Augment(wb, plan, NewGenerator(1)); !errors.Is(err, ErrBadLiteral) {
		t.Fatalf("err = %v, want ErrBadLiteral", err)
	}
	if len(wb.appended) != 0 {
		t.Errorf("sheets written despite error: %v", wb.appended)
	}
}

func TestAugmentRejectsDuplicateSheets(t *testing.T) {
	plan := Plan{Sheets: []SheetPlan{{Sheet: "Notes", Rows: 1}, {Sheet: "Notes", Rows: 1}}}
	var rerr *RuleError
	if _, err := Augment(newFake(), plan, NewGenerator(1)); !errors.As(err, &rerr) {
		t.Fatalf("err = %v, want RuleError", err)
	}
}

func TestAugmentRejectsSheetWithoutHeader(t *testing.T) {
	fake := newFake()
	_, err := Augment(fake, Plan{Sheets: []SheetPlan{{Sheet: "People", Rows: 2}, {Sheet: "Blank", Rows: 3}}}, NewGenerator(1))
	var rerr *RuleError
	if !errors.As(err, &rerr) || rerr.Sheet != "Blank" || !errors.Is(err, ErrNoColumns) {
		t.Fatalf("err = %v, want ErrNoColumns for Blank", err)
	}
	if len(fake.appended) != 0 {
		t.Errorf("appended %v despite the error", fake.appended)
	}
}

package synth

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/thywilljoshua/datasmith/internal/table"
)

func f64(v float64) *float64 { return &v }

func numericColumn(vals ...float64) *table.Column {
	integral := true
	for _, v := range vals {
		if v != math.Trunc(v) {
			integral = false
		}
	}
	return &table.Column{Name: "n", Kind: table.KindNumeric, Numbers: vals, Integral: integral}
}

func TestNumericAutoIsFinite(t *testing.T) {
	g := NewGenerator(1)
	col := numericColumn(1.5, 2.25, 9.75, -4.5)
	vals, err := g.Column(col, Rule{}, 500)
	if err != nil {
		t.Fatalf("Column: %v", err)
	}
	for i, v := range vals {
		f, ok := v.(float64)
		if !ok {
			t.Fatalf("value %d is %T, want float64", i, v)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			t.Fatalf("value %d = %v, not finite", i, f)
		}
	}
}

func TestNumericAutoIntegralColumnsStayWhole(t *testing.T) {
	g := NewGenerator(2)
	vals, err := g.Column(numericColumn(10, 20, 30), Rule{Mode: ModeAuto}, 200)
	if err != nil {
		t.Fatalf("Column: %v", err)
	}
	for i, v := range vals {
		if _, ok := v.(int64); !ok {
			t.Fatalf("value %d is %T, want int64", i, v)
		}
	}
}

func TestNumericAutoSingleValueRepeatsIt(t *testing.T) {
	g := NewGenerator(3)
	vals, err := g.Column(numericColumn(7.5), Rule{}, 10)
	if err != nil {
		t.Fatalf("Column: %v", err)
	}
	for _, v := range vals {
		if v != 7.5 {
			t.Fatalf("value = %v, want 7.5", v)
		}
	}
}

func TestNumericRangeStaysInClosedInterval(t *testing.T) {
	g := NewGenerator(4)
	tests := []struct {
		name     string
		col      *table.Column
		min, max float64
	}{
		{"float", numericColumn(0.5, 1.5), -2.5, 3.25},
		{"integral", numericColumn(1, 2, 3), 5, 8},
		{"degenerate", numericColumn(0.5, 1.5), 4, 4},
		{"integral fractional bounds", numericColumn(1, 2), 0.5, 2.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vals, err := g.Column(tt.col, Rule{Mode: ModeRange, Min: f64(tt.min), Max: f64(tt.max)}, 1000)
			if err != nil {
				t.Fatalf("Column: %v", err)
			}
			for _, v := range vals {
				var f float64
				switch x := v.(type) {
				case float64:
					f = x
				case int64:
					f = float64(x)
				default:
					t.Fatalf("unexpected %T", v)
				}
				if f < tt.min || f > tt.max {
					t.Fatalf("value %v outside [%v, %v]", f, tt.min, tt.max)
				}
			}
		})
	}
}

func TestCategoricalAutoDrawsFromObservedSet(t *testing.T) {
	g := NewGenerator(5)
	col := &table.Column{Name: "city", Kind: table.KindCategorical, Texts: []string{"Paris", "Oslo", "Paris", "Rome", "Paris"}}
	vals, err := g.Column(col, Rule{}, 2000)
	if err != nil {
		t.Fatalf("Column: %v", err)
	}
	allowed := map[string]bool{"Paris": true, "Oslo": true, "Rome": true}
	counts := map[string]int{}
	for _, v := range vals {
		s, ok := v.(string)
		if !ok || !allowed[s] {
			t.Fatalf("value %v not in observed set", v)
		}
		counts[s]++
	}
	// Paris carries 60% of the weight; it must dominate a sample this size.
	if counts["Paris"] < counts["Oslo"] || counts["Paris"] < counts["Rome"] {
		t.Errorf("frequency weighting not applied: %v", counts)
	}
}

func TestListModeUsesLiterals(t *testing.T) {
	g := NewGenerator(6)
	col := &table.Column{Name: "tier", Kind: table.KindCategorical, Texts: []string{"a"}}
	vals, err := g.Column(col, Rule{Mode: ModeList, Values: []string{"gold", "silver"}}, 300)
	if err != nil {
		t.Fatalf("Column: %v", err)
	}
	for _, v := range vals {
		if v != "gold" && v != "silver" {
			t.Fatalf("value %v not in list", v)
		}
	}
}

func TestDatetimeAutoStaysInObservedRange(t *testing.T) {
	g := NewGenerator(7)
	lo := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	hi := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)

	for _, dateOnly := range []bool{true, false} {
		col := &table.Column{Name: "d", Kind: table.KindDatetime, Times: []time.Time{hi, lo, lo.AddDate(0, 0, 10)}, DateOnly: dateOnly}
		vals, err := g.Column(col, Rule{}, 500)
		if err != nil {
			t.Fatalf("Column: %v", err)
		}
		for _, v := range vals {
			tm, ok := v.(time.Time)
			if !ok {
				t.Fatalf("value is %T, want time.Time", v)
			}
			if tm.Before(lo) || tm.After(hi) {
				t.Fatalf("value %v outside [%v, %v]", tm, lo, hi)
			}
			if dateOnly && !table.IsDateOnly(tm) {
				t.Fatalf("value %v has a time of day", tm)
			}
		}
	}
}

func TestFixedDateLiteral(t *testing.T) {
	g := NewGenerator(8)
	col := &table.Column{Name: "d", Kind: table.KindDatetime, Times: []time.Time{time.Now()}}
	vals, err := g.Column(col, Rule{Mode: ModeFixed, Value: "2024-12-25"}, 3)
	if err != nil {
		t.Fatalf("Column: %v", err)
	}
	want := time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC)
	for _, v := range vals {
		if !v.(time.Time).Equal(want) {
			t.Fatalf("value %v, want %v", v, want)
		}
	}
}

func TestEmptyColumnYieldsNull(t *testing.T) {
	g := NewGenerator(9)
	vals, err := g.Column(&table.Column{Name: "blank", Kind: table.KindEmpty}, Rule{}, 5)
	if err != nil {
		t.Fatalf("Column: %v", err)
	}
	for _, v := range vals {
		if v != nil {
			t.Fatalf("value %v, want nil", v)
		}
	}
}

func TestRuleValidation(t *testing.T) {
	num := numericColumn(1, 2)
	cat := &table.Column{Name: "c", Kind: table.KindCategorical, Texts: []string{"x"}}
	date := &table.Column{Name: "d", Kind: table.KindDatetime, Times: []time.Time{time.Now()}}

	tests := []struct {
		name string
		col  *table.Column
		rule Rule
		want error
	}{
		{"range inverted", num, Rule{Mode: ModeRange, Min: f64(5), Max: f64(1)}, ErrBadRange},
		{"range missing max", num, Rule{Mode: ModeRange, Min: f64(1)}, ErrBadRange},
		{"range without whole number", num, Rule{Mode: ModeRange, Min: f64(1.2), Max: f64(1.8)}, ErrBadRange},
		{"range on text", cat, Rule{Mode: ModeRange, Min: f64(1), Max: f64(2)}, ErrModeMismatch},
		{"range with NaN min", num, Rule{Mode: ModeRange, Min: f64(math.NaN()), Max: f64(5)}, ErrBadRange},
		{"range with NaN max", num, Rule{Mode: ModeRange, Min: f64(1), Max: f64(math.NaN())}, ErrBadRange},
		{"range with infinite bounds", num, Rule{Mode: ModeRange, Min: f64(math.Inf(-1)), Max: f64(math.Inf(1))}, ErrBadRange},
		{"range wider than float64", numericColumn(0.5), Rule{Mode: ModeRange, Min: f64(-math.MaxFloat64), Max: f64(math.MaxFloat64)}, ErrBadRange},
		{"whole range beyond exact integers", num, Rule{Mode: ModeRange, Min: f64(-5e18), Max: f64(5e18)}, ErrBadRange},
		{"fixed not a number", num, Rule{Mode: ModeFixed, Value: "abc"}, ErrBadLiteral},
		{"fixed not a date", date, Rule{Mode: ModeFixed, Value: "soon"}, ErrBadLiteral},
		{"empty list", cat, Rule{Mode: ModeList}, ErrBadLiteral},
		{"unknown mode", cat, Rule{Mode: "magic"}, ErrUnknownMode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGenerator(1).Column(tt.col, tt.rule, 1)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestWideWholeRangeStaysInBounds(t *testing.T) {
	lo, hi := -float64(1<<53), float64(1<<53)
	vals, err := NewGenerator(3).Column(numericColumn(1, 2), Rule{Mode: ModeRange, Min: &lo, Max: &hi}, 500)
	if err != nil {
		t.Fatalf("Column: %v", err)
	}
	for _, v := range vals {
		n, ok := v.(int64)
		if !ok {
			t.Fatalf("value is %T, want int64", v)
		}
		if float64(n) < lo || float64(n) > hi {
			t.Fatalf("value %d outside [%g, %g]", n, lo, hi)
		}
	}
}

func TestDatetimeAutoCoversCenturies(t *testing.T) {
	lo := time.Date(1900, 1, 1, 12, 30, 0, 0, time.UTC)
	hi := time.Date(2400, 1, 1, 12, 30, 0, 0, time.UTC)
	split := time.Date(2192, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, dateOnly := range []bool{true, false} {
		col := &table.Column{Name: "d", Kind: table.KindDatetime, Times: []time.Time{lo, hi}, DateOnly: dateOnly}
		vals, err := NewGenerator(11).Column(col, Rule{}, 1000)
		if err != nil {
			t.Fatalf("Column: %v", err)
		}
		late := 0
		for _, v := range vals {
			tm := v.(time.Time)
			if tm.Before(lo) || tm.After(hi) {
				t.Fatalf("value %v outside [%v, %v]", tm, lo, hi)
			}
			if tm.After(split) {
				late++
			}
		}
		if late == 0 {
			t.Errorf("dateOnly=%v: no value after %v in a 500-year range", dateOnly, split)
		}
	}
}

func TestBooleanColumnYieldsBools(t *testing.T) {
	col := &table.Column{Name: "active", Kind: table.KindCategorical, Texts: []string{"TRUE", "FALSE", "TRUE"}, Boolean: true}
	g := NewGenerator(5)

	vals, err := g.Column(col, Rule{}, 200)
	if err != nil {
		t.Fatalf("Column: %v", err)
	}
	for _, v := range vals {
		if _, ok := v.(bool); !ok {
			t.Fatalf("value is %T, want bool", v)
		}
	}

	fixed, err := g.Column(col, Rule{Mode: ModeFixed, Value: "false"}, 1)
	if err != nil {
		t.Fatalf("fixed: %v", err)
	}
	if fixed[0] != false {
		t.Errorf("fixed value = %v, want false", fixed[0])
	}
	if _, err := g.Column(col, Rule{Mode: ModeFixed, Value: "maybe"}, 1); !errors.Is(err, ErrBadLiteral) {
		t.Errorf("err = %v, want ErrBadLiteral", err)
	}
}

func TestSeedIsReproducible(t *testing.T) {
	col := numericColumn(1.5, 2.5, 10.25)
	a, _ := NewGenerator(42).Column(col, Rule{}, 20)
	b, _ := NewGenerator(42).Column(col, Rule{}, 20)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("value %d differs between identical seeds: %v vs %v", i, a[i], b[i])
		}
	}
}

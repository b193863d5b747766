package table

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind is the classification that picks a column's generation rule.
type Kind string

const (
	KindEmpty       Kind = "empty"
	KindNumeric     Kind = "numeric"
	KindCategorical Kind = "categorical"
	KindDatetime    Kind = "datetime"
)

// Cell is one raw spreadsheet value. Date-formatted cells carry Time;
// boolean cells hold "TRUE" or "FALSE" with IsBool set.
type Cell struct {
	Text   string
	Time   time.Time
	IsTime bool
	IsBool bool
}

// Column is a classified column with its non-null observations.
type Column struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Kind  Kind   `json:"kind"`

	Numbers []float64   `json:"-"`
	Texts   []string    `json:"-"`
	Times   []time.Time `json:"-"`

	// Integral is set for numeric columns whose values are all whole numbers.
	Integral bool `json:"integral,omitempty"`
	// DateOnly is set for datetime columns without a time-of-day part.
	DateOnly bool `json:"date_only,omitempty"`
	// Boolean is set for categorical columns made only of TRUE/FALSE cells.
	Boolean  bool `json:"boolean,omitempty"`
	Nulls    int  `json:"nulls"`
}

// Count is the number of non-null observations.
func (c *Column) Count() int {
	switch c.Kind {
	case KindNumeric:
		return len(c.Numbers)
	case KindDatetime:
		return len(c.Times)
	case KindCategorical:
		return len(c.Texts)
	}
	return 0
}

// Frame is one sheet: its name, data row count and classified columns.
type Frame struct {
	Sheet   string   `json:"sheet"`
	Rows    int      `json:"rows"`
	Columns []Column `json:"columns"`
}

// Column looks a column up by name.
func (f *Frame) Column(name string) (*Column, bool) {
	for i := range f.Columns {
		if f.Columns[i].Name == name {
			return &f.Columns[i], true
		}
	}
	return nil, false
}

// Classify inspects the cells of one column. Numeric wins when every value
// parses as a finite number and none is date-formatted; datetime wins when
// every value is a date cell or a date string; any other non-empty column is
// categorical.
func Classify(index int, name string, cells []Cell) Column {
	col := Column{Index: index, Name: name, Kind: KindEmpty}

	var present []Cell
	for _, c := range cells {
		if !c.IsTime && strings.TrimSpace(c.Text) == "" {
			col.Nulls++
			continue
		}
		present = append(present, c)
	}
	if len(present) == 0 {
		return col
	}

	if nums, integral, ok := allNumbers(present); ok {
		col.Kind = KindNumeric
		col.Numbers = nums
		col.Integral = integral
		return col
	}
	if times, ok := allTimes(present); ok {
		col.Kind = KindDatetime
		col.Times = times
		col.DateOnly = true
		for _, t := range times {
			if !IsDateOnly(t) {
				col.DateOnly = false
				break
			}
		}
		return col
	}

	col.Kind = KindCategorical
	col.Boolean = true
	for _, c := range present {
		col.Texts = append(col.Texts, cellText(c))
		if !c.IsBool {
			col.Boolean = false
		}
	}
	return col
}

func allNumbers(cells []Cell) ([]float64, bool, bool) {
	nums := make([]float64, 0, len(cells))
	integral := true
	for _, c := range cells {
		if c.IsTime || c.IsBool {
			return nil, false, false
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(c.Text), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, false, false
		}
		if f != math.Trunc(f) {
			integral = false
		}
		nums = append(nums, f)
	}
	return nums, integral, true
}

func allTimes(cells []Cell) ([]time.Time, bool) {
	times := make([]time.Time, 0, len(cells))
	for _, c := range cells {
		if c.IsTime {
			times = append(times, c.Time)
			continue
		}
		t, ok := ParseDate(c.Text)
		if !ok {
			return nil, false
		}
		times = append(times, t)
	}
	return times, true
}

func cellText(c Cell) string {
	if c.IsTime && strings.TrimSpace(c.Text) == "" {
		if IsDateOnly(c.Time) {
			return c.Time.Format("2006-01-02")
		}
		return c.Time.Format("2006-01-02 15:04:05")
	}
	return strings.TrimSpace(c.Text)
}

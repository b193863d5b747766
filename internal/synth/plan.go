// Package synth generates synthetic rows for spreadsheet sheets. Every column
// is sampled independently according to its classification and an optional
// user rule.
package synth

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/thywilljoshua/datasmith/internal/table"
	"gopkg.in/yaml.v3"
)

// Mode selects how a column's synthetic values are produced.
type Mode string

const (
	// ModeAuto follows the column's own empirical distribution.
	ModeAuto Mode = "auto"
	// ModeFixed repeats a single literal value.
	ModeFixed Mode = "fixed"
	// ModeRange draws uniformly from a numeric [min, max] interval.
	ModeRange Mode = "range"
	// ModeList picks uniformly from a literal list of values.
	ModeList Mode = "list"
)

// MaxSheetRows is the row limit of an XLSX worksheet.
const MaxSheetRows = 1048576

// maxWhole is the largest magnitude at which a float64 cell still holds
// every integer exactly.
const maxWhole = 1 << 53

// Rule configures one sampling column.
type Rule struct {
	Mode   Mode     `yaml:"mode" json:"mode"`
	Value  string   `yaml:"value,omitempty" json:"value,omitempty"`
	Min    *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max    *float64 `yaml:"max,omitempty" json:"max,omitempty"`
	Values []string `yaml:"values,omitempty" json:"values,omitempty"`
}

// SheetPlan asks for Rows new rows on Sheet. Columns without a rule use ModeAuto.
type SheetPlan struct {
	Sheet   string          `yaml:"sheet" json:"sheet"`
	Rows    int             `yaml:"rows" json:"rows"`
	Columns map[string]Rule `yaml:"columns,omitempty" json:"columns,omitempty"`
}

// Plan is the full augmentation request for a workbook.
type Plan struct {
	Seed   uint64      `yaml:"seed,omitempty" json:"seed,omitempty"`
	Sheets []SheetPlan `yaml:"sheets" json:"sheets"`
}

// RuleError reports an invalid plan entry.
type RuleError struct {
	Sheet  string
	Column string
	Err    error
}

func (e *RuleError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("sheet %q: %v", e.Sheet, e.Err)
	}
	return fmt.Sprintf("sheet %q column %q: %v", e.Sheet, e.Column, e.Err)
}

func (e *RuleError) Unwrap() error { return e.Err }

var (
	ErrUnknownColumn = errors.New("unknown column")
	ErrUnknownMode   = errors.New("unknown mode")
	ErrBadRange      = errors.New("invalid range")
	ErrBadLiteral    = errors.New("invalid literal")
	ErrModeMismatch  = errors.New("mode does not apply to column kind")
	ErrRowCount      = errors.New("invalid row count")
	ErrNoColumns     = errors.New("sheet has no header row")
)

// LoadPlan decodes a YAML plan. Unknown keys are rejected.
func LoadPlan(r io.Reader) (*Plan, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var p Plan
	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return &p, nil
		}
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	for i := range p.Sheets {
		for name, rule := range p.Sheets[i].Columns {
			rule.Mode = Mode(strings.ToLower(strings.TrimSpace(string(rule.Mode))))
			if rule.Mode == "" {
				rule.Mode = ModeAuto
			}
			p.Sheets[i].Columns[name] = rule
		}
	}
	return &p, nil
}

// ModesFor lists the modes offered for a column kind, ModeAuto first.
func ModesFor(kind table.Kind) []Mode {
	switch kind {
	case table.KindNumeric, table.KindEmpty:
		return []Mode{ModeAuto, ModeFixed, ModeRange, ModeList}
	default:
		return []Mode{ModeAuto, ModeFixed, ModeList}
	}
}

func modeAllowed(kind table.Kind, m Mode) bool {
	for _, x := range ModesFor(kind) {
		if x == m {
			return true
		}
	}
	return false
}

// Validate checks a sheet plan against the sheet it targets.
func (sp SheetPlan) Validate(frame *table.Frame) error {
	if sp.Rows < 0 || frame.Rows+1+sp.Rows > MaxSheetRows {
		return &RuleError{Sheet: sp.Sheet, Err: fmt.Errorf("%w: %d", ErrRowCount, sp.Rows)}
	}
	if len(frame.Columns) == 0 {
		return &RuleError{Sheet: sp.Sheet, Err: ErrNoColumns}
	}
	for name, rule := range sp.Columns {
		col, ok := frame.Column(name)
		if !ok {
			return &RuleError{Sheet: sp.Sheet, Column: name, Err: ErrUnknownColumn}
		}
		if err := rule.check(col); err != nil {
			return &RuleError{Sheet: sp.Sheet, Column: name, Err: err}
		}
	}
	return nil
}

func (r Rule) check(col *table.Column) error {
	switch r.Mode {
	case "", ModeAuto, ModeFixed, ModeRange, ModeList:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMode, r.Mode)
	}
	if r.Mode == "" {
		return nil
	}
	if !modeAllowed(col.Kind, r.Mode) {
		return fmt.Errorf("%w: %s on %s", ErrModeMismatch, r.Mode, col.Kind)
	}
	switch r.Mode {
	case ModeFixed:
		if _, err := parseLiteral(col, r.Value); err != nil {
			return err
		}
	case ModeRange:
		if r.Min == nil || r.Max == nil {
			return fmt.Errorf("%w: min and max are required", ErrBadRange)
		}
		if !finite(*r.Min) || !finite(*r.Max) || !finite(*r.Max-*r.Min) {
			return fmt.Errorf("%w: bounds must be finite numbers", ErrBadRange)
		}
		if *r.Min > *r.Max {
			return fmt.Errorf("%w: min %g > max %g", ErrBadRange, *r.Min, *r.Max)
		}
		if col.Integral {
			if *r.Min < -maxWhole || *r.Max > maxWhole {
				return fmt.Errorf("%w: whole-number bounds must lie within ±%d", ErrBadRange, int64(maxWhole))
			}
			if _, _, ok := wholeBounds(*r.Min, *r.Max); !ok {
				return fmt.Errorf("%w: no whole number in [%g, %g]", ErrBadRange, *r.Min, *r.Max)
			}
		}
	case ModeList:
		if len(r.Values) == 0 {
			return fmt.Errorf("%w: empty list", ErrBadLiteral)
		}
		for _, v := range r.Values {
			if _, err := parseLiteral(col, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// SplitList turns "a, b,,c" into ["a" "b" "c"].
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

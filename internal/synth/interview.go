package synth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/thywilljoshua/datasmith/internal/prompt"
	"github.com/thywilljoshua/datasmith/internal/table"
)

// Interview builds a plan by asking which sheets to grow, how many rows to
// add and how each sampling column should be filled.
func Interview(ctx context.Context, d prompt.Driver, frames []*table.Frame) (*Plan, error) {
	if len(frames) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	names := make([]string, len(frames))
	for i, f := range frames {
		names[i] = f.Sheet
	}
	picked, err := d.MultiSelect(ctx, prompt.SelectConfig{
		Message:  "Sheets to add synthetic rows to",
		Options:  names,
		Defaults: []int{0},
	})
	if err != nil {
		return nil, err
	}

	plan := &Plan{}
	for _, idx := range picked {
		frame := frames[idx]
		sp, err := interviewSheet(ctx, d, frame)
		if err != nil {
			return nil, err
		}
		if err := sp.Validate(frame); err != nil {
			return nil, err
		}
		plan.Sheets = append(plan.Sheets, sp)
	}
	return plan, nil
}

func interviewSheet(ctx context.Context, d prompt.Driver, frame *table.Frame) (SheetPlan, error) {
	sp := SheetPlan{Sheet: frame.Sheet, Columns: map[string]Rule{}}

	rows, err := d.Input(ctx, prompt.InputConfig{
		Message:   fmt.Sprintf("Rows to add to %q", frame.Sheet),
		Default:   "10",
		Validator: validateCount,
	})
	if err != nil {
		return sp, err
	}
	if err := validateCount(rows); err != nil {
		return sp, &RuleError{Sheet: frame.Sheet, Err: fmt.Errorf("%w: %v", ErrRowCount, err)}
	}
	sp.Rows, _ = strconv.Atoi(strings.TrimSpace(rows))

	labels := make([]string, len(frame.Columns))
	for i, c := range frame.Columns {
		labels[i] = fmt.Sprintf("%s (%s)", c.Name, c.Kind)
	}
	sampling, err := d.MultiSelect(ctx, prompt.SelectConfig{
		Message: fmt.Sprintf("Sampling columns in %q", frame.Sheet),
		Options: labels,
		Help:    "Unselected columns follow their existing values.",
	})
	if err != nil {
		return sp, err
	}

	for _, ci := range sampling {
		col := &frame.Columns[ci]
		rule, err := interviewColumn(ctx, d, col)
		if err != nil {
			return sp, err
		}
		sp.Columns[col.Name] = rule
	}
	return sp, nil
}

func interviewColumn(ctx context.Context, d prompt.Driver, col *table.Column) (Rule, error) {
	modes := ModesFor(col.Kind)
	opts := make([]string, len(modes))
	for i, m := range modes {
		opts[i] = string(m)
	}
	mi, err := d.Select(ctx, prompt.SelectConfig{
		Message: fmt.Sprintf("How should %q be filled?", col.Name),
		Options: opts,
	})
	if err != nil {
		return Rule{}, err
	}
	if mi < 0 || mi >= len(modes) {
		return Rule{}, fmt.Errorf("%w: option %d", ErrUnknownMode, mi)
	}
	rule := Rule{Mode: modes[mi]}

	switch rule.Mode {
	case ModeFixed:
		rule.Value, err = d.Input(ctx, prompt.InputConfig{
			Message:   fmt.Sprintf("Value for %q", col.Name),
			Validator: literalValidator(col),
		})
	case ModeList:
		var raw string
		raw, err = d.Input(ctx, prompt.InputConfig{
			Message: fmt.Sprintf("Values for %q (comma separated)", col.Name),
			Validator: func(s string) error {
				vals := SplitList(s)
				if len(vals) == 0 {
					return errors.New("enter at least one value")
				}
				check := literalValidator(col)
				for _, v := range vals {
					if err := check(v); err != nil {
						return err
					}
				}
				return nil
			},
		})
		rule.Values = SplitList(raw)
	case ModeRange:
		var lo, hi float64
		if lo, err = askFloat(ctx, d, fmt.Sprintf("Minimum for %q", col.Name)); err != nil {
			return rule, err
		}
		if hi, err = askFloat(ctx, d, fmt.Sprintf("Maximum for %q", col.Name)); err != nil {
			return rule, err
		}
		rule.Min, rule.Max = &lo, &hi
	}
	return rule, err
}

func askFloat(ctx context.Context, d prompt.Driver, msg string) (float64, error) {
	s, err := d.Input(ctx, prompt.InputConfig{
		Message: msg,
		Validator: func(s string) error {
			_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			return err
		},
	})
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

func literalValidator(col *table.Column) func(string) error {
	return func(s string) error {
		_, err := parseLiteral(col, s)
		return err
	}
}

func validateCount(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return errors.New("enter a whole number greater than zero")
	}
	return nil
}

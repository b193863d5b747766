package synth

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/thywilljoshua/datasmith/internal/table"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Generator draws synthetic values. It is not safe for concurrent use.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator seeds a generator; seed 0 picks a random seed.
func NewGenerator(seed uint64) *Generator {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

type sampler func() any

// Rows produces sp.Rows rows for frame, one value per column in column order.
func (g *Generator) Rows(frame *table.Frame, sp SheetPlan) ([][]any, error) {
	if err := sp.Validate(frame); err != nil {
		return nil, err
	}

	samplers := make([]sampler, len(frame.Columns))
	for i := range frame.Columns {
		col := &frame.Columns[i]
		rule, ok := sp.Columns[col.Name]
		if !ok || rule.Mode == "" {
			rule = Rule{Mode: ModeAuto}
		}
		s, err := g.sampler(col, rule)
		if err != nil {
			return nil, &RuleError{Sheet: sp.Sheet, Column: col.Name, Err: err}
		}
		samplers[i] = s
	}

	rows := make([][]any, sp.Rows)
	for r := range rows {
		row := make([]any, len(samplers))
		for c, s := range samplers {
			row[c] = s()
		}
		rows[r] = row
	}
	return rows, nil
}

// Column produces n values for a single column.
func (g *Generator) Column(col *table.Column, rule Rule, n int) ([]any, error) {
	if rule.Mode == "" {
		rule.Mode = ModeAuto
	}
	if err := rule.check(col); err != nil {
		return nil, err
	}
	s, err := g.sampler(col, rule)
	if err != nil {
		return nil, err
	}
	out := make([]any, n)
	for i := range out {
		out[i] = s()
	}
	return out, nil
}

func (g *Generator) sampler(col *table.Column, rule Rule) (sampler, error) {
	switch rule.Mode {
	case ModeFixed:
		v, err := parseLiteral(col, rule.Value)
		if err != nil {
			return nil, err
		}
		return func() any { return v }, nil
	case ModeList:
		values := make([]any, len(rule.Values))
		for i, raw := range rule.Values {
			v, err := parseLiteral(col, raw)
			if err != nil {
				return nil, err
			}
			values[i] = v
		}
		return func() any { return values[g.rng.IntN(len(values))] }, nil
	case ModeRange:
		return g.rangeSampler(col, *rule.Min, *rule.Max), nil
	}

	switch col.Kind {
	case table.KindNumeric:
		return g.normalSampler(col), nil
	case table.KindCategorical:
		return g.categoricalSampler(col), nil
	case table.KindDatetime:
		return g.dateSampler(col), nil
	}
	return func() any { return nil }, nil
}

// normalSampler draws from N(mean, std) of the observed values. A single
// observation or zero spread yields the mean.
func (g *Generator) normalSampler(col *table.Column) sampler {
	mean, std := stat.MeanStdDev(col.Numbers, nil)
	if len(col.Numbers) < 2 || math.IsNaN(std) || math.IsInf(std, 0) {
		std = 0
	}
	dist := distuv.Normal{Mu: mean, Sigma: std, Src: g.rng}
	return func() any {
		v := mean
		if std > 0 {
			v = dist.Rand()
		}
		return numberValue(col, v)
	}
}

func (g *Generator) rangeSampler(col *table.Column, lo, hi float64) sampler {
	if col.Integral {
		a, b, _ := wholeBounds(lo, hi)
		return func() any { return a + g.rng.Int64N(b-a+1) }
	}
	if lo == hi {
		return func() any { return lo }
	}
	dist := distuv.Uniform{Min: lo, Max: hi, Src: g.rng}
	return func() any { return dist.Rand() }
}

// categoricalSampler resamples the unique values weighted by frequency.
func (g *Generator) categoricalSampler(col *table.Column) sampler {
	var uniques []string
	counts := make(map[string]float64)
	for _, v := range col.Texts {
		if _, seen := counts[v]; !seen {
			uniques = append(uniques, v)
		}
		counts[v]++
	}
	weights := make([]float64, len(uniques))
	for i, u := range uniques {
		weights[i] = counts[u]
	}
	dist := distuv.NewCategorical(weights, g.rng)
	if col.Boolean {
		return func() any { return uniques[int(dist.Rand())] == "TRUE" }
	}
	return func() any { return uniques[int(dist.Rand())] }
}

// dateSampler draws uniformly from [earliest, latest]; calendar-date columns
// are sampled by whole days, others by whole seconds.
func (g *Generator) dateSampler(col *table.Column) sampler {
	lo, hi := col.Times[0], col.Times[0]
	for _, t := range col.Times[1:] {
		if t.Before(lo) {
			lo = t
		}
		if t.After(hi) {
			hi = t
		}
	}
	// Spans are taken from Unix seconds; time.Duration stops at about 292 years.
	secs := hi.Unix() - lo.Unix()
	if col.DateOnly {
		days := secs / 86400
		return func() any { return lo.AddDate(0, 0, int(g.rng.Int64N(days+1))) }
	}
	return func() any {
		t := time.Unix(lo.Unix()+g.rng.Int64N(secs+1), int64(lo.Nanosecond())).In(lo.Location())
		if t.After(hi) {
			return hi
		}
		return t
	}
}

func numberValue(col *table.Column, v float64) any {
	if col.Integral {
		return int64(math.Round(v))
	}
	return v
}

// wholeBounds narrows [lo, hi] to the whole numbers inside it.
func wholeBounds(lo, hi float64) (int64, int64, bool) {
	a, b := math.Ceil(lo), math.Floor(hi)
	if a > b {
		return 0, 0, false
	}
	return int64(a), int64(b), true
}

// parseLiteral converts user text to a value matching the column kind.
// Empty columns accept numbers, dates or text.
func parseLiteral(col *table.Column, raw string) (any, error) {
	s := strings.TrimSpace(raw)
	switch col.Kind {
	case table.KindNumeric:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: %q is not a number", ErrBadLiteral, raw)
		}
		if col.Integral && f == math.Trunc(f) {
			return int64(f), nil
		}
		return f, nil
	case table.KindDatetime:
		t, ok := table.ParseDate(s)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not a date", ErrBadLiteral, raw)
		}
		return t, nil
	case table.KindCategorical:
		if s == "" {
			return nil, fmt.Errorf("%w: empty value", ErrBadLiteral)
		}
		if col.Boolean {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return nil, fmt.Errorf("%w: %q is not TRUE or FALSE", ErrBadLiteral, raw)
			}
			return b, nil
		}
		return s, nil
	}
	if s == "" {
		return nil, fmt.Errorf("%w: empty value", ErrBadLiteral)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f, nil
	}
	if t, ok := table.ParseDate(s); ok {
		return t, nil
	}
	return s, nil
}

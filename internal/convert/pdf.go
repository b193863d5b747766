package convert

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"

	rpdf "rsc.io/pdf"
)

// ExtractPDFText returns the text of all pages, in page order. Lines are
// rebuilt from glyph positions: glyphs sharing a baseline form a line, read
// left to right.
func ExtractPDFText(data []byte) (text string, err error) {
	// rsc.io/pdf panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("read pdf: %v", r)
		}
	}()

	doc, err := rpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= doc.NumPage(); i++ {
		p := doc.Page(i)
		if p.V.IsNull() {
			continue
		}
		b.WriteString(pageText(p.Content().Text))
	}
	return b.String(), nil
}

type textLine struct {
	y     float64
	items []rpdf.Text
}

func pageText(items []rpdf.Text) string {
	var lines []*textLine
	for _, t := range items {
		var line *textLine
		for _, l := range lines {
			if math.Abs(l.y-t.Y) <= lineTolerance(t) {
				line = l
				break
			}
		}
		if line == nil {
			line = &textLine{y: t.Y}
			lines = append(lines, line)
		}
		line.items = append(line.items, t)
	}

	// PDF y grows upwards.
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].y > lines[j].y })

	var b strings.Builder
	for _, l := range lines {
		sort.SliceStable(l.items, func(i, j int) bool { return l.items[i].X < l.items[j].X })
		var prev *rpdf.Text
		for i := range l.items {
			t := &l.items[i]
			if prev != nil && t.X-(prev.X+prev.W) > t.FontSize*0.25 && !strings.HasSuffix(prev.S, " ") && !strings.HasPrefix(t.S, " ") {
				b.WriteByte(' ')
			}
			b.WriteString(t.S)
			prev = t
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func lineTolerance(t rpdf.Text) float64 {
	if t.FontSize > 0 {
		return t.FontSize * 0.3
	}
	return 2
}

package table

import (
	"regexp"
	"strings"
)

var (
	twoPlusSpaces = regexp.MustCompile(`\s{2,}|\t`)
	mdSeparator   = regexp.MustCompile(`^\|?\s*:?-{3,}:?\s*(\|\s*:?-{3,}:?\s*)*\|?$`)
)

func looksLikeMarkdownTable(text string) bool {
	lines := strings.Split(text, "\n")
	if len(lines) < 2 {
		return false
	}
	return strings.HasPrefix(strings.TrimSpace(lines[0]), "|") && mdSeparator.MatchString(strings.TrimSpace(lines[1]))
}

// parseMarkdownTable reads "| a | b |" rows, skipping the --- separator.
func parseMarkdownTable(text string) [][]string {
	var out [][]string
	for _, ln := range strings.Split(text, "\n") {
		ln = strings.TrimSpace(ln)
		if ln == "" || mdSeparator.MatchString(ln) {
			continue
		}
		if !strings.HasPrefix(ln, "|") {
			continue
		}
		ln = strings.TrimPrefix(ln, "|")
		ln = strings.TrimSuffix(ln, "|")
		out = append(out, trimAll(strings.Split(ln, "|")))
	}
	return out
}

// looksSpaceAligned reports whether at least two lines split into the same
// number (>= 2) of columns separated by runs of spaces or tabs.
func looksSpaceAligned(text string) bool {
	cols := 0
	matching := 0
	for _, ln := range strings.Split(text, "\n") {
		if strings.TrimSpace(ln) == "" {
			continue
		}
		parts := splitBy2Spaces(ln)
		if len(parts) < 2 {
			return false
		}
		if cols == 0 {
			cols = len(parts)
		}
		if len(parts) == cols {
			matching++
		}
	}
	return matching >= 2
}

func parseSpaceAligned(text string) [][]string {
	var out [][]string
	for _, ln := range strings.Split(text, "\n") {
		if strings.TrimSpace(ln) == "" {
			continue
		}
		out = append(out, trimAll(splitBy2Spaces(ln)))
	}
	return out
}

func splitBy2Spaces(s string) []string {
	return twoPlusSpaces.Split(strings.TrimSpace(s), -1)
}

func trimAll(a []string) []string {
	out := make([]string, len(a))
	for i, v := range a {
		out[i] = strings.TrimSpace(v)
	}
	return out
}

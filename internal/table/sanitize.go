package table

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	cellPolicyOnce sync.Once
	cellPolicy     *bluemonday.Policy
)

// SanitizeCell strips any markup the model placed in a cell and trims it.
// Line breaks written as <br> become spaces.
func SanitizeCell(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || !strings.ContainsAny(trimmed, "<&") {
		return trimmed
	}
	trimmed = brTag.Replace(trimmed)
	cleaned := cellSanitizer().Sanitize(trimmed)
	// The policy escapes text; cells are plain values, not HTML.
	return strings.TrimSpace(html.UnescapeString(cleaned))
}

var brTag = strings.NewReplacer("<br>", " ", "<br/>", " ", "<br />", " ")

func cellSanitizer() *bluemonday.Policy {
	cellPolicyOnce.Do(func() {
		cellPolicy = bluemonday.StrictPolicy()
	})
	return cellPolicy
}

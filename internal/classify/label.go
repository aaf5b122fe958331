package classify

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/spboyer/modeladvisor/internal/taxonomy"
)

// ParseLabel maps a raw model completion onto a taxonomy category ID. Models
// rarely answer with a clean identifier, so parsing runs in stages:
//
//  1. If the output is JSON with a "category" field, that field's value is
//     used as the candidate text.
//  2. Exact category ID match after trimming and mapping spaces to
//     underscores.
//  3. Case-insensitive match against category display labels.
//  4. Substring scan of the whole output, checking categories in taxonomy
//     priority order so the first declared category wins on overlap.
//
// Returns "" when nothing resolves, which the ensemble counts as a failed
// vote.
func ParseLabel(raw string, tax *taxonomy.Taxonomy) string {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return ""
	}

	if gjson.Valid(candidate) {
		if field := gjson.Get(candidate, "category"); field.Exists() {
			candidate = strings.TrimSpace(field.String())
		}
	}

	normalized := strings.ReplaceAll(strings.ToLower(candidate), " ", "_")
	normalized = strings.Trim(normalized, `"'.`)
	if _, ok := tax.Category(normalized); ok {
		return normalized
	}

	for _, cat := range tax.Categories {
		if strings.EqualFold(candidate, cat.Label) {
			return cat.ID
		}
	}

	haystack := strings.ToLower(raw)
	for _, cat := range tax.Categories {
		if strings.Contains(haystack, cat.ID) {
			return cat.ID
		}
		if cat.Label != "" && strings.Contains(haystack, strings.ToLower(cat.Label)) {
			return cat.ID
		}
	}

	return ""
}

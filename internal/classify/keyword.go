// Package classify implements the hybrid task classification engine: a
// keyword matcher, an embedding nearest-neighbor classifier, a generative
// voting ensemble, and the escalation pipeline that ties them together.
package classify

import (
	"math"
	"strings"
	"unicode"

	"github.com/spboyer/modeladvisor/internal/taxonomy"
)

// KeywordMatch is one scored candidate from the keyword classifier.
type KeywordMatch struct {
	Category    string
	Subcategory string
	Score       float64
}

// KeywordClassifier scores free text against taxonomy keywords. It is pure
// and deterministic: no external calls, identical output for identical input.
type KeywordClassifier struct {
	tax *taxonomy.Taxonomy
}

// NewKeywordClassifier creates a keyword classifier over the taxonomy.
func NewKeywordClassifier(tax *taxonomy.Taxonomy) *KeywordClassifier {
	return &KeywordClassifier{tax: tax}
}

// Classify scores every subcategory against the text and returns candidates
// sorted by descending score. The result is never empty: when nothing
// matches (including empty input), the taxonomy's default target is returned
// with score 0.
func (kc *KeywordClassifier) Classify(text string) []KeywordMatch {
	normalized := normalizeText(text)

	var matches []KeywordMatch
	if normalized != "" {
		padded := " " + normalized + " "
		for _, cat := range kc.tax.Categories {
			for _, sub := range cat.Subcategories {
				score := scoreSubcategory(padded, sub.Keywords)
				if score > 0 {
					matches = append(matches, KeywordMatch{
						Category:    cat.ID,
						Subcategory: sub.ID,
						Score:       score,
					})
				}
			}
		}
	}

	if len(matches) == 0 {
		cat, sub := kc.tax.DefaultTarget()
		return []KeywordMatch{{Category: cat, Subcategory: sub, Score: 0}}
	}

	kc.sortMatches(matches)
	return matches
}

// scoreSubcategory sums the token-length weight of every matched keyword and
// normalizes by the square root of the keyword-set size, so large keyword
// sets don't dominate on breadth alone.
func scoreSubcategory(paddedText string, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}

	var weight float64
	for _, kw := range keywords {
		normKw := normalizeText(kw)
		if normKw == "" {
			continue
		}
		if strings.Contains(paddedText, " "+normKw+" ") {
			weight += float64(len(strings.Fields(normKw)))
		}
	}
	if weight == 0 {
		return 0
	}

	return squashScore(weight / math.Sqrt(float64(len(keywords))))
}

// scoreKnee is where raw scores stop passing through unchanged.
const scoreKnee = 0.9

// squashScore maps a raw normalized weight onto [0, 1). Below the knee the
// score is unchanged; above it the surplus decays exponentially toward 1, so
// a longer matched phrase always outscores a shorter one instead of both
// clamping flat at 1.
func squashScore(s float64) float64 {
	if s <= scoreKnee {
		return s
	}
	return scoreKnee + (1-scoreKnee)*(1-math.Exp(-(s-scoreKnee)/(1-scoreKnee)))
}

// sortMatches orders by descending score, breaking ties by the taxonomy's
// category priority and then subcategory declaration order. Insertion sort
// keeps the tie-break logic explicit; candidate lists are tiny.
func (kc *KeywordClassifier) sortMatches(matches []KeywordMatch) {
	rank := func(m KeywordMatch) (int, int) {
		catRank := kc.tax.PriorityRank(m.Category)
		subRank := 0
		if cat, ok := kc.tax.Category(m.Category); ok {
			for i, sub := range cat.Subcategories {
				if sub.ID == m.Subcategory {
					subRank = i
					break
				}
			}
		}
		return catRank, subRank
	}

	less := func(a, b KeywordMatch) bool {
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		aCat, aSub := rank(a)
		bCat, bSub := rank(b)
		if aCat != bCat {
			return aCat < bCat
		}
		return aSub < bSub
	}

	for i := 1; i < len(matches); i++ {
		for j := i; j > 0 && less(matches[j], matches[j-1]); j-- {
			matches[j], matches[j-1] = matches[j-1], matches[j]
		}
	}
}

// normalizeText lowercases and collapses the text to space-separated
// alphanumeric tokens.
func normalizeText(text string) string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	return strings.Join(fields, " ")
}

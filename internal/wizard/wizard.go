// Package wizard implements the interactive clarification flow shown when a
// classification ends in a tie.
package wizard

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/spboyer/modeladvisor/internal/models"
	"github.com/spboyer/modeladvisor/internal/taxonomy"
)

// skipValue marks the "skip" select option; category IDs can never collide
// with it because of the taxonomy ID pattern.
const skipValue = "<skip>"

// otherValue marks the free-text select option.
const otherValue = "<other>"

// Choice is the outcome of one clarification round.
type Choice struct {
	// Category is the directly chosen category ID, empty when the user
	// typed free text or skipped.
	Category string

	// Answer is free text to fold back into the classification.
	Answer string

	// Skipped means the user accepted the current best guess.
	Skipped bool
}

// Question renders the clarification prompt for a tied classification.
func Question(result *models.ClassificationResult, tax *taxonomy.Taxonomy) string {
	var names []string
	for _, alt := range result.Alternatives {
		names = append(names, categoryLabel(tax, alt.Category))
	}
	return fmt.Sprintf("The task could fit more than one area (%s). Which is closest?", strings.Join(names, ", "))
}

// RunClarificationWizard runs an interactive huh form offering the tied
// categories, a free-text answer and a skip option.
func RunClarificationWizard(in io.Reader, out io.Writer, result *models.ClassificationResult, tax *taxonomy.Taxonomy) (*Choice, error) {
	if result == nil || !result.NeedsClarification {
		return nil, fmt.Errorf("classification does not need clarification")
	}

	options := make([]huh.Option[string], 0, len(result.Alternatives)+2)
	for _, alt := range result.Alternatives {
		options = append(options, huh.NewOption(categoryLabel(tax, alt.Category), alt.Category))
	}
	options = append(options,
		huh.NewOption("Let me describe it differently", otherValue),
		huh.NewOption("Skip, use the best guess", skipValue),
	)

	var selected string
	var answer string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(Question(result, tax)).
				Options(options...).
				Value(&selected),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Describe the task in a few more words").
				Placeholder("e.g. it works on photos, not text").
				Value(&answer).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("a description is required")
					}
					return nil
				}),
		).WithHideFunc(func() bool {
			return selected != otherValue
		}),
	).
		WithInput(in).
		WithOutput(out)

	// Use accessible mode for non-TTY input (e.g., tests, piped input).
	if f, ok := in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		form = form.WithAccessible(true)
	}

	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("clarification wizard failed: %w", err)
	}

	switch selected {
	case skipValue:
		return &Choice{Skipped: true}, nil
	case otherValue:
		return &Choice{Answer: strings.TrimSpace(answer)}, nil
	default:
		return &Choice{Category: selected}, nil
	}
}

// ApplyChoice resolves a tied classification with the user's choice. A direct
// category pick needs no re-classification; the winner is substituted with
// its best-guess subcategory.
func ApplyChoice(result *models.ClassificationResult, choice *Choice, tax *taxonomy.Taxonomy) *models.ClassificationResult {
	resolved := *result
	resolved.NeedsClarification = false

	if choice.Category != "" {
		resolved.Category = choice.Category
		resolved.Subcategory = tax.FirstSubcategory(choice.Category)
		resolved.Level = models.ConfidenceHigh
		resolved.Confidence = 1
	} else {
		resolved.Level = models.ConfidenceLow
	}
	return &resolved
}

func categoryLabel(tax *taxonomy.Taxonomy, id string) string {
	if cat, ok := tax.Category(id); ok && cat.Label != "" {
		return cat.Label
	}
	return id
}

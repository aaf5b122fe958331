package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spboyer/modeladvisor/internal/models"
	"github.com/spboyer/modeladvisor/internal/taxonomy"
	"github.com/spboyer/modeladvisor/internal/wizard"
)

func newClassifyCommand() *cobra.Command {
	var mode string
	var format string
	var interactive bool

	cmd := &cobra.Command{
		Use:   "classify <task description>",
		Short: "Classify a task description into the task taxonomy",
		Long: `Classify a free-text task description into a category and subcategory.

The default fast mode resolves most descriptions with the keyword and
embedding stages. Ensemble mode adds a generative voting round for
low-confidence cases, which costs several model calls.

When the result is a tie, --interactive asks a clarifying question;
otherwise the tie is reported with the candidate categories.`,
		Example: `  modeladvisor classify "detect objects in photos"
  modeladvisor classify --mode ensemble "help with my data"
  modeladvisor classify --format json "translate documentation"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			m, err := a.mode(mode)
			if err != nil {
				return err
			}
			if !slices.Contains([]string{"text", "json"}, format) {
				return fmt.Errorf("invalid format %q (expected text or json)", format)
			}

			text := strings.Join(args, " ")
			pipeline := a.newPipeline(slog.Default())

			result, err := pipeline.Classify(cmd.Context(), text, m)
			if err != nil {
				return err
			}

			if result.NeedsClarification && interactive {
				choice, err := wizard.RunClarificationWizard(cmd.InOrStdin(), cmd.OutOrStdout(), result, a.tax)
				if err != nil {
					return err
				}
				if choice.Answer != "" {
					if result, err = pipeline.ResolveClarification(cmd.Context(), result, text, choice.Answer, m); err != nil {
						return err
					}
				} else {
					result = wizard.ApplyChoice(result, choice, a.tax)
				}
			}

			if format == "json" {
				return writeJSONOutput(cmd.OutOrStdout(), result)
			}
			printClassification(cmd.OutOrStdout(), result, a.tax)
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "Classification mode: fast | ensemble")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text | json")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Ask a clarifying question on ambiguous results")

	return cmd
}

func printClassification(w io.Writer, result *models.ClassificationResult, tax *taxonomy.Taxonomy) {
	if result.NeedsClarification {
		fmt.Fprintln(w, wizard.Question(result, tax))
		for _, alt := range result.Alternatives {
			fmt.Fprintf(w, "  - %s (%.0f%% of votes)\n", alt.Category, alt.Score*100)
		}
		fmt.Fprintln(w, "Re-run with --interactive or add detail to the description.")
		return
	}

	fmt.Fprintf(w, "Category:    %s / %s\n", result.Category, result.Subcategory)
	fmt.Fprintf(w, "Confidence:  %.2f (%s, via %s)\n", result.Confidence, result.Level, result.Method)
	if len(result.Alternatives) > 0 {
		fmt.Fprintln(w, "Also considered:")
		for _, alt := range result.Alternatives {
			fmt.Fprintf(w, "  - %s (%.2f)\n", alt.Category, alt.Score)
		}
	}
}

func writeJSONOutput(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package main

import (
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/spf13/cobra"

	"github.com/spboyer/modeladvisor/internal/calibrate"
	"github.com/spboyer/modeladvisor/internal/statistics"
)

func newCalibrateCommand() *cobra.Command {
	var format string
	var seed int64

	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Measure classifier accuracy against the taxonomy examples",
		Long: `Evaluate the keyword and embedding classifiers over the taxonomy's own
reference examples and report per-category accuracy with a bootstrap 95%
confidence interval.

The embedding evaluation is leave-one-out and needs a configured embedding
backend; without one only the keyword classifier is evaluated.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}

			runner := calibrate.NewRunner(a.tax, a.openAIBackend(), slog.Default())
			if seed >= 0 {
				runner.Seed = seed
			}
			runner.Neighbors = a.cfg.Classification.Neighbors

			report, err := runner.Run(cmd.Context())
			if err != nil {
				return err
			}

			if format == "json" {
				return writeJSONOutput(cmd.OutOrStdout(), report)
			}
			printCalibration(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text | json")
	cmd.Flags().Int64Var(&seed, "seed", 1, "Bootstrap seed for reproducible intervals")

	return cmd
}

func printCalibration(w io.Writer, report *calibrate.Report) {
	printMethod(w, report.Keyword)
	if report.Embedding == nil {
		fmt.Fprintln(w, "\nembedding: skipped (no embedding backend configured)")
		return
	}

	fmt.Fprintln(w)
	printMethod(w, report.Embedding)

	if d := report.Delta; d != nil {
		verdict := "not significant"
		if statistics.IsSignificant(*d) {
			verdict = "significant"
		}
		fmt.Fprintf(w, "\nembedding minus keyword: %+.1f points, 95%% CI [%+.1f, %+.1f] (%s)\n",
			d.Mean*100, d.Lower*100, d.Upper*100, verdict)
	}
}

func printMethod(w io.Writer, m *calibrate.MethodReport) {
	fmt.Fprintf(w, "%s: %d/%d correct (%.1f%%), 95%% CI [%.1f%%, %.1f%%]\n",
		m.Method, m.Correct, m.Evaluated, m.Accuracy*100, m.CI.Lower*100, m.CI.Upper*100)

	categories := make([]string, 0, len(m.PerCategory))
	for cat := range m.PerCategory {
		categories = append(categories, cat)
	}
	sort.Strings(categories)
	for _, cat := range categories {
		stats := m.PerCategory[cat]
		fmt.Fprintf(w, "  %-28s %d/%d (%.0f%%)\n", cat, stats.Correct, stats.Total, stats.Accuracy*100)
	}

	for _, mistake := range m.Mistakes {
		fmt.Fprintf(w, "  miss: %q expected %s, got %s\n", mistake.Text, mistake.Expected, mistake.Predicted)
	}
}

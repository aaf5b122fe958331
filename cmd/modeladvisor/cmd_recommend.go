package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spboyer/modeladvisor/internal/models"
	"github.com/spboyer/modeladvisor/internal/recommend"
	"github.com/spboyer/modeladvisor/internal/wizard"
)

func newRecommendCommand() *cobra.Command {
	var mode string
	var format string
	var interactive bool
	var category string
	var subcategory string
	var minAccuracy float64
	var deployment string

	cmd := &cobra.Command{
		Use:   "recommend [task description]",
		Short: "Recommend models for a task, grouped by deployment tier",
		Long: `Recommend catalog models for a task, grouped into lightweight, standard,
advanced and xlarge tiers by download size.

Give either a free-text task description (which is classified first) or an
explicit --category/--subcategory pair. Filters never drop models silently:
each tier reports how many models the filters hid.`,
		Example: `  modeladvisor recommend "summarize long articles"
  modeladvisor recommend --min-accuracy 80 "detect objects in photos"
  modeladvisor recommend --category audio --subcategory speech_recognition
  modeladvisor recommend --deployment browser "classify product photos"`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			m, err := a.mode(mode)
			if err != nil {
				return err
			}
			if minAccuracy < 0 || minAccuracy > 95 {
				return fmt.Errorf("--min-accuracy must be between 0 and 95")
			}

			filter := models.FilterState{
				MinAccuracyThreshold: minAccuracy,
				DeploymentTarget:     deployment,
				Mode:                 m,
			}
			if filter.MinAccuracyThreshold == 0 {
				filter.MinAccuracyThreshold = a.cfg.Recommend.MinAccuracy
			}
			if filter.DeploymentTarget == "" {
				filter.DeploymentTarget = a.cfg.Recommend.DeploymentTarget
			}

			var result *models.ClassificationResult
			if category == "" {
				text := strings.TrimSpace(strings.Join(args, " "))
				if text == "" {
					return fmt.Errorf("either a task description or --category is required")
				}

				pipeline := a.newPipeline(slog.Default())
				if result, err = pipeline.Classify(cmd.Context(), text, m); err != nil {
					return err
				}

				if result.NeedsClarification {
					if !interactive {
						printClassification(cmd.OutOrStdout(), result, a.tax)
						return nil
					}
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
					if result.NeedsClarification {
						printClassification(cmd.OutOrStdout(), result, a.tax)
						return nil
					}
				}
				category, subcategory = result.Category, result.Subcategory
			} else if subcategory == "" {
				subcategory = a.tax.FirstSubcategory(category)
			}

			engine := recommend.NewEngine(a.cat)
			rec := engine.Recommend(category, subcategory, filter)

			if format == "json" {
				return writeJSONOutput(cmd.OutOrStdout(), struct {
					Classification *models.ClassificationResult `json:"classification,omitempty"`
					Recommendation *models.RecommendationResult `json:"recommendation"`
				}{result, rec})
			}
			printRecommendation(cmd.OutOrStdout(), result, rec)
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "Classification mode: fast | ensemble")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text | json")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Ask a clarifying question on ambiguous results")
	cmd.Flags().StringVar(&category, "category", "", "Skip classification and use this category")
	cmd.Flags().StringVar(&subcategory, "subcategory", "", "Subcategory to use with --category")
	cmd.Flags().Float64Var(&minAccuracy, "min-accuracy", 0, "Hide models below this accuracy percentage (0-95)")
	cmd.Flags().StringVar(&deployment, "deployment", "", "Only show models supporting this target (browser, mobile, edge, server)")

	return cmd
}

func printRecommendation(w io.Writer, result *models.ClassificationResult, rec *models.RecommendationResult) {
	if result != nil {
		fmt.Fprintf(w, "Task: %s / %s (%s confidence)\n\n", result.Category, result.Subcategory, result.Level)
	} else {
		fmt.Fprintf(w, "Task: %s / %s\n\n", rec.Category, rec.Subcategory)
	}

	for _, tier := range models.TierOrder {
		group := rec.Group(tier)
		if len(group.Models) == 0 && group.HiddenCount == 0 {
			continue
		}

		fmt.Fprintf(w, "%s (env impact %d/3)\n", tierHeading(tier), models.EnvironmentalScoreForTier(tier))
		for _, m := range group.Models {
			acc := "n/a"
			if m.Accuracy != nil {
				acc = fmt.Sprintf("%.0f%%", *m.Accuracy*100)
			}
			fmt.Fprintf(w, "  %-22s %9.1f MB  accuracy %-5s %s\n", m.Name, m.SizeMB, acc, strings.Join(m.DeploymentOptions, ","))
		}
		if group.HiddenCount > 0 {
			fmt.Fprintf(w, "  (%d hidden by filters)\n", group.HiddenCount)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "%d models shown, %d hidden\n", rec.TotalShown, rec.TotalHidden)
}

func tierHeading(tier models.Tier) string {
	switch tier {
	case models.TierLightweight:
		return "Lightweight (≤500 MB)"
	case models.TierStandard:
		return "Standard (≤4 GB)"
	case models.TierAdvanced:
		return "Advanced (≤20 GB)"
	default:
		return "Extra large (>20 GB)"
	}
}

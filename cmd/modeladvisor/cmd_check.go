package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spboyer/modeladvisor/internal/catalog"
	"github.com/spboyer/modeladvisor/internal/projectconfig"
	"github.com/spboyer/modeladvisor/internal/taxonomy"
	"github.com/spboyer/modeladvisor/internal/validation"
)

func newCheckCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the taxonomy and catalog reference data",
		Long: `Validate the taxonomy and catalog against their schemas and cross-check
them against each other:

  1. Schema validation - both files match their JSON schemas
  2. Catalog slices    - every model's category/subcategory exists in the taxonomy
  3. Coverage          - every taxonomy subcategory has at least one model

Path overrides from .modeladvisor.yaml are honored, so this also verifies
custom reference data before it ships.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := projectconfig.Load(".")
			if err != nil {
				return err
			}

			report := runChecks(cfg)

			if format == "json" {
				if err := writeJSONOutput(cmd.OutOrStdout(), report); err != nil {
					return err
				}
			} else {
				printCheckReport(cmd.OutOrStdout(), report)
			}

			if !report.OK() {
				return &CheckFailureError{Message: "reference data check failed"}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text | json")
	return cmd
}

type checkReport struct {
	TaxonomyValid bool     `json:"taxonomy_valid"`
	CatalogValid  bool     `json:"catalog_valid"`
	Categories    int      `json:"categories"`
	Models        int      `json:"models"`
	Errors        []string `json:"errors,omitempty"`
	UncoveredGaps []string `json:"uncovered_subcategories,omitempty"`
	UnknownSlices []string `json:"unknown_catalog_slices,omitempty"`
}

func (r *checkReport) OK() bool {
	return r.TaxonomyValid && r.CatalogValid && len(r.UnknownSlices) == 0
}

func runChecks(cfg *projectconfig.ProjectConfig) *checkReport {
	report := &checkReport{TaxonomyValid: true, CatalogValid: true}

	tax, err := loadTaxonomyChecked(cfg.Paths.Taxonomy)
	if err != nil {
		report.TaxonomyValid = false
		report.Errors = append(report.Errors, err.Error())
	}
	cat, err := loadCatalogChecked(cfg.Paths.Catalog)
	if err != nil {
		report.CatalogValid = false
		report.Errors = append(report.Errors, err.Error())
	}
	if tax == nil || cat == nil {
		return report
	}

	report.Categories = len(tax.Categories)
	report.Models = cat.Len()

	// Cross-checks both ways: catalog entries must point at real slices,
	// and every slice should have something to recommend.
	for _, entry := range cat.Entries() {
		if _, ok := tax.Subcategory(entry.Category, entry.Subcategory); !ok {
			report.UnknownSlices = append(report.UnknownSlices,
				fmt.Sprintf("%s: %s/%s", entry.ID, entry.Category, entry.Subcategory))
		}
	}
	for _, c := range tax.Categories {
		for _, sub := range c.Subcategories {
			if cat.Slice(c.ID, sub.ID) == nil {
				report.UncoveredGaps = append(report.UncoveredGaps, c.ID+"/"+sub.ID)
			}
		}
	}
	return report
}

func loadTaxonomyChecked(path string) (*taxonomy.Taxonomy, error) {
	if path == "" {
		return taxonomy.Default(), nil
	}
	errs, err := validation.ValidateTaxonomyFile(path)
	if err != nil {
		return nil, err
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("taxonomy schema validation failed: %s", strings.Join(errs, "; "))
	}
	return taxonomy.Load(path)
}

func loadCatalogChecked(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default(), nil
	}
	errs, err := validation.ValidateCatalogFile(path)
	if err != nil {
		return nil, err
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("catalog schema validation failed: %s", strings.Join(errs, "; "))
	}
	return catalog.Load(path)
}

func printCheckReport(w io.Writer, report *checkReport) {
	status := func(ok bool) string {
		if ok {
			return "ok"
		}
		return "FAILED"
	}

	fmt.Fprintf(w, "taxonomy: %s (%d categories)\n", status(report.TaxonomyValid), report.Categories)
	fmt.Fprintf(w, "catalog:  %s (%d models)\n", status(report.CatalogValid), report.Models)

	for _, e := range report.Errors {
		fmt.Fprintf(w, "error: %s\n", e)
	}
	for _, s := range report.UnknownSlices {
		fmt.Fprintf(w, "unknown slice: %s\n", s)
	}
	for _, g := range report.UncoveredGaps {
		fmt.Fprintf(w, "warning: no models for %s\n", g)
	}
}

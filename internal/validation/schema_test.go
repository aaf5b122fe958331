package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const validTaxonomyYAML = `
categories:
  - id: computer_vision
    label: Computer Vision
    subcategories:
      - id: object_detection
        label: Object Detection
        keywords: [detect, objects, bounding box]
        examples:
          - detect objects in photos
`

const validCatalogYAML = `
models:
  - id: tiny-det
    name: Tiny Detector
    size_mb: 24
    accuracy: 0.81
    category: computer_vision
    subcategory: object_detection
    deployment_options: [browser, server]
`

func TestValidateTaxonomyBytes_Valid(t *testing.T) {
	errs := ValidateTaxonomyBytes([]byte(validTaxonomyYAML))
	require.Empty(t, errs)
}

func TestValidateTaxonomyBytes_MissingCategories(t *testing.T) {
	errs := ValidateTaxonomyBytes([]byte(`{}`))
	require.NotEmpty(t, errs)
}

func TestValidateTaxonomyBytes_BadCategoryID(t *testing.T) {
	bad := `
categories:
  - id: "Computer Vision"
    label: Computer Vision
    subcategories:
      - id: object_detection
        label: Object Detection
        keywords: [detect]
`
	errs := ValidateTaxonomyBytes([]byte(bad))
	require.NotEmpty(t, errs)
}

func TestValidateCatalogBytes_Valid(t *testing.T) {
	errs := ValidateCatalogBytes([]byte(validCatalogYAML))
	require.Empty(t, errs)
}

func TestValidateCatalogBytes_NegativeSize(t *testing.T) {
	bad := `
models:
  - id: broken
    name: Broken
    size_mb: -5
    category: nlp
    subcategory: summarization
`
	errs := ValidateCatalogBytes([]byte(bad))
	require.NotEmpty(t, errs)
}

func TestValidateCatalogBytes_AccuracyOutOfRange(t *testing.T) {
	bad := `
models:
  - id: broken
    name: Broken
    size_mb: 100
    accuracy: 1.5
    category: nlp
    subcategory: summarization
`
	errs := ValidateCatalogBytes([]byte(bad))
	require.NotEmpty(t, errs)
}

func TestValidateCatalogBytes_InvalidYAML(t *testing.T) {
	errs := ValidateCatalogBytes([]byte("models: [unclosed"))
	require.Len(t, errs, 1)
	require.Contains(t, errs[0], "YAML parse error")
}

func TestValidateTaxonomyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taxonomy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validTaxonomyYAML), 0o644))

	errs, err := ValidateTaxonomyFile(path)
	require.NoError(t, err)
	require.Empty(t, errs)

	_, err = ValidateTaxonomyFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

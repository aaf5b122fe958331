package taxonomy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	tax := Default()
	require.NotEmpty(t, tax.Categories)

	cv, ok := tax.Category("computer_vision")
	require.True(t, ok)
	require.Equal(t, "Computer Vision", cv.Label)

	sub, ok := tax.Subcategory("computer_vision", "object_detection")
	require.True(t, ok)
	require.NotEmpty(t, sub.Keywords)
	require.NotEmpty(t, sub.Examples)

	_, ok = tax.Category("no_such_category")
	require.False(t, ok)
}

func TestDefaultTarget(t *testing.T) {
	tax := Default()
	cat, sub := tax.DefaultTarget()
	require.Equal(t, "general", cat)
	require.Equal(t, "general_purpose", sub)
}

func TestPriorityRank(t *testing.T) {
	tax := Default()
	// Declaration order is the priority order; general sorts last.
	require.Less(t, tax.PriorityRank("computer_vision"), tax.PriorityRank("general"))
	require.Equal(t, len(tax.Categories), tax.PriorityRank("unknown"))
}

func TestReferenceExamples(t *testing.T) {
	tax := Default()
	examples := tax.ReferenceExamples()
	require.NotEmpty(t, examples)

	for _, ex := range examples {
		_, ok := tax.Subcategory(ex.Category, ex.Subcategory)
		require.True(t, ok, "example %q references unknown subcategory %s/%s", ex.Text, ex.Category, ex.Subcategory)
		require.NotEmpty(t, ex.Text)
	}
}

func TestParse_DuplicateCategory(t *testing.T) {
	data := []byte(`
categories:
  - id: audio
    label: Audio
    subcategories:
      - id: speech_recognition
        label: Speech Recognition
        keywords: [transcribe]
  - id: audio
    label: Audio Again
    subcategories:
      - id: text_to_speech
        label: Text to Speech
        keywords: [narration]
`)
	_, err := Parse(data)
	require.ErrorContains(t, err, "duplicate category")
}

func TestParse_SchemaViolation(t *testing.T) {
	_, err := Parse([]byte(`categories: []`))
	require.ErrorContains(t, err, "schema validation failed")
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taxonomy.yaml")
	require.NoError(t, os.WriteFile(path, defaultTaxonomyYAML, 0o644))

	tax, err := Load(path)
	require.NoError(t, err)
	require.NotEmpty(t, tax.Categories)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

func TestFirstSubcategory(t *testing.T) {
	tax := Default()
	require.Equal(t, "object_detection", tax.FirstSubcategory("computer_vision"))
	require.Equal(t, "general_purpose", tax.FirstSubcategory("unknown"))
}

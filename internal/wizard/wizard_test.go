package wizard

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spboyer/modeladvisor/internal/models"
	"github.com/spboyer/modeladvisor/internal/taxonomy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tiedResult() *models.ClassificationResult {
	return &models.ClassificationResult{
		Category: "computer_vision",
		Method:   models.MethodEnsemble,
		Level:    models.ConfidenceLow,
		Alternatives: []models.Alternative{
			{Category: "computer_vision", Score: 0.5},
			{Category: "audio", Score: 0.5},
		},
		NeedsClarification: true,
	}
}

func TestQuestion(t *testing.T) {
	q := Question(tiedResult(), taxonomy.Default())

	assert.Contains(t, q, "Computer Vision")
	assert.Contains(t, q, "Audio")
	assert.Contains(t, q, "Which is closest?")
}

func TestQuestion_UnknownCategoryFallsBackToID(t *testing.T) {
	res := &models.ClassificationResult{
		Alternatives:       []models.Alternative{{Category: "mystery"}},
		NeedsClarification: true,
	}

	assert.Contains(t, Question(res, taxonomy.Default()), "mystery")
}

func TestApplyChoice_CategoryPick(t *testing.T) {
	original := tiedResult()
	resolved := ApplyChoice(original, &Choice{Category: "audio"}, taxonomy.Default())

	require.False(t, resolved.NeedsClarification)
	require.Equal(t, "audio", resolved.Category)
	require.Equal(t, "speech_recognition", resolved.Subcategory)
	require.Equal(t, models.ConfidenceHigh, resolved.Level)
	require.Equal(t, 1.0, resolved.Confidence)
	// The original is left untouched.
	require.True(t, original.NeedsClarification)
	require.Equal(t, "computer_vision", original.Category)
}

func TestApplyChoice_SkipKeepsLeader(t *testing.T) {
	resolved := ApplyChoice(tiedResult(), &Choice{Skipped: true}, taxonomy.Default())

	require.False(t, resolved.NeedsClarification)
	require.Equal(t, "computer_vision", resolved.Category)
	require.Equal(t, models.ConfidenceLow, resolved.Level)
}

func TestRunClarificationWizard_RejectsResolvedResult(t *testing.T) {
	var out bytes.Buffer

	_, err := RunClarificationWizard(strings.NewReader(""), &out, &models.ClassificationResult{}, taxonomy.Default())
	require.Error(t, err)
	_, err = RunClarificationWizard(strings.NewReader(""), &out, nil, taxonomy.Default())
	require.Error(t, err)
}

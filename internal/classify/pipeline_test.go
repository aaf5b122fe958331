package classify

import (
	"context"
	"testing"

	"github.com/spboyer/modeladvisor/internal/backend"
	"github.com/spboyer/modeladvisor/internal/models"
	"github.com/spboyer/modeladvisor/internal/taxonomy"
	"github.com/stretchr/testify/require"
)

// twoCategoryTaxonomy gives tests precise control over keyword and embedding
// evidence: "vision" and "text" each carry one keyword and one reference
// example.
func twoCategoryTaxonomy(t *testing.T) *taxonomy.Taxonomy {
	t.Helper()
	tax, err := taxonomy.Parse([]byte(`
categories:
  - id: vision
    label: Vision
    subcategories:
      - id: detect
        label: Detect
        keywords: [detect objects]
        examples:
          - find cars in images
  - id: text
    label: Text
    subcategories:
      - id: summarize
        label: Summarize
        keywords: [summarize]
        examples:
          - shorten a report
`))
	require.NoError(t, err)
	return tax
}

// fixedEmbedder registers hand-picked vectors so similarity, and therefore
// pipeline routing, is exact.
func fixedEmbedder(queries map[string][]float32) *backend.MockEmbedder {
	m := backend.NewMockEmbedder(4)
	m.Vectors["find cars in images"] = []float32{1, 0, 0, 0}
	m.Vectors["shorten a report"] = []float32{0, 1, 0, 0}
	for text, vec := range queries {
		m.Vectors[text] = vec
	}
	return m
}

func TestPipeline_KeywordHighShortCircuits(t *testing.T) {
	p := NewPipeline(taxonomy.Default())

	res, err := p.Classify(context.Background(), "detect objects in photos", models.ModeFast)
	require.NoError(t, err)
	require.Equal(t, "computer_vision", res.Category)
	require.Equal(t, "object_detection", res.Subcategory)
	require.Equal(t, models.MethodKeyword, res.Method)
	require.Equal(t, models.ConfidenceHigh, res.Level)
	require.False(t, res.NeedsClarification)
}

func TestPipeline_DegradesToKeywordOnly(t *testing.T) {
	// No backends at all: the keyword stage must still answer.
	p := NewPipeline(taxonomy.Default())

	res, err := p.Classify(context.Background(), "transcribe podcast episodes", models.ModeEnsemble)
	require.NoError(t, err)
	require.Equal(t, "audio", res.Category)
	require.Equal(t, "speech_recognition", res.Subcategory)
	require.Equal(t, models.MethodKeyword, res.Method)
}

func TestPipeline_EmptyInput(t *testing.T) {
	p := NewPipeline(taxonomy.Default())

	res, err := p.Classify(context.Background(), "", models.ModeFast)
	require.NoError(t, err)
	require.Equal(t, "general", res.Category)
	require.Equal(t, "general_purpose", res.Subcategory)
	require.Zero(t, res.Confidence)
	require.Equal(t, models.ConfidenceLow, res.Level)
}

func TestPipeline_EmbeddingResolvesHigh(t *testing.T) {
	embedder := fixedEmbedder(map[string][]float32{
		"locate vehicles": {0.9, 0.1, 0, 0},
	})
	p := NewPipeline(twoCategoryTaxonomy(t), WithEmbedder(embedder))

	res, err := p.Classify(context.Background(), "locate vehicles", models.ModeFast)
	require.NoError(t, err)
	require.Equal(t, models.MethodEmbedding, res.Method)
	require.Equal(t, "vision", res.Category)
	require.Equal(t, "detect", res.Subcategory)
	require.Equal(t, models.ConfidenceHigh, res.Level)
}

func TestPipeline_MediumEmbeddingDoesNotEscalate(t *testing.T) {
	embedder := fixedEmbedder(map[string][]float32{
		"mostly visual": {0.9, 0.3, 0, 0},
	})
	gen := &backend.MockGenerator{Responses: []string{"text"}}
	p := NewPipeline(twoCategoryTaxonomy(t), WithEmbedder(embedder), WithGenerator(gen))

	res, err := p.Classify(context.Background(), "mostly visual", models.ModeEnsemble)
	require.NoError(t, err)
	require.Equal(t, models.MethodEmbedding, res.Method)
	require.Equal(t, "vision", res.Category)
	require.Equal(t, models.ConfidenceMedium, res.Level)
	require.Zero(t, gen.Calls())
}

func TestPipeline_NearTieEscalatesToEnsemble(t *testing.T) {
	embedder := fixedEmbedder(map[string][]float32{
		"ambiguous thing": {0.7, 0.65, 0, 0},
	})
	gen := &backend.MockGenerator{Responses: []string{"text", "text", "text", "text", "text"}}
	p := NewPipeline(twoCategoryTaxonomy(t), WithEmbedder(embedder), WithGenerator(gen))

	res, err := p.Classify(context.Background(), "ambiguous thing", models.ModeFast)
	require.NoError(t, err)
	require.Equal(t, models.MethodEnsemble, res.Method)
	require.Equal(t, "text", res.Category)
	require.Equal(t, "summarize", res.Subcategory)
	require.Equal(t, models.ConfidenceHigh, res.Level)
	require.Equal(t, map[string]int{"text": 5}, res.Votes)
	require.Equal(t, 5, gen.Calls())
}

func TestPipeline_EnsembleTieAsksForClarification(t *testing.T) {
	embedder := fixedEmbedder(map[string][]float32{
		"ambiguous thing": {0.7, 0.65, 0, 0},
	})
	gen := &backend.MockGenerator{Responses: []string{"vision", "vision", "text", "text", "no clue"}}
	p := NewPipeline(twoCategoryTaxonomy(t), WithEmbedder(embedder), WithGenerator(gen))

	res, err := p.Classify(context.Background(), "ambiguous thing", models.ModeFast)
	require.NoError(t, err)
	require.True(t, res.NeedsClarification)
	require.Equal(t, models.ConfidenceLow, res.Level)
	require.Len(t, res.Alternatives, 2)
	require.Equal(t, "vision", res.Alternatives[0].Category)
	require.Equal(t, "text", res.Alternatives[1].Category)

	// A clarifying answer with decisive keyword evidence resolves it.
	resolved, err := p.ResolveClarification(context.Background(), res, "ambiguous thing", "summarize it", models.ModeFast)
	require.NoError(t, err)
	require.False(t, resolved.NeedsClarification)
	require.Equal(t, "text", resolved.Category)
	require.Equal(t, models.ConfidenceHigh, resolved.Level)
}

func TestPipeline_ClarificationSkippedAcceptsLeader(t *testing.T) {
	tied := &models.ClassificationResult{
		Category:           "vision",
		Method:             models.MethodEnsemble,
		NeedsClarification: true,
		Level:              models.ConfidenceLow,
	}
	p := NewPipeline(twoCategoryTaxonomy(t))

	resolved, err := p.ResolveClarification(context.Background(), tied, "ambiguous thing", "  ", models.ModeFast)
	require.NoError(t, err)
	require.False(t, resolved.NeedsClarification)
	require.Equal(t, "vision", resolved.Category)
	require.Equal(t, models.ConfidenceLow, resolved.Level)
	// The original is left untouched.
	require.True(t, tied.NeedsClarification)
}

func TestPipeline_ResolveClarificationRejectsResolved(t *testing.T) {
	p := NewPipeline(twoCategoryTaxonomy(t))

	_, err := p.ResolveClarification(context.Background(), &models.ClassificationResult{}, "text", "answer", models.ModeFast)
	require.Error(t, err)
	_, err = p.ResolveClarification(context.Background(), nil, "text", "answer", models.ModeFast)
	require.Error(t, err)
}

func TestPipeline_EnsembleModeWithoutEmbedder(t *testing.T) {
	gen := &backend.MockGenerator{Responses: []string{"vision", "vision", "vision", "vision", "vision"}}
	p := NewPipeline(twoCategoryTaxonomy(t), WithGenerator(gen))

	res, err := p.Classify(context.Background(), "mystery request", models.ModeEnsemble)
	require.NoError(t, err)
	require.Equal(t, models.MethodEnsemble, res.Method)
	require.Equal(t, "vision", res.Category)
	require.Equal(t, models.ConfidenceHigh, res.Level)
}

func TestPipeline_LowEnsembleSplitAsksForClarification(t *testing.T) {
	// 2/1/1 over four usable votes: no tie, but the leader is below the
	// medium band, so the caller gets a question instead of a guess.
	gen := &backend.MockGenerator{Responses: []string{
		"computer_vision", "computer_vision", "audio", "multimodal", "beats me",
	}}
	p := NewPipeline(taxonomy.Default(), WithGenerator(gen))

	res, err := p.Classify(context.Background(), "zzz qqq xxyyzz", models.ModeEnsemble)
	require.NoError(t, err)
	require.Equal(t, models.MethodEnsemble, res.Method)
	require.True(t, res.NeedsClarification)
	require.Equal(t, models.ConfidenceLow, res.Level)
	require.Equal(t, "computer_vision", res.Category)
	require.Len(t, res.Alternatives, 3)
	require.Equal(t, "computer_vision", res.Alternatives[0].Category)
	require.InDelta(t, 0.5, res.Alternatives[0].Score, 1e-9)
}

func TestPipeline_SessionCache(t *testing.T) {
	embedder := fixedEmbedder(map[string][]float32{
		"ambiguous thing": {0.7, 0.65, 0, 0},
	})
	gen := &backend.MockGenerator{Responses: []string{"text", "text", "text", "text", "text"}}
	p := NewPipeline(twoCategoryTaxonomy(t), WithEmbedder(embedder), WithGenerator(gen))

	first, err := p.Classify(context.Background(), "ambiguous thing", models.ModeFast)
	require.NoError(t, err)
	calls := gen.Calls()

	second, err := p.Classify(context.Background(), "ambiguous thing", models.ModeFast)
	require.NoError(t, err)
	require.Same(t, first, second)
	require.Equal(t, calls, gen.Calls())

	// A different mode is a different cache entry.
	_, err = p.Classify(context.Background(), "ambiguous thing", models.ModeEnsemble)
	require.NoError(t, err)
	require.Greater(t, gen.Calls(), calls)
}

func TestPipeline_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPipeline(taxonomy.Default())
	res, err := p.Classify(ctx, "detect objects in photos", models.ModeFast)
	require.ErrorIs(t, err, context.Canceled)
	require.Nil(t, res)
}

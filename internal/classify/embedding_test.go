package classify

import (
	"context"
	"errors"
	"testing"

	"github.com/spboyer/modeladvisor/internal/backend"
	"github.com/spboyer/modeladvisor/internal/models"
	"github.com/spboyer/modeladvisor/internal/taxonomy"
	"github.com/stretchr/testify/require"
)

func newTestEmbeddingClassifier(t *testing.T) *EmbeddingClassifier {
	t.Helper()

	ec := NewEmbeddingClassifier(backend.NewMockEmbedder(256), taxonomy.Default(), models.DefaultConfidenceBands())
	require.NoError(t, ec.Initialize(context.Background()))
	return ec
}

func TestEmbeddingClassify_MatchesReferenceExample(t *testing.T) {
	ec := newTestEmbeddingClassifier(t)

	// Reuse an exact reference example so the nearest neighbor is a
	// perfect cosine match.
	examples := taxonomy.Default().ReferenceExamples()
	require.NotEmpty(t, examples)
	ex := examples[0]

	res, err := ec.Classify(context.Background(), ex.Text, 3, VotingWeighted)
	require.NoError(t, err)
	require.Equal(t, ex.Category, res.Category)
	require.Equal(t, ex.Subcategory, res.Subcategory)
	require.NotEmpty(t, res.SimilarExamples)
	require.InDelta(t, 1.0, res.SimilarExamples[0].Similarity, 1e-6)
}

func TestEmbeddingClassify_TopCategoriesSumToOne(t *testing.T) {
	ec := newTestEmbeddingClassifier(t)

	for _, method := range []VotingMethod{VotingSimple, VotingWeighted} {
		res, err := ec.Classify(context.Background(), "translate this document to french", 5, method)
		require.NoError(t, err)

		var sum float64
		for _, alt := range res.TopCategories {
			sum += alt.Score
		}
		require.InDelta(t, 1.0, sum, 1e-6)
		for i := 1; i < len(res.TopCategories); i++ {
			require.LessOrEqual(t, res.TopCategories[i].Score, res.TopCategories[i-1].Score)
		}
	}
}

func TestEmbeddingClassify_SimpleVoting(t *testing.T) {
	tax, err := taxonomy.Parse([]byte(`
categories:
  - id: vision
    label: Vision
    subcategories:
      - id: detect
        label: Detect
        keywords: [detect]
        examples:
          - find cats in pictures
          - find dogs in pictures
  - id: text
    label: Text
    subcategories:
      - id: summarize
        label: Summarize
        keywords: [summarize]
        examples:
          - shorten this report
`))
	require.NoError(t, err)

	ec := NewEmbeddingClassifier(backend.NewMockEmbedder(256), tax, models.DefaultConfidenceBands())
	require.NoError(t, ec.Initialize(context.Background()))

	res, err := ec.Classify(context.Background(), "find animals in pictures", 3, VotingSimple)
	require.NoError(t, err)
	require.Equal(t, "vision", res.Category)
	// Two of three neighbors belong to vision.
	require.InDelta(t, 2.0/3.0, res.Confidence, 1e-6)
	require.Equal(t, models.ConfidenceLow, res.Level)
}

func TestEmbeddingClassify_KClampedToExamples(t *testing.T) {
	ec := newTestEmbeddingClassifier(t)

	total := len(taxonomy.Default().ReferenceExamples())
	res, err := ec.Classify(context.Background(), "recognize speech", total*10, VotingSimple)
	require.NoError(t, err)
	require.Len(t, res.SimilarExamples, total)
}

func TestEmbeddingClassify_NotInitialized(t *testing.T) {
	ec := NewEmbeddingClassifier(backend.NewMockEmbedder(64), taxonomy.Default(), models.DefaultConfidenceBands())

	_, err := ec.Classify(context.Background(), "anything", 5, VotingSimple)
	require.ErrorIs(t, err, backend.ErrEmbeddingUnavailable)
}

func TestEmbeddingClassify_NilEmbedder(t *testing.T) {
	ec := NewEmbeddingClassifier(nil, taxonomy.Default(), models.DefaultConfidenceBands())

	require.ErrorIs(t, ec.Initialize(context.Background()), backend.ErrEmbeddingUnavailable)
	_, err := ec.Classify(context.Background(), "anything", 5, VotingSimple)
	require.ErrorIs(t, err, backend.ErrEmbeddingUnavailable)
}

func TestEmbeddingClassify_EmbedderError(t *testing.T) {
	embedder := backend.NewMockEmbedder(64)
	ec := NewEmbeddingClassifier(embedder, taxonomy.Default(), models.DefaultConfidenceBands())
	require.NoError(t, ec.Initialize(context.Background()))

	embedder.Err = errors.New("backend down")
	_, err := ec.Classify(context.Background(), "anything", 5, VotingSimple)
	require.Error(t, err)
}

func TestCosineSimilarity(t *testing.T) {
	require.InDelta(t, 1.0, CosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-9)
	require.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	require.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	require.Zero(t, CosineSimilarity([]float32{1, 0}, []float32{1}))
	require.Zero(t, CosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}

package classify

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/spboyer/modeladvisor/internal/backend"
	"github.com/spboyer/modeladvisor/internal/models"
	"github.com/spboyer/modeladvisor/internal/taxonomy"
)

// VotingMethod selects how nearest-neighbor votes are aggregated.
type VotingMethod string

const (
	// VotingSimple counts neighbor occurrences per category.
	VotingSimple VotingMethod = "simple"
	// VotingWeighted sums neighbor similarity per category, normalized by
	// the total weight across all k neighbors.
	VotingWeighted VotingMethod = "weighted"
)

// DefaultNeighbors is the default k for nearest-neighbor voting.
const DefaultNeighbors = 5

// ScoredExample is a taxonomy reference example with its similarity to the
// input text.
type ScoredExample struct {
	taxonomy.ReferenceExample
	Similarity float64
}

// EmbeddingResult is the outcome of one embedding classification.
type EmbeddingResult struct {
	Category        string
	Subcategory     string
	Confidence      float64
	Level           models.ConfidenceLevel
	TopCategories   []models.Alternative
	SimilarExamples []ScoredExample
}

// EmbeddingClassifier ranks taxonomy examples by vector similarity to the
// input text. Reference vectors are computed once by Initialize and shared
// read-only for the lifetime of the session.
type EmbeddingClassifier struct {
	embedder backend.Embedder
	tax      *taxonomy.Taxonomy
	bands    models.ConfidenceBands

	refs []refVector // immutable after Initialize
}

type refVector struct {
	example taxonomy.ReferenceExample
	vec     []float32
}

// NewEmbeddingClassifier creates an embedding classifier. The embedder may
// be nil, in which case every call reports ErrEmbeddingUnavailable.
func NewEmbeddingClassifier(embedder backend.Embedder, tax *taxonomy.Taxonomy, bands models.ConfidenceBands) *EmbeddingClassifier {
	return &EmbeddingClassifier{embedder: embedder, tax: tax, bands: bands}
}

// Initialize precomputes an embedding for every taxonomy example. The cost
// is paid once; Classify only embeds the input text.
func (ec *EmbeddingClassifier) Initialize(ctx context.Context) error {
	if ec.embedder == nil {
		return backend.ErrEmbeddingUnavailable
	}

	examples := ec.tax.ReferenceExamples()
	refs := make([]refVector, 0, len(examples))
	for _, ex := range examples {
		vec, err := ec.embedder.Embed(ctx, ex.Text)
		if err != nil {
			return fmt.Errorf("embedding reference example %q: %w", ex.Text, err)
		}
		refs = append(refs, refVector{example: ex, vec: vec})
	}

	ec.refs = refs
	return nil
}

// Ready reports whether reference vectors have been computed.
func (ec *EmbeddingClassifier) Ready() bool {
	return len(ec.refs) > 0
}

// Classify embeds the text, finds the k most similar reference examples and
// aggregates their categories by the chosen voting method. Returns
// ErrEmbeddingUnavailable (possibly wrapped) when the backend cannot serve.
func (ec *EmbeddingClassifier) Classify(ctx context.Context, text string, k int, method VotingMethod) (*EmbeddingResult, error) {
	if ec.embedder == nil {
		return nil, backend.ErrEmbeddingUnavailable
	}
	if !ec.Ready() {
		return nil, fmt.Errorf("classifier not initialized: %w", backend.ErrEmbeddingUnavailable)
	}
	if k <= 0 {
		k = DefaultNeighbors
	}
	if k > len(ec.refs) {
		k = len(ec.refs)
	}

	vec, err := ec.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	scored := make([]ScoredExample, 0, len(ec.refs))
	for _, ref := range ec.refs {
		scored = append(scored, ScoredExample{
			ReferenceExample: ref.example,
			Similarity:       CosineSimilarity(vec, ref.vec),
		})
	}
	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].Similarity > scored[b].Similarity
	})
	neighbors := scored[:k]

	topCategories := ec.voteCategories(neighbors, method)
	winner := topCategories[0]

	return &EmbeddingResult{
		Category:        winner.Category,
		Subcategory:     ec.winningSubcategory(neighbors, winner.Category),
		Confidence:      winner.Score,
		Level:           ec.bands.Level(winner.Score),
		TopCategories:   topCategories,
		SimilarExamples: neighbors,
	}, nil
}

// voteCategories aggregates neighbor votes per category and returns the
// categories sorted by descending share. Shares sum to 1 for both methods.
func (ec *EmbeddingClassifier) voteCategories(neighbors []ScoredExample, method VotingMethod) []models.Alternative {
	weights := make(map[string]float64)
	var total float64

	for _, n := range neighbors {
		w := 1.0
		if method == VotingWeighted {
			// Clamp negative similarities so a dissimilar neighbor can't
			// subtract votes.
			w = math.Max(n.Similarity, 0)
		}
		weights[n.Category] += w
		total += w
	}

	alternatives := make([]models.Alternative, 0, len(weights))
	for cat, w := range weights {
		share := 0.0
		if total > 0 {
			share = w / total
		}
		alternatives = append(alternatives, models.Alternative{Category: cat, Score: share})
	}

	sort.SliceStable(alternatives, func(a, b int) bool {
		if alternatives[a].Score != alternatives[b].Score {
			return alternatives[a].Score > alternatives[b].Score
		}
		return ec.tax.PriorityRank(alternatives[a].Category) < ec.tax.PriorityRank(alternatives[b].Category)
	})
	return alternatives
}

// winningSubcategory picks the subcategory of the most similar neighbor
// belonging to the winning category.
func (ec *EmbeddingClassifier) winningSubcategory(neighbors []ScoredExample, category string) string {
	for _, n := range neighbors {
		if n.Category == category {
			return n.Subcategory
		}
	}
	return ec.tax.FirstSubcategory(category)
}

// CosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched lengths or zero vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

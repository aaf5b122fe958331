// Package calibrate measures classifier accuracy against the taxonomy's own
// reference examples, so threshold changes can be judged on data instead of
// gut feeling.
package calibrate

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/spboyer/modeladvisor/internal/backend"
	"github.com/spboyer/modeladvisor/internal/classify"
	"github.com/spboyer/modeladvisor/internal/models"
	"github.com/spboyer/modeladvisor/internal/statistics"
	"github.com/spboyer/modeladvisor/internal/taxonomy"
)

// CategoryStats is the per-category evaluation tally.
type CategoryStats struct {
	Total    int     `json:"total"`
	Correct  int     `json:"correct"`
	Accuracy float64 `json:"accuracy"`
}

// MethodReport is the evaluation outcome for one classification method.
type MethodReport struct {
	Method      models.Method                 `json:"method"`
	Evaluated   int                           `json:"evaluated"`
	Correct     int                           `json:"correct"`
	Accuracy    float64                       `json:"accuracy"`
	CI          statistics.ConfidenceInterval `json:"confidence_interval"`
	PerCategory map[string]CategoryStats      `json:"per_category"`
	Mistakes    []Mistake                     `json:"mistakes,omitempty"`

	// outcomes holds the per-example 1/0 results in evaluation order, so
	// paired comparisons across methods line up by index.
	outcomes []float64
}

// Mistake records one misclassified reference example.
type Mistake struct {
	Text      string `json:"text"`
	Expected  string `json:"expected"`
	Predicted string `json:"predicted"`
}

// Report holds the full calibration run. Embedding is nil when no embedding
// backend was available.
type Report struct {
	Keyword   *MethodReport `json:"keyword"`
	Embedding *MethodReport `json:"embedding,omitempty"`

	// Delta is the bootstrap interval of the per-example accuracy
	// difference, embedding minus keyword. Present when both methods ran.
	Delta *statistics.ConfidenceInterval `json:"delta,omitempty"`
}

// Runner evaluates the keyword and embedding classifiers over the taxonomy's
// reference examples. The embedding evaluation is leave-one-out: each example
// is scored against every example except itself.
type Runner struct {
	tax      *taxonomy.Taxonomy
	embedder backend.Embedder
	logger   *slog.Logger

	// Seed fixes the bootstrap resampling for reproducible reports.
	Seed int64

	// Neighbors is k for the embedding vote; zero means the default.
	Neighbors int
}

// NewRunner creates a calibration runner. embedder may be nil to skip the
// embedding evaluation.
func NewRunner(tax *taxonomy.Taxonomy, embedder backend.Embedder, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{tax: tax, embedder: embedder, logger: logger, Seed: 1}
}

// Run evaluates both classifiers and returns the combined report.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	examples := r.tax.ReferenceExamples()
	if len(examples) == 0 {
		return nil, fmt.Errorf("taxonomy has no reference examples")
	}

	report := &Report{Keyword: r.evaluateKeyword(examples)}

	if r.embedder != nil {
		emb, err := r.evaluateEmbedding(ctx, examples)
		if err != nil {
			return nil, err
		}
		report.Embedding = emb

		diffs := make([]float64, len(examples))
		for i := range diffs {
			diffs[i] = emb.outcomes[i] - report.Keyword.outcomes[i]
		}
		ci := statistics.BootstrapCIWithSeed(diffs, 0.95, r.Seed)
		report.Delta = &ci
	}

	return report, nil
}

func (r *Runner) evaluateKeyword(examples []taxonomy.ReferenceExample) *MethodReport {
	kc := classify.NewKeywordClassifier(r.tax)

	report := newMethodReport(models.MethodKeyword)
	for _, ex := range examples {
		predicted := kc.Classify(ex.Text)[0].Category
		report.record(ex, predicted)
	}
	report.finish(r.Seed)
	return report
}

func (r *Runner) evaluateEmbedding(ctx context.Context, examples []taxonomy.ReferenceExample) (*MethodReport, error) {
	vectors := make([][]float32, len(examples))
	for i, ex := range examples {
		vec, err := r.embedder.Embed(ctx, ex.Text)
		if err != nil {
			return nil, fmt.Errorf("embedding example %q: %w", ex.Text, err)
		}
		vectors[i] = vec
	}

	k := r.Neighbors
	if k <= 0 {
		k = classify.DefaultNeighbors
	}

	report := newMethodReport(models.MethodEmbedding)
	for i, ex := range examples {
		predicted := looPredict(examples, vectors, i, k)
		report.record(ex, predicted)
	}
	report.finish(r.Seed)
	return report, nil
}

// looPredict classifies example held against all others by weighted
// nearest-neighbor vote.
func looPredict(examples []taxonomy.ReferenceExample, vectors [][]float32, held, k int) string {
	type neighbor struct {
		category   string
		similarity float64
	}

	neighbors := make([]neighbor, 0, len(examples)-1)
	for j := range examples {
		if j == held {
			continue
		}
		neighbors = append(neighbors, neighbor{
			category:   examples[j].Category,
			similarity: classify.CosineSimilarity(vectors[held], vectors[j]),
		})
	}
	sort.SliceStable(neighbors, func(a, b int) bool {
		return neighbors[a].similarity > neighbors[b].similarity
	})
	if k > len(neighbors) {
		k = len(neighbors)
	}

	weights := make(map[string]float64)
	for _, n := range neighbors[:k] {
		if n.similarity > 0 {
			weights[n.category] += n.similarity
		}
	}

	best, bestWeight := "", -1.0
	for _, n := range neighbors[:k] {
		if w := weights[n.category]; w > bestWeight {
			best, bestWeight = n.category, w
		}
	}
	return best
}

func newMethodReport(method models.Method) *MethodReport {
	return &MethodReport{
		Method:      method,
		PerCategory: make(map[string]CategoryStats),
	}
}

func (m *MethodReport) record(ex taxonomy.ReferenceExample, predicted string) {
	stats := m.PerCategory[ex.Category]
	stats.Total++
	m.Evaluated++

	outcome := 0.0
	if predicted == ex.Category {
		outcome = 1
		stats.Correct++
		m.Correct++
	} else {
		m.Mistakes = append(m.Mistakes, Mistake{
			Text:      ex.Text,
			Expected:  ex.Category,
			Predicted: predicted,
		})
	}
	m.outcomes = append(m.outcomes, outcome)
	m.PerCategory[ex.Category] = stats
}

func (m *MethodReport) finish(seed int64) {
	for cat, stats := range m.PerCategory {
		if stats.Total > 0 {
			stats.Accuracy = float64(stats.Correct) / float64(stats.Total)
		}
		m.PerCategory[cat] = stats
	}

	m.Accuracy = statistics.Mean(m.outcomes)
	m.CI = statistics.BootstrapCIWithSeed(m.outcomes, 0.95, seed)
}

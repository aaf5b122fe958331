package classify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spboyer/modeladvisor/internal/backend"
	"github.com/spboyer/modeladvisor/internal/models"
	"github.com/spboyer/modeladvisor/internal/taxonomy"
)

// PipelineConfig tunes the escalation pipeline.
type PipelineConfig struct {
	// KeywordBands gate the keyword stage. The keyword score scale is
	// coarser than embedding similarity, so the bands sit lower.
	KeywordBands models.ConfidenceBands

	// EmbeddingBands gate the embedding stage.
	EmbeddingBands models.ConfidenceBands

	// EscalationMargin triggers ensemble escalation when the top two
	// embedding categories score within this distance of each other.
	EscalationMargin float64

	// Neighbors is k for embedding nearest-neighbor voting.
	Neighbors int

	// Voting selects the embedding vote aggregation method.
	Voting VotingMethod

	// EnsembleSize is the number of concurrent completions per ensemble
	// round.
	EnsembleSize int

	// Coordinator tunes the ensemble round itself.
	Coordinator CoordinatorConfig

	// GenerationOverrides overlays non-zero sampling values onto every
	// ensemble strategy.
	GenerationOverrides backend.GenerateParams
}

// DefaultPipelineConfig returns the standard pipeline thresholds.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		KeywordBands:     models.ConfidenceBands{High: 0.8, Medium: 0.6},
		EmbeddingBands:   models.DefaultConfidenceBands(),
		EscalationMargin: 0.1,
		Neighbors:        DefaultNeighbors,
		Voting:           VotingWeighted,
		EnsembleSize:     DefaultEnsembleSize,
		Coordinator:      DefaultCoordinatorConfig(),
	}
}

// PipelineOption customizes a Pipeline.
type PipelineOption func(*Pipeline)

// WithEmbedder attaches an embedding backend. Without one the pipeline stays
// keyword-only.
func WithEmbedder(embedder backend.Embedder) PipelineOption {
	return func(p *Pipeline) { p.embedder = embedder }
}

// WithGenerator attaches a generative backend for ensemble escalation.
func WithGenerator(generator backend.Generator) PipelineOption {
	return func(p *Pipeline) { p.generator = generator }
}

// WithConfig overrides the default pipeline configuration.
func WithConfig(cfg PipelineConfig) PipelineOption {
	return func(p *Pipeline) { p.cfg = cfg }
}

// WithLogger sets the pipeline logger.
func WithLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) { p.logger = logger }
}

// Pipeline chains the keyword, embedding and ensemble classifiers with
// confidence-based escalation. Missing or failing backends degrade the
// pipeline rather than fail it: the keyword stage always answers.
type Pipeline struct {
	tax       *taxonomy.Taxonomy
	embedder  backend.Embedder
	generator backend.Generator
	cfg       PipelineConfig
	logger    *slog.Logger

	keyword *KeywordClassifier

	initOnce  sync.Once
	embedding *EmbeddingClassifier

	mu    sync.RWMutex
	cache map[string]*models.ClassificationResult
}

// NewPipeline creates a classification pipeline over the taxonomy.
func NewPipeline(tax *taxonomy.Taxonomy, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		tax:    tax,
		cfg:    DefaultPipelineConfig(),
		logger: slog.Default(),
		cache:  make(map[string]*models.ClassificationResult),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.keyword = NewKeywordClassifier(tax)
	return p
}

// Classify runs the escalation pipeline on the text. Identical text and mode
// within one session return the cached result. A canceled context aborts
// between stages with no result.
func (p *Pipeline) Classify(ctx context.Context, text string, mode models.Mode) (*models.ClassificationResult, error) {
	key := cacheKey(mode, text)
	if cached := p.cachedResult(key); cached != nil {
		return cached, nil
	}

	res, err := p.classify(ctx, text, mode)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.cache[key] = res
	p.mu.Unlock()
	return res, nil
}

func (p *Pipeline) classify(ctx context.Context, text string, mode models.Mode) (*models.ClassificationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 1: keyword. Free and deterministic; a decisive score ends the
	// pipeline without touching any backend.
	matches := p.keyword.Classify(text)
	best := matches[0]
	if best.Score >= p.cfg.KeywordBands.High {
		return p.keywordResult(matches, models.ConfidenceHigh), nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 2: embedding.
	embRes, err := p.embeddingStage(ctx, text)
	switch {
	case err == nil:
		if p.shouldEscalate(embRes, mode) {
			if ensRes, ensErr := p.ensembleStage(ctx, text, embRes); ensErr == nil {
				return ensRes, nil
			} else if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			} else {
				p.logger.Debug("ensemble unavailable, keeping embedding result", "error", ensErr)
			}
		}
		return p.embeddingResult(embRes), nil
	case errors.Is(err, backend.ErrEmbeddingUnavailable):
		p.logger.Debug("embedding unavailable, falling back", "error", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, err
	default:
		p.logger.Warn("embedding stage failed, falling back", "error", err)
	}

	// Embedding is out; in ensemble mode the generator can still rescue a
	// weak keyword match.
	if mode == models.ModeEnsemble {
		if ensRes, ensErr := p.ensembleStage(ctx, text, nil); ensErr == nil {
			return ensRes, nil
		} else if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		} else {
			p.logger.Debug("ensemble unavailable, keeping keyword result", "error", ensErr)
		}
	}

	return p.keywordResult(matches, p.cfg.KeywordBands.Level(best.Score)), nil
}

// embeddingStage lazily initializes the embedding classifier and runs it.
func (p *Pipeline) embeddingStage(ctx context.Context, text string) (*EmbeddingResult, error) {
	if p.embedder == nil {
		return nil, backend.ErrEmbeddingUnavailable
	}

	var initErr error
	p.initOnce.Do(func() {
		ec := NewEmbeddingClassifier(p.embedder, p.tax, p.cfg.EmbeddingBands)
		if initErr = ec.Initialize(ctx); initErr == nil {
			p.embedding = ec
		}
	})
	if initErr != nil {
		return nil, initErr
	}
	if p.embedding == nil {
		return nil, backend.ErrEmbeddingUnavailable
	}

	return p.embedding.Classify(ctx, text, p.cfg.Neighbors, p.cfg.Voting)
}

// shouldEscalate decides whether an embedding result warrants an ensemble
// round: low confidence in ensemble mode, or a near-tie between the top two
// categories in any mode.
func (p *Pipeline) shouldEscalate(res *EmbeddingResult, mode models.Mode) bool {
	if p.generator == nil {
		return false
	}
	if mode == models.ModeEnsemble && res.Level == models.ConfidenceLow {
		return true
	}
	if len(res.TopCategories) >= 2 {
		margin := res.TopCategories[0].Score - res.TopCategories[1].Score
		return margin < p.cfg.EscalationMargin
	}
	return false
}

// ensembleStage runs one ensemble round and converts the tally into a final
// result. An ambiguous tally becomes a NeedsClarification result rather than
// an error.
func (p *Pipeline) ensembleStage(ctx context.Context, text string, embRes *EmbeddingResult) (*models.ClassificationResult, error) {
	coord := NewCoordinator(p.generator, p.tax, p.cfg.Coordinator, p.logger)
	strategies := DefaultStrategies(p.cfg.EnsembleSize)
	ApplyParamOverrides(strategies, p.cfg.GenerationOverrides)
	ens, err := coord.Classify(ctx, text, strategies)
	if err != nil {
		return nil, err
	}

	res := &models.ClassificationResult{
		Category:    ens.Category,
		Subcategory: p.subcategoryFor(text, ens.Category, embRes),
		Confidence:  ens.Confidence,
		Level:       ens.Level,
		Method:      models.MethodEnsemble,
		Votes:       ens.Votes,
	}

	if ens.NeedsClarification {
		res.NeedsClarification = true
		for _, cat := range ens.Candidates {
			res.Alternatives = append(res.Alternatives, models.Alternative{
				Category: cat,
				Score:    float64(ens.Votes[cat]) / float64(ens.Successes),
			})
		}
		return res, nil
	}

	for cat, n := range ens.Votes {
		if cat == ens.Category {
			continue
		}
		res.Alternatives = append(res.Alternatives, models.Alternative{
			Category: cat,
			Score:    float64(n) / float64(ens.Successes),
		})
	}
	sortAlternatives(res.Alternatives, p.tax)
	return res, nil
}

// subcategoryFor narrows an ensemble category to a subcategory, preferring
// keyword evidence, then embedding neighbors, then the category's first
// subcategory.
func (p *Pipeline) subcategoryFor(text, category string, embRes *EmbeddingResult) string {
	for _, m := range p.keyword.Classify(text) {
		if m.Category == category && m.Score > 0 {
			return m.Subcategory
		}
	}
	if embRes != nil {
		for _, ex := range embRes.SimilarExamples {
			if ex.Category == category {
				return ex.Subcategory
			}
		}
	}
	return p.tax.FirstSubcategory(category)
}

func (p *Pipeline) keywordResult(matches []KeywordMatch, level models.ConfidenceLevel) *models.ClassificationResult {
	best := matches[0]
	res := &models.ClassificationResult{
		Category:    best.Category,
		Subcategory: best.Subcategory,
		Confidence:  best.Score,
		Level:       level,
		Method:      models.MethodKeyword,
	}
	for _, m := range matches[1:] {
		res.Alternatives = append(res.Alternatives, models.Alternative{Category: m.Category, Score: m.Score})
	}
	return res
}

func (p *Pipeline) embeddingResult(embRes *EmbeddingResult) *models.ClassificationResult {
	res := &models.ClassificationResult{
		Category:    embRes.Category,
		Subcategory: embRes.Subcategory,
		Confidence:  embRes.Confidence,
		Level:       embRes.Level,
		Method:      models.MethodEmbedding,
	}
	for _, alt := range embRes.TopCategories {
		if alt.Category == embRes.Category {
			continue
		}
		res.Alternatives = append(res.Alternatives, alt)
	}
	return res
}

// ResolveClarification finishes a classification that asked for user input.
// An empty or skipped answer accepts the original leader at low confidence;
// otherwise the answer is folded into the text and the pipeline reruns.
func (p *Pipeline) ResolveClarification(ctx context.Context, original *models.ClassificationResult, text, answer string, mode models.Mode) (*models.ClassificationResult, error) {
	if original == nil || !original.NeedsClarification {
		return nil, fmt.Errorf("classification does not need clarification")
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		resolved := *original
		resolved.NeedsClarification = false
		resolved.Level = models.ConfidenceLow
		return &resolved, nil
	}

	return p.Classify(ctx, text+" "+answer, mode)
}

func (p *Pipeline) cachedResult(key string) *models.ClassificationResult {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cache[key]
}

func cacheKey(mode models.Mode, text string) string {
	return string(mode) + "|" + text
}

func sortAlternatives(alts []models.Alternative, tax *taxonomy.Taxonomy) {
	for i := 1; i < len(alts); i++ {
		for j := i; j > 0; j-- {
			a, b := alts[j], alts[j-1]
			if a.Score > b.Score || (a.Score == b.Score && tax.PriorityRank(a.Category) < tax.PriorityRank(b.Category)) {
				alts[j], alts[j-1] = alts[j-1], alts[j]
			} else {
				break
			}
		}
	}
}

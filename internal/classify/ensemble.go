package classify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/spboyer/modeladvisor/internal/backend"
	"github.com/spboyer/modeladvisor/internal/models"
	"github.com/spboyer/modeladvisor/internal/taxonomy"
)

// ErrTooFewVotes is returned when the ensemble could not gather enough
// successful completions to produce a trustworthy tally.
var ErrTooFewVotes = errors.New("too few successful ensemble votes")

// Strategy is one ensemble member: a prompt framing plus sampling parameters.
// Varying both across members decorrelates the votes.
type Strategy struct {
	Style  string
	Params backend.GenerateParams
}

// DefaultEnsembleSize is the number of concurrent completions per ensemble
// classification.
const DefaultEnsembleSize = 5

var promptStyles = []string{
	"Classify the following task description into exactly one category from this list: %s.\nTask: %s\nAnswer with only the category name.",
	"You are a machine learning task router. Given the categories %s, which one best fits this request?\nRequest: %s\nRespond with the single best category.",
	"Pick the most appropriate category for the task below. Categories: %s.\nTask: %s\nReply as JSON: {\"category\": \"<name>\"}",
	"A user asked for help with: %s\nWhich of these areas does it belong to: %s? Name just one.",
	"Read the task and choose a category.\nCategories: %s\nTask: %s\nCategory:",
}

// DefaultStrategies builds n ensemble members cycling through the prompt
// framings with a spread of temperatures, low to high.
func DefaultStrategies(n int) []Strategy {
	if n <= 0 {
		n = DefaultEnsembleSize
	}
	temperatures := []float64{0.2, 0.5, 0.8, 1.0, 1.2}

	strategies := make([]Strategy, n)
	for i := range strategies {
		strategies[i] = Strategy{
			Style: promptStyles[i%len(promptStyles)],
			Params: backend.GenerateParams{
				Temperature: temperatures[i%len(temperatures)],
				MaxTokens:   32,
			},
		}
	}
	return strategies
}

// ApplyParamOverrides overlays non-zero sampling values onto every strategy.
// A fixed temperature flattens the default spread.
func ApplyParamOverrides(strategies []Strategy, o backend.GenerateParams) {
	for i := range strategies {
		if o.Temperature > 0 {
			strategies[i].Params.Temperature = o.Temperature
		}
		if o.MaxTokens > 0 {
			strategies[i].Params.MaxTokens = o.MaxTokens
		}
	}
}

// CoordinatorConfig tunes the ensemble coordinator.
type CoordinatorConfig struct {
	// Timeout bounds the wall-clock time of one ensemble round.
	Timeout time.Duration

	// HighVoteFraction and MediumVoteFraction are the vote shares
	// (over successful completions) required for the respective
	// confidence levels.
	HighVoteFraction   float64
	MediumVoteFraction float64

	// MinSuccesses is the minimum number of successful completions needed
	// to trust a tally at all.
	MinSuccesses int
}

// DefaultCoordinatorConfig returns the standard ensemble thresholds.
func DefaultCoordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{
		Timeout:            5 * time.Second,
		HighVoteFraction:   0.8,
		MediumVoteFraction: 0.6,
		MinSuccesses:       2,
	}
}

// Coordinator fans a classification prompt out to several concurrent
// completions and tallies the parsed votes.
type Coordinator struct {
	generator backend.Generator
	tax       *taxonomy.Taxonomy
	cfg       CoordinatorConfig
	logger    *slog.Logger
}

// NewCoordinator creates an ensemble coordinator. The generator may be nil,
// in which case Classify reports ErrGeneratorUnavailable.
func NewCoordinator(generator backend.Generator, tax *taxonomy.Taxonomy, cfg CoordinatorConfig, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{generator: generator, tax: tax, cfg: cfg, logger: logger}
}

// EnsembleResult is the tallied outcome of one ensemble round.
type EnsembleResult struct {
	Category           string
	Confidence         float64
	Level              models.ConfidenceLevel
	Votes              map[string]int
	Successes          int
	Failures           int
	NeedsClarification bool
	// Candidates lists the clarification choices when NeedsClarification is
	// set: every tied leader, or the top-voted categories for a tally below
	// the medium band.
	Candidates []string
}

// Classify runs every strategy concurrently against the generator and
// aggregates the votes. Completions that error or produce an unparseable
// label count as failures; fewer than MinSuccesses successes returns
// ErrTooFewVotes.
func (c *Coordinator) Classify(ctx context.Context, text string, strategies []Strategy) (*EnsembleResult, error) {
	if c.generator == nil {
		return nil, backend.ErrGeneratorUnavailable
	}
	if len(strategies) == 0 {
		strategies = DefaultStrategies(DefaultEnsembleSize)
	}
	parent := ctx
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	categories := strings.Join(c.tax.CategoryIDs(), ", ")

	// One slot per strategy so votes land deterministically regardless of
	// completion order.
	labels := make([]string, len(strategies))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, strat := range strategies {
		group.Go(func() error {
			prompt := fmt.Sprintf(strat.Style, categories, text)
			raw, err := c.generator.Generate(groupCtx, prompt, strat.Params)
			if err != nil {
				c.logger.Debug("ensemble member failed", "member", i, "error", err)
				return nil
			}
			labels[i] = ParseLabel(raw, c.tax)
			if labels[i] == "" {
				c.logger.Debug("ensemble member produced unparseable label", "member", i, "raw", raw)
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	// Members cut off by the round timeout count as failures; only caller
	// cancellation aborts the tally.
	if err := parent.Err(); err != nil {
		return nil, err
	}

	return c.tally(labels)
}

// tally aggregates per-member labels into a result. Exported behavior is
// deterministic for a fixed label multiset.
func (c *Coordinator) tally(labels []string) (*EnsembleResult, error) {
	votes := make(map[string]int)
	successes := 0
	for _, label := range labels {
		if label == "" {
			continue
		}
		votes[label]++
		successes++
	}
	failures := len(labels) - successes

	if successes < c.cfg.MinSuccesses {
		return nil, fmt.Errorf("%w: %d of %d completions usable", ErrTooFewVotes, successes, len(labels))
	}

	top, tied := topVotes(votes, c.tax)
	res := &EnsembleResult{
		Category:   top,
		Confidence: float64(votes[top]) / float64(successes),
		Votes:      votes,
		Successes:  successes,
		Failures:   failures,
	}

	switch {
	case votes[top] >= highVoteCount(successes, c.cfg.HighVoteFraction):
		res.Level = models.ConfidenceHigh
	case votes[top] >= highVoteCount(successes, c.cfg.MediumVoteFraction):
		res.Level = models.ConfidenceMedium
	default:
		res.Level = models.ConfidenceLow
	}

	// A tie or a tally below the medium band is never resolved silently.
	// The leader stays populated so a skipped clarification can fall back
	// to it.
	if len(tied) > 1 || res.Level == models.ConfidenceLow {
		res.NeedsClarification = true
		res.Level = models.ConfidenceLow
		res.Candidates = tied
		if len(tied) == 1 {
			res.Candidates = topCandidates(votes, c.tax, maxCandidates)
		}
	}
	return res, nil
}

// maxCandidates caps the clarification choices for a split tally.
const maxCandidates = 3

// topCandidates returns up to limit categories ordered by vote count, then
// taxonomy priority.
func topCandidates(votes map[string]int, tax *taxonomy.Taxonomy, limit int) []string {
	cats := make([]string, 0, len(votes))
	for cat := range votes {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(a, b int) bool {
		if votes[cats[a]] != votes[cats[b]] {
			return votes[cats[a]] > votes[cats[b]]
		}
		return tax.PriorityRank(cats[a]) < tax.PriorityRank(cats[b])
	})
	if len(cats) > limit {
		cats = cats[:limit]
	}
	return cats
}

// topVotes returns the leading category and, when the top vote count is
// shared, every category holding it, ordered by taxonomy priority.
func topVotes(votes map[string]int, tax *taxonomy.Taxonomy) (string, []string) {
	max := 0
	for _, n := range votes {
		if n > max {
			max = n
		}
	}

	var leaders []string
	for cat, n := range votes {
		if n == max {
			leaders = append(leaders, cat)
		}
	}
	sort.Slice(leaders, func(a, b int) bool {
		return tax.PriorityRank(leaders[a]) < tax.PriorityRank(leaders[b])
	})
	return leaders[0], leaders
}

// highVoteCount converts a fractional threshold over n successes into the
// minimum integer vote count, rounding up.
func highVoteCount(n int, fraction float64) int {
	return int(math.Ceil(fraction * float64(n)))
}

package models

// ConfidenceLevel is the coarse banding of a continuous confidence score.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// Method identifies which classification strategy produced a result.
type Method string

const (
	MethodKeyword   Method = "keyword"
	MethodEmbedding Method = "embedding"
	MethodEnsemble  Method = "ensemble"
)

// Mode selects how much classification effort the caller wants.
type Mode string

const (
	ModeFast     Mode = "fast"
	ModeEnsemble Mode = "ensemble"
)

// ConfidenceBands holds the score cutoffs used to band a confidence score.
// These are tunable configuration, not fixed constants; the defaults were
// chosen empirically and can be overridden via project config.
type ConfidenceBands struct {
	High   float64 `yaml:"high"`
	Medium float64 `yaml:"medium"`
}

// DefaultConfidenceBands returns the standard high/medium cutoffs.
func DefaultConfidenceBands() ConfidenceBands {
	return ConfidenceBands{High: 0.85, Medium: 0.70}
}

// Level bands a score using the cutoffs.
func (b ConfidenceBands) Level(score float64) ConfidenceLevel {
	switch {
	case score >= b.High:
		return ConfidenceHigh
	case score >= b.Medium:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Alternative is a runner-up category offered to the caller when a
// classification is ambiguous.
type Alternative struct {
	Category string  `json:"category"`
	Score    float64 `json:"score"`
}

// ClassificationResult is the outcome of classifying a task description.
// It is created fresh per request and never persisted server-side.
//
// NeedsClarification marks an explicit ambiguity (e.g. an ensemble vote tie).
// Callers must distinguish it from a merely low-confidence resolved result:
// a clarification request has no silently guessed winner.
type ClassificationResult struct {
	Category           string          `json:"category"`
	Subcategory        string          `json:"subcategory"`
	Confidence         float64         `json:"confidence"`
	Level              ConfidenceLevel `json:"confidence_level"`
	Method             Method          `json:"method"`
	Alternatives       []Alternative   `json:"alternatives,omitempty"`
	Votes              map[string]int  `json:"votes,omitempty"`
	NeedsClarification bool            `json:"needs_clarification,omitempty"`
}

// FilterState holds user-adjustable recommendation constraints. It is owned
// by the caller and passed into each recommend call.
type FilterState struct {
	// MinAccuracyThreshold is a percentage in [0, 95]. A model is kept iff
	// (accuracy ?? 0) * 100 >= MinAccuracyThreshold. Zero is a pure no-op.
	MinAccuracyThreshold float64 `json:"min_accuracy_threshold"`

	// DeploymentTarget restricts results to models supporting the target
	// (e.g. "browser", "mobile", "server"). Empty means no restriction.
	DeploymentTarget string `json:"deployment_target,omitempty"`

	Mode Mode `json:"classification_mode,omitempty"`
}

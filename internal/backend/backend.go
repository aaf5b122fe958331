// Package backend defines the boundary to the external embedding and
// text-generation collaborators. Both are treated as black boxes: text in,
// vector or generated text out. Either may be unavailable; callers detect
// that through the sentinel errors and degrade instead of failing.
package backend

import (
	"context"
	"errors"

	"github.com/go-viper/mapstructure/v2"
)

// ErrEmbeddingUnavailable signals that no embedding backend is usable.
// The classification pipeline falls back to keyword-only classification.
var ErrEmbeddingUnavailable = errors.New("embedding backend unavailable")

// ErrGeneratorUnavailable signals that no generative backend is usable.
// The classification pipeline skips ensemble escalation.
var ErrGeneratorUnavailable = errors.New("generator backend unavailable")

// Embedder converts text to a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator produces text from a prompt. Invoked N times per ensemble round
// with independent parameter variants.
type Generator interface {
	Generate(ctx context.Context, prompt string, params GenerateParams) (string, error)
}

// GenerateParams are the per-call sampling knobs for a Generator.
type GenerateParams struct {
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// DecodeGenerateParams decodes loosely-typed parameter maps (e.g. from YAML
// config) into GenerateParams.
func DecodeGenerateParams(raw map[string]any) (GenerateParams, error) {
	var p GenerateParams
	if err := mapstructure.Decode(raw, &p); err != nil {
		return GenerateParams{}, err
	}
	return p, nil
}

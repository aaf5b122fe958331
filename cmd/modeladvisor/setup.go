package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spboyer/modeladvisor/internal/backend"
	"github.com/spboyer/modeladvisor/internal/catalog"
	"github.com/spboyer/modeladvisor/internal/classify"
	"github.com/spboyer/modeladvisor/internal/models"
	"github.com/spboyer/modeladvisor/internal/projectconfig"
	"github.com/spboyer/modeladvisor/internal/taxonomy"
)

// app bundles the loaded configuration and reference data shared by every
// subcommand.
type app struct {
	cfg          *projectconfig.ProjectConfig
	tax          *taxonomy.Taxonomy
	cat          *catalog.Catalog
	genOverrides backend.GenerateParams
}

// loadApp loads project config from the working directory and the taxonomy
// and catalog, honoring path overrides.
func loadApp() (*app, error) {
	cfg, err := projectconfig.Load(".")
	if err != nil {
		return nil, err
	}

	tax := taxonomy.Default()
	if cfg.Paths.Taxonomy != "" {
		if tax, err = taxonomy.Load(cfg.Paths.Taxonomy); err != nil {
			return nil, fmt.Errorf("loading taxonomy: %w", err)
		}
	}

	cat := catalog.Default()
	if cfg.Paths.Catalog != "" {
		if cat, err = catalog.Load(cfg.Paths.Catalog); err != nil {
			return nil, fmt.Errorf("loading catalog: %w", err)
		}
	}

	overrides, err := backend.DecodeGenerateParams(cfg.Classification.GenerationParams)
	if err != nil {
		return nil, fmt.Errorf("invalid generation_params: %w", err)
	}

	return &app{cfg: cfg, tax: tax, cat: cat, genOverrides: overrides}, nil
}

// openAIBackend builds the model backend, or nil when neither an API key nor
// a base URL is configured. A nil backend degrades the pipeline to
// keyword-only classification.
func (a *app) openAIBackend() *backend.OpenAIBackend {
	apiKey := a.cfg.APIKey()
	if apiKey == "" && a.cfg.Backend.BaseURL == "" {
		return nil
	}
	return backend.NewOpenAIBackend(backend.OpenAIConfig{
		APIKey:         apiKey,
		BaseURL:        a.cfg.Backend.BaseURL,
		ChatModel:      a.cfg.Backend.ChatModel,
		EmbeddingModel: a.cfg.Backend.EmbeddingModel,
	})
}

// pipelineConfig translates project config into pipeline tuning.
func (a *app) pipelineConfig() classify.PipelineConfig {
	c := a.cfg.Classification

	pc := classify.DefaultPipelineConfig()
	pc.KeywordBands = models.ConfidenceBands{High: c.KeywordBands.High, Medium: c.KeywordBands.Medium}
	pc.EmbeddingBands = models.ConfidenceBands{High: c.EmbeddingBands.High, Medium: c.EmbeddingBands.Medium}
	pc.EscalationMargin = c.EscalationMargin
	pc.Neighbors = c.Neighbors
	pc.Voting = classify.VotingMethod(c.Voting)
	pc.EnsembleSize = c.EnsembleSize
	pc.Coordinator.Timeout = time.Duration(c.EnsembleTimeout) * time.Second
	pc.GenerationOverrides = a.genOverrides
	return pc
}

// newPipeline builds the classification pipeline with whatever backends the
// configuration provides.
func (a *app) newPipeline(logger *slog.Logger) *classify.Pipeline {
	opts := []classify.PipelineOption{
		classify.WithConfig(a.pipelineConfig()),
		classify.WithLogger(logger),
	}
	if b := a.openAIBackend(); b != nil {
		opts = append(opts, classify.WithEmbedder(b), classify.WithGenerator(b))
	}
	return classify.NewPipeline(a.tax, opts...)
}

// mode parses the --mode flag value, defaulting from project config.
func (a *app) mode(flag string) (models.Mode, error) {
	if flag == "" {
		flag = a.cfg.Classification.Mode
	}
	switch flag {
	case "fast", "":
		return models.ModeFast, nil
	case "ensemble":
		return models.ModeEnsemble, nil
	default:
		return "", fmt.Errorf("invalid mode %q (expected fast or ensemble)", flag)
	}
}

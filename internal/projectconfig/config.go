// Package projectconfig provides the ProjectConfig struct and loader for
// .modeladvisor.yaml project-level configuration files.
package projectconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Default values for project configuration. New() references them and no
// other code should duplicate them.
const (
	DefaultMode = "fast"

	DefaultKeywordHighBand     = 0.8
	DefaultKeywordMediumBand   = 0.6
	DefaultEmbeddingHighBand   = 0.85
	DefaultEmbeddingMediumBand = 0.70
	DefaultEscalationMargin    = 0.1

	DefaultNeighbors = 5
	DefaultVoting    = "weighted"

	DefaultEnsembleSize    = 5
	DefaultEnsembleTimeout = 5

	DefaultServerPort = 3000

	DefaultChatModel      = "gpt-4o-mini"
	DefaultEmbeddingModel = "text-embedding-3-small"
	DefaultAPIKeyEnv      = "OPENAI_API_KEY"
)

// PathsConfig holds override paths for the bundled reference data.
type PathsConfig struct {
	Taxonomy string `yaml:"taxonomy,omitempty"`
	Catalog  string `yaml:"catalog,omitempty"`
}

// BandsConfig holds one high/medium confidence cutoff pair.
type BandsConfig struct {
	High   float64 `yaml:"high,omitempty"`
	Medium float64 `yaml:"medium,omitempty"`
}

// ClassificationConfig holds classifier tuning.
type ClassificationConfig struct {
	Mode             string      `yaml:"mode,omitempty"`
	KeywordBands     BandsConfig `yaml:"keyword_bands,omitempty"`
	EmbeddingBands   BandsConfig `yaml:"embedding_bands,omitempty"`
	EscalationMargin float64     `yaml:"escalation_margin,omitempty"`
	Neighbors        int         `yaml:"neighbors,omitempty"`
	Voting           string      `yaml:"voting,omitempty"`
	EnsembleSize     int         `yaml:"ensemble_size,omitempty"`
	EnsembleTimeout  int         `yaml:"ensemble_timeout,omitempty"`

	// GenerationParams holds raw sampling overrides for ensemble
	// completions, e.g. max_tokens or a fixed temperature.
	GenerationParams map[string]any `yaml:"generation_params,omitempty"`
}

// BackendConfig holds model backend settings. The API key itself never lives
// in the file; only the environment variable name does.
type BackendConfig struct {
	BaseURL        string `yaml:"base_url,omitempty"`
	APIKeyEnv      string `yaml:"api_key_env,omitempty"`
	ChatModel      string `yaml:"chat_model,omitempty"`
	EmbeddingModel string `yaml:"embedding_model,omitempty"`
}

// RecommendConfig holds default recommendation filters.
type RecommendConfig struct {
	MinAccuracy      float64 `yaml:"min_accuracy,omitempty"`
	DeploymentTarget string  `yaml:"deployment_target,omitempty"`
}

// ServerConfig holds API server settings.
type ServerConfig struct {
	Port int    `yaml:"port,omitempty"`
	Host string `yaml:"host,omitempty"`
}

// ProjectConfig is the top-level configuration loaded from .modeladvisor.yaml.
type ProjectConfig struct {
	Paths          PathsConfig          `yaml:"paths,omitempty"`
	Classification ClassificationConfig `yaml:"classification,omitempty"`
	Backend        BackendConfig        `yaml:"backend,omitempty"`
	Recommend      RecommendConfig      `yaml:"recommend,omitempty"`
	Server         ServerConfig         `yaml:"server,omitempty"`
}

// APIKey resolves the backend API key from the configured environment
// variable. Empty when unset.
func (c *ProjectConfig) APIKey() string {
	return os.Getenv(c.Backend.APIKeyEnv)
}

// New returns a ProjectConfig with all hard-coded defaults populated.
func New() *ProjectConfig {
	return &ProjectConfig{
		Classification: ClassificationConfig{
			Mode:             DefaultMode,
			KeywordBands:     BandsConfig{High: DefaultKeywordHighBand, Medium: DefaultKeywordMediumBand},
			EmbeddingBands:   BandsConfig{High: DefaultEmbeddingHighBand, Medium: DefaultEmbeddingMediumBand},
			EscalationMargin: DefaultEscalationMargin,
			Neighbors:        DefaultNeighbors,
			Voting:           DefaultVoting,
			EnsembleSize:     DefaultEnsembleSize,
			EnsembleTimeout:  DefaultEnsembleTimeout,
		},
		Backend: BackendConfig{
			APIKeyEnv:      DefaultAPIKeyEnv,
			ChatModel:      DefaultChatModel,
			EmbeddingModel: DefaultEmbeddingModel,
		},
		Server: ServerConfig{
			Port: DefaultServerPort,
		},
	}
}

// Load finds .modeladvisor.yaml by walking up from startDir (max 10 levels),
// unmarshals it, and fills in missing fields with defaults.
// If no config file is found, returns defaults with a nil error.
// Real I/O errors (e.g. permission denied) are returned to the caller.
func Load(startDir string) (*ProjectConfig, error) {
	cfg := New()

	data, err := findConfigFile(startDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil // no file found → return defaults
		}
		return nil, fmt.Errorf("loading .modeladvisor.yaml: %w", err)
	}

	var fileCfg ProjectConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing .modeladvisor.yaml: %w", err)
	}

	mergeConfig(cfg, &fileCfg)
	return cfg, nil
}

// findConfigFile walks up from dir looking for .modeladvisor.yaml (max 10
// levels). Returns os.ErrNotExist if no config file is found. Propagates real
// I/O errors (e.g. permission denied) instead of silently swallowing them.
func findConfigFile(dir string) ([]byte, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for i := 0; i < 10; i++ {
		p := filepath.Join(dir, ".modeladvisor.yaml")
		data, err := os.ReadFile(p)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break // reached filesystem root
		}
		dir = parent
	}
	return nil, os.ErrNotExist
}

// mergeConfig overlays non-zero values from src onto dst.
func mergeConfig(dst, src *ProjectConfig) {
	// Paths
	if src.Paths.Taxonomy != "" {
		dst.Paths.Taxonomy = src.Paths.Taxonomy
	}
	if src.Paths.Catalog != "" {
		dst.Paths.Catalog = src.Paths.Catalog
	}

	// Classification
	if src.Classification.Mode != "" {
		dst.Classification.Mode = src.Classification.Mode
	}
	if src.Classification.KeywordBands.High != 0 {
		dst.Classification.KeywordBands.High = src.Classification.KeywordBands.High
	}
	if src.Classification.KeywordBands.Medium != 0 {
		dst.Classification.KeywordBands.Medium = src.Classification.KeywordBands.Medium
	}
	if src.Classification.EmbeddingBands.High != 0 {
		dst.Classification.EmbeddingBands.High = src.Classification.EmbeddingBands.High
	}
	if src.Classification.EmbeddingBands.Medium != 0 {
		dst.Classification.EmbeddingBands.Medium = src.Classification.EmbeddingBands.Medium
	}
	if src.Classification.EscalationMargin != 0 {
		dst.Classification.EscalationMargin = src.Classification.EscalationMargin
	}
	if src.Classification.Neighbors != 0 {
		dst.Classification.Neighbors = src.Classification.Neighbors
	}
	if src.Classification.Voting != "" {
		dst.Classification.Voting = src.Classification.Voting
	}
	if src.Classification.EnsembleSize != 0 {
		dst.Classification.EnsembleSize = src.Classification.EnsembleSize
	}
	if src.Classification.EnsembleTimeout != 0 {
		dst.Classification.EnsembleTimeout = src.Classification.EnsembleTimeout
	}
	if len(src.Classification.GenerationParams) > 0 {
		dst.Classification.GenerationParams = src.Classification.GenerationParams
	}

	// Backend
	if src.Backend.BaseURL != "" {
		dst.Backend.BaseURL = src.Backend.BaseURL
	}
	if src.Backend.APIKeyEnv != "" {
		dst.Backend.APIKeyEnv = src.Backend.APIKeyEnv
	}
	if src.Backend.ChatModel != "" {
		dst.Backend.ChatModel = src.Backend.ChatModel
	}
	if src.Backend.EmbeddingModel != "" {
		dst.Backend.EmbeddingModel = src.Backend.EmbeddingModel
	}

	// Recommend
	if src.Recommend.MinAccuracy != 0 {
		dst.Recommend.MinAccuracy = src.Recommend.MinAccuracy
	}
	if src.Recommend.DeploymentTarget != "" {
		dst.Recommend.DeploymentTarget = src.Recommend.DeploymentTarget
	}

	// Server
	if src.Server.Port != 0 {
		dst.Server.Port = src.Server.Port
	}
	if src.Server.Host != "" {
		dst.Server.Host = src.Server.Host
	}
}

package projectconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	cfg := New()

	require.Equal(t, DefaultMode, cfg.Classification.Mode)
	require.Equal(t, DefaultKeywordHighBand, cfg.Classification.KeywordBands.High)
	require.Equal(t, DefaultEmbeddingMediumBand, cfg.Classification.EmbeddingBands.Medium)
	require.Equal(t, DefaultNeighbors, cfg.Classification.Neighbors)
	require.Equal(t, DefaultVoting, cfg.Classification.Voting)
	require.Equal(t, DefaultEnsembleSize, cfg.Classification.EnsembleSize)
	require.Equal(t, DefaultEnsembleTimeout, cfg.Classification.EnsembleTimeout)
	require.Equal(t, DefaultServerPort, cfg.Server.Port)
	require.Equal(t, DefaultAPIKeyEnv, cfg.Backend.APIKeyEnv)
	require.Empty(t, cfg.Paths.Taxonomy)
	require.Zero(t, cfg.Recommend.MinAccuracy)
}

func TestLoad_NoFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, New(), cfg)
}

func TestLoad_MergesOntoDefaults(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
classification:
  mode: ensemble
  ensemble_size: 7
  keyword_bands:
    high: 0.9
  generation_params:
    max_tokens: 64
backend:
  base_url: http://localhost:11434/v1
  chat_model: llama3
server:
  port: 8080
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".modeladvisor.yaml"), content, 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	require.Equal(t, "ensemble", cfg.Classification.Mode)
	require.Equal(t, 7, cfg.Classification.EnsembleSize)
	require.Equal(t, 0.9, cfg.Classification.KeywordBands.High)
	// Unset fields keep their defaults.
	require.Equal(t, DefaultKeywordMediumBand, cfg.Classification.KeywordBands.Medium)
	require.Equal(t, DefaultNeighbors, cfg.Classification.Neighbors)
	require.Equal(t, map[string]any{"max_tokens": 64}, cfg.Classification.GenerationParams)
	require.Equal(t, "http://localhost:11434/v1", cfg.Backend.BaseURL)
	require.Equal(t, "llama3", cfg.Backend.ChatModel)
	require.Equal(t, DefaultEmbeddingModel, cfg.Backend.EmbeddingModel)
	require.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_WalksUpToParent(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".modeladvisor.yaml"), []byte("server:\n  port: 4000\n"), 0o644))

	cfg, err := Load(nested)
	require.NoError(t, err)
	require.Equal(t, 4000, cfg.Server.Port)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".modeladvisor.yaml"), []byte("classification: ["), 0o644))

	_, err := Load(dir)
	require.Error(t, err)
}

func TestAPIKey(t *testing.T) {
	cfg := New()
	cfg.Backend.APIKeyEnv = "MODELADVISOR_TEST_KEY"

	t.Setenv("MODELADVISOR_TEST_KEY", "sk-test")
	require.Equal(t, "sk-test", cfg.APIKey())
}

package backend

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIConfig configures an OpenAI-compatible backend. BaseURL lets the
// same client talk to local inference servers that speak the OpenAI API.
type OpenAIConfig struct {
	APIKey         string
	BaseURL        string
	ChatModel      string
	EmbeddingModel string
}

// OpenAIBackend implements Embedder and Generator against any
// OpenAI-compatible endpoint.
type OpenAIBackend struct {
	client         openai.Client
	chatModel      string
	embeddingModel string
}

// NewOpenAIBackend creates a backend client. An empty APIKey is allowed for
// local endpoints that don't authenticate.
func NewOpenAIBackend(cfg OpenAIConfig) *OpenAIBackend {
	var opts []option.RequestOption
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIBackend{
		client:         openai.NewClient(opts...),
		chatModel:      cfg.ChatModel,
		embeddingModel: cfg.EmbeddingModel,
	}
}

// Embed computes an embedding vector for the text. Returns
// ErrEmbeddingUnavailable when no embedding model is configured, so the
// pipeline can degrade instead of surfacing an error.
func (b *OpenAIBackend) Embed(ctx context.Context, text string) ([]float32, error) {
	if b.embeddingModel == "" {
		return nil, ErrEmbeddingUnavailable
	}

	resp, err := b.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(b.embeddingModel),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(text),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: empty embedding response", ErrEmbeddingUnavailable)
	}

	raw := resp.Data[0].Embedding
	vec := make([]float32, len(raw))
	for i, v := range raw {
		vec[i] = float32(v)
	}
	return vec, nil
}

// Generate runs one chat completion with the given sampling parameters.
func (b *OpenAIBackend) Generate(ctx context.Context, prompt string, params GenerateParams) (string, error) {
	if b.chatModel == "" {
		return "", ErrGeneratorUnavailable
	}

	req := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(b.chatModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}
	if params.Temperature > 0 {
		req.Temperature = openai.Float(params.Temperature)
	}
	if params.MaxTokens > 0 {
		req.MaxTokens = openai.Int(int64(params.MaxTokens))
	}

	resp, err := b.client.Chat.Completions.New(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

package summarizer

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIEmbedder implements EmbeddingProvider against the same
// OpenAI-compatible gateway the Summarizer uses, keeping the embedding
// model a configurable string rather than a hard-coded vendor choice.
type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// NewOpenAIEmbedder builds an embedder against apiBase/apiKey. model is
// typically "text-embedding-3-small"; pass openai.AdaEmbeddingV2 or any
// string the gateway accepts.
func NewOpenAIEmbedder(apiBase, apiKey, model string) *OpenAIEmbedder {
	cfg := openai.DefaultConfig(apiKey)
	if apiBase != "" {
		cfg.BaseURL = apiBase
	}
	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(cfg),
		model:  openai.EmbeddingModel(model),
	}
}

// Embed requests a single embedding vector for text.
func (o *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: o.model,
	})
	if err != nil {
		return nil, fmt.Errorf("embeddings: create: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embeddings: gateway returned no vectors")
	}
	return resp.Data[0].Embedding, nil
}

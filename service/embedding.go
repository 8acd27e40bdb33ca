package service

import (
	"context"

	"github.com/sashabaranov/go-openai"
)

// OpenAIEmbeddingService computes query and document embeddings
// through an OpenAI-compatible embeddings endpoint. Ollama serves one
// at <base-url>/v1, so no API key is needed for a local setup.
type OpenAIEmbeddingService struct {
	client *openai.Client
	model  string
}

func NewOpenAIEmbeddingService(baseURL, apiKey, model string) *OpenAIEmbeddingService {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL
	client := openai.NewClientWithConfig(config)
	return &OpenAIEmbeddingService{
		client: client,
		model:  model,
	}
}

func (s *OpenAIEmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := s.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(s.model),
	})
	if err != nil {
		return nil, NewEmbeddingError("embedding request failed", err)
	}
	if len(resp.Data) == 0 {
		return nil, NewEmbeddingError("embedding response contained no vectors", nil)
	}
	return resp.Data[0].Embedding, nil
}

// EmbedBatch embeds several texts in one request, used by ingestion.
func (s *OpenAIEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := s.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(s.model),
	})
	if err != nil {
		return nil, NewEmbeddingError("batch embedding request failed", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, NewEmbeddingError("embedding response size mismatch", nil)
	}
	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

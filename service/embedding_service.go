package service

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// embedBatchSize bounds how many texts go into one embedding request.
const embedBatchSize = 64

// EmbeddingService produces dense vectors through an OpenAI-compatible
// embedding endpoint. The dimension is a fixed deployment constant.
type EmbeddingService struct {
	client    *openai.Client
	model     string
	dimension int
}

func NewEmbeddingService(baseURL, apiKey, model string, dimension int) *EmbeddingService {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &EmbeddingService{
		client:    openai.NewClientWithConfig(config),
		model:     model,
		dimension: dimension,
	}
}

func (s *EmbeddingService) Dimension() int {
	return s.dimension
}

func (s *EmbeddingService) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		resp, err := s.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
			Input:      texts[start:end],
			Model:      openai.EmbeddingModel(s.model),
			Dimensions: s.dimension,
		})
		if err != nil {
			return nil, classifyProviderError(err)
		}
		if len(resp.Data) != end-start {
			return nil, fmt.Errorf("embedding count mismatch: asked %d, got %d", end-start, len(resp.Data))
		}
		for _, d := range resp.Data {
			vectors = append(vectors, d.Embedding)
		}
	}
	return vectors, nil
}

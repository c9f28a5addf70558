package service

import (
	"context"
)

// AIService is the reasoning model provider. Implementations return the
// model's raw text; callers are responsible for parsing structure out of
// it and must tolerate non-conformant output.
type AIService interface {
	GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Embedder turns text into fixed-dimension dense vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

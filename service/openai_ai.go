package service

import (
	"context"
	"errors"
	"net"

	"github.com/sashabaranov/go-openai"
)

// OpenAIService backs AIService with an OpenAI-compatible chat endpoint.
type OpenAIService struct {
	client      *openai.Client
	model       string
	temperature float32
}

func NewOpenAIService(baseURL, apiKey, model string) *OpenAIService {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	client := openai.NewClientWithConfig(config)
	return &OpenAIService{
		client:      client,
		model:       model,
		temperature: 0.1,
	}
}

func (s *OpenAIService) GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: userPrompt},
	}

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Messages:    messages,
			Model:       s.model,
			Temperature: s.temperature,
		},
	)
	if err != nil {
		return "", classifyProviderError(err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response generated")
	}
	return resp.Choices[0].Message.Content, nil
}

// classifyProviderError wraps rate limits, timeouts, and server errors as
// retryable; everything else propagates as-is.
func classifyProviderError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500 {
			return &RetryableError{Reason: "provider error", Err: err}
		}
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &RetryableError{Reason: "provider timeout", Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &RetryableError{Reason: "provider timeout", Err: err}
	}
	return err
}

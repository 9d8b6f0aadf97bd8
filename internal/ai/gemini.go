package ai

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"quizly/internal/apperr"
)

// GeminiClient is the alternate chat backend, selected via config.
type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		model:  model,
	}, nil
}

func (c *GeminiClient) Complete(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](float32(req.Temperature)),
		TopP:        genai.Ptr[float32](0.95),
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.ForceJSON {
		config.ResponseMIMEType = "application/json"
	}

	// Gemini has no separate system role slot in this call shape, the
	// system message is prepended to the prompt instead.
	var prompt string
	for _, m := range req.Messages {
		if prompt != "" {
			prompt += "\n\n"
		}
		prompt += m.Content
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), config)
	if err != nil {
		return nil, fmt.Errorf("%w: gemini completion: %v", apperr.ErrProvider, err)
	}

	text := result.Text()
	if text == "" {
		return nil, fmt.Errorf("%w: gemini completion returned no content", apperr.ErrProvider)
	}

	var tokens int64
	if result.UsageMetadata != nil {
		tokens = int64(result.UsageMetadata.TotalTokenCount)
	}

	return &ChatResult{
		Text:       text,
		TokensUsed: tokens,
	}, nil
}

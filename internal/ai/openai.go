package ai

import (
	"context"
	"fmt"
	"io"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"quizly/internal/apperr"
)

type OpenAIClient struct {
	client         *openai.Client
	chatModel      string
	embeddingModel string
}

func NewOpenAIClient(apiKey, chatModel, embeddingModel string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
	)

	return &OpenAIClient{
		client:         &client,
		chatModel:      chatModel,
		embeddingModel: embeddingModel,
	}, nil
}

func (c *OpenAIClient) Complete(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			messages = append(messages, openai.SystemMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.chatModel),
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(req.MaxTokens)
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.ForceJSON {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: chat completion: %v", apperr.ErrProvider, err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: chat completion returned no choices", apperr.ErrProvider)
	}

	return &ChatResult{
		Text:       resp.Choices[0].Message.Content,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}

func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float64, error) {
	resp, err := c.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(c.embeddingModel),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(text),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: embedding: %v", apperr.ErrProvider, err)
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: embedding returned no data", apperr.ErrProvider)
	}

	return resp.Data[0].Embedding, nil
}

func (c *OpenAIClient) ModelName() string {
	return c.embeddingModel
}

// Synthesize renders text with the OpenAI speech endpoint. The voice name
// maps onto one of the fixed OpenAI voices; LanguageCode is ignored here.
func (c *OpenAIClient) Synthesize(ctx context.Context, text string, voice Voice) ([]byte, error) {
	params := openai.AudioSpeechNewParams{
		Model:          openai.SpeechModelGPT4oMiniTTS,
		Input:          text,
		Voice:          openai.AudioSpeechNewParamsVoice(voice.Name),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatWAV,
	}

	resp, err := c.client.Audio.Speech.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: speech synthesis: %v", apperr.ErrProvider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading speech response: %v", apperr.ErrProvider, err)
	}

	return body, nil
}

package ai

import (
	"context"
)

type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

type Message struct {
	Role    Role
	Content string
}

type ChatRequest struct {
	Messages    []Message
	MaxTokens   int64
	Temperature float64
	// ForceJSON constrains the response to a single valid JSON object.
	ForceJSON bool
}

type ChatResult struct {
	Text       string
	TokensUsed int64
}

// ChatCompleter produces one model response for an ordered message list.
type ChatCompleter interface {
	Complete(ctx context.Context, req ChatRequest) (*ChatResult, error)
}

// Embedder turns text into a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	ModelName() string
}

// Voice selects a synthesis voice for one speaker.
type Voice struct {
	LanguageCode string
	Name         string
}

// SpeechSynthesizer renders text as encoded audio bytes.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string, voice Voice) ([]byte, error)
}

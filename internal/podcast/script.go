package podcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"quizly/internal/ai"
	"quizly/internal/apperr"
	"quizly/internal/db"
)

// Speaker identifies one of the two podcast voices.
type Speaker string

const (
	SpeakerQuestioner Speaker = "questioner"
	SpeakerAnswerer   Speaker = "answerer"
)

// Segment is one line of dialogue attributed to one speaker.
type Segment struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

// maxCardChars caps each card's contribution to the script prompt so large
// decks stay inside provider token limits.
const maxCardChars = 500

const scriptSystemPrompt = `You write scripts for a two-host study podcast.
The "questioner" host poses questions and keeps the conversation moving; the "answerer" host explains the answers in a friendly, conversational way.
Open with a short intro, cover every flashcard, and close with a short outro.
Respond with a single JSON object: {"segments": [{"speaker": "questioner"|"answerer", "text": "..."}]}.`

type scriptEnvelope struct {
	Segments []Segment `json:"segments"`
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// GenerateScript asks the LLM for a two-speaker dialogue covering every card.
// An empty or unparseable script is fatal; under-coverage only logs a warning.
func GenerateScript(ctx context.Context, completer ai.ChatCompleter, cards []*db.Flashcard, logger *slog.Logger) ([]Segment, error) {
	if len(cards) == 0 {
		return nil, fmt.Errorf("%w: no flashcards to script", apperr.ErrInvalidInput)
	}

	var b strings.Builder
	for i, card := range cards {
		fmt.Fprintf(&b, "%d. Q: %s\n   A: %s\n", i+1, truncate(card.Question, maxCardChars), truncate(card.Answer, maxCardChars))
	}

	prompt := fmt.Sprintf("Write a podcast dialogue covering these %d flashcards:\n\n%s", len(cards), b.String())

	resp, err := completer.Complete(ctx, ai.ChatRequest{
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: scriptSystemPrompt},
			{Role: ai.RoleUser, Content: prompt},
		},
		MaxTokens:   4000,
		Temperature: 0.7,
		ForceJSON:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrScriptGeneration, err)
	}

	var envelope scriptEnvelope
	if err := json.Unmarshal([]byte(resp.Text), &envelope); err != nil {
		return nil, fmt.Errorf("%w: parsing script: %v", apperr.ErrScriptGeneration, err)
	}

	segments := make([]Segment, 0, len(envelope.Segments))
	for _, seg := range envelope.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		speaker := seg.Speaker
		if speaker != SpeakerQuestioner && speaker != SpeakerAnswerer {
			speaker = SpeakerAnswerer
		}
		segments = append(segments, Segment{Speaker: speaker, Text: text})
	}

	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: model returned an empty script", apperr.ErrScriptGeneration)
	}

	// Intro + outro + roughly three exchanges per card. Below that the
	// script likely skipped cards, which is tolerated but worth noticing.
	if minimum := 3*len(cards) + 2; len(segments) < minimum {
		logger.Warn("podcast script shorter than expected",
			"segments", len(segments),
			"expected_min", minimum,
			"cards", len(cards))
	}

	return segments, nil
}

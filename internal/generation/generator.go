package generation

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

// maxSourceChars caps how much study text goes into one generation prompt.
const maxSourceChars = 3000

// Request describes one flashcard generation job.
type Request struct {
	Text         string
	Count        int
	Difficulty   db.Difficulty
	QuestionType db.QuestionType
}

// Output is one finished generation run.
type Output struct {
	Cards      []Card
	TokensUsed int64
}

// Card is one generated flashcard before persistence.
type Card struct {
	Question     string          `json:"question"`
	Answer       string          `json:"answer"`
	Difficulty   db.Difficulty   `json:"difficulty"`
	QuestionType db.QuestionType `json:"question_type"`
	Options      []string        `json:"options,omitempty"`
	CorrectIndex *int            `json:"correct_index,omitempty"`
	Tags         []string        `json:"tags,omitempty"`
}

// Generator turns study text into validated flashcards via an LLM.
type Generator struct {
	completer ai.ChatCompleter
	logger    *slog.Logger
}

func NewGenerator(completer ai.ChatCompleter, logger *slog.Logger) *Generator {
	return &Generator{
		completer: completer,
		logger:    logger,
	}
}

const mcqInstructions = `Each flashcard must be a multiple-choice question with exactly 4 options.
Set "question_type" to "mcq", fill "options" with 4 distinct answer strings, and set "correct_index" to the 0-based index of the right option.
The "answer" field must repeat the text of the correct option.`

const trueFalseInstructions = `Each flashcard must be a true/false statement.
Set "question_type" to "true_false", fill "options" with exactly ["True", "False"], and set "correct_index" to 0 if the statement is true, 1 if false.
The "answer" field must be "True" or "False".`

const freeResponseInstructions = `Each flashcard must be an open question answerable in one or two sentences.
Set "question_type" to "free_response" and leave "options" and "correct_index" out entirely.`

func instructionsFor(questionType db.QuestionType) string {
	switch questionType {
	case db.QuestionTypeMCQ:
		return mcqInstructions
	case db.QuestionTypeTrueFalse:
		return trueFalseInstructions
	default:
		return freeResponseInstructions
	}
}

const generationSystemPrompt = `You create study flashcards from provided material.
Respond with a single JSON object of the shape {"flashcards": [...]}.
Each flashcard object has the fields: question, answer, difficulty, question_type, options, correct_index, tags.
Cover the most important concepts first. Never invent facts not present in the material.`

type generationEnvelope struct {
	Flashcards []rawCard `json:"flashcards"`
}

// rawCard tolerates the sloppier shapes models emit, enum values arrive as
// "DifficultyLevel.MEDIUM" or "medium" interchangeably.
type rawCard struct {
	Question     string   `json:"question"`
	Answer       string   `json:"answer"`
	Difficulty   string   `json:"difficulty"`
	QuestionType string   `json:"question_type"`
	Options      []string `json:"options"`
	CorrectIndex *int     `json:"correct_index"`
	Tags         []string `json:"tags"`
}

// normalizeEnum recovers a clean enum value from strings like
// "DifficultyLevel.MEDIUM" or "QuestionType.MCQ".
func normalizeEnum(value string) string {
	if idx := strings.LastIndex(value, "."); idx >= 0 {
		value = value[idx+1:]
	}
	return strings.ToLower(strings.TrimSpace(value))
}

// Generate produces up to req.Count flashcards from req.Text. Cards the model
// returns malformed are dropped; it is an error only if nothing valid remains.
func (g *Generator) Generate(ctx context.Context, req Request) (*Output, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("%w: source text is empty", apperr.ErrInvalidInput)
	}
	if req.Count <= 0 {
		return nil, fmt.Errorf("%w: card count must be positive", apperr.ErrInvalidInput)
	}

	text := req.Text
	if len(text) > maxSourceChars {
		text = text[:maxSourceChars]
	}

	maxTokens := int64(1500)
	if req.Count > 10 {
		maxTokens = 2500
	}

	prompt := fmt.Sprintf(`Create %d flashcards at %s difficulty from the following material.

%s

Material:
%s`, req.Count, req.Difficulty, instructionsFor(req.QuestionType), text)

	resp, err := g.completer.Complete(ctx, ai.ChatRequest{
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: generationSystemPrompt},
			{Role: ai.RoleUser, Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.3,
		ForceJSON:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrGeneration, err)
	}

	var envelope generationEnvelope
	if err := json.Unmarshal([]byte(resp.Text), &envelope); err != nil {
		return nil, fmt.Errorf("%w: parsing model output: %v", apperr.ErrGeneration, err)
	}

	cards := make([]Card, 0, req.Count)
	for i, raw := range envelope.Flashcards {
		card, err := g.validateCard(raw, req)
		if err != nil {
			g.logger.Warn("dropping malformed generated card", "index", i, "error", err)
			continue
		}
		cards = append(cards, card)
		if len(cards) == req.Count {
			break
		}
	}

	if len(cards) == 0 {
		return nil, fmt.Errorf("%w: model returned no usable flashcards", apperr.ErrGeneration)
	}

	return &Output{Cards: cards, TokensUsed: resp.TokensUsed}, nil
}

func (g *Generator) validateCard(raw rawCard, req Request) (Card, error) {
	question := strings.TrimSpace(raw.Question)
	answer := strings.TrimSpace(raw.Answer)
	if question == "" || answer == "" {
		return Card{}, fmt.Errorf("missing question or answer")
	}

	difficulty := db.Difficulty(normalizeEnum(raw.Difficulty))
	if !db.ValidDifficulty(difficulty) {
		difficulty = req.Difficulty
	}

	questionType := db.QuestionType(normalizeEnum(raw.QuestionType))
	if !db.ValidQuestionType(questionType) {
		questionType = req.QuestionType
	}
	if questionType != req.QuestionType {
		return Card{}, fmt.Errorf("got %s card, wanted %s", questionType, req.QuestionType)
	}

	card := Card{
		Question:     question,
		Answer:       answer,
		Difficulty:   difficulty,
		QuestionType: questionType,
		Tags:         raw.Tags,
	}

	switch questionType {
	case db.QuestionTypeMCQ:
		if len(raw.Options) != 4 {
			return Card{}, fmt.Errorf("mcq card has %d options, want 4", len(raw.Options))
		}
		if raw.CorrectIndex == nil || *raw.CorrectIndex < 0 || *raw.CorrectIndex >= len(raw.Options) {
			return Card{}, fmt.Errorf("mcq card has invalid correct_index")
		}
		card.Options = raw.Options
		card.CorrectIndex = raw.CorrectIndex
	case db.QuestionTypeTrueFalse:
		if len(raw.Options) != 2 {
			return Card{}, fmt.Errorf("true/false card has %d options, want 2", len(raw.Options))
		}
		if raw.CorrectIndex == nil || *raw.CorrectIndex < 0 || *raw.CorrectIndex > 1 {
			return Card{}, fmt.Errorf("true/false card has invalid correct_index")
		}
		card.Options = raw.Options
		card.CorrectIndex = raw.CorrectIndex
	default:
		// Free-response cards carry no options; silently drop any the
		// model added.
	}

	return card, nil
}

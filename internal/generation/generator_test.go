package generation

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"quizly/internal/ai"
	"quizly/internal/apperr"
	"quizly/internal/db"
)

type fakeCompleter struct {
	response string
	err      error
	lastReq  ai.ChatRequest
}

func (f *fakeCompleter) Complete(_ context.Context, req ai.ChatRequest) (*ai.ChatResult, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &ai.ChatResult{Text: f.response}, nil
}

func newTestGenerator(completer ai.ChatCompleter) *Generator {
	return NewGenerator(completer, slog.Default())
}

func TestGenerateFreeResponse(t *testing.T) {
	completer := &fakeCompleter{
		response: `{"flashcards": [
			{"question": "What is photosynthesis?", "answer": "The process by which plants convert light to chemical energy.", "difficulty": "medium", "question_type": "free_response", "tags": ["biology"]},
			{"question": "Where does photosynthesis occur?", "answer": "In the chloroplasts.", "difficulty": "easy", "question_type": "free_response"}
		]}`,
	}
	generator := newTestGenerator(completer)

	out, err := generator.Generate(context.Background(), Request{
		Text:         "Photosynthesis converts light into chemical energy inside chloroplasts.",
		Count:        2,
		Difficulty:   db.DifficultyMedium,
		QuestionType: db.QuestionTypeFreeResponse,
	})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	cards := out.Cards
	if len(cards) != 2 {
		t.Fatalf("got %d cards, want 2", len(cards))
	}
	if cards[0].Question != "What is photosynthesis?" {
		t.Errorf("unexpected first question: %q", cards[0].Question)
	}
	if cards[0].Options != nil || cards[0].CorrectIndex != nil {
		t.Error("free-response cards must not carry options")
	}
	if cards[1].Difficulty != db.DifficultyEasy {
		t.Errorf("difficulty = %q, want easy", cards[1].Difficulty)
	}

	if !completer.lastReq.ForceJSON {
		t.Error("generation must request JSON output")
	}
	if completer.lastReq.Temperature != 0.3 {
		t.Errorf("temperature = %v, want 0.3", completer.lastReq.Temperature)
	}
	if completer.lastReq.MaxTokens != 1500 {
		t.Errorf("max tokens = %d, want 1500 for small batches", completer.lastReq.MaxTokens)
	}
}

func TestGenerateLargeBatchGetsMoreTokens(t *testing.T) {
	completer := &fakeCompleter{
		response: `{"flashcards": [{"question": "q", "answer": "a", "difficulty": "easy", "question_type": "free_response"}]}`,
	}
	generator := newTestGenerator(completer)

	if _, err := generator.Generate(context.Background(), Request{
		Text:         "some material",
		Count:        15,
		Difficulty:   db.DifficultyEasy,
		QuestionType: db.QuestionTypeFreeResponse,
	}); err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if completer.lastReq.MaxTokens != 2500 {
		t.Errorf("max tokens = %d, want 2500 for batches over 10", completer.lastReq.MaxTokens)
	}
}

func TestGenerateTruncatesLongSourceText(t *testing.T) {
	completer := &fakeCompleter{
		response: `{"flashcards": [{"question": "q", "answer": "a", "difficulty": "easy", "question_type": "free_response"}]}`,
	}
	generator := newTestGenerator(completer)

	longText := strings.Repeat("photosynthesis ", 1000)
	if _, err := generator.Generate(context.Background(), Request{
		Text:         longText,
		Count:        1,
		Difficulty:   db.DifficultyEasy,
		QuestionType: db.QuestionTypeFreeResponse,
	}); err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	userMessage := completer.lastReq.Messages[len(completer.lastReq.Messages)-1].Content
	if strings.Contains(userMessage, longText) {
		t.Error("source text was not truncated before prompting")
	}
}

func TestGenerateRecoversDottedEnumValues(t *testing.T) {
	completer := &fakeCompleter{
		response: `{"flashcards": [{"question": "q", "answer": "a", "difficulty": "DifficultyLevel.MEDIUM", "question_type": "QuestionType.FREE_RESPONSE"}]}`,
	}
	generator := newTestGenerator(completer)

	out, err := generator.Generate(context.Background(), Request{
		Text:         "material",
		Count:        1,
		Difficulty:   db.DifficultyEasy,
		QuestionType: db.QuestionTypeFreeResponse,
	})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	cards := out.Cards
	if cards[0].Difficulty != db.DifficultyMedium {
		t.Errorf("difficulty = %q, want medium recovered from dotted enum", cards[0].Difficulty)
	}
	if cards[0].QuestionType != db.QuestionTypeFreeResponse {
		t.Errorf("question type = %q, want free_response", cards[0].QuestionType)
	}
}

func TestGenerateDropsMalformedCards(t *testing.T) {
	completer := &fakeCompleter{
		response: `{"flashcards": [
			{"question": "", "answer": "no question", "difficulty": "easy", "question_type": "mcq"},
			{"question": "only three options?", "answer": "a", "difficulty": "easy", "question_type": "mcq", "options": ["a", "b", "c"], "correct_index": 0},
			{"question": "index out of range?", "answer": "a", "difficulty": "easy", "question_type": "mcq", "options": ["a", "b", "c", "d"], "correct_index": 7},
			{"question": "the good one?", "answer": "b", "difficulty": "easy", "question_type": "mcq", "options": ["a", "b", "c", "d"], "correct_index": 1}
		]}`,
	}
	generator := newTestGenerator(completer)

	out, err := generator.Generate(context.Background(), Request{
		Text:         "material",
		Count:        4,
		Difficulty:   db.DifficultyEasy,
		QuestionType: db.QuestionTypeMCQ,
	})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	cards := out.Cards
	if len(cards) != 1 {
		t.Fatalf("got %d cards, want only the valid one", len(cards))
	}
	if cards[0].Question != "the good one?" {
		t.Errorf("kept the wrong card: %q", cards[0].Question)
	}
	if *cards[0].CorrectIndex != 1 {
		t.Errorf("correct index = %d, want 1", *cards[0].CorrectIndex)
	}
}

func TestGenerateCapsAtRequestedCount(t *testing.T) {
	var items []string
	for i := 0; i < 6; i++ {
		items = append(items, `{"question": "q`+string(rune('0'+i))+`?", "answer": "a", "difficulty": "easy", "question_type": "free_response"}`)
	}
	completer := &fakeCompleter{response: `{"flashcards": [` + strings.Join(items, ",") + `]}`}
	generator := newTestGenerator(completer)

	out, err := generator.Generate(context.Background(), Request{
		Text:         "material",
		Count:        3,
		Difficulty:   db.DifficultyEasy,
		QuestionType: db.QuestionTypeFreeResponse,
	})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if len(out.Cards) != 3 {
		t.Errorf("got %d cards, want capped at 3", len(out.Cards))
	}
}

func TestGenerateAllMalformedIsError(t *testing.T) {
	completer := &fakeCompleter{
		response: `{"flashcards": [{"question": "", "answer": ""}]}`,
	}
	generator := newTestGenerator(completer)

	_, err := generator.Generate(context.Background(), Request{
		Text:         "material",
		Count:        1,
		Difficulty:   db.DifficultyEasy,
		QuestionType: db.QuestionTypeFreeResponse,
	})
	if !errors.Is(err, apperr.ErrGeneration) {
		t.Errorf("expected ErrGeneration, got %v", err)
	}
}

func TestGenerateProviderFailure(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("provider down")}
	generator := newTestGenerator(completer)

	_, err := generator.Generate(context.Background(), Request{
		Text:         "material",
		Count:        1,
		Difficulty:   db.DifficultyEasy,
		QuestionType: db.QuestionTypeFreeResponse,
	})
	if !errors.Is(err, apperr.ErrGeneration) {
		t.Errorf("expected ErrGeneration, got %v", err)
	}
}

func TestGenerateRejectsEmptyInput(t *testing.T) {
	generator := newTestGenerator(&fakeCompleter{})

	if _, err := generator.Generate(context.Background(), Request{Text: "  ", Count: 3}); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty text, got %v", err)
	}
	if _, err := generator.Generate(context.Background(), Request{Text: "x", Count: 0}); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for zero count, got %v", err)
	}
}

func TestGenerateTrueFalseValidation(t *testing.T) {
	completer := &fakeCompleter{
		response: `{"flashcards": [{"question": "The sky is blue.", "answer": "True", "difficulty": "easy", "question_type": "true_false", "options": ["True", "False"], "correct_index": 0}]}`,
	}
	generator := newTestGenerator(completer)

	out, err := generator.Generate(context.Background(), Request{
		Text:         "material",
		Count:        1,
		Difficulty:   db.DifficultyEasy,
		QuestionType: db.QuestionTypeTrueFalse,
	})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	cards := out.Cards
	if len(cards[0].Options) != 2 {
		t.Errorf("true/false card has %d options, want 2", len(cards[0].Options))
	}

	var roundTrip Card
	payload, _ := json.Marshal(cards[0])
	if err := json.Unmarshal(payload, &roundTrip); err != nil {
		t.Fatalf("card does not round-trip through JSON: %v", err)
	}
}

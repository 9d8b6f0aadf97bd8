package grading

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"quizly/internal/ai"
	"quizly/internal/apperr"
	"quizly/internal/db"
	"quizly/internal/textnorm"
)

// llmCorrectFloor decides correctness when the LLM verdict omits the
// is_correct flag.
const llmCorrectFloor = 0.65

// Input is one (question, reference answer, user answer) triple to grade.
type Input struct {
	Question     string
	Answer       string
	UserAnswer   string
	QuestionType db.QuestionType
	CorrectIndex *int
}

// Result is a grading verdict. Score is in [0,1]; for structured questions
// it is exactly 0 or 1.
type Result struct {
	IsCorrect bool    `json:"is_correct"`
	Score     float64 `json:"score"`
	Feedback  string  `json:"feedback"`
}

// Grader combines LLM grading with embedding-similarity grading. LLM grading
// is semantically forgiving but rate-limited and non-deterministic; the
// embedding path is the cheap deterministic fallback. Strategies run in
// order and the next one is tried only on explicit failure.
type Grader struct {
	scorer    *Scorer
	completer ai.ChatCompleter
	logger    *slog.Logger
}

func NewGrader(scorer *Scorer, completer ai.ChatCompleter, logger *slog.Logger) *Grader {
	return &Grader{
		scorer:    scorer,
		completer: completer,
		logger:    logger,
	}
}

// Grade evaluates one answer. For mcq/true_false the user answer must be the
// 0-based option index; everything else goes through free-response grading.
func (g *Grader) Grade(ctx context.Context, in Input) (*Result, error) {
	if in.QuestionType == db.QuestionTypeMCQ || in.QuestionType == db.QuestionTypeTrueFalse {
		return g.gradeStructured(in)
	}

	return g.gradeFreeResponse(ctx, in)
}

func (g *Grader) gradeStructured(in Input) (*Result, error) {
	if in.CorrectIndex == nil {
		return nil, fmt.Errorf("%w: question has no correct option index", apperr.ErrInvalidInput)
	}

	userIndex, err := strconv.Atoi(strings.TrimSpace(in.UserAnswer))
	if err != nil {
		return nil, fmt.Errorf("%w: user answer must be the option index for %s questions", apperr.ErrInvalidInput, in.QuestionType)
	}

	if userIndex == *in.CorrectIndex {
		return &Result{
			IsCorrect: true,
			Score:     1.0,
			Feedback:  "Correct! Well done.",
		}, nil
	}

	var feedback string
	if in.QuestionType == db.QuestionTypeTrueFalse {
		correct := "True"
		if *in.CorrectIndex != 0 {
			correct = "False"
		}
		feedback = fmt.Sprintf("Incorrect. The correct answer is: %s", correct)
	} else {
		feedback = fmt.Sprintf("Incorrect. The correct answer was option %d.", *in.CorrectIndex)
	}

	return &Result{
		IsCorrect: false,
		Score:     0.0,
		Feedback:  feedback,
	}, nil
}

func (g *Grader) gradeFreeResponse(ctx context.Context, in Input) (*Result, error) {
	userNorm := textnorm.Normalize(in.UserAnswer)
	referenceNorm := textnorm.Normalize(in.Answer)

	type strategy struct {
		name string
		run  func(ctx context.Context) (*Result, error)
	}

	var strategies []strategy
	if g.completer != nil && in.Question != "" {
		strategies = append(strategies, strategy{
			name: "llm",
			run: func(ctx context.Context) (*Result, error) {
				return g.gradeWithLLM(ctx, in.Question, referenceNorm, userNorm)
			},
		})
	}
	strategies = append(strategies, strategy{
		name: "embedding",
		run: func(ctx context.Context) (*Result, error) {
			return g.gradeWithEmbeddings(ctx, userNorm, referenceNorm)
		},
	})

	var lastErr error
	for _, s := range strategies {
		result, err := s.run(ctx)
		if err != nil {
			g.logger.Warn("grading strategy failed", "strategy", s.name, "error", err)
			lastErr = err
			continue
		}
		return result, nil
	}

	return nil, fmt.Errorf("all grading strategies failed: %w", lastErr)
}

type llmVerdict struct {
	Score     float64 `json:"score"`
	IsCorrect *bool   `json:"is_correct"`
	Feedback  string  `json:"feedback"`
}

const gradingSystemPrompt = "You are a fair grader of short study answers. " +
	"Award partial credit for synonyms and paraphrase, ignore filler words and transcription noise. " +
	"Respond with a single JSON object: {\"score\": <0-100>, \"is_correct\": <bool>, \"feedback\": <string>}."

func (g *Grader) gradeWithLLM(ctx context.Context, question, reference, userAnswer string) (*Result, error) {
	prompt := fmt.Sprintf("Question: %s\nReference answer: %s\nStudent answer: %s", question, reference, userAnswer)

	resp, err := g.completer.Complete(ctx, ai.ChatRequest{
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: gradingSystemPrompt},
			{Role: ai.RoleUser, Content: prompt},
		},
		MaxTokens:   300,
		Temperature: 0.1,
		ForceJSON:   true,
	})
	if err != nil {
		return nil, err
	}

	var verdict llmVerdict
	if err := json.Unmarshal([]byte(resp.Text), &verdict); err != nil {
		return nil, fmt.Errorf("parsing grading verdict: %w", err)
	}

	score := verdict.Score / 100.0
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	isCorrect := score >= llmCorrectFloor
	if verdict.IsCorrect != nil {
		isCorrect = *verdict.IsCorrect
	}

	feedback := verdict.Feedback
	if feedback == "" {
		feedback = g.scorer.Feedback(score)
	}

	return &Result{
		IsCorrect: isCorrect,
		Score:     score,
		Feedback:  feedback,
	}, nil
}

func (g *Grader) gradeWithEmbeddings(ctx context.Context, userNorm, referenceNorm string) (*Result, error) {
	score, err := g.scorer.Score(ctx, userNorm, referenceNorm)
	if err != nil {
		return nil, err
	}

	return &Result{
		IsCorrect: g.scorer.IsCorrect(score),
		Score:     score,
		Feedback:  g.scorer.Feedback(score),
	}, nil
}

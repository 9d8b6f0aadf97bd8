package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"quizly/internal/ai"
	"quizly/internal/apperr"
	"quizly/internal/contract"
	"quizly/internal/db"
	"quizly/internal/generation"
	"quizly/internal/grading"
	"quizly/internal/textnorm"
)

func (h *Handler) AddAIRoutes(g *echo.Group) {
	g.POST("/ai/generate", h.GenerateFlashcards)
	g.POST("/ai/evaluate", h.EvaluateAnswer)
	g.POST("/ai/similarity", h.Similarity)
	g.POST("/ai/embedding", h.Embedding)
	g.POST("/ai/extract", h.ExtractText)
}

// deckTitleFromText derives a short deck title from the opening of the study
// material.
func deckTitleFromText(text string) string {
	words := strings.Fields(text)
	if len(words) > 6 {
		words = words[:6]
	}
	title := strings.Join(words, " ")
	if len(title) > 60 {
		title = title[:60]
	}
	if title == "" {
		title = "Generated deck"
	}
	return title
}

func (h *Handler) GenerateFlashcards(c echo.Context) error {
	userID, err := GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	var req contract.GenerateFlashcardsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to bind request")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	started := time.Now()

	var deck *db.Deck
	if req.DeckID != "" {
		deck, err = h.db.GetDeck(req.DeckID)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return echo.NewHTTPError(http.StatusNotFound, "Deck not found")
			}
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch deck")
		}
		if deck.UserID != userID {
			return echo.NewHTTPError(http.StatusForbidden, "Access denied")
		}
	}

	difficulty := db.Difficulty(req.Difficulty)
	if difficulty == "" {
		difficulty = db.DifficultyMedium
	}
	questionType := db.QuestionType(req.QuestionType)
	if questionType == "" {
		questionType = db.QuestionTypeFreeResponse
	}

	out, err := h.generator.Generate(c.Request().Context(), generation.Request{
		Text:         req.Text,
		Count:        req.Count,
		Difficulty:   difficulty,
		QuestionType: questionType,
	})
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidInput) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		h.logger.Error("flashcard generation failed", "deck_id", req.DeckID, "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "Failed to generate flashcards")
	}

	if deck == nil {
		deck, err = h.db.CreateDeck(userID, deckTitleFromText(req.Text), "Generated from study material.", nil)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create deck")
		}
	}

	toSave := make([]db.Flashcard, 0, len(out.Cards))
	for _, card := range out.Cards {
		toSave = append(toSave, db.Flashcard{
			Question:     card.Question,
			Answer:       card.Answer,
			Difficulty:   card.Difficulty,
			QuestionType: card.QuestionType,
			Options:      card.Options,
			CorrectIndex: card.CorrectIndex,
			Tags:         card.Tags,
		})
	}

	saved, err := h.db.AddFlashcardsInBatch(deck.ID, toSave)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save flashcards")
	}

	result := make([]*db.Flashcard, len(saved))
	for i := range saved {
		result[i] = &saved[i]
	}

	return c.JSON(http.StatusCreated, contract.GenerateFlashcardsResponse{
		DeckID:           deck.ID,
		Flashcards:       result,
		TokensUsed:       out.TokensUsed,
		ProcessingTimeMs: time.Since(started).Milliseconds(),
	})
}

func (h *Handler) EvaluateAnswer(c echo.Context) error {
	userID, err := GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	var req contract.EvaluateAnswerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to bind request")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	card, err := h.db.GetFlashcard(req.FlashcardID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Card not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch card")
	}

	deck, err := h.db.GetDeck(card.DeckID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch deck")
	}
	if deck.UserID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "Access denied")
	}

	verdict, err := h.grader.Grade(c.Request().Context(), grading.Input{
		Question:     card.Question,
		Answer:       card.Answer,
		UserAnswer:   req.UserAnswer,
		QuestionType: card.QuestionType,
		CorrectIndex: card.CorrectIndex,
	})
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidInput) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		h.logger.Error("answer evaluation failed", "card_id", card.ID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to evaluate answer")
	}

	if req.SessionID != "" {
		session, err := h.db.GetSession(req.SessionID)
		if err == nil && session.UserID == userID && session.EndedAt == nil {
			if err := h.db.RecordSessionAnswer(session.ID, verdict.IsCorrect); err != nil {
				h.logger.Warn("failed to record session answer", "session_id", session.ID, "error", err)
			}
		}
	}

	return c.JSON(http.StatusOK, contract.EvaluateAnswerResponse{
		IsCorrect: verdict.IsCorrect,
		Score:     verdict.Score,
		Feedback:  verdict.Feedback,
	})
}

// Similarity exposes the embedding comparison directly, useful for tuning the
// threshold against real answer pairs.
func (h *Handler) Similarity(c echo.Context) error {
	if _, err := GetUserIDFromToken(c); err != nil {
		return err
	}

	var req contract.SimilarityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to bind request")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	score, err := h.scorer.Score(c.Request().Context(), req.TextA, req.TextB)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "Failed to compute similarity")
	}

	return c.JSON(http.StatusOK, contract.SimilarityResponse{
		Similarity:  score,
		NormalizedA: textnorm.Normalize(req.TextA),
		NormalizedB: textnorm.Normalize(req.TextB),
	})
}

// Embedding returns the raw vector for a text, for inspecting what the cache
// and scorer actually see.
func (h *Handler) Embedding(c echo.Context) error {
	if _, err := GetUserIDFromToken(c); err != nil {
		return err
	}

	var req contract.EmbeddingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to bind request")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	normalized := textnorm.Normalize(req.Text)
	vector, err := h.scorer.Embed(c.Request().Context(), normalized)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "Failed to compute embedding")
	}

	return c.JSON(http.StatusOK, contract.EmbeddingResponse{
		Embedding:  vector,
		Dimension:  len(vector),
		Normalized: normalized,
	})
}

func (h *Handler) ExtractText(c echo.Context) error {
	if _, err := GetUserIDFromToken(c); err != nil {
		return err
	}

	var req contract.ExtractTextRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to bind request")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	notes, err := ai.ExtractStudyNotes(c.Request().Context(), h.completer, req.Text)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "Failed to extract study notes")
	}

	return c.JSON(http.StatusOK, contract.ExtractTextResponse{Notes: notes})
}

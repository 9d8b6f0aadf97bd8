package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"quizly/internal/contract"
	"quizly/internal/db"
)

func (h *Handler) AddFlashcardRoutes(g *echo.Group) {
	g.GET("/decks/:id/cards", h.GetDeckFlashcards)
	g.POST("/decks/:id/cards", h.CreateFlashcard)
	g.GET("/cards/:id", h.GetFlashcard)
	g.PUT("/cards/:id", h.UpdateFlashcard)
	g.DELETE("/cards/:id", h.DeleteFlashcard)
}

func (h *Handler) GetDeckFlashcards(c echo.Context) error {
	userID, err := GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	deck, err := h.deckForUser(c, userID)
	if err != nil {
		return err
	}

	cards, err := h.db.GetDeckFlashcards(deck.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch cards")
	}

	return c.JSON(http.StatusOK, cards)
}

// validateCardShape enforces the option rules per question type.
func validateCardShape(questionType db.QuestionType, options []string, correctIndex *int) error {
	switch questionType {
	case db.QuestionTypeMCQ:
		if len(options) != 4 {
			return echo.NewHTTPError(http.StatusBadRequest, "MCQ cards require exactly 4 options")
		}
		if correctIndex == nil || *correctIndex < 0 || *correctIndex >= len(options) {
			return echo.NewHTTPError(http.StatusBadRequest, "MCQ cards require a valid correct_index")
		}
	case db.QuestionTypeTrueFalse:
		if len(options) != 2 {
			return echo.NewHTTPError(http.StatusBadRequest, "True/false cards require exactly 2 options")
		}
		if correctIndex == nil || *correctIndex < 0 || *correctIndex > 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "True/false cards require correct_index 0 or 1")
		}
	default:
		if len(options) > 0 || correctIndex != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Free-response cards must not have options")
		}
	}
	return nil
}

func (h *Handler) CreateFlashcard(c echo.Context) error {
	userID, err := GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	deck, err := h.deckForUser(c, userID)
	if err != nil {
		return err
	}

	var req contract.CreateFlashcardRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to bind request")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	difficulty := db.Difficulty(req.Difficulty)
	if difficulty == "" {
		difficulty = db.DifficultyMedium
	}
	questionType := db.QuestionType(req.QuestionType)
	if questionType == "" {
		questionType = db.QuestionTypeFreeResponse
	}

	if err := validateCardShape(questionType, req.Options, req.CorrectIndex); err != nil {
		return err
	}

	card, err := h.db.AddFlashcard(&db.Flashcard{
		DeckID:       deck.ID,
		Question:     req.Question,
		Answer:       req.Answer,
		Difficulty:   difficulty,
		QuestionType: questionType,
		Options:      req.Options,
		CorrectIndex: req.CorrectIndex,
		Tags:         req.Tags,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create card")
	}

	return c.JSON(http.StatusCreated, card)
}

// cardForUser loads a flashcard by the :id param and enforces ownership
// through its deck.
func (h *Handler) cardForUser(c echo.Context, userID string) (*db.Flashcard, error) {
	cardID := c.Param("id")
	if cardID == "" {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Card ID is required")
	}

	card, err := h.db.GetFlashcard(cardID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "Card not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch card")
	}

	deck, err := h.db.GetDeck(card.DeckID)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch deck")
	}
	if deck.UserID != userID {
		return nil, echo.NewHTTPError(http.StatusForbidden, "Access denied")
	}

	return card, nil
}

func (h *Handler) GetFlashcard(c echo.Context) error {
	userID, err := GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	card, err := h.cardForUser(c, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, card)
}

func (h *Handler) UpdateFlashcard(c echo.Context) error {
	userID, err := GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	card, err := h.cardForUser(c, userID)
	if err != nil {
		return err
	}

	var req contract.UpdateFlashcardRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to bind request")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := validateCardShape(card.QuestionType, req.Options, req.CorrectIndex); err != nil {
		return err
	}

	card.Question = req.Question
	card.Answer = req.Answer
	if req.Difficulty != "" {
		card.Difficulty = db.Difficulty(req.Difficulty)
	}
	card.Options = req.Options
	card.CorrectIndex = req.CorrectIndex
	card.Tags = req.Tags

	if err := h.db.UpdateFlashcard(card); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update card")
	}

	return c.JSON(http.StatusOK, card)
}

func (h *Handler) DeleteFlashcard(c echo.Context) error {
	userID, err := GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	card, err := h.cardForUser(c, userID)
	if err != nil {
		return err
	}

	if err := h.db.DeleteFlashcard(card.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete card")
	}

	return c.NoContent(http.StatusNoContent)
}

package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"quizly/internal/contract"
	"quizly/internal/db"
)

func (h *Handler) AddDeckRoutes(g *echo.Group) {
	g.GET("/decks", h.GetDecks)
	g.GET("/decks/:id", h.GetDeck)
	g.POST("/decks", h.CreateDeck)
	g.PUT("/decks/:id", h.UpdateDeck)
	g.DELETE("/decks/:id", h.DeleteDeck)
}

func (h *Handler) GetDecks(c echo.Context) error {
	userID, err := GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	decks, err := h.db.GetDecks(userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch decks")
	}

	return c.JSON(http.StatusOK, decks)
}

// deckForUser loads a deck by the :id param and enforces ownership.
func (h *Handler) deckForUser(c echo.Context, userID string) (*db.Deck, error) {
	deckID := c.Param("id")
	if deckID == "" {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Deck ID is required")
	}

	deck, err := h.db.GetDeck(deckID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "Deck not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch deck")
	}

	if deck.UserID != userID {
		return nil, echo.NewHTTPError(http.StatusForbidden, "Access denied")
	}

	return deck, nil
}

func (h *Handler) GetDeck(c echo.Context) error {
	userID, err := GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	deck, err := h.deckForUser(c, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, deck)
}

func (h *Handler) CreateDeck(c echo.Context) error {
	userID, err := GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	var req contract.CreateDeckRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to bind request")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if req.FolderID != nil {
		folder, err := h.db.GetFolder(*req.FolderID)
		if err != nil || folder.UserID != userID {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid folder")
		}
	}

	deck, err := h.db.CreateDeck(userID, req.Title, req.Description, req.FolderID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create deck")
	}

	return c.JSON(http.StatusCreated, deck)
}

func (h *Handler) UpdateDeck(c echo.Context) error {
	userID, err := GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	deck, err := h.deckForUser(c, userID)
	if err != nil {
		return err
	}

	var req contract.UpdateDeckRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to bind request")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if req.FolderID != nil {
		folder, err := h.db.GetFolder(*req.FolderID)
		if err != nil || folder.UserID != userID {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid folder")
		}
	}

	if err := h.db.UpdateDeck(deck.ID, req.Title, req.Description, req.FolderID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update deck")
	}

	updated, err := h.db.GetDeck(deck.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch deck")
	}

	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) DeleteDeck(c echo.Context) error {
	userID, err := GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	deck, err := h.deckForUser(c, userID)
	if err != nil {
		return err
	}

	if err := h.db.DeleteDeck(deck.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete deck")
	}

	return c.NoContent(http.StatusNoContent)
}

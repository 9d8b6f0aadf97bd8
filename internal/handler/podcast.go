package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"quizly/internal/contract"
	"quizly/internal/db"
)

func (h *Handler) AddPodcastRoutes(g *echo.Group) {
	g.POST("/podcasts", h.CreatePodcast)
	g.GET("/podcasts/:id", h.GetPodcast)
}

// CreatePodcast enqueues an episode build. Assembly runs in the background
// job; the client polls GetPodcast for the result.
func (h *Handler) CreatePodcast(c echo.Context) error {
	userID, err := GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	var req contract.CreatePodcastRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to bind request")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	deck, err := h.db.GetDeck(req.DeckID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Deck not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch deck")
	}
	if deck.UserID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "Access denied")
	}

	cards, err := h.db.GetDeckFlashcards(deck.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch cards")
	}
	if len(cards) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Deck has no cards to narrate")
	}

	podcast, err := h.db.CreatePodcast(userID, deck.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create podcast")
	}

	return c.JSON(http.StatusAccepted, podcast)
}

func (h *Handler) GetPodcast(c echo.Context) error {
	userID, err := GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	podcastID := c.Param("id")
	if podcastID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Podcast ID is required")
	}

	podcast, err := h.db.GetPodcast(podcastID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Podcast not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch podcast")
	}
	if podcast.UserID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "Access denied")
	}

	return c.JSON(http.StatusOK, podcast)
}

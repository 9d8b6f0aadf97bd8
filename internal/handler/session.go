package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"quizly/internal/contract"
	"quizly/internal/db"
)

func (h *Handler) AddSessionRoutes(g *echo.Group) {
	g.GET("/sessions", h.GetSessions)
	g.GET("/sessions/:id", h.GetSessionStats)
	g.POST("/sessions", h.StartSession)
	g.POST("/sessions/:id/end", h.EndSession)
}

func (h *Handler) GetSessions(c echo.Context) error {
	userID, err := GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	sessions, err := h.db.GetUserSessions(userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch sessions")
	}

	return c.JSON(http.StatusOK, sessions)
}

// GetSessionStats returns one session with its accuracy percentage.
func (h *Handler) GetSessionStats(c echo.Context) error {
	userID, err := GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	sessionID := c.Param("id")
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Session ID is required")
	}

	session, err := h.db.GetSession(sessionID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Session not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch session")
	}
	if session.UserID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "Access denied")
	}

	var accuracy float64
	if session.TotalCards > 0 {
		accuracy = float64(session.CorrectAnswers) / float64(session.TotalCards) * 100
	}

	return c.JSON(http.StatusOK, contract.SessionStatsResponse{
		Session:  *session,
		Accuracy: accuracy,
	})
}

func (h *Handler) StartSession(c echo.Context) error {
	userID, err := GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	var req contract.StartSessionRequest
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

	session, err := h.db.CreateSession(userID, deck.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to start session")
	}

	return c.JSON(http.StatusCreated, session)
}

func (h *Handler) EndSession(c echo.Context) error {
	userID, err := GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	sessionID := c.Param("id")
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Session ID is required")
	}

	session, err := h.db.GetSession(sessionID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Session not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch session")
	}
	if session.UserID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "Access denied")
	}
	if session.EndedAt != nil {
		return echo.NewHTTPError(http.StatusConflict, "Session already ended")
	}

	ended, err := h.db.EndSession(session.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to end session")
	}

	return c.JSON(http.StatusOK, ended)
}

package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"quizly/internal/ai"
	"quizly/internal/contract"
)

// cardVoice is the single voice used for on-demand card audio.
var cardVoice = ai.Voice{LanguageCode: "en-US", Name: "en-US-Neural2-F"}

func (h *Handler) AddAudioRoutes(g *echo.Group) {
	g.POST("/cards/:id/audio", h.GenerateCardAudio)
}

// GenerateCardAudio synthesizes a spoken version of one card and stores it in
// blob storage.
func (h *Handler) GenerateCardAudio(c echo.Context) error {
	userID, err := GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	if h.synthesizer == nil || h.storageProvider == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Audio synthesis is not configured")
	}

	card, err := h.cardForUser(c, userID)
	if err != nil {
		return err
	}

	text := fmt.Sprintf("%s %s", card.Question, card.Answer)
	audio, err := h.synthesizer.Synthesize(c.Request().Context(), text, cardVoice)
	if err != nil {
		h.logger.Error("card audio synthesis failed", "card_id", card.ID, "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "Failed to synthesize audio")
	}

	path := fmt.Sprintf("audio/cards/%s.wav", card.ID)
	url, err := h.storageProvider.UploadFile(c.Request().Context(), bytes.NewReader(audio), path, "audio/wav")
	if err != nil {
		h.logger.Error("card audio upload failed", "card_id", card.ID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to store audio")
	}

	return c.JSON(http.StatusCreated, contract.CardAudioResponse{URL: url})
}

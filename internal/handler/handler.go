package handler

import (
	"log/slog"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"quizly/internal/ai"
	"quizly/internal/contract"
	"quizly/internal/db"
	"quizly/internal/generation"
	"quizly/internal/grading"
	"quizly/internal/middleware"
	"quizly/internal/storage"
)

type Handler struct {
	db              *db.Storage
	jwtSecret       string
	storageProvider storage.Provider
	completer       ai.ChatCompleter
	synthesizer     ai.SpeechSynthesizer
	grader          *grading.Grader
	scorer          *grading.Scorer
	generator       *generation.Generator
	logger          *slog.Logger
}

func New(
	db *db.Storage,
	jwtSecret string,
	storageProvider storage.Provider,
	completer ai.ChatCompleter,
	synthesizer ai.SpeechSynthesizer,
	grader *grading.Grader,
	scorer *grading.Scorer,
	generator *generation.Generator,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		db:              db,
		jwtSecret:       jwtSecret,
		storageProvider: storageProvider,
		completer:       completer,
		synthesizer:     synthesizer,
		grader:          grader,
		scorer:          scorer,
		generator:       generator,
		logger:          logger,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/auth/register", h.Register)
	e.POST("/auth/login", h.Login)

	v1 := e.Group("/v1")

	v1.Use(echojwt.WithConfig(middleware.GetUserAuthConfig(h.jwtSecret)))

	h.AddFolderRoutes(v1)
	h.AddDeckRoutes(v1)
	h.AddFlashcardRoutes(v1)
	h.AddAudioRoutes(v1)
	h.AddAIRoutes(v1)
	h.AddSessionRoutes(v1)
	h.AddPodcastRoutes(v1)
	h.AddUploadRoutes(v1)
}

func GetUserIDFromToken(c echo.Context) (string, error) {
	user, ok := c.Get("user").(*jwt.Token)
	if !ok || user == nil {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
	}

	claims, ok := user.Claims.(*contract.JWTClaims)
	if !ok || claims == nil {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
	}

	return claims.UID, nil
}

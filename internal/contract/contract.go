package contract

import (
	"quizly/internal/db"

	"github.com/golang-jwt/jwt/v5"
)

type JWTClaims struct {
	jwt.RegisteredClaims
	UID string `json:"uid,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token string  `json:"token"`
	User  db.User `json:"user"`
}

type CreateFolderRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description"`
}

type UpdateFolderRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description"`
}

type CreateDeckRequest struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description string  `json:"description"`
	FolderID    *string `json:"folder_id,omitempty"`
}

type UpdateDeckRequest struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description string  `json:"description"`
	FolderID    *string `json:"folder_id,omitempty"`
}

type CreateFlashcardRequest struct {
	Question     string   `json:"question" validate:"required"`
	Answer       string   `json:"answer" validate:"required"`
	Difficulty   string   `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	QuestionType string   `json:"question_type" validate:"omitempty,oneof=mcq true_false free_response"`
	Options      []string `json:"options,omitempty"`
	CorrectIndex *int     `json:"correct_index,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

type UpdateFlashcardRequest struct {
	Question     string   `json:"question" validate:"required"`
	Answer       string   `json:"answer" validate:"required"`
	Difficulty   string   `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Options      []string `json:"options,omitempty"`
	CorrectIndex *int     `json:"correct_index,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

// GenerateFlashcardsRequest creates cards from study text. DeckID is
// optional; when omitted a new deck is created for the batch.
type GenerateFlashcardsRequest struct {
	DeckID       string `json:"deck_id,omitempty"`
	Text         string `json:"text" validate:"required"`
	Count        int    `json:"count" validate:"required,min=1,max=50"`
	Difficulty   string `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	QuestionType string `json:"question_type" validate:"omitempty,oneof=mcq true_false free_response"`
}

type GenerateFlashcardsResponse struct {
	DeckID           string          `json:"deck_id"`
	Flashcards       []*db.Flashcard `json:"flashcards"`
	TokensUsed       int64           `json:"tokens_used"`
	ProcessingTimeMs int64           `json:"processing_time_ms"`
}

type EvaluateAnswerRequest struct {
	FlashcardID string `json:"flashcard_id" validate:"required"`
	UserAnswer  string `json:"user_answer" validate:"required"`
	SessionID   string `json:"session_id,omitempty"`
}

type EvaluateAnswerResponse struct {
	IsCorrect bool    `json:"is_correct"`
	Score     float64 `json:"score"`
	Feedback  string  `json:"feedback"`
}

type SimilarityRequest struct {
	TextA string `json:"text_a" validate:"required"`
	TextB string `json:"text_b" validate:"required"`
}

type SimilarityResponse struct {
	Similarity  float64 `json:"similarity"`
	NormalizedA string  `json:"normalized_a"`
	NormalizedB string  `json:"normalized_b"`
}

type EmbeddingRequest struct {
	Text string `json:"text" validate:"required"`
}

type EmbeddingResponse struct {
	Embedding  []float64 `json:"embedding"`
	Dimension  int       `json:"dimension"`
	Normalized string    `json:"normalized"`
}

type StartSessionRequest struct {
	DeckID string `json:"deck_id" validate:"required"`
}

// SessionStatsResponse is a session with its derived accuracy in percent.
type SessionStatsResponse struct {
	Session  db.Session `json:"session"`
	Accuracy float64    `json:"accuracy"`
}

type CardAudioResponse struct {
	URL string `json:"url"`
}

type ExtractTextRequest struct {
	Text string `json:"text" validate:"required"`
}

type ExtractTextResponse struct {
	Notes string `json:"notes"`
}

type CreatePodcastRequest struct {
	DeckID string `json:"deck_id" validate:"required"`
}

type UploadResponse struct {
	URL string `json:"url"`
}
